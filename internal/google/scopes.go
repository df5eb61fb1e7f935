package google

// Scopes requested during consent. gmail.metadata is deliberately absent:
// a token carrying it is refused format=full message reads, which ranking needs.
var Scopes = []string{
	"https://www.googleapis.com/auth/gmail.readonly",
}
