package gmail

// Default and maximum page sizes for the list operations.
const (
	DefaultRecentResults  = 5
	DefaultRankingResults = 10
	MaxResults            = 500
)

// PreviewLength is the number of characters kept in RankableMessage.BodyPreview.
const PreviewLength = 500

// MessageSummary is the metadata view of one message.
type MessageSummary struct {
	ID      string `json:"id"`
	Snippet string `json:"snippet"`
	From    string `json:"from"`
	Subject string `json:"subject"`
	Date    string `json:"date"`
	Unread  bool   `json:"unread"`
}

// RankableMessage carries the body of a message for ranking. ImportanceRank
// is set by the ranking pipeline; nil means unranked.
type RankableMessage struct {
	ID             string `json:"id"`
	From           string `json:"from"`
	Subject        string `json:"subject"`
	Date           string `json:"date"`
	BodyPreview    string `json:"body_preview"`
	Body           string `json:"body"`
	Unread         bool   `json:"unread"`
	ImportanceRank *int   `json:"importance_rank,omitempty"`
}

// clampResults applies the default for n <= 0 and caps n at MaxResults.
func clampResults(n, def int64) int64 {
	if n <= 0 {
		return def
	}
	if n > MaxResults {
		return MaxResults
	}
	return n
}
