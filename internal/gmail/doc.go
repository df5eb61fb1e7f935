// Package gmail queries a user's mailbox through the Gmail API.
//
// A Client is built per request from the authenticated HTTP client of a
// google.Handle; it is never shared between requests. The package offers
// three read-only operations:
//   - CountUnread: the provider's unread estimate
//   - ListRecent: metadata of the most recent messages
//   - ListFullForRanking: messages with their plain-text bodies, as input to
//     the ranking pipeline
//
// Message fetches run concurrently but results keep the provider's order.
// Errors are returned as apperr kinds: a 401 from Gmail is
// CredentialExpired, anything else ProviderUnavailable.
package gmail
