// Package inbox_tools exposes the assistant use cases as MCP tools.
//
// Mailbox tools take the caller's Google credentials as arguments, the same
// way the HTTP API takes them in the request body, and return new_token
// when a refresh happened:
//   - inbox_unread_count: Unread message estimate
//   - inbox_recent_emails: Metadata of the most recent messages
//   - inbox_ranked_emails: Recent messages ordered by importance
//
// Model tools need no credentials:
//   - inbox_summarize_email: Two to three sentence email summary
//   - inbox_classify_command: Intent of one or more voice commands
//   - inbox_auth_url: Google consent URL to obtain credentials
package inbox_tools
