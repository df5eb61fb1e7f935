// Package resources provides MCP resources describing the assistant.
// Resources are read-only documents that MCP clients can fetch; here they
// list the command intents the classifier knows and the request limits of
// the mailbox tools, so a client can prompt its user accordingly.
package resources
