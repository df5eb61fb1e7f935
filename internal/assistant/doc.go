// Package assistant composes the credential resolver, the Gmail client and
// the language model components into the request-scoped use cases shared
// by the HTTP API and the MCP tools.
//
// Each mailbox call resolves the caller's credentials into a fresh handle,
// so nothing is cached between requests. When the handle refreshed the
// access token, the result carries the new token for the caller to store.
package assistant
