// Package llm is the OpenAI client used for chat completions and audio
// transcription.
//
// Consumers depend on small interfaces (ranking.Completer,
// transcribe.Transcriber) that *Client satisfies, so tests substitute fakes
// without an HTTP server. Provider errors are returned as
// apperr.ProviderUnavailable carrying the provider's message.
package llm
