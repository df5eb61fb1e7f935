// Package logging provides structured logging helpers for inboxpal.
//
// All components log through log/slog with the attribute keys defined here,
// so request IDs, routes and operation names line up across the HTTP layer,
// the Gmail client and the language model client.
//
//	logger := logging.WithRequestID(slog.Default(), id)
//	logger.Info("ranked emails", logging.Route("/api/gmail/ranked-emails"),
//	    logging.Status(logging.StatusDegraded))
//
// Access and refresh tokens are never logged directly; use SanitizeToken or
// Token.
package logging
