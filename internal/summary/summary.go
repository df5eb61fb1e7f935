// Package summary produces a short spoken-style summary of one email.
package summary

import (
	"context"
	"fmt"
	"strings"

	"github.com/teemow/inboxpal/internal/apperr"
)

// MaxBodyLength bounds the number of body characters sent to the model.
const MaxBodyLength = 4000

const systemPrompt = "You summarize emails for a voice assistant. " +
	"Reply with a 2 to 3 sentence summary in plain language, without greetings or markup."

// Email is the content to summarize.
type Email struct {
	ID      string `json:"id"`
	From    string `json:"from"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Completer is a single-turn chat completion.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// Summarizer summarizes emails with a Completer.
type Summarizer struct {
	completer Completer
}

// New creates a Summarizer.
func New(c Completer) *Summarizer {
	return &Summarizer{completer: c}
}

// Summarize returns the model's summary of e.
func (s *Summarizer) Summarize(ctx context.Context, e Email) (string, error) {
	const op = "summary.summarize"

	if strings.TrimSpace(e.Subject) == "" && strings.TrimSpace(e.Body) == "" {
		return "", apperr.EmptyInput(op, "email subject or body is required")
	}

	answer, err := s.completer.Complete(ctx, systemPrompt, Prompt(e))
	if err != nil {
		return "", apperr.Ensure(apperr.KindProviderUnavailable, op, err)
	}
	return strings.TrimSpace(answer), nil
}

// Prompt renders e for the model with the body bounded to MaxBodyLength.
func Prompt(e Email) string {
	body := []rune(e.Body)
	if len(body) > MaxBodyLength {
		body = body[:MaxBodyLength]
	}
	return fmt.Sprintf("Summarize this email.\n\nFrom: %s\nSubject: %s\n\n%s", e.From, e.Subject, string(body))
}
