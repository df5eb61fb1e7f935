// Package intent classifies a free-text assistant command into one of a
// fixed set of intents with a single chat completion.
package intent

import (
	"context"
	"fmt"
	"strings"

	"github.com/teemow/inboxpal/internal/apperr"
)

// Intent is the classifier's answer. Values outside the known set are
// possible, since the model answer is returned verbatim.
type Intent string

// The closed set of known intents.
const (
	SummarizeEmails Intent = "SUMMARIZE_EMAILS"
	NextEmail       Intent = "NEXT_EMAIL"
	SkipEmail       Intent = "SKIP_EMAIL"
	MoreDetails     Intent = "MORE_DETAILS"
	Stop            Intent = "STOP"
	Other           Intent = "OTHER"
)

// All lists the known intents in prompt order.
var All = []Intent{SummarizeEmails, NextEmail, SkipEmail, MoreDetails, Stop, Other}

// Known reports whether i is one of the known intents. The match is exact
// and case-sensitive.
func (i Intent) Known() bool {
	for _, k := range All {
		if i == k {
			return true
		}
	}
	return false
}

// Normalized returns i if it is known and Other otherwise.
func (i Intent) Normalized() Intent {
	if i.Known() {
		return i
	}
	return Other
}

var responses = map[Intent]string{
	SummarizeEmails: "Let me summarize your recent emails.",
	NextEmail:       "Moving on to the next email.",
	SkipEmail:       "Skipping this email.",
	MoreDetails:     "Here are more details about this email.",
	Stop:            "Okay, stopping here.",
	Other:           "Sorry, I didn't understand that. You can ask me to summarize your emails, go to the next one, skip one, give more details, or stop.",
}

// Response returns the canned reply for i. Unknown intents get the reply
// for Other.
func (i Intent) Response() string {
	return responses[i.Normalized()]
}

// Completer is a single-turn chat completion.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// Classifier maps commands to intents.
type Classifier struct {
	completer Completer
	system    string
}

// NewClassifier creates a Classifier.
func NewClassifier(c Completer) *Classifier {
	return &Classifier{completer: c, system: systemPrompt()}
}

func systemPrompt() string {
	names := make([]string, 0, len(All))
	for _, i := range All {
		names = append(names, string(i))
	}
	return fmt.Sprintf("You classify voice commands for an email assistant. "+
		"Classify the user's command into exactly one of these categories: %s. "+
		"Respond with only the category name.", strings.Join(names, ", "))
}

// Classify returns the model's answer with surrounding whitespace removed.
// The answer is not coerced into the known set; see Intent.Known.
func (c *Classifier) Classify(ctx context.Context, text string) (Intent, error) {
	const op = "intent.classify"

	if strings.TrimSpace(text) == "" {
		return "", apperr.EmptyInput(op, "command text is required")
	}

	answer, err := c.completer.Complete(ctx, c.system, text)
	if err != nil {
		return "", apperr.Ensure(apperr.KindProviderUnavailable, op, err)
	}
	return Intent(strings.TrimSpace(answer)), nil
}
