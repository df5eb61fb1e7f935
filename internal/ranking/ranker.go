package ranking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/teemow/inboxpal/internal/gmail"
	"github.com/teemow/inboxpal/internal/instrumentation"
	"github.com/teemow/inboxpal/internal/logging"
)

// PromptBodyLength is the number of body characters per message in the prompt.
const PromptBodyLength = 200

const systemPrompt = "You are an assistant that prioritizes a user's email inbox."

// Completer is a single-turn chat completion.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// Ranker ranks messages with a Completer.
type Ranker struct {
	completer      Completer
	appendUnranked bool
	metrics        *instrumentation.Metrics
	logger         *slog.Logger
}

// Option configures a Ranker.
type Option func(*Ranker)

// WithAppendUnranked appends messages the model did not mention after the
// ranked ones, in input order, instead of dropping them.
func WithAppendUnranked(enabled bool) Option {
	return func(r *Ranker) { r.appendUnranked = enabled }
}

// WithMetrics records ranking outcomes on m.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(r *Ranker) { r.metrics = m }
}

// WithLogger sets the logger for degraded results.
func WithLogger(l *slog.Logger) Option {
	return func(r *Ranker) {
		if l != nil {
			r.logger = l
		}
	}
}

// New creates a Ranker.
func New(c Completer, opts ...Option) *Ranker {
	r := &Ranker{completer: c, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Rank orders msgs by importance and sets ImportanceRank to the 1-based
// position in the result. msgs is not modified.
func (r *Ranker) Rank(ctx context.Context, msgs []gmail.RankableMessage) Result {
	if len(msgs) == 0 {
		return Ranked([]gmail.RankableMessage{})
	}

	ctx, span := instrumentation.StartSpan(ctx, "ranking.rank",
		attribute.Int(instrumentation.SpanAttrMessages, len(msgs)))
	defer span.End()

	answer, err := r.completer.Complete(ctx, systemPrompt, BuildPrompt(msgs))
	if err != nil {
		return r.degrade(ctx, msgs, fmt.Sprintf("model call failed: %v", err))
	}

	order, err := ParseOrder(answer, len(msgs))
	if err != nil {
		return r.degrade(ctx, msgs, err.Error())
	}
	span.SetAttributes(attribute.Bool(instrumentation.SpanAttrDegraded, false))

	if r.appendUnranked {
		order = appendMissing(order, len(msgs))
	}

	out := make([]gmail.RankableMessage, 0, len(order))
	for _, i := range order {
		out = append(out, msgs[i])
	}
	assignRanks(out)

	r.metrics.RecordRanking(ctx, instrumentation.StatusSuccess)
	return Ranked(out)
}

func (r *Ranker) degrade(ctx context.Context, msgs []gmail.RankableMessage, reason string) Result {
	logging.WithOperation(r.logger, "ranking.rank").WarnContext(ctx, "ranking degraded to unread-first order",
		logging.Status(logging.StatusDegraded),
		slog.String("reason", reason))
	trace.SpanFromContext(ctx).SetAttributes(attribute.Bool(instrumentation.SpanAttrDegraded, true))
	r.metrics.RecordRanking(ctx, instrumentation.StatusDegraded)
	return Degraded(Fallback(msgs), reason)
}

// Fallback returns a copy of msgs stably sorted with unread messages first.
func Fallback(msgs []gmail.RankableMessage) []gmail.RankableMessage {
	out := slices.Clone(msgs)
	slices.SortStableFunc(out, func(a, b gmail.RankableMessage) int {
		switch {
		case a.Unread == b.Unread:
			return 0
		case a.Unread:
			return -1
		default:
			return 1
		}
	})
	assignRanks(out)
	return out
}

func assignRanks(msgs []gmail.RankableMessage) {
	for i := range msgs {
		rank := i + 1
		msgs[i].ImportanceRank = &rank
	}
}

// BuildPrompt lists msgs with 1-based indices and asks for a permutation.
func BuildPrompt(msgs []gmail.RankableMessage) string {
	var b strings.Builder
	b.WriteString("Rank the following emails from most to least important. ")
	b.WriteString("Consider urgency keywords, sender importance and subject matter.\n")
	b.WriteString("Respond with only a comma-separated list of the email numbers, for example: 3,1,2\n\n")

	for i, m := range msgs {
		fmt.Fprintf(&b, "%d. From: %s | Subject: %s | Body: %s\n",
			i+1, m.From, m.Subject, promptBody(m.Body))
	}
	return b.String()
}

func promptBody(body string) string {
	runes := []rune(body)
	if len(runes) > PromptBodyLength {
		runes = runes[:PromptBodyLength]
	}
	return strings.Join(strings.Fields(string(runes)), " ")
}

var errEmptyAnswer = errors.New("empty model answer")

// ParseOrder parses a comma-separated list of 1-based indices into 0-based
// positions below n. Out-of-range and repeated indices are dropped; an
// empty or non-numeric token is an error.
func ParseOrder(answer string, n int) ([]int, error) {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return nil, errEmptyAnswer
	}

	seen := make(map[int]bool, n)
	order := make([]int, 0, n)
	for _, tok := range strings.Split(answer, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			return nil, fmt.Errorf("malformed ranking %q: empty index", answer)
		}
		idx, err := strconv.Atoi(tok)
		if err != nil {
			return nil, fmt.Errorf("malformed ranking %q: non-numeric token %q", answer, tok)
		}
		idx--
		if idx < 0 || idx >= n || seen[idx] {
			continue
		}
		seen[idx] = true
		order = append(order, idx)
	}
	return order, nil
}

func appendMissing(order []int, n int) []int {
	seen := make([]bool, n)
	for _, i := range order {
		seen[i] = true
	}
	for i := 0; i < n; i++ {
		if !seen[i] {
			order = append(order, i)
		}
	}
	return order
}
