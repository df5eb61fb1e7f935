package ranking

import "github.com/teemow/inboxpal/internal/gmail"

// Result is either Ranked (Reason empty) or Degraded (Reason set).
type Result struct {
	Messages []gmail.RankableMessage
	Reason   string
}

// Ranked returns a result ordered by the model.
func Ranked(msgs []gmail.RankableMessage) Result {
	return Result{Messages: msgs}
}

// Degraded returns a fallback result with the reason the model ordering
// was not used.
func Degraded(msgs []gmail.RankableMessage, reason string) Result {
	return Result{Messages: msgs, Reason: reason}
}

// Degraded reports whether the fallback ordering was used.
func (r Result) Degraded() bool {
	return r.Reason != ""
}
