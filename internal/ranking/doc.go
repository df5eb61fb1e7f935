// Package ranking orders messages by importance with one chat completion.
//
// The model is asked for a comma-separated permutation of 1-based indices.
// Out-of-range, negative and repeated indices are dropped. Messages the
// answer never mentions are left out unless the Ranker was built with
// WithAppendUnranked. When the call fails or the answer cannot be parsed,
// the result is Degraded: the input sorted unread-first. Rank never
// returns an error.
package ranking
