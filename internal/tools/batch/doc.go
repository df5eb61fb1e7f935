// Package batch runs one tool operation over several inputs.
//
// Tools accept either a single string or an array of strings for their
// batched argument; ParseStringOrArray normalizes both forms. Run executes
// the operation concurrently with a bound, keeps input order in the output
// and reports partial failures per item instead of failing the call.
package batch
