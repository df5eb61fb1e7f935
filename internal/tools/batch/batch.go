package batch

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Item status values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// DefaultLimit bounds concurrent operations in Run.
const DefaultLimit = 4

// Item is the outcome of the operation for one input.
type Item[T any] struct {
	Input  string `json:"input"`
	Status string `json:"status"`
	Value  *T     `json:"value,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Summary aggregates the items of a batch in input order.
type Summary[T any] struct {
	Total      int       `json:"total"`
	Successful int       `json:"successful"`
	Failed     int       `json:"failed"`
	Items      []Item[T] `json:"items"`
}

// ParseStringOrArray accepts a string or an array of strings. Blank values
// are rejected.
func ParseStringOrArray(param any, paramName string) ([]string, error) {
	switch v := param.(type) {
	case nil:
		return nil, fmt.Errorf("%s is required", paramName)
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, fmt.Errorf("%s cannot be empty", paramName)
		}
		return []string{v}, nil
	case []any:
		if len(v) == 0 {
			return nil, fmt.Errorf("%s cannot be empty", paramName)
		}
		out := make([]string, 0, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%s[%d] must be a string", paramName, i)
			}
			if strings.TrimSpace(s) == "" {
				return nil, fmt.Errorf("%s[%d] cannot be empty", paramName, i)
			}
			out = append(out, s)
		}
		return out, nil
	case []string:
		if len(v) == 0 {
			return nil, fmt.Errorf("%s cannot be empty", paramName)
		}
		return v, nil
	default:
		return nil, fmt.Errorf("%s must be a string or array of strings", paramName)
	}
}

// Run calls fn for every input with at most limit calls in flight. A
// failing input is recorded in its item and does not stop the others.
// limit <= 0 selects DefaultLimit.
func Run[T any](ctx context.Context, inputs []string, limit int, fn func(ctx context.Context, input string) (T, error)) Summary[T] {
	if limit <= 0 {
		limit = DefaultLimit
	}

	items := make([]Item[T], len(inputs))
	var g errgroup.Group
	g.SetLimit(limit)
	for i, in := range inputs {
		g.Go(func() error {
			v, err := fn(ctx, in)
			if err != nil {
				items[i] = Item[T]{Input: in, Status: StatusError, Error: err.Error()}
				return nil
			}
			items[i] = Item[T]{Input: in, Status: StatusSuccess, Value: &v}
			return nil
		})
	}
	_ = g.Wait()

	s := Summary[T]{Total: len(items), Items: items}
	for _, it := range items {
		if it.Status == StatusSuccess {
			s.Successful++
		} else {
			s.Failed++
		}
	}
	return s
}
