package ranking

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/inboxpal/internal/gmail"
)

type fakeCompleter struct {
	answer string
	err    error
	calls  int
	prompt string
}

func (f *fakeCompleter) Complete(_ context.Context, _, prompt string) (string, error) {
	f.calls++
	f.prompt = prompt
	return f.answer, f.err
}

func inbox() []gmail.RankableMessage {
	return []gmail.RankableMessage{
		{ID: "msg1", From: "newsletter@example.com", Subject: "Weekly digest", Body: "Top stories", Unread: false},
		{ID: "msg2", From: "boss@example.com", Subject: "Urgent: budget", Body: "Need this today", Unread: true},
		{ID: "msg3", From: "friend@example.com", Subject: "Dinner?", Body: "Are you free", Unread: false},
	}
}

func ids(msgs []gmail.RankableMessage) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.ID)
	}
	return out
}

func ranks(msgs []gmail.RankableMessage) []int {
	out := make([]int, 0, len(msgs))
	for _, m := range msgs {
		if m.ImportanceRank == nil {
			out = append(out, 0)
			continue
		}
		out = append(out, *m.ImportanceRank)
	}
	return out
}

func TestRank(t *testing.T) {
	tests := []struct {
		name         string
		answer       string
		err          error
		appendUnseen bool
		wantIDs      []string
		wantDegraded bool
	}{
		{
			name:    "permutation",
			answer:  "3,1,2",
			wantIDs: []string{"msg3", "msg1", "msg2"},
		},
		{
			name:    "whitespace around indices",
			answer:  " 2 , 3,1 \n",
			wantIDs: []string{"msg2", "msg3", "msg1"},
		},
		{
			name:    "out of range index is dropped",
			answer:  "5,1,2",
			wantIDs: []string{"msg1", "msg2"},
		},
		{
			name:    "zero and duplicates are dropped",
			answer:  "0,2,2,1",
			wantIDs: []string{"msg2", "msg1"},
		},
		{
			name:         "unranked messages appended when enabled",
			answer:       "5,3",
			appendUnseen: true,
			wantIDs:      []string{"msg3", "msg1", "msg2"},
		},
		{
			name:         "malformed answer falls back to unread first",
			answer:       "the most important is 2",
			wantIDs:      []string{"msg2", "msg1", "msg3"},
			wantDegraded: true,
		},
		{
			name:         "empty index falls back",
			answer:       "1,,2",
			wantIDs:      []string{"msg2", "msg1", "msg3"},
			wantDegraded: true,
		},
		{
			name:         "empty answer falls back",
			answer:       "  ",
			wantIDs:      []string{"msg2", "msg1", "msg3"},
			wantDegraded: true,
		},
		{
			name:         "model failure falls back",
			err:          errors.New("connection refused"),
			wantIDs:      []string{"msg2", "msg1", "msg3"},
			wantDegraded: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fc := &fakeCompleter{answer: tt.answer, err: tt.err}
			r := New(fc, WithAppendUnranked(tt.appendUnseen))

			input := inbox()
			res := r.Rank(context.Background(), input)

			assert.Equal(t, 1, fc.calls)
			assert.Equal(t, tt.wantIDs, ids(res.Messages))
			assert.Equal(t, tt.wantDegraded, res.Degraded())
			if tt.wantDegraded {
				assert.NotEmpty(t, res.Reason)
			}

			want := make([]int, len(tt.wantIDs))
			for i := range want {
				want[i] = i + 1
			}
			assert.Equal(t, want, ranks(res.Messages))

			for _, m := range input {
				assert.Nil(t, m.ImportanceRank, "input must not be modified")
			}
		})
	}
}

func TestRankEmptyInput(t *testing.T) {
	fc := &fakeCompleter{answer: "1"}
	res := New(fc).Rank(context.Background(), nil)

	assert.Equal(t, 0, fc.calls)
	assert.False(t, res.Degraded())
	assert.NotNil(t, res.Messages)
	assert.Empty(t, res.Messages)
}

func TestBuildPrompt(t *testing.T) {
	msgs := inbox()
	msgs[0].Body = strings.Repeat("a", PromptBodyLength) + "TAIL"
	msgs[1].Body = "line one\n\nline   two"

	prompt := BuildPrompt(msgs)

	assert.Contains(t, prompt, "comma-separated")
	assert.Contains(t, prompt, "1. From: newsletter@example.com | Subject: Weekly digest | Body: "+strings.Repeat("a", PromptBodyLength)+"\n")
	assert.NotContains(t, prompt, "TAIL")
	assert.Contains(t, prompt, "2. From: boss@example.com | Subject: Urgent: budget | Body: line one line two\n")
	assert.Contains(t, prompt, "3. From: friend@example.com")
}

func TestParseOrder(t *testing.T) {
	tests := []struct {
		answer  string
		n       int
		want    []int
		wantErr bool
	}{
		{answer: "3,1,2", n: 3, want: []int{2, 0, 1}},
		{answer: "1", n: 3, want: []int{0}},
		{answer: " 2 , 1 ", n: 3, want: []int{1, 0}},
		{answer: "1,2,", n: 3, wantErr: true},
		{answer: "1,,2", n: 3, wantErr: true},
		{answer: "-1,2", n: 3, want: []int{1}},
		{answer: "9,8", n: 3, want: []int{}},
		{answer: "1,two", n: 3, wantErr: true},
		{answer: "1.5", n: 3, wantErr: true},
		{answer: "", n: 3, wantErr: true},
		{answer: ", ,", n: 3, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.answer, func(t *testing.T) {
			got, err := ParseOrder(tt.answer, tt.n)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFallbackIsStable(t *testing.T) {
	msgs := []gmail.RankableMessage{
		{ID: "a", Unread: false},
		{ID: "b", Unread: true},
		{ID: "c", Unread: false},
		{ID: "d", Unread: true},
	}
	assert.Equal(t, []string{"b", "d", "a", "c"}, ids(Fallback(msgs)))
	assert.Equal(t, []string{"a", "b", "c", "d"}, ids(msgs))
}
