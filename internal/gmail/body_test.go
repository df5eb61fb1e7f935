package gmail

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	gmail "google.golang.org/api/gmail/v1"
)

func TestPlainTextBody(t *testing.T) {
	tests := []struct {
		name string
		msg  *gmail.Message
		want string
	}{
		{
			name: "nil message",
			want: "",
		},
		{
			name: "payload is plain text",
			msg: &gmail.Message{Payload: &gmail.MessagePart{
				MimeType: "text/plain",
				Body:     &gmail.MessagePartBody{Data: base64.URLEncoding.EncodeToString([]byte("hi?>"))},
			}},
			want: "hi?>",
		},
		{
			name: "unpadded base64url",
			msg: &gmail.Message{Payload: &gmail.MessagePart{
				MimeType: "TEXT/PLAIN",
				Body:     &gmail.MessagePartBody{Data: base64.RawURLEncoding.EncodeToString([]byte("ab"))},
			}},
			want: "ab",
		},
		{
			name: "first plain part wins even when empty",
			msg: &gmail.Message{Payload: &gmail.MessagePart{
				MimeType: "multipart/alternative",
				Parts: []*gmail.MessagePart{
					{MimeType: "text/plain", Body: &gmail.MessagePartBody{}},
					{MimeType: "text/plain", Body: &gmail.MessagePartBody{Data: base64.URLEncoding.EncodeToString([]byte("later"))}},
				},
			}},
			want: "",
		},
		{
			name: "undecodable data",
			msg: &gmail.Message{Payload: &gmail.MessagePart{
				MimeType: "text/plain",
				Body:     &gmail.MessagePartBody{Data: "!!!"},
			}},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PlainTextBody(tt.msg))
		})
	}
}

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello", 5, "hello"},
		{"hello", 2, "he"},
		{"héllo", 2, "hé"},
		{"hello", 0, ""},
		{"", 3, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, truncateRunes(tt.in, tt.n), "truncateRunes(%q, %d)", tt.in, tt.n)
	}
}

func TestHeaderValue(t *testing.T) {
	m := &gmail.Message{Payload: &gmail.MessagePart{Headers: []*gmail.MessagePartHeader{
		{Name: "subject", Value: "Hi"},
	}}}
	assert.Equal(t, "Hi", HeaderValue(m, "Subject"))
	assert.Equal(t, "", HeaderValue(m, "From"))
	assert.Equal(t, "", HeaderValue(&gmail.Message{}, "From"))
}
