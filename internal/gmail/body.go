package gmail

import (
	"encoding/base64"
	"strings"

	gmail "google.golang.org/api/gmail/v1"
)

const (
	labelUnread   = "UNREAD"
	mimeTextPlain = "text/plain"
)

// HeaderValue extracts a header value from a Gmail message
func HeaderValue(m *gmail.Message, header string) string {
	if m == nil || m.Payload == nil {
		return ""
	}
	for _, h := range m.Payload.Headers {
		if strings.EqualFold(h.Name, header) {
			return h.Value
		}
	}
	return ""
}

func isUnread(m *gmail.Message) bool {
	for _, l := range m.LabelIds {
		if l == labelUnread {
			return true
		}
	}
	return false
}

// walkParts visits part and its descendants depth-first until fn returns false.
func walkParts(part *gmail.MessagePart, fn func(*gmail.MessagePart) bool) bool {
	if part == nil {
		return true
	}
	if !fn(part) {
		return false
	}
	for _, sub := range part.Parts {
		if !walkParts(sub, fn) {
			return false
		}
	}
	return true
}

// PlainTextBody returns the decoded body of the first text/plain part of
// the message, the payload itself included. It returns "" when there is
// none or its data cannot be decoded.
func PlainTextBody(m *gmail.Message) string {
	if m == nil {
		return ""
	}

	var data string
	walkParts(m.Payload, func(p *gmail.MessagePart) bool {
		if mediaType(p.MimeType) != mimeTextPlain {
			return true
		}
		if p.Body != nil {
			data = p.Body.Data
		}
		return false
	})
	if data == "" {
		return ""
	}

	decoded, err := decodeBase64URL(data)
	if err != nil {
		return ""
	}
	return string(decoded)
}

func mediaType(mimeType string) string {
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	return strings.ToLower(strings.TrimSpace(mimeType))
}

// decodeBase64URL decodes Gmail body data, which is base64url with or
// without padding. Standard encoding is accepted as a last resort.
func decodeBase64URL(s string) ([]byte, error) {
	decoded, err := base64.URLEncoding.DecodeString(s)
	if err == nil {
		return decoded, nil
	}
	if decoded, err = base64.RawURLEncoding.DecodeString(s); err == nil {
		return decoded, nil
	}
	return base64.StdEncoding.DecodeString(s)
}

// truncateRunes returns the first n characters of s.
func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
