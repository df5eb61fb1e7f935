package transcribe

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/teemow/inboxpal/internal/apperr"
	"github.com/teemow/inboxpal/internal/instrumentation"
)

// DefaultExtension is used when neither the file name nor the content type
// identifies the format.
const DefaultExtension = ".webm"

// contentTypeExtensions is checked in order against the content type.
var contentTypeExtensions = []string{"webm", "mp3", "wav", "ogg"}

// InferExtension picks the scratch file extension: the file name's
// extension, then a content type match, then DefaultExtension.
func InferExtension(filename, contentType string) string {
	if ext := strings.ToLower(filepath.Ext(filename)); ext != "" && ext != "." {
		return ext
	}
	ct := strings.ToLower(contentType)
	for _, candidate := range contentTypeExtensions {
		if strings.Contains(ct, candidate) {
			return "." + candidate
		}
	}
	return DefaultExtension
}

// Transcriber is the speech-to-text provider.
type Transcriber interface {
	Transcribe(ctx context.Context, audio io.Reader) (string, error)
}

// Service transcribes uploaded audio through scratch files.
type Service struct {
	transcriber Transcriber
	arena       *Arena
	metrics     *instrumentation.Metrics
}

// NewService creates a Service. metrics may be nil.
func NewService(t Transcriber, arena *Arena, metrics *instrumentation.Metrics) *Service {
	return &Service{transcriber: t, arena: arena, metrics: metrics}
}

// Transcribe writes audio to a scratch file with the inferred extension
// and returns the provider's transcript. The scratch file is removed on
// every exit path.
func (s *Service) Transcribe(ctx context.Context, audio []byte, filename, contentType string) (string, error) {
	const op = "transcribe"

	if len(audio) == 0 {
		return "", apperr.EmptyInput(op, "empty audio file received")
	}
	ctx, span := instrumentation.StartSpan(ctx, "transcribe",
		attribute.Int(instrumentation.SpanAttrAudioBytes, len(audio)))
	defer span.End()
	s.metrics.RecordTranscriptionBytes(ctx, int64(len(audio)))

	scratch, err := s.arena.Acquire(InferExtension(filename, contentType))
	if err != nil {
		return "", apperr.ProviderUnavailable(op, err)
	}
	defer scratch.Release()

	f := scratch.File()
	if _, err := f.Write(audio); err != nil {
		return "", apperr.ProviderUnavailable(op, fmt.Errorf("failed to write scratch file: %w", err))
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", apperr.ProviderUnavailable(op, fmt.Errorf("failed to rewind scratch file: %w", err))
	}

	text, err := s.transcriber.Transcribe(ctx, f)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return "", apperr.Ensure(apperr.KindProviderUnavailable, op, err)
	}
	return text, nil
}
