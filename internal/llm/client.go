package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/teemow/inboxpal/internal/apperr"
	"github.com/teemow/inboxpal/internal/instrumentation"
	"github.com/teemow/inboxpal/internal/logging"
)

// Default models.
const (
	DefaultChatModel          = "gpt-4o"
	DefaultTranscriptionModel = "whisper-1"
)

const defaultTemperature = 0.3

// Client calls the OpenAI chat completion and transcription endpoints.
type Client struct {
	api                openai.Client
	chatModel          string
	transcriptionModel string
	metrics            *instrumentation.Metrics
}

type clientOptions struct {
	baseURL            string
	httpClient         *http.Client
	chatModel          string
	transcriptionModel string
	metrics            *instrumentation.Metrics
}

// Option configures a Client.
type Option func(*clientOptions)

// WithBaseURL points the client at another OpenAI-compatible endpoint.
func WithBaseURL(url string) Option {
	return func(o *clientOptions) { o.baseURL = url }
}

// WithHTTPClient sets the HTTP client used for API calls.
func WithHTTPClient(c *http.Client) Option {
	return func(o *clientOptions) { o.httpClient = c }
}

// WithChatModel overrides DefaultChatModel.
func WithChatModel(model string) Option {
	return func(o *clientOptions) {
		if model != "" {
			o.chatModel = model
		}
	}
}

// WithTranscriptionModel overrides DefaultTranscriptionModel.
func WithTranscriptionModel(model string) Option {
	return func(o *clientOptions) {
		if model != "" {
			o.transcriptionModel = model
		}
	}
}

// WithMetrics records model calls on m.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(o *clientOptions) { o.metrics = m }
}

// NewClient creates a client authenticated with apiKey.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("llm: OpenAI API key is required")
	}

	o := clientOptions{
		chatModel:          DefaultChatModel,
		transcriptionModel: DefaultTranscriptionModel,
	}
	for _, opt := range opts {
		opt(&o)
	}

	// Retries would make a single user request cost several model calls.
	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if o.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(o.baseURL))
	}
	if o.httpClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(o.httpClient))
	}

	return &Client{
		api:                openai.NewClient(reqOpts...),
		chatModel:          o.chatModel,
		transcriptionModel: o.transcriptionModel,
		metrics:            o.metrics,
	}, nil
}

// ChatModel returns the model used by Complete.
func (c *Client) ChatModel() string {
	return c.chatModel
}

// Complete sends one system instruction and one user message and returns
// the content of the first choice.
func (c *Client) Complete(ctx context.Context, system, prompt string) (string, error) {
	const op = "llm.complete"

	ctx, span := instrumentation.StartLLMSpan(ctx, instrumentation.OperationChat, c.chatModel)
	defer span.End()
	start := time.Now()

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if system != "" {
		messages = append(messages, openai.ChatCompletionMessageParamUnion{
			OfSystem: &openai.ChatCompletionSystemMessageParam{
				Content: openai.ChatCompletionSystemMessageParamContentUnion{
					OfString: openai.String(system),
				},
			},
		})
	}
	messages = append(messages, openai.ChatCompletionMessageParamUnion{
		OfUser: &openai.ChatCompletionUserMessageParam{
			Content: openai.ChatCompletionUserMessageParamContentUnion{
				OfString: openai.String(prompt),
			},
		},
	})

	completion, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages:    messages,
		Model:       shared.ChatModel(c.chatModel),
		Temperature: openai.Float(defaultTemperature),
	})
	if err == nil && len(completion.Choices) == 0 {
		err = errors.New("no choices in completion response")
	}
	c.record(ctx, instrumentation.OperationChat, c.chatModel, start, err)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return "", providerError(op, err)
	}

	instrumentation.SetSpanSuccess(span)
	return completion.Choices[0].Message.Content, nil
}

// Transcribe submits audio to the speech-to-text endpoint. The provider
// infers the format from the file name, so audio is normally an *os.File
// with the right extension.
func (c *Client) Transcribe(ctx context.Context, audio io.Reader) (string, error) {
	const op = "llm.transcribe"

	ctx, span := instrumentation.StartLLMSpan(ctx, instrumentation.OperationTranscription, c.transcriptionModel)
	defer span.End()
	start := time.Now()

	res, err := c.api.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		File:  audio,
		Model: openai.AudioModel(c.transcriptionModel),
	})
	c.record(ctx, instrumentation.OperationTranscription, c.transcriptionModel, start, err)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return "", providerError(op, err)
	}

	instrumentation.SetSpanSuccess(span)
	return res.Text, nil
}

func (c *Client) record(ctx context.Context, operation, model string, start time.Time, err error) {
	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
	}
	d := time.Since(start)
	c.metrics.RecordLLMRequest(ctx, operation, model, status, d)
	slog.DebugContext(ctx, "model call",
		logging.Model(model),
		logging.Operation(operation),
		logging.Status(status),
		logging.Duration(d),
	)
}

// providerError wraps err as ProviderUnavailable, keeping the provider's
// message when the API returned one.
func providerError(op string, err error) error {
	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		return apperr.ProviderUnavailable(op, err)
	}
	msg := apiErr.Message
	if msg == "" {
		msg = http.StatusText(apiErr.StatusCode)
	}
	return &apperr.Error{
		Kind:    apperr.KindProviderUnavailable,
		Op:      op,
		Message: fmt.Sprintf("openai request failed with status %d: %s", apiErr.StatusCode, msg),
		Err:     err,
	}
}
