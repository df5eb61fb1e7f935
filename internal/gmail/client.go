package gmail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/teemow/inboxpal/internal/apperr"
	"github.com/teemow/inboxpal/internal/instrumentation"
	"github.com/teemow/inboxpal/internal/logging"
)

const (
	userID            = "me"
	queryUnread       = "is:unread"
	defaultFetchLimit = 8
)

var metadataHeaders = []string{"From", "Subject", "Date"}

// Client wraps the Gmail Users service for one request.
type Client struct {
	svc        *gmail.UsersService
	metrics    *instrumentation.Metrics
	fetchLimit int
}

type clientOptions struct {
	endpoint   string
	metrics    *instrumentation.Metrics
	fetchLimit int
}

// Option configures a Client.
type Option func(*clientOptions)

// WithEndpoint overrides the Gmail API base URL.
func WithEndpoint(endpoint string) Option {
	return func(o *clientOptions) {
		o.endpoint = endpoint
	}
}

// WithMetrics records Google API operations on m.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(o *clientOptions) {
		o.metrics = m
	}
}

// WithFetchLimit bounds the number of concurrent message fetches.
func WithFetchLimit(n int) Option {
	return func(o *clientOptions) {
		if n > 0 {
			o.fetchLimit = n
		}
	}
}

// NewClient creates a Gmail client on top of an authenticated HTTP client,
// normally google.Handle.HTTPClient().
func NewClient(ctx context.Context, httpClient *http.Client, opts ...Option) (*Client, error) {
	if httpClient == nil {
		return nil, errors.New("gmail: http client is required")
	}

	o := clientOptions{fetchLimit: defaultFetchLimit}
	for _, opt := range opts {
		opt(&o)
	}

	svcOpts := []option.ClientOption{option.WithHTTPClient(httpClient)}
	if o.endpoint != "" {
		svcOpts = append(svcOpts, option.WithEndpoint(o.endpoint))
	}

	svc, err := gmail.NewService(ctx, svcOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}

	return &Client{
		svc:        svc.Users,
		metrics:    o.metrics,
		fetchLimit: o.fetchLimit,
	}, nil
}

// CountUnread returns Gmail's estimate of unread messages. The estimate is
// returned as is.
func (c *Client) CountUnread(ctx context.Context) (int64, error) {
	var count int64
	err := c.observe(ctx, instrumentation.OperationCountUnread, func(ctx context.Context) error {
		res, err := c.svc.Messages.List(userID).Q(queryUnread).Context(ctx).Do()
		if err != nil {
			return err
		}
		count = res.ResultSizeEstimate
		return nil
	})
	if err != nil {
		return 0, mapError("gmail.count_unread", err)
	}
	return count, nil
}

// ListRecent returns metadata for up to maxResults recent messages in
// provider order. maxResults <= 0 selects DefaultRecentResults.
func (c *Client) ListRecent(ctx context.Context, maxResults int64) ([]MessageSummary, error) {
	const op = "gmail.list_recent"

	msgs, err := c.fetch(ctx, clampResults(maxResults, DefaultRecentResults), func(call *gmail.UsersMessagesGetCall) *gmail.UsersMessagesGetCall {
		return call.Format("metadata").MetadataHeaders(metadataHeaders...)
	})
	if err != nil {
		return nil, mapError(op, err)
	}

	out := make([]MessageSummary, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, MessageSummary{
			ID:      m.Id,
			Snippet: m.Snippet,
			From:    HeaderValue(m, "From"),
			Subject: HeaderValue(m, "Subject"),
			Date:    HeaderValue(m, "Date"),
			Unread:  isUnread(m),
		})
	}
	return out, nil
}

// ListFullForRanking returns up to maxResults recent messages with their
// plain-text bodies. maxResults <= 0 selects DefaultRankingResults.
func (c *Client) ListFullForRanking(ctx context.Context, maxResults int64) ([]RankableMessage, error) {
	const op = "gmail.list_full"

	msgs, err := c.fetch(ctx, clampResults(maxResults, DefaultRankingResults), func(call *gmail.UsersMessagesGetCall) *gmail.UsersMessagesGetCall {
		return call.Format("full")
	})
	if err != nil {
		return nil, mapError(op, err)
	}

	out := make([]RankableMessage, 0, len(msgs))
	for _, m := range msgs {
		body := PlainTextBody(m)
		out = append(out, RankableMessage{
			ID:          m.Id,
			From:        HeaderValue(m, "From"),
			Subject:     HeaderValue(m, "Subject"),
			Date:        HeaderValue(m, "Date"),
			BodyPreview: truncateRunes(body, PreviewLength),
			Body:        body,
			Unread:      isUnread(m),
		})
	}
	return out, nil
}

// fetch lists message ids and gets every message concurrently. The result
// has the list order; the first failure cancels the remaining fetches.
func (c *Client) fetch(ctx context.Context, maxResults int64, shape func(*gmail.UsersMessagesGetCall) *gmail.UsersMessagesGetCall) ([]*gmail.Message, error) {
	var refs []*gmail.Message
	err := c.observe(ctx, instrumentation.OperationListMessages, func(ctx context.Context) error {
		res, err := c.svc.Messages.List(userID).MaxResults(maxResults).Context(ctx).Do()
		if err != nil {
			return err
		}
		refs = res.Messages
		return nil
	})
	if err != nil {
		return nil, err
	}

	msgs := make([]*gmail.Message, len(refs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.fetchLimit)
	for i, ref := range refs {
		g.Go(func() error {
			return c.observe(gctx, instrumentation.OperationGetMessage, func(ctx context.Context) error {
				m, err := shape(c.svc.Messages.Get(userID, ref.Id)).Context(ctx).Do()
				if err != nil {
					return fmt.Errorf("failed to get message %s: %w", ref.Id, err)
				}
				msgs[i] = m
				return nil
			})
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return msgs, nil
}

// observe runs fn in a Google API span and records its duration.
func (c *Client) observe(ctx context.Context, operation string, fn func(context.Context) error) error {
	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceGmail, operation)
	defer span.End()

	start := time.Now()
	err := fn(ctx)

	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
		instrumentation.SetSpanError(span, err)
	} else {
		instrumentation.SetSpanSuccess(span)
	}
	d := time.Since(start)
	c.metrics.RecordGoogleAPIOperation(ctx, instrumentation.ServiceGmail, operation, status, d)
	slog.DebugContext(ctx, "google api call",
		logging.Service(instrumentation.ServiceGmail),
		logging.Operation(operation),
		logging.Status(status),
		logging.Duration(d),
	)
	return err
}

// mapError converts a Gmail or transport error into the apperr taxonomy.
func mapError(op string, err error) error {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == http.StatusUnauthorized {
		return apperr.CredentialExpired(op, err)
	}
	return apperr.ProviderUnavailable(op, err)
}
