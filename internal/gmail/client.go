package gmail

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/oauth2"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/teemow/mailwright/internal/google"
	"github.com/teemow/mailwright/internal/instrumentation"
)

// maxPageSize is the largest page the messages.list endpoint returns.
const maxPageSize = 100

// Client wraps the Gmail Users service for one account.
type Client struct {
	svc     *gmail.UsersService
	account string
	metrics *instrumentation.Metrics
}

// Option configures a Client.
type Option func(*Client)

// WithMetrics records Gmail API calls.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// Account returns the account name this client is associated with
func (c *Client) Account() string {
	return c.account
}

// NewClientForAccount creates a Gmail client authorized with the stored
// token of account.
func NewClientForAccount(ctx context.Context, account string, opts ...Option) (*Client, error) {
	ts, err := google.NewFileTokenProvider().TokenSource(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", google.GetAuthenticationErrorMessage(account), err)
	}
	return NewClient(ctx, account, ts, opts...)
}

// NewClient creates a Gmail client that authorizes its requests with ts.
func NewClient(ctx context.Context, account string, ts oauth2.TokenSource, opts ...Option) (*Client, error) {
	svc, err := gmail.NewService(ctx, option.WithHTTPClient(google.NewHTTPClient(ts)))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}
	return NewClientWithService(svc, account, opts...), nil
}

// NewClientWithService wraps an existing service, e.g. one pointed at a
// test server.
func NewClientWithService(svc *gmail.Service, account string, opts ...Option) *Client {
	c := &Client{svc: svc.Users, account: account}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// observe runs fn inside a Gmail span and records its outcome.
func (c *Client) observe(ctx context.Context, operation string, fn func(context.Context) error, attrs ...attribute.KeyValue) error {
	attrs = append(attrs, attribute.String(instrumentation.SpanAttrAccount, c.account))
	ctx, span := instrumentation.StartGmailSpan(ctx, operation, attrs...)
	start := time.Now()

	err := fn(ctx)

	c.metrics.RecordGmailOperation(ctx, operation, instrumentation.Status(err), time.Since(start))
	instrumentation.EndSpan(span, err)
	return err
}

// ListMessageIDs returns up to maxResults message IDs matching q, newest
// first, following pagination as needed.
func (c *Client) ListMessageIDs(ctx context.Context, q string, maxResults int64) ([]string, error) {
	var ids []string
	err := c.observe(ctx, instrumentation.OperationList, func(ctx context.Context) error {
		pageToken := ""
		for {
			remaining := maxResults - int64(len(ids))
			if remaining <= 0 {
				return nil
			}
			pageSize := min(remaining, maxPageSize)

			req := c.svc.Messages.List("me").Q(q).MaxResults(pageSize).Context(ctx)
			if pageToken != "" {
				req = req.PageToken(pageToken)
			}
			res, err := req.Do()
			if err != nil {
				return fmt.Errorf("failed to list messages: %w", err)
			}
			for _, m := range res.Messages {
				ids = append(ids, m.Id)
			}

			if res.NextPageToken == "" {
				return nil
			}
			pageToken = res.NextPageToken
		}
	}, attribute.String("gmail.query", q))
	if err != nil {
		return nil, err
	}

	if int64(len(ids)) > maxResults {
		ids = ids[:maxResults]
	}
	return ids, nil
}

// RecentQuery returns the search query for messages received after since.
func RecentQuery(since time.Time) string {
	return "after:" + strconv.FormatInt(since.Unix(), 10)
}

// ListRecentMessages returns IDs of messages received after since.
func (c *Client) ListRecentMessages(ctx context.Context, since time.Time, maxResults int64) ([]string, error) {
	return c.ListMessageIDs(ctx, RecentQuery(since), maxResults)
}

// GetMessage retrieves a full Gmail message
func (c *Client) GetMessage(ctx context.Context, messageID string) (*gmail.Message, error) {
	var msg *gmail.Message
	err := c.observe(ctx, instrumentation.OperationGet, func(ctx context.Context) error {
		var err error
		msg, err = c.svc.Messages.Get("me", messageID).Format("full").Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("failed to get message %s: %w", messageID, err)
		}
		return nil
	}, attribute.String(instrumentation.SpanAttrMessageID, messageID))
	return msg, err
}

// DeleteMessage permanently deletes a message, bypassing the trash.
func (c *Client) DeleteMessage(ctx context.Context, messageID string) error {
	if messageID == "" {
		return fmt.Errorf("messageID is required")
	}
	return c.observe(ctx, instrumentation.OperationDelete, func(ctx context.Context) error {
		if err := c.svc.Messages.Delete("me", messageID).Context(ctx).Do(); err != nil {
			return fmt.Errorf("failed to delete message %s: %w", messageID, err)
		}
		return nil
	}, attribute.String(instrumentation.SpanAttrMessageID, messageID))
}

// Profile returns the mailbox address of the account. It doubles as a
// connection test.
func (c *Client) Profile(ctx context.Context) (string, error) {
	var email string
	err := c.observe(ctx, instrumentation.OperationProfile, func(ctx context.Context) error {
		p, err := c.svc.GetProfile("me").Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("failed to get profile: %w", err)
		}
		email = p.EmailAddress
		return nil
	})
	return email, err
}
