// Package provider implements mail provider adapters.
package provider

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"jobtrack_server/core/domain"
	"jobtrack_server/core/port/out"
	"jobtrack_server/pkg/logger"

	"github.com/sony/gobreaker"
	"golang.org/x/oauth2"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// GmailFetcher implements out.EmailFetcher against the Gmail API.
type GmailFetcher struct {
	service *gmail.Service
	email   string
	cb      *gobreaker.CircuitBreaker
	log     *logger.Logger
}

// NewGmailFetcher creates a fetcher from an OAuth token.
func NewGmailFetcher(ctx context.Context, token *oauth2.Token, config *oauth2.Config) (*GmailFetcher, error) {
	client := config.Client(ctx, token)
	service, err := gmail.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail service: %w", err)
	}

	profile, err := service.Users.GetProfile("me").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get user profile: %w", err)
	}

	cbSettings := gobreaker.Settings{
		Name:        "gmail-api",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("[CircuitBreaker] %s: state changed from %s to %s", name, from.String(), to.String())
		},
	}

	return &GmailFetcher{
		service: service,
		email:   profile.EmailAddress,
		cb:      gobreaker.NewCircuitBreaker(cbSettings),
		log:     logger.Default().WithField("component", "gmail_fetcher"),
	}, nil
}

// AccountEmail returns the authenticated mailbox address.
func (f *GmailFetcher) AccountEmail() string {
	return f.email
}

// FetchRecent lists inbox messages from the last daysBack days and returns
// them normalized, newest first per the Gmail API's default ordering.
// Individual message fetch failures are skipped, not fatal.
func (f *GmailFetcher) FetchRecent(ctx context.Context, daysBack, limit int) ([]*domain.RawEmail, error) {
	if daysBack <= 0 {
		daysBack = 7
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	query := fmt.Sprintf("in:inbox newer_than:%dd", daysBack)

	listResult, err := f.cb.Execute(func() (interface{}, error) {
		return f.service.Users.Messages.List("me").
			Q(query).
			MaxResults(int64(limit)).
			Context(ctx).
			Do()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	resp := listResult.(*gmail.ListMessagesResponse)
	if len(resp.Messages) == 0 {
		return nil, nil
	}

	// Parallel fetch with bounded concurrency to avoid rate limiting
	const maxConcurrency = 5
	type fetchResult struct {
		index int
		email *domain.RawEmail
	}

	results := make(chan fetchResult, len(resp.Messages))
	semaphore := make(chan struct{}, maxConcurrency)

	for i, m := range resp.Messages {
		go func(idx int, msgID string) {
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			email, err := f.getMessage(ctx, msgID)
			if err != nil {
				f.log.WithError(err).Warn("skipping message %s", msgID)
				results <- fetchResult{index: idx}
				return
			}
			results <- fetchResult{index: idx, email: email}
		}(i, m.Id)
	}

	ordered := make([]*domain.RawEmail, len(resp.Messages))
	for range resp.Messages {
		r := <-results
		ordered[r.index] = r.email
	}

	emails := make([]*domain.RawEmail, 0, len(ordered))
	for _, e := range ordered {
		if e != nil {
			emails = append(emails, e)
		}
	}

	f.log.Info("fetched %d/%d messages from gmail", len(emails), len(resp.Messages))
	return emails, nil
}

func (f *GmailFetcher) getMessage(ctx context.Context, messageID string) (*domain.RawEmail, error) {
	result, err := f.cb.Execute(func() (interface{}, error) {
		return f.service.Users.Messages.Get("me", messageID).
			Format("full").
			Context(ctx).
			Do()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get message: %w", err)
	}

	return normalizeMessage(result.(*gmail.Message)), nil
}

// normalizeMessage converts a Gmail API message to the domain record.
func normalizeMessage(msg *gmail.Message) *domain.RawEmail {
	email := &domain.RawEmail{
		GmailMessageID: msg.Id,
		ThreadID:       msg.ThreadId,
		Snippet:        msg.Snippet,
		Date:           time.Unix(msg.InternalDate/1000, 0),
		IsRead:         true,
	}

	for _, label := range msg.LabelIds {
		if label == "UNREAD" {
			email.IsRead = false
		}
	}

	if msg.Payload != nil {
		for _, header := range msg.Payload.Headers {
			switch header.Name {
			case "From":
				email.Sender = header.Value
			case "To":
				email.Recipient = header.Value
			case "Subject":
				email.Subject = header.Value
			}
		}
		email.Body = extractText(msg.Payload)
	}

	return email
}

// extractText walks the MIME tree and returns plain text, falling back to
// HTML when no text part exists.
func extractText(payload *gmail.MessagePart) string {
	text, html := collectParts(payload)
	if text != "" {
		return text
	}
	return html
}

func collectParts(payload *gmail.MessagePart) (text, html string) {
	if payload == nil {
		return "", ""
	}

	if payload.Body != nil && payload.Body.Data != "" {
		data, _ := base64.URLEncoding.DecodeString(payload.Body.Data)
		switch payload.MimeType {
		case "text/plain":
			text = string(data)
		case "text/html":
			html = string(data)
		}
	}

	for _, part := range payload.Parts {
		t, h := collectParts(part)
		if text == "" && t != "" {
			text = t
		}
		if html == "" && h != "" {
			html = h
		}
	}

	return text, html
}

var _ out.EmailFetcher = (*GmailFetcher)(nil)
