package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

const user = "me"

// Scope lets the poller read mail and clear the unread label.
const Scope = gmail.GmailModifyScope

// Mail is an email reduced to what capture needs.
type Mail struct {
	ID      string
	Subject string
	From    string
	Body    string
}

// MailAPI is the interface used by Poller for testability.
type MailAPI interface {
	FetchUnread(ctx context.Context, query string) ([]Mail, error)
	MarkRead(ctx context.Context, id string) error
}

// Service wraps the Gmail API service
type Service struct {
	srv *gmail.Service
}

// NewService creates a new Gmail service using an authenticated HTTP client
func NewService(ctx context.Context, client *http.Client) (*Service, error) {
	srv, err := gmail.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve Gmail client: %w", err)
	}

	return &Service{srv: srv}, nil
}

// FetchUnread returns the messages matching query. Messages whose details
// cannot be loaded are skipped.
func (s *Service) FetchUnread(ctx context.Context, query string) ([]Mail, error) {
	r, err := s.srv.Users.Messages.List(user).Q(query).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve messages: %w", err)
	}

	var mails []Mail
	for _, m := range r.Messages {
		msg, err := s.srv.Users.Messages.Get(user, m.Id).Format("full").Context(ctx).Do()
		if err != nil {
			continue
		}
		mails = append(mails, toMail(msg))
	}
	return mails, nil
}

// MarkRead removes the UNREAD label.
func (s *Service) MarkRead(ctx context.Context, id string) error {
	req := &gmail.ModifyMessageRequest{RemoveLabelIds: []string{"UNREAD"}}
	if _, err := s.srv.Users.Messages.Modify(user, id, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("unable to mark message %s read: %w", id, err)
	}
	return nil
}

func toMail(msg *gmail.Message) Mail {
	m := Mail{ID: msg.Id}
	if msg.Payload == nil {
		return m
	}
	for _, h := range msg.Payload.Headers {
		switch h.Name {
		case "Subject":
			m.Subject = h.Value
		case "From":
			m.From = h.Value
		}
	}
	m.Body = GetBody(msg.Payload)
	return m
}

// GetBody returns the first text/plain part of a payload, falling back to the
// payload's own body.
func GetBody(part *gmail.MessagePart) string {
	if part == nil {
		return ""
	}
	if strings.HasPrefix(part.MimeType, "multipart/") {
		for _, p := range part.Parts {
			if body := GetBody(p); body != "" {
				return body
			}
		}
		return ""
	}
	if part.MimeType != "" && part.MimeType != "text/plain" {
		return ""
	}
	if part.Body == nil || part.Body.Data == "" {
		return ""
	}
	return decode(part.Body.Data)
}

func decode(data string) string {
	if b, err := base64.URLEncoding.DecodeString(data); err == nil {
		return string(b)
	}
	if b, err := base64.RawURLEncoding.DecodeString(data); err == nil {
		return string(b)
	}
	return ""
}
