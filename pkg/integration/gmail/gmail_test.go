package gmail

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"google.golang.org/api/gmail/v1"

	"github.com/mklimuk/focus-pilot/pkg/model"
)

type mockMailAPI struct {
	mails    []Mail
	query    string
	read     []string
	fetchErr error
}

func (m *mockMailAPI) FetchUnread(_ context.Context, query string) ([]Mail, error) {
	m.query = query
	return m.mails, m.fetchErr
}

func (m *mockMailAPI) MarkRead(_ context.Context, id string) error {
	m.read = append(m.read, id)
	return nil
}

type board struct {
	tasks []model.Task
}

func (b *board) AddTask(t model.Task) (model.Task, error) {
	if t.Title == "reject" {
		return model.Task{}, errors.New("rejected")
	}
	b.tasks = append(b.tasks, t)
	return t, nil
}

func TestPoll(t *testing.T) {
	api := &mockMailAPI{mails: []Mail{
		{ID: "m1", Subject: "Sign the contract"},
		{ID: "m2", Subject: "reject"},
		{ID: "m3", From: "ana@example.com"},
	}}
	b := &board{}
	p := NewPoller(api, "is:unread label:focus", 0, TaskFromMail(b), nil)

	n, err := p.Poll(context.Background())
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 handled mails, got %d", n)
	}
	if api.query != "is:unread label:focus" {
		t.Errorf("unexpected query %q", api.query)
	}
	if len(api.read) != 2 || api.read[0] != "m1" || api.read[1] != "m3" {
		t.Errorf("unexpected read marks %v", api.read)
	}
	if len(b.tasks) != 2 || b.tasks[1].Title != "Email from ana@example.com" || !b.tasks[0].Important {
		t.Errorf("unexpected tasks %+v", b.tasks)
	}
}

func TestPollFetchError(t *testing.T) {
	api := &mockMailAPI{fetchErr: errors.New("unauthorized")}
	p := NewPoller(api, "is:unread", 0, TaskFromMail(&board{}), nil)
	if _, err := p.Poll(context.Background()); err == nil {
		t.Fatal("expected fetch error")
	}
}

func TestGetBody(t *testing.T) {
	enc := func(s string) string { return base64.URLEncoding.EncodeToString([]byte(s)) }

	tests := []struct {
		name string
		part *gmail.MessagePart
		want string
	}{
		{
			name: "plain body",
			part: &gmail.MessagePart{MimeType: "text/plain", Body: &gmail.MessagePartBody{Data: enc("hello")}},
			want: "hello",
		},
		{
			name: "multipart prefers text/plain",
			part: &gmail.MessagePart{
				MimeType: "multipart/alternative",
				Parts: []*gmail.MessagePart{
					{MimeType: "text/html", Body: &gmail.MessagePartBody{Data: enc("<p>hi</p>")}},
					{MimeType: "text/plain", Body: &gmail.MessagePartBody{Data: enc("hi")}},
				},
			},
			want: "hi",
		},
		{
			name: "unpadded data",
			part: &gmail.MessagePart{MimeType: "text/plain", Body: &gmail.MessagePartBody{Data: base64.RawURLEncoding.EncodeToString([]byte("ab"))}},
			want: "ab",
		},
		{
			name: "nil part",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetBody(tt.part); got != tt.want {
				t.Errorf("GetBody() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestToMail(t *testing.T) {
	msg := &gmail.Message{
		Id: "x1",
		Payload: &gmail.MessagePart{
			MimeType: "text/plain",
			Headers: []*gmail.MessagePartHeader{
				{Name: "Subject", Value: "Invoice"},
				{Name: "From", Value: "billing@example.com"},
			},
			Body: &gmail.MessagePartBody{Data: base64.URLEncoding.EncodeToString([]byte("due friday"))},
		},
	}
	m := toMail(msg)
	if m.ID != "x1" || m.Subject != "Invoice" || m.From != "billing@example.com" || m.Body != "due friday" {
		t.Errorf("unexpected mail %+v", m)
	}
}
