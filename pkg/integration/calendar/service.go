package calendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"

	googleauth "github.com/mklimuk/focus-pilot/pkg/integration/google"
)

const dateLayout = "2006-01-02"

// Event is a simplified all-day calendar event.
type Event struct {
	ID          string
	Summary     string
	Description string
	Date        time.Time
}

// CalendarAPI is the interface used by Syncer for testability.
type CalendarAPI interface {
	CreateEvent(ctx context.Context, e Event) (string, error)
	UpdateEvent(ctx context.Context, eventID string, e Event) error
	DeleteEvent(ctx context.Context, eventID string) error
}

// Service wraps the Google Calendar API.
type Service struct {
	srv        *gcal.Service
	calendarID string
}

// NewService creates a new Calendar service using service account credentials.
func NewService(ctx context.Context, credentialsFile, subject, calendarID string) (*Service, error) {
	opt, err := googleauth.ClientOption(ctx, credentialsFile, subject, gcal.CalendarEventsScope)
	if err != nil {
		return nil, err
	}
	srv, err := gcal.NewService(ctx, opt)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}
	return &Service{srv: srv, calendarID: calendarID}, nil
}

// CreateEvent creates a new event and returns its ID.
func (s *Service) CreateEvent(ctx context.Context, e Event) (string, error) {
	created, err := s.srv.Events.Insert(s.calendarID, toGCalEvent(e)).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to create event: %w", err)
	}
	return created.Id, nil
}

// UpdateEvent updates an existing event by ID.
func (s *Service) UpdateEvent(ctx context.Context, eventID string, e Event) error {
	_, err := s.srv.Events.Update(s.calendarID, eventID, toGCalEvent(e)).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}
	return nil
}

// DeleteEvent removes an event. An event that is already gone is not an error.
func (s *Service) DeleteEvent(ctx context.Context, eventID string) error {
	err := s.srv.Events.Delete(s.calendarID, eventID).Context(ctx).Do()
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && (apiErr.Code == http.StatusNotFound || apiErr.Code == http.StatusGone) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	return nil
}

// toGCalEvent builds an all-day event. The end date is exclusive.
func toGCalEvent(e Event) *gcal.Event {
	return &gcal.Event{
		Summary:      e.Summary,
		Description:  e.Description,
		Start:        &gcal.EventDateTime{Date: e.Date.Format(dateLayout)},
		End:          &gcal.EventDateTime{Date: e.Date.AddDate(0, 0, 1).Format(dateLayout)},
		Transparency: "transparent",
	}
}
