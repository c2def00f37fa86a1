// Package google builds authenticated clients for the Google APIs used by
// the calendar, drive and gmail integrations.
package google

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
	"google.golang.org/api/option"
)

// NewHTTPClient creates an authenticated HTTP client from a service account
// JSON key file. A non-empty subject impersonates that user through
// domain-wide delegation, which Gmail requires.
func NewHTTPClient(ctx context.Context, credentialsFile, subject string, scopes ...string) (*http.Client, error) {
	conf, err := jwtConfig(credentialsFile, subject, scopes...)
	if err != nil {
		return nil, err
	}
	return conf.Client(ctx), nil
}

// ClientOption returns an option.ClientOption for use with Google API service
// constructors (Calendar, Drive, Gmail).
func ClientOption(ctx context.Context, credentialsFile, subject string, scopes ...string) (option.ClientOption, error) {
	client, err := NewHTTPClient(ctx, credentialsFile, subject, scopes...)
	if err != nil {
		return nil, err
	}
	return option.WithHTTPClient(client), nil
}

func jwtConfig(credentialsFile, subject string, scopes ...string) (*jwt.Config, error) {
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}

	conf, err := google.JWTConfigFromJSON(data, scopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse credentials: %w", err)
	}
	conf.Subject = subject
	return conf, nil
}
