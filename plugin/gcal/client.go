package gcal

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"os"

	"github.com/pkg/errors"
	"golang.org/x/oauth2/google"
)

const (
	defaultBaseURL = "https://www.googleapis.com/calendar/v3"
	calendarScope  = "https://www.googleapis.com/auth/calendar"
)

// Config holds the calendar collaborator configuration. The owner email is
// used as the target calendar id: a service account has no default calendar
// of its own, so events are written to a calendar shared with it.
type Config struct {
	CredentialsJSON string // inline service account JSON, takes precedence
	CredentialsFile string // path to a service account JSON file
	OwnerEmail      string
	Timezone        string // default: Asia/Tokyo
}

// Client is a thin client for the Google Calendar event-insertion endpoint,
// authenticated with service account credentials.
type Client struct {
	http    *http.Client
	config  *Config
	baseURL string
}

// NewClient creates a calendar client from service account credentials.
// Credential errors are startup errors and halt initialization.
func NewClient(ctx context.Context, cfg *Config) (*Client, error) {
	creds := []byte(cfg.CredentialsJSON)
	if len(creds) == 0 {
		if cfg.CredentialsFile == "" {
			return nil, errors.New("google service account credentials not found")
		}
		data, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read credentials file %s", cfg.CredentialsFile)
		}
		creds = data
	}

	jwtConfig, err := google.JWTConfigFromJSON(creds, calendarScope)
	if err != nil {
		return nil, errors.Wrap(err, "invalid service account credentials")
	}

	if cfg.Timezone == "" {
		cfg.Timezone = "Asia/Tokyo"
	}

	return &Client{
		http:    jwtConfig.Client(ctx),
		config:  cfg,
		baseURL: defaultBaseURL,
	}, nil
}

type eventTime struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

type eventBody struct {
	Summary string    `json:"summary"`
	Start   eventTime `json:"start"`
	End     eventTime `json:"end"`
}

// InsertEvent inserts an event into the owner's calendar and returns the
// created event's browseable link. Timestamps are forwarded as received.
func (c *Client) InsertEvent(ctx context.Context, summary, start, end string) (string, error) {
	if c.config.OwnerEmail == "" {
		return "", errors.New("calendar owner email is not configured")
	}

	body := eventBody{
		Summary: summary,
		Start:   eventTime{DateTime: start, TimeZone: c.config.Timezone},
		End:     eventTime{DateTime: end, TimeZone: c.config.Timezone},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal event payload")
	}

	endpoint := c.baseURL + "/calendars/" + url.PathEscape(c.config.OwnerEmail) + "/events"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", errors.Wrap(err, "failed to build event request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "calendar event insertion failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", errors.Errorf("calendar event insertion failed: status %d: %s", resp.StatusCode, string(snippet))
	}

	var created struct {
		HTMLLink string `json:"htmlLink"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", errors.Wrap(err, "failed to decode event response")
	}

	return created.HTMLLink, nil
}
