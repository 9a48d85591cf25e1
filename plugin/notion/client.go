package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/pkg/errors"
)

const (
	defaultBaseURL = "https://api.notion.com/v1"
	// notionVersion pins the API revision the page payload is written against.
	notionVersion = "2022-06-28"
)

// Config holds the task collaborator configuration. The title and date
// property names are an environment-specific contract of the target
// database, not something that can be inferred.
type Config struct {
	APIKey        string
	DatabaseID    string
	TitleProperty string // default: 名前
	DateProperty  string // default: 期限
}

// Client is a thin client for the Notion page-creation endpoint.
type Client struct {
	http    *http.Client
	config  *Config
	baseURL string
}

// NewClient creates a new Notion client.
func NewClient(cfg *Config) *Client {
	if cfg.TitleProperty == "" {
		cfg.TitleProperty = "名前"
	}
	if cfg.DateProperty == "" {
		cfg.DateProperty = "期限"
	}
	return &Client{
		http:    http.DefaultClient,
		config:  cfg,
		baseURL: defaultBaseURL,
	}
}

// CreatePage creates a page in the configured database with the given title
// and, if non-empty, a due date (YYYY-MM-DD).
func (c *Client) CreatePage(ctx context.Context, title, dueDate string) error {
	properties := map[string]any{
		c.config.TitleProperty: map[string]any{
			"title": []any{
				map[string]any{
					"text": map[string]any{"content": title},
				},
			},
		},
	}
	if dueDate != "" {
		properties[c.config.DateProperty] = map[string]any{
			"date": map[string]any{"start": dueDate},
		}
	}

	body := map[string]any{
		"parent":     map[string]any{"database_id": c.config.DatabaseID},
		"properties": properties,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return errors.Wrap(err, "failed to marshal page payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/pages", bytes.NewReader(payload))
	if err != nil {
		return errors.Wrap(err, "failed to build page request")
	}
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	req.Header.Set("Notion-Version", notionVersion)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "notion page creation failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return errors.Errorf("notion page creation failed: status %d: %s", resp.StatusCode, string(snippet))
	}

	return nil
}
