package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewProvider(t *testing.T) {
	tests := []struct {
		name        string
		cfg         *Config
		expectError bool
		wantBaseURL string
		wantModel   string
	}{
		{
			name:        "gemini defaults",
			cfg:         &Config{Provider: "gemini", APIKey: "test-key"},
			wantBaseURL: "https://generativelanguage.googleapis.com/v1beta/openai",
			wantModel:   "gemini-2.5-pro",
		},
		{
			name:        "deepseek defaults",
			cfg:         &Config{Provider: "deepseek", APIKey: "test-key"},
			wantBaseURL: "https://api.deepseek.com",
			wantModel:   "deepseek-chat",
		},
		{
			name:        "openai defaults",
			cfg:         &Config{Provider: "openai", APIKey: "test-key"},
			wantBaseURL: "https://api.openai.com/v1",
			wantModel:   "gpt-4o-mini",
		},
		{
			name:      "explicit model wins",
			cfg:       &Config{Provider: "openai", APIKey: "test-key", Model: "gpt-4o"},
			wantModel: "gpt-4o",
		},
		{
			name:        "unsupported provider",
			cfg:         &Config{Provider: "unsupported"},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProvider(tt.cfg)
			if tt.expectError {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.wantBaseURL != "" {
				require.Equal(t, tt.wantBaseURL, p.config.BaseURL)
			}
			if tt.wantModel != "" {
				require.Equal(t, tt.wantModel, p.Model())
			}
		})
	}
}

func TestCompleteSegmentOrdering(t *testing.T) {
	var gotMessages []map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []map[string]any `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotMessages = req.Messages

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"pong"}}]}`))
	}))
	defer srv.Close()

	p, err := NewProvider(&Config{Provider: "openai", APIKey: "test-key", BaseURL: srv.URL, Model: "gpt-4o-mini"})
	require.NoError(t, err)

	out, err := p.Complete(context.Background(), "instruction", "user text")
	require.NoError(t, err)
	require.Equal(t, "pong", out)

	require.Len(t, gotMessages, 2)
	require.Equal(t, "system", gotMessages[0]["role"])
	require.Equal(t, "instruction", gotMessages[0]["content"])
	require.Equal(t, "user", gotMessages[1]["role"])
	require.Equal(t, "user text", gotMessages[1]["content"])
}

func TestCompleteSinglePartIsUserMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []map[string]any `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 1)
		require.Equal(t, "user", req.Messages[0]["role"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"hi"}}]}`))
	}))
	defer srv.Close()

	p, err := NewProvider(&Config{Provider: "openai", APIKey: "test-key", BaseURL: srv.URL})
	require.NoError(t, err)

	out, err := p.Complete(context.Background(), "hello")
	require.NoError(t, err)
	require.Equal(t, "hi", out)
}

func TestCompleteNoParts(t *testing.T) {
	p, err := NewProvider(&Config{Provider: "openai", APIKey: "test-key"})
	require.NoError(t, err)

	_, err = p.Complete(context.Background())
	require.Error(t, err)
}
