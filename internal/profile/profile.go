package profile

import (
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// DefaultDeadlineKeywords is the default deadline keyword set for the
// email-path override. The list overlaps Japanese and English phrasing and
// is configuration, not contract; CONCIERGE_DEADLINE_KEYWORDS replaces it.
var DefaultDeadlineKeywords = []string{"due", "deadline", "submit", "due date", "提出", "締め切り", "締切"}

// Profile is the configuration to start the assistant.
type Profile struct {
	// Mode can be "prod" or "dev"
	Mode string
	// Addr is the binding address for the HTTP server
	Addr string
	// Port is the binding port for the HTTP server
	Port int
	// Version is the current version of the assistant
	Version string

	// Completion collaborator configuration
	LLMProvider string // CONCIERGE_LLM_PROVIDER (openai, deepseek, gemini)
	LLMAPIKey   string // CONCIERGE_LLM_API_KEY
	LLMBaseURL  string // CONCIERGE_LLM_BASE_URL
	LLMModel    string // CONCIERGE_LLM_MODEL

	// Task collaborator (Notion) configuration
	NotionAPIKey        string // CONCIERGE_NOTION_API_KEY
	NotionDatabaseID    string // CONCIERGE_NOTION_DATABASE_ID
	NotionTitleProperty string // CONCIERGE_NOTION_TITLE_PROPERTY (default: 名前)
	NotionDateProperty  string // CONCIERGE_NOTION_DATE_PROPERTY (default: 期限)

	// Calendar collaborator (Google Calendar) configuration.
	// Credentials come either inline or from a service account file.
	GoogleCredentialsJSON string // CONCIERGE_GOOGLE_CREDENTIALS_JSON
	GoogleCredentialsFile string // CONCIERGE_GOOGLE_CREDENTIALS_FILE
	CalendarOwnerEmail    string // CONCIERGE_CALENDAR_OWNER_EMAIL
	CalendarTimezone      string // CONCIERGE_CALENDAR_TIMEZONE (default: Asia/Tokyo)

	// DeadlineKeywords reclassify an email-derived event as a task.
	DeadlineKeywords []string // CONCIERGE_DEADLINE_KEYWORDS (comma separated)
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsLLMConfigured returns true if the completion collaborator can be used.
func (p *Profile) IsLLMConfigured() bool {
	return p.LLMAPIKey != ""
}

// IsNotionConfigured returns true if the task collaborator can be used.
func (p *Profile) IsNotionConfigured() bool {
	return p.NotionAPIKey != "" && p.NotionDatabaseID != ""
}

// IsCalendarConfigured returns true if calendar credentials are present.
// The owner email is checked at actuation time, matching the write contract.
func (p *Profile) IsCalendarConfigured() bool {
	if p.GoogleCredentialsJSON != "" {
		return true
	}
	if p.GoogleCredentialsFile != "" {
		if _, err := os.Stat(p.GoogleCredentialsFile); err == nil {
			return true
		}
	}
	return false
}

// getEnvOrDefault returns the environment variable value or the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// FromEnv loads configuration from CONCIERGE_* environment variables.
func (p *Profile) FromEnv() {
	p.LLMProvider = getEnvOrDefault("CONCIERGE_LLM_PROVIDER", "gemini")
	p.LLMAPIKey = os.Getenv("CONCIERGE_LLM_API_KEY")
	p.LLMBaseURL = os.Getenv("CONCIERGE_LLM_BASE_URL")
	p.LLMModel = os.Getenv("CONCIERGE_LLM_MODEL")

	p.NotionAPIKey = os.Getenv("CONCIERGE_NOTION_API_KEY")
	p.NotionDatabaseID = os.Getenv("CONCIERGE_NOTION_DATABASE_ID")
	p.NotionTitleProperty = getEnvOrDefault("CONCIERGE_NOTION_TITLE_PROPERTY", "名前")
	p.NotionDateProperty = getEnvOrDefault("CONCIERGE_NOTION_DATE_PROPERTY", "期限")

	p.GoogleCredentialsJSON = os.Getenv("CONCIERGE_GOOGLE_CREDENTIALS_JSON")
	p.GoogleCredentialsFile = os.Getenv("CONCIERGE_GOOGLE_CREDENTIALS_FILE")
	p.CalendarOwnerEmail = os.Getenv("CONCIERGE_CALENDAR_OWNER_EMAIL")
	p.CalendarTimezone = getEnvOrDefault("CONCIERGE_CALENDAR_TIMEZONE", "Asia/Tokyo")

	if raw := os.Getenv("CONCIERGE_DEADLINE_KEYWORDS"); raw != "" {
		var keywords []string
		for _, kw := range strings.Split(raw, ",") {
			kw = strings.TrimSpace(kw)
			if kw != "" {
				keywords = append(keywords, kw)
			}
		}
		p.DeadlineKeywords = keywords
	}

	if port := os.Getenv("CONCIERGE_PORT"); port != "" {
		if v, err := strconv.Atoi(port); err == nil {
			p.Port = v
		}
	}
	if addr := os.Getenv("CONCIERGE_ADDR"); addr != "" {
		p.Addr = addr
	}
	if mode := os.Getenv("CONCIERGE_MODE"); mode != "" {
		p.Mode = mode
	}
}

// Validate normalizes and validates the profile.
func (p *Profile) Validate() error {
	if p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "dev"
	}

	if p.Port == 0 {
		p.Port = 8081
	}
	if p.Port < 1 || p.Port > 65535 {
		return errors.Errorf("invalid port %d", p.Port)
	}

	if p.GoogleCredentialsFile != "" && p.GoogleCredentialsJSON == "" {
		if _, err := os.Stat(p.GoogleCredentialsFile); err != nil {
			return errors.Wrapf(err, "unable to access google credentials file %s", p.GoogleCredentialsFile)
		}
	}

	if p.CalendarTimezone == "" {
		p.CalendarTimezone = "Asia/Tokyo"
	}
	if len(p.DeadlineKeywords) == 0 {
		p.DeadlineKeywords = DefaultDeadlineKeywords
	}

	return nil
}
