package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/hrygo/concierge/internal/profile"
	"github.com/hrygo/concierge/plugin/gcal"
	"github.com/hrygo/concierge/plugin/llm"
	"github.com/hrygo/concierge/plugin/notion"
	"github.com/hrygo/concierge/server/dispatcher"
	apiv1 "github.com/hrygo/concierge/server/router/api/v1"
)

// Server hosts the conversational HTTP surface.
type Server struct {
	Profile    *profile.Profile
	Dispatcher *dispatcher.Dispatcher
	Sessions   *dispatcher.Manager

	echoServer *echo.Echo
}

// NewServer builds the collaborators from the profile and wires the
// dispatcher. A present-but-broken credential is a startup error; an absent
// credential just degrades its branch.
func NewServer(ctx context.Context, prof *profile.Profile, logger *slog.Logger) (*Server, error) {
	d, err := NewDispatcher(ctx, prof, logger)
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "Service ready.")
	})

	chatService := apiv1.NewChatService(d, dispatcher.NewManager())
	chatService.Register(e.Group("/api/v1"))

	return &Server{
		Profile:    prof,
		Dispatcher: d,
		Sessions:   chatService.Sessions,
		echoServer: e,
	}, nil
}

// NewDispatcher constructs the dispatcher with whichever collaborators the
// profile configures.
func NewDispatcher(ctx context.Context, prof *profile.Profile, logger *slog.Logger) (*dispatcher.Dispatcher, error) {
	var completion dispatcher.CompletionService
	if prof.IsLLMConfigured() {
		provider, err := llm.NewProvider(&llm.Config{
			Provider: prof.LLMProvider,
			APIKey:   prof.LLMAPIKey,
			BaseURL:  prof.LLMBaseURL,
			Model:    prof.LLMModel,
		})
		if err != nil {
			return nil, errors.Wrap(err, "failed to initialize completion collaborator")
		}
		completion = provider
	}

	var tasks dispatcher.TaskService
	if prof.IsNotionConfigured() {
		tasks = notion.NewClient(&notion.Config{
			APIKey:        prof.NotionAPIKey,
			DatabaseID:    prof.NotionDatabaseID,
			TitleProperty: prof.NotionTitleProperty,
			DateProperty:  prof.NotionDateProperty,
		})
	}

	var calendar dispatcher.CalendarService
	if prof.IsCalendarConfigured() {
		client, err := gcal.NewClient(ctx, &gcal.Config{
			CredentialsJSON: prof.GoogleCredentialsJSON,
			CredentialsFile: prof.GoogleCredentialsFile,
			OwnerEmail:      prof.CalendarOwnerEmail,
			Timezone:        prof.CalendarTimezone,
		})
		if err != nil {
			return nil, errors.Wrap(err, "failed to initialize calendar collaborator")
		}
		calendar = client
	}

	return dispatcher.New(completion, tasks, calendar, prof.DeadlineKeywords, logger), nil
}

// Start runs the HTTP server until the context is canceled.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)

	errCh := make(chan error, 1)
	go func() {
		if err := s.echoServer.Start(addr); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return s.Shutdown()
	}
}

// Shutdown stops the HTTP server gracefully.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.echoServer.Shutdown(ctx)
}
