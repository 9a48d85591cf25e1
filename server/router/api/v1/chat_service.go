package v1

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/concierge/server/dispatcher"
)

// ChatService exposes the conversational input channel over HTTP. One
// utterance per request; the dispatcher fully completes the turn before the
// response is written.
type ChatService struct {
	Dispatcher *dispatcher.Dispatcher
	Sessions   *dispatcher.Manager
}

// NewChatService creates the chat service.
func NewChatService(d *dispatcher.Dispatcher, sessions *dispatcher.Manager) *ChatService {
	return &ChatService{Dispatcher: d, Sessions: sessions}
}

// Register mounts the chat routes on the given group.
func (s *ChatService) Register(g *echo.Group) {
	g.POST("/sessions", s.createSession)
	g.POST("/sessions/:id/messages", s.postMessage)
	g.GET("/sessions/:id/messages", s.listMessages)
}

type sessionResponse struct {
	ID string `json:"id"`
}

type messageRequest struct {
	Text string `json:"text"`
}

type messageResponse struct {
	Reply  string `json:"reply"`
	Intent string `json:"intent"`
}

func (s *ChatService) createSession(c echo.Context) error {
	sess := s.Sessions.Create()
	return c.JSON(http.StatusCreated, sessionResponse{ID: sess.ID})
}

func (s *ChatService) postMessage(c echo.Context) error {
	sess := s.Sessions.Get(c.Param("id"))
	if sess == nil {
		return echo.NewHTTPError(http.StatusNotFound, "session not found")
	}

	var req messageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Text) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "text is required")
	}

	reply, intent := s.Dispatcher.HandleTurn(c.Request().Context(), sess, req.Text)
	return c.JSON(http.StatusOK, messageResponse{Reply: reply, Intent: string(intent)})
}

func (s *ChatService) listMessages(c echo.Context) error {
	sess := s.Sessions.Get(c.Param("id"))
	if sess == nil {
		return echo.NewHTTPError(http.StatusNotFound, "session not found")
	}
	return c.JSON(http.StatusOK, sess.Transcript.Entries())
}
