package httpserver

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rzeZenphrix/miku-interviewer/internal/domain"
)

// rawBodyKey is where the signature middleware stashes the verified body.
const rawBodyKey = "rawBody"

type interactionResponse struct {
	Stage        string            `json:"stage,omitempty"`
	Fields       map[string]string `json:"fields,omitempty"`
	Announcement any               `json:"announcement,omitempty"`
}

func (s *Server) handleInteraction(c echo.Context) error {
	body, ok := c.Get(rawBodyKey).([]byte)
	if !ok {
		return domain.NewValidationError("", "missing interaction payload")
	}

	event, err := parseInteraction(body)
	if err != nil {
		return err
	}

	result, err := s.app.HandleInteraction(c.Request().Context(), event)
	if err != nil {
		return err
	}

	response := interactionResponse{}
	if result.Session != nil {
		response.Stage = result.Session.Stage.String()
		response.Fields = result.Session.Fields
	}
	if result.Announcement != nil {
		response.Announcement = result.Announcement
	}

	if err := c.JSON(http.StatusOK, response); err != nil {
		return fmt.Errorf("failed to write interaction response: %w", err)
	}
	return nil
}
