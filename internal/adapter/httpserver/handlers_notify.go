package httpserver

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rzeZenphrix/miku-interviewer/internal/domain"
)

type notifyRequest struct {
	RecipientID string `json:"recipient_id"`
	Status      string `json:"status"`
	Detail      string `json:"detail,omitempty"`
}

func (s *Server) handleNotify(c echo.Context) error {
	var req notifyRequest
	if err := c.Bind(&req); err != nil {
		return domain.NewValidationError("", "malformed notify payload")
	}

	application := domain.Application{
		RecipientID: req.RecipientID,
		Status:      domain.StatusKind(req.Status),
		Detail:      req.Detail,
	}

	if err := s.app.NotifyApplicant(c.Request().Context(), application); err != nil {
		return err
	}

	if err := c.JSON(http.StatusAccepted, map[string]string{"status": "accepted"}); err != nil {
		return fmt.Errorf("failed to write notify response: %w", err)
	}
	return nil
}
