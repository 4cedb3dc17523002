// Package relay turns moderator-application status changes into direct
// messages. It is a thin adapter in front of the notification gateway:
// template selection and identifier checks happen here, delivery and
// retries do not.
package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/rzeZenphrix/miku-interviewer/internal/adapter/metrics"
	"github.com/rzeZenphrix/miku-interviewer/internal/domain"
)

// Platform user ids are numeric snowflakes, 17 to 20 digits.
var platformIDPattern = regexp.MustCompile(`^\d{17,20}$`)

var statusTemplates = map[domain.StatusKind]string{
	domain.StatusSubmitted: "Your moderator application has been received. We'll get back to you once the team has reviewed it.",
	domain.StatusApproved:  "Congratulations! Your moderator application has been approved.",
	domain.StatusRejected:  "Thank you for applying. Unfortunately your moderator application was not accepted this time.",
}

// Config carries the workspace identifiers used for the contact flow.
type Config struct {
	GuildID        string
	ContactEnabled bool
}

type Relay struct {
	gateway   domain.NotificationGateway
	directory domain.WorkspaceDirectory
	cfg       Config
}

func New(gateway domain.NotificationGateway, directory domain.WorkspaceDirectory, cfg Config) *Relay {
	return &Relay{gateway: gateway, directory: directory, cfg: cfg}
}

// NotifyApplicant sends one status notification as a direct message.
// Delivery is attempted once; a gateway failure is surfaced, not retried.
func (r *Relay) NotifyApplicant(ctx context.Context, app domain.Application) error {
	if !platformIDPattern.MatchString(app.RecipientID) {
		return domain.NewValidationError("recipient_id", "must be a 17-20 digit platform id")
	}

	template, ok := statusTemplates[app.Status]
	if !ok {
		return domain.NewValidationError("status", fmt.Sprintf("unknown status %q", app.Status))
	}

	text := template
	if app.Detail != "" {
		text = fmt.Sprintf("%s\n\n%s", template, app.Detail)
	}

	if err := r.gateway.SendDirectMessage(ctx, app.RecipientID, text); err != nil {
		metrics.NotificationFailuresTotal.WithLabelValues(failureReason(err)).Inc()
		return fmt.Errorf("failed to deliver notification: %w", err)
	}

	metrics.NotificationsSentTotal.WithLabelValues(string(app.Status)).Inc()
	slog.InfoContext(ctx, "Application notification sent", "recipient_id", app.RecipientID, "status", app.Status)
	return nil
}

// HandleDecision processes a moderator's verdict on an application and
// notifies the applicant. An approval additionally opens a private contact
// channel between moderator and applicant when the integration is enabled;
// that step is best-effort and never fails the decision.
func (r *Relay) HandleDecision(ctx context.Context, moderatorID string, decision domain.Decision, applicantID, detail string) error {
	if !platformIDPattern.MatchString(applicantID) {
		return domain.NewValidationError("applicant_id", "must be a 17-20 digit platform id")
	}

	switch decision {
	case domain.DecisionApprove:
		if err := r.NotifyApplicant(ctx, domain.Application{RecipientID: applicantID, Status: domain.StatusApproved, Detail: detail}); err != nil {
			return err
		}
		r.openContactChannel(ctx, moderatorID, applicantID)
		return nil

	case domain.DecisionDeny:
		return r.NotifyApplicant(ctx, domain.Application{RecipientID: applicantID, Status: domain.StatusRejected, Detail: detail})

	case domain.DecisionContact:
		r.openContactChannel(ctx, moderatorID, applicantID)
		return nil

	default:
		return domain.NewValidationError("decision", fmt.Sprintf("unknown decision %q", decision))
	}
}

func (r *Relay) openContactChannel(ctx context.Context, moderatorID, applicantID string) {
	if !r.cfg.ContactEnabled {
		return
	}

	channelID, err := r.directory.CreatePrivateChannel(ctx, r.cfg.GuildID, []string{moderatorID, applicantID})
	if err != nil {
		slog.ErrorContext(ctx, "Failed to open contact channel", "moderator_id", moderatorID, "applicant_id", applicantID, "error", err)
		return
	}

	slog.InfoContext(ctx, "Contact channel opened", "channel_id", channelID, "moderator_id", moderatorID, "applicant_id", applicantID)
}

func failureReason(err error) string {
	if errors.Is(err, domain.ErrUserNotFound) {
		return "user_not_found"
	}
	return "gateway_failure"
}
