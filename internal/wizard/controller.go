// Package wizard implements the giveaway setup wizard: a linear, per-user
// state machine driven by interaction events. Sessions live in a
// SessionStore; completing the pipeline publishes an announcement and
// grants the host role through external collaborators.
package wizard

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"

	"github.com/rzeZenphrix/miku-interviewer/internal/adapter/metrics"
	"github.com/rzeZenphrix/miku-interviewer/internal/domain"
)

// Config carries the workspace identifiers the controller publishes into.
type Config struct {
	GuildID               string
	AnnouncementChannelID string
	HostRoleID            string
}

// Controller advances wizard sessions and performs the terminal side
// effects. It never retries: a failed side effect is reported once and the
// session is still cleaned up.
type Controller struct {
	store     domain.SessionStore
	gateway   domain.NotificationGateway
	directory domain.WorkspaceDirectory
	clock     clockwork.Clock
	cfg       Config

	// confirmGroup collapses duplicate confirm clicks for the same owner
	// into a single publication.
	confirmGroup singleflight.Group
}

func NewController(store domain.SessionStore, gateway domain.NotificationGateway, directory domain.WorkspaceDirectory, clock clockwork.Clock, cfg Config) *Controller {
	return &Controller{
		store:     store,
		gateway:   gateway,
		directory: directory,
		clock:     clock,
		cfg:       cfg,
	}
}

// Start begins a wizard for actorID, replacing any prior incomplete session.
func (c *Controller) Start(ctx context.Context, actorID string) (*domain.Session, error) {
	session, err := c.store.Start(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}

	metrics.WizardSessionsStartedTotal.Inc()
	slog.InfoContext(ctx, "Wizard started", "owner_id", actorID)
	return session, nil
}

// SubmitStage applies one stage submission. Only the session owner may
// submit; the store's compare-and-swap rejects events addressed to a stage
// the session is no longer in.
func (c *Controller) SubmitStage(ctx context.Context, actorID, ownerID string, stage domain.Stage, fields map[string]string) (*domain.Session, error) {
	if actorID != ownerID {
		return nil, domain.ErrForbidden
	}

	delta, err := validateStage(stage, fields)
	if err != nil {
		metrics.WizardStageSubmissionsTotal.WithLabelValues(stage.String(), "invalid").Inc()
		return nil, err
	}

	session, err := c.store.Advance(ctx, ownerID, stage, delta, stage.Next())
	if err != nil {
		metrics.WizardStageSubmissionsTotal.WithLabelValues(stage.String(), "rejected").Inc()
		return nil, err
	}

	metrics.WizardStageSubmissionsTotal.WithLabelValues(stage.String(), "ok").Inc()
	slog.InfoContext(ctx, "Wizard stage submitted", "owner_id", ownerID, "stage", stage.String(), "next", session.Stage.String())
	return session, nil
}

// Confirm publishes the assembled announcement and removes the session.
// Publication is the primary success criterion: the host role grant is
// best-effort, and the session is removed even when the publish fails.
func (c *Controller) Confirm(ctx context.Context, actorID, ownerID string) (*domain.Announcement, error) {
	if actorID != ownerID {
		return nil, domain.ErrForbidden
	}

	result, err, _ := c.confirmGroup.Do(ownerID, func() (any, error) {
		return c.publish(ctx, ownerID)
	})
	if err != nil {
		return nil, err
	}
	return result.(*domain.Announcement), nil
}

func (c *Controller) publish(ctx context.Context, ownerID string) (*domain.Announcement, error) {
	session, err := c.store.Get(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if session.Stage != domain.StageReadyToSubmit {
		return nil, domain.ErrStaleInteraction
	}

	announcement := c.assemble(session)

	postErr := c.gateway.PostToChannel(ctx, c.cfg.AnnouncementChannelID, *announcement)
	if postErr == nil {
		metrics.GiveawaysPublishedTotal.Inc()
		if err := c.directory.GrantRole(ctx, c.cfg.GuildID, ownerID, c.cfg.HostRoleID); err != nil {
			metrics.RoleGrantFailuresTotal.Inc()
			slog.ErrorContext(ctx, "Host role grant failed after publish", "owner_id", ownerID, "error", err)
		}
	}

	if err := c.store.Remove(ctx, ownerID); err != nil {
		slog.ErrorContext(ctx, "Failed to remove session after confirm", "owner_id", ownerID, "error", err)
	}

	if postErr != nil {
		return nil, fmt.Errorf("%w: announcement publish: %v", domain.ErrGatewayFailure, postErr)
	}

	slog.InfoContext(ctx, "Giveaway published", "owner_id", ownerID, "announcement_id", announcement.ID.String())
	return announcement, nil
}

// Cancel discards the owner's session from any stage. Cancelling with no
// active session is a no-op.
func (c *Controller) Cancel(ctx context.Context, actorID, ownerID string) error {
	if actorID != ownerID {
		return domain.ErrForbidden
	}

	if err := c.store.Remove(ctx, ownerID); err != nil {
		return fmt.Errorf("failed to remove session: %w", err)
	}

	slog.InfoContext(ctx, "Wizard cancelled", "owner_id", ownerID)
	return nil
}

func (c *Controller) assemble(session *domain.Session) *domain.Announcement {
	fieldOr := func(name, fallback string) string {
		if value, ok := session.Fields[name]; ok && value != "" {
			return value
		}
		return fallback
	}

	winners, _ := strconv.Atoi(session.Fields[domain.FieldWinners])
	minMessages, _ := strconv.Atoi(fieldOr(domain.FieldMinMessages, "0"))

	return &domain.Announcement{
		ID:            uuid.New(),
		HostID:        session.OwnerID,
		Title:         session.Fields[domain.FieldTitle],
		Prize:         session.Fields[domain.FieldPrize],
		Winners:       winners,
		Duration:      session.Fields[domain.FieldDuration],
		Membership:    session.Fields[domain.FieldMembership],
		MinMessages:   minMessages,
		RequiredRoles: fieldOr(domain.FieldRequiredRoles, domain.SentinelNone),
		CustomEntry:   fieldOr(domain.FieldCustomEntry, domain.SentinelNone),
		Color:         fieldOr(domain.FieldColor, domain.SentinelDefault),
		Thumbnail:     fieldOr(domain.FieldThumbnail, domain.SentinelNone),
		Banner:        fieldOr(domain.FieldBanner, domain.SentinelNone),
		ButtonText:    fieldOr(domain.FieldButtonText, domain.SentinelDefault),
		StartMessage:  fieldOr(domain.FieldStartMessage, domain.SentinelDefault),
		WinnerMessage: fieldOr(domain.FieldWinnerMessage, domain.SentinelDefault),
		EntryMessage:  fieldOr(domain.FieldEntryMessage, domain.SentinelDefault),
		CreatedAt:     c.clock.Now(),
	}
}
