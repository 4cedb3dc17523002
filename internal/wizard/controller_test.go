package wizard

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rzeZenphrix/miku-interviewer/internal/adapter/memstore"
	"github.com/rzeZenphrix/miku-interviewer/internal/domain"
)

// --- Mock implementations ---

type mockGateway struct {
	sendDirectMessageFn func(ctx context.Context, userID, text string) error
	postToChannelFn     func(ctx context.Context, channelID string, content domain.Announcement) error

	posted []domain.Announcement
}

func (m *mockGateway) SendDirectMessage(ctx context.Context, userID, text string) error {
	if m.sendDirectMessageFn != nil {
		return m.sendDirectMessageFn(ctx, userID, text)
	}
	return nil
}

func (m *mockGateway) PostToChannel(ctx context.Context, channelID string, content domain.Announcement) error {
	if m.postToChannelFn != nil {
		return m.postToChannelFn(ctx, channelID, content)
	}
	m.posted = append(m.posted, content)
	return nil
}

type mockDirectory struct {
	grantRoleFn            func(ctx context.Context, guildID, userID, roleID string) error
	createPrivateChannelFn func(ctx context.Context, guildID string, participantIDs []string) (string, error)

	granted [][3]string
}

func (m *mockDirectory) GrantRole(ctx context.Context, guildID, userID, roleID string) error {
	if m.grantRoleFn != nil {
		return m.grantRoleFn(ctx, guildID, userID, roleID)
	}
	m.granted = append(m.granted, [3]string{guildID, userID, roleID})
	return nil
}

func (m *mockDirectory) CreatePrivateChannel(ctx context.Context, guildID string, participantIDs []string) (string, error) {
	if m.createPrivateChannelFn != nil {
		return m.createPrivateChannelFn(ctx, guildID, participantIDs)
	}
	return "", fmt.Errorf("not implemented")
}

func (m *mockDirectory) FetchUser(_ context.Context, _ string) (*domain.UserHandle, error) {
	return nil, fmt.Errorf("not implemented")
}

// --- Helpers ---

func newTestController(gateway *mockGateway, directory *mockDirectory) *Controller {
	store := memstore.New(clockwork.NewFakeClock())
	return NewController(store, gateway, directory, clockwork.NewFakeClock(), Config{
		GuildID:               "g1",
		AnnouncementChannelID: "announce-1",
		HostRoleID:            "host-role",
	})
}

// driveToReady walks a session through all four submission stages.
func driveToReady(t *testing.T, c *Controller, ownerID string) {
	t.Helper()
	ctx := context.Background()

	_, err := c.Start(ctx, ownerID)
	require.NoError(t, err)

	_, err = c.SubmitStage(ctx, ownerID, ownerID, domain.StageBasicInfo, map[string]string{
		domain.FieldTitle:    "Holiday Drop",
		domain.FieldPrize:    "Gift Card",
		domain.FieldWinners:  "3",
		domain.FieldDuration: "1d",
	})
	require.NoError(t, err)

	_, err = c.SubmitStage(ctx, ownerID, ownerID, domain.StageEntryRequirements, map[string]string{
		domain.FieldMembership: "level 2",
	})
	require.NoError(t, err)

	_, err = c.SubmitStage(ctx, ownerID, ownerID, domain.StageCustomization, map[string]string{
		domain.FieldColor: "gold",
	})
	require.NoError(t, err)

	session, err := c.SubmitStage(ctx, ownerID, ownerID, domain.StageMessages, map[string]string{})
	require.NoError(t, err)
	require.Equal(t, domain.StageReadyToSubmit, session.Stage)
}

// --- Tests ---

func TestSubmitBasicInfoStoresFieldsVerbatim(t *testing.T) {
	ctx := context.Background()
	c := newTestController(&mockGateway{}, &mockDirectory{})

	_, err := c.Start(ctx, "u1")
	require.NoError(t, err)

	session, err := c.SubmitStage(ctx, "u1", "u1", domain.StageBasicInfo, map[string]string{
		domain.FieldTitle:    "Holiday Drop",
		domain.FieldPrize:    "Gift Card",
		domain.FieldWinners:  "3",
		domain.FieldDuration: "1d",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.StageEntryRequirements, session.Stage)
	assert.Equal(t, "Holiday Drop", session.Fields[domain.FieldTitle])
	assert.Equal(t, "Gift Card", session.Fields[domain.FieldPrize])
	assert.Equal(t, "3", session.Fields[domain.FieldWinners])
	assert.Equal(t, "1d", session.Fields[domain.FieldDuration])
}

func TestSubmitNonNumericWinnersLeavesStageUnchanged(t *testing.T) {
	ctx := context.Background()
	c := newTestController(&mockGateway{}, &mockDirectory{})

	_, err := c.Start(ctx, "u1")
	require.NoError(t, err)

	_, err = c.SubmitStage(ctx, "u1", "u1", domain.StageBasicInfo, map[string]string{
		domain.FieldTitle:    "t",
		domain.FieldPrize:    "p",
		domain.FieldWinners:  "abc",
		domain.FieldDuration: "1d",
	})
	require.True(t, domain.IsValidation(err))

	session, err := c.store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.StageBasicInfo, session.Stage)
	assert.Empty(t, session.Fields)
}

func TestSubmitByNonOwnerIsForbidden(t *testing.T) {
	ctx := context.Background()
	c := newTestController(&mockGateway{}, &mockDirectory{})

	_, err := c.Start(ctx, "u1")
	require.NoError(t, err)

	_, err = c.SubmitStage(ctx, "u2", "u1", domain.StageBasicInfo, map[string]string{
		domain.FieldTitle:    "hijack",
		domain.FieldPrize:    "p",
		domain.FieldWinners:  "1",
		domain.FieldDuration: "1h",
	})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	session, err := c.store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.StageBasicInfo, session.Stage)
	assert.Empty(t, session.Fields, "foreign submission must not touch the session")
}

func TestSubmitToWrongStageIsStale(t *testing.T) {
	ctx := context.Background()
	c := newTestController(&mockGateway{}, &mockDirectory{})

	_, err := c.Start(ctx, "u1")
	require.NoError(t, err)

	_, err = c.SubmitStage(ctx, "u1", "u1", domain.StageCustomization, map[string]string{
		domain.FieldColor: "gold",
	})
	assert.ErrorIs(t, err, domain.ErrStaleInteraction)

	session, err := c.store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, session.Fields)
}

func TestSubmitWithoutSession(t *testing.T) {
	c := newTestController(&mockGateway{}, &mockDirectory{})

	_, err := c.SubmitStage(context.Background(), "u1", "u1", domain.StageBasicInfo, map[string]string{
		domain.FieldTitle:    "t",
		domain.FieldPrize:    "p",
		domain.FieldWinners:  "1",
		domain.FieldDuration: "1h",
	})
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestConfirmPublishesGrantsAndRemoves(t *testing.T) {
	ctx := context.Background()
	gateway := &mockGateway{}
	directory := &mockDirectory{}
	c := newTestController(gateway, directory)

	driveToReady(t, c, "u1")

	announcement, err := c.Confirm(ctx, "u1", "u1")
	require.NoError(t, err)

	require.Len(t, gateway.posted, 1)
	assert.Equal(t, "Holiday Drop", announcement.Title)
	assert.Equal(t, 3, announcement.Winners)
	assert.Equal(t, "u1", announcement.HostID)

	// Optionals omitted during the wizard render as sentinels, never empty.
	assert.Equal(t, domain.SentinelNone, announcement.RequiredRoles)
	assert.Equal(t, domain.SentinelNone, announcement.Thumbnail)
	assert.Equal(t, domain.SentinelDefault, announcement.ButtonText)
	assert.Equal(t, domain.SentinelDefault, announcement.StartMessage)
	assert.Equal(t, 0, announcement.MinMessages)

	require.Len(t, directory.granted, 1)
	assert.Equal(t, [3]string{"g1", "u1", "host-role"}, directory.granted[0])

	_, err = c.store.Get(ctx, "u1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestConfirmTwiceFailsNotFound(t *testing.T) {
	ctx := context.Background()
	c := newTestController(&mockGateway{}, &mockDirectory{})

	driveToReady(t, c, "u1")

	_, err := c.Confirm(ctx, "u1", "u1")
	require.NoError(t, err)

	_, err = c.Confirm(ctx, "u1", "u1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestConfirmBeforeReadyIsStale(t *testing.T) {
	ctx := context.Background()
	c := newTestController(&mockGateway{}, &mockDirectory{})

	_, err := c.Start(ctx, "u1")
	require.NoError(t, err)

	_, err = c.Confirm(ctx, "u1", "u1")
	assert.ErrorIs(t, err, domain.ErrStaleInteraction)
}

func TestConfirmByNonOwnerIsForbidden(t *testing.T) {
	c := newTestController(&mockGateway{}, &mockDirectory{})
	driveToReady(t, c, "u1")

	_, err := c.Confirm(context.Background(), "u2", "u1")
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestConfirmPublishFailureStillRemovesSession(t *testing.T) {
	ctx := context.Background()
	gateway := &mockGateway{
		postToChannelFn: func(context.Context, string, domain.Announcement) error {
			return errors.New("channel gone")
		},
	}
	c := newTestController(gateway, &mockDirectory{})

	driveToReady(t, c, "u1")

	_, err := c.Confirm(ctx, "u1", "u1")
	assert.ErrorIs(t, err, domain.ErrGatewayFailure)

	_, err = c.store.Get(ctx, "u1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound, "session must be cleaned up despite publish failure")
}

func TestConfirmRoleGrantFailureDoesNotBlockPublish(t *testing.T) {
	ctx := context.Background()
	gateway := &mockGateway{}
	directory := &mockDirectory{
		grantRoleFn: func(context.Context, string, string, string) error {
			return errors.New("role hierarchy")
		},
	}
	c := newTestController(gateway, directory)

	driveToReady(t, c, "u1")

	announcement, err := c.Confirm(ctx, "u1", "u1")
	require.NoError(t, err, "role grant failure must not fail the confirm")
	assert.NotNil(t, announcement)
	assert.Len(t, gateway.posted, 1)
}

func TestStartReplacesInFlightWizard(t *testing.T) {
	ctx := context.Background()
	c := newTestController(&mockGateway{}, &mockDirectory{})

	_, err := c.Start(ctx, "u1")
	require.NoError(t, err)
	_, err = c.SubmitStage(ctx, "u1", "u1", domain.StageBasicInfo, map[string]string{
		domain.FieldTitle:    "first",
		domain.FieldPrize:    "p",
		domain.FieldWinners:  "1",
		domain.FieldDuration: "1h",
	})
	require.NoError(t, err)

	session, err := c.Start(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.StageBasicInfo, session.Stage)
	assert.Empty(t, session.Fields)
}

func TestCancelRemovesSession(t *testing.T) {
	ctx := context.Background()
	c := newTestController(&mockGateway{}, &mockDirectory{})

	_, err := c.Start(ctx, "u1")
	require.NoError(t, err)

	require.NoError(t, c.Cancel(ctx, "u1", "u1"))

	_, err = c.store.Get(ctx, "u1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	// Cancelling again is a no-op.
	assert.NoError(t, c.Cancel(ctx, "u1", "u1"))
}

func TestCancelByNonOwnerIsForbidden(t *testing.T) {
	ctx := context.Background()
	c := newTestController(&mockGateway{}, &mockDirectory{})

	_, err := c.Start(ctx, "u1")
	require.NoError(t, err)

	assert.ErrorIs(t, c.Cancel(ctx, "u2", "u1"), domain.ErrForbidden)

	_, err = c.store.Get(ctx, "u1")
	assert.NoError(t, err)
}

func TestCustomValuesFlowThroughToAnnouncement(t *testing.T) {
	ctx := context.Background()
	gateway := &mockGateway{}
	c := newTestController(gateway, &mockDirectory{})

	_, err := c.Start(ctx, "u1")
	require.NoError(t, err)

	_, err = c.SubmitStage(ctx, "u1", "u1", domain.StageBasicInfo, map[string]string{
		domain.FieldTitle:    "Big One",
		domain.FieldPrize:    "Console",
		domain.FieldWinners:  "5",
		domain.FieldDuration: "2d",
	})
	require.NoError(t, err)

	_, err = c.SubmitStage(ctx, "u1", "u1", domain.StageEntryRequirements, map[string]string{
		domain.FieldMembership:    "level 3",
		domain.FieldMinMessages:   "50",
		domain.FieldRequiredRoles: "regular",
		domain.FieldCustomEntry:   "react with a star",
	})
	require.NoError(t, err)

	_, err = c.SubmitStage(ctx, "u1", "u1", domain.StageCustomization, map[string]string{
		domain.FieldColor:      "teal",
		domain.FieldButtonText: "Count me in",
	})
	require.NoError(t, err)

	_, err = c.SubmitStage(ctx, "u1", "u1", domain.StageMessages, map[string]string{
		domain.FieldWinnerMessage: "Congrats, {winner}!",
	})
	require.NoError(t, err)

	announcement, err := c.Confirm(ctx, "u1", "u1")
	require.NoError(t, err)

	assert.Equal(t, 5, announcement.Winners)
	assert.Equal(t, 50, announcement.MinMessages)
	assert.Equal(t, "regular", announcement.RequiredRoles)
	assert.Equal(t, "react with a star", announcement.CustomEntry)
	assert.Equal(t, "Count me in", announcement.ButtonText)
	assert.Equal(t, "Congrats, {winner}!", announcement.WinnerMessage)
	assert.Equal(t, domain.SentinelDefault, announcement.StartMessage)
}
