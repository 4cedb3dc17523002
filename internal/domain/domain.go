package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// --- Field names ---

// Field names accumulated across wizard stages. Values are always stored as
// the strings the user submitted; parsing happens at validation time.
const (
	FieldTitle         = "title"
	FieldPrize         = "prize"
	FieldWinners       = "winners"
	FieldDuration      = "duration"
	FieldMembership    = "membership"
	FieldMinMessages   = "min_messages"
	FieldRequiredRoles = "required_roles"
	FieldCustomEntry   = "custom_entry"
	FieldColor         = "color"
	FieldThumbnail     = "thumbnail"
	FieldBanner        = "banner"
	FieldButtonText    = "button_text"
	FieldStartMessage  = "start_message"
	FieldWinnerMessage = "winner_message"
	FieldEntryMessage  = "entry_confirm_message"
)

// Sentinel values for optional fields. The rendered announcement never shows
// an empty string: omitted optionals are stored as one of these.
const (
	SentinelNone    = "None"
	SentinelDefault = "Default"
)

// --- Model types ---

// Session is one user's in-flight wizard, keyed by the owner's platform
// user id. Only the owner's events may mutate it.
type Session struct {
	OwnerID   string            `json:"owner_id" redis:"owner_id"`
	Stage     Stage             `json:"stage" redis:"stage"`
	Fields    map[string]string `json:"fields" redis:"fields"`
	StartedAt time.Time         `json:"started_at" redis:"started_at"`
	UpdatedAt time.Time         `json:"updated_at" redis:"updated_at"`
}

// StatusKind is the outcome of a moderator application.
type StatusKind string

const (
	StatusSubmitted StatusKind = "submitted"
	StatusApproved  StatusKind = "approved"
	StatusRejected  StatusKind = "rejected"
)

// Valid reports whether k is one of the three known status kinds.
func (k StatusKind) Valid() bool {
	switch k {
	case StatusSubmitted, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Application is an ephemeral notification request. It is consumed once to
// produce one outbound direct message; nothing is persisted.
type Application struct {
	RecipientID string     `json:"recipient_id"`
	Status      StatusKind `json:"status"`
	Detail      string     `json:"detail,omitempty"`
}

// Announcement is the terminal artifact of a completed wizard. It is handed
// to the notification gateway for rendering and delivery, then discarded.
type Announcement struct {
	ID            uuid.UUID `json:"id"`
	HostID        string    `json:"host_id"`
	Title         string    `json:"title"`
	Prize         string    `json:"prize"`
	Winners       int       `json:"winners"`
	Duration      string    `json:"duration"`
	Membership    string    `json:"membership"`
	MinMessages   int       `json:"min_messages"`
	RequiredRoles string    `json:"required_roles"`
	CustomEntry   string    `json:"custom_entry"`
	Color         string    `json:"color"`
	Thumbnail     string    `json:"thumbnail"`
	Banner        string    `json:"banner"`
	ButtonText    string    `json:"button_text"`
	StartMessage  string    `json:"start_message"`
	WinnerMessage string    `json:"winner_message"`
	EntryMessage  string    `json:"entry_confirm_message"`
	CreatedAt     time.Time `json:"created_at"`
}

// UserHandle is the directory's view of a platform user.
type UserHandle struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
}

// --- Interfaces ---

// SessionStore maps an owner id to at most one active wizard session.
// Advance is a compare-and-swap on the stage: it only succeeds if the
// session is observed in the expected stage, so duplicate or stale events
// for the same owner resolve to exactly one winner.
type SessionStore interface {
	Start(ctx context.Context, ownerID string) (*Session, error)
	Get(ctx context.Context, ownerID string) (*Session, error)
	Advance(ctx context.Context, ownerID string, expect Stage, delta map[string]string, next Stage) (*Session, error)
	Remove(ctx context.Context, ownerID string) error
	EvictIdle(ctx context.Context, maxIdle time.Duration) ([]string, error)
}

// NotificationGateway delivers outbound messages through the chat platform.
type NotificationGateway interface {
	SendDirectMessage(ctx context.Context, userID, text string) error
	PostToChannel(ctx context.Context, channelID string, content Announcement) error
}

// WorkspaceDirectory exposes guild structure operations on the chat platform.
type WorkspaceDirectory interface {
	GrantRole(ctx context.Context, guildID, userID, roleID string) error
	CreatePrivateChannel(ctx context.Context, guildID string, participantIDs []string) (string, error)
	FetchUser(ctx context.Context, userID string) (*UserHandle, error)
}
