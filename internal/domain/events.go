package domain

// EventKind discriminates interaction events coming from the chat platform.
// The raw platform payload (custom ids, component types) is decoded exactly
// once at the HTTP boundary; everything past that point works with these
// typed events.
type EventKind string

const (
	EventWizardStart EventKind = "wizard_start"
	EventStageSubmit EventKind = "stage_submit"
	EventButtonClick EventKind = "button_click"
	EventModDecision EventKind = "mod_decision"
)

// ButtonAction is the action of a wizard button click.
type ButtonAction string

const (
	ActionConfirm ButtonAction = "confirm"
	ActionCancel  ButtonAction = "cancel"
)

// Decision is a moderator's verdict on an application.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionDeny    Decision = "deny"
	DecisionContact Decision = "contact"
)

// InteractionEvent is one discrete user action addressed to a specific
// owner's session. ActorID is who clicked/submitted; OwnerID is whose
// session the event targets. The two differ only for hostile or stale
// events, which the wizard rejects.
type InteractionEvent struct {
	Kind    EventKind `json:"kind"`
	ActorID string    `json:"actor_id"`
	OwnerID string    `json:"owner_id"`

	// StageSubmit payload.
	Stage  Stage             `json:"stage,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`

	// ButtonClick payload.
	Action ButtonAction `json:"action,omitempty"`

	// ModDecision payload.
	Decision    Decision `json:"decision,omitempty"`
	ApplicantID string   `json:"applicant_id,omitempty"`
	Detail      string   `json:"detail,omitempty"`
}
