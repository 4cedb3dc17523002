package httpserver

import (
	"encoding/json"
	"strings"

	"github.com/rzeZenphrix/miku-interviewer/internal/domain"
)

// interactionPayload is the raw shape the chat platform posts to the
// interaction webhook. The custom id carries the routing information;
// values hold modal form input keyed by field name.
type interactionPayload struct {
	ActorID  string            `json:"actor_id"`
	CustomID string            `json:"custom_id"`
	Values   map[string]string `json:"values,omitempty"`
	Detail   string            `json:"detail,omitempty"`
}

// parseInteraction decodes a raw webhook body into a typed event. The custom
// id grammar is colon-separated:
//
//	wizard:start
//	wizard:stage:<stage>:<owner>
//	wizard:confirm:<owner>
//	wizard:cancel:<owner>
//	mod:<decision>:<applicant>
//
// This is the only place the grammar exists; everything downstream works
// with domain.InteractionEvent.
func parseInteraction(body []byte) (domain.InteractionEvent, error) {
	var payload interactionPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return domain.InteractionEvent{}, domain.NewValidationError("", "malformed interaction payload")
	}

	if payload.ActorID == "" {
		return domain.InteractionEvent{}, domain.NewValidationError("actor_id", "missing")
	}

	parts := strings.Split(payload.CustomID, ":")
	switch parts[0] {
	case "wizard":
		return parseWizardEvent(payload, parts)
	case "mod":
		return parseModEvent(payload, parts)
	default:
		return domain.InteractionEvent{}, domain.NewValidationError("custom_id", "unknown interaction namespace")
	}
}

func parseWizardEvent(payload interactionPayload, parts []string) (domain.InteractionEvent, error) {
	if len(parts) < 2 {
		return domain.InteractionEvent{}, domain.NewValidationError("custom_id", "malformed wizard interaction")
	}

	switch parts[1] {
	case "start":
		return domain.InteractionEvent{
			Kind:    domain.EventWizardStart,
			ActorID: payload.ActorID,
			OwnerID: payload.ActorID,
		}, nil

	case "stage":
		if len(parts) != 4 {
			return domain.InteractionEvent{}, domain.NewValidationError("custom_id", "malformed stage submission")
		}
		stage, ok := domain.ParseStage(parts[2])
		if !ok {
			return domain.InteractionEvent{}, domain.NewValidationError("custom_id", "unknown wizard stage")
		}
		return domain.InteractionEvent{
			Kind:    domain.EventStageSubmit,
			ActorID: payload.ActorID,
			OwnerID: parts[3],
			Stage:   stage,
			Fields:  payload.Values,
		}, nil

	case "confirm", "cancel":
		if len(parts) != 3 {
			return domain.InteractionEvent{}, domain.NewValidationError("custom_id", "malformed button interaction")
		}
		action := domain.ActionConfirm
		if parts[1] == "cancel" {
			action = domain.ActionCancel
		}
		return domain.InteractionEvent{
			Kind:    domain.EventButtonClick,
			ActorID: payload.ActorID,
			OwnerID: parts[2],
			Action:  action,
		}, nil

	default:
		return domain.InteractionEvent{}, domain.NewValidationError("custom_id", "unknown wizard interaction")
	}
}

func parseModEvent(payload interactionPayload, parts []string) (domain.InteractionEvent, error) {
	if len(parts) != 3 {
		return domain.InteractionEvent{}, domain.NewValidationError("custom_id", "malformed moderator interaction")
	}

	decision := domain.Decision(parts[1])
	switch decision {
	case domain.DecisionApprove, domain.DecisionDeny, domain.DecisionContact:
	default:
		return domain.InteractionEvent{}, domain.NewValidationError("custom_id", "unknown moderator decision")
	}

	return domain.InteractionEvent{
		Kind:        domain.EventModDecision,
		ActorID:     payload.ActorID,
		OwnerID:     payload.ActorID,
		Decision:    decision,
		ApplicantID: parts[2],
		Detail:      payload.Detail,
	}, nil
}
