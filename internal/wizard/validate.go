package wizard

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rzeZenphrix/miku-interviewer/internal/domain"
)

const (
	minWinners = 1
	maxWinners = 20
)

// stageSpec declares the field contract of one wizard stage: which fields
// the submission must carry, which are optional, and the sentinel an
// omitted optional is stored as.
type stageSpec struct {
	required []string
	optional map[string]string
}

var stageSpecs = map[domain.Stage]stageSpec{
	domain.StageBasicInfo: {
		required: []string{domain.FieldTitle, domain.FieldPrize, domain.FieldWinners, domain.FieldDuration},
	},
	domain.StageEntryRequirements: {
		required: []string{domain.FieldMembership},
		optional: map[string]string{
			domain.FieldMinMessages:   "0",
			domain.FieldRequiredRoles: domain.SentinelNone,
			domain.FieldCustomEntry:   domain.SentinelNone,
		},
	},
	domain.StageCustomization: {
		required: []string{domain.FieldColor},
		optional: map[string]string{
			domain.FieldThumbnail:  domain.SentinelNone,
			domain.FieldBanner:     domain.SentinelNone,
			domain.FieldButtonText: domain.SentinelDefault,
		},
	},
	domain.StageMessages: {
		optional: map[string]string{
			domain.FieldStartMessage:  domain.SentinelDefault,
			domain.FieldWinnerMessage: domain.SentinelDefault,
			domain.FieldEntryMessage:  domain.SentinelDefault,
		},
	},
}

// validateStage checks a stage submission against its spec and returns the
// normalized field delta: required fields verbatim, omitted optionals
// replaced by their sentinel. Unknown fields are rejected so a hand-crafted
// payload cannot smuggle values into later stages.
func validateStage(stage domain.Stage, fields map[string]string) (map[string]string, error) {
	spec, ok := stageSpecs[stage]
	if !ok {
		return nil, domain.NewValidationError("", fmt.Sprintf("stage %s accepts no submissions", stage))
	}

	known := make(map[string]bool, len(spec.required)+len(spec.optional))
	for _, name := range spec.required {
		known[name] = true
	}
	for name := range spec.optional {
		known[name] = true
	}
	for name := range fields {
		if !known[name] {
			return nil, domain.NewValidationError(name, "not a field of this stage")
		}
	}

	delta := make(map[string]string, len(known))

	for _, name := range spec.required {
		value := strings.TrimSpace(fields[name])
		if value == "" {
			return nil, domain.NewValidationError(name, "required")
		}
		delta[name] = value
	}

	for name, sentinel := range spec.optional {
		value := strings.TrimSpace(fields[name])
		if value == "" {
			value = sentinel
		}
		delta[name] = value
	}

	if err := checkStageValues(stage, delta); err != nil {
		return nil, err
	}

	return delta, nil
}

func checkStageValues(stage domain.Stage, delta map[string]string) error {
	switch stage {
	case domain.StageBasicInfo:
		winners, err := strconv.Atoi(delta[domain.FieldWinners])
		if err != nil {
			return domain.NewValidationError(domain.FieldWinners, "must be a whole number")
		}
		if winners < minWinners || winners > maxWinners {
			return domain.NewValidationError(domain.FieldWinners, fmt.Sprintf("must be between %d and %d", minWinners, maxWinners))
		}

		if _, err := parseGiveawayDuration(delta[domain.FieldDuration]); err != nil {
			return domain.NewValidationError(domain.FieldDuration, "must be a duration like 30m, 12h or 1d")
		}

	case domain.StageEntryRequirements:
		if raw := delta[domain.FieldMinMessages]; raw != "0" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				return domain.NewValidationError(domain.FieldMinMessages, "must be a non-negative whole number")
			}
		}
	}

	return nil
}

// parseGiveawayDuration accepts standard Go durations plus a day suffix,
// so hosts can write "1d" or "2d12h".
func parseGiveawayDuration(raw string) (time.Duration, error) {
	if idx := strings.IndexByte(raw, 'd'); idx > 0 {
		days, err := strconv.Atoi(raw[:idx])
		if err != nil || days <= 0 {
			return 0, fmt.Errorf("invalid day count in %q", raw)
		}

		rest := time.Duration(0)
		if remainder := raw[idx+1:]; remainder != "" {
			rest, err = time.ParseDuration(remainder)
			if err != nil {
				return 0, fmt.Errorf("invalid duration %q: %w", raw, err)
			}
		}
		return time.Duration(days)*24*time.Hour + rest, nil
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration must be positive, got %q", raw)
	}
	return d, nil
}
