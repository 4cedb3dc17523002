package domain

// Stage identifies a step of the giveaway setup wizard. The pipeline is
// strictly linear: each stage advances to the next, there is no branching
// and no way back except cancelling the whole session.
type Stage int

const (
	StageBasicInfo Stage = iota
	StageEntryRequirements
	StageCustomization
	StageMessages
	StageReadyToSubmit
)

var stageNames = map[Stage]string{
	StageBasicInfo:         "basic_info",
	StageEntryRequirements: "entry_requirements",
	StageCustomization:     "customization",
	StageMessages:          "messages",
	StageReadyToSubmit:     "ready_to_submit",
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return "unknown"
}

// Next returns the stage that follows s in the pipeline. ReadyToSubmit is
// terminal; Next returns it unchanged.
func (s Stage) Next() Stage {
	if s >= StageReadyToSubmit {
		return StageReadyToSubmit
	}
	return s + 1
}

// ParseStage maps a wire name back to a Stage.
func ParseStage(name string) (Stage, bool) {
	for stage, n := range stageNames {
		if n == name {
			return stage, true
		}
	}
	return 0, false
}
