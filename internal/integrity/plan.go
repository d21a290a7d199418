package integrity

import (
	"institute-service/internal/schema"
)

// State tracks a delete request through the enforcer.
type State int

const (
	Requested State = iota
	Checking
	Aborted
	Applying
	Committed
)

func (s State) String() string {
	switch s {
	case Requested:
		return "requested"
	case Checking:
		return "checking"
	case Aborted:
		return "aborted"
	case Applying:
		return "applying"
	case Committed:
		return "committed"
	default:
		return "unknown"
	}
}

type Action int

const (
	// Clear sets Column to NULL on the listed rows.
	Clear Action = iota
	// Remove deletes the listed rows.
	Remove
)

// Step is one statement of a delete plan.
type Step struct {
	Action Action
	Entity schema.EntityType
	Table  string
	Column string
	IDs    []int64
}

// Plan is the full set of changes a delete implies. Clear steps run first,
// then Remove steps in order: deepest dependents first, the target last.
type Plan struct {
	Entity schema.EntityType
	ID     int64
	State  State
	Steps  []Step
}

func (p *Plan) clears() []Step {
	var out []Step
	for _, s := range p.Steps {
		if s.Action == Clear {
			out = append(out, s)
		}
	}
	return out
}

func (p *Plan) removes() []Step {
	var out []Step
	for _, s := range p.Steps {
		if s.Action == Remove {
			out = append(out, s)
		}
	}
	return out
}

// Report summarises an applied plan. Nullified is keyed by "table.column",
// Cascaded by table; neither counts the target row itself.
type Report struct {
	Entity    schema.EntityType `json:"entity"`
	ID        int64             `json:"id"`
	Nullified map[string]int    `json:"nullified,omitempty"`
	Cascaded  map[string]int    `json:"cascaded,omitempty"`
}

func newReport(t schema.EntityType, id int64) *Report {
	return &Report{
		Entity:    t,
		ID:        id,
		Nullified: map[string]int{},
		Cascaded:  map[string]int{},
	}
}
