package engine

// Action is the retention decision for a resource.
type Action string

const (
	// ActionStay keeps the resource in its inventory slot.
	ActionStay Action = "stay"
	// ActionMove compacts the resource behind the retained ones so the next
	// plan removes or replaces it.
	ActionMove Action = "move"
)

// Label is the console tag printed for the action.
func (a Action) Label() string {
	if a == ActionStay {
		return "STAY"
	}
	return "DELETE"
}

// Decision records where one resource ended up.
type Decision struct {
	Module string `json:"module" yaml:"module"`
	Action Action `json:"action" yaml:"action"`
	Name   string `json:"name" yaml:"name"`
	ID     string `json:"id" yaml:"id"`
	From   string `json:"from" yaml:"from"`
	To     string `json:"to" yaml:"to"`
}

// Plan is the outcome of reconciling a state against the inventory.
type Plan struct {
	RunID     string     `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	Timestamp string     `json:"timestamp" yaml:"timestamp"`
	Decisions []Decision `json:"decisions" yaml:"decisions"`
	Summary   Summary    `json:"summary" yaml:"summary"`
}

// Summary provides aggregate counts for a plan.
type Summary struct {
	// Modules is the number of modules in the state.
	Modules int `json:"modules" yaml:"modules"`
	// Reconciled counts modules whose resources were re-indexed.
	Reconciled int `json:"reconciled" yaml:"reconciled"`
	// Skipped counts modules left untouched: too shallow, empty, or with no inventory rows.
	Skipped int `json:"skipped" yaml:"skipped"`
	Stay    int `json:"stay" yaml:"stay"`
	Move    int `json:"move" yaml:"move"`
	// Data counts data resources carried over unchanged.
	Data int `json:"data" yaml:"data"`
	// Dependencies counts depends_on entries added.
	Dependencies int `json:"dependencies" yaml:"dependencies"`
}
