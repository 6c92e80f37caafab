package messages

import (
	"github.com/angristan/bulby/internal/models"
)

// LightsFetchedMsg contains the lights listed by the bridge
type LightsFetchedMsg struct {
	Lights []*models.Light
}

// ErrorMsg indicates an error occurred
type ErrorMsg struct {
	Err error
}

// RefreshMsg requests a data refresh
type RefreshMsg struct{}

// StateAppliedMsg reports the outcome of a state change on one light
type StateAppliedMsg struct {
	LightID int
	Action  string // shown in the status line, e.g. "turned off"
	Err     error
}
