package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNoBridges            = errors.New("no bridges found")
	ErrMultipleBridges      = errors.New("multiple bridges found")
	ErrLinkButtonNotPressed = errors.New("please press the link button and try again")
	ErrPairingTimeout       = errors.New("pairing timeout - link button was not pressed")
	ErrLightNotFound        = errors.New("light not found")
	ErrStateNotApplied      = errors.New("state change not fully applied")
)

// errTypeLinkButton is the bridge error type for an unpressed link button
const errTypeLinkButton = 101

// AmbiguousBridgesError is returned when discovery finds more than one bridge
// and no address was configured to pick one.
type AmbiguousBridgesError struct {
	Locations []string
}

func (e *AmbiguousBridgesError) Error() string {
	return fmt.Sprintf("multiple bridges found: %s", strings.Join(e.Locations, ", "))
}

func (e *AmbiguousBridgesError) Is(target error) bool {
	return target == ErrMultipleBridges
}

// BridgeError is an error object reported by the bridge
type BridgeError struct {
	Type        int    `json:"type"`
	Address     string `json:"address"`
	Description string `json:"description"`
}

func (e *BridgeError) Error() string {
	return e.Description
}

func (e *BridgeError) Is(target error) bool {
	return target == ErrLinkButtonNotPressed && e.Type == errTypeLinkButton
}

// StateError reports a state change the bridge only partly acknowledged
type StateError struct {
	Requested int
	Applied   int
	Errors    []*BridgeError
}

func (e *StateError) Error() string {
	msg := fmt.Sprintf("%s: %d of %d fields applied", ErrStateNotApplied, e.Applied, e.Requested)
	if len(e.Errors) > 0 {
		descriptions := make([]string, len(e.Errors))
		for i, be := range e.Errors {
			descriptions[i] = be.Description
		}
		msg += ": " + strings.Join(descriptions, "; ")
	}
	return msg
}

func (e *StateError) Is(target error) bool {
	return target == ErrStateNotApplied
}

// bridgeResult is one element of the list the bridge returns for writes
type bridgeResult struct {
	Success json.RawMessage `json:"success,omitempty"`
	Error   *BridgeError    `json:"error,omitempty"`
}

// checkBridgeError returns the bridge error contained in body, if any. The
// bridge reports errors either as a bare object or wrapped in a list.
func checkBridgeError(body json.RawMessage) error {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return nil
	}

	var results []bridgeResult
	switch trimmed[0] {
	case '[':
		if err := json.Unmarshal(body, &results); err != nil {
			return nil
		}
	case '{':
		var single bridgeResult
		if err := json.Unmarshal(body, &single); err != nil {
			return nil
		}
		results = append(results, single)
	}

	for _, r := range results {
		if r.Error != nil {
			return r.Error
		}
	}
	return nil
}
