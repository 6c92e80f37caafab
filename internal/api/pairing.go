package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// pairingRetryInterval is how often Pair asks the bridge again
var pairingRetryInterval = time.Second

// pairingRequest is the body sent to register an application
type pairingRequest struct {
	DeviceType string `json:"devicetype"`
	Username   string `json:"username,omitempty"`
}

// ValidateRegistration reports whether the bridge already knows the username.
// A bridge error means not registered, transport failures are returned.
func (b *HueBridge) ValidateRegistration(ctx context.Context) (bool, error) {
	raw, err := b.transport.Do(ctx, http.MethodGet, b.userPath(""), nil)
	if err != nil {
		return false, fmt.Errorf("failed to validate registration: %w", err)
	}
	if berr := checkBridgeError(raw); berr != nil {
		log.Debug().Err(berr).Msg("Application not registered")
		return false, nil
	}
	return true, nil
}

// Connect registers the application unless it is already registered. The
// link button on the bridge must have been pressed shortly before.
func (b *HueBridge) Connect(ctx context.Context) error {
	registered, err := b.ValidateRegistration(ctx)
	if err != nil {
		return err
	}
	if registered {
		return nil
	}

	body := pairingRequest{DeviceType: b.deviceType, Username: b.Username()}
	raw, err := b.transport.Do(ctx, http.MethodPost, "/api", body)
	if err != nil {
		return fmt.Errorf("failed to register application: %w", err)
	}

	if berr := checkBridgeError(raw); berr != nil {
		if errors.Is(berr, ErrLinkButtonNotPressed) {
			return ErrLinkButtonNotPressed
		}
		return berr
	}

	var responses []struct {
		Success *struct {
			Username string `json:"username"`
		} `json:"success"`
	}
	if err := json.Unmarshal(raw, &responses); err != nil {
		return fmt.Errorf("failed to decode pairing response: %w", err)
	}
	for _, r := range responses {
		if r.Success != nil && r.Success.Username != "" {
			b.userMu.Lock()
			b.username = r.Success.Username
			b.userMu.Unlock()
			log.Info().Str("devicetype", b.deviceType).Msg("Registered with bridge")
			return nil
		}
	}
	return errors.New("bridge did not return a username")
}

// Pair keeps calling Connect while the link button has not been pressed,
// giving up with ErrPairingTimeout after timeout.
func (b *HueBridge) Pair(ctx context.Context, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)

	for {
		err := b.Connect(ctx)
		if !errors.Is(err, ErrLinkButtonNotPressed) {
			return err
		}
		if !time.Now().Add(pairingRetryInterval).Before(deadline) {
			return ErrPairingTimeout
		}

		log.Debug().Msg("Waiting for link button")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pairingRetryInterval):
		}
	}
}
