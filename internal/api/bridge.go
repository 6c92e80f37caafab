package api

import (
	"context"
	"time"

	"github.com/angristan/bulby/internal/models"
)

// BridgeClient defines the interface for interacting with a Hue bridge.
// The TUI and CLI work against it so a demo transport can stand in.
type BridgeClient interface {
	// Registration
	ValidateRegistration(ctx context.Context) (bool, error)
	Connect(ctx context.Context) error
	Pair(ctx context.Context, timeout time.Duration) error

	// Lights
	GetLights(ctx context.Context) ([]*models.Light, error)
	GetLight(ctx context.Context, ref string) (*models.Light, error)
	SetState(ctx context.Context, lightID int, change StateChange) error
	SetColor(ctx context.Context, ref, hex string, bri *uint8) error

	// Metadata
	Host() string
	Username() string
}

// Compile-time check that HueBridge implements BridgeClient
var _ BridgeClient = (*HueBridge)(nil)
