package api

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRegistration(t *testing.T) {
	demo := NewDemoTransport()
	bridge := NewHueBridge(demo, "bulby", "bulby#test")

	ok, err := bridge.ValidateRegistration(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)

	demo.Register("bulby", "bulby#test")
	ok, err = bridge.ValidateRegistration(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestConnect_LinkButtonNotPressed(t *testing.T) {
	bridge := NewHueBridge(NewDemoTransport(), "bulby", "bulby#test")

	err := bridge.Connect(context.Background())
	assert.ErrorIs(t, err, ErrLinkButtonNotPressed)
	assert.Equal(t, "please press the link button and try again", err.Error())
}

func TestConnect_Registers(t *testing.T) {
	demo := NewDemoTransport()
	demo.PressLinkButton()
	bridge := NewHueBridge(demo, "bulby", "bulby#test")
	ctx := context.Background()

	require.NoError(t, bridge.Connect(ctx))
	assert.Equal(t, "bulby", bridge.Username())

	ok, err := bridge.ValidateRegistration(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestConnect_AdoptsGeneratedUsername(t *testing.T) {
	demo := NewDemoTransport()
	demo.PressLinkButton()
	bridge := NewHueBridge(demo, "", "bulby#test")

	require.NoError(t, bridge.Connect(context.Background()))
	assert.Len(t, bridge.Username(), 32)

	_, err := bridge.GetLights(context.Background())
	assert.NoError(t, err)
}

func TestConnect_AlreadyRegistered(t *testing.T) {
	demo := NewDemoTransport()
	demo.Register("bulby", "bulby#test")
	bridge := NewHueBridge(demo, "bulby", "bulby#test")

	require.NoError(t, bridge.Connect(context.Background()))
	assert.Equal(t, 1, demo.Calls(), "only the validation request is sent")
}

func TestConnect_OtherBridgeError(t *testing.T) {
	demo := NewDemoTransport()
	demo.PressLinkButton()
	bridge := NewHueBridge(demo, "bulby", "")

	err := bridge.Connect(context.Background())
	var berr *BridgeError
	require.ErrorAs(t, err, &berr)
	assert.Equal(t, 6, berr.Type)
	assert.Equal(t, "parameter, devicetype, not available", err.Error())
	assert.NotErrorIs(t, err, ErrLinkButtonNotPressed)
}

func TestPair(t *testing.T) {
	defer func(d time.Duration) { pairingRetryInterval = d }(pairingRetryInterval)
	pairingRetryInterval = 10 * time.Millisecond

	demo := NewDemoTransport()
	bridge := NewHueBridge(demo, "bulby", "bulby#test")

	go func() {
		time.Sleep(30 * time.Millisecond)
		demo.PressLinkButton()
	}()

	require.NoError(t, bridge.Pair(context.Background(), 5*time.Second))

	ok, err := bridge.ValidateRegistration(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPair_Timeout(t *testing.T) {
	defer func(d time.Duration) { pairingRetryInterval = d }(pairingRetryInterval)
	pairingRetryInterval = 10 * time.Millisecond

	bridge := NewHueBridge(NewDemoTransport(), "bulby", "bulby#test")

	err := bridge.Pair(context.Background(), 50*time.Millisecond)
	assert.ErrorIs(t, err, ErrPairingTimeout)
}

func TestPair_Cancelled(t *testing.T) {
	defer func(d time.Duration) { pairingRetryInterval = d }(pairingRetryInterval)
	pairingRetryInterval = 10 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	bridge := NewHueBridge(NewDemoTransport(), "bulby", "bulby#test")
	err := bridge.Pair(ctx, time.Minute)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
