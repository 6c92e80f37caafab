package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"sync"

	"github.com/amimof/huego"
	"github.com/rs/zerolog/log"

	"github.com/angristan/bulby/internal/colorspace"
	"github.com/angristan/bulby/internal/models"
)

// HueBridge is a registered application talking to one bridge
type HueBridge struct {
	transport  Transport
	deviceType string

	username string
	userMu   sync.RWMutex

	// Light cache, rebuilt by GetLights
	lights   map[int]*models.Light
	lightsMu sync.RWMutex
}

// NewHueBridge creates a bridge client. The username is the application key
// the bridge knows (or will learn on Connect) this application by.
func NewHueBridge(transport Transport, username, deviceType string) *HueBridge {
	return &HueBridge{
		transport:  transport,
		deviceType: deviceType,
		username:   username,
		lights:     make(map[int]*models.Light),
	}
}

// Host returns where the bridge is reached
func (b *HueBridge) Host() string {
	if e, ok := b.transport.(interface{ Endpoint() Endpoint }); ok {
		return e.Endpoint().BaseURL()
	}
	return "unknown"
}

// Username returns the application key in use
func (b *HueBridge) Username() string {
	b.userMu.RLock()
	defer b.userMu.RUnlock()
	return b.username
}

func (b *HueBridge) userPath(suffix string) string {
	return "/api/" + b.Username() + suffix
}

// GetLights retrieves all lights from the bridge, ordered by id, and
// refreshes the light cache.
func (b *HueBridge) GetLights(ctx context.Context) ([]*models.Light, error) {
	raw, err := b.transport.Do(ctx, http.MethodGet, b.userPath("/lights"), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get lights: %w", err)
	}
	if err := checkBridgeError(raw); err != nil {
		return nil, err
	}

	var rawLights map[string]huego.Light
	if err := json.Unmarshal(raw, &rawLights); err != nil {
		return nil, fmt.Errorf("failed to decode lights response: %w", err)
	}

	result := make([]*models.Light, 0, len(rawLights))
	cache := make(map[int]*models.Light, len(rawLights))
	for key, rl := range rawLights {
		id, err := strconv.Atoi(key)
		if err != nil {
			log.Warn().Str("id", key).Msg("Skipping light with non-numeric id")
			continue
		}
		light := lightToModel(id, &rl)
		result = append(result, light)
		cache[id] = light.Clone()
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })

	b.lightsMu.Lock()
	b.lights = cache
	b.lightsMu.Unlock()

	return result, nil
}

func lightToModel(id int, raw *huego.Light) *models.Light {
	light := &models.Light{
		ID:              id,
		UniqueID:        raw.UniqueID,
		Name:            raw.Name,
		Type:            raw.Type,
		ModelID:         raw.ModelID,
		SoftwareVersion: raw.SwVersion,
	}

	if s := raw.State; s != nil {
		light.State = models.LightState{
			On:        s.On,
			Bri:       s.Bri,
			Hue:       s.Hue,
			Sat:       s.Sat,
			CT:        s.Ct,
			ColorMode: models.ParseColorMode(s.ColorMode),
			Reachable: s.Reachable,
		}
		if len(s.Xy) == 2 {
			light.State.XY = colorspace.Pt(float64(s.Xy[0]), float64(s.Xy[1]))
		}
	}
	return light
}

// GetLight finds a light by numeric id or by exact name. The cache is rebuilt
// once when the light is not in it.
func (b *HueBridge) GetLight(ctx context.Context, ref string) (*models.Light, error) {
	if light := b.cachedLight(ref); light != nil {
		return light, nil
	}

	if _, err := b.GetLights(ctx); err != nil {
		return nil, err
	}

	if light := b.cachedLight(ref); light != nil {
		return light, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrLightNotFound, ref)
}

func (b *HueBridge) cachedLight(ref string) *models.Light {
	b.lightsMu.RLock()
	defer b.lightsMu.RUnlock()

	if id, err := strconv.Atoi(ref); err == nil {
		if light, ok := b.lights[id]; ok {
			return light.Clone()
		}
	}

	// Scan in id order so duplicate names resolve deterministically
	ids := make([]int, 0, len(b.lights))
	for id := range b.lights {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		if b.lights[id].Name == ref {
			return b.lights[id].Clone()
		}
	}
	return nil
}

// SetState applies change to a light. It succeeds only when the bridge
// acknowledges every requested field, partial application is not rolled back.
func (b *HueBridge) SetState(ctx context.Context, lightID int, change StateChange) error {
	if err := change.Validate(); err != nil {
		return fmt.Errorf("invalid state change: %w", err)
	}

	path := b.userPath(fmt.Sprintf("/lights/%d/state", lightID))
	raw, err := b.transport.Do(ctx, http.MethodPut, path, change.Fields())
	if err != nil {
		return fmt.Errorf("failed to set state of light %d: %w", lightID, err)
	}

	var results []bridgeResult
	if err := json.Unmarshal(raw, &results); err != nil {
		if berr := checkBridgeError(raw); berr != nil {
			return berr
		}
		return fmt.Errorf("failed to decode state response: %w", err)
	}

	stateErr := &StateError{Requested: change.Len()}
	for _, r := range results {
		switch {
		case r.Error != nil:
			stateErr.Errors = append(stateErr.Errors, r.Error)
		case r.Success != nil:
			stateErr.Applied++
		}
	}

	if stateErr.Applied != stateErr.Requested {
		log.Warn().
			Int("light", lightID).
			Int("requested", stateErr.Requested).
			Int("applied", stateErr.Applied).
			Msg("State change not fully applied")
		return stateErr
	}

	b.updateCachedState(lightID, change)
	return nil
}

func (b *HueBridge) updateCachedState(lightID int, change StateChange) {
	b.lightsMu.Lock()
	defer b.lightsMu.Unlock()

	light, ok := b.lights[lightID]
	if !ok {
		return
	}
	s := &light.State
	if change.On != nil {
		s.On = *change.On
	}
	if change.Bri != nil {
		s.Bri = *change.Bri
	}
	if change.Hue != nil {
		s.Hue = *change.Hue
		s.ColorMode = models.ColorModeHS
	}
	if change.Sat != nil {
		s.Sat = *change.Sat
		s.ColorMode = models.ColorModeHS
	}
	if change.XY != nil {
		s.XY = *change.XY
		s.ColorMode = models.ColorModeXY
	}
}

// SetColor sets a light, referenced by id or name, to the color of a hex RGB
// string. The chromaticity sent is always inside the lamp gamut.
func (b *HueBridge) SetColor(ctx context.Context, ref, hex string, bri *uint8) error {
	xy, err := colorspace.HexToChromaticity(hex)
	if err != nil {
		return err
	}

	light, err := b.GetLight(ctx, ref)
	if err != nil {
		return err
	}

	log.Debug().Int("light", light.ID).Str("hex", hex).Stringer("xy", xy).Msg("Setting color")
	return b.SetState(ctx, light.ID, StateChange{XY: &xy, Bri: bri})
}
