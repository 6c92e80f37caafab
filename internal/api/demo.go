package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/amimof/huego"
	"github.com/google/uuid"
)

// Bridge error types used by the demo bridge
const (
	errTypeUnauthorized     = 1
	errTypeInvalidJSON      = 2
	errTypeNotAvailable     = 3
	errTypeMethodNotAllowed = 4
	errTypeParamUnavailable = 6
	errTypeInvalidValue     = 7
	errTypeDeviceOff        = 201
)

// DemoTransport implements Transport with an in-memory bridge for demo mode
// and tests. It follows the v1 REST semantics including the link button.
type DemoTransport struct {
	// Latency is added to every call to mimic a real bridge
	Latency time.Duration

	lights      map[int]*huego.Light
	users       map[string]string // username -> devicetype
	linkPressed bool
	calls       int
	mu          sync.RWMutex
}

// Compile-time check that DemoTransport implements Transport
var _ Transport = (*DemoTransport)(nil)

// NewDemoTransport creates a demo bridge with sample lights. No application is
// registered and the link button is not pressed.
func NewDemoTransport() *DemoTransport {
	d := &DemoTransport{
		lights: make(map[int]*huego.Light),
		users:  make(map[string]string),
	}
	d.initializeDemoData()
	return d
}

// PressLinkButton simulates pressing the physical button on the bridge
func (d *DemoTransport) PressLinkButton() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.linkPressed = true
}

// Register adds username as an authorized application
func (d *DemoTransport) Register(username, deviceType string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users[username] = deviceType
}

// SetReachable marks a light as (un)reachable
func (d *DemoTransport) SetReachable(id int, reachable bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if light, ok := d.lights[id]; ok {
		light.State.Reachable = reachable
	}
}

// AddLight adds a light and returns its id
func (d *DemoTransport) AddLight(light huego.Light) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	id := len(d.lights) + 1
	for d.lights[id] != nil {
		id++
	}
	if light.State == nil {
		light.State = &huego.State{Reachable: true}
	}
	if light.UniqueID == "" {
		light.UniqueID = demoUniqueID(light.Name, id)
	}
	light.ID = id
	d.lights[id] = &light
	return id
}

// Calls returns how many requests the demo bridge has served
func (d *DemoTransport) Calls() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.calls
}

// Do routes a request to the in-memory bridge
func (d *DemoTransport) Do(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	if d.Latency > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(d.Latency):
		}
	} else if err := ctx.Err(); err != nil {
		return nil, err
	}

	var payload json.RawMessage
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		payload = encoded
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++

	result := d.route(method, path, payload)
	return json.Marshal(result)
}

func (d *DemoTransport) route(method, path string, payload json.RawMessage) any {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) == 0 || parts[0] != "api" {
		return errorList(errTypeNotAvailable, path, fmt.Sprintf("resource, %s, not available", path))
	}

	if len(parts) == 1 {
		if method != http.MethodPost {
			return errorList(errTypeMethodNotAllowed, path, fmt.Sprintf("method, %s, not available for resource, %s", method, path))
		}
		return d.createUser(payload)
	}

	username := parts[1]
	if _, ok := d.users[username]; !ok {
		return errorList(errTypeUnauthorized, "/"+strings.Join(parts[2:], "/"), "unauthorized user")
	}

	resource := "/" + strings.Join(parts[2:], "/")
	switch {
	case len(parts) == 2 && method == http.MethodGet:
		return d.fullState()
	case len(parts) == 3 && parts[2] == "lights" && method == http.MethodGet:
		return d.lightsSnapshot()
	case len(parts) == 4 && parts[2] == "lights" && method == http.MethodGet:
		light, ok := d.lookup(parts[3])
		if !ok {
			return errorList(errTypeNotAvailable, resource, fmt.Sprintf("resource, %s, not available", resource))
		}
		return light
	case len(parts) == 5 && parts[2] == "lights" && parts[4] == "state" && method == http.MethodPut:
		light, ok := d.lookup(parts[3])
		if !ok {
			return errorList(errTypeNotAvailable, resource, fmt.Sprintf("resource, %s, not available", resource))
		}
		return d.applyState(light, payload)
	}
	return errorList(errTypeNotAvailable, resource, fmt.Sprintf("resource, %s, not available", resource))
}

func (d *DemoTransport) createUser(payload json.RawMessage) any {
	var req struct {
		DeviceType string `json:"devicetype"`
		Username   string `json:"username"`
	}
	if err := json.Unmarshal(payload, &req); err != nil {
		return errorList(errTypeInvalidJSON, "", "body contains invalid json")
	}
	if req.DeviceType == "" {
		return errorList(errTypeParamUnavailable, "/devicetype", "parameter, devicetype, not available")
	}
	if !d.linkPressed {
		return errorList(errTypeLinkButton, "", "link button not pressed")
	}

	username := req.Username
	if username == "" {
		username = strings.ReplaceAll(uuid.NewString(), "-", "")
	}
	d.users[username] = req.DeviceType
	return []map[string]any{{"success": map[string]string{"username": username}}}
}

func (d *DemoTransport) fullState() any {
	return map[string]any{
		"lights": d.lightsSnapshot(),
		"config": map[string]any{
			"name":       "Demo bridge",
			"bridgeid":   "001788FFFE000001",
			"modelid":    "BSB002",
			"apiversion": "1.16.0",
			"linkbutton": d.linkPressed,
		},
	}
}

func (d *DemoTransport) lightsSnapshot() map[string]huego.Light {
	out := make(map[string]huego.Light, len(d.lights))
	for id, light := range d.lights {
		cp := *light
		state := *light.State
		state.Xy = append([]float32(nil), light.State.Xy...)
		cp.State = &state
		out[strconv.Itoa(id)] = cp
	}
	return out
}

func (d *DemoTransport) lookup(ref string) (*huego.Light, bool) {
	id, err := strconv.Atoi(ref)
	if err != nil {
		return nil, false
	}
	light, ok := d.lights[id]
	return light, ok
}

// applyState validates and applies each field separately, the way the bridge
// reports per-field outcomes.
func (d *DemoTransport) applyState(light *huego.Light, payload json.RawMessage) any {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		return errorList(errTypeInvalidJSON, "", "body contains invalid json")
	}

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	turningOn := false
	if raw, ok := fields["on"]; ok {
		var on bool
		turningOn = json.Unmarshal(raw, &on) == nil && on
	}

	results := make([]map[string]any, 0, len(names))
	for _, name := range names {
		address := fmt.Sprintf("/lights/%d/state/%s", light.ID, name)
		if name != "on" && !light.State.On && !turningOn {
			results = append(results, errorEntry(errTypeDeviceOff, address,
				fmt.Sprintf("parameter, %s, is not modifiable. Device is set to off.", name)))
			continue
		}

		value, ok := d.applyField(light.State, name, fields[name])
		switch {
		case value == nil && !ok:
			results = append(results, errorEntry(errTypeParamUnavailable, address,
				fmt.Sprintf("parameter, %s, not available", name)))
		case !ok:
			results = append(results, errorEntry(errTypeInvalidValue, address,
				fmt.Sprintf("invalid value, %s, for parameter, %s", string(fields[name]), name)))
		default:
			results = append(results, map[string]any{"success": map[string]any{address: value}})
		}
	}
	return results
}

// applyField returns the applied value and true on success, a non-nil value
// and false for an invalid value, or nil and false for an unknown field.
func (d *DemoTransport) applyField(state *huego.State, name string, raw json.RawMessage) (any, bool) {
	switch name {
	case "on":
		var on bool
		if json.Unmarshal(raw, &on) != nil {
			return raw, false
		}
		state.On = on
		return on, true
	case "bri":
		var bri int
		if json.Unmarshal(raw, &bri) != nil || bri < 1 || bri > 254 {
			return raw, false
		}
		state.Bri = uint8(bri)
		return bri, true
	case "hue":
		var hue int
		if json.Unmarshal(raw, &hue) != nil || hue < 0 || hue > 65535 {
			return raw, false
		}
		state.Hue = uint16(hue)
		state.ColorMode = "hs"
		return hue, true
	case "sat":
		var sat int
		if json.Unmarshal(raw, &sat) != nil || sat < 0 || sat > 254 {
			return raw, false
		}
		state.Sat = uint8(sat)
		state.ColorMode = "hs"
		return sat, true
	case "ct":
		var ct int
		if json.Unmarshal(raw, &ct) != nil || ct < 153 || ct > 500 {
			return raw, false
		}
		state.Ct = uint16(ct)
		state.ColorMode = "ct"
		return ct, true
	case "xy":
		var xy []float64
		if json.Unmarshal(raw, &xy) != nil || len(xy) != 2 ||
			xy[0] < 0 || xy[0] > 1 || xy[1] < 0 || xy[1] > 1 {
			return raw, false
		}
		state.Xy = []float32{float32(xy[0]), float32(xy[1])}
		state.ColorMode = "xy"
		return xy, true
	}
	return nil, false
}

func errorEntry(errType int, address, description string) map[string]any {
	return map[string]any{"error": &BridgeError{Type: errType, Address: address, Description: description}}
}

func errorList(errType int, address, description string) []map[string]any {
	return []map[string]any{errorEntry(errType, address, description)}
}

// demoUniqueID derives a stable MAC-style unique id for a demo light
func demoUniqueID(name string, id int) string {
	u := uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("%s/%d", name, id)))
	return fmt.Sprintf("00:17:88:01:%02x:%02x:%02x:%02x-0b", u[0], u[1], u[2], u[3])
}

// initializeDemoData creates the demo lights
func (d *DemoTransport) initializeDemoData() {
	const (
		extendedColor = "Extended color light"
		colorTemp     = "Color temperature light"
		colorOnly     = "Color light"
	)

	lights := []huego.Light{
		{
			Name: "Ceiling Light", Type: extendedColor, ModelID: "LCT015", SwVersion: "1.90.1",
			State: &huego.State{On: true, Bri: 203, Ct: 326, ColorMode: "ct", Reachable: true}, // Neutral white
		},
		{
			Name: "Floor Lamp", Type: extendedColor, ModelID: "LCT015", SwVersion: "1.90.1",
			State: &huego.State{On: true, Bri: 152, Ct: 400, ColorMode: "ct", Reachable: true}, // Warm
		},
		{
			Name: "TV Bias Light", Type: colorOnly, ModelID: "LST002", SwVersion: "1.90.1",
			State: &huego.State{On: true, Bri: 101, Xy: []float32{0.167, 0.04}, ColorMode: "xy", Reachable: true}, // Blue
		},
		{
			Name: "Accent Strip", Type: colorOnly, ModelID: "LST002", SwVersion: "1.90.1",
			State: &huego.State{On: false, Bri: 254, Xy: []float32{0.64, 0.33}, ColorMode: "xy", Reachable: true}, // Red (stored but off)
		},
		{
			Name: "Bedside Left", Type: extendedColor, ModelID: "LCA001", SwVersion: "1.93.7",
			State: &huego.State{On: true, Bri: 76, Hue: 8402, Sat: 140, ColorMode: "hs", Reachable: true},
		},
		{
			Name: "Kitchen Main", Type: colorTemp, ModelID: "LTW012", SwVersion: "1.88.1",
			State: &huego.State{On: true, Bri: 254, Ct: 233, ColorMode: "ct", Reachable: true}, // Cool white
		},
		{
			Name: "Bookshelf", Type: extendedColor, ModelID: "LCA001", SwVersion: "1.93.7",
			State: &huego.State{On: true, Bri: 101, Xy: []float32{0.32, 0.15}, ColorMode: "xy", Reachable: true}, // Purple
		},
	}

	for i := range lights {
		id := i + 1
		lights[i].ID = id
		lights[i].UniqueID = demoUniqueID(lights[i].Name, id)
		d.lights[id] = &lights[i]
	}
}

// Endpoint returns a placeholder address for display
func (d *DemoTransport) Endpoint() Endpoint {
	return Endpoint{Scheme: "http", Host: "demo-bridge.local", Port: 80}
}
