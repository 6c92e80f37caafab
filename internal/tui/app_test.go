package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/angristan/bulby/internal/api"
	"github.com/angristan/bulby/internal/models"
	"github.com/angristan/bulby/internal/tui/messages"
)

// newTestModel returns a model that has already loaded the demo lights
func newTestModel(t *testing.T) (Model, *api.HueBridge) {
	t.Helper()

	demo := api.NewDemoTransport()
	demo.Register("bulby-test", "bulby#test")
	bridge := api.NewHueBridge(demo, "bulby-test", "bulby#test")

	m := NewModel(bridge)
	t.Cleanup(m.cancel)

	msg := m.fetchLightsCmd()()
	if errMsg, ok := msg.(messages.ErrorMsg); ok {
		t.Fatalf("fetchLightsCmd returned error: %v", errMsg.Err)
	}
	return update(t, m, msg), bridge
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	updated, _ := m.Update(msg)
	return updated.(Model)
}

func keyMsg(key string) tea.KeyMsg {
	switch key {
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
}

func press(t *testing.T, m Model, key string) (Model, tea.Cmd) {
	t.Helper()
	updated, cmd := m.Update(keyMsg(key))
	return updated.(Model), cmd
}

// applyState runs a state command and feeds its result plus the follow-up
// refresh back into the model.
func applyState(t *testing.T, m Model, cmd tea.Cmd) (Model, messages.StateAppliedMsg) {
	t.Helper()
	if cmd == nil {
		t.Fatal("Expected a command")
	}
	applied, ok := cmd().(messages.StateAppliedMsg)
	if !ok {
		t.Fatalf("Expected StateAppliedMsg")
	}

	updated, refresh := m.Update(applied)
	m = updated.(Model)
	if refresh == nil {
		t.Fatal("Expected a refresh after a state change")
	}
	return update(t, m, refresh()), applied
}

func lightOnBridge(t *testing.T, bridge *api.HueBridge, ref string) *models.Light {
	t.Helper()
	if _, err := bridge.GetLights(context.Background()); err != nil {
		t.Fatal(err)
	}
	light, err := bridge.GetLight(context.Background(), ref)
	if err != nil {
		t.Fatal(err)
	}
	return light
}

func selectLight(t *testing.T, m Model, id int) Model {
	t.Helper()
	for m.SelectedLight() != nil && m.SelectedLight().ID != id {
		before := m.selected
		m, _ = press(t, m, "down")
		if m.selected == before {
			t.Fatalf("Light %d not in list", id)
		}
	}
	return m
}

func TestInitialFetch(t *testing.T) {
	demo := api.NewDemoTransport()
	demo.Register("bulby-test", "bulby#test")
	m := NewModel(api.NewHueBridge(demo, "bulby-test", "bulby#test"))
	defer m.cancel()

	if !strings.Contains(m.View(), "Loading lights") {
		t.Error("View should show loading before the first fetch")
	}

	m = update(t, m, m.fetchLightsCmd()())
	view := m.View()

	for _, want := range []string{"Ceiling Light", "Bookshelf", "demo-bridge.local", "6/7 lights on"} {
		if !strings.Contains(view, want) {
			t.Errorf("View missing %q", want)
		}
	}
	if strings.Contains(view, "Loading") {
		t.Error("View should not show loading after LightsFetchedMsg")
	}
}

func TestFetchError(t *testing.T) {
	// Not registered with the demo bridge
	m := NewModel(api.NewHueBridge(api.NewDemoTransport(), "stranger", "bulby#test"))
	defer m.cancel()

	m = update(t, m, m.fetchLightsCmd()())

	if !strings.Contains(m.View(), "Error: unauthorized user") {
		t.Errorf("View should show the bridge error, got:\n%s", m.View())
	}
	if m.loading {
		t.Error("Loading should stop on error")
	}
}

func TestToggle(t *testing.T) {
	m, bridge := newTestModel(t)

	m, cmd := press(t, m, " ")
	if m.SelectedLight().State.On {
		t.Error("Toggle should switch the light off immediately")
	}

	m, applied := applyState(t, m, cmd)
	if applied.Err != nil {
		t.Fatalf("Toggle failed: %v", applied.Err)
	}
	if applied.Action != "turned off" {
		t.Errorf("Action = %q, want %q", applied.Action, "turned off")
	}

	if lightOnBridge(t, bridge, "1").State.On {
		t.Error("Light 1 should be off on the bridge")
	}
	if m.SelectedLight().State.On {
		t.Error("Light 1 should be off after refresh")
	}
	if !strings.Contains(m.View(), "Ceiling Light turned off") {
		t.Error("Status line should report the toggle")
	}
	if m.pending.Len() != 0 {
		t.Errorf("Pending ops should clear once the bridge agrees, %d left", m.pending.Len())
	}
}

func TestBrightness(t *testing.T) {
	m, bridge := newTestModel(t)

	// Ceiling Light starts at 203
	m, cmd := press(t, m, "+")
	m, applied := applyState(t, m, cmd)
	if applied.Err != nil {
		t.Fatalf("Brightness up failed: %v", applied.Err)
	}
	if got := lightOnBridge(t, bridge, "1").State.Bri; got != 228 {
		t.Errorf("Bri = %d, want 228", got)
	}

	for _, want := range []uint8{253, 254} {
		m, cmd = press(t, m, "+")
		m, _ = applyState(t, m, cmd)
		if got := lightOnBridge(t, bridge, "1").State.Bri; got != want {
			t.Errorf("Bri = %d, want %d", got, want)
		}
	}

	_, cmd = press(t, m, "-")
	_, _ = applyState(t, m, cmd)
	if got := lightOnBridge(t, bridge, "1").State.Bri; got != 229 {
		t.Errorf("Bri = %d, want 229", got)
	}
}

func TestBrightnessOnOffLight(t *testing.T) {
	m, bridge := newTestModel(t)
	m = selectLight(t, m, 4)

	// Dimming a light that is off does nothing
	if _, cmd := press(t, m, "-"); cmd != nil {
		t.Error("Expected no command when dimming an off light")
	}

	m, cmd := press(t, m, "+")
	_, applied := applyState(t, m, cmd)
	if applied.Err != nil {
		t.Fatalf("Brightness up from off failed: %v", applied.Err)
	}

	light := lightOnBridge(t, bridge, "4")
	if !light.State.On || light.State.Bri != brightnessStep {
		t.Errorf("Expected light on at %d, got on=%v bri=%d", brightnessStep, light.State.On, light.State.Bri)
	}
}

func TestColorPrompt(t *testing.T) {
	m, bridge := newTestModel(t)

	m, _ = press(t, m, "c")
	if !m.prompting {
		t.Fatal("c should open the color prompt")
	}
	if !strings.Contains(m.View(), "Color for Ceiling Light") {
		t.Error("Prompt should name the selected light")
	}

	m, _ = press(t, m, "#ff0000")
	m, cmd := press(t, m, "enter")
	if m.prompting {
		t.Error("Prompt should close after a valid color")
	}

	_, applied := applyState(t, m, cmd)
	if applied.Err != nil {
		t.Fatalf("Set color failed: %v", applied.Err)
	}
	if applied.Action != "set to #ff0000" {
		t.Errorf("Action = %q", applied.Action)
	}
	if mode := lightOnBridge(t, bridge, "1").State.ColorMode; mode != models.ColorModeXY {
		t.Errorf("ColorMode = %q, want xy", mode)
	}
}

func TestColorPromptTurnsLightOn(t *testing.T) {
	m, bridge := newTestModel(t)
	m = selectLight(t, m, 4)

	m, _ = press(t, m, "c")
	m, _ = press(t, m, "00ff00")
	m, cmd := press(t, m, "enter")

	_, applied := applyState(t, m, cmd)
	if applied.Err != nil {
		t.Fatalf("Set color on off light failed: %v", applied.Err)
	}
	light := lightOnBridge(t, bridge, "4")
	if !light.State.On {
		t.Error("Light 4 should have been switched on")
	}
	if light.State.ColorMode != models.ColorModeXY {
		t.Errorf("ColorMode = %q, want xy", light.State.ColorMode)
	}
}

func TestColorPromptInvalid(t *testing.T) {
	m, _ := newTestModel(t)

	m, _ = press(t, m, "c")
	m, _ = press(t, m, "zz")
	m, cmd := press(t, m, "enter")

	if cmd != nil {
		t.Error("Invalid color must not reach the bridge")
	}
	if !m.prompting {
		t.Error("Prompt should stay open after an invalid color")
	}
	if !strings.Contains(m.View(), "Error:") {
		t.Error("View should explain the invalid color")
	}

	m, _ = press(t, m, "esc")
	if m.prompting || m.err != nil {
		t.Error("esc should close the prompt and clear the error")
	}
}

func TestColorPromptWhiteOnlyLight(t *testing.T) {
	m, _ := newTestModel(t)
	if !strings.Contains(m.renderHelp(), "color") {
		t.Error("Help should offer color on a color light")
	}

	// Kitchen Main is a color temperature light
	m = selectLight(t, m, 6)
	if strings.Contains(m.renderHelp(), "color") {
		t.Error("Help should not offer color on a white-only light")
	}

	m, cmd := press(t, m, "c")
	if m.prompting {
		t.Error("c should not open the prompt on a white-only light")
	}
	if cmd != nil {
		t.Error("Expected no command")
	}
	if !strings.Contains(m.View(), "Kitchen Main cannot show colors") {
		t.Error("View should explain why there is no prompt")
	}
}

func TestStaleRefreshKeepsOptimisticState(t *testing.T) {
	m, _ := newTestModel(t)

	// A listing taken before the toggle lands
	stale := m.fetchLightsCmd()()

	m, _ = press(t, m, " ")
	m = update(t, m, stale)

	if m.SelectedLight().State.On {
		t.Error("Stale listing should not undo the pending toggle")
	}
}

func TestStateFailure(t *testing.T) {
	m, _ := newTestModel(t)

	m, _ = press(t, m, " ")
	updated, cmd := m.Update(messages.StateAppliedMsg{LightID: 1, Action: "turned off", Err: errors.New("bridge unreachable")})
	m = updated.(Model)

	if m.pending.Len() != 0 {
		t.Error("Failed change should drop its pending ops")
	}
	if !strings.Contains(m.View(), "Error: bridge unreachable") {
		t.Error("View should show the failure")
	}

	// The refresh restores the real state
	m = update(t, m, cmd())
	if !m.SelectedLight().State.On {
		t.Error("Light 1 should be back on after refresh")
	}
}

func TestSelectionSurvivesRefresh(t *testing.T) {
	m, _ := newTestModel(t)
	m = selectLight(t, m, 5)

	m = update(t, m, m.fetchLightsCmd()())
	if got := m.SelectedLight().ID; got != 5 {
		t.Errorf("Selected light = %d, want 5", got)
	}

	m, _ = press(t, m, "G")
	if got := m.SelectedLight().ID; got != 7 {
		t.Errorf("Selected light = %d, want 7", got)
	}
	m, _ = press(t, m, "down")
	if got := m.SelectedLight().ID; got != 7 {
		t.Error("Cursor should stop at the last light")
	}
}

func TestVisibleRange(t *testing.T) {
	m, _ := newTestModel(t)
	m = update(t, m, tea.WindowSizeMsg{Width: 80, Height: chromeLines + 2})

	if start, end := m.visibleRange(); start != 0 || end != 2 {
		t.Errorf("visibleRange() = %d, %d, want 0, 2", start, end)
	}

	m = selectLight(t, m, 5)
	if start, end := m.visibleRange(); start != 3 || end != 5 {
		t.Errorf("visibleRange() = %d, %d, want 3, 5", start, end)
	}
	if view := m.View(); !strings.Contains(view, "Bedside Left") || strings.Contains(view, "Ceiling Light") {
		t.Error("View should scroll to the selected light")
	}
}

func TestRefreshKey(t *testing.T) {
	m, _ := newTestModel(t)

	m, cmd := press(t, m, "r")
	if !m.loading || cmd == nil {
		t.Error("r should start a refresh")
	}
}

func TestQuit(t *testing.T) {
	m, _ := newTestModel(t)

	m, cmd := press(t, m, "q")
	if cmd == nil {
		t.Fatal("Expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
	if m.ctx.Err() == nil {
		t.Error("Quitting should cancel in-flight requests")
	}
}
