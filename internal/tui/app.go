package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"

	"github.com/angristan/bulby/internal/api"
	"github.com/angristan/bulby/internal/colorspace"
	"github.com/angristan/bulby/internal/models"
	"github.com/angristan/bulby/internal/tui/components"
	"github.com/angristan/bulby/internal/tui/messages"
	"github.com/angristan/bulby/internal/tui/styles"
)

const (
	// Brightness change per +/- press, about 10%
	brightnessStep = 25
	commandTimeout = 5 * time.Second

	// header, blank line, status, help
	chromeLines = 4
)

// Model is the main application model
type Model struct {
	bridge api.BridgeClient

	// Data
	lights   []*models.Light
	selected int
	loading  bool

	// Hex color prompt
	prompt    textinput.Model
	prompting bool

	spinner spinner.Model
	pending *PendingTracker

	// Last action result shown in the status line
	status string
	err    error

	// Window size
	width  int
	height int

	// Context for cancellation
	ctx    context.Context
	cancel context.CancelFunc
}

// NewModel creates a new application model driving bridge
func NewModel(bridge api.BridgeClient) Model {
	ctx, cancel := context.WithCancel(context.Background())

	ti := textinput.New()
	ti.Placeholder = "#ff8800"
	ti.CharLimit = 7

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.StyleSpinner

	return Model{
		bridge:  bridge,
		loading: true,
		prompt:  ti,
		spinner: sp,
		pending: NewPendingTracker(),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Init initializes the application
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle("bulby"),
		m.spinner.Tick,
		m.fetchLightsCmd(),
	)
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if m.prompting {
			return m.updatePrompt(msg)
		}
		return m.handleKey(msg)

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case messages.LightsFetchedMsg:
		m.loading = false
		m.setLights(msg.Lights)
		return m, nil

	case messages.StateAppliedMsg:
		if msg.Err != nil {
			m.err = msg.Err
			m.status = ""
			m.pending.Clear(msg.LightID)
		} else {
			m.err = nil
			m.status = fmt.Sprintf("%s %s", m.lightName(msg.LightID), msg.Action)
		}
		// Pick up whatever the bridge actually applied
		return m, m.fetchLightsCmd()

	case messages.RefreshMsg:
		m.loading = true
		return m, tea.Batch(m.spinner.Tick, m.fetchLightsCmd())

	case messages.ErrorMsg:
		m.loading = false
		m.err = msg.Err
		return m, nil
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.cancel()
		return m, tea.Quit

	case "up", "k":
		if m.selected > 0 {
			m.selected--
		}

	case "down", "j":
		if m.selected < len(m.lights)-1 {
			m.selected++
		}

	case "home", "g":
		m.selected = 0

	case "end", "G":
		if len(m.lights) > 0 {
			m.selected = len(m.lights) - 1
		}

	case "r":
		return m.Update(messages.RefreshMsg{})

	case " ":
		light := m.SelectedLight()
		if light == nil {
			return m, nil
		}
		on := !light.State.On
		light.State.On = on
		m.pending.Add(light.ID, "on", on)

		action := "turned off"
		if on {
			action = "turned on"
		}
		return m, m.setStateCmd(light.ID, api.StateChange{On: api.Bool(on)}, action)

	case "+", "=":
		light := m.SelectedLight()
		if light == nil {
			return m, nil
		}
		change := api.StateChange{}
		bri := brightnessStep
		if light.State.On {
			bri = min(254, int(light.State.Bri)+brightnessStep)
		} else {
			// Brighten from off starts low
			change.On = api.Bool(true)
			light.State.On = true
			m.pending.Add(light.ID, "on", true)
		}
		change.Bri = api.Uint8(uint8(bri))
		light.State.Bri = uint8(bri)
		m.pending.Add(light.ID, "bri", uint8(bri))
		return m, m.setStateCmd(light.ID, change, fmt.Sprintf("brightness %d%%", light.BrightnessPct()))

	case "-", "_":
		light := m.SelectedLight()
		if light == nil || !light.State.On {
			return m, nil
		}
		bri := max(1, int(light.State.Bri)-brightnessStep)
		light.State.Bri = uint8(bri)
		m.pending.Add(light.ID, "bri", uint8(bri))
		return m, m.setStateCmd(light.ID, api.StateChange{Bri: api.Uint8(uint8(bri))}, fmt.Sprintf("brightness %d%%", light.BrightnessPct()))

	case "c":
		light := m.SelectedLight()
		if light == nil {
			return m, nil
		}
		if !light.IsColorLight() {
			m.status = ""
			m.err = fmt.Errorf("%s cannot show colors", light.Name)
			return m, nil
		}
		m.prompting = true
		m.err = nil
		m.prompt.SetValue("")
		return m, m.prompt.Focus()
	}

	return m, nil
}

func (m Model) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.cancel()
		return m, tea.Quit

	case "esc":
		m.prompting = false
		m.err = nil
		m.prompt.Blur()
		return m, nil

	case "enter":
		hex := strings.TrimSpace(m.prompt.Value())
		if _, _, _, err := colorspace.ParseHex(hex); err != nil {
			m.err = fmt.Errorf("%q: %w", hex, err)
			return m, nil
		}
		m.prompting = false
		m.err = nil
		m.prompt.Blur()

		light := m.SelectedLight()
		if light == nil {
			return m, nil
		}
		return m, m.setColorCmd(light.ID, !light.State.On, strings.TrimPrefix(hex, "#"))
	}

	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	return m, cmd
}

// SelectedLight returns the light under the cursor, nil when the list is empty
func (m Model) SelectedLight() *models.Light {
	if m.selected < 0 || m.selected >= len(m.lights) {
		return nil
	}
	return m.lights[m.selected]
}

// setLights replaces the list, keeping the cursor on the same light and
// pending optimistic values in place of stale ones.
func (m *Model) setLights(lights []*models.Light) {
	selectedID := -1
	if light := m.SelectedLight(); light != nil {
		selectedID = light.ID
	}

	m.pending.Cleanup()
	for _, l := range lights {
		if m.pending.ShouldIgnore(l.ID, "on", l.State.On) {
			target, _ := m.pending.Pending(l.ID, "on")
			l.State.On = target.(bool)
		}
		if m.pending.ShouldIgnore(l.ID, "bri", l.State.Bri) {
			target, _ := m.pending.Pending(l.ID, "bri")
			l.State.Bri = target.(uint8)
		}
	}

	m.lights = lights
	m.selected = 0
	for i, l := range lights {
		if l.ID == selectedID {
			m.selected = i
			break
		}
	}
}

func (m Model) lightName(id int) string {
	for _, l := range m.lights {
		if l.ID == id {
			return l.Name
		}
	}
	return fmt.Sprintf("Light %d", id)
}

// View renders the light list
func (m Model) View() string {
	var b strings.Builder

	status := ""
	if m.loading {
		status = "⟳ Loading..."
	} else if m.lights != nil {
		status = "● " + m.bridge.Host()
	}
	b.WriteString(components.RenderHeader(m.width, status))
	b.WriteString("\n\n")

	switch {
	case len(m.lights) == 0 && m.loading:
		b.WriteString(fmt.Sprintf("  %s Loading lights...\n", m.spinner.View()))
	case len(m.lights) == 0:
		b.WriteString(styles.StyleTextMuted.Render("  No lights found"))
		b.WriteString("\n")
	default:
		start, end := m.visibleRange()
		for i := start; i < end; i++ {
			b.WriteString(components.RenderLightRow(m.lights[i], i == m.selected, m.width))
			b.WriteString("\n")
		}
	}

	if m.prompting {
		label := "Color"
		if light := m.SelectedLight(); light != nil {
			label = "Color for " + light.Name
		}
		b.WriteString(styles.StylePrompt.Render(label + ": " + m.prompt.View()))
		b.WriteString("\n")
	}

	b.WriteString(m.renderStatusLine())
	b.WriteString("\n")
	b.WriteString(m.renderHelp())

	return b.String()
}

// visibleRange returns the slice of rows that fits the window around the cursor
func (m Model) visibleRange() (int, int) {
	rows := m.height - chromeLines
	if m.prompting {
		rows -= 3
	}
	if m.height == 0 || rows >= len(m.lights) {
		return 0, len(m.lights)
	}
	if rows < 1 {
		rows = 1
	}

	start := 0
	if m.selected >= rows {
		start = m.selected - rows + 1
	}
	return start, start + rows
}

func (m Model) renderStatusLine() string {
	if m.err != nil {
		return styles.StyleError.Render("Error: " + m.err.Error())
	}
	if m.status != "" {
		return styles.StyleSuccess.Render(m.status)
	}

	on := 0
	for _, l := range m.lights {
		if l.State.On {
			on++
		}
	}
	return styles.StyleTextMuted.Render(fmt.Sprintf("%d/%d lights on", on, len(m.lights)))
}

func (m Model) renderHelp() string {
	keys := []string{
		styles.StyleHelpKey.Render("↑↓") + " nav",
		styles.StyleHelpKey.Render("space") + " toggle",
		styles.StyleHelpKey.Render("+/-") + " dim",
	}
	if light := m.SelectedLight(); light != nil && light.IsColorLight() {
		keys = append(keys, styles.StyleHelpKey.Render("c")+" color")
	}
	keys = append(keys,
		styles.StyleHelpKey.Render("r")+" refresh",
		styles.StyleHelpKey.Render("q")+" quit",
	)
	if m.prompting {
		keys = []string{
			styles.StyleHelpKey.Render("enter") + " apply",
			styles.StyleHelpKey.Render("esc") + " cancel",
		}
	}
	return styles.StyleHelp.Render(strings.Join(keys, "  "))
}

// Commands

// fetchLightsCmd creates a command to list all lights from the bridge
func (m Model) fetchLightsCmd() tea.Cmd {
	bridge, parent := m.bridge, m.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, commandTimeout)
		defer cancel()

		lights, err := bridge.GetLights(ctx)
		if err != nil {
			return messages.ErrorMsg{Err: err}
		}
		return messages.LightsFetchedMsg{Lights: lights}
	}
}

func (m Model) setStateCmd(lightID int, change api.StateChange, action string) tea.Cmd {
	bridge, parent := m.bridge, m.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, commandTimeout)
		defer cancel()

		err := bridge.SetState(ctx, lightID, change)
		if err != nil {
			log.Debug().Err(err).Int("light", lightID).Msg("State change failed")
		}
		return messages.StateAppliedMsg{LightID: lightID, Action: action, Err: err}
	}
}

// setColorCmd sets a light to a hex color, switching it on first when needed
// since the bridge refuses color changes on lights that are off.
func (m Model) setColorCmd(lightID int, turnOn bool, hex string) tea.Cmd {
	bridge, parent := m.bridge, m.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, commandTimeout)
		defer cancel()

		action := "set to #" + strings.ToLower(hex)
		if turnOn {
			if err := bridge.SetState(ctx, lightID, api.StateChange{On: api.Bool(true)}); err != nil {
				return messages.StateAppliedMsg{LightID: lightID, Action: action, Err: err}
			}
		}
		err := bridge.SetColor(ctx, strconv.Itoa(lightID), hex, nil)
		return messages.StateAppliedMsg{LightID: lightID, Action: action, Err: err}
	}
}
