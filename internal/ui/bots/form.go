package bots

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fragmede/hams/internal/api"
	"github.com/fragmede/hams/internal/config"
	"github.com/fragmede/hams/internal/ui/messages"
	"github.com/fragmede/hams/internal/ui/theme"
)

const (
	inputName = iota
	inputPersona
	inputTopic
	inputAPIKey
	inputModel
	inputCount
)

// The provider selector sits between topic and api key in tab order.
const focusProvider = inputCount

var focusOrder = []int{inputName, inputPersona, inputTopic, focusProvider, inputAPIKey, inputModel}

// Form creates a bot. The model field suggests the models the provider
// reports for the entered API key.
type Form struct {
	inputs      []textinput.Model
	providerIdx int
	focus       int
	models      []string
	modelsFor   api.Provider
	fetching    bool
	submitting  bool
	err         string
	client      *api.Client
	cfg         config.Config
	width       int
	height      int
}

// NewForm creates an empty bot form.
func NewForm(client *api.Client, cfg config.Config) Form {
	placeholders := [inputCount]string{
		inputName:    "Bot name",
		inputPersona: "Persona, e.g. a dry economist who loves charts",
		inputTopic:   "Topic, e.g. interest rates",
		inputAPIKey:  "Provider API key",
		inputModel:   "Model (ctrl+l to look up)",
	}
	inputs := make([]textinput.Model, inputCount)
	for i := range inputs {
		ti := textinput.New()
		ti.Placeholder = placeholders[i]
		ti.Width = 50
		inputs[i] = ti
	}
	inputs[inputAPIKey].EchoMode = textinput.EchoPassword
	inputs[inputModel].ShowSuggestions = true
	inputs[inputModel].KeyMap.AcceptSuggestion = key.NewBinding(key.WithKeys("ctrl+y"))

	f := Form{inputs: inputs, client: client, cfg: cfg}
	f.setFocus(0)
	return f
}

// SetSize sets the viewport dimensions.
func (f *Form) SetSize(w, h int) {
	f.width = w
	f.height = h
	for i := range f.inputs {
		f.inputs[i].Width = min(max(w-20, 20), 60)
	}
}

func (f *Form) setFocus(pos int) {
	f.focus = pos
	for i := range f.inputs {
		f.inputs[i].Blur()
	}
	if field := focusOrder[pos]; field != focusProvider {
		f.inputs[field].Focus()
	}
}

// Provider returns the selected AI provider.
func (f Form) Provider() api.Provider {
	return api.Providers[f.providerIdx]
}

// Request builds the create request from the form.
func (f Form) Request() api.BotCreateRequest {
	return api.BotCreateRequest{
		Name:       strings.TrimSpace(f.inputs[inputName].Value()),
		Persona:    strings.TrimSpace(f.inputs[inputPersona].Value()),
		Topic:      strings.TrimSpace(f.inputs[inputTopic].Value()),
		AIProvider: f.Provider(),
		APIKey:     strings.TrimSpace(f.inputs[inputAPIKey].Value()),
		AIModel:    strings.TrimSpace(f.inputs[inputModel].Value()),
	}
}

// Update handles messages.
func (f Form) Update(msg tea.Msg) (Form, tea.Cmd) {
	switch msg := msg.(type) {
	case messages.ModelsLoadedMsg:
		f.fetching = false
		if msg.Provider != f.Provider() {
			return f, nil
		}
		if msg.Err != nil {
			f.err = msg.Err.Error()
			return f, nil
		}
		f.err = ""
		f.models = msg.Models
		f.modelsFor = msg.Provider
		f.inputs[inputModel].SetSuggestions(msg.Models)
		if f.inputs[inputModel].Value() == "" && len(msg.Models) > 0 {
			f.inputs[inputModel].SetValue(msg.Models[0])
		}
		return f, nil

	case messages.BotSavedMsg:
		f.submitting = false
		if msg.Err != nil {
			f.err = msg.Err.Error()
		}
		return f, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "tab", "down":
			f.setFocus((f.focus + 1) % len(focusOrder))
			return f, nil
		case "shift+tab", "up":
			f.setFocus((f.focus + len(focusOrder) - 1) % len(focusOrder))
			return f, nil
		case "ctrl+l":
			return f.lookupModels()
		case "ctrl+n", "ctrl+p":
			f.cycleModel(msg.String() == "ctrl+n")
			return f, nil
		case "ctrl+s":
			return f.submit()
		}
		if focusOrder[f.focus] == focusProvider {
			switch msg.String() {
			case "left", "h":
				f.providerIdx = (f.providerIdx + len(api.Providers) - 1) % len(api.Providers)
			case "right", "l", " ":
				f.providerIdx = (f.providerIdx + 1) % len(api.Providers)
			}
			return f, nil
		}
	}

	field := focusOrder[f.focus]
	if field == focusProvider {
		return f, nil
	}
	var cmd tea.Cmd
	f.inputs[field], cmd = f.inputs[field].Update(msg)
	return f, cmd
}

func (f *Form) cycleModel(forward bool) {
	if len(f.models) == 0 {
		return
	}
	idx := slices.Index(f.models, f.inputs[inputModel].Value())
	switch {
	case idx < 0:
		idx = 0
	case forward:
		idx = (idx + 1) % len(f.models)
	default:
		idx = (idx + len(f.models) - 1) % len(f.models)
	}
	f.inputs[inputModel].SetValue(f.models[idx])
}

func (f Form) lookupModels() (Form, tea.Cmd) {
	key := strings.TrimSpace(f.inputs[inputAPIKey].Value())
	if key == "" {
		f.err = "Enter an API key to look up models"
		return f, nil
	}
	f.fetching = true
	f.err = ""
	client, provider, timeout := f.client, f.Provider(), f.cfg.RequestTimeout
	return f, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		models, err := client.ListAIModels(ctx, provider, key)
		return messages.ModelsLoadedMsg{Provider: provider, Models: models, Err: err}
	}
}

func (f Form) submit() (Form, tea.Cmd) {
	if f.submitting {
		return f, nil
	}
	req := f.Request()
	for _, v := range []string{req.Name, req.Persona, req.Topic, req.APIKey, req.AIModel} {
		if v == "" {
			f.err = "All fields are required"
			return f, nil
		}
	}
	f.submitting = true
	f.err = ""
	client := f.client
	return f, func() tea.Msg {
		bot, err := client.CreateBot(context.Background(), req)
		return messages.BotSavedMsg{Bot: bot, Err: err}
	}
}

// View renders the form.
func (f Form) View() string {
	st := theme.Current()
	label := func(pos int, s string) string {
		l := lipgloss.NewStyle().Width(10).Inherit(st.Label).Render(s)
		if f.focus == pos {
			return st.Focused.Render("▸ ") + l
		}
		return "  " + l
	}

	var providers []string
	for i, p := range api.Providers {
		if i == f.providerIdx {
			providers = append(providers, st.BarActive.Render(string(p)))
		} else {
			providers = append(providers, st.Meta.Padding(0, 1).Render(string(p)))
		}
	}

	var sb strings.Builder
	sb.WriteString(st.Title.Render("New Bot"))
	sb.WriteString("\n")
	sb.WriteString(label(0, "Name") + f.inputs[inputName].View() + "\n")
	sb.WriteString(label(1, "Persona") + f.inputs[inputPersona].View() + "\n")
	sb.WriteString(label(2, "Topic") + f.inputs[inputTopic].View() + "\n")
	sb.WriteString(label(3, "Provider") + strings.Join(providers, " ") + "\n")
	sb.WriteString(label(4, "API key") + f.inputs[inputAPIKey].View() + "\n")
	sb.WriteString(label(5, "Model") + f.inputs[inputModel].View() + "\n")

	switch {
	case f.fetching:
		sb.WriteString(st.Dim.Render("  looking up models...") + "\n")
	case len(f.models) > 0 && f.modelsFor == f.Provider():
		sb.WriteString(st.Meta.Render(fmt.Sprintf("  %d models: %s", len(f.models), strings.Join(f.models, ", "))) + "\n")
	}
	sb.WriteString("\n")

	if f.err != "" {
		sb.WriteString(st.Error.Render(f.err) + "\n")
	}
	if f.submitting {
		sb.WriteString("Creating...")
	} else {
		sb.WriteString(st.Hint.Render("Tab: next | ←/→: provider | Ctrl+L: look up models | Ctrl+N/P: pick model | Ctrl+S: create | Esc: cancel"))
	}
	return lipgloss.Place(f.width, f.height, lipgloss.Center, lipgloss.Center, sb.String())
}
