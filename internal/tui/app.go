// Package tui provides the interactive Bubble Tea chat screen.
package tui

import (
	"context"
	"fmt"
	"strings"

	"lochat/internal/chat"
	"lochat/internal/cli"
	"lochat/internal/config"
	"lochat/internal/model"
	"lochat/internal/store"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// replyMsg is sent when a chat turn finishes.
type replyMsg struct {
	err error
}

// newSessionMsg is sent when a fresh session has been created.
type newSessionMsg struct {
	id  int64
	err error
}

// App is the root Bubble Tea model for the chat screen.
type App struct {
	store     *store.Store
	chat      *chat.Service
	sessionID int64
	title     string

	msgs    []model.Message
	vp      viewport.Model
	input   textinput.Model
	spin    spinner.Model
	waiting bool
	lastErr error

	width  int
	height int
	ready  bool

	// First-run setup (huh form)
	setupForm *huh.Form
	setupVals setupValues
	needSetup bool
}

type setupValues struct {
	url   string
	model string
}

// New builds the chat screen for a session. When no config file exists
// yet, a first-run form asks for the Ollama endpoint and model before
// the chat starts.
func New(st *store.Store, chatSvc *chat.Service, sessionID int64, title string) App {
	ti := textinput.New()
	ti.Placeholder = "Type a message and press Enter"
	ti.CharLimit = 0
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = accentStyle

	a := App{
		store:     st,
		chat:      chatSvc,
		sessionID: sessionID,
		title:     title,
		input:     ti,
		spin:      sp,
	}

	if !config.Exists() {
		a.needSetup = true
		a.setupVals = setupValues{
			url:   "http://localhost:11434",
			model: "llama3:8b",
		}
		a.setupForm = newSetupForm(&a.setupVals)
	}

	a.reloadMessages()
	return a
}

func newSetupForm(vals *setupValues) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Ollama endpoint").
				Value(&vals.url),
			huh.NewInput().
				Title("Model").
				Description("Must already be pulled, e.g. `ollama pull llama3:8b`").
				Value(&vals.model),
		),
	)
}

func (a *App) reloadMessages() {
	msgs, err := a.store.ReadOrdered(a.sessionID, 500)
	if err != nil {
		a.lastErr = err
		return
	}
	a.msgs = msgs
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	if a.needSetup && a.setupForm != nil {
		cmds = append(cmds, a.setupForm.Init())
	}
	return tea.Batch(cmds...)
}

// sendTurn runs one chat turn off the UI goroutine.
func (a App) sendTurn(text string) tea.Cmd {
	sessionID := a.sessionID
	svc := a.chat
	return func() tea.Msg {
		_, err := svc.Ask(context.Background(), sessionID, text, "", "tui")
		return replyMsg{err: err}
	}
}

func (a App) createSession() tea.Cmd {
	st := a.store
	return func() tea.Msg {
		id, err := st.CreateSession("")
		return newSessionMsg{id: id, err: err}
	}
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.layout()
		return a, nil

	case tea.KeyMsg:
		if a.needSetup {
			return a.updateSetupForm(msg)
		}

		switch msg.String() {
		case "ctrl+c", "esc":
			return a, tea.Quit

		case "ctrl+n":
			return a, a.createSession()

		case "enter":
			text := strings.TrimSpace(a.input.Value())
			if text == "" || a.waiting {
				return a, nil
			}
			a.input.Reset()
			a.waiting = true
			a.lastErr = nil
			return a, tea.Batch(a.sendTurn(text), a.spin.Tick)
		}

	case replyMsg:
		a.waiting = false
		a.lastErr = msg.err
		a.reloadMessages()
		a.refreshViewport()
		a.vp.GotoBottom()
		return a, nil

	case newSessionMsg:
		if msg.err != nil {
			a.lastErr = msg.err
			return a, nil
		}
		a.sessionID = msg.id
		a.title = store.DefaultSessionTitle
		a.lastErr = nil
		a.reloadMessages()
		a.refreshViewport()
		return a, nil

	case spinner.TickMsg:
		if !a.waiting {
			return a, nil
		}
		var cmd tea.Cmd
		a.spin, cmd = a.spin.Update(msg)
		return a, cmd
	}

	if a.needSetup && a.setupForm != nil {
		return a.updateSetupForm(msg)
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	cmds = append(cmds, cmd)
	a.vp, cmd = a.vp.Update(msg)
	cmds = append(cmds, cmd)
	return a, tea.Batch(cmds...)
}

func (a *App) updateSetupForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.setupForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.setupForm = f
	}

	if a.setupForm.State == huh.StateCompleted {
		cfg, _ := config.Load()
		cfg.Ollama.URL = strings.TrimSpace(a.setupVals.url)
		cfg.Ollama.Model = strings.TrimSpace(a.setupVals.model)
		_ = config.Save(cfg)
		a.needSetup = false
		a.setupForm = nil
		return *a, nil
	}

	if a.setupForm.State == huh.StateAborted {
		a.needSetup = false
		a.setupForm = nil
		return *a, nil
	}

	return *a, cmd
}

func (a *App) layout() {
	headerHeight := 2
	footerHeight := 3

	vpHeight := a.height - headerHeight - footerHeight
	if vpHeight < 3 {
		vpHeight = 3
	}

	if !a.ready {
		a.vp = viewport.New(a.width, vpHeight)
		a.ready = true
	} else {
		a.vp.Width = a.width
		a.vp.Height = vpHeight
	}
	a.input.Width = a.width - 4

	a.refreshViewport()
	a.vp.GotoBottom()
}

func (a *App) refreshViewport() {
	if !a.ready {
		return
	}
	a.vp.SetContent(a.renderTranscript())
}

func (a App) renderTranscript() string {
	if len(a.msgs) == 0 {
		return helpStyle.Render("\n  No messages yet. Say something.")
	}

	wrap := lipgloss.NewStyle().Width(a.vp.Width - 4)

	var b strings.Builder
	for _, m := range a.msgs {
		var label string
		switch m.Role {
		case model.RoleUser:
			label = userStyle.Render(cli.RoleLabel(m.Role))
		case model.RoleAssistant:
			label = assistantStyle.Render(cli.RoleLabel(m.Role))
		default:
			label = systemStyle.Render(cli.RoleLabel(m.Role))
		}
		b.WriteString("  " + label + "\n")
		b.WriteString("  " + wrap.Render(m.Content) + "\n\n")
	}
	return b.String()
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}

	if a.needSetup && a.setupForm != nil {
		return a.setupForm.View()
	}

	header := headerStyle.Width(a.width).Render(
		fmt.Sprintf("  %s %s", a.title, helpStyle.Render(fmt.Sprintf("(session %d)", a.sessionID))))

	var status string
	switch {
	case a.lastErr != nil:
		status = errorStyle.Render("  " + a.lastErr.Error())
	case a.waiting:
		status = "  " + a.spin.View() + helpStyle.Render(" thinking…")
	default:
		status = helpStyle.Render("  enter send · ctrl+n new session · esc quit")
	}

	return fmt.Sprintf("%s\n%s\n  %s\n%s", header, a.vp.View(), a.input.View(), status)
}
