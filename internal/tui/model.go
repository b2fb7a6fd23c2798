// Package tui is the terminal front end. The video renders in the player's
// own window; the terminal shows the file, playhead, rate and status and
// takes the same single-key shortcuts as the GUI.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/keagan/framefinder/internal/controller"
	"github.com/keagan/framefinder/internal/keymap"
	"github.com/keagan/framefinder/internal/player"
)

const (
	defaultBarWidth = 60
	barPadding      = 16 // room for the clock next to the bar
)

// Poster queues functions for the update loop. Pass Post to
// controller.Options so snapshot results reach the controller's owner.
type Poster chan func()

// NewPoster creates a Poster.
func NewPoster() Poster {
	return make(Poster, 16)
}

// Post queues f.
func (p Poster) Post(f func()) {
	p <- f
}

// Messages
type (
	eventMsg      player.Event
	postMsg       func()
	eventsDoneMsg struct{}
)

// viewBox receives renders from the controller. It is shared by all copies
// of the model.
type viewBox struct {
	v controller.ViewState
}

func (b *viewBox) Render(v controller.ViewState) {
	b.v = v
}

var forceQuit = key.NewBinding(
	key.WithKeys("ctrl+c"),
	key.WithHelp("ctrl+c", "quit"),
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12"))

	fileStyle = lipgloss.NewStyle().
			Bold(true)

	playingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	pausedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11"))

	statusStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("15")).
			Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

type model struct {
	ctrl   *controller.Controller
	keys   *keymap.Resolver
	help   []shortcut
	events <-chan player.Event
	posts  Poster
	box    *viewBox
	bar    progress.Model

	width    int
	quitting bool
}

func newModel(ctrl *controller.Controller, keys *keymap.Resolver, events <-chan player.Event, posts Poster) model {
	box := &viewBox{}
	ctrl.SetPresenter(box)

	return model{
		ctrl:   ctrl,
		keys:   keys,
		help:   helpBindings(keys),
		events: events,
		posts:  posts,
		box:    box,
		bar:    progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage(), progress.WithWidth(defaultBarWidth)),
	}
}

type shortcut struct {
	action  keymap.Action
	binding key.Binding
}

// helpBindings turns the resolved shortcuts into bubbles key bindings for
// the help line.
func helpBindings(keys *keymap.Resolver) []shortcut {
	var out []shortcut
	for _, b := range keymap.Defaults {
		bound := keys.KeysFor(b.Action)
		if len(bound) == 0 {
			continue
		}
		out = append(out, shortcut{
			action: b.Action,
			binding: key.NewBinding(
				key.WithKeys(bound...),
				key.WithHelp(bound[0], strings.ToLower(b.Description)),
			),
		})
	}
	return out
}

// waitForEvent waits for the next player event
func waitForEvent(events <-chan player.Event) tea.Cmd {
	return func() tea.Msg {
		e, ok := <-events
		if !ok {
			return eventsDoneMsg{}
		}
		return eventMsg(e)
	}
}

// waitForPost waits for work queued by background tasks
func waitForPost(posts Poster) tea.Cmd {
	return func() tea.Msg {
		return postMsg(<-posts)
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		waitForEvent(m.events),
		waitForPost(m.posts),
	)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		if w := msg.Width - barPadding; w > 10 {
			m.bar.Width = w
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case eventMsg:
		m.ctrl.HandleEvent(player.Event(msg))
		return m, waitForEvent(m.events)

	case postMsg:
		if msg != nil {
			msg()
		}
		return m, waitForPost(m.posts)

	case eventsDoneMsg:
		// player exited
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, forceQuit) {
		m.quitting = true
		return m, tea.Quit
	}

	action := m.keys.Resolve(msg.String())
	switch action {
	case "":
		return m, nil
	case keymap.ActionQuit:
		m.quitting = true
		return m, tea.Quit
	}
	m.ctrl.Dispatch(action)
	return m, nil
}

func (m model) View() string {
	if m.quitting {
		return ""
	}
	v := m.box.v

	var b strings.Builder

	header := titleStyle.Render("FrameFinder") + "  " + fileStyle.Render(v.FileLabel())
	if v.Count > 0 && v.Index >= 0 {
		header += fmt.Sprintf(" [%d/%d]", v.Index+1, v.Count)
	}
	b.WriteString(header + "\n\n")

	b.WriteString(stateLabel(v.State) + "  " + v.RateLabel() + "\n")
	b.WriteString(m.bar.ViewAs(v.Progress()) + "  " + v.PositionLabel() + "\n\n")

	status := v.Status
	switch {
	case strings.HasPrefix(status, "Error"):
		b.WriteString(errorStyle.Render(status))
	case status != "":
		b.WriteString(statusStyle.Render(status))
	}
	b.WriteString("\n\n")

	b.WriteString(m.helpView(v.TwoWay))
	return b.String()
}

func (m model) helpView(twoWay bool) string {
	parts := make([]string, 0, len(m.help)+1)
	for _, s := range m.help {
		if !twoWay && s.action == keymap.ActionSnapshotNegative {
			continue
		}
		h := s.binding.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	parts = append(parts, forceQuit.Help().Key+" "+forceQuit.Help().Desc)
	return helpStyle.Render(strings.Join(parts, " • "))
}

func stateLabel(s player.State) string {
	switch s {
	case player.Playing:
		return playingStyle.Render("▶ Playing")
	case player.Paused:
		return pausedStyle.Render("⏸ Paused")
	default:
		return pausedStyle.Render("■ Stopped")
	}
}
