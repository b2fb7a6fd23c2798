package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/keagan/framefinder/internal/controller"
	"github.com/keagan/framefinder/internal/keymap"
	"github.com/keagan/framefinder/internal/player"
)

// Run starts the terminal UI and blocks until the user quits. ctrl must have
// been created with posts.Post as its Post option.
func Run(ctrl *controller.Controller, keys *keymap.Resolver, events <-chan player.Event, posts Poster) error {
	m := newModel(ctrl, keys, events, posts)
	ctrl.Start()

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
