// Package keymap defines the single-key shortcuts that mirror each control.
package keymap

import (
	"fmt"
	"sort"
)

// Action represents a user-triggerable action.
type Action string

const (
	ActionRewind           Action = "rewind"
	ActionSlowRewind       Action = "slow_rewind"
	ActionPlayPause        Action = "play_pause"
	ActionSlowForward      Action = "slow_forward"
	ActionForward          Action = "forward"
	ActionFastForward      Action = "fast_forward"
	ActionSnapshotPositive Action = "snapshot_positive"
	ActionSnapshotNegative Action = "snapshot_negative"
	ActionMark             Action = "mark"
	ActionNext             Action = "next"
	ActionQuit             Action = "quit"
)

// Binding maps one action to its keys.
type Binding struct {
	Action      Action
	Keys        []string
	Description string
}

// Defaults are the bindings shown on the buttons, in button order.
var Defaults = []Binding{
	{ActionRewind, []string{"a"}, "Rewind"},
	{ActionSlowRewind, []string{"s"}, "Slow rewind"},
	{ActionPlayPause, []string{"d"}, "Play/pause"},
	{ActionSlowForward, []string{"f"}, "Slow forward"},
	{ActionForward, []string{"g"}, "Play forward"},
	{ActionFastForward, []string{"h"}, "Fast forward"},
	{ActionSnapshotPositive, []string{"p"}, "Positive snapshot"},
	{ActionSnapshotNegative, []string{"o"}, "Negative snapshot"},
	{ActionMark, []string{"m"}, "Mark position"},
	{ActionNext, []string{"n"}, "Next video"},
	{ActionQuit, []string{"q"}, "Quit"},
}

// Apply returns a copy of bindings with the keys of each overridden action
// replaced. Overrides map action names to a single key.
func Apply(bindings []Binding, overrides map[string]string) ([]Binding, error) {
	out := make([]Binding, len(bindings))
	index := make(map[Action]int, len(bindings))
	for i, b := range bindings {
		out[i] = Binding{Action: b.Action, Keys: append([]string(nil), b.Keys...), Description: b.Description}
		index[b.Action] = i
	}

	// sorted for deterministic error reporting
	names := make([]string, 0, len(overrides))
	for name := range overrides {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		key := overrides[name]
		i, ok := index[Action(name)]
		if !ok {
			return nil, fmt.Errorf("unknown action %q in key overrides", name)
		}
		if key == "" {
			return nil, fmt.Errorf("empty key for action %q", name)
		}
		out[i].Keys = []string{key}
	}

	seen := make(map[string]Action)
	for _, b := range out {
		for _, k := range b.Keys {
			if prev, dup := seen[k]; dup {
				return nil, fmt.Errorf("key %q bound to both %s and %s", k, prev, b.Action)
			}
			seen[k] = b.Action
		}
	}
	return out, nil
}
