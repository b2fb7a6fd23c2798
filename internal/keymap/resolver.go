package keymap

// Resolver maps key strings to actions.
type Resolver struct {
	bindings map[string]Action   // key -> action
	byAction map[Action][]string // action -> keys (for button labels)
}

// NewResolver creates a resolver from bindings.
func NewResolver(bindings []Binding) *Resolver {
	r := &Resolver{
		bindings: make(map[string]Action),
		byAction: make(map[Action][]string),
	}
	for _, b := range bindings {
		for _, key := range b.Keys {
			r.bindings[key] = b.Action
		}
		r.byAction[b.Action] = append(r.byAction[b.Action], b.Keys...)
	}
	return r
}

// Load builds a resolver from the defaults with config overrides applied.
func Load(overrides map[string]string) (*Resolver, error) {
	bindings, err := Apply(Defaults, overrides)
	if err != nil {
		return nil, err
	}
	return NewResolver(bindings), nil
}

// Resolve returns the action for a key, or empty string if not bound.
func (r *Resolver) Resolve(key string) Action {
	return r.bindings[key]
}

// KeysFor returns the keys bound to an action.
func (r *Resolver) KeysFor(action Action) []string {
	return r.byAction[action]
}

// Label returns a button caption with the first bound key appended,
// e.g. "Rewind (a)".
func (r *Resolver) Label(text string, action Action) string {
	keys := r.byAction[action]
	if len(keys) == 0 {
		return text
	}
	return text + " (" + keys[0] + ")"
}
