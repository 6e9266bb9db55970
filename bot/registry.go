package bot

import (
	"fmt"
	"sort"
	"strings"
)

// Registry holds the command definitions. It is populated once at startup
// and read-only afterwards.
type Registry struct {
	commands map[string]*Definition
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]*Definition)}
}

// Register adds a command definition. Registration happens at startup, so
// a malformed definition is a programming error and fails loudly.
func (r *Registry) Register(def *Definition) error {
	if def == nil || def.Name == "" || len(def.Steps) == 0 {
		return fmt.Errorf("register command: incomplete definition %+v", def)
	}
	if !strings.HasPrefix(def.Name, "/") {
		return fmt.Errorf("register command %q: missing slash prefix", def.Name)
	}
	if _, exists := r.commands[def.Name]; exists {
		return fmt.Errorf("register command %q: duplicate", def.Name)
	}
	seen := make(map[string]bool, len(def.Steps))
	for _, s := range def.Steps {
		if s.Name() == "" {
			return fmt.Errorf("register command %q: step with empty name", def.Name)
		}
		if seen[s.Name()] {
			return fmt.Errorf("register command %q: duplicate step %q", def.Name, s.Name())
		}
		seen[s.Name()] = true
	}
	if def.Title == "" {
		def.Title = commandTitle(def.Name)
	}
	r.commands[def.Name] = def
	return nil
}

// MustRegister is Register for static startup wiring.
func (r *Registry) MustRegister(def *Definition) {
	if err := r.Register(def); err != nil {
		panic(err)
	}
}

// Lookup returns the definition for a slash keyword.
func (r *Registry) Lookup(name string) (*Definition, bool) {
	def, ok := r.commands[name]
	return def, ok
}

// List returns all definitions sorted by name.
func (r *Registry) List() []*Definition {
	out := make([]*Definition, 0, len(r.commands))
	for _, def := range r.commands {
		out = append(out, def)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// HelpText renders the help message listing every registered command.
func (r *Registry) HelpText() string {
	var sb strings.Builder
	sb.WriteString("I am IDA, I can help you register hours and manage timesheeting/invoicing.\n")
	sb.WriteString("\nCurrently available commands:\n")
	for _, def := range r.List() {
		fmt.Fprintf(&sb, "%s - %s\n", def.Name, def.Description)
	}
	return sb.String()
}
