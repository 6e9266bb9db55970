package bot

import (
	"context"
	"strings"
	"testing"
)

func noopStep(name string) Step {
	return funcStep{name: name, handle: func(context.Context, *Runtime) error { return nil }}
}

func TestRegisterRejectsMalformedDefinitions(t *testing.T) {
	cases := []struct {
		name string
		def  *Definition
	}{
		{"nil definition", nil},
		{"no steps", &Definition{Name: "/x"}},
		{"missing slash", &Definition{Name: "x", Steps: []Step{noopStep("A")}}},
		{"empty step name", &Definition{Name: "/x", Steps: []Step{noopStep("")}}},
		{"duplicate step names", &Definition{Name: "/x", Steps: []Step{noopStep("A"), noopStep("A")}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := NewRegistry().Register(tc.def); err == nil {
				t.Fatalf("Register(%+v) accepted a malformed definition", tc.def)
			}
		})
	}
}

func TestRegisterRejectsDuplicateCommand(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(&Definition{Name: "/x", Steps: []Step{noopStep("A")}})
	if err := r.Register(&Definition{Name: "/x", Steps: []Step{noopStep("B")}}); err == nil {
		t.Fatal("duplicate command name accepted")
	}
}

func TestRegisterDefaultsTitle(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(&Definition{Name: "/registerwork", Steps: []Step{noopStep("A")}})
	def, _ := r.Lookup("/registerwork")
	if def.Title != "registerwork" {
		t.Fatalf("title = %q, want name without slash", def.Title)
	}
}

func TestHelpTextListsCommandsSorted(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(&Definition{Name: "/zeta", Description: "Last.", Steps: []Step{noopStep("A")}})
	r.MustRegister(&Definition{Name: "/alpha", Description: "First.", Steps: []Step{noopStep("A")}})

	help := r.HelpText()
	if !strings.HasPrefix(help, "I am IDA, I can help you register hours and manage timesheeting/invoicing.\n") {
		t.Fatalf("help intro = %q", help)
	}
	alpha := strings.Index(help, "/alpha - First.")
	zeta := strings.Index(help, "/zeta - Last.")
	if alpha == -1 || zeta == -1 || alpha > zeta {
		t.Fatalf("help listing wrong or unsorted:\n%s", help)
	}
}
