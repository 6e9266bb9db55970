package steps

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"idabot/bot"
)

// Confirm shows the collected data and asks for the final go-ahead.
// Render can replace the default key=value dump with a domain-specific
// summary.
type Confirm struct {
	Base
	Render func(bot.Bag) string
}

// Name implements bot.Step.
func (s Confirm) Name() string { return s.name("Confirm") }

// Handle implements bot.Step.
func (s Confirm) Handle(ctx context.Context, r *bot.Runtime) error {
	data := r.Bag()

	ok, err := r.NextButton(ctx, "✅ Ok", data.With("confirmed", true))
	if err != nil {
		return err
	}
	cancel, err := r.CancelButton(ctx, "❌ Cancel", data.With("confirmed", false))
	if err != nil {
		return err
	}
	keyboard := bot.Keyboard{}.Row(ok).Row(cancel)
	keyboard, err = r.MaybeAddPreviousButton(ctx, keyboard, data)
	if err != nil {
		return err
	}

	render := s.Render
	if render == nil {
		render = prettyPrint
	}
	message := fmt.Sprintf("%s with the following data?\n%s", r.Command().Title, render(data))
	return r.Reply(ctx, message, keyboard)
}

func prettyPrint(data bot.Bag) string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var lines []string
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("%s=%v", k, data[k]))
	}
	return strings.Join(lines, "\n")
}
