package steps

import (
	"context"
	"fmt"

	"idabot/bot"
)

// WaitForTime prompts for a clock time and arms the waiting-for marker so
// the next free-text reply lands in the bag under Key. DateKey names the
// already-picked date shown in the prompt.
type WaitForTime struct {
	Base
	Key     string
	DateKey string
}

// Name implements bot.Step.
func (s WaitForTime) Name() string { return s.name("WaitForTime") }

// Handle implements bot.Step.
func (s WaitForTime) Handle(ctx context.Context, r *bot.Runtime) error {
	data := r.Bag()
	if err := r.ArmWaiting(ctx, s.Key, data); err != nil {
		return err
	}
	prompt := fmt.Sprintf("Enter the %s time (HH:MM) for %s:", s.Key, data.String(s.DateKey))
	return r.Reply(ctx, prompt, nil)
}

// WaitForDescription prompts for a free-text description with a button to
// skip it.
type WaitForDescription struct {
	Base
}

// Name implements bot.Step.
func (s WaitForDescription) Name() string { return s.name("WaitForDescription") }

// Handle implements bot.Step.
func (s WaitForDescription) Handle(ctx context.Context, r *bot.Runtime) error {
	data := r.Bag()
	if err := r.ArmWaiting(ctx, "description", data); err != nil {
		return err
	}
	skip, err := r.NextButton(ctx, "No description.", data.With("description", ""))
	if err != nil {
		return err
	}
	keyboard := bot.Keyboard{}.Row(skip)
	return r.Reply(ctx, "Send the description (or select 'No description'):", keyboard)
}
