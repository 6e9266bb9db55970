package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"log/slog"

	"idabot/core/logger"
	"idabot/store"
	"idabot/timesheet"
)

// Transition actions stored on callback records. The button, not the
// engine, decides which transition pressing it triggers.
const (
	ActionNextStep     = "next_step"
	ActionPreviousStep = "previous_step"
	ActionCurrentStep  = "current_step"
	ActionFinish       = "finish"
	ActionCancel       = "cancel"
)

// Step is one stage of a command conversation. Handle renders the step's
// prompt (or performs its action) against the runtime's current data bag.
type Step interface {
	Name() string
	Handle(ctx context.Context, r *Runtime) error
}

// BackSteps is implemented by steps that offer a "Previous step" button;
// the returned count is how many steps back the button jumps.
type BackSteps interface {
	BackSteps() int
}

// Definition is a registered command: a display title for prompts and the
// ordered steps the conversation walks through.
type Definition struct {
	Name        string // slash keyword, e.g. "/registerwork"
	Title       string // display name used in prompts, e.g. "RegisterWork"
	Description string
	Steps       []Step
}

func (d *Definition) stepIndex(name string) (int, bool) {
	for i, s := range d.Steps {
		if s.Name() == name {
			return i, true
		}
	}
	return 0, false
}

// Runtime is one command bound to one inbound update and its resolved
// data bag. Steps drive the conversation exclusively through it.
type Runtime struct {
	eng  *Engine
	def  *Definition
	step int
	upd  Update
	bag  Bag
}

// ChatID returns the chat the conversation runs in.
func (r *Runtime) ChatID() int64 { return r.upd.ChatID }

// UserID returns the acting user. Chats are private, so the chat id
// doubles as the user id.
func (r *Runtime) UserID() int64 { return r.upd.ChatID }

// Bag returns the current data bag.
func (r *Runtime) Bag() Bag { return r.bag }

// SetBag replaces the data bag before a transition, the in-process
// equivalent of a button press carrying updated data.
func (r *Runtime) SetBag(bag Bag) { r.bag = bag }

// Command returns the definition the runtime is bound to.
func (r *Runtime) Command() *Definition { return r.def }

// StepName returns the name of the current step.
func (r *Runtime) StepName() string { return r.def.Steps[r.step].Name() }

// Now returns the engine clock's current time.
func (r *Runtime) Now() time.Time { return r.eng.now() }

// Timesheets exposes the timesheet store to steps.
func (r *Runtime) Timesheets() store.TimesheetStore { return r.eng.Timesheets }

// InferenceRules loads the item-type inference rules.
func (r *Runtime) InferenceRules(ctx context.Context) (timesheet.Rules, error) {
	return r.eng.Rules.Rules(ctx)
}

// Reply renders a step message. When the triggering update is a button
// press the bot's existing message is edited in place, mirroring how the
// keyboard flows feel like one evolving message.
func (r *Runtime) Reply(ctx context.Context, text string, keyboard Keyboard) error {
	messageID := 0
	if r.upd.IsCallback() {
		messageID = r.upd.MessageID
	}
	return r.eng.Messenger.SendMessage(ctx, r.upd.ChatID, text, keyboard, messageID)
}

// Send always posts a new message.
func (r *Runtime) Send(ctx context.Context, text string) error {
	return r.eng.Messenger.SendMessage(ctx, r.upd.ChatID, text, nil, 0)
}

// Callback mints a token for a button on the current step.
func (r *Runtime) Callback(ctx context.Context, action string, bag Bag) (string, error) {
	rec := store.CallbackRecord{
		Token:   newToken(),
		Command: r.def.Name,
		Step:    r.StepName(),
		Action:  action,
		Data:    bag,
	}
	if err := r.eng.Callbacks.Create(ctx, rec); err != nil {
		return "", fmt.Errorf("create callback for %s/%s: %w", r.def.Name, r.StepName(), err)
	}
	return rec.Token, nil
}

// NextButton mints a button advancing to the next step with the given bag.
func (r *Runtime) NextButton(ctx context.Context, text string, bag Bag) (Button, error) {
	token, err := r.Callback(ctx, ActionNextStep, bag)
	if err != nil {
		return Button{}, err
	}
	return Button{Text: text, Token: token}, nil
}

// CurrentButton mints a button reloading the current step with the given
// bag, used for pagination and calendar month navigation.
func (r *Runtime) CurrentButton(ctx context.Context, text string, bag Bag) (Button, error) {
	token, err := r.Callback(ctx, ActionCurrentStep, bag)
	if err != nil {
		return Button{}, err
	}
	return Button{Text: text, Token: token}, nil
}

// CancelButton mints a button aborting the whole command.
func (r *Runtime) CancelButton(ctx context.Context, text string, bag Bag) (Button, error) {
	token, err := r.Callback(ctx, ActionCancel, bag)
	if err != nil {
		return Button{}, err
	}
	return Button{Text: text, Token: token}, nil
}

// MaybeAddPreviousButton appends the "Previous step" row when the current
// step declares a back jump.
func (r *Runtime) MaybeAddPreviousButton(ctx context.Context, keyboard Keyboard, bag Bag) (Keyboard, error) {
	back, ok := r.def.Steps[r.step].(BackSteps)
	if !ok || back.BackSteps() <= 0 {
		return keyboard, nil
	}
	token, err := r.Callback(ctx, ActionPreviousStep, bag.With(KeyStepsBack, back.BackSteps()))
	if err != nil {
		return nil, err
	}
	return keyboard.Row(Button{Text: "⬅️ Previous step", Token: token}), nil
}

// ArmWaiting marks the chat as expecting a free-text reply. The reply
// text lands in the bag under fieldKey and the conversation resumes at
// the next step.
func (r *Runtime) ArmWaiting(ctx context.Context, fieldKey string, bag Bag) error {
	token, err := r.Callback(ctx, ActionNextStep, bag)
	if err != nil {
		return err
	}
	if err := r.eng.Sessions.Arm(ctx, r.upd.ChatID, store.Waiting{Token: token, FieldKey: fieldKey}); err != nil {
		return fmt.Errorf("arm waiting for %s: %w", fieldKey, err)
	}
	return nil
}

// NextStep advances the conversation. Past the last step it finishes.
func (r *Runtime) NextStep(ctx context.Context) error {
	if r.step+1 >= len(r.def.Steps) {
		return r.Finish(ctx)
	}
	r.step++
	return r.handleCurrent(ctx)
}

// PreviousStep jumps back by the bag's recorded step count. A jump past
// the first step is a silent no-op.
func (r *Runtime) PreviousStep(ctx context.Context) error {
	back := r.bag.Int(KeyStepsBack)
	if back == 0 {
		back = 1
	}
	if r.step-back < 0 {
		return nil
	}
	r.step -= back
	return r.handleCurrent(ctx)
}

// CurrentStep re-renders the current step.
func (r *Runtime) CurrentStep(ctx context.Context) error {
	return r.handleCurrent(ctx)
}

// Finish ends the conversation: the waiting marker is cleared and every
// callback record of this run is deleted, so stale buttons expire.
func (r *Runtime) Finish(ctx context.Context) error {
	logger.Bot.Info("command finished",
		slog.String("event", "bot.command.finish"),
		slog.String("command", r.def.Name),
		slog.String("step", r.StepName()),
		slog.Int64("chat_id", r.upd.ChatID),
	)
	if err := r.eng.Sessions.Disarm(ctx, r.upd.ChatID); err != nil {
		return err
	}
	key := r.bag.Correlation()
	if key == "" {
		return nil
	}
	if _, err := r.eng.Callbacks.DeleteByCorrelation(ctx, key); err != nil {
		return err
	}
	return nil
}

// Cancel aborts the conversation with a notice to the user.
func (r *Runtime) Cancel(ctx context.Context) error {
	if err := r.Send(ctx, "Command canceled"); err != nil {
		return err
	}
	return r.Finish(ctx)
}

func (r *Runtime) handleCurrent(ctx context.Context) error {
	step := r.def.Steps[r.step]
	logger.Bot.Debug("handling step",
		slog.String("event", "bot.step.handle"),
		slog.String("command", r.def.Name),
		slog.String("step", step.Name()),
		slog.Int64("chat_id", r.upd.ChatID),
	)
	return step.Handle(ctx, r)
}

func commandTitle(name string) string {
	return strings.TrimPrefix(name, "/")
}
