package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"log/slog"

	"idabot/core/logger"
	"idabot/store"
)

// ExpiredMessage is shown when a pressed button's record was swept.
const ExpiredMessage = "This command has expired."

// Engine dispatches normalized updates to command conversations. All
// fields must be set before the first HandleUpdate call.
type Engine struct {
	Registry   *Registry
	Messenger  Messenger
	Callbacks  store.CallbackStore
	Sessions   store.SessionStore
	Timesheets store.TimesheetStore
	Rules      store.RuleStore

	// Clock overrides time.Now in tests.
	Clock func() time.Time
}

func (e *Engine) now() time.Time {
	if e.Clock != nil {
		return e.Clock()
	}
	return time.Now()
}

// HandleUpdate parses a raw webhook body and dispatches it.
func (e *Engine) HandleUpdate(ctx context.Context, raw []byte) error {
	upd, err := ParseUpdate(raw)
	if err != nil {
		return err
	}
	return e.Dispatch(ctx, upd)
}

// Dispatch routes one update. Handling is serialized per chat so two
// updates from the same user cannot interleave a transition.
func (e *Engine) Dispatch(ctx context.Context, upd Update) error {
	return e.Sessions.WithChatLock(ctx, upd.ChatID, func(ctx context.Context) error {
		return e.dispatch(ctx, upd)
	})
}

// dispatch implements the routing order: slash commands first, then
// button presses, then free-text replies a step is waiting for, and a
// help message for everything else.
func (e *Engine) dispatch(ctx context.Context, upd Update) error {
	switch {
	case upd.IsCommand():
		return e.startCommand(ctx, upd)
	case upd.IsCallback():
		return e.handleCallback(ctx, upd)
	default:
		return e.handleText(ctx, upd)
	}
}

func (e *Engine) startCommand(ctx context.Context, upd Update) error {
	def, ok := e.Registry.Lookup(upd.CommandName())
	if !ok {
		return e.sendHelp(ctx, upd.ChatID)
	}
	// Commands only run for registered chats. Registration happens out of
	// band via the registerchat CLI.
	if _, err := e.Sessions.Get(ctx, upd.ChatID); errors.Is(err, store.ErrUnknownChat) {
		logger.Bot.Warn("command from unregistered chat",
			slog.String("event", "bot.command.unknown_chat"),
			slog.String("command", def.Name),
			slog.Int64("chat_id", upd.ChatID),
		)
		return e.sendHelp(ctx, upd.ChatID)
	} else if err != nil {
		return err
	}
	logger.Bot.Info("starting command",
		slog.String("event", "bot.command.start"),
		slog.String("command", def.Name),
		slog.Int64("chat_id", upd.ChatID),
	)
	if err := e.Sessions.Touch(ctx, upd.ChatID); err != nil {
		return err
	}
	if err := e.Sessions.Disarm(ctx, upd.ChatID); err != nil {
		return err
	}
	r := &Runtime{eng: e, def: def, step: 0, upd: upd, bag: NewBag()}
	return r.CurrentStep(ctx)
}

func (e *Engine) handleCallback(ctx context.Context, upd Update) error {
	if upd.CallbackToken == DoNothing {
		return nil
	}
	rec, err := e.Callbacks.Resolve(ctx, upd.CallbackToken)
	if errors.Is(err, store.ErrCallbackExpired) {
		if sendErr := e.Messenger.SendMessage(ctx, upd.ChatID, ExpiredMessage, nil, upd.MessageID); sendErr != nil {
			return sendErr
		}
		return err
	}
	if err != nil {
		return err
	}
	return e.replay(ctx, rec, upd)
}

func (e *Engine) handleText(ctx context.Context, upd Update) error {
	sess, err := e.Sessions.Get(ctx, upd.ChatID)
	if errors.Is(err, store.ErrUnknownChat) {
		return e.sendHelp(ctx, upd.ChatID)
	}
	if err != nil {
		return err
	}
	if !sess.Waiting.Armed() {
		return e.sendHelp(ctx, upd.ChatID)
	}

	rec, err := e.Callbacks.Resolve(ctx, sess.Waiting.Token)
	if errors.Is(err, store.ErrCallbackExpired) {
		if disarmErr := e.Sessions.Disarm(ctx, upd.ChatID); disarmErr != nil {
			return disarmErr
		}
		if sendErr := e.Messenger.SendMessage(ctx, upd.ChatID, ExpiredMessage, nil, 0); sendErr != nil {
			return sendErr
		}
		return err
	}
	if err != nil {
		return err
	}

	if rec.Data == nil {
		rec.Data = map[string]any{}
	}
	rec.Data[sess.Waiting.FieldKey] = strings.TrimSpace(upd.Text)

	if err := e.Sessions.Disarm(ctx, upd.ChatID); err != nil {
		return err
	}
	err = e.replay(ctx, rec, upd)
	if errors.Is(err, ErrInvalidTimeFormat) {
		// Leave the user on the same prompt so they can retype.
		if armErr := e.Sessions.Arm(ctx, upd.ChatID, sess.Waiting); armErr != nil {
			return armErr
		}
	}
	return err
}

// replay executes the transition a stored callback record encodes.
func (e *Engine) replay(ctx context.Context, rec store.CallbackRecord, upd Update) error {
	def, ok := e.Registry.Lookup(rec.Command)
	if !ok {
		return fmt.Errorf("callback for unknown command %q", rec.Command)
	}
	idx, ok := def.stepIndex(rec.Step)
	if !ok {
		return fmt.Errorf("callback for unknown step %q of %s", rec.Step, rec.Command)
	}
	r := &Runtime{eng: e, def: def, step: idx, upd: upd, bag: Bag(rec.Data)}
	if r.bag == nil {
		r.bag = NewBag()
	}

	switch rec.Action {
	case ActionNextStep:
		return r.NextStep(ctx)
	case ActionPreviousStep:
		return r.PreviousStep(ctx)
	case ActionCurrentStep:
		return r.CurrentStep(ctx)
	case ActionFinish:
		return r.Finish(ctx)
	case ActionCancel:
		return r.Cancel(ctx)
	default:
		return fmt.Errorf("callback with unknown action %q for %s/%s", rec.Action, rec.Command, rec.Step)
	}
}

func (e *Engine) sendHelp(ctx context.Context, chatID int64) error {
	return e.Messenger.SendMessage(ctx, chatID, e.Registry.HelpText(), nil, 0)
}
