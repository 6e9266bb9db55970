package bot

import (
	"encoding/json"
	"fmt"
	"strings"

	tele "gopkg.in/telebot.v4"
)

// DoNothing is the reserved callback token for inert buttons (calendar
// headers, filler cells). Dispatch treats it as an explicit non-action
// instead of a store lookup.
const DoNothing = "noop"

// Update is a normalized inbound Telegram update. It is constructed from
// exactly one of a text message or a callback query; any other payload
// shape is a construction error.
type Update struct {
	ChatID        int64
	MessageID     int
	Text          string
	CallbackToken string

	isMessage  bool
	isCallback bool
}

// ParseUpdate decodes a raw webhook body into an Update.
func ParseUpdate(raw []byte) (Update, error) {
	var upd tele.Update
	if err := json.Unmarshal(raw, &upd); err != nil {
		return Update{}, fmt.Errorf("%w: %v", ErrUnsupportedUpdate, err)
	}
	return NormalizeUpdate(upd)
}

// NormalizeUpdate converts a decoded wire update into the normalized form.
func NormalizeUpdate(upd tele.Update) (Update, error) {
	switch {
	case upd.Message != nil && upd.Message.Text != "":
		if upd.Message.Chat == nil {
			return Update{}, fmt.Errorf("%w: message without chat", ErrUnsupportedUpdate)
		}
		return Update{
			ChatID:    upd.Message.Chat.ID,
			Text:      upd.Message.Text,
			isMessage: true,
		}, nil
	case upd.Callback != nil:
		if upd.Callback.Message == nil || upd.Callback.Message.Chat == nil {
			return Update{}, fmt.Errorf("%w: callback without message", ErrUnsupportedUpdate)
		}
		return Update{
			ChatID:        upd.Callback.Message.Chat.ID,
			MessageID:     upd.Callback.Message.ID,
			CallbackToken: upd.Callback.Data,
			isCallback:    true,
		}, nil
	}
	return Update{}, ErrUnsupportedUpdate
}

// CommandUpdate builds a synthetic slash-command update, used by the CLI
// to start a conversation on behalf of a user without a real message.
func CommandUpdate(chatID int64, command string) Update {
	return Update{ChatID: chatID, Text: command, isMessage: true}
}

// IsMessage reports whether the update originated from a text message.
func (u Update) IsMessage() bool { return u.isMessage }

// IsCallback reports whether the update originated from a button press.
func (u Update) IsCallback() bool { return u.isCallback }

// IsCommand reports whether the update is a slash command.
func (u Update) IsCommand() bool {
	return u.isMessage && strings.HasPrefix(u.Text, "/")
}

// CommandName returns the leading slash keyword of a command update.
func (u Update) CommandName() string {
	if !u.IsCommand() {
		return ""
	}
	name, _, _ := strings.Cut(u.Text, " ")
	return name
}
