package bot

import "context"

// Button is one inline-keyboard button. Token is stored verbatim as the
// Telegram callback_data; it is either a callback-store token or DoNothing.
type Button struct {
	Text  string
	Token string
}

// Keyboard is an inline keyboard laid out as rows of buttons.
type Keyboard [][]Button

// Row appends a row of buttons and returns the extended keyboard.
func (k Keyboard) Row(buttons ...Button) Keyboard {
	return append(k, buttons)
}

// Messenger sends outbound messages to a chat. A non-zero messageID means
// the existing message is edited in place (editMessageText) instead of a
// new one being sent (sendMessage). Failures must surface to the caller:
// an unsent prompt leaves the user stuck with no way to resume.
type Messenger interface {
	SendMessage(ctx context.Context, chatID int64, text string, keyboard Keyboard, messageID int) error
}
