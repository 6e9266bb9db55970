package bot

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/google/uuid"
)

// Reserved bag keys threaded by the engine and the generic steps.
const (
	KeyCorrelation = "correlation_key"
	KeyStepsBack   = "_steps_back"
	KeyPage        = "current_page"
)

// Bag is the data record threaded between steps through the callback
// store. Values are restricted to JSON-compatible types; concrete commands
// decode a Bag into their typed data structs before acting on it.
type Bag map[string]any

// NewBag returns a fresh bag carrying a newly minted correlation key.
// Every command run mints exactly one key at step 0; it is never removed
// by intermediate steps and ties all callback rows of the run together.
func NewBag() Bag {
	return Bag{KeyCorrelation: uuid.NewString()}
}

// newToken mints a callback-store token. Telegram limits callback_data to
// 64 bytes; a UUID fits with room to spare.
func newToken() string {
	return uuid.NewString()
}

// Clone returns a shallow copy so a step can branch the bag per button.
func (b Bag) Clone() Bag {
	out := make(Bag, len(b)+2)
	for k, v := range b {
		out[k] = v
	}
	return out
}

// With returns a clone with one key replaced.
func (b Bag) With(key string, value any) Bag {
	out := b.Clone()
	out[key] = value
	return out
}

// Correlation returns the run's correlation key, or "" when absent.
func (b Bag) Correlation() string { return b.String(KeyCorrelation) }

// String reads a string value, tolerating absence.
func (b Bag) String(key string) string {
	if v, ok := b[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// Int reads an integer value. JSON round-trips deliver numbers as
// float64, so both representations are accepted.
func (b Bag) Int(key string) int {
	switch v := b[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case json.Number:
		n, _ := v.Int64()
		return int(n)
	case string:
		n, _ := strconv.Atoi(v)
		return n
	}
	return 0
}

// Int64 reads a 64-bit integer value.
func (b Bag) Int64(key string) int64 {
	switch v := b[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	case json.Number:
		n, _ := v.Int64()
		return n
	case string:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	}
	return 0
}

// Float reads a float value.
func (b Bag) Float(key string) float64 {
	switch v := b[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case json.Number:
		f, _ := v.Float64()
		return f
	}
	return 0
}

// Decode unmarshals the bag into a typed command data struct.
func (b Bag) Decode(out any) error {
	raw, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("bag encode: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("bag decode: %w", err)
	}
	return nil
}

// Encode converts a typed command data struct back into a Bag.
func Encode(in any) (Bag, error) {
	raw, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("bag encode: %w", err)
	}
	var out Bag
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("bag decode: %w", err)
	}
	return out, nil
}
