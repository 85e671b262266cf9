package compose

import (
	"encoding/json"
	"log/slog"
)

// Redacted is what a Secret prints, logs and marshals as.
const Redacted = "[sensitive]"

// Secret holds a resolved sensitive value. Every formatting path shows
// Redacted; only Reveal returns the value itself.
type Secret struct {
	value string
}

// NewSecret wraps a sensitive value.
func NewSecret(v string) Secret { return Secret{value: v} }

// Reveal returns the plaintext value.
func (s Secret) Reveal() string { return s.value }

func (s Secret) String() string   { return Redacted }
func (s Secret) GoString() string { return Redacted }

func (s Secret) LogValue() slog.Value { return slog.StringValue(Redacted) }

func (s Secret) MarshalJSON() ([]byte, error) { return json.Marshal(Redacted) }

func (s Secret) MarshalText() ([]byte, error) { return []byte(Redacted), nil }
