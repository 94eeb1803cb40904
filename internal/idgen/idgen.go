// Package idgen builds protocol-specific request/object identifiers.
//
// Every generated ID is a fixed string prefix (chatcmpl-, resp_, rs_, msg_,
// ...) followed by a random hex suffix, matching the shapes OpenAI's APIs
// return (spec.md §3, "id carries a protocol-specific prefix").
package idgen

import (
	"strings"

	"github.com/google/uuid"
)

// New returns prefix followed by a 16-character lowercase hex suffix
// derived from a random UUID.
func New(prefix string) string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return prefix + raw[:16]
}
