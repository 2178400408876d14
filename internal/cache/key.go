package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Key derives a deterministic cache key for one logical tool call.
// Canonical form is JSON of {tool, args}; encoding/json emits map keys in
// sorted order, so argument insertion order never changes the key. If the
// arguments cannot be serialized (a handler smuggled in a channel, say),
// the fallback is the fmt rendering, which Go also sorts by map key, so
// keying stays deterministic even when canonicalization is impossible.
func Key(tool string, args map[string]any) string {
	payload := struct {
		Tool string         `json:"tool"`
		Args map[string]any `json:"args"`
	}{Tool: tool, Args: args}

	data, err := json.Marshal(payload)
	if err != nil {
		data = []byte(fmt.Sprintf("%s|%v", tool, args))
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
