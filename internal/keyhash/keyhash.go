// Package keyhash derives deterministic cache keys from structured values.
//
// Values are serialised with encoding/json, which writes struct fields in
// declaration order and map keys sorted, so two structurally equal values
// always produce the same key regardless of how they were assembled. The
// serialised form is digested with xxhash to a fixed-width hex string.
package keyhash

import (
	"encoding/json"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
)

// Sum returns a deterministic hex digest of v.
//
// A value that cannot be serialised (channels, funcs, cycles) yields a
// random key instead of an error: the caller pays a cache miss, not a
// crash.
func Sum(v any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return Random()
	}
	return strconv.FormatUint(xxhash.Sum64(raw), 16)
}

// Join digests several parts into a single key, keeping each part's
// contribution position-dependent.
func Join(parts ...any) string {
	d := xxhash.New()
	for _, p := range parts {
		raw, err := json.Marshal(p)
		if err != nil {
			return Random()
		}
		_, _ = d.Write(raw)
		_, _ = d.Write([]byte{0})
	}
	return strconv.FormatUint(d.Sum64(), 16)
}

// Canonical returns the canonical serialised form of v, or the empty
// string when v cannot be serialised.
func Canonical(v any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(raw)
}

// Random returns a unique key that will never collide with a derived one.
func Random() string {
	return "rnd-" + uuid.NewString()
}
