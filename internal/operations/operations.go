// Package operations parses the compact "key=value,key=value" instruction
// string that accompanies every transform request.
package operations

import (
	"strconv"
	"strings"

	"github.com/SMCodesP/imgtransform/internal/format"
)

// Recognized keys.
const (
	KeyWidth   = "width"
	KeyQuality = "quality"
	KeyFormat  = "format"
)

// DefaultQuality applies when quality is absent or unparsable.
const DefaultQuality = 75

// Set is the parsed operation string. Later keys overwrite earlier ones.
type Set struct {
	values  map[string]string
	dropped []string
}

// Parse splits s on ',' and every token on its first '='. Tokens without '='
// or with an empty key are dropped and reported by Dropped; parsing itself
// never fails.
func Parse(s string) Set {
	set := Set{values: make(map[string]string)}
	if strings.TrimSpace(s) == "" {
		return set
	}

	for _, tok := range strings.Split(s, ",") {
		key, value, ok := strings.Cut(tok, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			if strings.TrimSpace(tok) != "" {
				set.dropped = append(set.dropped, tok)
			}
			continue
		}
		set.values[key] = strings.TrimSpace(value)
	}
	return set
}

// Dropped returns the malformed tokens skipped during parsing.
func (s Set) Dropped() []string { return s.dropped }

// Width returns the requested target width. The second result is false when
// width is absent, unparsable or zero.
func (s Set) Width() (uint32, bool) {
	v, ok := s.values[KeyWidth]
	if !ok {
		return 0, false
	}
	w, err := strconv.ParseUint(v, 10, 32)
	if err != nil || w == 0 {
		return 0, false
	}
	return uint32(w), true
}

// Quality returns the requested quality clamped to [0,100], or
// DefaultQuality when absent or unparsable.
func (s Set) Quality() uint8 {
	return s.QualityOr(DefaultQuality)
}

// QualityOr is Quality with a caller-supplied default.
func (s Set) QualityOr(def uint8) uint8 {
	v, ok := s.values[KeyQuality]
	if !ok {
		return def
	}
	q, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	switch {
	case q < 0:
		return 0
	case q > 100:
		return 100
	}
	return uint8(q)
}

// Format returns the requested output format. Absent or unrecognized values,
// and formats that cannot be encoded, map to format.Default.
func (s Set) Format() format.Format {
	f := format.Parse(s.values[KeyFormat])
	if !f.IsOutput() {
		return format.Default
	}
	return f
}

// Canonical renders the recognized keys sorted by name, dropping unknown keys
// and malformed tokens. Equivalent operation strings render identically.
func (s Set) Canonical() string {
	var parts []string
	// keys in alphabetical order
	for _, k := range []string{KeyFormat, KeyQuality, KeyWidth} {
		if v, ok := s.values[k]; ok {
			parts = append(parts, k+"="+v)
		}
	}
	return strings.Join(parts, ",")
}
