package profile

import (
	"sort"

	"github.com/SMCodesP/imgtransform/internal/format"
	"github.com/SMCodesP/imgtransform/internal/operations"
	"github.com/SMCodesP/imgtransform/internal/resize"
)

// DefaultName is the profile used when none is configured.
const DefaultName = "default"

// Profile bundles the pipeline choices that are fixed per deployment.
type Profile struct {
	Name     string
	Strategy resize.Strategy // resampling strategy
	Encoders []format.Format // enabled output formats; empty enables all
	Quality  int             // quality used when the request carries none
}

// Built-in profiles.
var profiles = map[string]Profile{
	DefaultName: {
		Name:     DefaultName,
		Strategy: resize.Parallel,
		Quality:  operations.DefaultQuality,
	},
	"compat": {
		Name:     "compat",
		Strategy: resize.Parallel,
		Encoders: []format.Format{format.WebP, format.JPEG, format.PNG}, // no avif
		Quality:  operations.DefaultQuality,
	},
	"minimal": {
		Name:     "minimal",
		Strategy: resize.Triangle,
		Encoders: []format.Format{format.JPEG, format.PNG},
		Quality:  70,
	},
}

// Get returns a profile by name. Falls back to default if unknown.
func Get(name string) Profile {
	if p, ok := profiles[name]; ok {
		return p
	}
	p := profiles[DefaultName]
	p.Name = name // preserve requested name
	return p
}

// Lookup is Get without the fallback.
func Lookup(name string) (Profile, bool) {
	p, ok := profiles[name]
	return p, ok
}

// Names lists the built-in profiles.
func Names() []string {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// WithStrategy returns a copy of p using s.
func (p Profile) WithStrategy(s resize.Strategy) Profile {
	p.Strategy = s
	return p
}

// WithQuality returns a copy of p whose default quality is q, clamped to 0-100.
func (p Profile) WithQuality(q int) Profile {
	switch {
	case q < 0:
		q = 0
	case q > 100:
		q = 100
	}
	p.Quality = q
	return p
}
