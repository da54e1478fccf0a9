// Package profile holds named encode presets. A profile pins a compression
// tier and, for zopfli-backed tiers, the number of optimisation passes.
package profile

import (
	"sort"

	"github.com/AnyUserName/pngseal/internal/codec"
	"github.com/AnyUserName/pngseal/internal/deflate"
)

// Profile defines encode parameters.
type Profile struct {
	Name       string
	Tier       codec.Tier
	Iterations int // zopfli passes; ignored unless Tier uses zopfli
}

// DefaultName is used when a requested profile is unknown.
const DefaultName = "balanced"

// Built-in profiles.
var profiles = map[string]Profile{
	"lossless": {Name: "lossless", Tier: codec.Lossless},
	"balanced": {Name: "balanced", Tier: codec.Balanced},
	"maximum": {
		Name:       "maximum",
		Tier:       codec.Maximum,
		Iterations: deflate.DefaultIterations,
	},
	"maximum-quick": {
		Name:       "maximum-quick",
		Tier:       codec.Maximum,
		Iterations: 15,
	},
}

// Get returns a profile by name. Falls back to balanced if unknown.
func Get(name string) Profile {
	if p, ok := profiles[name]; ok {
		return p
	}
	p := profiles[DefaultName]
	p.Name = name // preserve requested name
	return p
}

// Lookup reports whether name is a built-in profile.
func Lookup(name string) (Profile, bool) {
	p, ok := profiles[name]
	return p, ok
}

// Names lists the built-in profiles in sorted order.
func Names() []string {
	names := make([]string, 0, len(profiles))
	for n := range profiles {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Registry builds the compression backends this profile encodes with.
func (p Profile) Registry() *deflate.Registry {
	return deflate.NewRegistry(p.Iterations)
}
