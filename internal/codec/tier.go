package codec

import (
	"fmt"
	"strings"
)

// Tier selects the quantization depth and compression backend for Encode.
type Tier int

const (
	Lossless Tier = iota
	Balanced
	Maximum
)

// Tiers lists every tier in increasing compression order.
var Tiers = [...]Tier{Lossless, Balanced, Maximum}

func (t Tier) String() string {
	switch t {
	case Lossless:
		return "lossless"
	case Balanced:
		return "balanced"
	case Maximum:
		return "maximum"
	}
	return fmt.Sprintf("tier(%d)", int(t))
}

// QuantBits returns the retained bits per color channel, 0 for none.
func (t Tier) QuantBits() int {
	switch t {
	case Balanced:
		return 6
	case Maximum:
		return 4
	}
	return 0
}

// Backend returns the deflate backend name bound to the tier.
func (t Tier) Backend() string {
	switch t {
	case Balanced:
		return "best"
	case Maximum:
		return "zopfli"
	}
	return "fast"
}

// ParseTier resolves a tier name, case-insensitively.
func ParseTier(name string) (Tier, error) {
	for _, t := range Tiers {
		if strings.EqualFold(name, t.String()) {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown compression tier %q (want lossless, balanced or maximum)", name)
}
