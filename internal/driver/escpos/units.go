// internal/driver/escpos/units.go
package escpos

import (
	"github.com/shopspring/decimal"
)

// DefaultDotsPerMM matches 203 dpi print heads
const DefaultDotsPerMM = 8.0

// Units converts millimetre values from documents into printer dots.
// Decimal arithmetic keeps values such as 0.125mm exact before rounding.
type Units struct {
	dotsPerMM decimal.Decimal
}

// NewUnits creates a converter for the given head resolution
func NewUnits(dotsPerMM float64) Units {
	if dotsPerMM <= 0 {
		dotsPerMM = DefaultDotsPerMM
	}
	return Units{dotsPerMM: decimal.NewFromFloat(dotsPerMM)}
}

// Dots converts mm to dots, rounding half away from zero
func (u Units) Dots(mm float64) int {
	return int(decimal.NewFromFloat(mm).Mul(u.dotsPerMM).Round(0).IntPart())
}

// ByteDots converts mm to dots clamped to a single parameter byte
func (u Units) ByteDots(mm float64) byte {
	return clampByte(u.Dots(mm))
}

// PaperDots returns the printable width in dots for a paper width in mm
func (u Units) PaperDots(widthMM int) int {
	return u.Dots(float64(widthMM))
}

func clampByte(v int) byte {
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	default:
		return byte(v)
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// le16 encodes v as the nL nH parameter pair
func le16(v int) []byte {
	u := uint16(v)
	return []byte{byte(u), byte(u >> 8)}
}
