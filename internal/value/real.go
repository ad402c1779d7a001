package value

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Profile selects the real-number representation: Hosted targets use an
// exact decimal (the modern equivalent of the original's IEEE double —
// decimal avoids the binary-fraction surprises a double would reintroduce
// for something as simple as printing 0.1), Constrained targets use a
// Q22.10 fixed-point value sized for a machine with no FPU.
type Profile int

const (
	ProfileHosted Profile = iota
	ProfileConstrained
)

// fixedScale is 2^10, the Q22.10 fractional scale.
const fixedScale = 1 << 10

// Real is the core's AtomReal payload. Exactly one of the two
// representations is meaningful, selected by Profile; both must honor the
// same comparison and arithmetic contract.
type Real struct {
	Profile Profile
	dec     decimal.Decimal
	fixed   int64
}

func NewRealHosted(f float64) Real {
	return Real{Profile: ProfileHosted, dec: decimal.NewFromFloat(f)}
}

func NewRealConstrained(f float64) Real {
	return Real{Profile: ProfileConstrained, fixed: int64(f * fixedScale)}
}

// NewReal builds a Real in the given profile from a float64, the way the
// reader parses a literal token.
func NewReal(profile Profile, f float64) Real {
	if profile == ProfileConstrained {
		return NewRealConstrained(f)
	}
	return NewRealHosted(f)
}

func (r Real) Float64() float64 {
	if r.Profile == ProfileConstrained {
		return float64(r.fixed) / fixedScale
	}
	f, _ := r.dec.Float64()
	return f
}

func (r Real) Add(o Real) Real {
	if r.Profile == ProfileConstrained {
		return Real{Profile: ProfileConstrained, fixed: r.fixed + o.fixed}
	}
	return Real{Profile: ProfileHosted, dec: r.dec.Add(o.dec)}
}

func (r Real) Sub(o Real) Real {
	if r.Profile == ProfileConstrained {
		return Real{Profile: ProfileConstrained, fixed: r.fixed - o.fixed}
	}
	return Real{Profile: ProfileHosted, dec: r.dec.Sub(o.dec)}
}

func (r Real) Mul(o Real) Real {
	if r.Profile == ProfileConstrained {
		return Real{Profile: ProfileConstrained, fixed: (r.fixed * o.fixed) / fixedScale}
	}
	return Real{Profile: ProfileHosted, dec: r.dec.Mul(o.dec)}
}

// Div returns (result, ok); ok is false on division by zero, matching the
// core's DivisionByZero error.
func (r Real) Div(o Real) (Real, bool) {
	if r.Profile == ProfileConstrained {
		if o.fixed == 0 {
			return Real{}, false
		}
		return Real{Profile: ProfileConstrained, fixed: (r.fixed * fixedScale) / o.fixed}, true
	}
	if o.dec.IsZero() {
		return Real{}, false
	}
	return Real{Profile: ProfileHosted, dec: r.dec.Div(o.dec)}, true
}

// Cmp returns -1, 0, or 1 the way decimal.Decimal.Cmp does.
func (r Real) Cmp(o Real) int {
	if r.Profile == ProfileConstrained {
		switch {
		case r.fixed < o.fixed:
			return -1
		case r.fixed > o.fixed:
			return 1
		default:
			return 0
		}
	}
	return r.dec.Cmp(o.dec)
}

func (r Real) IsZero() bool {
	if r.Profile == ProfileConstrained {
		return r.fixed == 0
	}
	return r.dec.IsZero()
}

func (r Real) String() string {
	s := r.rawString()
	// Reader-compatible round trip requires a decimal point even on
	// whole-valued reals, per the real := digit+ "." digit+ grammar.
	for _, c := range s {
		if c == '.' {
			return s
		}
	}
	return s + ".0"
}

func (r Real) rawString() string {
	if r.Profile == ProfileConstrained {
		return fmt.Sprintf("%g", r.Float64())
	}
	return r.dec.String()
}

// AsInt truncates toward zero, matching the original's demotion policy.
func (r Real) AsInt() int64 {
	if r.Profile == ProfileConstrained {
		return r.fixed / fixedScale
	}
	return r.dec.Truncate(0).IntPart()
}
