// Package easing maps linear progress in [0,1] to eased progress.
//
// Every function clamps its input into [0,1] before evaluating, so values
// outside the interval behave exactly like the nearest endpoint.
package easing

import (
	"github.com/fogleman/ease"
)

// Kind names an easing curve as it is written in story files.
type Kind string

const (
	Linear     Kind = "linear"
	InQuad     Kind = "easeInQuad"
	OutQuad    Kind = "easeOutQuad"
	InOutQuad  Kind = "easeInOutQuad"
	InCubic    Kind = "easeInCubic"
	OutCubic   Kind = "easeOutCubic"
	InOutCubic Kind = "easeInOutCubic"
)

const defaultKind = Linear

// Func is an easing curve.
type Func func(t float64) float64

var kinds = []Kind{Linear, InQuad, OutQuad, InOutQuad, InCubic, OutCubic, InOutCubic}

var funcs = map[Kind]Func{
	Linear:     clamped(ease.Linear),
	InQuad:     clamped(ease.InQuad),
	OutQuad:    clamped(ease.OutQuad),
	InOutQuad:  clamped(ease.InOutQuad),
	InCubic:    clamped(ease.InCubic),
	OutCubic:   clamped(ease.OutCubic),
	InOutCubic: clamped(ease.InOutCubic),
}

// Get returns the curve for k. Unknown names fall back to Linear.
func Get(k Kind) Func {
	if f, ok := funcs[k]; ok {
		return f
	}
	return funcs[defaultKind]
}

// Apply evaluates the curve named k at t.
func Apply(k Kind, t float64) float64 {
	return Get(k)(t)
}

// Valid reports whether k names a known curve.
func (k Kind) Valid() bool {
	_, ok := funcs[k]
	return ok
}

// Kinds lists the known curve names in a stable order.
func Kinds() []Kind {
	out := make([]Kind, len(kinds))
	copy(out, kinds)
	return out
}

// Clamp limits t to [0,1].
func Clamp(t float64) float64 {
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}

func clamped(f func(float64) float64) Func {
	return func(t float64) float64 {
		return f(Clamp(t))
	}
}
