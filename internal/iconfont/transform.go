package iconfont

import (
	"fmt"
	"math"
	"strings"
)

// affine is the matrix [a c e; b d f; 0 0 1] as used by SVG.
type affine struct {
	a, b, c, d, e, f float64
}

var identity = affine{a: 1, d: 1}

// mul returns m×n (n applied first).
func (m affine) mul(n affine) affine {
	return affine{
		a: m.a*n.a + m.c*n.b,
		b: m.b*n.a + m.d*n.b,
		c: m.a*n.c + m.c*n.d,
		d: m.b*n.c + m.d*n.d,
		e: m.a*n.e + m.c*n.f + m.e,
		f: m.b*n.e + m.d*n.f + m.f,
	}
}

func (m affine) apply(x, y float64) (float64, float64) {
	return m.a*x + m.c*y + m.e, m.b*x + m.d*y + m.f
}

func translate(x, y float64) affine { return affine{a: 1, d: 1, e: x, f: y} }
func scale(x, y float64) affine     { return affine{a: x, d: y} }

func rotate(deg float64) affine {
	r := deg * math.Pi / 180
	s, c := math.Sincos(r)
	return affine{a: c, b: s, c: -s, d: c}
}

// parseTransform parses an SVG transform list.
func parseTransform(s string) (affine, error) {
	m := identity
	rest := strings.TrimSpace(s)
	for rest != "" {
		open := strings.IndexByte(rest, '(')
		closing := strings.IndexByte(rest, ')')
		if open < 0 || closing < open {
			return identity, fmt.Errorf("malformed transform %q", s)
		}
		name := strings.TrimSpace(strings.Trim(rest[:open], ", \t\n"))
		args, err := parseNumbers(rest[open+1 : closing])
		if err != nil {
			return identity, fmt.Errorf("transform %s: %w", name, err)
		}
		t, err := transformFor(name, args)
		if err != nil {
			return identity, err
		}
		m = m.mul(t)
		rest = strings.TrimSpace(rest[closing+1:])
	}
	return m, nil
}

func transformFor(name string, args []float64) (affine, error) {
	arg := func(i int, def float64) float64 {
		if i < len(args) {
			return args[i]
		}
		return def
	}
	switch name {
	case "matrix":
		if len(args) != 6 {
			return identity, fmt.Errorf("matrix needs 6 arguments, got %d", len(args))
		}
		return affine{a: args[0], b: args[1], c: args[2], d: args[3], e: args[4], f: args[5]}, nil
	case "translate":
		return translate(arg(0, 0), arg(1, 0)), nil
	case "scale":
		sx := arg(0, 1)
		return scale(sx, arg(1, sx)), nil
	case "rotate":
		if len(args) == 3 {
			return translate(args[1], args[2]).mul(rotate(args[0])).mul(translate(-args[1], -args[2])), nil
		}
		return rotate(arg(0, 0)), nil
	case "skewX":
		return affine{a: 1, c: math.Tan(arg(0, 0) * math.Pi / 180), d: 1}, nil
	case "skewY":
		return affine{a: 1, b: math.Tan(arg(0, 0) * math.Pi / 180), d: 1}, nil
	default:
		return identity, fmt.Errorf("unknown transform %q", name)
	}
}
