package iconfont

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// segment is an absolute path command: M, L, C, Q or Z.
type segment struct {
	cmd byte
	pts []float64
}

// pathData is a list of absolute segments.
type pathData []segment

// parsePathData converts SVG path data into absolute M/L/C/Q/Z segments.
// H/V become L, S/T become C/Q with explicit control points and arcs are
// approximated with cubic curves.
func parsePathData(d string) (pathData, error) {
	tokens, err := tokenizePath(d)
	if err != nil {
		return nil, err
	}

	var (
		out            pathData
		cx, cy         float64 // current point
		sx, sy         float64 // subpath start
		lastCtrlX      float64
		lastCtrlY      float64
		cmd            byte
		i              int
		haveSubpath    bool
		prevWasCurveCQ byte
	)
	num := func() (float64, error) {
		if i >= len(tokens) || tokens[i].isCmd {
			return 0, fmt.Errorf("path data: expected number after %q", string(cmd))
		}
		v := tokens[i].num
		i++
		return v, nil
	}
	nums := func(n int) ([]float64, error) {
		vals := make([]float64, n)
		for k := range vals {
			v, err := num()
			if err != nil {
				return nil, err
			}
			vals[k] = v
		}
		return vals, nil
	}

	for i < len(tokens) {
		explicit := tokens[i].isCmd
		if explicit {
			cmd = tokens[i].cmd
			i++
		} else if cmd == 0 {
			return nil, fmt.Errorf("path data must start with a command")
		}
		rel := cmd >= 'a' && cmd <= 'z'
		upper := cmd &^ 0x20
		ox, oy := 0.0, 0.0
		if rel {
			ox, oy = cx, cy
		}
		if upper != 'M' && upper != 'Z' && !haveSubpath {
			return nil, fmt.Errorf("path data: %q before moveto", string(cmd))
		}

		switch upper {
		case 'M':
			v, err := nums(2)
			if err != nil {
				return nil, err
			}
			cx, cy = ox+v[0], oy+v[1]
			sx, sy = cx, cy
			out = append(out, segment{cmd: 'M', pts: []float64{cx, cy}})
			haveSubpath = true
			// subsequent pairs are implicit lineto
			if rel {
				cmd = 'l'
			} else {
				cmd = 'L'
			}
			prevWasCurveCQ = 0
		case 'L':
			v, err := nums(2)
			if err != nil {
				return nil, err
			}
			cx, cy = ox+v[0], oy+v[1]
			out = append(out, segment{cmd: 'L', pts: []float64{cx, cy}})
			prevWasCurveCQ = 0
		case 'H':
			v, err := num()
			if err != nil {
				return nil, err
			}
			cx = ox + v
			out = append(out, segment{cmd: 'L', pts: []float64{cx, cy}})
			prevWasCurveCQ = 0
		case 'V':
			v, err := num()
			if err != nil {
				return nil, err
			}
			cy = oy + v
			out = append(out, segment{cmd: 'L', pts: []float64{cx, cy}})
			prevWasCurveCQ = 0
		case 'C':
			v, err := nums(6)
			if err != nil {
				return nil, err
			}
			x1, y1, x2, y2 := ox+v[0], oy+v[1], ox+v[2], oy+v[3]
			cx, cy = ox+v[4], oy+v[5]
			out = append(out, segment{cmd: 'C', pts: []float64{x1, y1, x2, y2, cx, cy}})
			lastCtrlX, lastCtrlY, prevWasCurveCQ = x2, y2, 'C'
		case 'S':
			v, err := nums(4)
			if err != nil {
				return nil, err
			}
			x1, y1 := cx, cy
			if prevWasCurveCQ == 'C' {
				x1, y1 = 2*cx-lastCtrlX, 2*cy-lastCtrlY
			}
			x2, y2 := ox+v[0], oy+v[1]
			cx, cy = ox+v[2], oy+v[3]
			out = append(out, segment{cmd: 'C', pts: []float64{x1, y1, x2, y2, cx, cy}})
			lastCtrlX, lastCtrlY, prevWasCurveCQ = x2, y2, 'C'
		case 'Q':
			v, err := nums(4)
			if err != nil {
				return nil, err
			}
			x1, y1 := ox+v[0], oy+v[1]
			cx, cy = ox+v[2], oy+v[3]
			out = append(out, segment{cmd: 'Q', pts: []float64{x1, y1, cx, cy}})
			lastCtrlX, lastCtrlY, prevWasCurveCQ = x1, y1, 'Q'
		case 'T':
			v, err := nums(2)
			if err != nil {
				return nil, err
			}
			x1, y1 := cx, cy
			if prevWasCurveCQ == 'Q' {
				x1, y1 = 2*cx-lastCtrlX, 2*cy-lastCtrlY
			}
			cx, cy = ox+v[0], oy+v[1]
			out = append(out, segment{cmd: 'Q', pts: []float64{x1, y1, cx, cy}})
			lastCtrlX, lastCtrlY, prevWasCurveCQ = x1, y1, 'Q'
		case 'A':
			v, err := nums(7)
			if err != nil {
				return nil, err
			}
			x, y := ox+v[5], oy+v[6]
			out = append(out, arcToCubics(cx, cy, v[0], v[1], v[2], v[3] != 0, v[4] != 0, x, y)...)
			cx, cy = x, y
			prevWasCurveCQ = 0
		case 'Z':
			if !explicit {
				return nil, fmt.Errorf("path data: unexpected number after closepath")
			}
			out = append(out, segment{cmd: 'Z'})
			cx, cy = sx, sy
			prevWasCurveCQ = 0
		default:
			return nil, fmt.Errorf("path data: unknown command %q", string(cmd))
		}
	}
	return out, nil
}

type pathToken struct {
	isCmd bool
	cmd   byte
	num   float64
}

func tokenizePath(d string) ([]pathToken, error) {
	var out []pathToken
	for i := 0; i < len(d); {
		c := d[i]
		switch {
		case c == ' ' || c == ',' || c == '\t' || c == '\n' || c == '\r':
			i++
		case strings.IndexByte("MmLlHhVvCcSsQqTtAaZz", c) >= 0:
			out = append(out, pathToken{isCmd: true, cmd: c})
			i++
		default:
			j := scanNumber(d, i)
			if j == i {
				return nil, fmt.Errorf("path data: unexpected %q at offset %d", c, i)
			}
			v, err := strconv.ParseFloat(d[i:j], 64)
			if err != nil {
				return nil, fmt.Errorf("path data: %w", err)
			}
			out = append(out, pathToken{num: v})
			i = j
		}
	}
	return out, nil
}

// scanNumber returns the end of the number starting at i. It handles the
// compact forms "1.5.5" (two numbers) and "1-2" (two numbers).
func scanNumber(s string, i int) int {
	j := i
	if j < len(s) && (s[j] == '+' || s[j] == '-') {
		j++
	}
	digits, dot := false, false
mantissa:
	for j < len(s) {
		c := s[j]
		switch {
		case c >= '0' && c <= '9':
			digits = true
			j++
		case c == '.' && !dot:
			dot = true
			j++
		default:
			break mantissa
		}
	}
	if !digits {
		return i
	}
	if j < len(s) && (s[j] == 'e' || s[j] == 'E') {
		k := j + 1
		if k < len(s) && (s[k] == '+' || s[k] == '-') {
			k++
		}
		start := k
		for k < len(s) && s[k] >= '0' && s[k] <= '9' {
			k++
		}
		if k > start {
			j = k
		}
	}
	return j
}

// parseNumbers parses a whitespace/comma separated number list.
func parseNumbers(s string) ([]float64, error) {
	var out []float64
	for i := 0; i < len(s); {
		c := s[i]
		if c == ' ' || c == ',' || c == '\t' || c == '\n' || c == '\r' {
			i++
			continue
		}
		j := scanNumber(s, i)
		if j == i {
			return nil, fmt.Errorf("unexpected %q in number list", c)
		}
		v, err := strconv.ParseFloat(s[i:j], 64)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
		i = j
	}
	return out, nil
}

// transform applies m to every point.
func (p pathData) transform(m affine) pathData {
	out := make(pathData, len(p))
	for i, seg := range p {
		pts := make([]float64, len(seg.pts))
		for k := 0; k+1 < len(seg.pts); k += 2 {
			pts[k], pts[k+1] = m.apply(seg.pts[k], seg.pts[k+1])
		}
		out[i] = segment{cmd: seg.cmd, pts: pts}
	}
	return out
}

// String serializes the path with coordinates rounded to two decimals.
func (p pathData) String() string {
	var b strings.Builder
	for i, seg := range p {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteByte(seg.cmd)
		for _, v := range seg.pts {
			b.WriteByte(' ')
			b.WriteString(formatCoord(v))
		}
	}
	return b.String()
}

func formatCoord(v float64) string {
	r := math.Round(v*100) / 100
	if r == 0 {
		r = 0 // normalizes -0
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}

// arcToCubics approximates an elliptical arc with cubic Béziers, following
// the endpoint-to-center conversion of the SVG implementation notes.
func arcToCubics(x1, y1, rx, ry, phiDeg float64, largeArc, sweep bool, x2, y2 float64) []segment {
	if x1 == x2 && y1 == y2 {
		return nil
	}
	rx, ry = math.Abs(rx), math.Abs(ry)
	if rx == 0 || ry == 0 {
		return []segment{{cmd: 'L', pts: []float64{x2, y2}}}
	}
	phi := phiDeg * math.Pi / 180
	sinPhi, cosPhi := math.Sincos(phi)

	dx, dy := (x1-x2)/2, (y1-y2)/2
	x1p := cosPhi*dx + sinPhi*dy
	y1p := -sinPhi*dx + cosPhi*dy

	lambda := (x1p*x1p)/(rx*rx) + (y1p*y1p)/(ry*ry)
	if lambda > 1 {
		s := math.Sqrt(lambda)
		rx, ry = rx*s, ry*s
	}

	num := rx*rx*ry*ry - rx*rx*y1p*y1p - ry*ry*x1p*x1p
	den := rx*rx*y1p*y1p + ry*ry*x1p*x1p
	coef := 0.0
	if den != 0 && num > 0 {
		coef = math.Sqrt(num / den)
	}
	if largeArc == sweep {
		coef = -coef
	}
	cxp := coef * rx * y1p / ry
	cyp := -coef * ry * x1p / rx

	cx := cosPhi*cxp - sinPhi*cyp + (x1+x2)/2
	cy := sinPhi*cxp + cosPhi*cyp + (y1+y2)/2

	theta1 := vectorAngle(1, 0, (x1p-cxp)/rx, (y1p-cyp)/ry)
	delta := vectorAngle((x1p-cxp)/rx, (y1p-cyp)/ry, (-x1p-cxp)/rx, (-y1p-cyp)/ry)
	if !sweep && delta > 0 {
		delta -= 2 * math.Pi
	} else if sweep && delta < 0 {
		delta += 2 * math.Pi
	}

	n := int(math.Ceil(math.Abs(delta) / (math.Pi / 2)))
	step := delta / float64(n)
	k := 4.0 / 3.0 * math.Tan(step/4)

	point := func(theta float64) (float64, float64) {
		s, c := math.Sincos(theta)
		return cx + rx*c*cosPhi - ry*s*sinPhi, cy + rx*c*sinPhi + ry*s*cosPhi
	}
	deriv := func(theta float64) (float64, float64) {
		s, c := math.Sincos(theta)
		return -rx*s*cosPhi - ry*c*sinPhi, -rx*s*sinPhi + ry*c*cosPhi
	}

	out := make([]segment, 0, n)
	theta := theta1
	for range n {
		next := theta + step
		p0x, p0y := point(theta)
		p3x, p3y := point(next)
		d0x, d0y := deriv(theta)
		d3x, d3y := deriv(next)
		out = append(out, segment{cmd: 'C', pts: []float64{
			p0x + k*d0x, p0y + k*d0y,
			p3x - k*d3x, p3y - k*d3y,
			p3x, p3y,
		}})
		theta = next
	}
	// land exactly on the requested endpoint
	last := out[len(out)-1].pts
	last[4], last[5] = x2, y2
	return out
}

func vectorAngle(ux, uy, vx, vy float64) float64 {
	dot := ux*vx + uy*vy
	l := math.Hypot(ux, uy) * math.Hypot(vx, vy)
	if l == 0 {
		return 0
	}
	a := math.Acos(math.Max(-1, math.Min(1, dot/l)))
	if ux*vy-uy*vx < 0 {
		a = -a
	}
	return a
}
