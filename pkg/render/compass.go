package render

import (
	"fmt"
	"html"
	"math"
	"strings"

	"github.com/mchmarny/rimecast/pkg/score"
)

const (
	defaultCompassSize = 120
	segmentWidth       = 45.0
)

// CompassOptions configure a compass graphic.
type CompassOptions struct {
	Title      string
	Size       int
	Cumulative bool
}

// CompassSVG draws one donut segment per aspect, north at the top, each
// filled with the ramp color of its rate.
func CompassSVG(rates score.AspectRates, opts CompassOptions) string {
	size := opts.Size
	if size <= 0 {
		size = defaultCompassSize
	}

	c := float64(size) / 2
	outer := c - 10
	inner := outer / 3

	var b strings.Builder
	fmt.Fprintf(&b, `<svg width="%d" height="%d" viewBox="0 0 %d %d" xmlns="http://www.w3.org/2000/svg">`,
		size, size+20, size, size+20)
	fmt.Fprintf(&b, `<circle cx="%s" cy="%s" r="%s" fill="#f5f5f5" stroke="#333" stroke-width="1"/>`,
		num(c), num(c), num(inner-2))

	for _, a := range score.Aspects {
		start := -90 + float64(a)*segmentWidth - segmentWidth/2
		fmt.Fprintf(&b, `<path d="%s" fill="%s" stroke="#333" stroke-width="1"><title>%s %.2f</title></path>`,
			ArcSegment(c, c, inner, outer, start, start+segmentWidth),
			ColorFor(rates.Get(a), opts.Cumulative), a, rates.Get(a))
	}

	for _, a := range score.Aspects {
		rad := (-90 + float64(a)*segmentWidth) * math.Pi / 180
		r := outer + 6
		fmt.Fprintf(&b, `<text x="%s" y="%s" text-anchor="middle" dominant-baseline="middle" font-size="9" font-weight="bold">%s</text>`,
			num(c+r*math.Cos(rad)), num(c+r*math.Sin(rad)), a)
	}

	if opts.Title != "" {
		fmt.Fprintf(&b, `<text x="%s" y="%d" text-anchor="middle" font-size="11" font-weight="bold">%s</text>`,
			num(c), size+12, html.EscapeString(opts.Title))
	}
	b.WriteString(`</svg>`)

	return b.String()
}

// ArcSegment returns the SVG path of a donut slice between two angles given
// in degrees clockwise from the positive x axis.
func ArcSegment(cx, cy, rInner, rOuter, startDeg, endDeg float64) string {
	s := startDeg * math.Pi / 180
	e := endDeg * math.Pi / 180

	return fmt.Sprintf("M %s %s A %s %s 0 0 1 %s %s L %s %s A %s %s 0 0 0 %s %s Z",
		num(cx+rOuter*math.Cos(s)), num(cy+rOuter*math.Sin(s)),
		num(rOuter), num(rOuter),
		num(cx+rOuter*math.Cos(e)), num(cy+rOuter*math.Sin(e)),
		num(cx+rInner*math.Cos(e)), num(cy+rInner*math.Sin(e)),
		num(rInner), num(rInner),
		num(cx+rInner*math.Cos(s)), num(cy+rInner*math.Sin(s)),
	)
}

// Uniform returns rates with v on every aspect, used to draw the
// aspect-independent verglas rate on a compass.
func Uniform(v float64) score.AspectRates {
	var r score.AspectRates
	for i := range r {
		r[i] = v
	}
	return r
}

func num(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
