package score

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// Aspect is one of the eight compass directions a face can point toward.
type Aspect int

const (
	North Aspect = iota
	NorthEast
	East
	SouthEast
	South
	SouthWest
	West
	NorthWest
)

const (
	aspectCount = 8
	aspectWidth = 360.0 / aspectCount
)

var (
	aspectNames = [aspectCount]string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

	// Aspects lists all aspects clockwise from north.
	Aspects = []Aspect{North, NorthEast, East, SouthEast, South, SouthWest, West, NorthWest}
)

func (a Aspect) String() string {
	if a < 0 || a >= aspectCount {
		return "Aspect(" + strconv.Itoa(int(a)) + ")"
	}
	return aspectNames[a]
}

// Bearing returns the compass bearing (degrees) at the center of the aspect.
func (a Aspect) Bearing() float64 {
	return float64(a) * aspectWidth
}

// AspectFor returns the aspect whose ±22.5° sector contains bearing.
func AspectFor(bearing float64) Aspect {
	b := normalizeBearing(bearing)
	return Aspect(int(math.Floor((b+aspectWidth/2)/aspectWidth)) % aspectCount)
}

// ParseAspect parses a compass abbreviation such as "NE" (case insensitive).
func ParseAspect(s string) (Aspect, error) {
	v := strings.ToUpper(strings.TrimSpace(s))
	for i, n := range aspectNames {
		if n == v {
			return Aspect(i), nil
		}
	}
	return 0, fmt.Errorf("unknown aspect: %q", s)
}

// AspectRates holds one rate per aspect, indexed by Aspect.
type AspectRates [aspectCount]float64

// Get returns the rate for aspect a.
func (r AspectRates) Get(a Aspect) float64 {
	return r[a]
}

// At returns the rate of the aspect containing bearing.
func (r AspectRates) At(bearing float64) float64 {
	return r[AspectFor(bearing)]
}

// Max returns the highest rate and every aspect reaching it.
func (r AspectRates) Max() (float64, []Aspect) {
	m := floats.Max(r[:])
	list := make([]Aspect, 0, 1)
	for i, v := range r {
		if v == m {
			list = append(list, Aspect(i))
		}
	}
	return m, list
}

// Add accumulates o into r.
func (r *AspectRates) Add(o AspectRates) {
	floats.Add(r[:], o[:])
}

// Map returns the rates keyed by aspect abbreviation.
func (r AspectRates) Map() map[string]float64 {
	m := make(map[string]float64, aspectCount)
	for i, v := range r {
		m[aspectNames[i]] = v
	}
	return m
}

// MarshalJSON writes the rates as an object keyed by aspect, clockwise from N.
func (r AspectRates) MarshalJSON() ([]byte, error) {
	var b bytes.Buffer
	b.WriteByte('{')
	for i, v := range r {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Quote(aspectNames[i]))
		b.WriteByte(':')
		b.WriteString(strconv.FormatFloat(round(v), 'f', -1, 64))
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}

// UnmarshalJSON reads an object keyed by aspect abbreviation.
func (r *AspectRates) UnmarshalJSON(b []byte) error {
	var m map[string]float64
	if err := json.Unmarshal(b, &m); err != nil {
		return fmt.Errorf("decoding aspect rates: %w", err)
	}
	for k, v := range m {
		a, err := ParseAspect(k)
		if err != nil {
			return err
		}
		r[a] = v
	}
	return nil
}

// MarshalYAML writes the rates as a mapping keyed by aspect.
func (r AspectRates) MarshalYAML() (any, error) {
	m := r.Map()
	for k, v := range m {
		m[k] = round(v)
	}
	return m, nil
}
