// Package chart builds the scatter plot description of a projection.
//
// The output is renderer-neutral: a list of points with colors and labels that
// maps one to one onto a Chart.js scatter dataset.
package chart

import (
	"errors"
	"fmt"

	"github.com/hupe1980/embedviz/codec"
)

const (
	// ReferenceColor marks the reference point.
	ReferenceColor = "red"
	// DefaultColor is used for every other point.
	DefaultColor = "grey"
	// LabelRunes is the maximum label length in runes.
	LabelRunes = 35
)

var (
	// ErrLengthMismatch is returned when texts and coordinates differ in length.
	ErrLengthMismatch = errors.New("chart: texts and coordinates differ in length")
	// ErrInvalidReference is returned when the reference index is out of range.
	ErrInvalidReference = errors.New("chart: reference index out of range")
	// ErrDimensions is returned when a coordinate has fewer than two components.
	ErrDimensions = errors.New("chart: coordinates need at least two dimensions")
)

// Point is one scatter point.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Scatter is a single-dataset scatter chart.
type Scatter struct {
	Points    []Point  `json:"points"`
	Colors    []string `json:"colors"`
	Labels    []string `json:"labels"`
	Reference int      `json:"reference"`
}

// Build lays out texts at coords, using the first two components of every
// coordinate, and highlights the reference point.
func Build(texts []string, coords [][]float64, reference int) (*Scatter, error) {
	if len(texts) != len(coords) {
		return nil, fmt.Errorf("%w: %d texts, %d coordinates", ErrLengthMismatch, len(texts), len(coords))
	}
	if reference < 0 || reference >= len(texts) {
		return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrInvalidReference, reference, len(texts))
	}

	s := &Scatter{
		Points:    make([]Point, len(coords)),
		Colors:    make([]string, len(coords)),
		Labels:    make([]string, len(texts)),
		Reference: reference,
	}
	for i, c := range coords {
		if len(c) < 2 {
			return nil, fmt.Errorf("%w: point %d has %d", ErrDimensions, i, len(c))
		}
		s.Points[i] = Point{X: c[0], Y: c[1]}
		s.Colors[i] = DefaultColor
		s.Labels[i] = Truncate(texts[i], LabelRunes)
	}
	s.Colors[reference] = ReferenceColor
	return s, nil
}

// Truncate shortens s to at most n runes.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

// Marshal encodes the chart with c, or codec.Default when c is nil.
func (s *Scatter) Marshal(c codec.Codec) ([]byte, error) {
	if c == nil {
		c = codec.Default
	}
	return c.Marshal(s)
}
