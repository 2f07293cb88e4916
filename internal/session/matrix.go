package session

import (
	"errors"
	"fmt"
	"strings"
)

// Format is the delivery mode of a live offering.
type Format string

const (
	FormatOneOnOne   Format = "one-on-one"
	FormatSmallGroup Format = "small-group"
	FormatLargeGroup Format = "large-group"
)

// Formats lists the supported session formats in display order.
func Formats() []Format {
	return []Format{FormatOneOnOne, FormatSmallGroup, FormatLargeGroup}
}

// ParseFormat maps a raw string onto a known Format.
func ParseFormat(raw string) (Format, error) {
	candidate := Format(strings.ToLower(strings.TrimSpace(raw)))
	for _, f := range Formats() {
		if f == candidate {
			return f, nil
		}
	}
	return "", fmt.Errorf("%q: %w", raw, ErrUnknownFormat)
}

// Axis names one adjustable dimension of the session matrix.
type Axis string

const (
	AxisSessionsPerWeek Axis = "sessionsPerWeek"
	AxisHoursPerSession Axis = "hoursPerSession"
)

// ErrInvalidMatrix indicates the matrix itself breaks its range invariants.
var ErrInvalidMatrix = errors.New("invalid session matrix")

// Range is an inclusive integer interval with a preselected default.
type Range struct {
	Min     int `json:"min"`
	Max     int `json:"max"`
	Default int `json:"default"`
}

// Contains reports whether v lies within the inclusive range.
func (r Range) Contains(v int) bool {
	return v >= r.Min && v <= r.Max
}

// Matrix holds the legal session cadence for an offering.
type Matrix struct {
	SessionsPerWeek Range `json:"sessionsPerWeek"`
	HoursPerSession Range `json:"hoursPerSession"`
	TotalHoursLimit int   `json:"totalHoursLimit"`
}

// Check verifies min <= default <= max on both axes and a positive weekly limit.
func (m Matrix) Check() error {
	for _, axis := range []Axis{AxisSessionsPerWeek, AxisHoursPerSession} {
		r := m.rangeFor(axis)
		if r.Min < 1 || r.Min > r.Default || r.Default > r.Max {
			return fmt.Errorf("%w: %s range %d..%d default %d", ErrInvalidMatrix, axis, r.Min, r.Max, r.Default)
		}
	}
	if m.TotalHoursLimit <= 0 {
		return fmt.Errorf("%w: totalHoursLimit must be positive", ErrInvalidMatrix)
	}
	return nil
}

// OptionsFor returns every selectable value for the axis, from min to max inclusive.
func (m Matrix) OptionsFor(axis Axis) []int {
	r := m.rangeFor(axis)
	if r.Max < r.Min {
		return nil
	}
	out := make([]int, 0, r.Max-r.Min+1)
	for v := r.Min; v <= r.Max; v++ {
		out = append(out, v)
	}
	return out
}

// DefaultCustomization returns the matrix defaults in the given format.
func (m Matrix) DefaultCustomization(format Format) Customization {
	return Customization{
		SessionsPerWeek: m.SessionsPerWeek.Default,
		HoursPerSession: m.HoursPerSession.Default,
		Format:          format,
	}
}

func (m Matrix) rangeFor(axis Axis) Range {
	if axis == AxisHoursPerSession {
		return m.HoursPerSession
	}
	return m.SessionsPerWeek
}

// Customization is the buyer's proposed session configuration.
type Customization struct {
	SessionsPerWeek    int      `json:"sessionsPerWeek"`
	HoursPerSession    int      `json:"hoursPerSession"`
	Format             Format   `json:"sessionFormat"`
	PreferredDays      []string `json:"preferredDays,omitempty"`
	PreferredTimeSlots []string `json:"preferredTimeSlots,omitempty"`
}

// HoursPerWeek is the weekly contact time of the configuration.
func (c Customization) HoursPerWeek() int {
	return c.SessionsPerWeek * c.HoursPerSession
}
