package session

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfRangeAxis is wrapped when an axis value falls outside its matrix range.
	ErrOutOfRangeAxis = errors.New("session axis out of range")
	// ErrTotalHoursExceeded is wrapped when weekly hours exceed the matrix limit.
	ErrTotalHoursExceeded = errors.New("weekly hours exceed limit")
	// ErrUnknownFormat is wrapped when the session format is not supported.
	ErrUnknownFormat = errors.New("unknown session format")
)

// Kind classifies a validation failure.
type Kind string

const (
	KindOutOfRangeAxis     Kind = "OutOfRangeAxis"
	KindTotalHoursExceeded Kind = "TotalHoursExceeded"
	KindUnknownFormat      Kind = "UnknownFormat"
)

// ValidationError describes the constraint a customization violates.
type ValidationError struct {
	Kind   Kind   `json:"kind"`
	Axis   Axis   `json:"axis,omitempty"`
	Value  int    `json:"value,omitempty"`
	Min    int    `json:"min,omitempty"`
	Max    int    `json:"max,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Format Format `json:"format,omitempty"`
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case KindOutOfRangeAxis:
		return fmt.Sprintf("%s must be between %d and %d, got %d", e.Axis, e.Min, e.Max, e.Value)
	case KindTotalHoursExceeded:
		return fmt.Sprintf("weekly hours exceed the limit of %d", e.Limit)
	case KindUnknownFormat:
		return fmt.Sprintf("unknown session format %q", e.Format)
	default:
		return "invalid session configuration"
	}
}

// Unwrap maps the kind onto its sentinel error.
func (e *ValidationError) Unwrap() error {
	switch e.Kind {
	case KindOutOfRangeAxis:
		return ErrOutOfRangeAxis
	case KindTotalHoursExceeded:
		return ErrTotalHoursExceeded
	case KindUnknownFormat:
		return ErrUnknownFormat
	default:
		return nil
	}
}

// Validate checks c against m. It never clamps: the caller keeps the last valid
// selection and re-renders the violated constraint.
func Validate(m Matrix, c Customization) error {
	if !m.SessionsPerWeek.Contains(c.SessionsPerWeek) {
		return outOfRange(AxisSessionsPerWeek, c.SessionsPerWeek, m.SessionsPerWeek)
	}
	if !m.HoursPerSession.Contains(c.HoursPerSession) {
		return outOfRange(AxisHoursPerSession, c.HoursPerSession, m.HoursPerSession)
	}
	if hours := c.HoursPerWeek(); hours > m.TotalHoursLimit {
		return &ValidationError{Kind: KindTotalHoursExceeded, Value: hours, Limit: m.TotalHoursLimit}
	}
	if _, err := ParseFormat(string(c.Format)); err != nil {
		return &ValidationError{Kind: KindUnknownFormat, Format: c.Format}
	}
	return nil
}

func outOfRange(axis Axis, value int, r Range) *ValidationError {
	return &ValidationError{Kind: KindOutOfRangeAxis, Axis: axis, Value: value, Min: r.Min, Max: r.Max}
}
