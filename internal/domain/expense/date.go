package expense

import (
	"errors"
	"time"
)

// APIDate is a calendar instant that unmarshals from either a bare ISO date
// ("2026-03-01") or a full RFC 3339 timestamp, matching what browser date
// inputs and API clients actually send.
type APIDate struct {
	t time.Time
}

var ErrInvalidDate = errors.New("invalid date")

// ParseDate accepts "2006-01-02" or RFC 3339. Bare dates resolve to midnight UTC.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.UTC(), nil
	}

	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}

	return time.Time{}, ErrInvalidDate
}

func NewAPIDate(t time.Time) *APIDate {
	return &APIDate{t: t.UTC()}
}

func (d APIDate) Time() time.Time {
	return d.t
}

func (d APIDate) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.t.UTC().Format(time.RFC3339) + `"`), nil
}

func (d *APIDate) UnmarshalJSON(b []byte) error {
	if len(b) < 2 || b[0] != '"' || b[len(b)-1] != '"' {
		return ErrInvalidDate
	}

	t, err := ParseDate(string(b[1 : len(b)-1]))
	if err != nil {
		return err
	}

	d.t = t
	return nil
}
