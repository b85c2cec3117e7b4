// Package timeslot parses and validates the time ranges participants type in
// for a candidate date.
//
// Input arrives as free text, possibly with full-width numerals, and is
// normalised to four ASCII digits per endpoint ("HHMM"). A confirmed range is
// stored canonically as "HHMM-HHMM".
package timeslot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/width"
)

// DigitsPerClock is the number of digits of a complete HHMM value.
const DigitsPerClock = 4

var (
	// ErrInvalidFormat is returned when an endpoint does not have exactly four digits.
	ErrInvalidFormat = errors.New("timeslot: time must be four digits (HHMM)")
	// ErrInvalidHour is returned when the hour part is outside 00-23.
	ErrInvalidHour = errors.New("timeslot: hour must be between 00 and 23")
	// ErrInvalidMinute is returned when the minute part is outside 00-59.
	ErrInvalidMinute = errors.New("timeslot: minute must be between 00 and 59")
	// ErrRangeOrder is returned when the start is not strictly before the end.
	ErrRangeOrder = errors.New("timeslot: start must be before end")
)

// Endpoint names the part of a range a RangeError refers to.
type Endpoint string

const (
	EndpointStart Endpoint = "start"
	EndpointEnd   Endpoint = "end"
	EndpointRange Endpoint = "range"
)

// RangeError reports which endpoint failed validation. It wraps one of the
// sentinel errors of this package.
type RangeError struct {
	Endpoint Endpoint
	Input    string
	Err      error
}

func (e *RangeError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s %q: %v", e.Endpoint, e.Input, e.Err)
}

func (e *RangeError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// TimeSlot is a validated range in minutes from midnight plus the in-person flag.
type TimeSlot struct {
	Start    int
	End      int
	InPerson bool
}

// Range renders the canonical "HHMM-HHMM" form.
func (s TimeSlot) Range() string {
	return FormatHHMM(s.Start) + "-" + FormatHHMM(s.End)
}

// Minutes returns the length of the slot.
func (s TimeSlot) Minutes() int {
	return s.End - s.Start
}

// NormalizeDigits converts full-width numerals to ASCII, drops every other
// character and keeps at most four digits. Extra digits are ignored rather than
// rejected so the function can run on every keystroke.
func NormalizeDigits(raw string) string {
	narrowed := width.Narrow.String(raw)

	var b strings.Builder
	b.Grow(DigitsPerClock)
	for _, r := range narrowed {
		if r < '0' || r > '9' {
			continue
		}
		if b.Len() == DigitsPerClock {
			break
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ClampPartial normalises live input and pulls obviously out-of-range parts
// back into range: an hour above 23 becomes 23 and a complete minute value
// above 59 becomes 59. It never fails; use ParseAndValidateRange to confirm.
func ClampPartial(raw string) string {
	digits := NormalizeDigits(raw)
	if len(digits) >= 2 {
		if hours, _ := strconv.Atoi(digits[:2]); hours > 23 {
			digits = "23" + digits[2:]
		}
	}
	if len(digits) == DigitsPerClock {
		if minutes, _ := strconv.Atoi(digits[2:]); minutes > 59 {
			digits = digits[:2] + "59"
		}
	}
	return digits
}

// CheckPartial validates an endpoint while it is being typed. Any prefix
// shorter than four digits is acceptable; a complete value is range checked.
func CheckPartial(raw string) error {
	digits := NormalizeDigits(raw)
	if len(digits) < DigitsPerClock {
		return nil
	}
	_, err := parseClock(digits)
	return err
}

// ParseAndValidateRange normalises both endpoints and validates them as a
// range. Equal endpoints are rejected.
func ParseAndValidateRange(startRaw, endRaw string, inPerson bool) (TimeSlot, error) {
	start := NormalizeDigits(startRaw)
	end := NormalizeDigits(endRaw)

	if len(start) != DigitsPerClock {
		return TimeSlot{}, &RangeError{Endpoint: EndpointStart, Input: startRaw, Err: ErrInvalidFormat}
	}
	if len(end) != DigitsPerClock {
		return TimeSlot{}, &RangeError{Endpoint: EndpointEnd, Input: endRaw, Err: ErrInvalidFormat}
	}

	startMinutes, err := parseClock(start)
	if err != nil {
		return TimeSlot{}, &RangeError{Endpoint: EndpointStart, Input: startRaw, Err: err}
	}
	endMinutes, err := parseClock(end)
	if err != nil {
		return TimeSlot{}, &RangeError{Endpoint: EndpointEnd, Input: endRaw, Err: err}
	}

	if startMinutes >= endMinutes {
		return TimeSlot{}, &RangeError{Endpoint: EndpointRange, Input: start + "-" + end, Err: ErrRangeOrder}
	}

	return TimeSlot{Start: startMinutes, End: endMinutes, InPerson: inPerson}, nil
}

// ParseCanonical parses a stored "HHMM-HHMM" range. Unlike
// ParseAndValidateRange it does not normalise: both sides must already be four
// ASCII digits.
func ParseCanonical(text string) (start, end int, err error) {
	left, right, ok := strings.Cut(strings.TrimSpace(text), "-")
	if !ok {
		return 0, 0, &RangeError{Endpoint: EndpointRange, Input: text, Err: ErrInvalidFormat}
	}
	if !isClockDigits(left) {
		return 0, 0, &RangeError{Endpoint: EndpointStart, Input: left, Err: ErrInvalidFormat}
	}
	if !isClockDigits(right) {
		return 0, 0, &RangeError{Endpoint: EndpointEnd, Input: right, Err: ErrInvalidFormat}
	}
	if start, err = parseClock(left); err != nil {
		return 0, 0, &RangeError{Endpoint: EndpointStart, Input: left, Err: err}
	}
	if end, err = parseClock(right); err != nil {
		return 0, 0, &RangeError{Endpoint: EndpointEnd, Input: right, Err: err}
	}
	if start >= end {
		return 0, 0, &RangeError{Endpoint: EndpointRange, Input: text, Err: ErrRangeOrder}
	}
	return start, end, nil
}

// FormatHHMM renders minutes from midnight as zero-padded HHMM.
func FormatHHMM(minutes int) string {
	return fmt.Sprintf("%02d%02d", minutes/60, minutes%60)
}

// Label renders minutes from midnight as H:MM without a leading zero on the hour.
func Label(minutes int) string {
	return fmt.Sprintf("%d:%02d", minutes/60, minutes%60)
}

func parseClock(digits string) (int, error) {
	hours, err := strconv.Atoi(digits[:2])
	if err != nil {
		return 0, ErrInvalidFormat
	}
	minutes, err := strconv.Atoi(digits[2:])
	if err != nil {
		return 0, ErrInvalidFormat
	}
	if hours < 0 || hours > 23 {
		return 0, ErrInvalidHour
	}
	if minutes < 0 || minutes > 59 {
		return 0, ErrInvalidMinute
	}
	return hours*60 + minutes, nil
}

func isClockDigits(s string) bool {
	if len(s) != DigitsPerClock {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
