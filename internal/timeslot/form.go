package timeslot

import "errors"

// ErrFormClosed is returned when confirming while no date has an open form.
var ErrFormClosed = errors.New("timeslot: no time range form is open")

// FormState is the state of the per-response slot entry form.
type FormState int

const (
	// FormIdle means no date has an open input form.
	FormIdle FormState = iota
	// FormEntering means exactly one date is collecting a range.
	FormEntering
)

func (s FormState) String() string {
	switch s {
	case FormEntering:
		return "entering"
	default:
		return "idle"
	}
}

// DatedSlot is a confirmed slot together with the candidate date it belongs to.
type DatedSlot struct {
	Date string
	Slot TimeSlot
}

// Form holds the partial input of the slot entry form. It is a value: every
// transition returns a new Form and leaves the receiver untouched.
type Form struct {
	Date     string
	Start    string
	End      string
	InPerson bool
}

// State reports whether a date currently has an open form.
func (f Form) State() FormState {
	if f.Date == "" {
		return FormIdle
	}
	return FormEntering
}

// Open starts entry for date. Any partial input belonging to a previously open
// date is discarded and the in-person flag starts at defaultInPerson.
func (f Form) Open(date string, defaultInPerson bool) Form {
	if date == "" {
		return Form{}
	}
	return Form{Date: date, InPerson: defaultInPerson}
}

// TypeStart replaces the start input, clamped for live feedback.
func (f Form) TypeStart(raw string) Form {
	if f.State() != FormEntering {
		return f
	}
	f.Start = ClampPartial(raw)
	return f
}

// TypeEnd replaces the end input, clamped for live feedback.
func (f Form) TypeEnd(raw string) Form {
	if f.State() != FormEntering {
		return f
	}
	f.End = ClampPartial(raw)
	return f
}

// SetInPerson toggles the in-person flag of the open form.
func (f Form) SetInPerson(inPerson bool) Form {
	if f.State() != FormEntering {
		return f
	}
	f.InPerson = inPerson
	return f
}

// Cancel closes the form and drops the partial input.
func (f Form) Cancel() Form {
	return Form{}
}

// Confirm validates the open form. On success the form returns to idle and the
// confirmed slot is returned; on failure the form is returned unchanged.
func (f Form) Confirm() (Form, DatedSlot, error) {
	if f.State() != FormEntering {
		return f, DatedSlot{}, ErrFormClosed
	}
	slot, err := ParseAndValidateRange(f.Start, f.End, f.InPerson)
	if err != nil {
		return f, DatedSlot{}, err
	}
	return Form{}, DatedSlot{Date: f.Date, Slot: slot}, nil
}
