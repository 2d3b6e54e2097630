// Package selection coordinates picking a location on the map with the
// add-organization form. The form and the picking mode are never shown at
// the same time.
package selection

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/healthmap/internal/model"
)

// State is the machine state.
type State int

const (
	Idle State = iota
	SelectingLocation
	ConfirmingPoint
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case SelectingLocation:
		return "selecting_location"
	case ConfirmingPoint:
		return "confirming_point"
	default:
		return "unknown"
	}
}

// Errors returned for transitions that are not valid in the current state.
var (
	ErrNotSelecting  = eris.New("selection: not selecting a location")
	ErrNotConfirming = eris.New("selection: no point awaiting confirmation")
	ErrInvalidPoint  = eris.New("selection: point outside valid coordinates")
	ErrNilCallback   = eris.New("selection: callback is required")
)

// Callback receives the form snapshot and the confirmed point and returns
// the form to show.
type Callback[S any] func(form S, point model.Coordinates) S

// Listener applies the machine's visible effects.
type Listener[S any] interface {
	HideForm()
	ShowForm(form S)
	ShowTempMarker(p model.Coordinates)
	ClearTempMarker()
}

// Machine is the location-selection state machine. It is not safe for
// concurrent use; drive it from one goroutine or guard it externally.
type Machine[S any] struct {
	listener Listener[S]
	state    State
	snapshot S
	callback Callback[S]
	point    model.Coordinates
}

// New creates an idle Machine.
func New[S any](l Listener[S]) *Machine[S] {
	return &Machine[S]{listener: l}
}

// State returns the current state.
func (m *Machine[S]) State() State { return m.state }

// Picking reports whether the map is in picking mode.
func (m *Machine[S]) Picking() bool { return m.state != Idle }

// Point returns the point awaiting confirmation.
func (m *Machine[S]) Point() (model.Coordinates, bool) {
	return m.point, m.state == ConfirmingPoint
}

// Start enters picking mode, hiding the form. Calling Start while already
// picking only replaces the callback; the original snapshot is kept.
func (m *Machine[S]) Start(snapshot S, cb Callback[S]) error {
	if cb == nil {
		return ErrNilCallback
	}
	m.callback = cb
	if m.state != Idle {
		return nil
	}
	m.snapshot = snapshot
	m.state = SelectingLocation
	m.listener.HideForm()
	return nil
}

// Click proposes a point. A click while confirming moves the temporary marker.
func (m *Machine[S]) Click(lat, lng float64) error {
	if m.state == Idle {
		return ErrNotSelecting
	}
	if !model.ValidLatLng(lat, lng) {
		return eris.Wrapf(ErrInvalidPoint, "lat=%v lng=%v", lat, lng)
	}
	if m.state == ConfirmingPoint {
		m.listener.ClearTempMarker()
	}
	m.point = model.Coordinates{lat, lng}
	m.state = ConfirmingPoint
	m.listener.ShowTempMarker(m.point)
	return nil
}

// Confirm accepts the proposed point, invokes the callback once and reopens
// the form with the callback's result.
func (m *Machine[S]) Confirm() error {
	if m.state != ConfirmingPoint {
		return ErrNotConfirming
	}
	cb, snapshot, point := m.callback, m.snapshot, m.point
	m.reset()
	m.listener.ClearTempMarker()
	m.listener.ShowForm(cb(snapshot, point))
	return nil
}

// Reject discards the proposed point and returns to the form with the
// snapshot restored. The callback is not invoked.
func (m *Machine[S]) Reject() error {
	if m.state != ConfirmingPoint {
		return ErrNotConfirming
	}
	snapshot := m.snapshot
	m.reset()
	m.listener.ClearTempMarker()
	m.listener.ShowForm(snapshot)
	return nil
}

// Cancel leaves picking mode from any picking state and restores the form
// snapshot verbatim.
func (m *Machine[S]) Cancel() error {
	switch m.state {
	case Idle:
		return ErrNotSelecting
	case ConfirmingPoint:
		m.listener.ClearTempMarker()
	}
	snapshot := m.snapshot
	m.reset()
	m.listener.ShowForm(snapshot)
	return nil
}

func (m *Machine[S]) reset() {
	var zero S
	m.state = Idle
	m.snapshot = zero
	m.callback = nil
	m.point = model.Coordinates{}
}
