package mapview

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/healthmap/internal/dataset"
	"github.com/sells-group/healthmap/internal/intake"
	"github.com/sells-group/healthmap/internal/markers"
	"github.com/sells-group/healthmap/internal/model"
	"github.com/sells-group/healthmap/internal/selection"
)

// pickListener applies selection effects. The machine only runs while the
// session mutex is held.
type pickListener struct {
	s *Session
}

func (l pickListener) HideForm() { l.s.form.Hide() }

func (l pickListener) ShowForm(f intake.FormData) { l.s.form.Show(f) }

func (l pickListener) ShowTempMarker(p model.Coordinates) {
	m := markers.TempMarker(p, l.s.layer.Mobile())
	if err := l.s.renderer.AddMarker(m); err != nil {
		zap.L().Warn("mapview: temporary marker rejected", zap.Error(err))
	}
}

func (l pickListener) ClearTempMarker() { l.s.renderer.RemoveMarker(markers.TempMarkerID) }

func withPoint(f intake.FormData, p model.Coordinates) intake.FormData {
	return f.WithCoordinates(p)
}

// OpenForm shows the add-organization form.
func (s *Session) OpenForm() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saving {
		return ErrSaving
	}
	if s.machine.Picking() {
		return ErrPicking
	}
	s.form.Open()
	return nil
}

// CloseForm hides and resets the form, abandoning any location pick. The
// form cannot be closed while its submission is being saved.
func (s *Session) CloseForm() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saving {
		return ErrSaving
	}
	if s.machine.Picking() {
		_ = s.machine.Cancel()
	}
	s.form.Close()
	return nil
}

// FormVisible reports whether the form is shown.
func (s *Session) FormVisible() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form.Visible()
}

// Form returns the current form data.
func (s *Session) Form() intake.FormData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form.Data()
}

// FormErrors returns the translated field errors of the last submit.
func (s *Session) FormErrors() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string)
	for field, key := range s.form.Errors() {
		out[field] = s.translate(key, nil)
	}
	return out
}

// SetField edits one form field.
func (s *Session) SetField(field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saving {
		return ErrSaving
	}
	if !s.form.Visible() {
		return ErrFormClosed
	}
	return s.form.Set(field, value)
}

// PickState returns the location picker state.
func (s *Session) PickState() selection.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.State()
}

// PendingPoint returns the point awaiting confirmation.
func (s *Session) PendingPoint() (model.Coordinates, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.Point()
}

// StartLocationPick hides the form and waits for a map click. While already
// picking it is a no-op.
func (s *Session) StartLocationPick() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saving {
		return ErrSaving
	}
	if !s.machine.Picking() && !s.form.Visible() {
		return ErrFormClosed
	}
	return s.machine.Start(s.form.Data(), withPoint)
}

// ChangeLocation drops the selected point and starts a new pick.
func (s *Session) ChangeLocation() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saving {
		return ErrSaving
	}
	if s.machine.Picking() {
		return ErrPicking
	}
	if !s.form.Visible() {
		return ErrFormClosed
	}
	s.form.ClearCoordinates()
	return s.machine.Start(s.form.Data(), withPoint)
}

// MapClick proposes the clicked point while picking. Outside picking mode
// it returns selection.ErrNotSelecting and changes nothing.
func (s *Session) MapClick(lat, lng float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.Click(lat, lng)
}

// ConfirmPoint accepts the proposed point and reopens the form with it.
func (s *Session) ConfirmPoint() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.Confirm()
}

// RejectPoint discards the proposed point and reopens the form unchanged.
func (s *Session) RejectPoint() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.Reject()
}

// CancelPick leaves picking mode and reopens the form unchanged.
func (s *Session) CancelPick() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.Cancel()
}

// Submit validates the form, shows the new organization immediately and
// saves it. A failed save removes the marker again and keeps the form open.
// Validation failures return intake.ErrInvalid; see FormErrors. Only one
// submission is in flight at a time; the form is frozen until it settles.
func (s *Session) Submit(ctx context.Context) (dataset.SaveResult, error) {
	s.mu.Lock()
	if s.saving {
		s.mu.Unlock()
		return dataset.SaveResult{}, ErrSaving
	}
	if s.machine.Picking() {
		s.mu.Unlock()
		return dataset.SaveResult{}, ErrPicking
	}
	if !s.form.Visible() {
		s.mu.Unlock()
		return dataset.SaveResult{}, ErrFormClosed
	}
	org, _, err := s.form.Submit(s.normalizer.NewID())
	if err != nil {
		s.mu.Unlock()
		return dataset.SaveResult{}, err
	}
	s.hook.AppendOptimistic(org)
	s.redrawLocked()
	s.saving = true
	s.mu.Unlock()

	res, err := s.hook.Save(ctx, org)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.saving = false
	if err != nil {
		s.hook.Rollback(org.ID)
		s.redrawLocked()
		zap.L().Warn("mapview: save failed", zap.String("id", org.ID), zap.Error(err))
		return res, s.userError("saveFailed", err)
	}
	s.hook.Commit(org.ID)
	s.form.Close()
	zap.L().Info("mapview: organization added", zap.String("id", org.ID), zap.String("type", string(org.Type)))
	return res, nil
}
