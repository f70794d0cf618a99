package shared

import (
	"context"
	"sync"

	"github.com/go-playground/validator/v10"

	internalShared "github.com/contractor-desk/contractor-desk/internal/shared"
)

// Mode tells whether an open form creates or edits a record.
type Mode int

const (
	ModeCreate Mode = iota + 1
	ModeEdit
)

func (m Mode) String() string {
	switch m {
	case ModeCreate:
		return "create"
	case ModeEdit:
		return "edit"
	default:
		return "closed"
	}
}

// Target identifies what a submitted draft should be saved as.
type Target struct {
	Mode Mode
	// ID is set in ModeEdit.
	ID string
}

// SaveFunc persists a validated draft.
type SaveFunc[D any] func(ctx context.Context, target Target, draft D) error

// FormState is a point-in-time copy of a Form for rendering.
type FormState[D any] struct {
	Open       bool
	Mode       Mode
	EditingID  string
	Draft      D
	Submitting bool
	Err        error
}

// Form holds one create/edit draft. Closed forms carry no draft.
type Form[R Record[R, D], D any] struct {
	validate *validator.Validate

	mu         sync.Mutex
	open       bool
	mode       Mode
	editingID  string
	draft      D
	submitting bool
	lastErr    error
	// generation changes on every open/close so a late save result cannot
	// touch a form that has since been re-opened.
	generation uint64
}

// NewForm returns a closed form. A nil validator gets NewValidator().
func NewForm[R Record[R, D], D any](v *validator.Validate) *Form[R, D] {
	if v == nil {
		v = NewValidator()
	}
	return &Form[R, D]{validate: v}
}

// OpenForCreate opens the form with an empty draft.
func (f *Form[R, D]) OpenForCreate() {
	f.mu.Lock()
	defer f.mu.Unlock()
	var empty D
	f.reset(true, ModeCreate, "", empty)
}

// OpenForEdit opens the form with the record's mutable fields.
func (f *Form[R, D]) OpenForEdit(r R) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reset(true, ModeEdit, r.Key(), r.Draft())
}

// Close discards the draft.
func (f *Form[R, D]) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	var empty D
	f.reset(false, 0, "", empty)
}

// SetDraft replaces the draft with the user's edits.
func (f *Form[R, D]) SetDraft(d D) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.open {
		return internalShared.ErrFormClosed
	}
	if f.submitting {
		return internalShared.ErrBusy
	}
	f.draft = d
	return nil
}

// State returns a copy of the form.
func (f *Form[R, D]) State() FormState[D] {
	f.mu.Lock()
	defer f.mu.Unlock()
	return FormState[D]{
		Open:       f.open,
		Mode:       f.mode,
		EditingID:  f.editingID,
		Draft:      f.draft,
		Submitting: f.submitting,
		Err:        f.lastErr,
	}
}

// Submit validates the draft and hands it to save. On success the form
// closes; on failure it stays open with the draft intact and the error kept.
func (f *Form[R, D]) Submit(ctx context.Context, save SaveFunc[D]) error {
	f.mu.Lock()
	if !f.open {
		f.mu.Unlock()
		return internalShared.ErrFormClosed
	}
	if f.submitting {
		f.mu.Unlock()
		return internalShared.ErrBusy
	}
	draft := f.draft
	target := Target{Mode: f.mode, ID: f.editingID}
	if err := ValidateDraft(f.validate, draft); err != nil {
		f.lastErr = err
		f.mu.Unlock()
		return err
	}
	f.submitting = true
	f.lastErr = nil
	gen := f.generation
	f.mu.Unlock()

	err := save(ctx, target, draft)

	f.mu.Lock()
	defer f.mu.Unlock()
	if gen != f.generation {
		return err
	}
	f.submitting = false
	if err != nil {
		f.lastErr = err
		return err
	}
	var empty D
	f.reset(false, 0, "", empty)
	return nil
}

// reset requires f.mu.
func (f *Form[R, D]) reset(open bool, mode Mode, id string, draft D) {
	f.open = open
	f.mode = mode
	f.editingID = id
	f.draft = draft
	f.submitting = false
	f.lastErr = nil
	f.generation++
}
