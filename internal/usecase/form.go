package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jfpDev/bankTransations/internal/domain"
)

// FormState is the lifecycle state of a FormController.
type FormState int

const (
	FormEmpty FormState = iota
	FormEditing
	FormSubmitting
)

func (s FormState) String() string {
	switch s {
	case FormEditing:
		return "editing"
	case FormSubmitting:
		return "submitting"
	default:
		return "empty"
	}
}

// Mode says whether the form creates a new record or edits an existing one.
// It is derived from the presence of a record, never from field values.
type Mode struct {
	existing *domain.Transaction
}

// CreateMode is the mode of a form that creates a new record.
func CreateMode() Mode {
	return Mode{}
}

// EditMode is the mode of a form that edits existing.
func EditMode(existing domain.Transaction) Mode {
	return Mode{existing: &existing}
}

// Existing returns the record being edited, if any.
func (m Mode) Existing() (domain.Transaction, bool) {
	if m.existing == nil {
		return domain.Transaction{}, false
	}
	return *m.existing, true
}

// IsEdit reports whether the form edits an existing record.
func (m Mode) IsEdit() bool {
	return m.existing != nil
}

func (m Mode) String() string {
	if m.IsEdit() {
		return "edit"
	}
	return "create"
}

// SubmitResult is the outcome of FormController.Submit.
type SubmitResult struct {
	// Submitted is true when the remote service accepted the record.
	Submitted bool
	Record    domain.Transaction
	// Errors holds the field errors when validation blocked the submission.
	Errors domain.FieldErrors
}

// FormOption configures a FormController.
type FormOption func(*FormController)

// WithFormClock replaces time.Now as the validation instant.
func WithFormClock(now func() time.Time) FormOption {
	return func(c *FormController) {
		c.now = now
	}
}

// WithLocation sets the zone used for zone-less date input.
func WithLocation(loc *time.Location) FormOption {
	return func(c *FormController) {
		if loc != nil {
			c.loc = loc
		}
	}
}

// WithFormRecorder sets the metrics recorder.
func WithFormRecorder(r Recorder) FormOption {
	return func(c *FormController) {
		if r != nil {
			c.recorder = r
		}
	}
}

// FormController owns the draft, touched set and field errors of one
// create/edit form and drives its submission.
type FormController struct {
	submitter Submitter
	logger    zerolog.Logger
	recorder  Recorder
	now       func() time.Time
	loc       *time.Location

	mu      sync.Mutex
	mode    Mode
	state   FormState
	draft   domain.Draft
	touched map[domain.Field]bool
	errors  domain.FieldErrors
	notice  string
	closed  bool
}

// NewFormController creates a FormController in the given mode.
func NewFormController(submitter Submitter, mode Mode, logger zerolog.Logger, opts ...FormOption) *FormController {
	c := &FormController{
		submitter: submitter,
		logger:    logger,
		recorder:  nopRecorder{},
		now:       time.Now,
		loc:       time.Local,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.enter(mode)
	return c
}

// enter resets every piece of form state for mode. Callers hold c.mu or own c.
func (c *FormController) enter(mode Mode) {
	c.mode = mode
	c.touched = make(map[domain.Field]bool, len(domain.Fields))
	c.errors = domain.NewFieldErrors()
	c.notice = ""

	if existing, ok := mode.Existing(); ok {
		c.draft = domain.DraftFromTransaction(existing, c.loc)
		c.state = FormEditing
		return
	}

	c.draft = domain.Draft{}
	c.state = FormEmpty
}

// State returns the current lifecycle state.
func (c *FormController) State() FormState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Mode returns the current mode.
func (c *FormController) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// Draft returns a copy of the current draft.
func (c *FormController) Draft() domain.Draft {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// Errors returns a copy of the field-error map.
func (c *FormController) Errors() domain.FieldErrors {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errors.Clone()
}

// Touched reports whether f was blurred or submitted.
func (c *FormController) Touched(f domain.Field) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.touched[f]
}

// VisibleError returns the message to show for f: only touched fields with a
// non-empty error are shown.
func (c *FormController) VisibleError(f domain.Field) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.touched[f] {
		return ""
	}
	return c.errors[f]
}

// Notice returns the last failure notification, "" if none.
func (c *FormController) Notice() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.notice
}

// OnFieldChange stores value in the draft and clears any error on f.
func (c *FormController) OnFieldChange(f domain.Field, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkIdle(); err != nil {
		return err
	}

	if err := c.draft.Set(f, value); err != nil {
		return err
	}

	c.errors[f] = ""
	c.state = FormEditing
	return nil
}

// OnFieldBlur marks f touched and recomputes its error only.
func (c *FormController) OnFieldBlur(f domain.Field) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkIdle(); err != nil {
		return err
	}

	if !f.Valid() {
		return domain.ErrUnknownField
	}

	c.touched[f] = true
	c.errors[f] = domain.ValidateField(c.draft, f, c.now().In(c.loc))
	c.state = FormEditing
	return nil
}

// Submit validates the draft and, when it is valid, sends it to the remote
// service. Validation failures are reported through SubmitResult.Errors with a
// nil error. A remote failure is returned as a *domain.Failure and leaves the
// draft intact. The remote call is not cancelled with ctx; if ctx ends or the
// form is closed first, the outcome is not applied to the form.
func (c *FormController) Submit(ctx context.Context) (SubmitResult, error) {
	c.mu.Lock()

	if err := c.checkIdle(); err != nil {
		c.mu.Unlock()
		return SubmitResult{}, err
	}

	for _, f := range domain.Fields {
		c.touched[f] = true
	}

	validation := domain.Validate(c.draft, c.now().In(c.loc))
	c.errors = validation.Errors
	c.state = FormEditing
	mode := c.mode

	if !validation.IsValid {
		errs := c.errors.Clone()
		c.mu.Unlock()
		c.recorder.FormSubmitted(mode.String(), SubmitInvalid)
		return SubmitResult{Errors: errs}, nil
	}

	record, err := c.draft.ToTransaction(c.loc)
	if err != nil {
		failure := domain.NewLocalFailure(err)
		c.notice = failure.Message
		c.mu.Unlock()
		c.recorder.FormSubmitted(mode.String(), SubmitFailed)
		return SubmitResult{}, failure
	}

	c.state = FormSubmitting
	c.notice = ""
	c.mu.Unlock()

	saved, err := c.send(context.WithoutCancel(ctx), mode, record)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return SubmitResult{Submitted: err == nil, Record: saved}, domain.ErrFormClosed
	}

	accepted := err == nil || domain.WasAccepted(err)

	if ctxErr := ctx.Err(); ctxErr != nil {
		if accepted {
			// the record exists remotely; keeping the draft would invite a duplicate
			c.enter(CreateMode())
		} else {
			c.state = FormEditing
		}
		return SubmitResult{Submitted: accepted, Record: saved}, ctxErr
	}

	if err != nil && accepted {
		failure := domain.AsFailure(err)
		c.recorder.FormSubmitted(mode.String(), SubmitSucceeded)
		c.logger.Warn().
			Str("mode", mode.String()).
			Str("error", failure.Message).
			Msg("transaction submitted but the response could not be read")
		c.enter(CreateMode())
		c.notice = failure.Message
		return SubmitResult{Submitted: true}, failure
	}

	if err != nil {
		failure := domain.AsFailure(err)
		c.state = FormEditing
		c.notice = failure.Message
		c.recorder.FormSubmitted(mode.String(), SubmitFailed)
		c.logger.Warn().
			Str("mode", mode.String()).
			Int("status", failure.HTTPStatus).
			Str("error", failure.Message).
			Msg("transaction submit failed")
		return SubmitResult{}, failure
	}

	c.recorder.FormSubmitted(mode.String(), SubmitSucceeded)
	c.logger.Info().
		Str("mode", mode.String()).
		Int64("id", saved.ID).
		Msg("transaction submitted")

	c.enter(CreateMode())
	return SubmitResult{Submitted: true, Record: saved}, nil
}

func (c *FormController) send(ctx context.Context, mode Mode, record domain.Transaction) (domain.Transaction, error) {
	if existing, ok := mode.Existing(); ok {
		return c.submitter.UpdateTransaction(ctx, existing.ID, record)
	}
	return c.submitter.CreateTransaction(ctx, record)
}

// Edit switches the form to editing existing.
func (c *FormController) Edit(existing domain.Transaction) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkIdle(); err != nil {
		return err
	}

	c.enter(EditMode(existing))
	return nil
}

// Cancel discards all form state and leaves edit mode.
func (c *FormController) Cancel() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkIdle(); err != nil {
		return err
	}

	c.enter(CreateMode())
	return nil
}

// Reset discards all form state and starts over in the current mode.
func (c *FormController) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkIdle(); err != nil {
		return err
	}

	c.enter(c.mode)
	return nil
}

// Close detaches the consumer; later calls return domain.ErrFormClosed and
// in-flight submissions are not applied.
func (c *FormController) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *FormController) checkIdle() error {
	if c.closed {
		return domain.ErrFormClosed
	}
	if c.state == FormSubmitting {
		return domain.ErrSubmitInProgress
	}
	return nil
}
