package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/mock/gomock"

	"github.com/jfpDev/bankTransations/internal/domain"
	"github.com/jfpDev/bankTransations/internal/usecase"
	"github.com/jfpDev/bankTransations/internal/usecase/mocks"
)

var formNow = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

func newForm(submitter usecase.Submitter, mode usecase.Mode, opts ...usecase.FormOption) *usecase.FormController {
	opts = append([]usecase.FormOption{
		usecase.WithFormClock(func() time.Time { return formNow }),
		usecase.WithLocation(time.UTC),
	}, opts...)
	return usecase.NewFormController(submitter, mode, zerolog.Nop(), opts...)
}

func fillValid(t *testing.T, form *usecase.FormController) {
	t.Helper()
	values := map[domain.Field]string{
		domain.FieldAmount:           "15000",
		domain.FieldBusinessCategory: "Farmacia",
		domain.FieldCounterpartyName: "Juan Pérez",
		domain.FieldTransactionDate:  "2024-01-01T10:00",
	}
	for f, v := range values {
		if err := form.OnFieldChange(f, v); err != nil {
			t.Fatalf("change %s: %v", f, err)
		}
	}
}

func TestFormController_InitialState(t *testing.T) {
	ctrl := gomock.NewController(t)
	form := newForm(mocks.NewMockSubmitter(ctrl), usecase.CreateMode())

	if form.State() != usecase.FormEmpty {
		t.Fatalf("expected empty state, got %s", form.State())
	}
	if !form.Draft().IsBlank() {
		t.Fatalf("expected blank draft")
	}
	if form.Mode().IsEdit() {
		t.Fatalf("expected create mode")
	}
}

func TestFormController_EditModeWithZeroAmount(t *testing.T) {
	ctrl := gomock.NewController(t)
	existing := domain.Transaction{
		ID:               9,
		Amount:           0,
		BusinessCategory: "Regalo",
		CounterpartyName: "Eva",
		TransactionDate:  time.Date(2024, 2, 1, 8, 30, 0, 0, time.UTC),
	}

	form := newForm(mocks.NewMockSubmitter(ctrl), usecase.EditMode(existing))

	if !form.Mode().IsEdit() {
		t.Fatalf("expected edit mode for a zero-amount record")
	}
	if form.State() != usecase.FormEditing {
		t.Fatalf("expected editing state, got %s", form.State())
	}
	d := form.Draft()
	if d.Amount != "0" || d.TransactionDate != "2024-02-01T08:30" {
		t.Fatalf("unexpected cloned draft %+v", d)
	}
}

func TestFormController_ChangeClearsFieldError(t *testing.T) {
	ctrl := gomock.NewController(t)
	form := newForm(mocks.NewMockSubmitter(ctrl), usecase.CreateMode())

	if err := form.OnFieldChange(domain.FieldAmount, "-5"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if form.VisibleError(domain.FieldAmount) != "" {
		t.Fatalf("expected no visible error before blur")
	}

	if err := form.OnFieldBlur(domain.FieldAmount); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := form.VisibleError(domain.FieldAmount); got != "El monto no puede ser negativo" {
		t.Fatalf("unexpected visible error %q", got)
	}

	if err := form.OnFieldChange(domain.FieldAmount, "-50"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := form.Errors()[domain.FieldAmount]; got != "" {
		t.Fatalf("expected change to clear the error optimistically, got %q", got)
	}
}

func TestFormController_BlurOnlyValidatesOneField(t *testing.T) {
	ctrl := gomock.NewController(t)
	form := newForm(mocks.NewMockSubmitter(ctrl), usecase.CreateMode())

	if err := form.OnFieldBlur(domain.FieldBusinessCategory); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	errs := form.Errors()
	if errs[domain.FieldBusinessCategory] == "" {
		t.Fatalf("expected category error")
	}
	if errs[domain.FieldAmount] != "" || form.Touched(domain.FieldAmount) {
		t.Fatalf("expected other fields untouched, got %+v", errs)
	}
	if form.VisibleError(domain.FieldAmount) != "" {
		t.Fatalf("expected untouched field to show nothing")
	}

	if err := form.OnFieldBlur("id"); !errors.Is(err, domain.ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
}

func TestFormController_InvalidSubmitMakesNoRemoteCall(t *testing.T) {
	ctrl := gomock.NewController(t)
	submitter := mocks.NewMockSubmitter(ctrl)
	recorder := mocks.NewMockRecorder()
	form := newForm(submitter, usecase.CreateMode(), usecase.WithFormRecorder(recorder))

	if err := form.OnFieldChange(domain.FieldBusinessCategory, "Farmacia"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := form.Submit(context.Background())
	if err != nil {
		t.Fatalf("expected validation to stay local, got %v", err)
	}
	if result.Submitted {
		t.Fatalf("expected submission to be blocked")
	}
	if result.Errors[domain.FieldAmount] == "" || result.Errors[domain.FieldBusinessCategory] != "" {
		t.Fatalf("unexpected errors %+v", result.Errors)
	}

	for _, f := range domain.Fields {
		if !form.Touched(f) {
			t.Fatalf("expected %s to be touched after submit", f)
		}
	}
	if form.State() != usecase.FormEditing {
		t.Fatalf("expected editing state, got %s", form.State())
	}
	if recorder.Count(recorder.Submissions, "create/invalid") != 1 {
		t.Fatalf("expected invalid submission to be recorded")
	}
}

func TestFormController_SuccessfulCreateClearsForm(t *testing.T) {
	ctrl := gomock.NewController(t)
	submitter := mocks.NewMockSubmitter(ctrl)
	form := newForm(submitter, usecase.CreateMode())
	fillValid(t, form)

	submitter.EXPECT().CreateTransaction(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, tx domain.Transaction) (domain.Transaction, error) {
			if form.State() != usecase.FormSubmitting {
				t.Errorf("expected submitting state during the remote call, got %s", form.State())
			}
			if tx.Amount != 15000 || tx.CounterpartyName != "Juan Pérez" || tx.ID != 0 {
				t.Errorf("unexpected record %+v", tx)
			}
			tx.ID = 42
			return tx, nil
		})

	result, err := form.Submit(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Submitted || result.Record.ID != 42 {
		t.Fatalf("unexpected result %+v", result)
	}
	if form.State() != usecase.FormEmpty || !form.Draft().IsBlank() || form.Touched(domain.FieldAmount) {
		t.Fatalf("expected form to be cleared")
	}
}

func TestFormController_SuccessfulEditExitsEditMode(t *testing.T) {
	ctrl := gomock.NewController(t)
	submitter := mocks.NewMockSubmitter(ctrl)
	existing := domain.Transaction{
		ID:               7,
		Amount:           100,
		BusinessCategory: "Panadería",
		CounterpartyName: "Luis",
		TransactionDate:  time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	form := newForm(submitter, usecase.EditMode(existing))

	if err := form.OnFieldChange(domain.FieldAmount, "250"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	submitter.EXPECT().UpdateTransaction(gomock.Any(), int64(7), gomock.Any()).
		DoAndReturn(func(ctx context.Context, id int64, tx domain.Transaction) (domain.Transaction, error) {
			tx.ID = id
			return tx, nil
		})

	result, err := form.Submit(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Record.Amount != 250 {
		t.Fatalf("expected updated amount, got %+v", result.Record)
	}
	if form.Mode().IsEdit() || form.State() != usecase.FormEmpty {
		t.Fatalf("expected form to leave edit mode")
	}
}

func TestFormController_FailedSubmitKeepsDraft(t *testing.T) {
	ctrl := gomock.NewController(t)
	submitter := mocks.NewMockSubmitter(ctrl)
	form := newForm(submitter, usecase.CreateMode())
	fillValid(t, form)

	submitter.EXPECT().CreateTransaction(gomock.Any(), gomock.Any()).
		Return(domain.Transaction{}, domain.NewServiceFailure(429, "Too many requests", []string{"retry after 30s"}))

	before := form.Draft()

	_, err := form.Submit(context.Background())
	if !errors.Is(err, domain.ErrServiceFailure) {
		t.Fatalf("expected service failure, got %v", err)
	}

	if form.State() != usecase.FormEditing {
		t.Fatalf("expected editing state, got %s", form.State())
	}
	if form.Draft() != before {
		t.Fatalf("expected draft to be intact")
	}
	if form.Notice() != "Too many requests: retry after 30s" {
		t.Fatalf("unexpected notice %q", form.Notice())
	}
}

func TestFormController_RejectsReentrantSubmit(t *testing.T) {
	ctrl := gomock.NewController(t)
	submitter := mocks.NewMockSubmitter(ctrl)
	form := newForm(submitter, usecase.CreateMode())
	fillValid(t, form)

	submitter.EXPECT().CreateTransaction(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, tx domain.Transaction) (domain.Transaction, error) {
			if _, err := form.Submit(ctx); !errors.Is(err, domain.ErrSubmitInProgress) {
				t.Errorf("expected ErrSubmitInProgress, got %v", err)
			}
			if err := form.Cancel(); !errors.Is(err, domain.ErrSubmitInProgress) {
				t.Errorf("expected cancel to be rejected, got %v", err)
			}
			if err := form.OnFieldChange(domain.FieldAmount, "1"); !errors.Is(err, domain.ErrSubmitInProgress) {
				t.Errorf("expected change to be rejected, got %v", err)
			}
			tx.ID = 1
			return tx, nil
		}).Times(1)

	if _, err := form.Submit(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestFormController_CancelledCallerAfterAcceptedCreateResetsDraft(t *testing.T) {
	ctrl := gomock.NewController(t)
	submitter := mocks.NewMockSubmitter(ctrl)
	form := newForm(submitter, usecase.CreateMode())
	fillValid(t, form)

	ctx, cancel := context.WithCancel(context.Background())

	submitter.EXPECT().CreateTransaction(gomock.Any(), gomock.Any()).
		DoAndReturn(func(callCtx context.Context, tx domain.Transaction) (domain.Transaction, error) {
			cancel()
			if callCtx.Err() != nil {
				t.Errorf("expected the remote call to outlive the caller")
			}
			tx.ID = 3
			return tx, nil
		})

	result, err := form.Submit(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if !result.Submitted || result.Record.ID != 3 {
		t.Fatalf("expected remote outcome to be reported, got %+v", result)
	}
	if !form.Draft().IsBlank() {
		t.Fatalf("expected draft to be cleared once the record exists remotely")
	}
	if form.State() != usecase.FormEmpty {
		t.Fatalf("expected empty state, got %s", form.State())
	}
}

func TestFormController_CancelledCallerAfterFailedCreateKeepsDraft(t *testing.T) {
	ctrl := gomock.NewController(t)
	submitter := mocks.NewMockSubmitter(ctrl)
	form := newForm(submitter, usecase.CreateMode())
	fillValid(t, form)
	before := form.Draft()

	ctx, cancel := context.WithCancel(context.Background())

	submitter.EXPECT().CreateTransaction(gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, domain.Transaction) (domain.Transaction, error) {
			cancel()
			return domain.Transaction{}, domain.NewServiceFailure(500, "", nil)
		})

	result, err := form.Submit(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if result.Submitted {
		t.Fatalf("did not expect a submitted result")
	}
	if form.Draft() != before {
		t.Fatalf("expected draft to be intact")
	}
	if form.State() != usecase.FormEditing {
		t.Fatalf("expected editing state, got %s", form.State())
	}
}

func TestFormController_UnreadableResponseCountsAsSubmitted(t *testing.T) {
	ctrl := gomock.NewController(t)
	submitter := mocks.NewMockSubmitter(ctrl)
	form := newForm(submitter, usecase.CreateMode())
	fillValid(t, form)

	submitter.EXPECT().CreateTransaction(gomock.Any(), gomock.Any()).
		Return(domain.Transaction{}, domain.NewUnreadableResponseFailure(errors.New("decode response: EOF")))

	result, err := form.Submit(context.Background())
	if !errors.Is(err, domain.ErrLocalFailure) {
		t.Fatalf("expected local failure, got %v", err)
	}
	if !result.Submitted {
		t.Fatalf("expected the accepted write to be reported")
	}
	if !form.Draft().IsBlank() {
		t.Fatalf("expected draft to be cleared")
	}
	if form.Notice() != "decode response: EOF" {
		t.Fatalf("unexpected notice %q", form.Notice())
	}
}

func TestFormController_ClosedFormRejectsCalls(t *testing.T) {
	ctrl := gomock.NewController(t)
	form := newForm(mocks.NewMockSubmitter(ctrl), usecase.CreateMode())
	form.Close()

	if err := form.OnFieldChange(domain.FieldAmount, "1"); !errors.Is(err, domain.ErrFormClosed) {
		t.Fatalf("expected ErrFormClosed, got %v", err)
	}
	if _, err := form.Submit(context.Background()); !errors.Is(err, domain.ErrFormClosed) {
		t.Fatalf("expected ErrFormClosed, got %v", err)
	}
}

func TestFormController_CancelAndReset(t *testing.T) {
	ctrl := gomock.NewController(t)
	existing := domain.Transaction{ID: 1, Amount: 10, BusinessCategory: "A", CounterpartyName: "B", TransactionDate: formNow}
	form := newForm(mocks.NewMockSubmitter(ctrl), usecase.EditMode(existing))

	if err := form.OnFieldChange(domain.FieldCounterpartyName, "C"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := form.Reset(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if form.Draft().CounterpartyName != "B" || !form.Mode().IsEdit() {
		t.Fatalf("expected reset to restore the edited record, got %+v", form.Draft())
	}

	if err := form.Cancel(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if form.Mode().IsEdit() || form.State() != usecase.FormEmpty || !form.Draft().IsBlank() {
		t.Fatalf("expected cancel to leave edit mode with a blank form")
	}

	if err := form.Edit(existing); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if form.Draft().Amount != "10" {
		t.Fatalf("expected edit to load the record")
	}
}
