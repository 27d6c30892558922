package form

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/bluetecnologia/status_admin/internal/gateway"
	"github.com/bluetecnologia/status_admin/internal/modal"
	"github.com/bluetecnologia/status_admin/internal/models"
)

type Phase int

const (
	Closed Phase = iota
	Editing
	Submitting
)

func (p Phase) String() string {
	switch p {
	case Editing:
		return "editing"
	case Submitting:
		return "submitting"
	default:
		return "closed"
	}
}

// Mode is decided once per open modal: Create or Edit.
type Mode interface {
	mode() string
}

type Create struct{}

type Edit struct {
	Record models.ServiceRecord
}

func (Create) mode() string { return "create" }
func (Edit) mode() string   { return "edit" }

// ModeName returns "create", "edit" or "" for a nil mode.
func ModeName(m Mode) string {
	if m == nil {
		return ""
	}
	return m.mode()
}

// Navigator lets the form refresh and move the host view after a save.
type Navigator interface {
	Refresh()
	Navigate(path string)
}

type Outcome int

const (
	Saved Outcome = iota
	Invalid
	Failed
	Stale
	Busy
)

func (o Outcome) String() string {
	switch o {
	case Saved:
		return "saved"
	case Invalid:
		return "invalid"
	case Failed:
		return "failed"
	case Stale:
		return "stale"
	default:
		return "busy"
	}
}

// Result is what Submit hands back to the UI layer.
type Result struct {
	Outcome Outcome
	Record  models.ServiceRecord
	Errors  FieldErrors
	Err     error
}

// GatewayFailedMessage is shown above the fields when the store call fails.
const GatewayFailedMessage = "Não foi possível salvar o serviço. Tente novamente."

// View is a render snapshot of the form.
type View struct {
	Open      bool
	Phase     Phase
	Editing   bool
	RecordID  uint
	Values    Values
	Errors    FieldErrors
	FormError string
	Options   []models.StatusEntry
}

// Busy reports whether a submission is in flight; inputs render disabled.
func (v View) Busy() bool {
	return v.Phase == Submitting
}

type Deps struct {
	Gateway     gateway.Gateway
	Schema      *Schema
	Logger      *zap.Logger
	ListingPath string
	// Submissions is optional; labels are mode and outcome.
	Submissions *prometheus.CounterVec
}

// NewSubmissionCounter registers the counter used by Deps.Submissions.
func NewSubmissionCounter(reg prometheus.Registerer) *prometheus.CounterVec {
	c := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "status_admin",
		Subsystem: "form",
		Name:      "submissions_total",
		Help:      "Service form submissions by mode and outcome.",
	}, []string{"mode", "outcome"})
	if reg != nil {
		reg.MustRegister(c)
	}
	return c
}

// Form is the create/edit service modal of one UI session. It follows the
// session's modal store and never outlives it.
type Form struct {
	deps  Deps
	store *modal.Store

	mu      sync.Mutex
	phase   Phase
	mode    Mode
	token   string
	values  Values
	errors  FieldErrors
	formErr string
}

func New(store *modal.Store, deps Deps) *Form {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.ListingPath == "" {
		deps.ListingPath = "/"
	}
	return &Form{deps: deps, store: store}
}

// Sync moves the form to follow the modal store and returns what to render.
func (f *Form) Sync() View {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.syncLocked()
	return f.viewLocked()
}

// Cancel resets the fields and closes the modal.
func (f *Form) Cancel() {
	f.mu.Lock()
	f.closeLocked()
	f.mu.Unlock()
	f.store.Close()
}

// Submit validates in and, when valid, creates or updates the record.
// nav is only used after a successful save.
func (f *Form) Submit(ctx context.Context, in Values, nav Navigator) Result {
	f.mu.Lock()
	f.syncLocked()
	switch f.phase {
	case Closed:
		f.mu.Unlock()
		return f.count(nil, Result{Outcome: Stale})
	case Submitting:
		mode := f.mode
		f.mu.Unlock()
		return f.count(mode, Result{Outcome: Busy})
	}

	f.values = in
	f.formErr = ""
	if errs := f.deps.Schema.Validate(in); len(errs) > 0 {
		f.errors = errs
		mode := f.mode
		f.mu.Unlock()
		return f.count(mode, Result{Outcome: Invalid, Errors: errs})
	}
	f.errors = nil
	f.phase = Submitting
	token, mode := f.token, f.mode
	f.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	release, ok := f.store.Track(token, cancel)
	defer release()
	if !ok {
		return f.count(mode, f.discard(token, models.ServiceRecord{}))
	}

	rec := models.ServiceRecord{Name: in.Name, Status: in.Status}
	var (
		saved models.ServiceRecord
		err   error
	)
	switch m := mode.(type) {
	case Edit:
		saved, err = f.deps.Gateway.UpdateByID(ctx, m.Record.ID, rec)
	default:
		saved, err = f.deps.Gateway.Create(ctx, rec)
	}

	if err != nil {
		if st := f.store.State(); !st.IsOpen || st.Token != token {
			return f.count(mode, f.discard(token, saved))
		}
		f.mu.Lock()
		if f.token == token {
			f.phase = Editing
			f.formErr = GatewayFailedMessage
		}
		f.mu.Unlock()
		f.deps.Logger.Error("service submission failed",
			zap.String("mode", ModeName(mode)),
			zap.Uint("id", recordID(mode)),
			zap.String("name", in.Name),
			zap.Error(err))
		return f.count(mode, Result{Outcome: Failed, Err: err})
	}

	f.mu.Lock()
	if f.token != token || !f.store.CloseIf(token) {
		f.mu.Unlock()
		return f.count(mode, f.discard(token, saved))
	}
	f.closeLocked()
	f.mu.Unlock()

	f.deps.Logger.Info("service saved",
		zap.String("mode", ModeName(mode)),
		zap.Uint("id", saved.ID),
		zap.String("name", saved.Name),
		zap.String("status", saved.Status))
	if nav != nil {
		nav.Refresh()
		nav.Navigate(f.deps.ListingPath)
	}
	return f.count(mode, Result{Outcome: Saved, Record: saved})
}

// discard drops the result of a submission whose modal was closed or
// replaced while the call was running.
func (f *Form) discard(token string, rec models.ServiceRecord) Result {
	f.mu.Lock()
	if f.token == token && f.phase == Submitting {
		f.phase = Editing
	}
	f.syncLocked()
	f.mu.Unlock()
	f.deps.Logger.Debug("discarded result of a closed modal", zap.Uint("id", rec.ID))
	return Result{Outcome: Stale, Record: rec}
}

func (f *Form) syncLocked() {
	st := f.store.State()
	if !st.Shows(modal.CreateService) {
		if f.phase != Submitting {
			f.closeLocked()
		}
		return
	}
	if st.Token == f.token {
		return
	}
	f.token = st.Token
	if st.Data.Server != nil {
		rec := *st.Data.Server
		f.mode = Edit{Record: rec}
		f.values = Values{Name: rec.Name, Status: rec.Status}
	} else {
		f.mode = Create{}
		f.values = Values{}
	}
	f.errors = nil
	f.formErr = ""
	f.phase = Editing
}

func (f *Form) closeLocked() {
	f.phase = Closed
	f.mode = nil
	f.token = ""
	f.values = Values{}
	f.errors = nil
	f.formErr = ""
}

func (f *Form) viewLocked() View {
	v := View{
		Open:      f.phase != Closed,
		Phase:     f.phase,
		Values:    f.values,
		FormError: f.formErr,
		Options:   f.deps.Schema.Catalog().Entries(),
	}
	if len(f.errors) > 0 {
		v.Errors = make(FieldErrors, len(f.errors))
		for k, msg := range f.errors {
			v.Errors[k] = msg
		}
	}
	if e, ok := f.mode.(Edit); ok {
		v.Editing = true
		v.RecordID = e.Record.ID
	}
	return v
}

func (f *Form) count(mode Mode, r Result) Result {
	if f.deps.Submissions != nil {
		name := ModeName(mode)
		if name == "" {
			name = "none"
		}
		f.deps.Submissions.WithLabelValues(name, r.Outcome.String()).Inc()
	}
	return r
}

func recordID(m Mode) uint {
	if e, ok := m.(Edit); ok {
		return e.Record.ID
	}
	return 0
}
