package collect

import (
	"context"
	"fmt"
	"sync"

	"github.com/slok/magnetctl/internal/log"
	"github.com/slok/magnetctl/internal/model"
)

// Form is the user input used to create a task.
type Form struct {
	Magnet     string
	JobContext model.JobContext
}

// SessionConfig is the configuration for a collect session.
type SessionConfig struct {
	Controller *Controller
	// Guard is optional.
	Guard    *NavigationGuard
	Notifier Notifier
	Logger   log.Logger
}

func (c *SessionConfig) defaults() error {
	if c.Controller == nil {
		return fmt.Errorf("controller is required")
	}
	if c.Notifier == nil {
		c.Notifier = NoopNotifier
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "collect.Session"})
	return nil
}

// Session is the collect dialog: the form, the detail view of the task files and the
// close handling that keeps the session open while it's locked.
type Session struct {
	ctrl     *Controller
	guard    *NavigationGuard
	notifier Notifier
	logger   log.Logger

	// refreshMu serializes lock recomputations so the last computed value is the last applied.
	refreshMu sync.Mutex

	mu         sync.Mutex
	dialogOpen bool
	detailOpen bool
	form       Form
}

// NewSession returns a new closed session.
func NewSession(cfg SessionConfig) (*Session, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	s := &Session{
		ctrl:     cfg.Controller,
		guard:    cfg.Guard,
		notifier: cfg.Notifier,
		logger:   cfg.Logger,
	}
	s.ctrl.OnChange(func(State) { s.refresh() })

	return s, nil
}

// Show opens the session with a clean state.
func (s *Session) Show() error {
	if err := s.Init(); err != nil {
		return err
	}

	s.mu.Lock()
	s.dialogOpen = true
	s.mu.Unlock()
	s.refresh()

	return nil
}

// Init resets the task state and the form fields.
func (s *Session) Init() error {
	st := s.lockState()
	st.DialogOpen = true
	if IsLocked(st) {
		return fmt.Errorf("can't reset session: %w", model.ErrLocked)
	}

	s.ctrl.Reset()

	s.mu.Lock()
	s.form = Form{}
	s.detailOpen = false
	s.mu.Unlock()
	s.refresh()

	return nil
}

// SetForm sets the form fields.
func (s *Session) SetForm(f Form) error {
	if s.Locked() {
		return fmt.Errorf("can't edit the form: %w", model.ErrLocked)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.form = Form{Magnet: f.Magnet, JobContext: f.JobContext.Copy()}

	return nil
}

// Form returns the form fields.
func (s *Session) Form() Form {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Form{Magnet: s.form.Magnet, JobContext: s.form.JobContext.Copy()}
}

// CreateTask creates the task from the form.
func (s *Session) CreateTask(ctx context.Context) error {
	if s.Locked() {
		s.notifier.Warning("a task is already in progress")
		return fmt.Errorf("can't create a task: %w", model.ErrLocked)
	}

	f := s.Form()
	if err := model.ValidateMagnetURI(f.Magnet); err != nil {
		return err
	}
	if err := f.JobContext.Validate(); err != nil {
		return fmt.Errorf("invalid job context: %w", err)
	}

	return s.ctrl.Create(ctx, f.Magnet, f.JobContext)
}

// Cancel cancels the task.
func (s *Session) Cancel(ctx context.Context) error { return s.ctrl.Cancel(ctx) }

// Reset forgets the task without cancelling it.
func (s *Session) Reset() { s.ctrl.Reset() }

// HasTask returns true if a task is tracked.
func (s *Session) HasTask() bool { return s.ctrl.State().Task.ID != "" }

// Task returns the tracked task.
func (s *Session) Task() model.Task { return s.ctrl.State().Task }

// OpenDetail opens the detail view of the task files.
func (s *Session) OpenDetail() {
	s.mu.Lock()
	s.detailOpen = true
	s.mu.Unlock()
	s.refresh()
}

// CloseDetail closes the detail view.
func (s *Session) CloseDetail() {
	s.mu.Lock()
	s.detailOpen = false
	s.mu.Unlock()
	s.refresh()
}

// Organize organizes the task files and closes the detail view on success.
func (s *Session) Organize(ctx context.Context, plan model.OrganizePlan) error {
	if err := s.ctrl.Organize(ctx, plan); err != nil {
		return err
	}

	s.CloseDetail()
	return nil
}

// Close closes the session, it is refused while locked.
func (s *Session) Close() error {
	if s.Locked() {
		s.notifier.Warning("a task is in progress, exit it before closing")
		return fmt.Errorf("can't close session: %w", model.ErrLocked)
	}

	s.mu.Lock()
	s.dialogOpen = false
	s.mu.Unlock()
	s.refresh()

	return nil
}

// Dismissed handles a session closed by other means than Close. A locked session
// is reopened. Returns true if the session stays closed.
func (s *Session) Dismissed() bool {
	st := s.lockState()
	st.DialogOpen = true
	if IsLocked(st) {
		s.mu.Lock()
		s.dialogOpen = true
		s.mu.Unlock()
		s.refresh()
		s.notifier.Warning("a task is in progress, exit it before closing")
		return false
	}

	s.mu.Lock()
	s.dialogOpen = false
	s.mu.Unlock()
	s.refresh()

	return true
}

// Open returns true if the session is open.
func (s *Session) Open() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dialogOpen
}

// Locked returns true if the session can't be abandoned.
func (s *Session) Locked() bool { return IsLocked(s.lockState()) }

// LockState returns the current lock signals.
func (s *Session) LockState() LockState { return s.lockState() }

func (s *Session) lockState() LockState {
	// Controller state is read before taking our own mutex, never both at once.
	cs := s.ctrl.State()

	s.mu.Lock()
	defer s.mu.Unlock()

	return LockState{
		DialogOpen:      s.dialogOpen,
		LockAfterCreate: cs.LockAfterCreate,
		DetailOpen:      s.detailOpen,
		HasIdentifier:   cs.Task.ID != "",
		Status:          cs.Task.Status,
		Creating:        cs.Creating,
		Organizing:      cs.Organizing,
	}
}

func (s *Session) refresh() {
	if s.guard == nil {
		return
	}

	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()
	s.guard.Update(s.Locked())
}
