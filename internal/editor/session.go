package editor

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/smartinstall/field-reports/internal"
	"github.com/smartinstall/field-reports/internal/report"
	"github.com/smartinstall/field-reports/pkg/logger"
)

// ErrSaveInFlight rejects a manual action while another write for the
// same session is still outstanding.
var ErrSaveInFlight = internal.NewValidationError("another save is in progress", internal.ErrCodeSaveInFlight)

// Session owns the editing state for one report at a time. Server
// snapshots arrive through Poll or ApplySnapshot; local edits through
// the Edit* methods. The merge rule is last-writer-wins biased toward
// the active local editor: a server change is adopted only once the
// edit cooldown has elapsed.
//
// All state is session-scoped. Navigating to another date resets it.
type Session struct {
	mu    sync.Mutex
	cfg   Config
	store Store
	log   *slog.Logger

	// now is swappable for tests.
	now func() time.Time

	date     string
	reportID int64
	status   string
	earnings int64
	objectID *int64
	workLog  report.WorkLog

	// lastLocalEdit is zero when no local edits happened since load.
	lastLocalEdit  time.Time
	lastServerHash string

	// autosaveAt is zero when no autosave is pending.
	autosaveAt   time.Time
	saveInFlight bool

	saveState   SaveState
	saveStateAt time.Time
}

func NewSession(store Store, cfg Config) *Session {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Session{
		cfg:    cfg.withDefaults(),
		store:  store,
		log:    lg,
		now:    time.Now,
		status: report.StatusDraft,
	}
}

// SelectDate switches the session to another date: any pending
// autosave is cancelled, local-edit tracking resets, and state
// re-initializes from the server snapshot for that date (empty draft
// when none exists).
func (s *Session) SelectDate(ctx context.Context, date string) error {
	if !report.ValidDate(date) {
		return internal.NewValidationError("invalid date format, expected YYYY-MM-DD", internal.ErrCodeInvalidDate)
	}

	snap, err := s.store.Fetch(ctx, date)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.date = date
	s.lastLocalEdit = time.Time{}
	s.autosaveAt = time.Time{}
	s.saveState = SaveIdle

	if snap == nil {
		s.reportID = 0
		s.status = report.StatusDraft
		s.earnings = 0
		s.objectID = nil
		s.workLog = nil
		s.lastServerHash = report.WorkLog(nil).Fingerprint()
		return nil
	}

	s.adoptLocked(snap)
	return nil
}

// Poll fetches the current snapshot and merges it. Also called on
// tab-focus resume.
func (s *Session) Poll(ctx context.Context) error {
	s.mu.Lock()
	date := s.date
	s.mu.Unlock()
	if date == "" {
		return nil
	}

	snap, err := s.store.Fetch(ctx, date)
	if err != nil {
		return err
	}
	s.ApplySnapshot(snap)
	return nil
}

// Refresh runs an immediate poll. Callers invoke it when the app
// regains visibility instead of waiting for the next interval.
func (s *Session) Refresh(ctx context.Context) error {
	return s.Poll(ctx)
}

// ApplySnapshot merges a server snapshot into local state.
//
// Work log and object follow the cooldown gate: when the user edited
// within EditCooldown, the server change is suppressed and the next
// tick re-evaluates. Status and earnings are server-owned and adopted
// unconditionally.
func (s *Session) ApplySnapshot(snap *Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if snap == nil {
		return
	}

	s.reportID = snap.ReportID
	s.status = snap.Status
	s.earnings = snap.Earnings

	serverHash := snap.Hash()
	withinCooldown := !s.lastLocalEdit.IsZero() &&
		s.now().Sub(s.lastLocalEdit) <= s.cfg.EditCooldown

	if serverHash != s.lastServerHash {
		if withinCooldown {
			s.log.Debug("merge: server work log suppressed, user mid-edit", "date", s.date)
		} else {
			s.workLog = slices.Clone(snap.WorkLog)
			s.lastServerHash = serverHash
			s.autosaveAt = time.Time{}
		}
	}

	// objectId is gated independently of the work log.
	if !sameObjectID(s.objectID, snap.ObjectID) && !withinCooldown {
		s.objectID = copyObjectID(snap.ObjectID)
	}
}

// EditQuantity sets the quantity for an item, adding the line when
// absent. Quantity zero removes the line on the next save.
func (s *Session) EditQuantity(itemID int64, quantity int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.workLog {
		if s.workLog[i].ItemID == itemID {
			s.workLog[i].Quantity = quantity
			s.noteLocalEditLocked()
			return
		}
	}
	s.workLog = append(s.workLog, report.Entry{ItemID: itemID, Quantity: quantity})
	s.noteLocalEditLocked()
}

// EditCoefficient sets the multiplier on an existing line.
func (s *Session) EditCoefficient(itemID int64, coefficient float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.workLog {
		if s.workLog[i].ItemID == itemID {
			s.workLog[i].Coefficient = coefficient
			s.noteLocalEditLocked()
			return
		}
	}
}

// SelectObject changes the report's site locally.
func (s *Session) SelectObject(objectID *int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.objectID = copyObjectID(objectID)
	s.noteLocalEditLocked()
}

func (s *Session) noteLocalEditLocked() {
	now := s.now()
	s.lastLocalEdit = now
	if report.IsEditable(s.status) {
		// Every edit pushes the debounce window out again.
		s.autosaveAt = now.Add(s.cfg.AutosaveDelay)
	}
}

// Dirty reports whether local billed content differs from what the
// server last confirmed.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirtyLocked()
}

func (s *Session) dirtyLocked() bool {
	return s.workLog.Fingerprint() != s.lastServerHash
}

// AutosaveDue reports whether the debounce timer has expired with
// unsaved changes and no other write outstanding.
func (s *Session) AutosaveDue() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.autosaveAt.IsZero() || s.saveInFlight {
		return false
	}
	if !report.IsEditable(s.status) {
		return false
	}
	if s.now().Before(s.autosaveAt) {
		return false
	}
	return s.dirtyLocked()
}

// Autosave persists the current draft in the background. Failures are
// non-fatal: the dirty state stays, the next edit or tick retries.
// Autosave never promotes the status; it always writes a draft.
func (s *Session) Autosave(ctx context.Context) {
	s.mu.Lock()
	if s.saveInFlight || !report.IsEditable(s.status) {
		s.mu.Unlock()
		return
	}
	s.saveInFlight = true
	s.autosaveAt = time.Time{}
	s.saveState = SaveSaving
	date := s.date
	objectID := copyObjectID(s.objectID)
	workLog := slices.Clone(s.workLog)
	s.mu.Unlock()

	snap, err := s.store.Save(ctx, date, report.StatusDraft, objectID, workLog)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveInFlight = false
	s.saveStateAt = s.now()

	if err != nil {
		s.saveState = SaveError
		s.log.Warn("autosave failed", "date", date, "error", err)
		return
	}

	s.saveState = SaveSaved
	if s.date == date {
		s.adoptLocked(snap)
	}
}

// SaveDraft is the manual save action. Unlike autosave it surfaces
// errors to the caller.
func (s *Session) SaveDraft(ctx context.Context) error {
	return s.manualSave(ctx, report.StatusDraft)
}

// Submit sends the report for approval.
func (s *Session) Submit(ctx context.Context) error {
	return s.manualSave(ctx, report.StatusPendingApproval)
}

func (s *Session) manualSave(ctx context.Context, status string) error {
	s.mu.Lock()
	if s.saveInFlight {
		s.mu.Unlock()
		return ErrSaveInFlight
	}
	s.saveInFlight = true
	s.autosaveAt = time.Time{}
	s.saveState = SaveSaving
	date := s.date
	objectID := copyObjectID(s.objectID)
	workLog := slices.Clone(s.workLog)
	s.mu.Unlock()

	snap, err := s.store.Save(ctx, date, status, objectID, workLog)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveInFlight = false
	s.saveStateAt = s.now()

	if err != nil {
		s.saveState = SaveError
		return err
	}

	s.saveState = SaveSaved
	if s.date == date {
		s.adoptLocked(snap)
	}
	return nil
}

// Transition runs a manual lifecycle action against the current
// report. The server re-checks the precondition, so a double
// transition fails there rather than silently succeeding.
func (s *Session) Transition(ctx context.Context, action string) error {
	s.mu.Lock()
	if s.saveInFlight {
		s.mu.Unlock()
		return ErrSaveInFlight
	}
	if s.reportID == 0 {
		s.mu.Unlock()
		return internal.NewNotFoundError("no report loaded", internal.ErrCodeReportNotFound)
	}
	s.saveInFlight = true
	s.autosaveAt = time.Time{}
	reportID := s.reportID
	date := s.date
	s.mu.Unlock()

	snap, err := s.store.Transition(ctx, reportID, action)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveInFlight = false

	if err != nil {
		return err
	}
	if s.date == date {
		s.adoptLocked(snap)
	}
	return nil
}

// adoptLocked replaces local state with a confirmed server snapshot.
func (s *Session) adoptLocked(snap *Snapshot) {
	if snap == nil {
		return
	}
	s.reportID = snap.ReportID
	s.status = snap.Status
	s.earnings = snap.Earnings
	s.objectID = copyObjectID(snap.ObjectID)
	s.workLog = slices.Clone(snap.WorkLog)
	s.lastServerHash = snap.Hash()
	s.lastLocalEdit = time.Time{}
}

// Tick advances indicator timeouts. Run calls it alongside autosave
// checks.
func (s *Session) Tick() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.saveState == SaveSaved && s.now().Sub(s.saveStateAt) > s.cfg.SavedIndicatorTTL {
		s.saveState = SaveIdle
	}
}

// Run drives polling and autosave until the context is cancelled.
// Cancelling the context is how navigating away stops the timers.
func (s *Session) Run(ctx context.Context) {
	poll := time.NewTicker(s.cfg.PollInterval)
	defer poll.Stop()

	// Autosave deadlines are checked on a fine-grained tick.
	check := time.NewTicker(250 * time.Millisecond)
	defer check.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-poll.C:
			if err := s.Poll(ctx); err != nil {
				s.log.Warn("poll failed", "error", err)
			}
		case <-check.C:
			if s.AutosaveDue() {
				s.Autosave(ctx)
			}
			s.Tick()
		}
	}
}

// View returns a copy of the current editing state for rendering.
func (s *Session) View() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		ReportID: s.reportID,
		Status:   s.status,
		Earnings: s.earnings,
		ObjectID: copyObjectID(s.objectID),
		WorkLog:  slices.Clone(s.workLog),
	}
}

// SaveIndicator returns the current save state for the UI.
func (s *Session) SaveIndicator() SaveState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveState
}

func sameObjectID(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func copyObjectID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
