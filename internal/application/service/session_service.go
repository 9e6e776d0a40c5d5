package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/buildcrew/fieldreport-api/internal/config"
	"github.com/buildcrew/fieldreport-api/internal/domain/entity"
	"github.com/buildcrew/fieldreport-api/internal/domain/report"
	"github.com/buildcrew/fieldreport-api/internal/domain/repository"
	"github.com/buildcrew/fieldreport-api/pkg/utils"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ErrNoSession is returned when an actor has no open editing session
var ErrNoSession = errors.New("no active editing session")

// SaveState is the autosave scheduler's observable state
type SaveState string

const (
	SaveStateIdle   SaveState = "idle"
	SaveStateSaving SaveState = "saving"
	SaveStateSaved  SaveState = "saved"
)

// Row collection kinds addressed by the edit endpoints
const (
	RowKindOrder = "order"
	RowKindStaff = "staff"
)

// editorSession owns one actor's in-progress daily report: the current row
// state, the cancellable flush timer, and the has-the-user-typed-yet flag.
// All access serializes on mu.
type editorSession struct {
	mu sync.Mutex

	// flushMu serializes flushes against report storage: at most one flush
	// (autosave, finalize, or session-end) is in flight per session, and a
	// caller holding it sees the previous flush's report id written back.
	flushMu sync.Mutex

	actorID   uuid.UUID
	date      time.Time
	isManager bool

	reportID  uuid.UUID // uuid.Nil until the report is lazily created
	orderRows []entity.ReportOrderRow
	staffRows []entity.ReportStaffRow

	hasUserEdited bool
	editGen       uint64
	flushedGen    uint64 // editGen value covered by the last successful flush
	saveState     SaveState
	source        report.Source
	notice        string

	flushTimer *time.Timer
	savedTimer *time.Timer
	closed     bool
}

// SessionView is the session state presented to the editor UI
type SessionView struct {
	Date      string                  `json:"date"`
	ReportID  *uuid.UUID              `json:"report_id,omitempty"`
	OrderRows []entity.ReportOrderRow `json:"order_rows"`
	StaffRows []entity.ReportStaffRow `json:"staff_rows"`
	Source    report.Source           `json:"source"`
	SaveState SaveState               `json:"save_state"`
	Notice    string                  `json:"notice,omitempty"`
}

// SessionService manages editor sessions: it locates or creates the right
// report for a (date, actor) pair, keeps the row collections invariant-valid
// as edits arrive, mirrors every edit into the backup store synchronously,
// and debounces flushes to report storage.
type SessionService struct {
	reports *ReportService
	backups repository.BackupStore
	rows    *report.Controller
	policy  report.Policy
	cfg     config.AutosaveConfig
	log     *logrus.Logger

	mu       sync.Mutex
	sessions map[uuid.UUID]*editorSession
}

// NewSessionService creates a new session service
func NewSessionService(
	reports *ReportService,
	backups repository.BackupStore,
	rows *report.Controller,
	cfg config.AutosaveConfig,
	log *logrus.Logger,
) *SessionService {
	return &SessionService{
		reports:  reports,
		backups:  backups,
		rows:     rows,
		policy:   report.Policy{FreshWindow: cfg.BackupFreshness},
		cfg:      cfg,
		log:      log,
		sessions: make(map[uuid.UUID]*editorSession),
	}
}

// Open starts (or restarts) the actor's editing session for a date. Any
// prior session is abandoned without flushing: its pending timer is
// cancelled and its local backup left in place for later recovery. The new
// session's rows come from reconciling the located report against the
// backup snapshot.
func (s *SessionService) Open(ctx context.Context, actorID uuid.UUID, roles []string, date time.Time) (*SessionView, error) {
	date = utils.DateOnly(date)
	isManager := s.reports.IsManagerRole(roles)

	s.dropSession(actorID)

	sess := &editorSession{
		actorID:   actorID,
		date:      date,
		isManager: isManager,
		saveState: SaveStateIdle,
	}

	serverFound := false
	var serverOrders []entity.ReportOrderRow
	var serverStaff []entity.ReportStaffRow

	rep, err := s.reports.Resolve(ctx, date, actorID, isManager)
	if err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"actor_id": actorID,
			"date":     utils.FormatDate(date),
		}).Warn("report lookup failed, falling back to local backup")
		sess.notice = "Report storage is unreachable; showing locally backed up work."
	} else if rep != nil {
		rows, ferr := s.reports.FetchRows(ctx, rep.ID)
		if ferr != nil {
			s.log.WithError(ferr).WithField("report_id", rep.ID).
				Warn("report rows fetch failed, falling back to local backup")
			sess.notice = "Report storage is unreachable; showing locally backed up work."
		} else {
			serverFound = true
			sess.reportID = rep.ID
			serverOrders = rows.OrderRows
			serverStaff = rows.StaffRows
		}
	}

	backup, berr := s.backups.Get(ctx, actorID, date)
	if berr != nil {
		s.log.WithError(berr).Warn("backup snapshot read failed")
		backup = nil
	}

	orders, staff, source := s.policy.Choose(serverFound, serverOrders, serverStaff, backup, time.Now())
	if source == report.SourceFresh {
		orders = s.rows.MinimalOrderRows()
		staff = s.rows.MinimalStaffRows()
	}

	sess.orderRows = s.rows.NormalizeOrderRows(orders)
	sess.staffRows = s.rows.NormalizeStaffRows(staff)
	sess.source = source

	s.mu.Lock()
	s.sessions[actorID] = sess
	s.mu.Unlock()

	return sess.view(), nil
}

// Get returns the current session state
func (s *SessionService) Get(actorID uuid.UUID) (*SessionView, error) {
	sess, err := s.session(actorID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.viewLocked(), nil
}

// UpdateField applies a single-field edit: the row collection is mutated and
// re-normalized, the full snapshot is written to the backup store
// synchronously, and the flush timer is re-armed.
func (s *SessionService) UpdateField(ctx context.Context, actorID uuid.UUID, kind string, index int, field, value string) (*SessionView, error) {
	return s.edit(ctx, actorID, func(sess *editorSession) error {
		switch kind {
		case RowKindOrder:
			rows, err := s.rows.UpdateOrderField(sess.orderRows, index, field, value)
			if err != nil {
				return err
			}
			sess.orderRows = rows
		case RowKindStaff:
			rows, err := s.rows.UpdateStaffField(sess.staffRows, index, field, value)
			if err != nil {
				return err
			}
			sess.staffRows = rows
		default:
			return report.NewInvariantViolation("unknown row kind " + kind)
		}
		return nil
	})
}

// AddRow appends a fresh row to the given collection
func (s *SessionService) AddRow(ctx context.Context, actorID uuid.UUID, kind string) (*SessionView, error) {
	return s.edit(ctx, actorID, func(sess *editorSession) error {
		switch kind {
		case RowKindOrder:
			sess.orderRows = s.rows.AddOrderRow(sess.orderRows)
		case RowKindStaff:
			sess.staffRows = s.rows.AddStaffRow(sess.staffRows)
		default:
			return report.NewInvariantViolation("unknown row kind " + kind)
		}
		return nil
	})
}

// RemoveRow deletes the row at index from the given collection. Removing the
// cash box row is rejected with an InvariantViolationError.
func (s *SessionService) RemoveRow(ctx context.Context, actorID uuid.UUID, kind string, index int) (*SessionView, error) {
	return s.edit(ctx, actorID, func(sess *editorSession) error {
		switch kind {
		case RowKindOrder:
			rows, err := s.rows.RemoveOrderRow(sess.orderRows, index)
			if err != nil {
				return err
			}
			sess.orderRows = rows
		case RowKindStaff:
			rows, err := s.rows.RemoveStaffRow(sess.staffRows, index)
			if err != nil {
				return err
			}
			sess.staffRows = rows
		default:
			return report.NewInvariantViolation("unknown row kind " + kind)
		}
		return nil
	})
}

// edit runs one mutation under the session lock and then performs the
// edit-event bookkeeping: backup write, generation bump, timer re-arm. The
// backup write path is never debounced so no keystroke can be lost to a
// missed timer; a failed backup write is logged and typing continues.
func (s *SessionService) edit(ctx context.Context, actorID uuid.UUID, mutate func(*editorSession) error) (*SessionView, error) {
	sess, err := s.session(actorID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if err := mutate(sess); err != nil {
		return nil, err
	}

	sess.hasUserEdited = true
	sess.editGen++

	snap := &report.Snapshot{
		OrderRows: copyOrderRows(sess.orderRows),
		StaffRows: copyStaffRows(sess.staffRows),
		SavedAt:   time.Now(),
	}
	if berr := s.backups.Set(ctx, sess.actorID, sess.date, snap); berr != nil {
		s.log.WithError(berr).WithField("actor_id", sess.actorID).
			Warn("backup snapshot write failed")
	}

	s.armFlushLocked(sess)

	return sess.viewLocked(), nil
}

// armFlushLocked resets the debounce window: cancel-and-restart, never
// enqueue, so an outdated snapshot is never written after a newer one.
func (s *SessionService) armFlushLocked(sess *editorSession) {
	if sess.flushTimer != nil {
		sess.flushTimer.Stop()
	}
	sess.flushTimer = time.AfterFunc(s.cfg.Quiescence, func() {
		s.autoFlush(sess)
	})
}

// autoFlush is the debounced background flush. It skips sessions that have
// not been edited since the last successful flush. Flushes serialize on
// flushMu, so a timer firing while another flush is in flight waits its turn
// and then writes the newest snapshot instead of dropping it; edits arriving
// mid-flush still land in the backup store immediately.
func (s *SessionService) autoFlush(sess *editorSession) {
	sess.flushMu.Lock()
	defer sess.flushMu.Unlock()

	sess.mu.Lock()
	if sess.closed || !sess.hasUserEdited || sess.editGen == sess.flushedGen {
		sess.mu.Unlock()
		return
	}
	gen := sess.editGen
	actorID, date := sess.actorID, sess.date
	reportID := sess.reportID
	orders := copyOrderRows(sess.orderRows)
	staff := copyStaffRows(sess.staffRows)
	sess.saveState = SaveStateSaving
	sess.mu.Unlock()

	ctx := context.Background()
	newReportID, err := s.flush(ctx, reportID, actorID, date, orders, staff)

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"actor_id": actorID,
			"date":     utils.FormatDate(date),
		}).Warn("autosave flush failed, local backup retained")
		sess.saveState = SaveStateIdle
		return
	}

	sess.reportID = newReportID
	sess.flushedGen = gen
	// Only clear the backup if nothing was typed while the flush was in
	// flight; otherwise the backup is newer than what was just written.
	if sess.editGen == gen {
		if rerr := s.backups.Remove(ctx, actorID, date); rerr != nil {
			s.log.WithError(rerr).Warn("backup snapshot clear failed")
		}
	}

	sess.saveState = SaveStateSaved
	if sess.savedTimer != nil {
		sess.savedTimer.Stop()
	}
	sess.savedTimer = time.AfterFunc(s.cfg.SavedDisplay, func() {
		sess.mu.Lock()
		if sess.saveState == SaveStateSaved {
			sess.saveState = SaveStateIdle
		}
		sess.mu.Unlock()
	})
}

// flush creates the report if no id is known yet and performs the
// full-replacement write of both row collections.
func (s *SessionService) flush(ctx context.Context, reportID, actorID uuid.UUID, date time.Time, orders []entity.ReportOrderRow, staff []entity.ReportStaffRow) (uuid.UUID, error) {
	if reportID == uuid.Nil {
		rep, err := s.reports.CreateReport(ctx, date, actorID)
		if err != nil {
			return uuid.Nil, err
		}
		reportID = rep.ID
	}
	if err := s.reports.ReplaceRows(ctx, reportID, orders, staff); err != nil {
		return uuid.Nil, err
	}
	return reportID, nil
}

// Finalize forces an immediate flush, clears the local backup, and resets
// the session to a fresh minimal state for today. This is the only path
// that resets session state, and the one flush path whose failure is
// surfaced to the user as a blocking error.
func (s *SessionService) Finalize(ctx context.Context, actorID uuid.UUID) (*SessionView, error) {
	sess, err := s.session(actorID)
	if err != nil {
		return nil, err
	}

	// Wait out any autosave flush already in flight: once flushMu is held,
	// that flush has written its report id back, so the capture below cannot
	// create a duplicate report, and no stale completion can land after the
	// reset.
	sess.flushMu.Lock()
	defer sess.flushMu.Unlock()

	sess.mu.Lock()
	sess.stopTimersLocked()
	reportID := sess.reportID
	date := sess.date
	orders := copyOrderRows(sess.orderRows)
	staff := copyStaffRows(sess.staffRows)
	sess.saveState = SaveStateSaving
	sess.mu.Unlock()

	newReportID, ferr := s.flush(ctx, reportID, actorID, date, orders, staff)

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if ferr != nil {
		sess.saveState = SaveStateIdle
		return nil, ferr
	}

	if rerr := s.backups.Remove(ctx, actorID, date); rerr != nil {
		s.log.WithError(rerr).Warn("backup snapshot clear failed after finalize")
	}

	s.log.WithFields(logrus.Fields{
		"actor_id":  actorID,
		"date":      utils.FormatDate(date),
		"report_id": newReportID,
	}).Info("report finalized")

	// Reset to a fresh session for today
	sess.date = utils.DateOnly(time.Now())
	sess.reportID = uuid.Nil
	sess.orderRows = s.rows.MinimalOrderRows()
	sess.staffRows = s.rows.MinimalStaffRows()
	sess.hasUserEdited = false
	sess.editGen++
	sess.flushedGen = sess.editGen
	sess.saveState = SaveStateIdle
	sess.source = report.SourceFresh
	sess.notice = ""

	return sess.viewLocked(), nil
}

// Close is the session-end hook: the pending timer is cancelled and, if the
// user edited anything, one last best-effort flush fires without awaiting
// completion.
func (s *SessionService) Close(actorID uuid.UUID) error {
	s.mu.Lock()
	sess, ok := s.sessions[actorID]
	delete(s.sessions, actorID)
	s.mu.Unlock()
	if !ok {
		return ErrNoSession
	}

	sess.mu.Lock()
	sess.stopTimersLocked()
	sess.closed = true
	edited := sess.hasUserEdited
	sess.mu.Unlock()
	if !edited {
		return nil
	}

	go func() {
		// Serialize behind any flush still in flight and capture state only
		// once it has written back, so the report is not created twice.
		sess.flushMu.Lock()
		defer sess.flushMu.Unlock()

		sess.mu.Lock()
		if sess.editGen == sess.flushedGen {
			sess.mu.Unlock()
			return
		}
		reportID := sess.reportID
		date := sess.date
		orders := copyOrderRows(sess.orderRows)
		staff := copyStaffRows(sess.staffRows)
		sess.mu.Unlock()

		ctx := context.Background()
		newReportID, err := s.flush(ctx, reportID, actorID, date, orders, staff)
		if err != nil {
			s.log.WithError(err).WithField("actor_id", actorID).
				Warn("session-end flush failed, local backup retained")
			return
		}
		if rerr := s.backups.Remove(ctx, actorID, date); rerr != nil {
			s.log.WithError(rerr).Warn("backup snapshot clear failed after session end")
		}
		s.log.WithFields(logrus.Fields{
			"actor_id":  actorID,
			"report_id": newReportID,
		}).Debug("session-end flush completed")
	}()

	return nil
}

func (s *SessionService) session(actorID uuid.UUID) (*editorSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[actorID]
	if !ok {
		return nil, ErrNoSession
	}
	return sess, nil
}

// dropSession abandons an actor's current session without flushing it; the
// local backup for the abandoned (date, actor) pair stays in the cache for
// later recovery.
func (s *SessionService) dropSession(actorID uuid.UUID) {
	s.mu.Lock()
	sess, ok := s.sessions[actorID]
	delete(s.sessions, actorID)
	s.mu.Unlock()
	if !ok {
		return
	}
	sess.mu.Lock()
	sess.stopTimersLocked()
	sess.closed = true
	sess.mu.Unlock()
}

func (sess *editorSession) stopTimersLocked() {
	if sess.flushTimer != nil {
		sess.flushTimer.Stop()
		sess.flushTimer = nil
	}
	if sess.savedTimer != nil {
		sess.savedTimer.Stop()
		sess.savedTimer = nil
	}
}

func (sess *editorSession) view() *SessionView {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.viewLocked()
}

func (sess *editorSession) viewLocked() *SessionView {
	v := &SessionView{
		Date:      utils.FormatDate(sess.date),
		OrderRows: copyOrderRows(sess.orderRows),
		StaffRows: copyStaffRows(sess.staffRows),
		Source:    sess.source,
		SaveState: sess.saveState,
		Notice:    sess.notice,
	}
	if sess.reportID != uuid.Nil {
		id := sess.reportID
		v.ReportID = &id
	}
	return v
}

func copyOrderRows(rows []entity.ReportOrderRow) []entity.ReportOrderRow {
	out := make([]entity.ReportOrderRow, len(rows))
	copy(out, rows)
	return out
}

func copyStaffRows(rows []entity.ReportStaffRow) []entity.ReportStaffRow {
	out := make([]entity.ReportStaffRow, len(rows))
	copy(out, rows)
	return out
}
