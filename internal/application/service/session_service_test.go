package service_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/buildcrew/fieldreport-api/internal/application/service"
	"github.com/buildcrew/fieldreport-api/internal/config"
	"github.com/buildcrew/fieldreport-api/internal/domain/entity"
	"github.com/buildcrew/fieldreport-api/internal/domain/report"
	"github.com/buildcrew/fieldreport-api/internal/infrastructure/cache"
	"github.com/buildcrew/fieldreport-api/pkg/utils"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSessionService(repo *fakeReportRepo) (*service.SessionService, *cache.MemoryBackupStore) {
	log := logrus.New()
	log.SetOutput(io.Discard)

	store := cache.NewMemoryBackupStore()
	reports := service.NewReportService(repo, managerRoles)
	rows := report.NewController(nil)
	cfg := config.AutosaveConfig{
		Quiescence:      30 * time.Millisecond,
		BackupFreshness: time.Minute,
		SavedDisplay:    40 * time.Millisecond,
		BackupTTL:       time.Hour,
	}
	return service.NewSessionService(reports, store, rows, cfg, log), store
}

func TestOpen_FreshSessionHasMinimalRows(t *testing.T) {
	svc, _ := newTestSessionService(newFakeReportRepo())
	ctx := context.Background()

	view, err := svc.Open(ctx, uuid.New(), []string{"foreman"}, time.Now())
	require.NoError(t, err)

	assert.Equal(t, report.SourceFresh, view.Source)
	assert.Nil(t, view.ReportID)
	require.Len(t, view.OrderRows, 1)
	require.Len(t, view.StaffRows, 2)
	assert.True(t, view.StaffRows[0].IsCashBox)
	assert.Equal(t, service.SaveStateIdle, view.SaveState)
}

func TestOpen_LoadsStoredReportRows(t *testing.T) {
	repo := newFakeReportRepo()
	svc, _ := newTestSessionService(repo)
	ctx := context.Background()
	date := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)

	actor := uuid.New()
	rep := seedReport(t, repo, date, actor)
	orderID := uuid.New()
	require.NoError(t, repo.ReplaceRows(ctx, rep.ID, []entity.ReportOrderRow{
		{ID: uuid.New(), ReportID: rep.ID, OrderID: &orderID, Activity: "drainage"},
	}, []entity.ReportStaffRow{
		{ID: uuid.New(), ReportID: rep.ID, Name: "Cash box", IsCashBox: true},
	}))

	view, err := svc.Open(ctx, actor, []string{"site-manager"}, date)
	require.NoError(t, err)

	assert.Equal(t, report.SourceServer, view.Source)
	require.NotNil(t, view.ReportID)
	assert.Equal(t, rep.ID, *view.ReportID)
	// Stored rows come back normalized: one trailing empty appended
	require.Len(t, view.OrderRows, 2)
	assert.Equal(t, "drainage", view.OrderRows[0].Activity)
	assert.True(t, view.OrderRows[1].IsEmpty())
}

func TestOpen_FreshRicherBackupBeatsStoredReport(t *testing.T) {
	repo := newFakeReportRepo()
	svc, store := newTestSessionService(repo)
	ctx := context.Background()
	date := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)

	actor := uuid.New()
	seedReport(t, repo, date, actor) // stored report with no rows

	orderID := uuid.New()
	require.NoError(t, store.Set(ctx, actor, utils.DateOnly(date), &report.Snapshot{
		OrderRows: []entity.ReportOrderRow{{OrderID: &orderID, Activity: "unsaved work"}},
		SavedAt:   time.Now(),
	}))

	view, err := svc.Open(ctx, actor, []string{"admin"}, date)
	require.NoError(t, err)

	assert.Equal(t, report.SourceBackup, view.Source)
	require.NotEmpty(t, view.OrderRows)
	assert.Equal(t, "unsaved work", view.OrderRows[0].Activity)
}

func TestOpen_StorageDownFallsBackToBackup(t *testing.T) {
	repo := newFakeReportRepo()
	repo.failReads = true
	svc, store := newTestSessionService(repo)
	ctx := context.Background()
	date := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)

	actor := uuid.New()
	orderID := uuid.New()
	require.NoError(t, store.Set(ctx, actor, utils.DateOnly(date), &report.Snapshot{
		OrderRows: []entity.ReportOrderRow{{OrderID: &orderID, Activity: "recovered"}},
		SavedAt:   time.Now().Add(-3 * time.Hour),
	}))

	view, err := svc.Open(ctx, actor, []string{"foreman"}, date)
	require.NoError(t, err)

	assert.Equal(t, report.SourceBackup, view.Source)
	assert.NotEmpty(t, view.Notice)
	assert.Equal(t, "recovered", view.OrderRows[0].Activity)
}

func TestGet_WithoutSession(t *testing.T) {
	svc, _ := newTestSessionService(newFakeReportRepo())

	_, err := svc.Get(uuid.New())
	assert.ErrorIs(t, err, service.ErrNoSession)
}

func TestClose_WithoutSession(t *testing.T) {
	svc, _ := newTestSessionService(newFakeReportRepo())

	err := svc.Close(uuid.New())
	assert.ErrorIs(t, err, service.ErrNoSession)
}

func TestUpdateField_WritesBackupSynchronously(t *testing.T) {
	repo := newFakeReportRepo()
	svc, store := newTestSessionService(repo)
	ctx := context.Background()
	actor := uuid.New()
	date := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)

	_, err := svc.Open(ctx, actor, []string{"foreman"}, date)
	require.NoError(t, err)

	view, err := svc.UpdateField(ctx, actor, service.RowKindOrder, 0, "activity", "formwork")
	require.NoError(t, err)
	assert.Equal(t, "formwork", view.OrderRows[0].Activity)

	// The backup must hold the edit before any flush has run
	snap, err := store.Get(ctx, actor, utils.DateOnly(date))
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, "formwork", snap.OrderRows[0].Activity)
	assert.Equal(t, 0, repo.replaceCount())
}

func TestAutoFlush_CoalescesBurstOfEdits(t *testing.T) {
	repo := newFakeReportRepo()
	svc, store := newTestSessionService(repo)
	ctx := context.Background()
	actor := uuid.New()
	date := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)

	_, err := svc.Open(ctx, actor, []string{"foreman"}, date)
	require.NoError(t, err)

	// Nothing to resume yet for this (date, actor)
	reports := service.NewReportService(repo, managerRoles)
	before, err := reports.Resolve(ctx, date, actor, true)
	require.NoError(t, err)
	assert.Nil(t, before)

	orderID := uuid.New()
	_, err = svc.UpdateField(ctx, actor, service.RowKindOrder, 0, "order_id", orderID.String())
	require.NoError(t, err)
	_, err = svc.UpdateField(ctx, actor, service.RowKindOrder, 0, "activity", "first")
	require.NoError(t, err)
	_, err = svc.UpdateField(ctx, actor, service.RowKindOrder, 0, "activity", "final")
	require.NoError(t, err)

	// Quiescence is 30ms; give the debounced flush time to run once
	time.Sleep(200 * time.Millisecond)

	assert.Equal(t, 1, repo.replaceCount(), "burst of edits must flush exactly once")

	view, err := svc.Get(actor)
	require.NoError(t, err)
	require.NotNil(t, view.ReportID)

	stored := repo.rowsFor(*view.ReportID)
	require.NotNil(t, stored)
	require.Len(t, stored.OrderRows, 1)
	assert.Equal(t, "final", stored.OrderRows[0].Activity)

	// Successful flush clears the backup
	snap, err := store.Get(ctx, actor, utils.DateOnly(date))
	require.NoError(t, err)
	assert.Nil(t, snap)

	// The same (date, actor) lookup now resumes the flushed report
	resolved, err := reports.Resolve(ctx, date, actor, true)
	require.NoError(t, err)
	require.NotNil(t, resolved)
	assert.Equal(t, *view.ReportID, resolved.ID)
}

func TestAutoFlush_FailureKeepsBackupAndRevertsToIdle(t *testing.T) {
	repo := newFakeReportRepo()
	svc, store := newTestSessionService(repo)
	ctx := context.Background()
	actor := uuid.New()
	date := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)

	_, err := svc.Open(ctx, actor, []string{"foreman"}, date)
	require.NoError(t, err)

	repo.failWrites = true
	_, err = svc.UpdateField(ctx, actor, service.RowKindOrder, 0, "activity", "doomed")
	require.NoError(t, err)

	time.Sleep(200 * time.Millisecond)

	view, err := svc.Get(actor)
	require.NoError(t, err)
	assert.Equal(t, service.SaveStateIdle, view.SaveState)
	assert.Nil(t, view.ReportID)

	snap, err := store.Get(ctx, actor, utils.DateOnly(date))
	require.NoError(t, err)
	require.NotNil(t, snap, "failed flush must leave the backup in place")
	assert.Equal(t, "doomed", snap.OrderRows[0].Activity)
}

func TestFinalize_FlushesClearsBackupAndResets(t *testing.T) {
	repo := newFakeReportRepo()
	svc, store := newTestSessionService(repo)
	ctx := context.Background()
	actor := uuid.New()
	date := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)

	_, err := svc.Open(ctx, actor, []string{"foreman"}, date)
	require.NoError(t, err)

	orderID := uuid.New()
	_, err = svc.UpdateField(ctx, actor, service.RowKindOrder, 0, "order_id", orderID.String())
	require.NoError(t, err)

	view, err := svc.Finalize(ctx, actor)
	require.NoError(t, err)

	assert.Equal(t, 1, repo.replaceCount())

	// Session resets to a fresh minimal state for today
	assert.Equal(t, report.SourceFresh, view.Source)
	assert.Nil(t, view.ReportID)
	assert.Equal(t, utils.FormatDate(utils.DateOnly(time.Now())), view.Date)
	require.Len(t, view.OrderRows, 1)
	assert.True(t, view.OrderRows[0].IsEmpty())

	snap, err := store.Get(ctx, actor, utils.DateOnly(date))
	require.NoError(t, err)
	assert.Nil(t, snap)
}

func TestFinalize_WaitsOutInFlightAutoFlush(t *testing.T) {
	repo := newFakeReportRepo()
	svc, _ := newTestSessionService(repo)
	ctx := context.Background()
	actor := uuid.New()
	date := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)

	_, err := svc.Open(ctx, actor, []string{"foreman"}, date)
	require.NoError(t, err)

	entered, release := repo.blockReplaceRows()

	orderID := uuid.New()
	_, err = svc.UpdateField(ctx, actor, service.RowKindOrder, 0, "order_id", orderID.String())
	require.NoError(t, err)

	// The debounced flush is now held mid-write
	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatal("autosave flush never started")
	}

	finalized := make(chan *service.SessionView, 1)
	finalizeErr := make(chan error, 1)
	go func() {
		view, ferr := svc.Finalize(ctx, actor)
		if ferr != nil {
			finalizeErr <- ferr
			return
		}
		finalized <- view
	}()

	// While the flush is held, finalize must neither complete nor create a
	// second report for the same (date, creator)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, repo.reportCount())
	select {
	case <-finalized:
		t.Fatal("finalize completed while a flush was in flight")
	default:
	}

	release()

	var view *service.SessionView
	select {
	case view = <-finalized:
	case ferr := <-finalizeErr:
		t.Fatalf("finalize failed: %v", ferr)
	case <-time.After(2 * time.Second):
		t.Fatal("finalize did not complete after the flush was released")
	}

	assert.Equal(t, 1, repo.reportCount(), "finalize must reuse the report created by the in-flight flush")
	assert.Equal(t, report.SourceFresh, view.Source)
	assert.Nil(t, view.ReportID)

	// The reset session must not re-acquire the pre-finalize report id later
	time.Sleep(100 * time.Millisecond)
	after, err := svc.Get(actor)
	require.NoError(t, err)
	assert.Nil(t, after.ReportID)
	assert.Equal(t, service.SaveStateIdle, after.SaveState)
}

func TestAutoFlush_EditDuringInFlightFlushStillPersists(t *testing.T) {
	repo := newFakeReportRepo()
	svc, store := newTestSessionService(repo)
	ctx := context.Background()
	actor := uuid.New()
	date := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)

	_, err := svc.Open(ctx, actor, []string{"foreman"}, date)
	require.NoError(t, err)

	entered, release := repo.blockReplaceRows()

	orderID := uuid.New()
	_, err = svc.UpdateField(ctx, actor, service.RowKindOrder, 0, "order_id", orderID.String())
	require.NoError(t, err)

	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatal("autosave flush never started")
	}

	// Typed while the first flush is still in flight
	_, err = svc.UpdateField(ctx, actor, service.RowKindOrder, 0, "activity", "late edit")
	require.NoError(t, err)

	release()
	time.Sleep(300 * time.Millisecond)

	assert.Equal(t, 2, repo.replaceCount(), "the mid-flight edit needs a flush of its own")

	view, err := svc.Get(actor)
	require.NoError(t, err)
	require.NotNil(t, view.ReportID)

	stored := repo.rowsFor(*view.ReportID)
	require.NotNil(t, stored)
	require.Len(t, stored.OrderRows, 1)
	assert.Equal(t, "late edit", stored.OrderRows[0].Activity)

	// Once the second flush lands the backup is cleared
	snap, err := store.Get(ctx, actor, utils.DateOnly(date))
	require.NoError(t, err)
	assert.Nil(t, snap)
}

func TestFinalize_FailureSurfacesErrorAndKeepsBackup(t *testing.T) {
	repo := newFakeReportRepo()
	svc, store := newTestSessionService(repo)
	ctx := context.Background()
	actor := uuid.New()
	date := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)

	_, err := svc.Open(ctx, actor, []string{"foreman"}, date)
	require.NoError(t, err)

	_, err = svc.UpdateField(ctx, actor, service.RowKindOrder, 0, "activity", "kept")
	require.NoError(t, err)

	repo.failWrites = true
	_, err = svc.Finalize(ctx, actor)
	require.Error(t, err)
	assert.True(t, report.IsWriteError(err))

	snap, gerr := store.Get(ctx, actor, utils.DateOnly(date))
	require.NoError(t, gerr)
	assert.NotNil(t, snap)
}

func TestOpen_SwitchingDateAbandonsPendingFlush(t *testing.T) {
	repo := newFakeReportRepo()
	svc, store := newTestSessionService(repo)
	ctx := context.Background()
	actor := uuid.New()
	monday := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)
	tuesday := monday.AddDate(0, 0, 1)

	_, err := svc.Open(ctx, actor, []string{"foreman"}, monday)
	require.NoError(t, err)
	_, err = svc.UpdateField(ctx, actor, service.RowKindOrder, 0, "activity", "monday work")
	require.NoError(t, err)

	// Reopen on another date before the debounce fires
	_, err = svc.Open(ctx, actor, []string{"foreman"}, tuesday)
	require.NoError(t, err)

	time.Sleep(200 * time.Millisecond)

	// The pending flush was cancelled, not executed
	assert.Equal(t, 0, repo.replaceCount())

	// Monday's backup stays available for later recovery
	snap, err := store.Get(ctx, actor, monday)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, "monday work", snap.OrderRows[0].Activity)
}

func TestRemoveRow_CashBoxRejectedThroughSession(t *testing.T) {
	svc, _ := newTestSessionService(newFakeReportRepo())
	ctx := context.Background()
	actor := uuid.New()

	_, err := svc.Open(ctx, actor, []string{"foreman"}, time.Now())
	require.NoError(t, err)

	_, err = svc.RemoveRow(ctx, actor, service.RowKindStaff, 0)
	require.Error(t, err)
	assert.True(t, report.IsInvariantViolation(err))
}

func TestUpdateField_UnknownKindRejected(t *testing.T) {
	svc, _ := newTestSessionService(newFakeReportRepo())
	ctx := context.Background()
	actor := uuid.New()

	_, err := svc.Open(ctx, actor, []string{"foreman"}, time.Now())
	require.NoError(t, err)

	_, err = svc.UpdateField(ctx, actor, "equipment", 0, "name", "crane")
	require.Error(t, err)
	assert.True(t, report.IsInvariantViolation(err))
}
