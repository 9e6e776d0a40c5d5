package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/buildcrew/fieldreport-api/internal/application/service"
	"github.com/buildcrew/fieldreport-api/internal/domain/entity"
	"github.com/buildcrew/fieldreport-api/internal/domain/report"
	"github.com/buildcrew/fieldreport-api/internal/domain/repository"
	"github.com/buildcrew/fieldreport-api/pkg/utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var managerRoles = []string{"super-admin", "admin", "director", "site-manager", "foreman"}

// fakeReportRepo is an in-memory ReportRepository for service tests
type fakeReportRepo struct {
	mu           sync.Mutex
	reports      []*entity.Report
	rows         map[uuid.UUID]*repository.ReportRows
	failReads    bool
	failWrites   bool
	replaceCalls int

	// set via blockReplaceRows to hold ReplaceRows calls mid-flight
	replaceEntered chan struct{}
	replaceRelease chan struct{}
}

func newFakeReportRepo() *fakeReportRepo {
	return &fakeReportRepo{rows: make(map[uuid.UUID]*repository.ReportRows)}
}

var errStorage = errors.New("storage unavailable")

func (f *fakeReportRepo) Create(_ context.Context, rep *entity.Report) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrites {
		return errStorage
	}
	if rep.ID == uuid.Nil {
		rep.ID = uuid.New()
	}
	stored := *rep
	f.reports = append(f.reports, &stored)
	return nil
}

func (f *fakeReportRepo) GetByDateAndCreator(_ context.Context, date time.Time, creatorID uuid.UUID) (*entity.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failReads {
		return nil, errStorage
	}
	for _, rep := range f.reports {
		if rep.ReportDate.Equal(utils.DateOnly(date)) && rep.CreatorID == creatorID {
			found := *rep
			return &found, nil
		}
	}
	return nil, nil
}

func (f *fakeReportRepo) GetLatestByDate(_ context.Context, date time.Time) (*entity.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failReads {
		return nil, errStorage
	}
	for i := len(f.reports) - 1; i >= 0; i-- {
		if f.reports[i].ReportDate.Equal(utils.DateOnly(date)) {
			found := *f.reports[i]
			return &found, nil
		}
	}
	return nil, nil
}

func (f *fakeReportRepo) GetLatestByDateWithContributor(_ context.Context, date time.Time, staffID uuid.UUID) (*entity.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failReads {
		return nil, errStorage
	}
	for i := len(f.reports) - 1; i >= 0; i-- {
		rep := f.reports[i]
		if !rep.ReportDate.Equal(utils.DateOnly(date)) {
			continue
		}
		rows, ok := f.rows[rep.ID]
		if !ok {
			continue
		}
		for _, sr := range rows.StaffRows {
			if sr.StaffID != nil && *sr.StaffID == staffID {
				found := *rep
				return &found, nil
			}
		}
	}
	return nil, nil
}

func (f *fakeReportRepo) GetRows(_ context.Context, reportID uuid.UUID) (*repository.ReportRows, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failReads {
		return nil, errStorage
	}
	rows, ok := f.rows[reportID]
	if !ok {
		return &repository.ReportRows{
			OrderRows: []entity.ReportOrderRow{},
			StaffRows: []entity.ReportStaffRow{},
		}, nil
	}
	out := &repository.ReportRows{
		OrderRows: append([]entity.ReportOrderRow{}, rows.OrderRows...),
		StaffRows: append([]entity.ReportStaffRow{}, rows.StaffRows...),
	}
	return out, nil
}

func (f *fakeReportRepo) ReplaceRows(_ context.Context, reportID uuid.UUID, orderRows []entity.ReportOrderRow, staffRows []entity.ReportStaffRow) error {
	f.mu.Lock()
	entered, release := f.replaceEntered, f.replaceRelease
	f.mu.Unlock()
	if entered != nil {
		select {
		case entered <- struct{}{}:
		default:
		}
	}
	if release != nil {
		<-release
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrites {
		return errStorage
	}
	f.replaceCalls++
	f.rows[reportID] = &repository.ReportRows{
		OrderRows: append([]entity.ReportOrderRow{}, orderRows...),
		StaffRows: append([]entity.ReportStaffRow{}, staffRows...),
	}
	return nil
}

// blockReplaceRows arranges for ReplaceRows calls to block until the returned
// release func runs; entered receives when a call reaches the write.
func (f *fakeReportRepo) blockReplaceRows() (<-chan struct{}, func()) {
	entered := make(chan struct{}, 1)
	release := make(chan struct{})
	f.mu.Lock()
	f.replaceEntered = entered
	f.replaceRelease = release
	f.mu.Unlock()

	var once sync.Once
	return entered, func() {
		f.mu.Lock()
		f.replaceEntered = nil
		f.replaceRelease = nil
		f.mu.Unlock()
		once.Do(func() { close(release) })
	}
}

func (f *fakeReportRepo) replaceCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.replaceCalls
}

func (f *fakeReportRepo) reportCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.reports)
}

func (f *fakeReportRepo) rowsFor(reportID uuid.UUID) *repository.ReportRows {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rows[reportID]
}

func seedReport(t *testing.T, repo *fakeReportRepo, date time.Time, creatorID uuid.UUID) *entity.Report {
	t.Helper()
	rep := &entity.Report{ReportDate: utils.DateOnly(date), CreatorID: creatorID}
	require.NoError(t, repo.Create(context.Background(), rep))
	return rep
}

func TestIsManagerRole(t *testing.T) {
	svc := service.NewReportService(newFakeReportRepo(), managerRoles)

	assert.True(t, svc.IsManagerRole([]string{"foreman"}))
	assert.True(t, svc.IsManagerRole([]string{"worker", "admin"}))
	assert.False(t, svc.IsManagerRole([]string{"worker"}))
	assert.False(t, svc.IsManagerRole(nil))
}

func TestResolve_ManagerPrefersOwnReport(t *testing.T) {
	repo := newFakeReportRepo()
	svc := service.NewReportService(repo, managerRoles)
	ctx := context.Background()
	date := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)

	me := uuid.New()
	peer := uuid.New()
	seedReport(t, repo, date, peer)
	mine := seedReport(t, repo, date, me)

	rep, err := svc.Resolve(ctx, date, me, true)
	require.NoError(t, err)
	require.NotNil(t, rep)
	assert.Equal(t, mine.ID, rep.ID)
}

func TestResolve_ManagerFallsBackToPeerReport(t *testing.T) {
	repo := newFakeReportRepo()
	svc := service.NewReportService(repo, managerRoles)
	ctx := context.Background()
	date := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)

	peerRep := seedReport(t, repo, date, uuid.New())

	rep, err := svc.Resolve(ctx, date, uuid.New(), true)
	require.NoError(t, err)
	require.NotNil(t, rep)
	assert.Equal(t, peerRep.ID, rep.ID)
}

func TestResolve_ManagerNoReportForDate(t *testing.T) {
	repo := newFakeReportRepo()
	svc := service.NewReportService(repo, managerRoles)

	rep, err := svc.Resolve(context.Background(), time.Now(), uuid.New(), true)
	require.NoError(t, err)
	assert.Nil(t, rep)
}

func TestResolve_WorkerOnlySeesReportContainingThem(t *testing.T) {
	repo := newFakeReportRepo()
	svc := service.NewReportService(repo, managerRoles)
	ctx := context.Background()
	date := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)

	worker := uuid.New()
	rep := seedReport(t, repo, date, uuid.New())
	require.NoError(t, repo.ReplaceRows(ctx, rep.ID, nil, []entity.ReportStaffRow{
		{ID: uuid.New(), ReportID: rep.ID, StaffID: &worker, Name: "A. Otieno"},
	}))

	found, err := svc.Resolve(ctx, date, worker, false)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, rep.ID, found.ID)

	// A different worker sees nothing, even though a report exists
	other, err := svc.Resolve(ctx, date, uuid.New(), false)
	require.NoError(t, err)
	assert.Nil(t, other)
}

func TestResolve_ReadFailureWrapsFetchError(t *testing.T) {
	repo := newFakeReportRepo()
	repo.failReads = true
	svc := service.NewReportService(repo, managerRoles)

	_, err := svc.Resolve(context.Background(), time.Now(), uuid.New(), true)
	require.Error(t, err)
	assert.True(t, report.IsFetchError(err))
}

func TestReplaceRows_FiltersAndPositions(t *testing.T) {
	repo := newFakeReportRepo()
	svc := service.NewReportService(repo, managerRoles)
	ctx := context.Background()

	rep := seedReport(t, repo, time.Now(), uuid.New())

	orderID := uuid.New()
	staffID := uuid.New()
	orders := []entity.ReportOrderRow{
		{OrderID: &orderID, Activity: "paving"},
		{Activity: "no order reference yet"}, // not writable
		{},                                   // trailing empty
	}
	staff := []entity.ReportStaffRow{
		{Name: "Cash box", IsCashBox: true},
		{StaffID: &staffID, Name: "B. Kim"},
		{}, // trailing empty
	}

	require.NoError(t, svc.ReplaceRows(ctx, rep.ID, orders, staff))

	stored := repo.rowsFor(rep.ID)
	require.NotNil(t, stored)

	require.Len(t, stored.OrderRows, 1)
	assert.Equal(t, 0, stored.OrderRows[0].Position)
	assert.Equal(t, rep.ID, stored.OrderRows[0].ReportID)
	assert.NotEqual(t, uuid.Nil, stored.OrderRows[0].ID)

	require.Len(t, stored.StaffRows, 2)
	assert.True(t, stored.StaffRows[0].IsCashBox)
	assert.Equal(t, 1, stored.StaffRows[1].Position)
}

func TestReplaceRows_WriteFailureWrapsWriteError(t *testing.T) {
	repo := newFakeReportRepo()
	repo.failWrites = true
	svc := service.NewReportService(repo, managerRoles)

	err := svc.ReplaceRows(context.Background(), uuid.New(), nil, []entity.ReportStaffRow{
		{Name: "Cash box", IsCashBox: true},
	})
	require.Error(t, err)
	assert.True(t, report.IsWriteError(err))
}

func TestFetchRows_AbsentReportYieldsEmptyCollections(t *testing.T) {
	repo := newFakeReportRepo()
	svc := service.NewReportService(repo, managerRoles)

	rows, err := svc.FetchRows(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Empty(t, rows.OrderRows)
	assert.Empty(t, rows.StaffRows)
}
