package report_test

import (
	"testing"
	"time"

	"github.com/buildcrew/fieldreport-api/internal/domain/entity"
	"github.com/buildcrew/fieldreport-api/internal/domain/report"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func meaningfulOrders(n int) []entity.ReportOrderRow {
	rows := make([]entity.ReportOrderRow, n)
	for i := range rows {
		id := uuid.New()
		rows[i].OrderID = &id
	}
	return rows
}

func TestChoose_FreshRicherBackupWins(t *testing.T) {
	policy := report.Policy{FreshWindow: time.Minute}
	now := time.Now()

	backup := &report.Snapshot{
		OrderRows: meaningfulOrders(3),
		SavedAt:   now.Add(-10 * time.Second),
	}

	orders, _, source := policy.Choose(true, meaningfulOrders(1), nil, backup, now)

	assert.Equal(t, report.SourceBackup, source)
	assert.Len(t, orders, 3)
}

func TestChoose_StaleBackupLosesToServer(t *testing.T) {
	policy := report.Policy{FreshWindow: time.Minute}
	now := time.Now()

	backup := &report.Snapshot{
		OrderRows: meaningfulOrders(3),
		SavedAt:   now.Add(-2 * time.Minute),
	}

	orders, _, source := policy.Choose(true, meaningfulOrders(1), nil, backup, now)

	assert.Equal(t, report.SourceServer, source)
	assert.Len(t, orders, 1)
}

func TestChoose_FreshButPoorerBackupLosesToServer(t *testing.T) {
	policy := report.Policy{FreshWindow: time.Minute}
	now := time.Now()

	backup := &report.Snapshot{
		OrderRows: meaningfulOrders(1),
		SavedAt:   now.Add(-5 * time.Second),
	}

	_, _, source := policy.Choose(true, meaningfulOrders(2), nil, backup, now)

	assert.Equal(t, report.SourceServer, source)
}

func TestChoose_NoServerTakesBackupRegardlessOfAge(t *testing.T) {
	policy := report.Policy{FreshWindow: time.Minute}
	now := time.Now()

	backup := &report.Snapshot{
		OrderRows: meaningfulOrders(2),
		SavedAt:   now.Add(-48 * time.Hour),
	}

	orders, _, source := policy.Choose(false, nil, nil, backup, now)

	assert.Equal(t, report.SourceBackup, source)
	assert.Len(t, orders, 2)
}

func TestChoose_NothingAvailableIsFresh(t *testing.T) {
	policy := report.Policy{FreshWindow: time.Minute}

	orders, staff, source := policy.Choose(false, nil, nil, nil, time.Now())

	assert.Equal(t, report.SourceFresh, source)
	assert.Nil(t, orders)
	assert.Nil(t, staff)
}
