package report

import (
	"time"

	"github.com/buildcrew/fieldreport-api/internal/domain/entity"
)

// Snapshot is the locally cached copy of an editing session, keyed by
// (actor, date) in the backup store. It is overwritten in place on every
// edit and has no identity beyond its key.
type Snapshot struct {
	OrderRows []entity.ReportOrderRow `json:"order_rows"`
	StaffRows []entity.ReportStaffRow `json:"staff_rows"`
	SavedAt   time.Time               `json:"saved_at"`
}

// MeaningfulOrderRows counts the activity rows that would survive a flush
func (s *Snapshot) MeaningfulOrderRows() int {
	return countWritableOrderRows(s.OrderRows)
}

// Source names where the rows presented to the user came from
type Source string

const (
	SourceServer Source = "server"
	SourceBackup Source = "backup"
	SourceFresh  Source = "fresh"
)

// Policy decides whether a freshly loaded report or the local backup
// snapshot should be presented, so a failed or still-pending flush does not
// silently discard unsaved work. Best-effort: concurrent edits by two actors
// are not merged.
type Policy struct {
	// FreshWindow is how recently the backup must have been saved for it to
	// be able to win over stored rows.
	FreshWindow time.Duration
}

// Choose returns the rows the user should see. The backup wins only when it
// exists, was saved inside FreshWindow, and holds strictly more meaningful
// activity rows than the stored report; otherwise stored rows win, and with
// no stored report the backup is taken outright. Nil rows with SourceFresh
// mean the caller starts a minimal empty session.
func (p Policy) Choose(
	serverFound bool,
	serverOrders []entity.ReportOrderRow,
	serverStaff []entity.ReportStaffRow,
	backup *Snapshot,
	now time.Time,
) ([]entity.ReportOrderRow, []entity.ReportStaffRow, Source) {
	if backup != nil &&
		now.Sub(backup.SavedAt) <= p.FreshWindow &&
		backup.MeaningfulOrderRows() > countWritableOrderRows(serverOrders) {
		return backup.OrderRows, backup.StaffRows, SourceBackup
	}
	if serverFound {
		return serverOrders, serverStaff, SourceServer
	}
	if backup != nil {
		return backup.OrderRows, backup.StaffRows, SourceBackup
	}
	return nil, nil, SourceFresh
}

func countWritableOrderRows(rows []entity.ReportOrderRow) int {
	n := 0
	for i := range rows {
		if rows[i].IsWritable() {
			n++
		}
	}
	return n
}
