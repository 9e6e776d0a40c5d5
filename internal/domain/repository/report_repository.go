package repository

import (
	"context"
	"time"

	"github.com/buildcrew/fieldreport-api/internal/domain/entity"
	"github.com/buildcrew/fieldreport-api/internal/domain/report"
	"github.com/google/uuid"
)

// ReportRows bundles both child-row collections of a report
type ReportRows struct {
	OrderRows []entity.ReportOrderRow
	StaffRows []entity.ReportStaffRow
}

// ReportRepository defines the interface for daily report storage. All
// lookups return (nil, nil) when nothing matches.
type ReportRepository interface {
	// Create stores a new report container for (date, creator)
	Create(ctx context.Context, rep *entity.Report) error
	// GetByDateAndCreator is the exact-match lookup
	GetByDateAndCreator(ctx context.Context, date time.Time, creatorID uuid.UUID) (*entity.Report, error)
	// GetLatestByDate returns the most recently created report for the date
	// regardless of creator
	GetLatestByDate(ctx context.Context, date time.Time) (*entity.Report, error)
	// GetLatestByDateWithContributor returns the most recent report for the
	// date in which the given user appears as a staff row
	GetLatestByDateWithContributor(ctx context.Context, date time.Time, staffID uuid.UUID) (*entity.Report, error)
	// GetRows fetches both child-row collections; a report without children
	// yields empty collections, not an error
	GetRows(ctx context.Context, reportID uuid.UUID) (*ReportRows, error)
	// ReplaceRows deletes every child row of the report and inserts the
	// given ones, atomically
	ReplaceRows(ctx context.Context, reportID uuid.UUID, orderRows []entity.ReportOrderRow, staffRows []entity.ReportStaffRow) error
}

// BackupStore is the local write-back cache holding the latest in-memory
// snapshot per (actor, date). Get returns (nil, nil) when no snapshot is
// cached.
type BackupStore interface {
	Get(ctx context.Context, actorID uuid.UUID, date time.Time) (*report.Snapshot, error)
	Set(ctx context.Context, actorID uuid.UUID, date time.Time, snap *report.Snapshot) error
	Remove(ctx context.Context, actorID uuid.UUID, date time.Time) error
}
