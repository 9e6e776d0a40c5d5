package service

import (
	"context"
	"time"

	"github.com/buildcrew/fieldreport-api/internal/domain/entity"
	"github.com/buildcrew/fieldreport-api/internal/domain/report"
	"github.com/buildcrew/fieldreport-api/internal/domain/repository"
	"github.com/buildcrew/fieldreport-api/pkg/utils"
	"github.com/google/uuid"
)

// ReportService is the persistence gateway for daily reports: it owns every
// read and write against report storage, and the role-aware selection of
// which existing report an actor should resume for a date.
type ReportService struct {
	reportRepo  repository.ReportRepository
	managerTags map[string]struct{}
}

// NewReportService creates a new report service. managerRoles is the
// injected set of role tags that count as manager-class.
func NewReportService(reportRepo repository.ReportRepository, managerRoles []string) *ReportService {
	tags := make(map[string]struct{}, len(managerRoles))
	for _, r := range managerRoles {
		tags[r] = struct{}{}
	}
	return &ReportService{
		reportRepo:  reportRepo,
		managerTags: tags,
	}
}

// IsManagerRole reports whether any of the given role tags is manager-class
func (s *ReportService) IsManagerRole(roles []string) bool {
	for _, r := range roles {
		if _, ok := s.managerTags[r]; ok {
			return true
		}
	}
	return false
}

// Resolve decides which existing report (if any) the actor should resume for
// the date. Managers first look for their own report and then fall back to
// any report a peer manager already started for the day; everyone else only
// sees a report they already appear in as a contributor, so workers can
// never create or adopt an unrelated one. Read failures surface as
// FetchError; this never falls back to creating a report.
func (s *ReportService) Resolve(ctx context.Context, date time.Time, actorID uuid.UUID, isManager bool) (*entity.Report, error) {
	date = utils.DateOnly(date)

	if isManager {
		rep, err := s.reportRepo.GetByDateAndCreator(ctx, date, actorID)
		if err != nil {
			return nil, report.NewFetchError("find report by date and creator", err)
		}
		if rep != nil {
			return rep, nil
		}
		rep, err = s.reportRepo.GetLatestByDate(ctx, date)
		if err != nil {
			return nil, report.NewFetchError("find any report for date", err)
		}
		return rep, nil
	}

	rep, err := s.reportRepo.GetLatestByDateWithContributor(ctx, date, actorID)
	if err != nil {
		return nil, report.NewFetchError("find report with contributor", err)
	}
	return rep, nil
}

// CreateReport lazily creates the report container. Callers are responsible
// for resolving first so an existing (date, creator) pair is not duplicated.
func (s *ReportService) CreateReport(ctx context.Context, date time.Time, creatorID uuid.UUID) (*entity.Report, error) {
	rep := &entity.Report{
		ReportDate: utils.DateOnly(date),
		CreatorID:  creatorID,
	}
	if err := s.reportRepo.Create(ctx, rep); err != nil {
		return nil, report.NewWriteError("create report", err)
	}
	return rep, nil
}

// FetchRows loads both child-row collections of a report. A report without
// children yields empty collections.
func (s *ReportService) FetchRows(ctx context.Context, reportID uuid.UUID) (*repository.ReportRows, error) {
	rows, err := s.reportRepo.GetRows(ctx, reportID)
	if err != nil {
		return nil, report.NewFetchError("fetch report rows", err)
	}
	if rows.OrderRows == nil {
		rows.OrderRows = []entity.ReportOrderRow{}
	}
	if rows.StaffRows == nil {
		rows.StaffRows = []entity.ReportStaffRow{}
	}
	return rows, nil
}

// ReplaceRows persists the writable subset of both collections with the
// full-replace strategy: existing child rows are deleted and the meaningful
// ones reinserted under fresh ids. Idempotent and order-insensitive; the
// last flush wins unconditionally.
func (s *ReportService) ReplaceRows(ctx context.Context, reportID uuid.UUID, orderRows []entity.ReportOrderRow, staffRows []entity.ReportStaffRow) error {
	writableOrders := make([]entity.ReportOrderRow, 0, len(orderRows))
	for i, row := range orderRows {
		if !row.IsWritable() {
			continue
		}
		row.ID = uuid.New()
		row.ReportID = reportID
		row.Position = i
		row.Order = nil
		writableOrders = append(writableOrders, row)
	}

	writableStaff := make([]entity.ReportStaffRow, 0, len(staffRows))
	for i, row := range staffRows {
		if !row.IsWritable() {
			continue
		}
		row.ID = uuid.New()
		row.ReportID = reportID
		row.Position = i
		row.Staff = nil
		writableStaff = append(writableStaff, row)
	}

	if err := s.reportRepo.ReplaceRows(ctx, reportID, writableOrders, writableStaff); err != nil {
		return report.NewWriteError("replace report rows", err)
	}
	return nil
}
