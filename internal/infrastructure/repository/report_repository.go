package repository

import (
	"context"
	"errors"
	"time"

	"github.com/buildcrew/fieldreport-api/internal/domain/entity"
	domainRepo "github.com/buildcrew/fieldreport-api/internal/domain/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type reportRepository struct {
	db *gorm.DB
}

// NewReportRepository creates a new report repository
func NewReportRepository(db *gorm.DB) domainRepo.ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) Create(ctx context.Context, rep *entity.Report) error {
	return r.db.WithContext(ctx).Create(rep).Error
}

func (r *reportRepository) GetByDateAndCreator(ctx context.Context, date time.Time, creatorID uuid.UUID) (*entity.Report, error) {
	var rep entity.Report
	err := r.db.WithContext(ctx).
		Where("report_date = ? AND creator_id = ?", date, creatorID).
		Order("created_at DESC").
		First(&rep).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rep, nil
}

func (r *reportRepository) GetLatestByDate(ctx context.Context, date time.Time) (*entity.Report, error) {
	var rep entity.Report
	err := r.db.WithContext(ctx).
		Where("report_date = ?", date).
		Order("created_at DESC").
		First(&rep).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rep, nil
}

func (r *reportRepository) GetLatestByDateWithContributor(ctx context.Context, date time.Time, staffID uuid.UUID) (*entity.Report, error) {
	var rep entity.Report
	err := r.db.WithContext(ctx).
		Joins("JOIN report_staff_rows ON report_staff_rows.report_id = reports.id").
		Where("reports.report_date = ? AND report_staff_rows.staff_id = ?", date, staffID).
		Order("reports.created_at DESC").
		First(&rep).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rep, nil
}

func (r *reportRepository) GetRows(ctx context.Context, reportID uuid.UUID) (*domainRepo.ReportRows, error) {
	rows := &domainRepo.ReportRows{
		OrderRows: []entity.ReportOrderRow{},
		StaffRows: []entity.ReportStaffRow{},
	}

	err := r.db.WithContext(ctx).
		Where("report_id = ?", reportID).
		Order("position ASC, created_at ASC").
		Find(&rows.OrderRows).Error
	if err != nil {
		return nil, err
	}

	err = r.db.WithContext(ctx).
		Where("report_id = ?", reportID).
		Order("position ASC, created_at ASC").
		Find(&rows.StaffRows).Error
	if err != nil {
		return nil, err
	}

	return rows, nil
}

// ReplaceRows implements the full-replace write: delete every child row of
// the report, then insert the given ones, in one transaction. Row ids are
// not preserved across flushes.
func (r *reportRepository) ReplaceRows(ctx context.Context, reportID uuid.UUID, orderRows []entity.ReportOrderRow, staffRows []entity.ReportStaffRow) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("report_id = ?", reportID).Delete(&entity.ReportOrderRow{}).Error; err != nil {
			return err
		}
		if err := tx.Where("report_id = ?", reportID).Delete(&entity.ReportStaffRow{}).Error; err != nil {
			return err
		}
		if len(orderRows) > 0 {
			if err := tx.Create(&orderRows).Error; err != nil {
				return err
			}
		}
		if len(staffRows) > 0 {
			if err := tx.Create(&staffRows).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
