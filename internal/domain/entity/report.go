package entity

import (
	"encoding/json"
	"math"
	"time"

	"github.com/buildcrew/fieldreport-api/internal/domain/enum"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Report is the single persisted container for one calendar date's daily
// field report. At most one report exists per (date, creator) pair; workers
// do not own reports, they appear inside one as staff rows.
type Report struct {
	ID         uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	ReportDate time.Time      `gorm:"type:date;not null;index:idx_reports_date_creator" json:"report_date"`
	CreatorID  uuid.UUID      `gorm:"type:uuid;not null;index:idx_reports_date_creator" json:"creator_id"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Creator   User             `gorm:"foreignKey:CreatorID" json:"-"`
	OrderRows []ReportOrderRow `gorm:"foreignKey:ReportID" json:"order_rows,omitempty"`
	StaffRows []ReportStaffRow `gorm:"foreignKey:ReportID" json:"staff_rows,omitempty"`
}

// BeforeCreate generates a UUID before creating a new report
func (r *Report) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Report model
func (Report) TableName() string {
	return "reports"
}

// ReportOrderRow is one activity line in a daily report. Rows carry no
// stable identity across saves: every flush deletes and reinserts them.
// Soft delete is deliberately not used here so stale rows never shadow a
// full-replace write.
type ReportOrderRow struct {
	ID       uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	ReportID uuid.UUID  `gorm:"type:uuid;not null;index" json:"report_id"`
	OrderID  *uuid.UUID `gorm:"type:uuid;index" json:"order_id,omitempty"`
	Activity string     `gorm:"type:text" json:"activity"`
	Service  string     `gorm:"size:255" json:"service"`
	Team     string     `gorm:"size:255" json:"team"`
	Notes    string     `gorm:"type:text" json:"notes"`
	Color    string     `gorm:"size:20" json:"color"`
	Position int        `gorm:"default:0" json:"position"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Order *Order `gorm:"foreignKey:OrderID" json:"order,omitempty"`
}

// BeforeCreate generates a UUID before creating a new order row
func (r *ReportOrderRow) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the ReportOrderRow model
func (ReportOrderRow) TableName() string {
	return "report_order_rows"
}

// IsEmpty reports whether every meaningful field of the row is unset.
// Color and position are display bookkeeping and do not count.
func (r *ReportOrderRow) IsEmpty() bool {
	return r.OrderID == nil &&
		r.Activity == "" &&
		r.Service == "" &&
		r.Team == "" &&
		r.Notes == ""
}

// IsWritable reports whether the row is persisted on flush. An activity row
// is only stored once it references an order.
func (r *ReportOrderRow) IsWritable() bool {
	return r.OrderID != nil
}

// ReportStaffRow is one attendance/financial line in a daily report. The
// single row with IsCashBox set represents the shared cash box ledger
// rather than an individual contributor.
type ReportStaffRow struct {
	ID             uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	ReportID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"report_id"`
	StaffID        *uuid.UUID      `gorm:"type:uuid;index" json:"staff_id,omitempty"`
	Name           string          `gorm:"size:255" json:"name"`
	WorkStatus     enum.WorkStatus `gorm:"size:10;default:'present'" json:"work_status"`
	OvertimeHours  float64         `gorm:"default:0" json:"overtime_hours"`
	AmountReceived int64           `gorm:"default:0" json:"-"` // Stored in cents, excluded from JSON
	AmountSpent    int64           `gorm:"default:0" json:"-"` // Stored in cents, excluded from JSON
	ReceiveNotes   string          `gorm:"type:text" json:"receive_notes"`
	SpendNotes     string          `gorm:"type:text" json:"spend_notes"`
	IsCashBox      bool            `gorm:"default:false" json:"is_cash_box"`
	Position       int             `gorm:"default:0" json:"position"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Staff *User `gorm:"foreignKey:StaffID" json:"staff,omitempty"`
}

// MarshalJSON custom marshaler to convert cents to decimal for API responses
func (r ReportStaffRow) MarshalJSON() ([]byte, error) {
	type Alias ReportStaffRow
	return json.Marshal(&struct {
		Alias
		AmountReceived float64 `json:"amount_received"`
		AmountSpent    float64 `json:"amount_spent"`
	}{
		Alias:          Alias(r),
		AmountReceived: float64(r.AmountReceived) / 100,
		AmountSpent:    float64(r.AmountSpent) / 100,
	})
}

// UnmarshalJSON converts decimal amounts back to cents, so snapshots survive
// a round trip through the backup cache.
func (r *ReportStaffRow) UnmarshalJSON(data []byte) error {
	type Alias ReportStaffRow
	aux := &struct {
		*Alias
		AmountReceived float64 `json:"amount_received"`
		AmountSpent    float64 `json:"amount_spent"`
	}{Alias: (*Alias)(r)}
	if err := json.Unmarshal(data, aux); err != nil {
		return err
	}
	r.AmountReceived = int64(math.Round(aux.AmountReceived * 100))
	r.AmountSpent = int64(math.Round(aux.AmountSpent * 100))
	return nil
}

// BeforeCreate generates a UUID before creating a new staff row
func (r *ReportStaffRow) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the ReportStaffRow model
func (ReportStaffRow) TableName() string {
	return "report_staff_rows"
}

// IsEmpty reports whether the row carries no non-default field value. The
// cash box flag is pinned bookkeeping and is ignored here; callers exclude
// the cash box row from emptiness scans entirely.
func (r *ReportStaffRow) IsEmpty() bool {
	return r.StaffID == nil &&
		r.Name == "" &&
		(r.WorkStatus == "" || r.WorkStatus == enum.WorkStatusPresent) &&
		r.OvertimeHours == 0 &&
		r.AmountReceived == 0 &&
		r.AmountSpent == 0 &&
		r.ReceiveNotes == "" &&
		r.SpendNotes == ""
}

// IsWritable reports whether the row is persisted on flush: the cash box row
// always is, other rows once they carry any non-default value.
func (r *ReportStaffRow) IsWritable() bool {
	return r.IsCashBox || !r.IsEmpty()
}
