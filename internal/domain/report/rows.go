package report

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/buildcrew/fieldreport-api/internal/domain/entity"
	"github.com/buildcrew/fieldreport-api/internal/domain/enum"
	"github.com/google/uuid"
)

// DefaultPalette is the fallback display-color cycle for activity rows.
var DefaultPalette = []string{
	"red", "orange", "yellow", "green", "teal", "blue", "purple", "pink",
}

// Controller maintains the shape invariants of the two editable row
// collections: both always hold at least one row with exactly one trailing
// empty row, and the staff collection always holds exactly one pinned cash
// box row. Pure logic, no I/O.
type Controller struct {
	palette []string
}

// NewController creates a controller with the given color palette. A nil or
// empty palette falls back to DefaultPalette.
func NewController(palette []string) *Controller {
	if len(palette) == 0 {
		palette = DefaultPalette
	}
	return &Controller{palette: palette}
}

// NewOrderRow constructs a fresh empty activity row; the display color is
// assigned cyclically by the row's index at creation time.
func (c *Controller) NewOrderRow(index int) entity.ReportOrderRow {
	return entity.ReportOrderRow{
		Color: c.palette[((index%len(c.palette))+len(c.palette))%len(c.palette)],
	}
}

// NewStaffRow constructs a fresh empty attendance row
func (c *Controller) NewStaffRow() entity.ReportStaffRow {
	return entity.ReportStaffRow{WorkStatus: enum.WorkStatusPresent}
}

// NewCashBoxRow constructs the pinned shared-ledger row
func (c *Controller) NewCashBoxRow() entity.ReportStaffRow {
	return entity.ReportStaffRow{
		Name:       "Cash box",
		WorkStatus: enum.WorkStatusPresent,
		IsCashBox:  true,
	}
}

// MinimalOrderRows returns the smallest valid activity collection
func (c *Controller) MinimalOrderRows() []entity.ReportOrderRow {
	return []entity.ReportOrderRow{c.NewOrderRow(0)}
}

// MinimalStaffRows returns the smallest valid staff collection: the cash box
// row plus one empty attendance row.
func (c *Controller) MinimalStaffRows() []entity.ReportStaffRow {
	return []entity.ReportStaffRow{c.NewCashBoxRow(), c.NewStaffRow()}
}

// NormalizeOrderRows restores the trailing-empty-row invariant: exactly one
// empty row at the end of the collection. Idempotent.
func (c *Controller) NormalizeOrderRows(rows []entity.ReportOrderRow) []entity.ReportOrderRow {
	out := make([]entity.ReportOrderRow, len(rows))
	copy(out, rows)

	trailing := 0
	for i := len(out) - 1; i >= 0; i-- {
		if !out[i].IsEmpty() {
			break
		}
		trailing++
	}

	switch {
	case trailing == 0:
		out = append(out, c.NewOrderRow(len(out)))
	case trailing > 1:
		out = out[:len(out)-(trailing-1)]
	}
	return out
}

// NormalizeStaffRows restores both staff invariants: exactly one cash box
// row, and exactly one trailing empty row among the remaining rows. The cash
// box row is never counted, removed, or duplicated by the emptiness scan.
// Idempotent.
func (c *Controller) NormalizeStaffRows(rows []entity.ReportStaffRow) []entity.ReportStaffRow {
	out := c.ensureCashBox(rows)

	trailing := 0
	for i := len(out) - 1; i >= 0; i-- {
		if out[i].IsCashBox {
			continue
		}
		if !out[i].IsEmpty() {
			break
		}
		trailing++
	}

	switch {
	case trailing == 0:
		out = append(out, c.NewStaffRow())
	case trailing > 1:
		for surplus := trailing - 1; surplus > 0; surplus-- {
			for i := len(out) - 1; i >= 0; i-- {
				if out[i].IsCashBox {
					continue
				}
				out = append(out[:i], out[i+1:]...)
				break
			}
		}
	}
	return out
}

// ensureCashBox keeps exactly one cash box row, pinned at the front when one
// has to be created. Stored data with duplicates keeps the first and drops
// the rest.
func (c *Controller) ensureCashBox(rows []entity.ReportStaffRow) []entity.ReportStaffRow {
	out := make([]entity.ReportStaffRow, 0, len(rows)+1)
	seen := false
	for _, row := range rows {
		if row.IsCashBox {
			if seen {
				continue
			}
			seen = true
		}
		out = append(out, row)
	}
	if !seen {
		out = append([]entity.ReportStaffRow{c.NewCashBoxRow()}, out...)
	}
	return out
}

// AddOrderRow appends a fresh activity row. Appending to a collection whose
// tail is already empty collapses back to one trailing empty row.
func (c *Controller) AddOrderRow(rows []entity.ReportOrderRow) []entity.ReportOrderRow {
	return c.NormalizeOrderRows(append(rows, c.NewOrderRow(len(rows))))
}

// AddStaffRow appends a fresh attendance row
func (c *Controller) AddStaffRow(rows []entity.ReportStaffRow) []entity.ReportStaffRow {
	return c.NormalizeStaffRows(append(rows, c.NewStaffRow()))
}

// RemoveOrderRow deletes the row at index and re-normalizes
func (c *Controller) RemoveOrderRow(rows []entity.ReportOrderRow, index int) ([]entity.ReportOrderRow, error) {
	if len(rows) == 0 {
		return nil, NewInvariantViolation("order row collection is empty")
	}
	if index < 0 || index >= len(rows) {
		return nil, NewInvariantViolation(fmt.Sprintf("order row index %d out of range", index))
	}
	out := make([]entity.ReportOrderRow, 0, len(rows)-1)
	out = append(out, rows[:index]...)
	out = append(out, rows[index+1:]...)
	return c.NormalizeOrderRows(out), nil
}

// RemoveStaffRow deletes the row at index and re-normalizes. Removing the
// pinned cash box row is rejected, not silently ignored.
func (c *Controller) RemoveStaffRow(rows []entity.ReportStaffRow, index int) ([]entity.ReportStaffRow, error) {
	if len(rows) == 0 {
		return nil, NewInvariantViolation("staff row collection is empty")
	}
	if index < 0 || index >= len(rows) {
		return nil, NewInvariantViolation(fmt.Sprintf("staff row index %d out of range", index))
	}
	if rows[index].IsCashBox {
		return nil, NewInvariantViolation("the cash box row cannot be removed")
	}
	out := make([]entity.ReportStaffRow, 0, len(rows)-1)
	out = append(out, rows[:index]...)
	out = append(out, rows[index+1:]...)
	return c.NormalizeStaffRows(out), nil
}

// UpdateOrderField applies a single field edit to the row at index and
// re-normalizes, so the returned collection is always invariant-valid.
func (c *Controller) UpdateOrderField(rows []entity.ReportOrderRow, index int, field, value string) ([]entity.ReportOrderRow, error) {
	if len(rows) == 0 {
		return nil, NewInvariantViolation("order row collection is empty")
	}
	if index < 0 || index >= len(rows) {
		return nil, NewInvariantViolation(fmt.Sprintf("order row index %d out of range", index))
	}

	out := make([]entity.ReportOrderRow, len(rows))
	copy(out, rows)
	row := &out[index]

	switch field {
	case "order_id":
		if value == "" {
			row.OrderID = nil
			break
		}
		id, err := uuid.Parse(value)
		if err != nil {
			return nil, NewInvariantViolation("order_id is not a valid UUID")
		}
		row.OrderID = &id
	case "activity":
		row.Activity = value
	case "service":
		row.Service = value
	case "team":
		row.Team = value
	case "notes":
		row.Notes = value
	default:
		return nil, NewInvariantViolation("unknown order row field " + field)
	}

	return c.NormalizeOrderRows(out), nil
}

// UpdateStaffField applies a single field edit to the row at index and
// re-normalizes. Numeric fields clamp negative and unparsable input to zero.
func (c *Controller) UpdateStaffField(rows []entity.ReportStaffRow, index int, field, value string) ([]entity.ReportStaffRow, error) {
	if len(rows) == 0 {
		return nil, NewInvariantViolation("staff row collection is empty")
	}
	if index < 0 || index >= len(rows) {
		return nil, NewInvariantViolation(fmt.Sprintf("staff row index %d out of range", index))
	}

	out := make([]entity.ReportStaffRow, len(rows))
	copy(out, rows)
	row := &out[index]

	switch field {
	case "staff_id":
		if value == "" {
			row.StaffID = nil
			break
		}
		id, err := uuid.Parse(value)
		if err != nil {
			return nil, NewInvariantViolation("staff_id is not a valid UUID")
		}
		row.StaffID = &id
	case "name":
		row.Name = value
	case "work_status":
		row.WorkStatus = enum.ParseWorkStatus(value)
	case "overtime_hours":
		row.OvertimeHours = ParseHours(value)
	case "amount_received":
		row.AmountReceived = ParseAmountCents(value)
	case "amount_spent":
		row.AmountSpent = ParseAmountCents(value)
	case "receive_notes":
		row.ReceiveNotes = value
	case "spend_notes":
		row.SpendNotes = value
	default:
		return nil, NewInvariantViolation("unknown staff row field " + field)
	}

	return c.NormalizeStaffRows(out), nil
}

// ParseAmountCents parses a money amount into cents. Unparsable or negative
// input is treated as zero.
func ParseAmountCents(s string) int64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v <= 0 || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0
	}
	return int64(math.Round(v * 100))
}

// ParseHours parses an hours value. Unparsable or negative input is treated
// as zero.
func ParseHours(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v <= 0 || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0
	}
	return v
}
