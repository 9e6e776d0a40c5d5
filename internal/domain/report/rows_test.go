package report_test

import (
	"testing"

	"github.com/buildcrew/fieldreport-api/internal/domain/entity"
	"github.com/buildcrew/fieldreport-api/internal/domain/enum"
	"github.com/buildcrew/fieldreport-api/internal/domain/report"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func orderRowFor(orderID uuid.UUID) entity.ReportOrderRow {
	return entity.ReportOrderRow{OrderID: &orderID, Activity: "excavation"}
}

func staffRowFor(staffID uuid.UUID) entity.ReportStaffRow {
	return entity.ReportStaffRow{StaffID: &staffID, Name: "J. Mwangi"}
}

func TestNormalizeOrderRows_AppendsTrailingEmpty(t *testing.T) {
	c := report.NewController(nil)

	rows := []entity.ReportOrderRow{orderRowFor(uuid.New())}
	out := c.NormalizeOrderRows(rows)

	require.Len(t, out, 2)
	assert.False(t, out[0].IsEmpty())
	assert.True(t, out[1].IsEmpty())
}

func TestNormalizeOrderRows_TrimsSurplusEmpties(t *testing.T) {
	c := report.NewController(nil)

	rows := []entity.ReportOrderRow{
		orderRowFor(uuid.New()),
		c.NewOrderRow(1),
		c.NewOrderRow(2),
		c.NewOrderRow(3),
	}
	out := c.NormalizeOrderRows(rows)

	require.Len(t, out, 2)
	assert.True(t, out[1].IsEmpty())
}

func TestNormalizeOrderRows_Idempotent(t *testing.T) {
	c := report.NewController(nil)

	rows := c.NormalizeOrderRows([]entity.ReportOrderRow{orderRowFor(uuid.New())})
	again := c.NormalizeOrderRows(rows)

	assert.Equal(t, rows, again)
}

func TestNormalizeOrderRows_EmptyCollectionGetsOneRow(t *testing.T) {
	c := report.NewController(nil)

	out := c.NormalizeOrderRows(nil)

	require.Len(t, out, 1)
	assert.True(t, out[0].IsEmpty())
}

func TestNormalizeStaffRows_PrependsCashBox(t *testing.T) {
	c := report.NewController(nil)

	out := c.NormalizeStaffRows([]entity.ReportStaffRow{staffRowFor(uuid.New())})

	require.GreaterOrEqual(t, len(out), 3)
	assert.True(t, out[0].IsCashBox)
	assert.False(t, out[1].IsCashBox)
	assert.True(t, out[len(out)-1].IsEmpty())
}

func TestNormalizeStaffRows_DropsDuplicateCashBoxes(t *testing.T) {
	c := report.NewController(nil)

	rows := []entity.ReportStaffRow{c.NewCashBoxRow(), c.NewCashBoxRow(), staffRowFor(uuid.New())}
	out := c.NormalizeStaffRows(rows)

	count := 0
	for _, r := range out {
		if r.IsCashBox {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestNormalizeStaffRows_CashBoxNeverCountedAsTrailingEmpty(t *testing.T) {
	c := report.NewController(nil)

	// Cash box at the end must not satisfy the trailing-empty requirement
	rows := []entity.ReportStaffRow{staffRowFor(uuid.New()), c.NewCashBoxRow()}
	out := c.NormalizeStaffRows(rows)

	last := out[len(out)-1]
	if last.IsCashBox {
		last = out[len(out)-2]
	}
	assert.True(t, last.IsEmpty())
	assert.False(t, last.IsCashBox)
}

func TestAddOrderRow_CollapsesToSingleTrailingEmpty(t *testing.T) {
	c := report.NewController(nil)

	rows := c.MinimalOrderRows()
	rows = c.AddOrderRow(rows)
	rows = c.AddOrderRow(rows)

	require.Len(t, rows, 1)
	assert.True(t, rows[0].IsEmpty())
}

func TestRemoveStaffRow_CashBoxRejected(t *testing.T) {
	c := report.NewController(nil)

	rows := c.MinimalStaffRows()
	_, err := c.RemoveStaffRow(rows, 0)

	require.Error(t, err)
	assert.True(t, report.IsInvariantViolation(err))
}

func TestRemoveOrderRow_OutOfRange(t *testing.T) {
	c := report.NewController(nil)

	rows := c.MinimalOrderRows()
	_, err := c.RemoveOrderRow(rows, 5)

	require.Error(t, err)
	assert.True(t, report.IsInvariantViolation(err))
}

func TestRemoveOrderRow_RestoresTrailingEmpty(t *testing.T) {
	c := report.NewController(nil)

	rows := []entity.ReportOrderRow{orderRowFor(uuid.New()), orderRowFor(uuid.New())}
	rows = c.NormalizeOrderRows(rows)
	require.Len(t, rows, 3)

	out, err := c.RemoveOrderRow(rows, 0)
	require.NoError(t, err)

	require.Len(t, out, 2)
	assert.False(t, out[0].IsEmpty())
	assert.True(t, out[1].IsEmpty())
}

func TestUpdateOrderField_EditingLastRowGrowsCollection(t *testing.T) {
	c := report.NewController(nil)

	rows := c.MinimalOrderRows()
	out, err := c.UpdateOrderField(rows, 0, "activity", "site prep")
	require.NoError(t, err)

	// Filling the only empty row must spawn a new trailing empty one
	require.Len(t, out, 2)
	assert.Equal(t, "site prep", out[0].Activity)
	assert.True(t, out[1].IsEmpty())
}

func TestUpdateOrderField_ClearingLastFieldShrinksCollection(t *testing.T) {
	c := report.NewController(nil)

	rows := c.MinimalOrderRows()
	rows, err := c.UpdateOrderField(rows, 0, "activity", "site prep")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	rows, err = c.UpdateOrderField(rows, 0, "activity", "")
	require.NoError(t, err)

	// Both rows empty again, surplus trimmed
	require.Len(t, rows, 1)
	assert.True(t, rows[0].IsEmpty())
}

func TestUpdateOrderField_OrderID(t *testing.T) {
	c := report.NewController(nil)
	id := uuid.New()

	rows, err := c.UpdateOrderField(c.MinimalOrderRows(), 0, "order_id", id.String())
	require.NoError(t, err)
	require.NotNil(t, rows[0].OrderID)
	assert.Equal(t, id, *rows[0].OrderID)

	rows, err = c.UpdateOrderField(rows, 0, "order_id", "")
	require.NoError(t, err)
	assert.Nil(t, rows[0].OrderID)

	_, err = c.UpdateOrderField(rows, 0, "order_id", "not-a-uuid")
	require.Error(t, err)
	assert.True(t, report.IsInvariantViolation(err))
}

func TestUpdateOrderField_UnknownField(t *testing.T) {
	c := report.NewController(nil)

	_, err := c.UpdateOrderField(c.MinimalOrderRows(), 0, "budget", "100")

	require.Error(t, err)
	assert.True(t, report.IsInvariantViolation(err))
}

func TestUpdateStaffField_AmountsAndStatus(t *testing.T) {
	c := report.NewController(nil)

	rows := c.MinimalStaffRows()
	rows, err := c.UpdateStaffField(rows, 1, "amount_received", "12.34")
	require.NoError(t, err)
	assert.Equal(t, int64(1234), rows[1].AmountReceived)

	rows, err = c.UpdateStaffField(rows, 1, "work_status", "absent")
	require.NoError(t, err)
	assert.Equal(t, enum.WorkStatusAbsent, rows[1].WorkStatus)

	rows, err = c.UpdateStaffField(rows, 1, "overtime_hours", "2.5")
	require.NoError(t, err)
	assert.Equal(t, 2.5, rows[1].OvertimeHours)
}

func TestParseAmountCents_ClampsBadInput(t *testing.T) {
	assert.Equal(t, int64(0), report.ParseAmountCents("garbage"))
	assert.Equal(t, int64(0), report.ParseAmountCents("-5"))
	assert.Equal(t, int64(0), report.ParseAmountCents("NaN"))
	assert.Equal(t, int64(0), report.ParseAmountCents("+Inf"))
	assert.Equal(t, int64(1050), report.ParseAmountCents("10.50"))
	assert.Equal(t, int64(10), report.ParseAmountCents(" 0.10 "))
}

func TestParseHours_ClampsBadInput(t *testing.T) {
	assert.Equal(t, 0.0, report.ParseHours("nope"))
	assert.Equal(t, 0.0, report.ParseHours("-1"))
	assert.Equal(t, 1.5, report.ParseHours("1.5"))
}

func TestNewOrderRow_ColorsCycle(t *testing.T) {
	palette := []string{"red", "green", "blue"}
	c := report.NewController(palette)

	assert.Equal(t, "red", c.NewOrderRow(0).Color)
	assert.Equal(t, "green", c.NewOrderRow(1).Color)
	assert.Equal(t, "blue", c.NewOrderRow(2).Color)
	assert.Equal(t, "red", c.NewOrderRow(3).Color)
}
