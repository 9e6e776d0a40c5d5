package enum

import (
	"database/sql/driver"
	"encoding/json"
)

// OrderStatus represents the lifecycle status of a construction order
type OrderStatus int

const (
	OrderStatusPending   OrderStatus = 0
	OrderStatusActive    OrderStatus = 1
	OrderStatusComplete  OrderStatus = 2
	OrderStatusCancelled OrderStatus = 3
)

func (s OrderStatus) String() string {
	return [...]string{"Pending", "Active", "Complete", "Cancelled"}[s]
}

func (s OrderStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *OrderStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		// Try unmarshaling as int
		var i int
		if err := json.Unmarshal(data, &i); err != nil {
			return err
		}
		*s = OrderStatus(i)
		return nil
	}
	switch str {
	case "Pending":
		*s = OrderStatusPending
	case "Active":
		*s = OrderStatusActive
	case "Complete":
		*s = OrderStatusComplete
	case "Cancelled":
		*s = OrderStatusCancelled
	}
	return nil
}

// ParseOrderStatus maps the lowercase API form to a status. The second
// return is false for unknown input.
func ParseOrderStatus(str string) (OrderStatus, bool) {
	switch str {
	case "pending":
		return OrderStatusPending, true
	case "active":
		return OrderStatusActive, true
	case "complete":
		return OrderStatusComplete, true
	case "cancelled":
		return OrderStatusCancelled, true
	}
	return OrderStatusPending, false
}

func (s OrderStatus) Value() (driver.Value, error) {
	return int64(s), nil
}

func (s *OrderStatus) Scan(value interface{}) error {
	if value == nil {
		*s = OrderStatusPending
		return nil
	}
	switch v := value.(type) {
	case int64:
		*s = OrderStatus(v)
	case int:
		*s = OrderStatus(v)
	}
	return nil
}
