package request

// OpenSessionRequest opens an editing session for a report date. Date is
// YYYY-MM-DD; empty means today.
type OpenSessionRequest struct {
	Date string `json:"date" binding:"omitempty,datetime=2006-01-02"`
}

// UpdateFieldRequest edits a single field of one row. Values arrive as
// strings the way form inputs produce them; the row logic parses them.
type UpdateFieldRequest struct {
	Field string `json:"field" binding:"required"`
	Value string `json:"value"`
}
