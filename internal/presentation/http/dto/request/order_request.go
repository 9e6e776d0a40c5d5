package request

// CreateOrderRequest registers a construction order
type CreateOrderRequest struct {
	Code         string `json:"code" binding:"required,min=1,max=100"`
	CustomerName string `json:"customer_name" binding:"required,min=1,max=255"`
	SiteAddress  string `json:"site_address"`
	Notes        string `json:"notes"`
}

// UpdateOrderStatusRequest transitions an order's status
type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=pending active complete cancelled"`
}
