package model

import "time"

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusFailed     OrderStatus = "failed"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusCompleted, OrderStatusFailed:
		return true
	}
	return false
}

// Terminal reports whether the status ends the order's lifecycle for the
// current run. Failed orders stay failed until re-queued externally.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusFailed
}

type Order struct {
	ID            string      `json:"id"`
	RequesterID   string      `json:"requesterId"`
	RequesterName string      `json:"requesterName,omitempty"`
	ProductURL    string      `json:"productUrl"`
	Size          string      `json:"size,omitempty"`
	Color         string      `json:"color,omitempty"`
	Quantity      int         `json:"quantity"`
	Status        OrderStatus `json:"status"`
	Note          string      `json:"note,omitempty"`
	CreatedAt     time.Time   `json:"createdAt"`
	ProcessedAt   time.Time   `json:"processedAt,omitzero"`
}

// BatchResult aggregates one pass over the pending backlog.
type BatchResult struct {
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Total     int `json:"total"`
}
