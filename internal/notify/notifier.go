// Package notify reports finished batch runs to the operator.
package notify

import (
	"context"
	"time"
)

type OrderLine struct {
	OrderID   string `json:"orderId"`
	Requester string `json:"requester,omitempty"`
	Product   string `json:"product"`
	Status    string `json:"status"`
	Note      string `json:"note,omitempty"`
}

// BatchSummary is the recap of one sweep over the pending backlog.
type BatchSummary struct {
	At        time.Time   `json:"at"`
	Succeeded int         `json:"succeeded"`
	Failed    int         `json:"failed"`
	Total     int         `json:"total"`
	Orders    []OrderLine `json:"orders,omitempty"`
}

type Notifier interface {
	NotifyBatchFinished(ctx context.Context, summary BatchSummary) error
}

// Nop is used when no notification channel is configured.
type Nop struct{}

func (Nop) NotifyBatchFinished(context.Context, BatchSummary) error { return nil }
