package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"shein_sen/internal/model"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrNotPending    = errors.New("order is not pending")
	// ErrRequesterQuota is returned when a requester already has the maximum
	// number of open items in the backlog.
	ErrRequesterQuota = errors.New("requester item quota exceeded")
)

// InsertOrder stores a new pending order. maxOpenPerRequester > 0 caps how
// many pending/processing orders a single requester may hold at once.
func (s *Store) InsertOrder(ctx context.Context, o model.Order, maxOpenPerRequester int) (model.Order, error) {
	if o.ProductURL == "" {
		return model.Order{}, errors.New("productUrl is required")
	}
	if o.Quantity <= 0 {
		o.Quantity = 1
	}
	if o.Status == "" {
		o.Status = model.OrderStatusPending
	}
	if !o.Status.Valid() {
		return model.Order{}, fmt.Errorf("invalid status: %s", o.Status)
	}
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now()
	}

	if maxOpenPerRequester > 0 && o.RequesterID != "" {
		open, err := s.CountOpenByRequester(ctx, o.RequesterID)
		if err != nil {
			return model.Order{}, err
		}
		if open+o.Quantity > maxOpenPerRequester {
			return model.Order{}, ErrRequesterQuota
		}
	}

	var processedAt int64
	if !o.ProcessedAt.IsZero() {
		processedAt = o.ProcessedAt.UnixMilli()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO orders (id, requester_id, requester_name, product_url, size, color, quantity, status, note, created_at, processed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, o.ID, o.RequesterID, o.RequesterName, o.ProductURL, o.Size, o.Color, o.Quantity, string(o.Status), o.Note, o.CreatedAt.UnixMilli(), processedAt)
	if err != nil {
		return model.Order{}, err
	}
	return s.GetOrder(ctx, o.ID)
}

// CountOpenByRequester sums the quantities of a requester's not-yet-terminal
// orders.
func (s *Store) CountOpenByRequester(ctx context.Context, requesterID string) (int, error) {
	var n sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT SUM(quantity) FROM orders
		WHERE requester_id = ? AND status IN ('pending', 'processing')
	`, requesterID).Scan(&n)
	if err != nil {
		return 0, err
	}
	return int(n.Int64), nil
}

func (s *Store) GetOrder(ctx context.Context, id string) (model.Order, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, requester_id, requester_name, product_url, size, color, quantity, status, note, created_at, processed_at
		FROM orders WHERE id = ?
	`, id)
	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Order{}, ErrOrderNotFound
	}
	return o, err
}

// ListPending returns the backlog in intake order, oldest first. The batch
// processor walks this slice front to back.
func (s *Store) ListPending(ctx context.Context) ([]model.Order, error) {
	return s.listByStatus(ctx, model.OrderStatusPending)
}

func (s *Store) ListOrders(ctx context.Context) ([]model.Order, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, requester_id, requester_name, product_url, size, color, quantity, status, note, created_at, processed_at
		FROM orders ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectOrders(rows)
}

func (s *Store) listByStatus(ctx context.Context, status model.OrderStatus) ([]model.Order, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, requester_id, requester_name, product_url, size, color, quantity, status, note, created_at, processed_at
		FROM orders WHERE status = ? ORDER BY created_at ASC
	`, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectOrders(rows)
}

// MarkProcessing moves a pending order into processing. Refusing already
// taken orders keeps the pending -> processing transition one way.
func (s *Store) MarkProcessing(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE orders SET status = 'processing' WHERE id = ? AND status = 'pending'
	`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if _, err := s.GetOrder(ctx, id); err != nil {
			return err
		}
		return ErrNotPending
	}
	return nil
}

// MarkOutcome finalizes one processing attempt.
func (s *Store) MarkOutcome(ctx context.Context, id string, status model.OrderStatus, note string, processedAt time.Time) error {
	if !status.Terminal() {
		return fmt.Errorf("outcome status must be terminal, got %s", status)
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE orders SET status = ?, note = ?, processed_at = ? WHERE id = ?
	`, string(status), note, processedAt.UnixMilli(), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrOrderNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(r rowScanner) (model.Order, error) {
	var row struct {
		id            string
		requesterID   string
		requesterName string
		productURL    string
		size          string
		color         string
		quantity      int
		status        string
		note          string
		createdAt     int64
		processedAt   int64
	}
	err := r.Scan(&row.id, &row.requesterID, &row.requesterName, &row.productURL, &row.size, &row.color, &row.quantity, &row.status, &row.note, &row.createdAt, &row.processedAt)
	if err != nil {
		return model.Order{}, err
	}
	o := model.Order{
		ID:            row.id,
		RequesterID:   row.requesterID,
		RequesterName: row.requesterName,
		ProductURL:    row.productURL,
		Size:          row.size,
		Color:         row.color,
		Quantity:      row.quantity,
		Status:        model.OrderStatus(row.status),
		Note:          row.note,
		CreatedAt:     time.UnixMilli(row.createdAt),
	}
	if row.processedAt > 0 {
		o.ProcessedAt = time.UnixMilli(row.processedAt)
	}
	return o, nil
}

func collectOrders(rows *sql.Rows) ([]model.Order, error) {
	var out []model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
