package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"afisha/internal/database"
	"afisha/internal/models"

	"github.com/lib/pq"
)

// ErrEventNotFound is returned by InEventTx when the event row does not exist.
var ErrEventNotFound = errors.New("event not found")

const requestColumns = `id, event_id, requester_id, status, created`

// EventTx is the view of request storage inside a transaction holding the
// event row lock. Capacity checks and the mutations they guard must go
// through it so concurrent submissions and batch confirmations on the same
// event serialize.
type EventTx interface {
	Event() *models.Event
	ConfirmedCount(ctx context.Context) (int, error)
	PendingRequests(ctx context.Context) ([]models.Request, error)
	RequestByRequester(ctx context.Context, requesterID int64) (*models.Request, error)
	InsertRequest(ctx context.Context, req *models.Request) error
	UpdateRequestStatuses(ctx context.Context, ids []int64, status models.RequestStatus) error
}

type RequestRepository interface {
	// InEventTx locks the event row FOR UPDATE and runs fn in the same
	// transaction; fn's mutations commit atomically or not at all.
	InEventTx(ctx context.Context, eventID int64, fn func(tx EventTx) error) error
	GetByID(ctx context.Context, id int64) (*models.Request, error)
	ByRequester(ctx context.Context, requesterID int64) ([]models.Request, error)
	ByEvent(ctx context.Context, eventID int64) ([]models.Request, error)
	ByEventAndRequester(ctx context.Context, eventID, requesterID int64) (*models.Request, error)
	UpdateStatus(ctx context.Context, id int64, status models.RequestStatus) error
	ConfirmedCounts(ctx context.Context, eventIDs []int64) (map[int64]int, error)
}

type requestRepository struct {
	db *database.DB
}

func NewRequestRepository(db *database.DB) RequestRepository {
	return &requestRepository{db: db}
}

func (r *requestRepository) InEventTx(ctx context.Context, eventID int64, fn func(tx EventTx) error) error {
	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = dbTx.Rollback()
			panic(p)
		}
	}()

	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1 FOR UPDATE`
	event, err := scanEvent(dbTx.QueryRowContext(ctx, query, eventID))
	if err != nil {
		_ = dbTx.Rollback()
		if err == sql.ErrNoRows {
			return ErrEventNotFound
		}
		return fmt.Errorf("failed to lock event: %w", err)
	}

	if err := fn(&eventTx{tx: dbTx, event: event}); err != nil {
		_ = dbTx.Rollback()
		return err
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

type eventTx struct {
	tx    *sql.Tx
	event *models.Event
}

func (t *eventTx) Event() *models.Event {
	return t.event
}

func (t *eventTx) ConfirmedCount(ctx context.Context) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM requests WHERE event_id = $1 AND status = 'CONFIRMED'`
	err := t.tx.QueryRowContext(ctx, query, t.event.ID).Scan(&count)
	return count, err
}

func (t *eventTx) PendingRequests(ctx context.Context) ([]models.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM requests
		WHERE event_id = $1 AND status = 'PENDING'
		ORDER BY id`

	rows, err := t.tx.QueryContext(ctx, query, t.event.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRequests(rows)
}

func (t *eventTx) RequestByRequester(ctx context.Context, requesterID int64) (*models.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM requests
		WHERE event_id = $1 AND requester_id = $2
		ORDER BY id DESC
		LIMIT 1`

	req, err := scanRequest(t.tx.QueryRowContext(ctx, query, t.event.ID, requesterID))
	if err == sql.ErrNoRows {
		return nil, nil
	}

	return req, err
}

func (t *eventTx) InsertRequest(ctx context.Context, req *models.Request) error {
	query := `
		INSERT INTO requests (event_id, requester_id, status)
		VALUES ($1, $2, $3)
		RETURNING id, created`

	return t.tx.QueryRowContext(ctx, query, req.EventID, req.RequesterID, req.Status).
		Scan(&req.ID, &req.Created)
}

func (t *eventTx) UpdateRequestStatuses(ctx context.Context, ids []int64, status models.RequestStatus) error {
	if len(ids) == 0 {
		return nil
	}
	query := `UPDATE requests SET status = $1 WHERE id = ANY($2)`
	_, err := t.tx.ExecContext(ctx, query, status, pq.Array(ids))
	return err
}

func (r *requestRepository) GetByID(ctx context.Context, id int64) (*models.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM requests WHERE id = $1`

	req, err := scanRequest(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}

	return req, err
}

func (r *requestRepository) ByRequester(ctx context.Context, requesterID int64) ([]models.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM requests
		WHERE requester_id = $1
		ORDER BY created DESC`

	rows, err := r.db.QueryContext(ctx, query, requesterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRequests(rows)
}

func (r *requestRepository) ByEvent(ctx context.Context, eventID int64) ([]models.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM requests
		WHERE event_id = $1
		ORDER BY created DESC`

	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRequests(rows)
}

func (r *requestRepository) ByEventAndRequester(ctx context.Context, eventID, requesterID int64) (*models.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM requests
		WHERE event_id = $1 AND requester_id = $2
		ORDER BY id DESC
		LIMIT 1`

	req, err := scanRequest(r.db.QueryRowContext(ctx, query, eventID, requesterID))
	if err == sql.ErrNoRows {
		return nil, nil
	}

	return req, err
}

func (r *requestRepository) UpdateStatus(ctx context.Context, id int64, status models.RequestStatus) error {
	query := `UPDATE requests SET status = $1 WHERE id = $2`
	_, err := r.db.ExecContext(ctx, query, status, id)
	return err
}

func (r *requestRepository) ConfirmedCounts(ctx context.Context, eventIDs []int64) (map[int64]int, error) {
	result := make(map[int64]int, len(eventIDs))
	if len(eventIDs) == 0 {
		return result, nil
	}

	query := `SELECT event_id, COUNT(*) FROM requests
		WHERE event_id = ANY($1) AND status = 'CONFIRMED'
		GROUP BY event_id`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(eventIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var eventID int64
		var count int
		if err := rows.Scan(&eventID, &count); err != nil {
			return nil, err
		}
		result[eventID] = count
	}

	return result, rows.Err()
}

func scanRequest(row rowScanner) (*models.Request, error) {
	req := &models.Request{}
	err := row.Scan(&req.ID, &req.EventID, &req.RequesterID, &req.Status, &req.Created)
	return req, err
}

func scanRequests(rows *sql.Rows) ([]models.Request, error) {
	var requests []models.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, *req)
	}
	return requests, rows.Err()
}
