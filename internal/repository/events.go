package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"afisha/internal/database"
	"afisha/internal/models"

	"github.com/lib/pq"
)

const eventColumns = `id, title, annotation, description, category_id, initiator_id, lat, lon,
	       event_date, paid, participant_limit, request_moderation, state, created_on, published_on`

type EventRepository interface {
	Create(ctx context.Context, event *models.Event) error
	GetByID(ctx context.Context, id int64) (*models.Event, error)
	GetByIDs(ctx context.Context, ids []int64) ([]models.Event, error)
	Update(ctx context.Context, event *models.Event) error
	ByInitiator(ctx context.Context, initiatorID int64, from, size int) ([]models.Event, error)
	AdminSearch(ctx context.Context, filter models.AdminEventFilter) ([]models.Event, error)
	PublicSearch(ctx context.Context, filter models.PublicEventFilter) ([]models.Event, error)
}

type eventRepository struct {
	db *database.DB
}

func NewEventRepository(db *database.DB) EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) Create(ctx context.Context, event *models.Event) error {
	query := `
		INSERT INTO events (title, annotation, description, category_id, initiator_id, lat, lon,
		                    event_date, paid, participant_limit, request_moderation, state)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_on`

	return r.db.QueryRowContext(ctx, query,
		event.Title,
		event.Annotation,
		event.Description,
		event.CategoryID,
		event.InitiatorID,
		event.Lat,
		event.Lon,
		event.EventDate,
		event.Paid,
		event.ParticipantLimit,
		event.RequestModeration,
		event.State,
	).Scan(&event.ID, &event.CreatedOn)
}

func (r *eventRepository) GetByID(ctx context.Context, id int64) (*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`

	event, err := scanEvent(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}

	return event, err
}

func (r *eventRepository) GetByIDs(ctx context.Context, ids []int64) ([]models.Event, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `SELECT ` + eventColumns + ` FROM events WHERE id = ANY($1) ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEvents(rows)
}

func (r *eventRepository) Update(ctx context.Context, event *models.Event) error {
	query := `
		UPDATE events
		SET title = $1, annotation = $2, description = $3, category_id = $4, lat = $5, lon = $6,
		    event_date = $7, paid = $8, participant_limit = $9, request_moderation = $10,
		    state = $11, published_on = $12
		WHERE id = $13`

	_, err := r.db.ExecContext(ctx, query,
		event.Title,
		event.Annotation,
		event.Description,
		event.CategoryID,
		event.Lat,
		event.Lon,
		event.EventDate,
		event.Paid,
		event.ParticipantLimit,
		event.RequestModeration,
		event.State,
		event.PublishedOn,
		event.ID,
	)

	return err
}

func (r *eventRepository) ByInitiator(ctx context.Context, initiatorID int64, from, size int) ([]models.Event, error) {
	query := `SELECT ` + eventColumns + `
		FROM events
		WHERE initiator_id = $1
		ORDER BY event_date DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.QueryContext(ctx, query, initiatorID, size, from)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEvents(rows)
}

func (r *eventRepository) AdminSearch(ctx context.Context, filter models.AdminEventFilter) ([]models.Event, error) {
	var args []interface{}
	argIndex := 1

	query := `SELECT ` + eventColumns + ` FROM events WHERE 1=1`

	if len(filter.Users) > 0 {
		query += fmt.Sprintf(" AND initiator_id = ANY($%d)", argIndex)
		args = append(args, pq.Array(filter.Users))
		argIndex++
	}
	if len(filter.States) > 0 {
		states := make([]string, len(filter.States))
		for i, s := range filter.States {
			states[i] = string(s)
		}
		query += fmt.Sprintf(" AND state = ANY($%d)", argIndex)
		args = append(args, pq.Array(states))
		argIndex++
	}
	if len(filter.Categories) > 0 {
		query += fmt.Sprintf(" AND category_id = ANY($%d)", argIndex)
		args = append(args, pq.Array(filter.Categories))
		argIndex++
	}
	if filter.RangeStart != nil {
		query += fmt.Sprintf(" AND event_date >= $%d", argIndex)
		args = append(args, *filter.RangeStart)
		argIndex++
	}
	if filter.RangeEnd != nil {
		query += fmt.Sprintf(" AND event_date <= $%d", argIndex)
		args = append(args, *filter.RangeEnd)
		argIndex++
	}

	query += fmt.Sprintf(" ORDER BY event_date DESC LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, filter.Size, filter.From)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEvents(rows)
}

func (r *eventRepository) PublicSearch(ctx context.Context, filter models.PublicEventFilter) ([]models.Event, error) {
	var args []interface{}
	argIndex := 1

	query := `SELECT ` + eventColumns + ` FROM events WHERE state = 'PUBLISHED'`

	var searchArgIndex int
	if filter.Text != "" {
		// Full-text search with Russian language support
		searchArgIndex = argIndex
		query += fmt.Sprintf(" AND search_vector @@ to_tsquery('russian', $%d)", argIndex)
		args = append(args, prepareSearchQuery(filter.Text))
		argIndex++
	}
	if len(filter.Categories) > 0 {
		query += fmt.Sprintf(" AND category_id = ANY($%d)", argIndex)
		args = append(args, pq.Array(filter.Categories))
		argIndex++
	}
	if filter.Paid != nil {
		query += fmt.Sprintf(" AND paid = $%d", argIndex)
		args = append(args, *filter.Paid)
		argIndex++
	}
	if filter.RangeStart != nil {
		query += fmt.Sprintf(" AND event_date >= $%d", argIndex)
		args = append(args, *filter.RangeStart)
		argIndex++
	}
	if filter.RangeEnd != nil {
		query += fmt.Sprintf(" AND event_date <= $%d", argIndex)
		args = append(args, *filter.RangeEnd)
		argIndex++
	}
	if filter.OnlyAvailable {
		query += ` AND (participant_limit = 0 OR participant_limit > (
			SELECT COUNT(*) FROM requests
			WHERE requests.event_id = events.id AND requests.status = 'CONFIRMED'))`
	}

	switch {
	case filter.Sort == "event_date":
		query += " ORDER BY event_date DESC"
	case filter.Text != "":
		query += fmt.Sprintf(" ORDER BY ts_rank(search_vector, to_tsquery('russian', $%d)) DESC, id ASC", searchArgIndex)
	default:
		query += " ORDER BY id ASC"
	}

	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, filter.Size, filter.From)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEvents(rows)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEvent(row rowScanner) (*models.Event, error) {
	event := &models.Event{}
	err := row.Scan(
		&event.ID,
		&event.Title,
		&event.Annotation,
		&event.Description,
		&event.CategoryID,
		&event.InitiatorID,
		&event.Lat,
		&event.Lon,
		&event.EventDate,
		&event.Paid,
		&event.ParticipantLimit,
		&event.RequestModeration,
		&event.State,
		&event.CreatedOn,
		&event.PublishedOn,
	)
	return event, err
}

func scanEvents(rows *sql.Rows) ([]models.Event, error) {
	var events []models.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *event)
	}
	return events, rows.Err()
}

// prepareSearchQuery formats a search query for PostgreSQL full-text search.
func prepareSearchQuery(query string) string {
	words := strings.Fields(strings.TrimSpace(query))
	if len(words) == 0 {
		return ""
	}

	formatted := make([]string, 0, len(words))
	for _, word := range words {
		formatted = append(formatted, word+":*")
	}

	return strings.Join(formatted, " & ")
}
