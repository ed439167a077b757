package repository

import (
	"context"
	"database/sql"

	"afisha/internal/database"
	"afisha/internal/models"

	"github.com/lib/pq"
)

const reactionColumns = `id, event_id, participant_id, status, created`

type ReactionRepository interface {
	GetByPair(ctx context.Context, eventID, participantID int64) (*models.Reaction, error)
	Insert(ctx context.Context, reaction *models.Reaction) error
	UpdateStatus(ctx context.Context, id int64, status models.ReactionStatus) error
	Delete(ctx context.Context, id int64) error
	ByEvent(ctx context.Context, eventID int64, from, size int) ([]models.Reaction, error)
	// UserRatings computes LIKE minus DISLIKE over reactions on each user's
	// authored events. Users with no reactions are absent from the map.
	UserRatings(ctx context.Context, userIDs []int64) (map[int64]int64, error)
}

type reactionRepository struct {
	db *database.DB
}

func NewReactionRepository(db *database.DB) ReactionRepository {
	return &reactionRepository{db: db}
}

func (r *reactionRepository) GetByPair(ctx context.Context, eventID, participantID int64) (*models.Reaction, error) {
	query := `SELECT ` + reactionColumns + ` FROM reactions
		WHERE event_id = $1 AND participant_id = $2`

	reaction := &models.Reaction{}
	err := r.db.QueryRowContext(ctx, query, eventID, participantID).Scan(
		&reaction.ID,
		&reaction.EventID,
		&reaction.ParticipantID,
		&reaction.Status,
		&reaction.Created,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}

	return reaction, err
}

func (r *reactionRepository) Insert(ctx context.Context, reaction *models.Reaction) error {
	query := `
		INSERT INTO reactions (event_id, participant_id, status)
		VALUES ($1, $2, $3)
		RETURNING id, created`

	return r.db.QueryRowContext(ctx, query,
		reaction.EventID,
		reaction.ParticipantID,
		reaction.Status,
	).Scan(&reaction.ID, &reaction.Created)
}

func (r *reactionRepository) UpdateStatus(ctx context.Context, id int64, status models.ReactionStatus) error {
	query := `UPDATE reactions SET status = $1 WHERE id = $2`
	_, err := r.db.ExecContext(ctx, query, status, id)
	return err
}

func (r *reactionRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM reactions WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

func (r *reactionRepository) ByEvent(ctx context.Context, eventID int64, from, size int) ([]models.Reaction, error) {
	query := `SELECT ` + reactionColumns + ` FROM reactions
		WHERE event_id = $1
		ORDER BY created DESC, id DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.QueryContext(ctx, query, eventID, size, from)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reactions []models.Reaction
	for rows.Next() {
		var reaction models.Reaction
		err := rows.Scan(
			&reaction.ID,
			&reaction.EventID,
			&reaction.ParticipantID,
			&reaction.Status,
			&reaction.Created,
		)
		if err != nil {
			return nil, err
		}
		reactions = append(reactions, reaction)
	}

	return reactions, rows.Err()
}

func (r *reactionRepository) UserRatings(ctx context.Context, userIDs []int64) (map[int64]int64, error) {
	result := make(map[int64]int64, len(userIDs))
	if len(userIDs) == 0 {
		return result, nil
	}

	query := `
		SELECT e.initiator_id,
		       SUM(CASE WHEN r.status = 'LIKE' THEN 1 ELSE -1 END)
		FROM reactions r
		JOIN events e ON e.id = r.event_id
		WHERE e.initiator_id = ANY($1)
		GROUP BY e.initiator_id`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(userIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var userID, rating int64
		if err := rows.Scan(&userID, &rating); err != nil {
			return nil, err
		}
		result[userID] = rating
	}

	return result, rows.Err()
}
