package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"prepquiz-service/internal/domain"
)

// AttemptRecorder persists attempt summaries in Postgres.
type AttemptRecorder struct {
	pool *pgxpool.Pool
}

func NewAttemptRecorder(pool *pgxpool.Pool) *AttemptRecorder {
	return &AttemptRecorder{pool: pool}
}

func (r *AttemptRecorder) RecordAttempt(ctx context.Context, attempt domain.Attempt) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO attempts (id, user_id, quiz_id, quiz_title, score, total, percentage, taken_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (id) DO NOTHING`,
		attempt.ID, attempt.UserID, attempt.QuizID, attempt.QuizTitle,
		attempt.Score, attempt.Total, attempt.Percentage, attempt.TakenAt,
	)
	if err != nil {
		return fmt.Errorf("record attempt %s (quiz %s): %w", attempt.ID, attempt.QuizID, err)
	}
	return nil
}

func (r *AttemptRecorder) ListAttempts(ctx context.Context, userID string) ([]domain.Attempt, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, quiz_id, quiz_title, score, total, percentage, taken_at
		 FROM attempts WHERE user_id=$1 ORDER BY taken_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list attempts for user %s: %w", userID, err)
	}
	defer rows.Close()

	var attempts []domain.Attempt
	for rows.Next() {
		var a domain.Attempt
		if err := rows.Scan(&a.ID, &a.UserID, &a.QuizID, &a.QuizTitle, &a.Score, &a.Total, &a.Percentage, &a.TakenAt); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}
