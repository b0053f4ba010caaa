package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"snelos/database"
	"snelos/models"

	"github.com/jackc/pgx/v5/pgconn"
)

// TaskCompletionRepository implements the TaskCompletionRepository interface
type TaskCompletionRepository struct {
	q queryable
}

// NewTaskCompletionRepository creates a new task completion repository
func NewTaskCompletionRepository(db *database.DB) *TaskCompletionRepository {
	return &TaskCompletionRepository{q: db.Pool}
}

// newTaskCompletionRepositoryWithTx creates a new task completion repository with a transaction
func newTaskCompletionRepositoryWithTx(tx queryable) *TaskCompletionRepository {
	return &TaskCompletionRepository{q: tx}
}

// Create records a task completion. The composite primary key enforces one
// completion per task per account per UTC day.
func (r *TaskCompletionRepository) Create(ctx context.Context, taskID, accountID string, dateUTC time.Time) error {
	query := `
		INSERT INTO task_completions (task_id, account_id, date_utc)
		VALUES ($1, $2, $3)
	`

	_, err := r.q.Exec(ctx, query, taskID, accountID, dateUTC)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return models.ErrTaskAlreadyCompleted
		}
		return fmt.Errorf("failed to record task completion %s for account %s: %w", taskID, accountID, err)
	}

	return nil
}

// GetCompletedTaskIDs returns the task ids the account completed on the given UTC day
func (r *TaskCompletionRepository) GetCompletedTaskIDs(ctx context.Context, accountID string, dateUTC time.Time) ([]string, error) {
	query := `
		SELECT task_id
		FROM task_completions
		WHERE account_id = $1 AND date_utc = $2
	`

	rows, err := r.q.Query(ctx, query, accountID, dateUTC)
	if err != nil {
		return nil, fmt.Errorf("failed to get task completions for account %s: %w", accountID, err)
	}
	defer rows.Close()

	var taskIDs []string
	for rows.Next() {
		var taskID string
		if err := rows.Scan(&taskID); err != nil {
			return nil, fmt.Errorf("failed to scan task completion: %w", err)
		}
		taskIDs = append(taskIDs, taskID)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate task completions: %w", err)
	}

	return taskIDs, nil
}
