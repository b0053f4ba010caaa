package service

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand"
	"time"

	"snelos/config"
	"snelos/models"
)

// taskTemplate is one entry of the rotating daily task catalog
type taskTemplate struct {
	slug        string
	title       string
	description string
	reward      models.FreeActionKind
}

var taskTemplates = []taskTemplate{
	{
		slug:        "welcome-back",
		title:       "Welcome Back!",
		description: "Log in to Snel OS today",
		reward:      models.FreeActionImage,
	},
	{
		slug:        "social-butterfly",
		title:       "Social Butterfly",
		description: "Like 3 posts from other users",
		reward:      models.FreeActionLike,
	},
	{
		slug:        "content-creator",
		title:       "Content Creator",
		description: "Post an image to your feed",
		reward:      models.FreeActionImage,
	},
	{
		slug:        "note-taker",
		title:       "Note Taker",
		description: "Create a public note",
		reward:      models.FreeActionLike,
	},
	{
		slug:        "explorer",
		title:       "Explorer",
		description: "Search for new users to follow",
		reward:      models.FreeActionImage,
	},
	{
		slug:        "community-member",
		title:       "Community Member",
		description: "Check the treasury status",
		reward:      models.FreeActionLike,
	},
}

// taskService implements the TaskService interface. The day's task set is a
// pure function of the UTC date, so every process generates the same set
// without a shared tasks table; only completions are persisted.
type taskService struct {
	uowFactory UnitOfWorkFactory
}

// NewTaskService creates a new task service
func NewTaskService(uowFactory UnitOfWorkFactory) TaskService {
	return &taskService{
		uowFactory: uowFactory,
	}
}

// TasksForDay returns the task set for the UTC day containing t. Selection is
// seeded by the date key, so all callers agree on the set for a given day and
// it rolls over at UTC midnight.
func TasksForDay(t time.Time) []*models.DailyTask {
	dateKey := t.UTC().Format("2006-01-02")

	h := fnv.New64a()
	h.Write([]byte(dateKey))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	count := 3 + rng.Intn(2)
	perm := rng.Perm(len(taskTemplates))

	tasks := make([]*models.DailyTask, 0, count)
	for _, idx := range perm[:count] {
		tpl := taskTemplates[idx]
		tasks = append(tasks, &models.DailyTask{
			ID:          fmt.Sprintf("%s-%s", dateKey, tpl.slug),
			Title:       tpl.title,
			Description: tpl.description,
			RewardType:  tpl.reward,
		})
	}
	return tasks
}

// GetTodaysTasks returns today's tasks with per-account completion flags
func (s *taskService) GetTodaysTasks(ctx context.Context, accountID string) ([]*models.DailyTask, error) {
	now := time.Now()
	tasks := TasksForDay(now)

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	completedIDs, err := uow.TaskCompletionRepository().GetCompletedTaskIDs(ctx, accountID, StartOfUTCDay(now))
	if err != nil {
		return nil, err
	}

	completed := make(map[string]bool, len(completedIDs))
	for _, id := range completedIDs {
		completed[id] = true
	}
	for _, task := range tasks {
		task.Completed = completed[task.ID]
	}

	return tasks, nil
}

// CompleteTask marks a task completed for the account and grants the bonus
// credits in the same transaction. A task can be completed once per account
// per day; a repeat fails with models.ErrTaskAlreadyCompleted.
func (s *taskService) CompleteTask(ctx context.Context, accountID, taskID string) (*models.DailyTask, error) {
	now := time.Now()

	var task *models.DailyTask
	for _, t := range TasksForDay(now) {
		if t.ID == taskID {
			task = t
			break
		}
	}
	if task == nil {
		return nil, fmt.Errorf("task %q not in today's set: %w", taskID, models.ErrTaskNotFound)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.TaskCompletionRepository().Create(ctx, taskID, accountID, StartOfUTCDay(now)); err != nil {
		return nil, err
	}

	meta := map[string]any{
		"task_id":     taskID,
		"reward_type": string(task.RewardType),
	}
	if _, err := applyCredit(ctx, uow, accountID, config.Get().TaskRewardCents, models.CreditReasonTaskCompletion, meta); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	task.Completed = true
	return task, nil
}
