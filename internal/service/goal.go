package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goalbuddy/server/internal/access"
	"github.com/goalbuddy/server/internal/model"
	"github.com/goalbuddy/server/internal/repository"
)

type GoalInput struct {
	Title       string
	Description *string
	TargetDate  *string // YYYY-MM-DD
	Category    *string
	Tags        *string
	Color       *string
}

// GoalPatch holds the fields to change. Nil leaves a field alone; an empty
// string clears an optional field.
type GoalPatch struct {
	Title       *string
	Description *string
	TargetDate  *string
	Status      *string
	Category    *string
	Tags        *string
	Color       *string
}

func (p GoalPatch) empty() bool {
	return p.Title == nil && p.Description == nil && p.TargetDate == nil &&
		p.Status == nil && p.Category == nil && p.Tags == nil && p.Color == nil
}

type GoalService struct {
	repo repository.GoalRepository
}

func NewGoalService(repo repository.GoalRepository) *GoalService {
	return &GoalService{repo: repo}
}

func (s *GoalService) Create(ctx context.Context, userID int64, input GoalInput) (*model.Goal, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidOperation)
	}

	targetDate, err := parseTargetDate(input.TargetDate)
	if err != nil {
		return nil, err
	}

	goal := &model.Goal{
		UserID:      userID,
		Title:       title,
		Description: optional(input.Description),
		TargetDate:  targetDate,
		Status:      model.GoalStatusInProgress,
		Category:    optional(input.Category),
		Tags:        optional(input.Tags),
		Color:       optional(input.Color),
		CreatedAt:   time.Now().UTC(),
	}

	err = s.repo.Create(ctx, goal)
	if err != nil {
		return nil, fmt.Errorf("failed to create goal: %w", err)
	}

	return goal, nil
}

func (s *GoalService) Goals(ctx context.Context, userID int64) ([]*model.Goal, error) {
	return s.repo.Goals(ctx, userID)
}

// ByID returns one of the caller's own goals. Someone else's goal is
// reported as not found.
func (s *GoalService) ByID(ctx context.Context, userID, goalID int64) (*model.Goal, error) {
	goal, err := s.repo.ByID(ctx, goalID)
	if err != nil {
		if errors.Is(err, repository.ErrGoalNotFound) {
			return nil, fmt.Errorf("%w: goal %d", ErrNotFound, goalID)
		}
		return nil, fmt.Errorf("failed to get goal: %w", err)
	}

	if !access.OwnsGoal(userID, goal) {
		return nil, fmt.Errorf("%w: goal %d", ErrNotFound, goalID)
	}

	return goal, nil
}

// Update applies patch. Status may move between any two values; completing
// a goal locks its buddy out of posting.
func (s *GoalService) Update(ctx context.Context, userID, goalID int64, patch GoalPatch) (*model.Goal, error) {
	if patch.empty() {
		return nil, fmt.Errorf("%w: no fields to update", ErrInvalidOperation)
	}

	goal, err := s.ByID(ctx, userID, goalID)
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return nil, fmt.Errorf("%w: title is required", ErrInvalidOperation)
		}
		goal.Title = title
	}
	if patch.Status != nil {
		if !model.ValidGoalStatus(*patch.Status) {
			return nil, fmt.Errorf("%w: invalid status %q", ErrInvalidOperation, *patch.Status)
		}
		goal.Status = *patch.Status
	}
	if patch.TargetDate != nil {
		goal.TargetDate, err = parseTargetDate(patch.TargetDate)
		if err != nil {
			return nil, err
		}
	}
	if patch.Description != nil {
		goal.Description = optional(patch.Description)
	}
	if patch.Category != nil {
		goal.Category = optional(patch.Category)
	}
	if patch.Tags != nil {
		goal.Tags = optional(patch.Tags)
	}
	if patch.Color != nil {
		goal.Color = optional(patch.Color)
	}

	err = s.repo.Update(ctx, goal)
	if err != nil {
		if errors.Is(err, repository.ErrGoalNotFound) {
			return nil, fmt.Errorf("%w: goal %d", ErrNotFound, goalID)
		}
		return nil, fmt.Errorf("failed to update goal: %w", err)
	}

	return goal, nil
}

func (s *GoalService) Delete(ctx context.Context, userID, goalID int64) error {
	err := s.repo.Delete(ctx, userID, goalID)
	if err != nil {
		if errors.Is(err, repository.ErrGoalNotFound) {
			return fmt.Errorf("%w: goal %d", ErrNotFound, goalID)
		}
		return fmt.Errorf("failed to delete goal: %w", err)
	}
	return nil
}

func parseTargetDate(s *string) (*time.Time, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}

	t, err := time.Parse(time.DateOnly, strings.TrimSpace(*s))
	if err != nil {
		return nil, fmt.Errorf("%w: target_date must be YYYY-MM-DD", ErrInvalidOperation)
	}
	return &t, nil
}

// optional trims s and maps blank to nil.
func optional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
