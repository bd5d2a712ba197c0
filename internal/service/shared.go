package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/goalbuddy/server/internal/model"
	"github.com/goalbuddy/server/internal/repository"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 50
	SharedStatusAll = "all"
)

// SharedQuery selects a page of goals shared with the caller. Zero values
// take the defaults: page 1, DefaultPageSize, newest first, all statuses.
type SharedQuery struct {
	Page     int
	PageSize int
	Q        string
	Sort     string
	Category string
	Status   string
	OwnerID  int64
}

type SharedPage struct {
	Data       []*model.SharedGoal `json:"data"`
	Page       int                 `json:"page"`
	PageSize   int                 `json:"pageSize"`
	Total      int                 `json:"total"`
	TotalPages int                 `json:"totalPages"`
}

type SharedGoalService struct {
	repo repository.SharedGoalRepository
}

func NewSharedGoalService(repo repository.SharedGoalRepository) *SharedGoalService {
	return &SharedGoalService{repo: repo}
}

func (s *SharedGoalService) List(ctx context.Context, userID int64, q SharedQuery) (*SharedPage, error) {
	err := normalizeSharedQuery(&q)
	if err != nil {
		return nil, err
	}

	filter := repository.SharedGoalFilter{
		BuddyID:  userID,
		OwnerID:  q.OwnerID,
		Category: q.Category,
		Query:    q.Q,
		Sort:     q.Sort,
		Limit:    q.PageSize,
		Offset:   (q.Page - 1) * q.PageSize,
	}
	if q.Status != SharedStatusAll {
		filter.Status = q.Status
	}

	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count shared goals: %w", err)
	}

	goals, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list shared goals: %w", err)
	}

	return &SharedPage{
		Data:       goals,
		Page:       q.Page,
		PageSize:   q.PageSize,
		Total:      total,
		TotalPages: totalPages(total, q.PageSize),
	}, nil
}

func normalizeSharedQuery(q *SharedQuery) error {
	if q.Page == 0 {
		q.Page = 1
	}
	if q.PageSize == 0 {
		q.PageSize = DefaultPageSize
	}
	if q.Sort == "" {
		q.Sort = repository.SharedSortCreatedDesc
	}
	if q.Status == "" {
		q.Status = SharedStatusAll
	}
	q.Q = strings.TrimSpace(q.Q)
	q.Category = strings.TrimSpace(q.Category)

	if q.Page < 1 {
		return fmt.Errorf("%w: page must be positive", ErrInvalidOperation)
	}
	if q.PageSize < 1 || q.PageSize > MaxPageSize {
		return fmt.Errorf("%w: pageSize must be between 1 and %d", ErrInvalidOperation, MaxPageSize)
	}
	if q.OwnerID < 0 {
		return fmt.Errorf("%w: ownerId must be positive", ErrInvalidOperation)
	}
	if !repository.ValidSharedSort(q.Sort) {
		return fmt.Errorf("%w: invalid sort %q", ErrInvalidOperation, q.Sort)
	}
	if q.Status != SharedStatusAll && !model.ValidGoalStatus(q.Status) {
		return fmt.Errorf("%w: invalid status %q", ErrInvalidOperation, q.Status)
	}

	return nil
}

// totalPages is never below 1, even for an empty result.
func totalPages(total, pageSize int) int {
	pages := (total + pageSize - 1) / pageSize
	if pages < 1 {
		return 1
	}
	return pages
}
