package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jmoiron/sqlx"

	"github.com/goalbuddy/server/internal/access"
	"github.com/goalbuddy/server/internal/model"
	"github.com/goalbuddy/server/internal/repository"
)

// FeedLimit caps every check-in and message listing.
const FeedLimit = 50

const (
	MaxNoteLength    = 2000
	MaxMessageLength = 4000
)

type CheckinInput struct {
	Status   string
	Progress *int
	Note     *string
}

// CollabService serves a goal's check-ins and messages to its owner and
// buddy.
type CollabService struct {
	txRunner          repository.TxRunner
	goalRepository    repository.GoalRepository
	shareRepository   repository.ShareRepository
	checkinRepository repository.CheckinRepository
	messageRepository repository.MessageRepository
}

func NewCollabService(
	txRunner repository.TxRunner,
	goalRepository repository.GoalRepository,
	shareRepository repository.ShareRepository,
	checkinRepository repository.CheckinRepository,
	messageRepository repository.MessageRepository,
) *CollabService {
	return &CollabService{
		txRunner:          txRunner,
		goalRepository:    goalRepository,
		shareRepository:   shareRepository,
		checkinRepository: checkinRepository,
		messageRepository: messageRepository,
	}
}

func (s *CollabService) ListCheckins(ctx context.Context, userID, goalID int64) ([]*model.Checkin, error) {
	err := s.requireAccess(ctx, userID, goalID)
	if err != nil {
		return nil, err
	}

	checkins, err := s.checkinRepository.Recent(ctx, goalID, FeedLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list checkins: %w", err)
	}
	return checkins, nil
}

func (s *CollabService) AddCheckin(ctx context.Context, userID, goalID int64, input CheckinInput) (*model.Checkin, error) {
	var checkin *model.Checkin
	err := s.post(ctx, userID, goalID, func(tx *sqlx.Tx) error {
		var err error
		checkin, err = newCheckin(userID, goalID, input)
		if err != nil {
			return err
		}

		err = s.checkinRepository.WithTx(tx).Create(ctx, checkin)
		if err != nil {
			return fmt.Errorf("failed to save checkin: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return checkin, nil
}

// newCheckin applies defaults and validates input. It runs after the write
// check, so a caller without access gets Forbidden whatever the input.
func newCheckin(userID, goalID int64, input CheckinInput) (*model.Checkin, error) {
	if input.Status == "" {
		input.Status = model.CheckinStatusOnTrack
	}
	if !model.ValidCheckinStatus(input.Status) {
		return nil, fmt.Errorf("%w: invalid status %q", ErrInvalidOperation, input.Status)
	}
	if input.Progress != nil && (*input.Progress < 0 || *input.Progress > 100) {
		return nil, fmt.Errorf("%w: progress must be between 0 and 100", ErrInvalidOperation)
	}
	note := ""
	if input.Note != nil {
		note = *input.Note
	}
	if utf8.RuneCountInString(note) > MaxNoteLength {
		return nil, fmt.Errorf("%w: note must be at most %d characters", ErrInvalidOperation, MaxNoteLength)
	}

	return &model.Checkin{
		GoalID:    goalID,
		UserID:    userID,
		Status:    input.Status,
		Progress:  input.Progress,
		Note:      &note,
		CreatedAt: time.Now().UTC(),
	}, nil
}

func (s *CollabService) ListMessages(ctx context.Context, userID, goalID int64) ([]*model.FeedMessage, error) {
	err := s.requireAccess(ctx, userID, goalID)
	if err != nil {
		return nil, err
	}

	messages, err := s.messageRepository.Recent(ctx, goalID, FeedLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return messages, nil
}

// AddMessage stores body as sent. Only the blank check ignores surrounding
// whitespace.
func (s *CollabService) AddMessage(ctx context.Context, userID, goalID int64, body string) (*model.Message, error) {
	var message *model.Message
	err := s.post(ctx, userID, goalID, func(tx *sqlx.Tx) error {
		if strings.TrimSpace(body) == "" {
			return fmt.Errorf("%w: message body is required", ErrInvalidOperation)
		}
		if utf8.RuneCountInString(body) > MaxMessageLength {
			return fmt.Errorf("%w: message must be at most %d characters", ErrInvalidOperation, MaxMessageLength)
		}

		message = &model.Message{
			GoalID:    goalID,
			SenderID:  userID,
			Body:      body,
			CreatedAt: time.Now().UTC(),
		}
		err := s.messageRepository.WithTx(tx).Create(ctx, message)
		if err != nil {
			return fmt.Errorf("failed to save message: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return message, nil
}

func (s *CollabService) requireAccess(ctx context.Context, userID, goalID int64) error {
	goal, share, err := loadGoalAndShare(ctx, s.goalRepository, s.shareRepository, userID, goalID, false)
	if err != nil {
		return err
	}
	if !access.CanAccess(userID, goal, share) {
		return fmt.Errorf("%w: goal %d", ErrForbidden, goalID)
	}
	return nil
}

// post runs insert after the write check, in the same transaction. insert
// validates its own input. The share row is read with a lock so a concurrent
// revoke cannot slip between the check and the insert.
func (s *CollabService) post(ctx context.Context, userID, goalID int64, insert func(tx *sqlx.Tx) error) error {
	return s.txRunner.InTx(ctx, func(tx *sqlx.Tx) error {
		goal, share, err := loadGoalAndShare(ctx, s.goalRepository.WithTx(tx), s.shareRepository.WithTx(tx), userID, goalID, true)
		if err != nil {
			return err
		}

		switch access.CanWrite(userID, goal, share) {
		case access.Denied:
			return fmt.Errorf("%w: goal %d", ErrForbidden, goalID)
		case access.Locked:
			return fmt.Errorf("%w: goal is completed", ErrConflict)
		}

		return insert(tx)
	})
}

// loadGoalAndShare returns the goal and the caller's share, nil when the
// caller has none. A missing goal is forbidden, not not-found.
func loadGoalAndShare(
	ctx context.Context,
	goals repository.GoalRepository,
	shares repository.ShareRepository,
	userID, goalID int64,
	lock bool,
) (*model.Goal, *model.Share, error) {
	goal, err := goals.ByID(ctx, goalID)
	if err != nil {
		if errors.Is(err, repository.ErrGoalNotFound) {
			return nil, nil, fmt.Errorf("%w: goal %d", ErrForbidden, goalID)
		}
		return nil, nil, fmt.Errorf("failed to get goal: %w", err)
	}

	if access.OwnsGoal(userID, goal) {
		return goal, nil, nil
	}

	var share *model.Share
	if lock {
		share, err = shares.ForBuddyLocked(ctx, goalID, userID)
	} else {
		share, err = shares.ForBuddy(ctx, goalID, userID)
	}
	if errors.Is(err, repository.ErrShareNotFound) {
		return goal, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get share: %w", err)
	}

	return goal, share, nil
}
