package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/goalbuddy/server/internal/access"
	"github.com/goalbuddy/server/internal/model"
	"github.com/goalbuddy/server/internal/repository"
	"github.com/goalbuddy/server/internal/validation"
)

type ShareResult struct {
	Share         *model.Share `json:"share"`
	AlreadyShared bool         `json:"alreadyShared"`
	EmailSent     bool         `json:"emailSent"`
}

type RevokeCounts struct {
	Shares   int64 `json:"shares"`
	Messages int64 `json:"messages"`
	Checkins int64 `json:"checkins"`
}

type RevokeResult struct {
	OK                   bool         `json:"ok"`
	RemovedShare         bool         `json:"removedShare"`
	ClearedMessages      bool         `json:"clearedMessages"`
	ClearedBuddyCheckins bool         `json:"clearedBuddyCheckins"`
	Deleted              RevokeCounts `json:"deleted"`
}

// ShareService grants and revokes a buddy's access to a goal. A goal has at
// most one buddy at a time.
type ShareService struct {
	txRunner          repository.TxRunner
	goalRepository    repository.GoalRepository
	shareRepository   repository.ShareRepository
	checkinRepository repository.CheckinRepository
	messageRepository repository.MessageRepository
	userRepository    repository.UserRepository
	notifier          Notifier
	appURL            string
}

func NewShareService(
	txRunner repository.TxRunner,
	goalRepository repository.GoalRepository,
	shareRepository repository.ShareRepository,
	checkinRepository repository.CheckinRepository,
	messageRepository repository.MessageRepository,
	userRepository repository.UserRepository,
	notifier Notifier,
	appURL string,
) *ShareService {
	return &ShareService{
		txRunner:          txRunner,
		goalRepository:    goalRepository,
		shareRepository:   shareRepository,
		checkinRepository: checkinRepository,
		messageRepository: messageRepository,
		userRepository:    userRepository,
		notifier:          notifier,
		appURL:            appURL,
	}
}

// Share gives buddyEmail access to the goal. Sharing again with the same
// buddy updates the permission and reports AlreadyShared; sharing with a
// different buddy is a conflict until the first one is revoked.
func (s *ShareService) Share(ctx context.Context, ownerID, goalID int64, buddyEmail, permissions string) (*ShareResult, error) {
	if permissions == "" {
		permissions = model.PermissionCheckin
	}
	if !model.ValidPermission(permissions) {
		return nil, fmt.Errorf("%w: invalid permissions %q", ErrInvalidOperation, permissions)
	}

	goal, err := s.ownedGoal(ctx, ownerID, goalID)
	if err != nil {
		return nil, err
	}

	buddy, err := s.userRepository.ByEmail(ctx, validation.NormalizeEmail(buddyEmail))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, fmt.Errorf("%w: user not found", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get buddy: %w", err)
	}

	if buddy.ID == ownerID {
		return nil, fmt.Errorf("%w: cannot share with yourself", ErrInvalidOperation)
	}

	var result *ShareResult
	err = s.txRunner.InTx(ctx, func(tx *sqlx.Tx) error {
		shares := s.shareRepository.WithTx(tx)

		existing, err := shares.ByGoal(ctx, goalID)
		if err == nil {
			result, err = resolveExistingShare(ctx, shares, existing, buddy.ID, permissions)
			return err
		}
		if !errors.Is(err, repository.ErrShareNotFound) {
			return err
		}

		share := &model.Share{
			GoalID:      goalID,
			OwnerID:     ownerID,
			BuddyID:     buddy.ID,
			Permissions: permissions,
			CreatedAt:   time.Now().UTC(),
		}
		err = shares.Create(ctx, share)
		if err != nil {
			return err
		}

		result = &ShareResult{Share: share}
		return nil
	})

	// A concurrent share won the unique index. The transaction is gone, so
	// look at the winner with a fresh read.
	if errors.Is(err, repository.ErrDuplicateShare) {
		existing, readErr := s.shareRepository.ByGoal(ctx, goalID)
		if readErr != nil {
			return nil, fmt.Errorf("failed to read existing share: %w", readErr)
		}
		result, err = resolveExistingShare(ctx, s.shareRepository, existing, buddy.ID, permissions)
	}
	if err != nil {
		if errors.Is(err, ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to share goal: %w", err)
	}

	if !result.AlreadyShared {
		owner, err := s.userRepository.ByID(ctx, ownerID)
		if err != nil {
			slog.Warn("failed to load owner for share notification", "error", err, "owner_id", ownerID, "goal_id", goalID)
			return result, nil
		}
		result.EmailSent = s.notifier.NotifyGoalShared(ctx, s.goalSharedEmail(owner, buddy, goal, permissions))
	}

	slog.Info("goal shared", "goal_id", goalID, "owner_id", ownerID, "buddy_id", buddy.ID,
		"permissions", permissions, "already_shared", result.AlreadyShared, "email_sent", result.EmailSent)

	return result, nil
}

func resolveExistingShare(ctx context.Context, shares repository.ShareRepository, existing *model.Share, buddyID int64, permissions string) (*ShareResult, error) {
	if existing.BuddyID != buddyID {
		return nil, fmt.Errorf("%w: goal is already shared with another buddy, revoke it first", ErrConflict)
	}

	if existing.Permissions != permissions {
		err := shares.UpdatePermissions(ctx, existing.ID, permissions)
		if err != nil {
			return nil, err
		}
		existing.Permissions = permissions
	}

	return &ShareResult{Share: existing, AlreadyShared: true}, nil
}

func (s *ShareService) goalSharedEmail(owner, buddy *model.User, goal *model.Goal, permissions string) GoalSharedEmail {
	p := GoalSharedEmail{
		To:          buddy.Email,
		OwnerEmail:  owner.Email,
		GoalTitle:   goal.Title,
		Permissions: permissions,
		Link:        fmt.Sprintf("%s/shared?ownerId=%d", s.appURL, owner.ID),
	}
	if goal.Category != nil {
		p.Category = *goal.Category
	}
	if goal.TargetDate != nil {
		p.TargetDate = goal.TargetDate.Format(time.DateOnly)
	}
	return p
}

func (s *ShareService) ListShares(ctx context.Context, ownerID, goalID int64) ([]*model.ShareWithBuddy, error) {
	_, err := s.ownedGoal(ctx, ownerID, goalID)
	if err != nil {
		return nil, err
	}

	shares, err := s.shareRepository.ListForGoal(ctx, goalID)
	if err != nil {
		return nil, fmt.Errorf("failed to list shares: %w", err)
	}

	return shares, nil
}

// Revoke removes buddyID's share and everything the collaboration produced:
// all messages on the goal and the buddy's check-ins. The owner's check-ins
// stay. Revoking a share that does not exist succeeds and deletes nothing.
func (s *ShareService) Revoke(ctx context.Context, ownerID, goalID, buddyID int64) (*RevokeResult, error) {
	_, err := s.ownedGoal(ctx, ownerID, goalID)
	if err != nil {
		return nil, err
	}

	result := &RevokeResult{OK: true}
	err = s.txRunner.InTx(ctx, func(tx *sqlx.Tx) error {
		// Share first: once it is gone the buddy can no longer post.
		shares, err := s.shareRepository.WithTx(tx).Delete(ctx, goalID, buddyID)
		if err != nil {
			return fmt.Errorf("failed to delete share: %w", err)
		}
		if shares == 0 {
			return nil
		}

		messages, err := s.messageRepository.WithTx(tx).DeleteForGoal(ctx, goalID)
		if err != nil {
			return fmt.Errorf("failed to delete messages: %w", err)
		}

		checkins, err := s.checkinRepository.WithTx(tx).DeleteByAuthor(ctx, goalID, buddyID)
		if err != nil {
			return fmt.Errorf("failed to delete buddy checkins: %w", err)
		}

		result.RemovedShare = true
		result.ClearedMessages = true
		result.ClearedBuddyCheckins = true
		result.Deleted = RevokeCounts{Shares: shares, Messages: messages, Checkins: checkins}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("share revoked", "goal_id", goalID, "owner_id", ownerID, "buddy_id", buddyID,
		"shares", result.Deleted.Shares, "messages", result.Deleted.Messages, "checkins", result.Deleted.Checkins)

	return result, nil
}

// Owners lists the users sharing goals with buddyID.
func (s *ShareService) Owners(ctx context.Context, buddyID int64) ([]*model.SharingOwner, error) {
	owners, err := s.shareRepository.Owners(ctx, buddyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list owners: %w", err)
	}
	return owners, nil
}

// ownedGoal loads the goal and checks ownership. A missing goal is reported
// as forbidden so ids cannot be enumerated.
func (s *ShareService) ownedGoal(ctx context.Context, ownerID, goalID int64) (*model.Goal, error) {
	goal, err := s.goalRepository.ByID(ctx, goalID)
	if err != nil {
		if errors.Is(err, repository.ErrGoalNotFound) {
			return nil, fmt.Errorf("%w: goal %d", ErrForbidden, goalID)
		}
		return nil, fmt.Errorf("failed to get goal: %w", err)
	}

	if !access.OwnsGoal(ownerID, goal) {
		return nil, fmt.Errorf("%w: goal %d", ErrForbidden, goalID)
	}

	return goal, nil
}
