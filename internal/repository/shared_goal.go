package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/goalbuddy/server/internal/db"
	"github.com/goalbuddy/server/internal/model"
)

const (
	SharedSortCreatedDesc = "created_desc"
	SharedSortCreatedAsc  = "created_asc"
	SharedSortTargetAsc   = "target_asc"
	SharedSortTargetDesc  = "target_desc"
	SharedSortTitleAsc    = "title_asc"
	SharedSortTitleDesc   = "title_desc"
)

// SharedGoalFilter narrows the goals shared with BuddyID. Zero values mean
// "no filter".
type SharedGoalFilter struct {
	BuddyID  int64
	OwnerID  int64
	Status   string
	Category string
	Query    string
	Sort     string
	Limit    int
	Offset   int
}

type SharedGoalRepository interface {
	List(ctx context.Context, filter SharedGoalFilter) ([]*model.SharedGoal, error)
	Count(ctx context.Context, filter SharedGoalFilter) (int, error)
}

type sharedGoalRepository struct {
	db sqlx.ExtContext
}

func NewSharedGoalRepository(db *sqlx.DB) SharedGoalRepository {
	return &sharedGoalRepository{db: db}
}

func (r *sharedGoalRepository) List(ctx context.Context, filter SharedGoalFilter) ([]*model.SharedGoal, error) {
	lower := db.LowerFunc(r.db.DriverName())
	where, args := sharedGoalWhere(filter, lower)

	args = append(args, filter.Limit, filter.Offset)
	query := `SELECT g.id, g.user_id, g.title, g.description, g.target_date, g.status,
	                 g.category, g.tags, g.color, g.created_at,
	                 g.user_id AS owner_id, u.email AS owner_email, s.permissions
	          FROM goals g
	          JOIN goal_shares s ON s.goal_id = g.id
	          JOIN users u ON u.id = g.user_id
	          WHERE ` + where + `
	          ORDER BY ` + sharedGoalOrderBy(filter.Sort, lower) +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	goals := []*model.SharedGoal{}
	err := sqlx.SelectContext(ctx, r.db, &goals, query, args...)
	if err != nil {
		return nil, err
	}

	return goals, nil
}

func (r *sharedGoalRepository) Count(ctx context.Context, filter SharedGoalFilter) (int, error) {
	where, args := sharedGoalWhere(filter, db.LowerFunc(r.db.DriverName()))

	query := `SELECT COUNT(*)
	          FROM goals g
	          JOIN goal_shares s ON s.goal_id = g.id
	          WHERE ` + where

	var count int
	err := r.db.QueryRowxContext(ctx, query, args...).Scan(&count)
	return count, err
}

// sharedGoalWhere builds the WHERE clause with $n placeholders numbered in
// the order of the returned args. lower is the SQL function used to fold
// case; it must agree with strings.ToLower.
func sharedGoalWhere(filter SharedGoalFilter, lower string) (string, []any) {
	args := []any{filter.BuddyID}
	conds := []string{"s.buddy_id = $1"}

	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.OwnerID != 0 {
		add("g.user_id = $%d", filter.OwnerID)
	}
	if filter.Status != "" {
		add("g.status = $%d", filter.Status)
	}
	if filter.Category != "" {
		add("g.category = $%d", filter.Category)
	}
	if filter.Query != "" {
		args = append(args, "%"+escapeLike(strings.ToLower(filter.Query))+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf(
			`(%[2]s(COALESCE(g.title, '')) LIKE $%[1]d ESCAPE '\' OR %[2]s(COALESCE(g.description, '')) LIKE $%[1]d ESCAPE '\' OR %[2]s(COALESCE(g.tags, '')) LIKE $%[1]d ESCAPE '\')`,
			n, lower,
		))
	}

	return strings.Join(conds, " AND "), args
}

func sharedGoalOrderBy(sort, lower string) string {
	switch sort {
	case SharedSortCreatedAsc:
		return "g.created_at ASC, g.id ASC"
	case SharedSortTargetAsc:
		return "CASE WHEN g.target_date IS NULL THEN 1 ELSE 0 END, g.target_date ASC, g.id ASC"
	case SharedSortTargetDesc:
		return "CASE WHEN g.target_date IS NULL THEN 1 ELSE 0 END, g.target_date DESC, g.id DESC"
	case SharedSortTitleAsc:
		return lower + "(g.title) ASC, g.id ASC"
	case SharedSortTitleDesc:
		return lower + "(g.title) DESC, g.id DESC"
	default: // SharedSortCreatedDesc or empty
		return "g.created_at DESC, g.id DESC"
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func ValidSharedSort(sort string) bool {
	switch sort {
	case SharedSortCreatedDesc, SharedSortCreatedAsc,
		SharedSortTargetAsc, SharedSortTargetDesc,
		SharedSortTitleAsc, SharedSortTitleDesc:
		return true
	}
	return false
}
