package persistence

import (
	"context"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/khoahotran/devconnector/internal/domain/user"
	"github.com/khoahotran/devconnector/pkg/apperror"
	"github.com/khoahotran/devconnector/pkg/logger"
)

type postgresUserRepo struct {
	db     *pgxpool.Pool
	logger logger.Logger
}

func NewPostgresUserRepo(db *pgxpool.Pool, logger logger.Logger) user.Repository {
	return &postgresUserRepo{db: db, logger: logger}
}

func (r *postgresUserRepo) FindDisplayInfo(ctx context.Context, id uuid.UUID) (*user.DisplayInfo, error) {
	query, args, err := psql.Select("id", "name", "avatar").
		From("users").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, apperror.NewInternal("failed to build find user query", err)
	}

	u := &user.DisplayInfo{}
	err = r.db.QueryRow(ctx, query, args...).Scan(&u.ID, &u.Name, &u.Avatar)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrUserNotFound
		}
		return nil, apperror.NewInternal("failed to query user", err)
	}
	return u, nil
}

func (r *postgresUserRepo) FindDisplayInfos(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]user.DisplayInfo, error) {
	infos := make(map[uuid.UUID]user.DisplayInfo, len(ids))
	if len(ids) == 0 {
		return infos, nil
	}

	query, args, err := psql.Select("id", "name", "avatar").
		From("users").
		Where(sq.Eq{"id": ids}).
		ToSql()
	if err != nil {
		return nil, apperror.NewInternal("failed to build find users query", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, apperror.NewInternal("failed to query users", err)
	}
	defer rows.Close()

	for rows.Next() {
		var u user.DisplayInfo
		if err := rows.Scan(&u.ID, &u.Name, &u.Avatar); err != nil {
			return nil, apperror.NewInternal("failed to scan user row", err)
		}
		infos[u.ID] = u
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewInternal("error iterating user rows", err)
	}
	return infos, nil
}

// DeleteAccount removes the user's posts and the account in one transaction.
func (r *postgresUserRepo) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return apperror.NewInternal("failed to begin delete account tx", err)
	}
	defer tx.Rollback(ctx)

	postsTag, err := tx.Exec(ctx, `DELETE FROM posts WHERE owner_id = $1`, id)
	if err != nil {
		return apperror.NewInternal("failed to delete user posts", err)
	}
	userTag, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return apperror.NewInternal("failed to delete user", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return apperror.NewInternal("failed to commit delete account tx", err)
	}

	r.logger.Info("Deleted account",
		zap.String("user_id", id.String()),
		zap.Int64("posts_deleted", postsTag.RowsAffected()),
		zap.Bool("account_existed", userTag.RowsAffected() > 0))
	return nil
}
