package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/khoahotran/devconnector/internal/domain/profile"
	"github.com/khoahotran/devconnector/pkg/apperror"
	"github.com/khoahotran/devconnector/pkg/logger"
)

type postgresProfileRepo struct {
	db     *pgxpool.Pool
	logger logger.Logger
}

func NewPostgresProfileRepo(db *pgxpool.Pool, logger logger.Logger) profile.Repository {
	return &postgresProfileRepo{db: db, logger: logger}
}

var profileColumns = []string{
	"owner_id", "company", "website", "location", "bio", "status", "github_username",
	"skills", "social", "experience", "education", "version", "created_at", "updated_at",
}

type profileJSON struct {
	skills, social, experience, education []byte
}

func marshalProfileJSON(p *profile.Profile) (profileJSON, error) {
	var (
		out profileJSON
		err error
	)
	if out.skills, err = json.Marshal(nonNil(p.Skills)); err != nil {
		return out, apperror.NewInternal("failed to marshal skills", err)
	}
	if out.social, err = json.Marshal(p.Social); err != nil {
		return out, apperror.NewInternal("failed to marshal social", err)
	}
	if out.experience, err = json.Marshal(nonNil(p.Experience)); err != nil {
		return out, apperror.NewInternal("failed to marshal experience", err)
	}
	if out.education, err = json.Marshal(nonNil(p.Education)); err != nil {
		return out, apperror.NewInternal("failed to marshal education", err)
	}
	return out, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func scanProfileRow(row pgx.Row) (*profile.Profile, profileJSON, error) {
	p := &profile.Profile{}
	var raw profileJSON

	err := row.Scan(
		&p.OwnerID, &p.Company, &p.Website, &p.Location, &p.Bio, &p.Status, &p.GitHubUsername,
		&raw.skills, &raw.social, &raw.experience, &raw.education,
		&p.Version, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, raw, profile.ErrProfileNotFound
		}
		return nil, raw, apperror.NewInternal("failed to scan profile row", err)
	}
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return p, raw, nil
}

// decodeInto fills the JSONB-backed fields of p.
func (raw profileJSON) decodeInto(p *profile.Profile) error {
	if err := json.Unmarshal(raw.skills, &p.Skills); err != nil {
		return fmt.Errorf("skills: %w", err)
	}
	if err := json.Unmarshal(raw.social, &p.Social); err != nil {
		return fmt.Errorf("social: %w", err)
	}
	if err := json.Unmarshal(raw.experience, &p.Experience); err != nil {
		return fmt.Errorf("experience: %w", err)
	}
	if err := json.Unmarshal(raw.education, &p.Education); err != nil {
		return fmt.Errorf("education: %w", err)
	}
	p.Skills = nonNil(p.Skills)
	p.Experience = nonNil(p.Experience)
	p.Education = nonNil(p.Education)
	return nil
}

// scanProfile reads one row. Undecodable JSONB is a storage fault so the row
// is never handed out for a write at its current version.
func scanProfile(row pgx.Row) (*profile.Profile, error) {
	p, raw, err := scanProfileRow(row)
	if err != nil {
		return nil, err
	}
	if err := raw.decodeInto(p); err != nil {
		return nil, apperror.NewInternal("corrupt profile json", err)
	}
	return p, nil
}

func (r *postgresProfileRepo) FindByOwner(ctx context.Context, ownerID uuid.UUID) (*profile.Profile, error) {
	query, args, err := psql.Select(profileColumns...).
		From("profiles").
		Where(sq.Eq{"owner_id": ownerID}).
		ToSql()
	if err != nil {
		return nil, apperror.NewInternal("failed to build find profile query", err)
	}
	return scanProfile(r.db.QueryRow(ctx, query, args...))
}

func (r *postgresProfileRepo) FindAll(ctx context.Context) ([]*profile.Profile, error) {
	query, args, err := psql.Select(profileColumns...).
		From("profiles").
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, apperror.NewInternal("failed to build list profiles query", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, apperror.NewInternal("failed to query profiles", err)
	}
	defer rows.Close()

	profiles := make([]*profile.Profile, 0)
	for rows.Next() {
		p, raw, err := scanProfileRow(rows)
		if err != nil {
			return nil, err
		}
		if err := raw.decodeInto(p); err != nil {
			r.logger.Warn("Skipping corrupt profile row", zap.String("owner_id", p.OwnerID.String()), zap.Error(err))
			continue
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewInternal("error iterating profile rows", err)
	}
	return profiles, nil
}

func (r *postgresProfileRepo) Insert(ctx context.Context, p *profile.Profile) error {
	raw, err := marshalProfileJSON(p)
	if err != nil {
		return err
	}

	query, args, err := psql.Insert("profiles").
		Columns(profileColumns...).
		Values(
			p.OwnerID, p.Company, p.Website, p.Location, p.Bio, p.Status, p.GitHubUsername,
			raw.skills, raw.social, raw.experience, raw.education,
			1, p.CreatedAt, p.UpdatedAt,
		).
		Suffix("ON CONFLICT (owner_id) DO NOTHING").
		ToSql()
	if err != nil {
		return apperror.NewInternal("failed to build insert profile query", err)
	}

	cmdTag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return apperror.NewInternal("failed to insert profile", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return profile.ErrVersionConflict
	}
	p.Version = 1
	return nil
}

func (r *postgresProfileRepo) Replace(ctx context.Context, p *profile.Profile) error {
	raw, err := marshalProfileJSON(p)
	if err != nil {
		return err
	}

	query, args, err := psql.Update("profiles").
		SetMap(map[string]any{
			"company":         p.Company,
			"website":         p.Website,
			"location":        p.Location,
			"bio":             p.Bio,
			"status":          p.Status,
			"github_username": p.GitHubUsername,
			"skills":          raw.skills,
			"social":          raw.social,
			"experience":      raw.experience,
			"education":       raw.education,
			"updated_at":      p.UpdatedAt,
			"version":         sq.Expr("version + 1"),
		}).
		Where(sq.Eq{"owner_id": p.OwnerID, "version": p.Version}).
		ToSql()
	if err != nil {
		return apperror.NewInternal("failed to build replace profile query", err)
	}

	cmdTag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return apperror.NewInternal("failed to replace profile", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return profile.ErrVersionConflict
	}
	p.Version++
	return nil
}

func (r *postgresProfileRepo) DeleteByOwner(ctx context.Context, ownerID uuid.UUID) error {
	query, args, err := psql.Delete("profiles").Where(sq.Eq{"owner_id": ownerID}).ToSql()
	if err != nil {
		return apperror.NewInternal("failed to build delete profile query", err)
	}
	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return apperror.NewInternal("failed to delete profile", err)
	}
	return nil
}
