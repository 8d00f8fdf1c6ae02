package store

import (
	"context"
	"fmt"
	"time"

	"zipli/internal/utils"
	"zipli/pkg/types"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
)

const profileTableName = "zipli.profiles"

var profileColumns = utils.StructTagValues(types.Profile{})

type ProfileRepository struct {
	pool *pgxpool.Pool
}

func NewProfileRepository(pool *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{pool: pool}
}

func (r *ProfileRepository) Profile(ctx context.Context, profileID string) (*types.Profile, error) {
	query, args, err := psql().
		Select(profileColumns...).
		From(profileTableName).
		Where(sq.Eq{"id": profileID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate profile query: %w", err)
	}

	var profile types.Profile
	err = pgxscan.Get(ctx, r.pool, &profile, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to fetch profile: %w", err)
	}

	return &profile, nil
}

func (r *ProfileRepository) ProfilesByRole(ctx context.Context, role types.ProfileRole) ([]*types.Profile, error) {
	query, args, err := psql().
		Select(profileColumns...).
		From(profileTableName).
		Where(sq.Eq{"role": role}).
		OrderBy("created_at desc").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate profiles by role query: %w", err)
	}

	var profiles = make([]*types.Profile, 0)
	err = pgxscan.Select(ctx, r.pool, &profiles, query, args...)
	if err != nil {
		return nil, utils.ErrorWrapOrNil(err, "failed to fetch profiles by role")
	}

	return profiles, nil
}

func (r *ProfileRepository) CreateProfile(ctx context.Context, profile *types.Profile) error {

	now := time.Now()
	if profile.ID == "" {
		profile.ID = utils.NanoID()
	}
	profile.CreatedAt = now
	profile.UpdatedAt = now

	profileMap := utils.StructToMap(profile)

	query, args, err := psql().Insert(profileTableName).SetMap(profileMap).ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate insert profile query: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	return utils.ErrorWrapOrNil(err, "failed to create profile")
}

func (r *ProfileRepository) UpdateProfile(ctx context.Context, profileID string, profile *types.Profile) error {

	profile.ID = profileID
	profile.UpdatedAt = time.Now()

	profileMap := utils.StructToMap(profile)

	query, args, err := psql().Update(profileTableName).SetMap(profileMap).Where(sq.Eq{"id": profileID}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate update profile query for profile %s: %w", profileID, err)
	}

	_, err = r.pool.Exec(ctx, query, args...)

	return utils.ErrorWrapOrNil(err, "failed to update profile")
}

func (r *ProfileRepository) DeleteProfile(ctx context.Context, profileID string) error {

	query, args, err := psql().Delete(profileTableName).Where(sq.Eq{"id": profileID}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate delete profile query for profile %s: %w", profileID, err)
	}

	_, err = r.pool.Exec(ctx, query, args...)

	return utils.ErrorWrapOrNil(err, "failed to delete profile")
}
