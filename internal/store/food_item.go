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

const foodItemTableName = "zipli.food_items"

var foodItemColumns = utils.StructTagValues(types.FoodItem{})

type FoodItemRepository struct {
	pool *pgxpool.Pool
}

func NewFoodItemRepository(pool *pgxpool.Pool) *FoodItemRepository {
	return &FoodItemRepository{pool: pool}
}

func (r *FoodItemRepository) FoodItem(ctx context.Context, itemID string) (*types.FoodItem, error) {
	query, args, err := psql().
		Select(foodItemColumns...).
		From(foodItemTableName).
		Where(sq.Eq{"id": itemID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate food item query: %w", err)
	}

	var item types.FoodItem
	err = pgxscan.Get(ctx, r.pool, &item, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrFoodItemNotFound
		}
		return nil, fmt.Errorf("failed to fetch food item: %w", err)
	}

	return &item, nil
}

func (r *FoodItemRepository) FoodItemsByDonor(ctx context.Context, donorID string) ([]*types.FoodItem, error) {
	query, args, err := psql().
		Select(foodItemColumns...).
		From(foodItemTableName).
		Where(sq.Eq{"donor_id": donorID}).
		OrderBy("created_at desc").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate food items by donor query: %w", err)
	}

	var items = make([]*types.FoodItem, 0)
	err = pgxscan.Select(ctx, r.pool, &items, query, args...)
	if err != nil {
		return nil, utils.ErrorWrapOrNil(err, "failed to fetch food items by donor")
	}

	return items, nil
}

// FoodItemByName is the dedup lookup used by the submit flow. The match is
// case-insensitive and scoped to one donor.
func (r *FoodItemRepository) FoodItemByName(ctx context.Context, donorID, name string) (*types.FoodItem, error) {
	query, args, err := psql().
		Select(foodItemColumns...).
		From(foodItemTableName).
		Where(sq.Eq{"donor_id": donorID}).
		Where(sq.Expr("LOWER(name) = LOWER(?)", name)).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate food item name query: %w", err)
	}

	var item types.FoodItem
	err = pgxscan.Get(ctx, r.pool, &item, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrFoodItemNotFound
		}
		return nil, fmt.Errorf("failed to fetch food item by name: %w", err)
	}

	return &item, nil
}

func (r *FoodItemRepository) CreateFoodItem(ctx context.Context, item *types.FoodItem) error {

	now := time.Now()
	item.ID = utils.NanoID()
	item.CreatedAt = now
	item.UpdatedAt = now

	itemMap := utils.StructToMap(item)

	query, args, err := psql().Insert(foodItemTableName).SetMap(itemMap).ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate insert food item query: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	return utils.ErrorWrapOrNil(err, "failed to create food item")
}

func (r *FoodItemRepository) UpdateFoodItem(ctx context.Context, itemID string, item *types.FoodItem) error {

	item.ID = itemID
	item.UpdatedAt = time.Now()

	itemMap := utils.StructToMap(item)

	query, args, err := psql().Update(foodItemTableName).SetMap(itemMap).Where(sq.Eq{"id": itemID}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate update food item query for item %s: %w", itemID, err)
	}

	_, err = r.pool.Exec(ctx, query, args...)

	return utils.ErrorWrapOrNil(err, "failed to update food item")
}

func (r *FoodItemRepository) DeleteFoodItem(ctx context.Context, itemID string) error {

	query, args, err := psql().Delete(foodItemTableName).Where(sq.Eq{"id": itemID}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate delete food item query for item %s: %w", itemID, err)
	}

	_, err = r.pool.Exec(ctx, query, args...)

	return utils.ErrorWrapOrNil(err, "failed to delete food item")
}
