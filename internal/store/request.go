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

const requestTableName = "zipli.requests"

var requestColumns = utils.StructTagValues(types.Request{})

type RequestRepository struct {
	pool *pgxpool.Pool
}

func NewRequestRepository(pool *pgxpool.Pool) *RequestRepository {
	return &RequestRepository{pool: pool}
}

func (r *RequestRepository) Request(ctx context.Context, requestID string) (*types.Request, error) {
	query, args, err := psql().
		Select(requestColumns...).
		From(requestTableName).
		Where(sq.Eq{"id": requestID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate request query: %w", err)
	}

	var request types.Request
	err = pgxscan.Get(ctx, r.pool, &request, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to fetch request: %w", err)
	}

	return &request, nil
}

func (r *RequestRepository) RequestsByRequester(ctx context.Context, requesterID string) ([]*types.Request, error) {
	query, args, err := psql().
		Select(requestColumns...).
		From(requestTableName).
		Where(sq.Eq{"requester_id": requesterID}).
		OrderBy("created_at desc").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate requests by requester query: %w", err)
	}

	var requests = make([]*types.Request, 0)
	err = pgxscan.Select(ctx, r.pool, &requests, query, args...)
	if err != nil {
		return nil, utils.ErrorWrapOrNil(err, "failed to fetch requests by requester")
	}

	return requests, nil
}

func (r *RequestRepository) RequestsByStatus(ctx context.Context, status types.RequestStatus) ([]*types.Request, error) {
	query, args, err := psql().
		Select(requestColumns...).
		From(requestTableName).
		Where(sq.Eq{"status": status}).
		OrderBy("created_at desc").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate requests by status query: %w", err)
	}

	var requests = make([]*types.Request, 0)
	err = pgxscan.Select(ctx, r.pool, &requests, query, args...)
	if err != nil {
		return nil, utils.ErrorWrapOrNil(err, "failed to fetch requests by status")
	}

	return requests, nil
}

func (r *RequestRepository) CreateRequest(ctx context.Context, request *types.Request) error {

	now := time.Now()
	request.ID = utils.NanoID()
	request.CreatedAt = now
	request.UpdatedAt = now

	requestMap := utils.StructToMap(request)

	query, args, err := psql().Insert(requestTableName).SetMap(requestMap).ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate insert request query: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	return utils.ErrorWrapOrNil(err, "failed to create request")
}

func (r *RequestRepository) UpdateRequest(ctx context.Context, requestID string, request *types.Request) error {

	request.ID = requestID
	request.UpdatedAt = time.Now()

	requestMap := utils.StructToMap(request)

	query, args, err := psql().Update(requestTableName).SetMap(requestMap).Where(sq.Eq{"id": requestID}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate update request query for request %s: %w", requestID, err)
	}

	_, err = r.pool.Exec(ctx, query, args...)

	return utils.ErrorWrapOrNil(err, "failed to update request")
}

func (r *RequestRepository) DeleteRequest(ctx context.Context, requestID string) error {

	query, args, err := psql().Delete(requestTableName).Where(sq.Eq{"id": requestID}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate delete request query for request %s: %w", requestID, err)
	}

	_, err = r.pool.Exec(ctx, query, args...)

	return utils.ErrorWrapOrNil(err, "failed to delete request")
}
