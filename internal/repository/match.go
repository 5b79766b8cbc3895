package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rocketscienceinc/tictactoe-client/internal/entity"
)

var (
	ErrMatchNotFound = errors.New("match not found")
	ErrNoMatchID     = errors.New("result has no match id")
)

const DefaultHistoryLimit = 50

// MatchRepository keeps the results of finished matches per user.
type MatchRepository interface {
	Save(ctx context.Context, userID string, result *entity.Result) error
	GetByID(ctx context.Context, matchID string) (*entity.Result, error)
	ListByUser(ctx context.Context, userID string, limit int64) ([]*entity.Result, error)
}

type dbMatch struct {
	client *redis.Client
	limit  int64
}

func NewMatchRepository(client *redis.Client, limit int64) MatchRepository {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	return &dbMatch{
		client: client,
		limit:  limit,
	}
}

func matchKey(matchID string) string {
	return "match:" + matchID
}

func historyKey(userID string) string {
	return "history:" + userID
}

// Save stores the result and puts it at the head of the user's history, which is capped.
func (that *dbMatch) Save(ctx context.Context, userID string, result *entity.Result) error {
	if result.MatchID == "" {
		return ErrNoMatchID
	}

	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("could not marshal result: %w", err)
	}

	history := historyKey(userID)

	_, err = that.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, matchKey(result.MatchID), resultJSON, 0)
		pipe.LRem(ctx, history, 0, result.MatchID)
		pipe.LPush(ctx, history, result.MatchID)
		pipe.LTrim(ctx, history, 0, that.limit-1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save match result: %w", err)
	}

	return nil
}

func (that *dbMatch) GetByID(ctx context.Context, matchID string) (*entity.Result, error) {
	response, err := that.client.Get(ctx, matchKey(matchID)).Result()

	if errors.Is(err, redis.Nil) {
		return &entity.Result{}, ErrMatchNotFound
	}

	if err != nil {
		return &entity.Result{}, fmt.Errorf("%w by id", err)
	}

	var result entity.Result
	if err = json.Unmarshal([]byte(response), &result); err != nil {
		return &entity.Result{}, fmt.Errorf("failed to unmarshal result: %w", err)
	}

	return &result, nil
}

// ListByUser returns the newest results first. Results whose record expired are skipped.
func (that *dbMatch) ListByUser(ctx context.Context, userID string, limit int64) ([]*entity.Result, error) {
	if limit <= 0 || limit > that.limit {
		limit = that.limit
	}

	ids, err := that.client.LRange(ctx, historyKey(userID), 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}

	results := make([]*entity.Result, 0, len(ids))
	for _, id := range ids {
		result, err := that.GetByID(ctx, id)
		if errors.Is(err, ErrMatchNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}

		results = append(results, result)
	}

	return results, nil
}
