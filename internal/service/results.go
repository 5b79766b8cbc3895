package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rocketscienceinc/tictactoe-client/internal/entity"
)

// ResultService books a finished match: local history and the server-side stats.
type ResultService interface {
	Record(ctx context.Context, result *entity.Result) error
	History(ctx context.Context, limit int64) ([]*entity.Result, error)
}

type matchRepo interface {
	Save(ctx context.Context, userID string, result *entity.Result) error
	ListByUser(ctx context.Context, userID string, limit int64) ([]*entity.Result, error)
}

type statsUpdater interface {
	UpdateStats(ctx context.Context, kind entity.ResultKind) (bool, error)
}

type resultService struct {
	logger    *slog.Logger
	userID    string
	matchRepo matchRepo
	stats     statsUpdater
}

func NewResultService(logger *slog.Logger, userID string, matchRepo matchRepo, stats statsUpdater) ResultService {
	return &resultService{
		logger:    logger.With("component", "result_service"),
		userID:    userID,
		matchRepo: matchRepo,
		stats:     stats,
	}
}

// Record saves the result and reports it to the server. Both are attempted even if one fails.
func (that *resultService) Record(ctx context.Context, result *entity.Result) error {
	log := that.logger.With("method", "Record", "match_id", result.MatchID)

	var errs []error

	if err := that.matchRepo.Save(ctx, that.userID, result); err != nil {
		errs = append(errs, fmt.Errorf("save result: %w", err))
	}

	kind := result.Kind()

	updated, err := that.stats.UpdateStats(ctx, kind)
	switch {
	case err != nil:
		errs = append(errs, fmt.Errorf("update stats: %w", err))
	case !updated:
		log.Warn("server did not update stats", "result", kind)
	default:
		log.Info("result recorded", "result", kind)
	}

	return errors.Join(errs...)
}

func (that *resultService) History(ctx context.Context, limit int64) ([]*entity.Result, error) {
	results, err := that.matchRepo.ListByUser(ctx, that.userID, limit)
	if err != nil {
		return nil, fmt.Errorf("get history %w", err)
	}

	return results, nil
}
