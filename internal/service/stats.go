package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/rocketscienceinc/tictactoe-client/internal/entity"
	"github.com/rocketscienceinc/tictactoe-client/internal/transport/nakama"
)

const (
	rpcGetLeaderboard = "get_leaderboard"
	rpcGetPlayerStats = "get_player_stats"
	rpcUpdateStats    = "update_stats"
	rpcHealthCheck    = "healthcheck"
	rpcListMatches    = "list_matches"

	DefaultLeaderboardLimit = 10

	unknownUsername = "Unknown"
)

// StatsService wraps the server RPCs for leaderboard and player statistics.
type StatsService interface {
	GetLeaderboard(ctx context.Context, limit int) ([]entity.LeaderboardEntry, error)
	GetPlayerStats(ctx context.Context, userID string) (*entity.PlayerStats, error)
	UpdateStats(ctx context.Context, kind entity.ResultKind) (bool, error)
	HealthCheck(ctx context.Context) (*entity.HealthStatus, error)
	ListMatches(ctx context.Context) ([]entity.MatchListing, error)
}

type rpcClient interface {
	RPC(ctx context.Context, session *nakama.Session, id string, payload any) (string, error)
}

type statsService struct {
	logger  *slog.Logger
	client  rpcClient
	session *nakama.Session
}

func NewStatsService(logger *slog.Logger, client rpcClient, session *nakama.Session) StatsService {
	return &statsService{
		logger:  logger.With("component", "stats_service"),
		client:  client,
		session: session,
	}
}

type leaderboardResponse struct {
	Success     bool                      `json:"success"`
	Leaderboard []entity.LeaderboardEntry `json:"leaderboard"`
}

type playerStatsResponse struct {
	Success bool                `json:"success"`
	Stats   *entity.PlayerStats `json:"stats"`
}

type updateStatsResponse struct {
	Success bool `json:"success"`
}

type listMatchesResponse struct {
	Success bool                  `json:"success"`
	Matches []entity.MatchListing `json:"matches"`
}

// GetLeaderboard - an unsuccessful answer is an empty leaderboard, missing fields get defaults.
func (that *statsService) GetLeaderboard(ctx context.Context, limit int) ([]entity.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}

	var response leaderboardResponse
	if err := that.call(ctx, rpcGetLeaderboard, map[string]int{"limit": limit}, &response); err != nil {
		return nil, err
	}

	if !response.Success {
		return []entity.LeaderboardEntry{}, nil
	}

	for i := range response.Leaderboard {
		entry := &response.Leaderboard[i]
		if entry.Username == "" {
			entry.Username = unknownUsername
		}
		if entry.Rating == 0 {
			entry.Rating = entity.DefaultRating
		}
	}

	return response.Leaderboard, nil
}

// GetPlayerStats - an empty userID asks for the caller's own stats.
func (that *statsService) GetPlayerStats(ctx context.Context, userID string) (*entity.PlayerStats, error) {
	payload := map[string]string{}
	if userID != "" {
		payload["userId"] = userID
	}

	var response playerStatsResponse
	if err := that.call(ctx, rpcGetPlayerStats, payload, &response); err != nil {
		return nil, err
	}

	if !response.Success || response.Stats == nil {
		return entity.NewPlayerStats(), nil
	}

	if response.Stats.Rating == 0 {
		response.Stats.Rating = entity.DefaultRating
	}

	return response.Stats, nil
}

func (that *statsService) UpdateStats(ctx context.Context, kind entity.ResultKind) (bool, error) {
	var response updateStatsResponse
	if err := that.call(ctx, rpcUpdateStats, map[string]entity.ResultKind{"result": kind}, &response); err != nil {
		return false, err
	}

	return response.Success, nil
}

func (that *statsService) HealthCheck(ctx context.Context) (*entity.HealthStatus, error) {
	var status entity.HealthStatus
	if err := that.call(ctx, rpcHealthCheck, struct{}{}, &status); err != nil {
		return nil, err
	}

	return &status, nil
}

func (that *statsService) ListMatches(ctx context.Context) ([]entity.MatchListing, error) {
	var response listMatchesResponse
	if err := that.call(ctx, rpcListMatches, struct{}{}, &response); err != nil {
		return nil, err
	}

	if !response.Success {
		return []entity.MatchListing{}, nil
	}

	return response.Matches, nil
}

func (that *statsService) call(ctx context.Context, id string, payload, response any) error {
	log := that.logger.With("method", "call", "rpc", id)

	raw, err := that.client.RPC(ctx, that.session, id, payload)
	if err != nil {
		return fmt.Errorf("failed to call %s: %w", id, err)
	}

	if err = json.Unmarshal([]byte(raw), response); err != nil {
		return fmt.Errorf("failed to unmarshal %s response: %w", id, err)
	}

	log.Debug("rpc done")

	return nil
}
