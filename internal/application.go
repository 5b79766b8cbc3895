package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rocketscienceinc/tictactoe-client/internal/config"
	"github.com/rocketscienceinc/tictactoe-client/internal/console"
	"github.com/rocketscienceinc/tictactoe-client/internal/entity"
	"github.com/rocketscienceinc/tictactoe-client/internal/match"
	"github.com/rocketscienceinc/tictactoe-client/internal/repository"
	"github.com/rocketscienceinc/tictactoe-client/internal/repository/storage"
	"github.com/rocketscienceinc/tictactoe-client/internal/service"
	"github.com/rocketscienceinc/tictactoe-client/internal/transport/nakama"
	"github.com/rocketscienceinc/tictactoe-client/transport/rest"
)

// verdictWait is how long to wait for a forfeit verdict after the opponent left.
const verdictWait = 5 * time.Second

var ErrMatchFailed = errors.New("match failed")

// RunApp - plays one match: authenticate, matchmake, play, then book the result.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	mode, err := entity.ParseMode(conf.Match.Mode)
	if err != nil {
		return err
	}

	client := nakama.NewClient(logger, conf.Nakama)

	session, err := client.Authenticate(ctx, conf.Username)
	if err != nil {
		return fmt.Errorf("could not authenticate: %w", err)
	}

	statsService := service.NewStatsService(logger, client, session)
	showStats(ctx, log, statsService)

	// history is optional, the match is playable without redis
	var resultService service.ResultService

	redisStorage, err := storage.New(ctx, conf.Redis.GetRedisAddr())
	if err != nil {
		log.Warn("match history is disabled", "error", err)
	} else {
		defer func() {
			if err = redisStorage.Close(); err != nil {
				log.Error("could not close redis storage", "error", err)
			}
		}()

		matchRepo := repository.NewMatchRepository(redisStorage, conf.Match.HistoryLimit)
		resultService = service.NewResultService(logger, session.UserID, matchRepo, statsService)
	}

	socket := nakama.NewSocket(logger, conf.Nakama, session)
	defer func() {
		if err = socket.Close(); err != nil {
			log.Debug("could not close socket", "error", err)
		}
	}()

	matchSession := match.NewSession(ctx, logger, socket, match.Options{
		Mode:         mode,
		TurnSeconds:  conf.Match.TurnSeconds,
		GraceDelay:   conf.Match.GraceDelay,
		LeaveTimeout: conf.Match.LeaveTimeout,
	})
	defer matchSession.Close()

	screen := console.New(logger, os.Stdout, service.NewBotService())

	ended := make(chan entity.Snapshot, 1)
	go screen.Watch(ctx, matchSession.Snapshots(), ended)

	if err = matchSession.Start(); err != nil {
		return fmt.Errorf("could not start match: %w", err)
	}

	// run input reader
	inputErrCh := make(chan error, 1)
	go func() {
		inputErrCh <- screen.ReadMoves(ctx, os.Stdin, matchSession)
	}()

	// run status server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting status server", "port", conf.Status.Port)
		handlers := rest.NewHandlers(logger, matchSession, historyOrNil(resultService))
		if httpErr := rest.Start(ctx, conf.Status.Port, handlers); httpErr != nil {
			httpErrCh <- httpErr
		}
	}()

	return waitForEnd(ctx, log, matchEnd{
		results:     matchSession.Results(),
		ended:       ended,
		input:       inputErrCh,
		status:      httpErrCh,
		done:        matchSession.Done(),
		verdictWait: verdictWait,
	}, func(result entity.Result) {
		recordResult(ctx, log, &result, resultService, statsService)
		screen.Print(fmt.Sprintf("Match over: %s\n", result.Kind()))
	})
}

type matchEnd struct {
	results     <-chan entity.Result
	ended       <-chan entity.Snapshot
	input       <-chan error
	status      <-chan error
	done        <-chan struct{}
	verdictWait time.Duration
}

// waitForEnd blocks until the match is over for the player. The status server is
// auxiliary: its failure is logged and the match goes on.
func waitForEnd(ctx context.Context, log *slog.Logger, end matchEnd, onResult func(entity.Result)) error {
	var verdict <-chan time.Time

	for {
		select {
		case result, ok := <-end.results:
			if !ok {
				return nil
			}

			onResult(result)
			return nil
		case snapshot := <-end.ended:
			if snapshot.Status == entity.StatusError {
				return fmt.Errorf("%w: %s", ErrMatchFailed, snapshot.LastError)
			}

			log.Info("Opponent left, waiting for the verdict")
			verdict = time.After(end.verdictWait)
		case <-verdict:
			log.Info("No verdict after the opponent left")
			return nil
		case err := <-end.input:
			if err != nil && !errors.Is(err, console.ErrQuit) {
				return fmt.Errorf("input error: %w", err)
			}

			log.Info("Player quit")
			return nil
		case err := <-end.status:
			log.Error("status server error, the match goes on", "error", err)
			end.status = nil
		case <-end.done:
			return nil
		case <-ctx.Done():
			log.Info("Application context canceled, shutting down")
			return nil
		}
	}
}

func showStats(ctx context.Context, log *slog.Logger, stats service.StatsService) {
	health, err := stats.HealthCheck(ctx)
	if err != nil {
		log.Warn("server health check failed", "error", err)
	} else {
		log.Info("server health", "status", health.Status)
	}

	playerStats, err := stats.GetPlayerStats(ctx, "")
	if err != nil {
		log.Warn("could not get player stats", "error", err)
		return
	}

	log.Info("player stats",
		"wins", playerStats.Wins,
		"losses", playerStats.Losses,
		"draws", playerStats.Draws,
		"rating", playerStats.Rating,
	)
}

// recordResult falls back to the stats RPC alone when there is no history storage.
func recordResult(ctx context.Context, log *slog.Logger, result *entity.Result, results service.ResultService, stats service.StatsService) {
	if results != nil {
		if err := results.Record(ctx, result); err != nil {
			log.Error("could not record result", "error", err)
		}

		return
	}

	if _, err := stats.UpdateStats(ctx, result.Kind()); err != nil {
		log.Error("could not update stats", "error", err)
	}
}

type historySource interface {
	History(ctx context.Context, limit int64) ([]*entity.Result, error)
}

func historyOrNil(results service.ResultService) historySource {
	if results == nil {
		return nil
	}

	return results
}
