package match

import (
	"fmt"

	"github.com/rocketscienceinc/tictactoe-client/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-client/internal/entity"
	"github.com/rocketscienceinc/tictactoe-client/internal/transport/nakama"
)

const (
	matchmakerQuery = "*"
	matchSize       = 2

	stageConnect    = "connect"
	stageMatchmaker = "matchmaker"

	errTextConnect    = "failed to connect to game server"
	errTextMatchmaker = "failed to find match"
	errTextJoin       = "failed to join match"
)

func (that *Session) handleStart() {
	log := that.logger.With("method", "handleStart")

	if that.status != entity.StatusIdle {
		log.Debug("session already started", "status", that.status)
		return
	}

	that.disposers = append(that.disposers,
		that.conn.OnMatchmakerMatched(func(matched nakama.MatchmakerMatched) {
			that.post(matchedEvent{matched: matched})
		}),
		that.conn.OnMatchData(func(data nakama.MatchData) {
			that.post(dataEvent{data: data})
		}),
		that.conn.OnMatchPresence(func(presence nakama.PresenceEvent) {
			that.post(presenceEvent{presence: presence})
		}),
		that.conn.OnDisconnect(func(err error) {
			that.post(disconnectEvent{err: err})
		}),
	)

	that.setStatus(entity.StatusConnecting)
	that.publish()

	ctx := that.ctx
	mode := that.opts.Mode

	go func() {
		if err := that.conn.Connect(ctx); err != nil {
			that.post(connectResult{err: fmt.Errorf("%w: %w", apperror.ErrConnection, err), stage: stageConnect})
			return
		}

		ticket, err := that.conn.AddMatchmaker(ctx, matchmakerQuery, matchSize, matchSize, map[string]string{"mode": string(mode)})
		if err != nil {
			that.post(connectResult{err: fmt.Errorf("%w: %w", apperror.ErrMatchmaking, err), stage: stageMatchmaker})
			return
		}

		that.post(connectResult{ticket: ticket})
	}()
}

func (that *Session) handleConnectResult(result connectResult) {
	log := that.logger.With("method", "handleConnectResult")

	if that.status != entity.StatusConnecting {
		log.Debug("late connect result", "status", that.status)
		return
	}

	if result.err != nil {
		log.Error("failed to start matchmaking", "stage", result.stage, "error", result.err)

		that.lastError = errTextConnect
		if result.stage == stageMatchmaker {
			that.lastError = errTextMatchmaker
		}

		that.setStatus(entity.StatusError)
		that.publish()
		return
	}

	that.ticket = result.ticket
	that.setStatus(entity.StatusSearching)
	that.publish()

	log.Info("matchmaking", "ticket", result.ticket, "mode", that.opts.Mode)

	if that.earlyMatch != nil {
		matched := *that.earlyMatch
		that.earlyMatch = nil
		that.handleMatched(matched)
	}
}

func (that *Session) handleMatched(matched nakama.MatchmakerMatched) {
	log := that.logger.With("method", "handleMatched")

	switch that.status {
	case entity.StatusConnecting:
		// the pairing can overtake the ticket reply
		that.earlyMatch = &matched
		return
	case entity.StatusSearching:
	default:
		log.Debug("ignoring matchmaker event", "status", that.status)
		return
	}

	if that.ticket != "" && matched.Ticket != "" && matched.Ticket != that.ticket {
		log.Debug("ignoring match for another ticket", "ticket", matched.Ticket)
		return
	}

	if matched.MatchID == "" && matched.Token == "" {
		log.Warn("matchmaker event without match id or token")
		return
	}

	log.Info("match found", "match_id", matched.MatchID)

	if matched.MatchID != "" {
		that.matchID = matched.MatchID
	}
	that.publish()

	ctx := that.ctx

	go func() {
		var (
			match *nakama.Match
			err   error
		)

		if matched.MatchID != "" {
			match, err = that.conn.JoinMatch(ctx, matched.MatchID)
		} else {
			match, err = that.conn.JoinMatchToken(ctx, matched.Token)
		}

		// teardown only learns a token match id from the join reply
		if ctx.Err() != nil && matched.MatchID == "" {
			if err == nil && match != nil {
				that.leave(match.MatchID)
			}
			return
		}

		that.post(joinResult{match: match, err: err})
	}()
}

func (that *Session) handleJoinResult(result joinResult) {
	log := that.logger.With("method", "handleJoinResult")

	if result.err != nil {
		log.Error("failed to join match", "match_id", that.matchID, "error", fmt.Errorf("%w: %w", apperror.ErrJoinMatch, result.err))
		that.lastError = errTextJoin
		that.publish()
		return
	}

	if that.matchID == "" {
		that.matchID = result.match.MatchID
	}

	if that.status == entity.StatusSearching {
		that.setStatus(entity.StatusWaitingForOpponent)
	}

	log.Info("joined match", "match_id", that.matchID, "status", that.status)

	that.publish()
}
