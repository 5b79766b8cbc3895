package match

import (
	"github.com/rocketscienceinc/tictactoe-client/internal/entity"
	"github.com/rocketscienceinc/tictactoe-client/internal/protocol"
	"github.com/rocketscienceinc/tictactoe-client/internal/transport/nakama"
)

const errTextConnectionLost = "connection lost"

func (that *Session) handleData(data nakama.MatchData) {
	log := that.logger.With("method", "handleData", "op_code", protocol.OpCode(data.OpCode))

	if that.matchID != "" && data.MatchID != "" && data.MatchID != that.matchID {
		log.Debug("dropping data for another match", "match_id", data.MatchID)
		return
	}

	message, err := protocol.Decode(data.OpCode, data.Data)
	if err != nil {
		log.Warn("dropping malformed match data", "error", err)
		return
	}

	switch message := message.(type) {
	case protocol.GameState:
		that.applyGameState(message, data.MatchID)
	case protocol.GameOver:
		that.applyGameOver(message)
	case protocol.ServerError:
		log.Warn("server error", "message", message.Message)
		that.lastError = message.Message
		that.publish()
	case protocol.PlayerJoin:
		if message.AssignedSymbol == entity.EmptyCell {
			return
		}
		that.localSymbol = message.AssignedSymbol
		log.Info("symbol assigned", "symbol", message.AssignedSymbol)
		that.publish()
	case protocol.TurnUpdate, protocol.PlayerLeave:
		log.Debug("ignored match data")
	case protocol.Unknown:
		log.Debug("unknown op code", "code", message.Code)
	}
}

// applyGameState replaces the local view wholesale. Turn order is never derived locally.
func (that *Session) applyGameState(state protocol.GameState, matchID string) {
	log := that.logger.With("method", "applyGameState")

	switch that.status {
	case entity.StatusSearching, entity.StatusWaitingForOpponent, entity.StatusPlaying:
	default:
		log.Debug("ignoring game state", "status", that.status)
		return
	}

	if state.Kind == protocol.StateOther {
		log.Debug("ignoring game state type", "type", state.RawType)
		return
	}

	if that.matchID == "" {
		that.matchID = matchID
	}

	that.board = state.Board
	that.turnHolderID = state.TurnHolderID
	that.turnSymbol = state.TurnSymbol
	that.participants = state.Participants
	if state.AssignedSymbol != entity.EmptyCell {
		that.localSymbol = state.AssignedSymbol
	}
	that.version++

	that.setStatus(entity.StatusPlaying)

	if that.opts.Mode == entity.ModeTimed {
		that.timeRemaining = that.opts.TurnSeconds
	}
	that.syncTimer()

	that.publish()
}

func (that *Session) applyGameOver(over protocol.GameOver) {
	log := that.logger.With("method", "applyGameOver")

	switch that.status {
	case entity.StatusSearching, entity.StatusWaitingForOpponent, entity.StatusPlaying, entity.StatusOpponentLeft:
	default:
		log.Debug("ignoring game over", "status", that.status)
		return
	}

	if over.Board != nil {
		that.board = *over.Board
	}

	that.outcome = &entity.Outcome{
		Winner:      over.Winner,
		WinningLine: over.WinningLine,
		Reason:      over.Reason,
		Board:       that.board,
	}
	that.version++

	that.setStatus(entity.StatusGameOver)
	that.publish()

	log.Info("game over", "match_id", that.matchID, "winner", over.Winner, "reason", over.Reason)

	that.scheduleGrace()
}

func (that *Session) scheduleGrace() {
	that.cancelGrace()

	that.graceGen++
	gen := that.graceGen

	that.graceStop = that.opts.Scheduler.AfterFunc(that.opts.GraceDelay, func() {
		that.post(graceElapsed{gen: gen})
	})
}

func (that *Session) cancelGrace() {
	if that.graceStop != nil {
		that.graceStop()
		that.graceStop = nil
	}
	that.graceGen++
}

func (that *Session) handleGrace(gen int) {
	if gen != that.graceGen || that.graceStop == nil || that.outcome == nil {
		return
	}
	that.graceStop = nil

	result := entity.Result{
		MatchID:     that.matchID,
		Winner:      that.outcome.Winner,
		MySymbol:    that.localSymbol,
		Reason:      that.outcome.Reason,
		Board:       that.outcome.Board,
		WinningLine: append([]int(nil), that.outcome.WinningLine...),
		FinishedAt:  that.opts.Scheduler.Now(),
	}

	select {
	case that.results <- result:
	default:
		that.logger.Warn("result dropped, previous result not consumed", "match_id", that.matchID)
	}
}

func (that *Session) handleDisconnect(err error) {
	log := that.logger.With("method", "handleDisconnect")

	switch that.status {
	case entity.StatusConnecting, entity.StatusSearching:
		log.Error("connection lost before the match started", "error", err)
		that.lastError = errTextConnectionLost
		that.setStatus(entity.StatusError)
	case entity.StatusWaitingForOpponent, entity.StatusPlaying:
		log.Warn("connection lost during the match", "error", err)
		that.lastError = errTextConnectionLost
	default:
		return
	}

	that.publish()
}
