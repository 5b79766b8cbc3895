package match

import (
	"github.com/rocketscienceinc/tictactoe-client/internal/entity"
	"github.com/rocketscienceinc/tictactoe-client/internal/protocol"
)

const errTextSendMove = "failed to send move"

func (that *Session) canMove(cell int) bool {
	return that.status == entity.StatusPlaying &&
		that.isMyTurn() &&
		that.localSymbol != entity.EmptyCell &&
		!that.movePending &&
		that.board.IsEmptyCell(cell)
}

// handleMove applies the move before the server sees it and sends it in the background.
func (that *Session) handleMove(cell int) {
	log := that.logger.With("method", "handleMove", "cell", cell)

	if !that.canMove(cell) {
		log.Debug("move rejected", "status", that.status, "my_turn", that.isMyTurn())
		return
	}

	data, err := protocol.EncodeMove(cell)
	if err != nil {
		log.Debug("move rejected", "error", err)
		return
	}

	prev := that.board
	that.board[cell] = that.localSymbol
	that.movePending = true
	that.publish()

	ctx := that.ctx
	matchID := that.matchID
	version := that.version

	go func() {
		err := that.conn.SendMatchState(ctx, matchID, int64(protocol.OpMove), data)
		that.post(moveSent{cell: cell, version: version, prev: prev, err: err})
	}()
}

func (that *Session) handleMoveSent(sent moveSent) {
	log := that.logger.With("method", "handleMoveSent", "cell", sent.cell)

	that.movePending = false

	if sent.err == nil {
		log.Debug("move sent")
		return
	}

	if sent.version != that.version || that.status != entity.StatusPlaying {
		log.Warn("move failed after the server moved on", "error", sent.err)
		return
	}

	log.Error("failed to send move", "error", sent.err)

	that.board = sent.prev
	that.lastError = errTextSendMove
	that.publish()
}
