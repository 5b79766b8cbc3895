package match

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rocketscienceinc/tictactoe-client/internal/entity"
	"github.com/rocketscienceinc/tictactoe-client/internal/protocol"
	"github.com/rocketscienceinc/tictactoe-client/internal/transport/nakama"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type sentMove struct {
	matchID string
	opCode  int64
	data    string
}

// expectSend records every MOVE and answers with err.
func (that *harness) expectSend(err error) <-chan sentMove {
	sent := make(chan sentMove, 4)

	that.conn.On("SendMatchState", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(err).Run(func(args mock.Arguments) {
		sent <- sentMove{
			matchID: args.String(1),
			opCode:  args.Get(2).(int64),
			data:    string(args.Get(3).([]byte)),
		}
	})

	return sent
}

func TestSession_Move(t *testing.T) {
	t.Run("Local move is applied at once and sent", func(t *testing.T) {
		h := newHarness(t, entity.ModeClassic)
		h.play(localID)
		sent := h.expectSend(nil)

		// When: moving to the center
		h.session.Move(4)

		// Then: the board shows X before the server answers
		snapshot := h.snapshot()
		assert.Equal(t, entity.SymbolX, snapshot.Board[4])
		assert.Equal(t, entity.StatusPlaying, snapshot.Status)

		// And: a MOVE with position 4 is sent
		select {
		case move := <-sent:
			assert.Equal(t, matchID, move.matchID)
			assert.Equal(t, int64(protocol.OpMove), move.opCode)
			assert.JSONEq(t, `{"position":4}`, move.data)
		case <-time.After(waitFor):
			t.Fatal("move was not sent")
		}
	})

	t.Run("Send failure rolls the board back", func(t *testing.T) {
		h := newHarness(t, entity.ModeClassic)
		h.play(localID)
		before := h.snapshot().Board
		sent := h.expectSend(errors.New("write: broken pipe"))

		// When: the move cannot be sent
		h.session.Move(0)
		<-sent

		// Then: the board is what it was and the error is shown
		require.Eventually(t, func() bool {
			ctx, cancel := context.WithTimeout(context.Background(), waitFor)
			defer cancel()

			snapshot, err := h.session.Snapshot(ctx)
			return err == nil && snapshot.LastError == "failed to send move"
		}, waitFor, pollFor)

		snapshot := h.snapshot()
		assert.Equal(t, before, snapshot.Board)
		assert.Equal(t, entity.StatusPlaying, snapshot.Status)
	})

	t.Run("Authoritative state wins over a late send failure", func(t *testing.T) {
		h := newHarness(t, entity.ModeClassic)
		h.play(localID)

		// Given: the send blocks until released and then fails
		release := make(chan struct{})
		h.conn.On("SendMatchState", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("timeout")).Run(func(_ mock.Arguments) {
			<-release
		})

		h.session.Move(0)

		// When: the server state arrives before the failure
		h.conn.emitData(protocol.OpGameState, gameState("game_state", opponentID, "O", `["X",null,null,null,null,null,null,null,null]`, ""))
		_ = h.snapshot()
		close(release)

		// Then: the server board stays
		assert.Never(t, func() bool {
			ctx, cancel := context.WithTimeout(context.Background(), waitFor)
			defer cancel()

			snapshot, err := h.session.Snapshot(ctx)
			return err == nil && (snapshot.Board[0] != entity.SymbolX || snapshot.LastError != "")
		}, 100*time.Millisecond, pollFor)
	})

	t.Run("Second move while the first is in flight is rejected", func(t *testing.T) {
		h := newHarness(t, entity.ModeClassic)
		h.play(localID)

		release := make(chan struct{})
		h.conn.On("SendMatchState", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Run(func(_ mock.Arguments) {
			<-release
		})
		defer close(release)

		h.session.Move(0)
		h.session.Move(1)

		snapshot := h.snapshot()
		assert.Equal(t, entity.SymbolX, snapshot.Board[0])
		assert.Equal(t, entity.EmptyCell, snapshot.Board[1])
	})

	t.Run("Moves that are not allowed are silent no-ops", func(t *testing.T) {
		tests := []struct {
			name  string
			setup func(h *harness)
			cell  int
		}{
			{
				name:  "opponent's turn",
				setup: func(h *harness) { h.play(opponentID) },
				cell:  4,
			},
			{
				name: "occupied cell",
				setup: func(h *harness) {
					h.play(localID)
					h.conn.emitData(protocol.OpGameState, gameState("game_state", localID, "X", `[null,null,null,null,"O",null,null,null,null]`, ""))
				},
				cell: 4,
			},
			{
				name:  "cell out of range",
				setup: func(h *harness) { h.play(localID) },
				cell:  9,
			},
			{
				name:  "negative cell",
				setup: func(h *harness) { h.play(localID) },
				cell:  -1,
			},
			{
				name:  "not playing yet",
				setup: func(h *harness) { h.join() },
				cell:  4,
			},
			{
				name: "game over",
				setup: func(h *harness) {
					h.play(localID)
					h.conn.emitData(protocol.OpGameOver, `{"winner":"O","winningLine":[2,4,6]}`)
				},
				cell: 0,
			},
			{
				name: "opponent left",
				setup: func(h *harness) {
					h.play(localID)
					h.conn.emitPresence(nakama.PresenceEvent{MatchID: matchID, Leaves: []entity.Presence{{UserID: opponentID}}})
				},
				cell: 0,
			},
			{
				name: "no symbol assigned",
				setup: func(h *harness) {
					h.join()
					h.conn.emitData(protocol.OpGameState, gameState("game_start", localID, "X", emptyBoard, ""))
				},
				cell: 0,
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				h := newHarness(t, entity.ModeClassic)
				tt.setup(h)
				before := h.snapshot()

				// When: moving
				h.session.Move(tt.cell)

				// Then: nothing changes and nothing is sent
				assert.Equal(t, before, h.snapshot())
				h.conn.AssertNotCalled(t, "SendMatchState", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			})
		}
	})
}
