package match

import (
	"testing"
	"time"

	"github.com/rocketscienceinc/tictactoe-client/internal/entity"
	"github.com/rocketscienceinc/tictactoe-client/internal/protocol"
	"github.com/rocketscienceinc/tictactoe-client/internal/transport/nakama"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (that *harness) tick() {
	that.t.Helper()

	require.True(that.t, that.scheduler.fire(time.Second), "no tick scheduled")
	// the next tick is scheduled while the loop handles this one
	_ = that.snapshot()
}

func TestTurnTimer(t *testing.T) {
	t.Run("Counts down on the local turn", func(t *testing.T) {
		h := newHarness(t, entity.ModeTimed)
		h.play(localID)
		assert.Equal(t, 30, h.snapshot().TimeRemaining)

		h.tick()
		h.tick()

		assert.Equal(t, 28, h.snapshot().TimeRemaining)
	})

	t.Run("New game state resets the countdown", func(t *testing.T) {
		h := newHarness(t, entity.ModeTimed)
		h.play(localID)

		// Given: some time has passed on our turn
		for range 5 {
			h.tick()
		}
		require.Equal(t, 25, h.snapshot().TimeRemaining)

		// When: the server sends a new state
		h.conn.emitData(protocol.OpGameState, gameState("game_state", localID, "X", emptyBoard, ""))

		// Then: the countdown starts over with exactly one tick pending
		assert.Equal(t, 30, h.snapshot().TimeRemaining)
		assert.Equal(t, 1, h.scheduler.pending(time.Second))
	})

	t.Run("Opponent's turn disarms the timer", func(t *testing.T) {
		h := newHarness(t, entity.ModeTimed)
		h.play(localID)

		h.conn.emitData(protocol.OpGameState, gameState("game_state", opponentID, "O", `["X",null,null,null,null,null,null,null,null]`, ""))

		snapshot := h.snapshot()
		assert.Equal(t, 30, snapshot.TimeRemaining)
		assert.Zero(t, h.scheduler.pending(time.Second))
	})

	t.Run("Stale tick after disarm is ignored", func(t *testing.T) {
		h := newHarness(t, entity.ModeTimed)
		h.play(localID)
		h.conn.emitData(protocol.OpGameState, gameState("game_state", opponentID, "O", emptyBoard, ""))
		_ = h.snapshot()

		// When: the cancelled tick still fires
		require.True(t, h.scheduler.fireStopped(time.Second))

		// Then: nothing is counted
		assert.Equal(t, 30, h.snapshot().TimeRemaining)
	})

	t.Run("Stops at zero without a local action", func(t *testing.T) {
		h := newHarness(t, entity.ModeTimed)
		h.play(localID)

		for range 30 {
			h.tick()
		}

		snapshot := h.snapshot()
		assert.Zero(t, snapshot.TimeRemaining)
		assert.Equal(t, entity.StatusPlaying, snapshot.Status)
		assert.Zero(t, h.scheduler.pending(time.Second))
	})

	t.Run("Leaving playing disarms the timer", func(t *testing.T) {
		tests := []struct {
			name  string
			leave func(h *harness)
		}{
			{
				name: "game over",
				leave: func(h *harness) {
					h.conn.emitData(protocol.OpGameOver, `{"winner":"O","reason":"timeout"}`)
				},
			},
			{
				name: "opponent left",
				leave: func(h *harness) {
					h.conn.emitPresence(nakama.PresenceEvent{Leaves: []entity.Presence{{UserID: opponentID}}})
				},
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				h := newHarness(t, entity.ModeTimed)
				h.play(localID)
				require.Equal(t, 1, h.scheduler.pending(time.Second))

				tt.leave(h)
				_ = h.snapshot()

				assert.Zero(t, h.scheduler.pending(time.Second))
			})
		}
	})

	t.Run("Classic mode has no timer", func(t *testing.T) {
		h := newHarness(t, entity.ModeClassic)
		h.play(localID)

		assert.Zero(t, h.snapshot().TimeRemaining)
		assert.Zero(t, h.scheduler.pending(time.Second))
	})
}
