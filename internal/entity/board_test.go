package entity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoard_DetermineWinner(t *testing.T) {
	t.Run("Every winning line yields its symbol", func(t *testing.T) {
		for _, symbol := range []Symbol{SymbolX, SymbolO} {
			for _, combo := range WinCombos {
				// Given: a board where only the combo cells are taken by the symbol
				var board Board
				for _, cell := range combo {
					board[cell] = symbol
				}

				// When: determining the winner
				winner, line, won := board.DetermineWinner()

				// Then: the symbol wins on that exact line
				require.True(t, won, "combo %v", combo)
				assert.Equal(t, symbol, winner)
				assert.Equal(t, combo, line)
			}
		}
	})

	t.Run("Full board without a line is a draw", func(t *testing.T) {
		// Given: a full board with no completed line
		board := Board{
			SymbolX, SymbolO, SymbolX,
			SymbolX, SymbolO, SymbolO,
			SymbolO, SymbolX, SymbolX,
		}

		// When: determining the winner
		winner, _, won := board.DetermineWinner()

		// Then: nobody wins and the board counts as a draw
		assert.False(t, won)
		assert.Equal(t, EmptyCell, winner)
		assert.True(t, board.IsFull())
		assert.True(t, board.IsDraw())
	})

	t.Run("Ongoing board has no winner and is not a draw", func(t *testing.T) {
		// Given: a partially filled board
		board := Board{
			SymbolX, SymbolO, EmptyCell,
			EmptyCell, SymbolX, EmptyCell,
			EmptyCell, EmptyCell, SymbolO,
		}

		// When: determining the winner
		_, _, won := board.DetermineWinner()

		// Then: the game continues
		assert.False(t, won)
		assert.False(t, board.IsDraw())
		assert.Equal(t, []int{2, 3, 5, 6, 7}, board.ValidMoves())
	})
}

func TestBoard_JSON(t *testing.T) {
	t.Run("Null cells decode as empty", func(t *testing.T) {
		// Given: a server board with nulls
		data := []byte(`[null,"X",null,null,"O",null,null,null,null]`)

		// When: decoding it
		var board Board
		err := json.Unmarshal(data, &board)

		// Then: empty cells stay empty
		require.NoError(t, err)
		assert.Equal(t, Board{EmptyCell, SymbolX, EmptyCell, EmptyCell, SymbolO}, board)
	})

	t.Run("Empty cells encode as null", func(t *testing.T) {
		// Given: a board with one move
		board := Board{4: SymbolX}

		// When: encoding it
		data, err := json.Marshal(board)

		// Then: the wire form matches the server's
		require.NoError(t, err)
		assert.JSONEq(t, `[null,null,null,null,"X",null,null,null,null]`, string(data))
	})

	t.Run("Wrong length is rejected", func(t *testing.T) {
		var board Board
		err := json.Unmarshal([]byte(`["X","O"]`), &board)

		assert.ErrorIs(t, err, ErrInvalidBoard)
	})

	t.Run("Unknown symbol is rejected", func(t *testing.T) {
		var board Board
		err := json.Unmarshal([]byte(`["Z",null,null,null,null,null,null,null,null]`), &board)

		assert.ErrorIs(t, err, ErrInvalidSymbol)
	})
}

func TestResult_Kind(t *testing.T) {
	t.Run("Winner equal to my symbol is a win", func(t *testing.T) {
		result := &Result{Winner: "X", MySymbol: SymbolX}
		assert.Equal(t, ResultWin, result.Kind())
	})

	t.Run("Other winner is a loss", func(t *testing.T) {
		result := &Result{Winner: "O", MySymbol: SymbolX}
		assert.Equal(t, ResultLoss, result.Kind())
	})

	t.Run("Draw is a draw regardless of symbol", func(t *testing.T) {
		result := &Result{Winner: Draw, MySymbol: SymbolO}
		assert.Equal(t, ResultDraw, result.Kind())
	})
}

func TestParseMode(t *testing.T) {
	mode, err := ParseMode("timed")
	require.NoError(t, err)
	assert.Equal(t, ModeTimed, mode)

	mode, err = ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeClassic, mode)

	_, err = ParseMode("blitz")
	assert.Error(t, err)
}

func TestSnapshot_OpponentName(t *testing.T) {
	snapshot := Snapshot{
		LocalID: "me",
		Participants: map[string]Participant{
			"me":    {Username: "alice"},
			"other": {Username: "bob"},
		},
	}

	assert.Equal(t, "bob", snapshot.OpponentName())
	assert.Equal(t, "Opponent", Snapshot{LocalID: "me"}.OpponentName())
}
