package entity

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

type Symbol string

const (
	SymbolX Symbol = "X"
	SymbolO Symbol = "O"

	EmptyCell Symbol = ""
)

// Draw is the winner value the server reports when nobody completed a line.
const Draw = "draw"

const BoardSize = 9

var (
	ErrInvalidBoard  = errors.New("invalid board")
	ErrInvalidSymbol = errors.New("invalid symbol")

	WinCombos = [8][3]int{
		{0, 1, 2},
		{3, 4, 5},
		{6, 7, 8},
		{0, 3, 6},
		{1, 4, 7},
		{2, 5, 8},
		{0, 4, 8},
		{2, 4, 6},
	}
)

func (that Symbol) IsValid() bool {
	return that == SymbolX || that == SymbolO
}

// Board is a row-major 3x3 grid, cell 0 is the top-left corner.
type Board [BoardSize]Symbol

func ValidCell(cell int) bool {
	return cell >= 0 && cell < BoardSize
}

func (that Board) IsEmptyCell(cell int) bool {
	return ValidCell(cell) && that[cell] == EmptyCell
}

// DetermineWinner returns the symbol owning a completed line and that line.
func (that Board) DetermineWinner() (Symbol, [3]int, bool) {
	for _, combo := range WinCombos {
		a, b, c := that[combo[0]], that[combo[1]], that[combo[2]]
		if a != EmptyCell && a == b && b == c {
			return a, combo, true
		}
	}

	return EmptyCell, [3]int{}, false
}

func (that Board) IsFull() bool {
	for _, cell := range that {
		if cell == EmptyCell {
			return false
		}
	}

	return true
}

// IsDraw - the board is full and nobody has a line.
func (that Board) IsDraw() bool {
	_, _, won := that.DetermineWinner()
	return !won && that.IsFull()
}

func (that Board) ValidMoves() []int {
	moves := make([]int, 0, BoardSize)
	for i, cell := range that {
		if cell == EmptyCell {
			moves = append(moves, i)
		}
	}

	return moves
}

// MarshalJSON writes empty cells as null, the way the server sends them.
func (that Board) MarshalJSON() ([]byte, error) {
	cells := make([]*string, BoardSize)
	for i, cell := range that {
		if cell == EmptyCell {
			continue
		}
		value := string(cell)
		cells[i] = &value
	}

	return json.Marshal(cells)
}

func (that *Board) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*that = Board{}
		return nil
	}

	var cells []*string
	if err := json.Unmarshal(data, &cells); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidBoard, err)
	}

	if len(cells) != BoardSize {
		return fmt.Errorf("%w: %d cells", ErrInvalidBoard, len(cells))
	}

	var board Board
	for i, cell := range cells {
		if cell == nil || *cell == "" {
			continue
		}

		symbol := Symbol(*cell)
		if !symbol.IsValid() {
			return fmt.Errorf("%w: %q at cell %d", ErrInvalidSymbol, *cell, i)
		}
		board[i] = symbol
	}

	*that = board

	return nil
}
