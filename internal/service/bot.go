package service

import (
	"errors"
	"math/rand/v2"

	"github.com/rocketscienceinc/tictactoe-client/internal/entity"
)

var (
	ErrNoAvailableMoves = errors.New("no available moves")
	ErrNoSymbol         = errors.New("no symbol to play")
)

// BotService picks a move for the local player when asked to play automatically.
type BotService interface {
	ChooseMove(board entity.Board, symbol entity.Symbol) (int, error)
}

type botService struct {
	intn func(n int) int
}

func NewBotService() BotService {
	return &botService{intn: rand.IntN}
}

// ChooseMove completes our own line first, then blocks the opponent's, otherwise picks a random free cell.
func (that *botService) ChooseMove(board entity.Board, symbol entity.Symbol) (int, error) {
	if !symbol.IsValid() {
		return 0, ErrNoSymbol
	}

	availableCells := board.ValidMoves()
	if len(availableCells) == 0 {
		return 0, ErrNoAvailableMoves
	}

	if cell, ok := completingCell(board, symbol); ok {
		return cell, nil
	}

	if cell, ok := completingCell(board, opponentOf(symbol)); ok {
		return cell, nil
	}

	return availableCells[that.intn(len(availableCells))], nil
}

func completingCell(board entity.Board, symbol entity.Symbol) (int, bool) {
	for _, combo := range entity.WinCombos {
		owned, free := 0, -1

		for _, cell := range combo {
			switch board[cell] {
			case symbol:
				owned++
			case entity.EmptyCell:
				free = cell
			}
		}

		if owned == 2 && free >= 0 {
			return free, true
		}
	}

	return 0, false
}

func opponentOf(symbol entity.Symbol) entity.Symbol {
	if symbol == entity.SymbolX {
		return entity.SymbolO
	}

	return entity.SymbolX
}
