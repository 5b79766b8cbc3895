package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-client/internal/entity"
)

var (
	ErrMalformedPayload = errors.New("malformed payload")
	ErrInvalidPosition  = errors.New("invalid move position")
)

const (
	typeGameStart = "game_start"
	typeGameState = "game_state"
)

type gameStatePayload struct {
	Type          string                        `json:"type"`
	Board         *entity.Board                 `json:"board"`
	CurrentTurn   string                        `json:"currentTurn"`
	CurrentSymbol entity.Symbol                 `json:"currentSymbol"`
	Players       map[string]entity.Participant `json:"players"`
	YourSymbol    entity.Symbol                 `json:"yourSymbol"`
}

type gameOverPayload struct {
	Winner      string        `json:"winner"`
	WinningLine []int         `json:"winningLine"`
	Board       *entity.Board `json:"board"`
	Reason      string        `json:"reason"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type playerJoinPayload struct {
	YourSymbol     entity.Symbol `json:"yourSymbol"`
	AssignedSymbol entity.Symbol `json:"assignedSymbol"`
}

type movePayload struct {
	Position int `json:"position"`
}

// Decode turns one match data message into its typed form.
// Errors always wrap ErrMalformedPayload; callers drop such messages.
func Decode(opCode int64, data []byte) (Message, error) {
	code := OpCode(opCode)

	if len(bytes.TrimSpace(data)) == 0 {
		data = []byte("{}")
	}

	switch code {
	case OpGameState:
		return decodeGameState(data)
	case OpGameOver:
		return decodeGameOver(data)
	case OpError:
		var payload errorPayload
		if err := unmarshal(code, data, &payload); err != nil {
			return nil, err
		}
		return ServerError{Message: payload.Message}, nil
	case OpPlayerJoin:
		var payload playerJoinPayload
		if err := unmarshal(code, data, &payload); err != nil {
			return nil, err
		}
		symbol := payload.YourSymbol
		if symbol == entity.EmptyCell {
			symbol = payload.AssignedSymbol
		}
		if err := checkSymbol(code, symbol); err != nil {
			return nil, err
		}
		return PlayerJoin{AssignedSymbol: symbol}, nil
	case OpTurnUpdate:
		return TurnUpdate{Raw: data}, nil
	case OpPlayerLeave:
		return PlayerLeave{Raw: data}, nil
	case OpMove:
		// MOVE only travels client -> server
		return Unknown{Code: code, Raw: data}, nil
	default:
		return Unknown{Code: code, Raw: data}, nil
	}
}

func decodeGameState(data []byte) (Message, error) {
	var payload gameStatePayload
	if err := unmarshal(OpGameState, data, &payload); err != nil {
		return nil, err
	}

	if err := checkSymbol(OpGameState, payload.YourSymbol); err != nil {
		return nil, err
	}

	message := GameState{
		RawType:        payload.Type,
		TurnHolderID:   payload.CurrentTurn,
		TurnSymbol:     payload.CurrentSymbol,
		AssignedSymbol: payload.YourSymbol,
		Participants:   make(map[string]entity.Participant, len(payload.Players)),
	}

	switch payload.Type {
	case typeGameStart:
		message.Kind = StateStart
	case typeGameState:
		message.Kind = StateUpdate
	default:
		message.Kind = StateOther
	}

	if payload.Board != nil {
		message.Board = *payload.Board
	}

	if message.TurnSymbol == entity.EmptyCell {
		message.TurnSymbol = entity.SymbolX
	}

	if err := checkSymbol(OpGameState, message.TurnSymbol); err != nil {
		return nil, err
	}

	for id, participant := range payload.Players {
		participant.ID = id
		message.Participants[id] = participant
	}

	return message, nil
}

func decodeGameOver(data []byte) (Message, error) {
	var payload gameOverPayload
	if err := unmarshal(OpGameOver, data, &payload); err != nil {
		return nil, err
	}

	if payload.WinningLine != nil {
		if len(payload.WinningLine) != 3 {
			return nil, fmt.Errorf("%w: %s winning line has %d cells", ErrMalformedPayload, OpGameOver, len(payload.WinningLine))
		}
		for _, cell := range payload.WinningLine {
			if !entity.ValidCell(cell) {
				return nil, fmt.Errorf("%w: %s winning line cell %d", ErrMalformedPayload, OpGameOver, cell)
			}
		}
	}

	return GameOver{
		Winner:      payload.Winner,
		WinningLine: payload.WinningLine,
		Board:       payload.Board,
		Reason:      payload.Reason,
	}, nil
}

// EncodeMove - the only payload the client ever authors.
func EncodeMove(position int) ([]byte, error) {
	if !entity.ValidCell(position) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPosition, position)
	}

	data, err := json.Marshal(movePayload{Position: position})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal move: %w", err)
	}

	return data, nil
}

func unmarshal(code OpCode, data []byte, payload any) error {
	if err := json.Unmarshal(data, payload); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrMalformedPayload, code, err)
	}

	return nil
}

func checkSymbol(code OpCode, symbol entity.Symbol) error {
	if symbol == entity.EmptyCell || symbol.IsValid() {
		return nil
	}

	return fmt.Errorf("%w: %s symbol %q", ErrMalformedPayload, code, symbol)
}
