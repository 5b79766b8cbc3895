package protocol

import "strconv"

// OpCode tags every match data message, the values are shared with the server module.
type OpCode int64

const (
	// Server -> Client
	OpGameState OpCode = 1
	// Client -> Server
	OpMove OpCode = 2

	OpGameOver    OpCode = 3
	OpError       OpCode = 4
	OpTurnUpdate  OpCode = 5
	OpPlayerJoin  OpCode = 6
	OpPlayerLeave OpCode = 7
)

func (that OpCode) String() string {
	switch that {
	case OpGameState:
		return "GAME_STATE"
	case OpMove:
		return "MOVE"
	case OpGameOver:
		return "GAME_OVER"
	case OpError:
		return "ERROR"
	case OpTurnUpdate:
		return "TURN_UPDATE"
	case OpPlayerJoin:
		return "PLAYER_JOIN"
	case OpPlayerLeave:
		return "PLAYER_LEAVE"
	default:
		return "UNKNOWN(" + strconv.FormatInt(int64(that), 10) + ")"
	}
}
