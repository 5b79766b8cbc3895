package protocol

import "github.com/rocketscienceinc/tictactoe-client/internal/entity"

// Message is one decoded match data message. The set of implementations is closed.
type Message interface {
	OpCode() OpCode
	isMessage()
}

type StateKind string

const (
	StateStart  StateKind = "start"
	StateUpdate StateKind = "update"
	// StateOther is any type value the client does not know yet.
	StateOther StateKind = "other"
)

// GameState replaces the whole local view of the match.
type GameState struct {
	Kind           StateKind
	RawType        string
	Board          entity.Board
	TurnHolderID   string
	TurnSymbol     entity.Symbol
	Participants   map[string]entity.Participant
	AssignedSymbol entity.Symbol
}

type GameOver struct {
	Winner      string
	WinningLine []int
	// Board is nil when the server did not send the final board.
	Board  *entity.Board
	Reason string
}

// ServerError is an ERROR message from the server, not a transport failure.
type ServerError struct {
	Message string
}

type PlayerJoin struct {
	AssignedSymbol entity.Symbol
}

type TurnUpdate struct {
	Raw []byte
}

type PlayerLeave struct {
	Raw []byte
}

// Unknown carries an op code this client has no decoder for.
type Unknown struct {
	Code OpCode
	Raw  []byte
}

func (GameState) OpCode() OpCode   { return OpGameState }
func (GameOver) OpCode() OpCode    { return OpGameOver }
func (ServerError) OpCode() OpCode { return OpError }
func (PlayerJoin) OpCode() OpCode  { return OpPlayerJoin }
func (TurnUpdate) OpCode() OpCode  { return OpTurnUpdate }
func (PlayerLeave) OpCode() OpCode { return OpPlayerLeave }
func (that Unknown) OpCode() OpCode {
	return that.Code
}

func (GameState) isMessage()   {}
func (GameOver) isMessage()    {}
func (ServerError) isMessage() {}
func (PlayerJoin) isMessage()  {}
func (TurnUpdate) isMessage()  {}
func (PlayerLeave) isMessage() {}
func (Unknown) isMessage()     {}
