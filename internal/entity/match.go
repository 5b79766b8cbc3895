package entity

import (
	"fmt"
	"time"
)

type Status string

const (
	StatusIdle               Status = "idle"
	StatusConnecting         Status = "connecting"
	StatusSearching          Status = "searching"
	StatusWaitingForOpponent Status = "waiting_for_opponent"
	StatusPlaying            Status = "playing"
	StatusOpponentLeft       Status = "opponent_left"
	StatusGameOver           Status = "game_over"
	StatusError              Status = "error"
)

// IsTerminal - the match is over from the local player's point of view.
func (that Status) IsTerminal() bool {
	return that == StatusGameOver || that == StatusOpponentLeft || that == StatusError
}

// IsWaiting - matchmaking or join is still in progress.
func (that Status) IsWaiting() bool {
	return that == StatusSearching || that == StatusWaitingForOpponent
}

type Mode string

const (
	ModeClassic Mode = "classic"
	ModeTimed   Mode = "timed"
)

func ParseMode(value string) (Mode, error) {
	switch mode := Mode(value); mode {
	case ModeClassic, ModeTimed:
		return mode, nil
	case "":
		return ModeClassic, nil
	default:
		return "", fmt.Errorf("unknown game mode: %q", value)
	}
}

const (
	ReasonForfeit = "forfeit"
	ReasonTimeout = "timeout"
)

// Outcome is set once the server declares the match over and never changes after.
type Outcome struct {
	Winner      string `json:"winner"`
	WinningLine []int  `json:"winning_line,omitempty"`
	Reason      string `json:"reason,omitempty"`
	Board       Board  `json:"board"`
}

func (that *Outcome) IsDraw() bool {
	return that.Winner == Draw
}

// Snapshot is a read-only copy of the session state handed to consumers.
type Snapshot struct {
	MatchID       string                 `json:"match_id,omitempty"`
	Ticket        string                 `json:"ticket,omitempty"`
	Mode          Mode                   `json:"mode"`
	Status        Status                 `json:"status"`
	Board         Board                  `json:"board"`
	LocalID       string                 `json:"local_id"`
	LocalSymbol   Symbol                 `json:"local_symbol,omitempty"`
	TurnHolderID  string                 `json:"turn_holder_id,omitempty"`
	TurnSymbol    Symbol                 `json:"turn_symbol,omitempty"`
	IsMyTurn      bool                   `json:"is_my_turn"`
	Participants  map[string]Participant `json:"participants,omitempty"`
	Outcome       *Outcome               `json:"outcome,omitempty"`
	TimeRemaining int                    `json:"time_remaining,omitempty"`
	LastError     string                 `json:"last_error,omitempty"`
}

// OpponentName returns the username of the first participant that is not us.
func (that Snapshot) OpponentName() string {
	for id, participant := range that.Participants {
		if id != that.LocalID && participant.Username != "" {
			return participant.Username
		}
	}

	return "Opponent"
}

type ResultKind string

const (
	ResultWin  ResultKind = "win"
	ResultLoss ResultKind = "loss"
	ResultDraw ResultKind = "draw"
)

// Result is what the consumer receives after the grace delay once a match is over.
type Result struct {
	MatchID     string    `json:"match_id"`
	Winner      string    `json:"winner"`
	MySymbol    Symbol    `json:"my_symbol"`
	Reason      string    `json:"reason,omitempty"`
	Board       Board     `json:"board"`
	WinningLine []int     `json:"winning_line,omitempty"`
	FinishedAt  time.Time `json:"finished_at"`
}

func (that *Result) Kind() ResultKind {
	switch {
	case that.Winner == Draw:
		return ResultDraw
	case that.MySymbol != EmptyCell && that.Winner == string(that.MySymbol):
		return ResultWin
	default:
		return ResultLoss
	}
}
