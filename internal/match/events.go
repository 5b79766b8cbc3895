package match

import (
	"github.com/rocketscienceinc/tictactoe-client/internal/entity"
	"github.com/rocketscienceinc/tictactoe-client/internal/transport/nakama"
)

// event is everything the session loop reacts to. The set of implementations is closed.
type event interface{ isEvent() }

type startRequested struct{}

type connectResult struct {
	ticket string
	err    error
	// stage is "connect" or "matchmaker", whichever failed
	stage string
}

type matchedEvent struct {
	matched nakama.MatchmakerMatched
}

type joinResult struct {
	match *nakama.Match
	err   error
}

type dataEvent struct {
	data nakama.MatchData
}

type presenceEvent struct {
	presence nakama.PresenceEvent
}

type disconnectEvent struct {
	err error
}

type moveRequested struct {
	cell int
}

type moveSent struct {
	cell    int
	version int
	prev    entity.Board
	err     error
}

type timerTick struct {
	gen int
}

type graceElapsed struct {
	gen int
}

type clearError struct{}

type getSnapshot struct {
	reply chan entity.Snapshot
}

func (startRequested) isEvent()  {}
func (connectResult) isEvent()   {}
func (matchedEvent) isEvent()    {}
func (joinResult) isEvent()      {}
func (dataEvent) isEvent()       {}
func (presenceEvent) isEvent()   {}
func (disconnectEvent) isEvent() {}
func (moveRequested) isEvent()   {}
func (moveSent) isEvent()        {}
func (timerTick) isEvent()       {}
func (graceElapsed) isEvent()    {}
func (clearError) isEvent()      {}
func (getSnapshot) isEvent()     {}
