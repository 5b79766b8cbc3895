package nakama

import (
	"sync"

	"github.com/heroiclabs/nakama-common/rtapi"
	"github.com/rocketscienceinc/tictactoe-client/internal/entity"
)

// MatchmakerMatched - the matchmaker paired this ticket with an opponent.
type MatchmakerMatched struct {
	Ticket  string
	MatchID string
	Token   string
	Users   []entity.Presence
	Self    entity.Presence
}

type MatchData struct {
	MatchID  string
	OpCode   int64
	Data     []byte
	SenderID string
}

type PresenceEvent struct {
	MatchID string
	Joins   []entity.Presence
	Leaves  []entity.Presence
}

// Match is the server's answer to a join.
type Match struct {
	MatchID       string
	Authoritative bool
	Label         string
	Size          int
	Self          entity.Presence
	Presences     []entity.Presence
}

// handlers is a set of callbacks; add returns the function that removes the callback again.
type handlers[T any] struct {
	mu   sync.Mutex
	next int
	fns  map[int]func(T)
}

func (that *handlers[T]) add(fn func(T)) func() {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.fns == nil {
		that.fns = make(map[int]func(T))
	}

	id := that.next
	that.next++
	that.fns[id] = fn

	var once sync.Once

	return func() {
		once.Do(func() {
			that.mu.Lock()
			delete(that.fns, id)
			that.mu.Unlock()
		})
	}
}

func (that *handlers[T]) emit(value T) {
	that.mu.Lock()
	fns := make([]func(T), 0, len(that.fns))
	for _, fn := range that.fns {
		fns = append(fns, fn)
	}
	that.mu.Unlock()

	for _, fn := range fns {
		fn(value)
	}
}

func toPresence(presence *rtapi.UserPresence) entity.Presence {
	return entity.Presence{
		UserID:    presence.GetUserId(),
		SessionID: presence.GetSessionId(),
		Username:  presence.GetUsername(),
	}
}

func toPresences(presences []*rtapi.UserPresence) []entity.Presence {
	result := make([]entity.Presence, 0, len(presences))
	for _, presence := range presences {
		result = append(result, toPresence(presence))
	}

	return result
}

func toMatchmakerMatched(matched *rtapi.MatchmakerMatched) MatchmakerMatched {
	users := make([]entity.Presence, 0, len(matched.GetUsers()))
	for _, user := range matched.GetUsers() {
		users = append(users, toPresence(user.GetPresence()))
	}

	return MatchmakerMatched{
		Ticket:  matched.GetTicket(),
		MatchID: matched.GetMatchId(),
		Token:   matched.GetToken(),
		Users:   users,
		Self:    toPresence(matched.GetSelf().GetPresence()),
	}
}

func toMatchData(data *rtapi.MatchData) MatchData {
	return MatchData{
		MatchID:  data.GetMatchId(),
		OpCode:   data.GetOpCode(),
		Data:     data.GetData(),
		SenderID: data.GetPresence().GetUserId(),
	}
}

func toPresenceEvent(event *rtapi.MatchPresenceEvent) PresenceEvent {
	return PresenceEvent{
		MatchID: event.GetMatchId(),
		Joins:   toPresences(event.GetJoins()),
		Leaves:  toPresences(event.GetLeaves()),
	}
}

func toMatch(match *rtapi.Match) *Match {
	return &Match{
		MatchID:       match.GetMatchId(),
		Authoritative: match.GetAuthoritative(),
		Label:         match.GetLabel().GetValue(),
		Size:          int(match.GetSize()),
		Self:          toPresence(match.GetSelf()),
		Presences:     toPresences(match.GetPresences()),
	}
}
