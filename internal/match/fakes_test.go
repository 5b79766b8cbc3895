package match

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/rocketscienceinc/tictactoe-client/internal/entity"
	"github.com/rocketscienceinc/tictactoe-client/internal/protocol"
	"github.com/rocketscienceinc/tictactoe-client/internal/transport/nakama"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	localID    = "me"
	opponentID = "them"
	matchID    = "match-1"

	waitFor = time.Second
	pollFor = 5 * time.Millisecond
)

type fakeConn struct {
	mock.Mock

	mu         sync.Mutex
	matched    map[int]func(nakama.MatchmakerMatched)
	data       map[int]func(nakama.MatchData)
	presence   map[int]func(nakama.PresenceEvent)
	disconnect map[int]func(error)
	next       int

	left chan string
}

func newFakeConn() *fakeConn {
	conn := &fakeConn{
		matched:    make(map[int]func(nakama.MatchmakerMatched)),
		data:       make(map[int]func(nakama.MatchData)),
		presence:   make(map[int]func(nakama.PresenceEvent)),
		disconnect: make(map[int]func(error)),
		left:       make(chan string, 4),
	}

	conn.On("LeaveMatch", mock.Anything, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		select {
		case conn.left <- args.String(1):
		default:
		}
	}).Maybe()

	return conn
}

func (that *fakeConn) UserID() string {
	return localID
}

func (that *fakeConn) Connect(ctx context.Context) error {
	return that.Called(ctx).Error(0)
}

func (that *fakeConn) AddMatchmaker(ctx context.Context, query string, minCount, maxCount int, properties map[string]string) (string, error) {
	args := that.Called(ctx, query, minCount, maxCount, properties)
	return args.String(0), args.Error(1)
}

func (that *fakeConn) JoinMatch(ctx context.Context, id string) (*nakama.Match, error) {
	args := that.Called(ctx, id)
	match, _ := args.Get(0).(*nakama.Match)
	return match, args.Error(1)
}

func (that *fakeConn) JoinMatchToken(ctx context.Context, token string) (*nakama.Match, error) {
	args := that.Called(ctx, token)
	match, _ := args.Get(0).(*nakama.Match)
	return match, args.Error(1)
}

func (that *fakeConn) SendMatchState(ctx context.Context, id string, opCode int64, data []byte) error {
	return that.Called(ctx, id, opCode, data).Error(0)
}

func (that *fakeConn) LeaveMatch(ctx context.Context, id string) error {
	return that.Called(ctx, id).Error(0)
}

func subscribe[T any](conn *fakeConn, set map[int]func(T), fn func(T)) func() {
	conn.mu.Lock()
	defer conn.mu.Unlock()

	id := conn.next
	conn.next++
	set[id] = fn

	return func() {
		conn.mu.Lock()
		defer conn.mu.Unlock()
		delete(set, id)
	}
}

func emit[T any](conn *fakeConn, set map[int]func(T), value T) {
	conn.mu.Lock()
	fns := make([]func(T), 0, len(set))
	for _, fn := range set {
		fns = append(fns, fn)
	}
	conn.mu.Unlock()

	for _, fn := range fns {
		fn(value)
	}
}

func (that *fakeConn) OnMatchmakerMatched(fn func(nakama.MatchmakerMatched)) func() {
	return subscribe(that, that.matched, fn)
}

func (that *fakeConn) OnMatchData(fn func(nakama.MatchData)) func() {
	return subscribe(that, that.data, fn)
}

func (that *fakeConn) OnMatchPresence(fn func(nakama.PresenceEvent)) func() {
	return subscribe(that, that.presence, fn)
}

func (that *fakeConn) OnDisconnect(fn func(error)) func() {
	return subscribe(that, that.disconnect, fn)
}

func (that *fakeConn) subscriptions() int {
	that.mu.Lock()
	defer that.mu.Unlock()

	return len(that.matched) + len(that.data) + len(that.presence) + len(that.disconnect)
}

func (that *fakeConn) emitMatched(matched nakama.MatchmakerMatched) {
	emit(that, that.matched, matched)
}

func (that *fakeConn) emitData(code protocol.OpCode, payload string) {
	emit(that, that.data, nakama.MatchData{MatchID: matchID, OpCode: int64(code), Data: []byte(payload)})
}

func (that *fakeConn) emitPresence(presence nakama.PresenceEvent) {
	emit(that, that.presence, presence)
}

func (that *fakeConn) emitDisconnect(err error) {
	emit(that, that.disconnect, err)
}

// fakeScheduler only runs a callback when the test fires it.
type fakeScheduler struct {
	mu    sync.Mutex
	now   time.Time
	tasks []*fakeTask
}

type fakeTask struct {
	delay   time.Duration
	fn      func()
	stopped bool
	fired   bool
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (that *fakeScheduler) AfterFunc(d time.Duration, fn func()) func() bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	task := &fakeTask{delay: d, fn: fn}
	that.tasks = append(that.tasks, task)

	return func() bool {
		that.mu.Lock()
		defer that.mu.Unlock()

		if task.stopped || task.fired {
			return false
		}
		task.stopped = true

		return true
	}
}

func (that *fakeScheduler) Now() time.Time {
	return that.now
}

// pending counts callbacks with the given delay that can still fire.
func (that *fakeScheduler) pending(d time.Duration) int {
	that.mu.Lock()
	defer that.mu.Unlock()

	count := 0
	for _, task := range that.tasks {
		if task.delay == d && !task.stopped && !task.fired {
			count++
		}
	}

	return count
}

// fire runs the oldest pending callback with the given delay.
func (that *fakeScheduler) fire(d time.Duration) bool {
	that.mu.Lock()

	var found *fakeTask
	for _, task := range that.tasks {
		if task.delay == d && !task.stopped && !task.fired {
			found = task
			break
		}
	}

	if found == nil {
		that.mu.Unlock()
		return false
	}

	found.fired = true
	that.mu.Unlock()

	found.fn()

	return true
}

// fireStopped runs a callback that was already cancelled, like a timer racing its Stop.
func (that *fakeScheduler) fireStopped(d time.Duration) bool {
	that.mu.Lock()

	var found *fakeTask
	for _, task := range that.tasks {
		if task.delay == d && task.stopped && !task.fired {
			found = task
			break
		}
	}

	if found == nil {
		that.mu.Unlock()
		return false
	}

	found.fired = true
	that.mu.Unlock()

	found.fn()

	return true
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type harness struct {
	t         *testing.T
	conn      *fakeConn
	scheduler *fakeScheduler
	session   *Session
}

func newHarness(t *testing.T, mode entity.Mode) *harness {
	t.Helper()

	conn := newFakeConn()
	scheduler := newFakeScheduler()

	session := NewSession(context.Background(), discardLogger(), conn, Options{
		Mode:      mode,
		Scheduler: scheduler,
	})
	t.Cleanup(session.Close)

	return &harness{t: t, conn: conn, scheduler: scheduler, session: session}
}

func (that *harness) snapshot() entity.Snapshot {
	that.t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()

	snapshot, err := that.session.Snapshot(ctx)
	require.NoError(that.t, err)

	return snapshot
}

func (that *harness) waitStatus(status entity.Status) {
	that.t.Helper()

	require.Eventually(that.t, func() bool {
		ctx, cancel := context.WithTimeout(context.Background(), waitFor)
		defer cancel()

		snapshot, err := that.session.Snapshot(ctx)
		return err == nil && snapshot.Status == status
	}, waitFor, pollFor, "status never became %s", status)
}

// search starts the session with a working connection and matchmaker.
func (that *harness) search() {
	that.t.Helper()

	that.conn.On("Connect", mock.Anything).Return(nil)
	that.conn.On("AddMatchmaker", mock.Anything, "*", 2, 2, mock.Anything).Return("ticket-1", nil)

	require.NoError(that.t, that.session.Start())
	that.waitStatus(entity.StatusSearching)
}

// join takes the session from searching to waiting for the opponent.
func (that *harness) join() {
	that.t.Helper()

	that.search()

	that.conn.On("JoinMatch", mock.Anything, matchID).Return(&nakama.Match{MatchID: matchID}, nil)
	that.conn.emitMatched(nakama.MatchmakerMatched{Ticket: "ticket-1", MatchID: matchID})
	that.waitStatus(entity.StatusWaitingForOpponent)
}

// play starts the game with the given turn holder and the local player as X.
func (that *harness) play(turnHolder string) {
	that.t.Helper()

	that.join()
	that.conn.emitData(protocol.OpGameState, gameState("game_start", turnHolder, "X", emptyBoard, "X"))
	that.waitStatus(entity.StatusPlaying)
}

const emptyBoard = `[null,null,null,null,null,null,null,null,null]`

func gameState(kind, turnHolder, turnSymbol, board, yourSymbol string) string {
	players := fmt.Sprintf(`{%q:{"username":"alice","symbol":"X"},%q:{"username":"bob","symbol":"O"}}`, localID, opponentID)

	if yourSymbol == "" {
		return fmt.Sprintf(`{"type":%q,"board":%s,"currentTurn":%q,"currentSymbol":%q,"players":%s}`,
			kind, board, turnHolder, turnSymbol, players)
	}

	return fmt.Sprintf(`{"type":%q,"board":%s,"currentTurn":%q,"currentSymbol":%q,"players":%s,"yourSymbol":%q}`,
		kind, board, turnHolder, turnSymbol, players, yourSymbol)
}
