package match

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rocketscienceinc/tictactoe-client/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-client/internal/entity"
	"github.com/rocketscienceinc/tictactoe-client/internal/transport/nakama"
)

const (
	inboxSize     = 64
	snapshotsSize = 16

	defaultTurnSeconds  = 30
	defaultGraceDelay   = 2 * time.Second
	defaultLeaveTimeout = 5 * time.Second
)

// Connection is the part of the realtime socket a session needs.
type Connection interface {
	UserID() string
	Connect(ctx context.Context) error
	AddMatchmaker(ctx context.Context, query string, minCount, maxCount int, properties map[string]string) (string, error)
	JoinMatch(ctx context.Context, matchID string) (*nakama.Match, error)
	JoinMatchToken(ctx context.Context, token string) (*nakama.Match, error)
	SendMatchState(ctx context.Context, matchID string, opCode int64, data []byte) error
	LeaveMatch(ctx context.Context, matchID string) error
	OnMatchmakerMatched(fn func(nakama.MatchmakerMatched)) func()
	OnMatchData(fn func(nakama.MatchData)) func()
	OnMatchPresence(fn func(nakama.PresenceEvent)) func()
	OnDisconnect(fn func(error)) func()
}

type Options struct {
	Mode         entity.Mode
	TurnSeconds  int
	GraceDelay   time.Duration
	LeaveTimeout time.Duration
	Scheduler    Scheduler
}

func (that Options) withDefaults() Options {
	if that.Mode == "" {
		that.Mode = entity.ModeClassic
	}
	if that.TurnSeconds <= 0 {
		that.TurnSeconds = defaultTurnSeconds
	}
	if that.GraceDelay <= 0 {
		that.GraceDelay = defaultGraceDelay
	}
	if that.LeaveTimeout <= 0 {
		that.LeaveTimeout = defaultLeaveTimeout
	}
	if that.Scheduler == nil {
		that.Scheduler = NewScheduler()
	}

	return that
}

// Session drives one match attempt from matchmaking to the final result.
// All state below the loop marker is owned by the loop goroutine.
type Session struct {
	logger *slog.Logger
	conn   Connection
	opts   Options

	ctx    context.Context
	cancel context.CancelFunc

	inbox     chan event
	done      chan struct{}
	closeOnce sync.Once

	snapshots chan entity.Snapshot
	results   chan entity.Result

	// loop
	status        entity.Status
	matchID       string
	ticket        string
	board         entity.Board
	localID       string
	localSymbol   entity.Symbol
	turnHolderID  string
	turnSymbol    entity.Symbol
	participants  map[string]entity.Participant
	outcome       *entity.Outcome
	timeRemaining int
	lastError     string

	// version counts authoritative state changes; a failed move only rolls back
	// when nothing authoritative arrived after it was applied.
	version     int
	movePending bool

	earlyMatch *nakama.MatchmakerMatched
	disposers  []func()

	timerGen  int
	timerStop func() bool
	graceGen  int
	graceStop func() bool
}

// NewSession starts the session loop. The session stays Idle until Start.
// Cancelling ctx has the same effect as Close.
func NewSession(ctx context.Context, logger *slog.Logger, conn Connection, opts Options) *Session {
	ctx, cancel := context.WithCancel(ctx)

	session := &Session{
		logger:       logger.With("component", "match_session"),
		conn:         conn,
		opts:         opts.withDefaults(),
		ctx:          ctx,
		cancel:       cancel,
		inbox:        make(chan event, inboxSize),
		done:         make(chan struct{}),
		snapshots:    make(chan entity.Snapshot, snapshotsSize),
		results:      make(chan entity.Result, 1),
		status:       entity.StatusIdle,
		localID:      conn.UserID(),
		participants: make(map[string]entity.Participant),
	}

	go session.loop()

	return session
}

// Start begins matchmaking. Calling it on a session that already started is a no-op.
func (that *Session) Start() error {
	if !that.post(startRequested{}) {
		return apperror.ErrSessionClosed
	}

	return nil
}

// Move requests a local move. Requests that are not allowed right now are dropped silently.
func (that *Session) Move(cell int) {
	that.post(moveRequested{cell: cell})
}

func (that *Session) ClearError() {
	that.post(clearError{})
}

// Snapshot returns the current state once every event queued before the call is processed.
func (that *Session) Snapshot(ctx context.Context) (entity.Snapshot, error) {
	reply := make(chan entity.Snapshot, 1)
	if !that.post(getSnapshot{reply: reply}) {
		return entity.Snapshot{}, apperror.ErrSessionClosed
	}

	select {
	case snapshot := <-reply:
		return snapshot, nil
	case <-that.done:
		return entity.Snapshot{}, apperror.ErrSessionClosed
	case <-ctx.Done():
		return entity.Snapshot{}, fmt.Errorf("failed to get snapshot: %w", ctx.Err())
	}
}

// Snapshots delivers a copy after every state change. A slow reader loses the oldest copies.
// The channel is closed by Close.
func (that *Session) Snapshots() <-chan entity.Snapshot {
	return that.snapshots
}

// Results delivers the final result once, after the grace delay that follows GAME_OVER.
func (that *Session) Results() <-chan entity.Result {
	return that.results
}

// Close tears the session down and waits for the loop to exit. It is safe to call more than once.
func (that *Session) Close() {
	that.closeOnce.Do(func() {
		that.cancel()
	})

	<-that.done
}

// Done is closed once the session loop has exited.
func (that *Session) Done() <-chan struct{} {
	return that.done
}

func (that *Session) post(ev event) bool {
	select {
	case <-that.done:
		return false
	default:
	}

	select {
	case that.inbox <- ev:
		return true
	case <-that.done:
		return false
	}
}

func (that *Session) loop() {
	defer close(that.done)

	for {
		select {
		case <-that.ctx.Done():
			that.teardown()
			return
		case ev := <-that.inbox:
			that.handle(ev)
		}
	}
}

func (that *Session) handle(ev event) {
	switch ev := ev.(type) {
	case startRequested:
		that.handleStart()
	case connectResult:
		that.handleConnectResult(ev)
	case matchedEvent:
		that.handleMatched(ev.matched)
	case joinResult:
		that.handleJoinResult(ev)
	case dataEvent:
		that.handleData(ev.data)
	case presenceEvent:
		that.handlePresence(ev.presence)
	case disconnectEvent:
		that.handleDisconnect(ev.err)
	case moveRequested:
		that.handleMove(ev.cell)
	case moveSent:
		that.handleMoveSent(ev)
	case timerTick:
		that.handleTick(ev.gen)
	case graceElapsed:
		that.handleGrace(ev.gen)
	case clearError:
		if that.lastError != "" {
			that.lastError = ""
			that.publish()
		}
	case getSnapshot:
		ev.reply <- that.snapshot()
	}
}

func (that *Session) teardown() {
	log := that.logger.With("method", "teardown")

	that.disarmTimer()
	that.cancelGrace()

	for _, dispose := range that.disposers {
		dispose()
	}
	that.disposers = nil

	that.drainJoins()

	if that.matchID != "" {
		go that.leave(that.matchID)
	}

	close(that.snapshots)
	close(that.results)

	log.Info("session closed", "match_id", that.matchID, "status", that.status)
}

// drainJoins picks up a join that completed after the loop stopped reading, so teardown
// knows which match to leave.
func (that *Session) drainJoins() {
	for {
		select {
		case ev := <-that.inbox:
			result, ok := ev.(joinResult)
			if ok && result.err == nil && result.match != nil && that.matchID == "" {
				that.matchID = result.match.MatchID
			}
		default:
			return
		}
	}
}

// leave runs outside the loop with its own timeout, the session context is already gone.
func (that *Session) leave(matchID string) {
	ctx, cancel := context.WithTimeout(context.Background(), that.opts.LeaveTimeout)
	defer cancel()

	if err := that.conn.LeaveMatch(ctx, matchID); err != nil {
		that.logger.Warn("failed to leave match", "match_id", matchID, "error", err)
	}
}

// publish hands a copy to Snapshots, dropping the oldest copy when the reader is behind.
func (that *Session) publish() {
	snapshot := that.snapshot()

	for {
		select {
		case that.snapshots <- snapshot:
			return
		default:
		}

		select {
		case <-that.snapshots:
		default:
		}
	}
}

func (that *Session) snapshot() entity.Snapshot {
	participants := make(map[string]entity.Participant, len(that.participants))
	for id, participant := range that.participants {
		participants[id] = participant
	}

	var outcome *entity.Outcome
	if that.outcome != nil {
		copied := *that.outcome
		copied.WinningLine = append([]int(nil), that.outcome.WinningLine...)
		outcome = &copied
	}

	return entity.Snapshot{
		MatchID:       that.matchID,
		Ticket:        that.ticket,
		Mode:          that.opts.Mode,
		Status:        that.status,
		Board:         that.board,
		LocalID:       that.localID,
		LocalSymbol:   that.localSymbol,
		TurnHolderID:  that.turnHolderID,
		TurnSymbol:    that.turnSymbol,
		IsMyTurn:      that.isMyTurn(),
		Participants:  participants,
		Outcome:       outcome,
		TimeRemaining: that.timeRemaining,
		LastError:     that.lastError,
	}
}

func (that *Session) isMyTurn() bool {
	return that.localID != "" && that.turnHolderID == that.localID
}

func (that *Session) setStatus(status entity.Status) {
	if that.status == status {
		return
	}

	that.logger.Info("status changed", "from", that.status, "to", status, "match_id", that.matchID)
	that.status = status

	if status != entity.StatusPlaying {
		that.disarmTimer()
	}
}
