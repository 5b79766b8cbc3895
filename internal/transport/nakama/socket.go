package nakama

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/heroiclabs/nakama-common/rtapi"
	"github.com/rocketscienceinc/tictactoe-client/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-client/internal/config"
)

const defaultWriteTimeout = 10 * time.Second

var errUnexpectedReply = errors.New("unexpected reply")

// SocketError is an error envelope the server sent in reply to a request.
type SocketError struct {
	Code    int32
	Message string
}

func (that *SocketError) Error() string {
	return fmt.Sprintf("server error %d: %s", that.Code, that.Message)
}

// Socket is the realtime connection of one authenticated session.
// Requests are correlated with replies by cid; everything else is pushed to subscribers
// from the read goroutine in the order the server sent it.
type Socket struct {
	logger       *slog.Logger
	url          string
	session      *Session
	dialer       *websocket.Dialer
	writeTimeout time.Duration

	mu      sync.Mutex
	conn    *websocket.Conn
	pending map[string]chan *rtapi.Envelope

	writeMu sync.Mutex

	matched    handlers[MatchmakerMatched]
	data       handlers[MatchData]
	presence   handlers[PresenceEvent]
	disconnect handlers[error]
}

func NewSocket(logger *slog.Logger, conf config.Nakama, session *Session) *Socket {
	return newSocket(logger, conf.SocketURL(session.Token), session, conf.Timeout)
}

func newSocket(logger *slog.Logger, url string, session *Session, timeout time.Duration) *Socket {
	if timeout <= 0 {
		timeout = defaultWriteTimeout
	}

	return &Socket{
		logger:  logger.With("component", "nakama_socket"),
		url:     url,
		session: session,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: timeout,
		},
		writeTimeout: timeout,
		pending:      make(map[string]chan *rtapi.Envelope),
	}
}

func (that *Socket) UserID() string {
	return that.session.UserID
}

func (that *Socket) IsConnected() bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.conn != nil
}

// Connect dials the realtime endpoint. It is a no-op when already connected.
func (that *Socket) Connect(ctx context.Context) error {
	log := that.logger.With("method", "Connect")

	that.mu.Lock()
	defer that.mu.Unlock()

	if that.conn != nil {
		return nil
	}

	// the server refuses the upgrade for an expired token without saying why
	if that.session.IsExpired(time.Now()) {
		return fmt.Errorf("%w: session expired at %s", apperror.ErrAuthentication, that.session.ExpiresAt.Format(time.RFC3339))
	}

	conn, resp, err := that.dialer.DialContext(ctx, that.url, nil)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("%w: dial failed with status %s: %w", apperror.ErrConnection, resp.Status, err)
		}
		return fmt.Errorf("%w: dial failed: %w", apperror.ErrConnection, err)
	}

	that.conn = conn
	go that.readLoop(conn)

	log.Info("socket connected", "user_id", that.session.UserID)

	return nil
}

// Close sends a normal closure and drops the connection.
func (that *Socket) Close() error {
	that.mu.Lock()
	conn := that.conn
	that.conn = nil
	that.mu.Unlock()

	if conn == nil {
		return nil
	}

	that.writeMu.Lock()
	_ = conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	that.writeMu.Unlock()

	if err := conn.Close(); err != nil {
		return fmt.Errorf("failed to close socket: %w", err)
	}

	return nil
}

// AddMatchmaker joins the matchmaker pool and returns the ticket.
func (that *Socket) AddMatchmaker(ctx context.Context, query string, minCount, maxCount int, properties map[string]string) (string, error) {
	reply, err := that.request(ctx, &rtapi.Envelope{
		Message: &rtapi.Envelope_MatchmakerAdd{MatchmakerAdd: &rtapi.MatchmakerAdd{
			Query:            query,
			MinCount:         int32(minCount),
			MaxCount:         int32(maxCount),
			StringProperties: properties,
		}},
	})
	if err != nil {
		return "", fmt.Errorf("failed to add matchmaker: %w", err)
	}

	ticket := reply.GetMatchmakerTicket().GetTicket()
	if ticket == "" {
		return "", fmt.Errorf("%w: no matchmaker ticket", errUnexpectedReply)
	}

	return ticket, nil
}

func (that *Socket) JoinMatch(ctx context.Context, matchID string) (*Match, error) {
	match, err := that.joinMatch(ctx, &rtapi.MatchJoin{Id: &rtapi.MatchJoin_MatchId{MatchId: matchID}})
	if err != nil {
		return nil, fmt.Errorf("failed to join match %s: %w", matchID, err)
	}

	return match, nil
}

// JoinMatchToken joins the match the matchmaker relayed as a token instead of a match id.
func (that *Socket) JoinMatchToken(ctx context.Context, token string) (*Match, error) {
	match, err := that.joinMatch(ctx, &rtapi.MatchJoin{Id: &rtapi.MatchJoin_Token{Token: token}})
	if err != nil {
		return nil, fmt.Errorf("failed to join match by token: %w", err)
	}

	return match, nil
}

func (that *Socket) joinMatch(ctx context.Context, join *rtapi.MatchJoin) (*Match, error) {
	reply, err := that.request(ctx, &rtapi.Envelope{
		Message: &rtapi.Envelope_MatchJoin{MatchJoin: join},
	})
	if err != nil {
		return nil, err
	}

	match := reply.GetMatch()
	if match == nil {
		return nil, fmt.Errorf("%w: no match in join reply", errUnexpectedReply)
	}

	return toMatch(match), nil
}

// SendMatchState writes match data. The server does not acknowledge it, a nil error
// only means the frame was written.
func (that *Socket) SendMatchState(ctx context.Context, matchID string, opCode int64, data []byte) error {
	return that.write(ctx, &rtapi.Envelope{
		Message: &rtapi.Envelope_MatchDataSend{MatchDataSend: &rtapi.MatchDataSend{
			MatchId:  matchID,
			OpCode:   opCode,
			Data:     data,
			Reliable: true,
		}},
	})
}

func (that *Socket) LeaveMatch(ctx context.Context, matchID string) error {
	if _, err := that.request(ctx, &rtapi.Envelope{
		Message: &rtapi.Envelope_MatchLeave{MatchLeave: &rtapi.MatchLeave{MatchId: matchID}},
	}); err != nil {
		return fmt.Errorf("failed to leave match %s: %w", matchID, err)
	}

	return nil
}

func (that *Socket) OnMatchmakerMatched(fn func(MatchmakerMatched)) func() {
	return that.matched.add(fn)
}

func (that *Socket) OnMatchData(fn func(MatchData)) func() {
	return that.data.add(fn)
}

func (that *Socket) OnMatchPresence(fn func(PresenceEvent)) func() {
	return that.presence.add(fn)
}

// OnDisconnect is called once per connection with the read error that ended it.
func (that *Socket) OnDisconnect(fn func(error)) func() {
	return that.disconnect.add(fn)
}

func (that *Socket) request(ctx context.Context, envelope *rtapi.Envelope) (*rtapi.Envelope, error) {
	cid := uuid.NewString()
	envelope.Cid = cid

	reply := make(chan *rtapi.Envelope, 1)

	that.mu.Lock()
	if that.conn == nil {
		that.mu.Unlock()
		return nil, apperror.ErrNotConnected
	}
	that.pending[cid] = reply
	that.mu.Unlock()

	defer func() {
		that.mu.Lock()
		delete(that.pending, cid)
		that.mu.Unlock()
	}()

	if err := that.write(ctx, envelope); err != nil {
		return nil, err
	}

	select {
	case resp, ok := <-reply:
		if !ok {
			return nil, fmt.Errorf("%w: socket closed while waiting for reply", apperror.ErrConnection)
		}

		if serverErr := resp.GetError(); serverErr != nil {
			return nil, &SocketError{Code: serverErr.GetCode(), Message: serverErr.GetMessage()}
		}

		return resp, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (that *Socket) write(ctx context.Context, envelope *rtapi.Envelope) error {
	data, err := encodeEnvelope(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal envelope: %w", err)
	}

	that.mu.Lock()
	conn := that.conn
	that.mu.Unlock()

	if conn == nil {
		return apperror.ErrNotConnected
	}

	deadline := time.Now().Add(that.writeTimeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}

	that.writeMu.Lock()
	defer that.writeMu.Unlock()

	if err = conn.SetWriteDeadline(deadline); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}

	if err = conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("failed to write envelope: %w", err)
	}

	return nil
}

func (that *Socket) readLoop(conn *websocket.Conn) {
	log := that.logger.With("method", "readLoop")

	var readErr error

	defer func() {
		that.mu.Lock()
		if that.conn == conn {
			that.conn = nil
		}
		for cid, ch := range that.pending {
			close(ch)
			delete(that.pending, cid)
		}
		that.mu.Unlock()

		log.Info("socket disconnected", "error", readErr)
		that.disconnect.emit(readErr)
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			readErr = err
			return
		}

		envelope, err := decodeEnvelope(data)
		if err != nil {
			log.Warn("failed to decode envelope", "error", err)
			continue
		}

		that.dispatch(envelope)
	}
}

func (that *Socket) dispatch(envelope *rtapi.Envelope) {
	log := that.logger.With("method", "dispatch")

	if cid := envelope.GetCid(); cid != "" {
		that.mu.Lock()
		reply, ok := that.pending[cid]
		delete(that.pending, cid)
		that.mu.Unlock()

		if !ok {
			log.Debug("reply for unknown request", "cid", cid)
			return
		}

		reply <- envelope
		return
	}

	switch message := envelope.GetMessage().(type) {
	case *rtapi.Envelope_MatchmakerMatched:
		that.matched.emit(toMatchmakerMatched(message.MatchmakerMatched))
	case *rtapi.Envelope_MatchData:
		that.data.emit(toMatchData(message.MatchData))
	case *rtapi.Envelope_MatchPresenceEvent:
		that.presence.emit(toPresenceEvent(message.MatchPresenceEvent))
	case *rtapi.Envelope_Error:
		log.Error("server error", "code", message.Error.GetCode(), "message", message.Error.GetMessage())
	default:
		log.Debug("unhandled envelope", "type", fmt.Sprintf("%T", message))
	}
}
