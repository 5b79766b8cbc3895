package nakama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/heroiclabs/nakama-common/api"
	"github.com/rocketscienceinc/tictactoe-client/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-client/internal/config"
)

const (
	minUsernameLength = 3
	maxUsernameLength = 128

	devicePrefix = "device_"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// Client talks to the server REST API: device authentication and RPCs.
type Client struct {
	logger     *slog.Logger
	httpClient *http.Client
	baseURL    string
	serverKey  string
}

func NewClient(logger *slog.Logger, conf config.Nakama) *Client {
	return &Client{
		logger:     logger.With("component", "nakama_client"),
		httpClient: &http.Client{Timeout: conf.Timeout},
		baseURL:    conf.HTTPURL(),
		serverKey:  conf.ServerKey,
	}
}

// ValidateUsername - checks the username before it is sent to the server and returns it trimmed.
func ValidateUsername(username string) (string, error) {
	trimmed := strings.TrimSpace(username)

	switch {
	case trimmed == "":
		return "", fmt.Errorf("%w: username cannot be empty", apperror.ErrInvalidUsername)
	case len(trimmed) < minUsernameLength:
		return "", fmt.Errorf("%w: username must be at least %d characters", apperror.ErrInvalidUsername, minUsernameLength)
	case len(trimmed) > maxUsernameLength:
		return "", fmt.Errorf("%w: username must be less than %d characters", apperror.ErrInvalidUsername, maxUsernameLength)
	case !usernamePattern.MatchString(trimmed):
		return "", fmt.Errorf("%w: username can only contain letters, numbers, and underscores", apperror.ErrInvalidUsername)
	}

	return trimmed, nil
}

// Authenticate - device authentication, the account is created on first use.
func (that *Client) Authenticate(ctx context.Context, username string) (*Session, error) {
	log := that.logger.With("method", "Authenticate")

	cleanUsername, err := ValidateUsername(username)
	if err != nil {
		return nil, err
	}

	body, err := encodeMessage(&api.AccountDevice{Id: devicePrefix + cleanUsername})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal device account: %w", err)
	}

	query := url.Values{}
	query.Set("create", "true")
	query.Set("username", cleanUsername)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, that.baseURL+"/v2/account/authenticate/device?"+query.Encode(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.SetBasicAuth(that.serverKey, "")
	req.Header.Set("Content-Type", "application/json")

	respBody, err := that.do(req)
	if err != nil {
		return nil, authError(err)
	}

	var apiSession api.Session
	if err = decodeMessage(respBody, &apiSession); err != nil {
		return nil, fmt.Errorf("%w: failed to decode session: %w", apperror.ErrAuthentication, err)
	}

	session, err := ParseSession(apiSession.GetToken(), apiSession.GetRefreshToken(), apiSession.GetCreated())
	if err != nil {
		return nil, err
	}

	log.Info("authenticated", "user_id", session.UserID, "created", session.Created)

	return session, nil
}

// RPC - calls a server function. The payload is marshaled to JSON and sent as a JSON string,
// the returned payload is the raw string the function produced.
func (that *Client) RPC(ctx context.Context, session *Session, id string, payload any) (string, error) {
	if session == nil {
		return "", fmt.Errorf("%w: rpc %s", apperror.ErrAuthentication, id)
	}

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal rpc payload: %w", err)
	}

	body, err := json.Marshal(string(payloadJSON))
	if err != nil {
		return "", fmt.Errorf("failed to marshal rpc body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, that.baseURL+"/v2/rpc/"+url.PathEscape(id), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+session.Token)
	req.Header.Set("Content-Type", "application/json")

	respBody, err := that.do(req)
	if err != nil {
		return "", fmt.Errorf("rpc %s: %w", id, err)
	}

	var rpc api.Rpc
	if err = decodeMessage(respBody, &rpc); err != nil {
		return "", fmt.Errorf("failed to decode rpc %s response: %w", id, err)
	}

	return rpc.GetPayload(), nil
}

// StatusError is a non-2xx answer from the REST API.
type StatusError struct {
	Code   int
	Status string
	Body   string
}

func (that *StatusError) Error() string {
	if that.Body == "" {
		return "unexpected status " + that.Status
	}

	return fmt.Sprintf("unexpected status %s: %s", that.Status, that.Body)
}

func authError(err error) error {
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		return err
	}

	switch statusErr.Code {
	case http.StatusBadRequest:
		return fmt.Errorf("%w: use 3+ alphanumeric characters", apperror.ErrInvalidUsername)
	case http.StatusNotFound:
		return fmt.Errorf("%w: check if the server is running", apperror.ErrServerUnreachable)
	default:
		return fmt.Errorf("%w: %w", apperror.ErrAuthentication, err)
	}
}

func (that *Client) do(req *http.Request) ([]byte, error) {
	resp, err := that.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperror.ErrServerUnreachable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &StatusError{Code: resp.StatusCode, Status: resp.Status, Body: strings.TrimSpace(string(body))}
	}

	return body, nil
}
