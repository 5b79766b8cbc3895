package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/rocketscienceinc/tictactoe-client/internal/entity"
)

var (
	ErrQuit        = errors.New("quit")
	ErrInvalidCell = errors.New("enter a cell number from 1 to 9")
)

type player interface {
	Move(cell int)
	ClearError()
}

type moveAdvisor interface {
	ChooseMove(board entity.Board, symbol entity.Symbol) (int, error)
}

// Console is the terminal front end of a match session.
type Console struct {
	logger  *slog.Logger
	out     io.Writer
	advisor moveAdvisor

	mu   sync.Mutex
	last entity.Snapshot
}

func New(logger *slog.Logger, out io.Writer, advisor moveAdvisor) *Console {
	return &Console{
		logger:  logger.With("component", "console"),
		out:     out,
		advisor: advisor,
	}
}

// ParseCell maps the 1-9 numbering shown on the board to a cell index.
func ParseCell(line string) (int, error) {
	number, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil || number < 1 || number > entity.BoardSize {
		return 0, ErrInvalidCell
	}

	return number - 1, nil
}

// Watch renders every snapshot until the channel is closed or ctx is done. The first
// snapshot that ends the match without an outcome (error, opponent left) also goes to ended.
func (that *Console) Watch(ctx context.Context, snapshots <-chan entity.Snapshot, ended chan<- entity.Snapshot) {
	reported := false

	for {
		select {
		case <-ctx.Done():
			return
		case snapshot, ok := <-snapshots:
			if !ok {
				return
			}

			that.mu.Lock()
			that.last = snapshot
			that.mu.Unlock()

			that.Print(Render(snapshot))

			if !reported && snapshot.Status.IsTerminal() && snapshot.Outcome == nil {
				reported = true
				select {
				case ended <- snapshot:
				default:
				}
			}
		}
	}
}

// ReadMoves forwards typed cells to the session. "a" lets the advisor pick the cell,
// "c" clears the error, "q" quits.
// It returns ErrQuit on "q" and nil when the input ends.
func (that *Console) ReadMoves(ctx context.Context, in io.Reader, session player) error {
	scanner := bufio.NewScanner(in)

	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}

		line := strings.ToLower(strings.TrimSpace(scanner.Text()))

		switch line {
		case "":
			continue
		case "q", "quit":
			return ErrQuit
		case "c", "clear":
			session.ClearError()
			continue
		case "a", "auto":
			that.autoMove(session)
			continue
		}

		cell, err := ParseCell(line)
		if err != nil {
			that.Print(err.Error() + "\n")
			continue
		}

		session.Move(cell)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	return nil
}

func (that *Console) autoMove(session player) {
	if that.advisor == nil {
		return
	}

	that.mu.Lock()
	snapshot := that.last
	that.mu.Unlock()

	if !snapshot.IsMyTurn {
		that.Print("not your turn\n")
		return
	}

	cell, err := that.advisor.ChooseMove(snapshot.Board, snapshot.LocalSymbol)
	if err != nil {
		that.logger.Warn("failed to choose move", "error", err)
		return
	}

	session.Move(cell)
}

func (that *Console) Print(text string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, err := io.WriteString(that.out, text); err != nil {
		that.logger.Error("failed to write to console", "error", err)
	}
}
