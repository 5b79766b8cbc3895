package console

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rocketscienceinc/tictactoe-client/internal/entity"
)

// Render draws the board with free cells numbered 1-9 and a status block under it.
func Render(snapshot entity.Snapshot) string {
	var b strings.Builder

	for row := range 3 {
		if row > 0 {
			b.WriteString("---+---+---\n")
		}

		cells := make([]string, 3)
		for col := range 3 {
			cell := row*3 + col
			if symbol := snapshot.Board[cell]; symbol != entity.EmptyCell {
				cells[col] = string(symbol)
			} else {
				cells[col] = strconv.Itoa(cell + 1)
			}
		}

		b.WriteString(" " + strings.Join(cells, " | ") + "\n")
	}

	b.WriteString("\n")
	b.WriteString(statusLine(snapshot) + "\n")

	if snapshot.Status == entity.StatusPlaying && snapshot.Mode == entity.ModeTimed {
		fmt.Fprintf(&b, "Time left: %ds\n", snapshot.TimeRemaining)
	}

	if snapshot.LastError != "" {
		fmt.Fprintf(&b, "Error: %s\n", snapshot.LastError)
	}

	if snapshot.Status.IsWaiting() {
		b.WriteString("Press q to cancel\n")
	}

	return b.String()
}

func statusLine(snapshot entity.Snapshot) string {
	switch snapshot.Status {
	case entity.StatusIdle:
		return "Ready"
	case entity.StatusConnecting:
		return "Connecting..."
	case entity.StatusSearching:
		return "Searching for an opponent..."
	case entity.StatusWaitingForOpponent:
		return "Waiting for the opponent..."
	case entity.StatusPlaying:
		if snapshot.IsMyTurn {
			return fmt.Sprintf("Your turn (%s) vs %s", snapshot.LocalSymbol, snapshot.OpponentName())
		}

		return fmt.Sprintf("%s's turn", snapshot.OpponentName())
	case entity.StatusOpponentLeft:
		return fmt.Sprintf("%s left the match", snapshot.OpponentName())
	case entity.StatusGameOver:
		return outcomeLine(snapshot)
	case entity.StatusError:
		return "Something went wrong"
	default:
		return string(snapshot.Status)
	}
}

func outcomeLine(snapshot entity.Snapshot) string {
	outcome := snapshot.Outcome
	if outcome == nil {
		return "Game over"
	}

	var line string
	switch {
	case outcome.IsDraw():
		line = "Draw"
	case snapshot.LocalSymbol != entity.EmptyCell && outcome.Winner == string(snapshot.LocalSymbol):
		line = "You won"
	default:
		line = "You lost"
	}

	switch outcome.Reason {
	case entity.ReasonForfeit:
		line += " by forfeit"
	case entity.ReasonTimeout:
		line += " on time"
	}

	return line
}
