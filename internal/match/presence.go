package match

import (
	"github.com/rocketscienceinc/tictactoe-client/internal/entity"
	"github.com/rocketscienceinc/tictactoe-client/internal/transport/nakama"
)

// handlePresence ends the match on any leave. Which participant left is not checked.
func (that *Session) handlePresence(presence nakama.PresenceEvent) {
	log := that.logger.With("method", "handlePresence")

	for _, join := range presence.Joins {
		log.Debug("presence joined", "user_id", join.UserID, "username", join.Username)
	}

	if len(presence.Leaves) == 0 {
		return
	}

	if that.matchID != "" && presence.MatchID != "" && presence.MatchID != that.matchID {
		log.Debug("ignoring leave from another match", "match_id", presence.MatchID)
		return
	}

	switch that.status {
	case entity.StatusSearching, entity.StatusWaitingForOpponent, entity.StatusPlaying:
	default:
		log.Debug("ignoring leave", "status", that.status)
		return
	}

	log.Info("opponent left", "match_id", that.matchID, "leaves", len(presence.Leaves))

	that.setStatus(entity.StatusOpponentLeft)
	that.publish()
}
