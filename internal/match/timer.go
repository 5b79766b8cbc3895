package match

import (
	"time"

	"github.com/rocketscienceinc/tictactoe-client/internal/entity"
)

const tickInterval = time.Second

// syncTimer restarts the countdown when the local player has to move in timed mode
// and stops it otherwise.
func (that *Session) syncTimer() {
	if that.opts.Mode == entity.ModeTimed && that.status == entity.StatusPlaying && that.isMyTurn() {
		that.armTimer()
		return
	}

	that.disarmTimer()
}

func (that *Session) armTimer() {
	that.disarmTimer()

	that.timeRemaining = that.opts.TurnSeconds
	that.scheduleTick(that.timerGen)
}

// disarmTimer moves to a new generation so a tick already queued is ignored.
func (that *Session) disarmTimer() {
	if that.timerStop != nil {
		that.timerStop()
		that.timerStop = nil
	}
	that.timerGen++
}

func (that *Session) scheduleTick(gen int) {
	that.timerStop = that.opts.Scheduler.AfterFunc(tickInterval, func() {
		that.post(timerTick{gen: gen})
	})
}

func (that *Session) handleTick(gen int) {
	if gen != that.timerGen || that.timerStop == nil {
		return
	}

	that.timeRemaining--

	if that.timeRemaining <= 0 {
		// the server enforces the timeout
		that.timeRemaining = 0
		that.timerStop = nil
		that.logger.Info("turn time is up", "match_id", that.matchID)
	} else {
		that.scheduleTick(gen)
	}

	that.publish()
}
