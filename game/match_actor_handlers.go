// File: game/match_actor_handlers.go
package game

import (
	"context"
	"fmt"

	"github.com/lguibr/pongarena/bollywood"
	"github.com/lguibr/pongarena/utils"
)

func (a *MatchActor) handleJoin(ctx bollywood.Context, msg PlayerJoinRequest) {
	if a.closed && a.phase != PhaseGameOver {
		// Released before the start; the registry retries on a fresh entry.
		ctx.Reply(bollywood.ErrActorStopped)
		return
	}
	if a.phase == PhaseGameOver {
		ctx.Reply(utils.NewStateError(utils.CodeMatchAlreadyComplete, "match %s is over", a.spec.MatchID))
		return
	}
	if !a.state.HasPlayer(msg.UserID) {
		ctx.Reply(utils.NewAuthError(utils.CodeMatchNotAuthorized, "user %s is not a player of match %s", msg.UserID, a.spec.MatchID))
		return
	}

	if old, ok := a.sockets[msg.UserID]; ok && old != msg.Conn {
		a.log.Info().Str("user_id", msg.UserID).Msg("replacing existing connection")
		old.Close()
	}
	a.sockets[msg.UserID] = msg.Conn
	a.authenticated[msg.UserID] = true
	if _, ok := a.intents[msg.UserID]; !ok {
		a.intents[msg.UserID] = DirectionStop
	}

	ctx.Reply(JoinAck{Phase: a.phase})
	msg.Conn.Send(NewAuthenticatedMessage())
	a.log.Info().Str("user_id", msg.UserID).Int("authenticated", len(a.authenticated)).Msg("player authenticated")

	if a.phase == PhaseInit && a.bothAuthenticated() {
		a.startCountdown()
	}
}

func (a *MatchActor) handleIntent(msg PaddleIntent) {
	if !a.authenticated[msg.UserID] {
		return
	}
	a.intents[msg.UserID] = msg.Direction
}

func (a *MatchActor) handleLeave(msg PlayerLeft) {
	current, ok := a.sockets[msg.UserID]
	if !ok || (msg.Conn != nil && current != msg.Conn) {
		return
	}
	current.Close()
	delete(a.sockets, msg.UserID)
	delete(a.authenticated, msg.UserID)
	delete(a.intents, msg.UserID)
	a.log.Info().Str("user_id", msg.UserID).Str("phase", string(a.phase)).Msg("player disconnected")

	switch {
	case a.phase.Playing():
		a.finish(a.state.Opponent(msg.UserID), true)
	case len(a.sockets) == 0:
		// Nobody left before the start: release the entry and leave the
		// persisted match to the no-show policy.
		a.teardown()
	}
}

func (a *MatchActor) handleStartRequest(ctx bollywood.Context) {
	switch {
	case a.phase == PhaseGameOver:
		ctx.Reply(utils.NewStateError(utils.CodeMatchAlreadyComplete, "match %s is over", a.spec.MatchID))
	case a.phase.Playing():
		ctx.Reply(a.phase)
	case !a.bothAuthenticated():
		ctx.Reply(utils.NewStateError(utils.CodeMatchNotReady, "match %s needs both players authenticated", a.spec.MatchID))
	default:
		a.startCountdown()
		ctx.Reply(a.phase)
	}
}

func (a *MatchActor) handleForfeit(ctx bollywood.Context, msg ForfeitRequest) {
	if a.phase == PhaseGameOver {
		ctx.Reply(false)
		return
	}
	if !a.state.HasPlayer(msg.WinnerID) {
		ctx.Reply(utils.NewAuthError(utils.CodeMatchNotAuthorized, "user %s is not a player of match %s", msg.WinnerID, a.spec.MatchID))
		return
	}
	a.finish(msg.WinnerID, true)
	ctx.Reply(true)
}

func (a *MatchActor) handleEndGame(ctx bollywood.Context) {
	if a.phase == PhaseGameOver {
		ctx.Reply(EndGameAck{AlreadyOver: true, WinnerID: a.state.Winner})
		return
	}
	leader := a.state.Leader()
	a.finish(leader, false)
	ctx.Reply(EndGameAck{WinnerID: leader, Abandoned: leader == ""})
}

func (a *MatchActor) bothAuthenticated() bool {
	return a.authenticated[a.spec.Player1ID] && a.authenticated[a.spec.Player2ID]
}

// startCountdown moves INIT -> COUNTDOWN after persisting IN_PROGRESS.
func (a *MatchActor) startCountdown() {
	pctx, cancel := context.WithTimeout(context.Background(), a.cfg.PersistTimeout)
	err := a.recorder.MarkInProgress(pctx, a.spec.MatchID)
	cancel()
	if err != nil {
		if utils.IsKind(err, utils.KindState) || utils.IsKind(err, utils.KindNotFound) {
			a.log.Warn().Err(err).Msg("match cannot start")
			code := utils.CodeMatchInvalidStatusTransition
			if appErr, ok := utils.AsAppError(err); ok {
				code = appErr.Code
			}
			a.broadcast(NewErrorMessage(code, err.Error()))
			a.teardown()
			return
		}
		a.log.Error().Err(err).Msg("persisting match start failed, starting anyway")
	}

	a.phase = PhaseCountdown
	a.countdown = a.cfg.CountdownFrom
	a.broadcast(NewWaitingMessage(a.countdown))
	if a.countdown <= 0 {
		a.startRunning()
		return
	}
	a.countdownLoop = startLoop(a.engine, a.selfPID, a.cfg.CountdownInterval, countdownTick{})
}

func (a *MatchActor) handleCountdown() {
	if a.phase != PhaseCountdown {
		return
	}
	a.countdown--
	a.broadcast(NewWaitingMessage(a.countdown))
	if a.countdown <= 0 {
		a.startRunning()
	}
}

func (a *MatchActor) startRunning() {
	a.countdownLoop.Stop()
	a.countdownLoop = nil
	a.phase = PhaseRunning
	a.broadcast(NewGameStartMessage())
	a.tickLoop = startLoop(a.engine, a.selfPID, a.cfg.TickPeriod(), gameTick{})
	a.log.Info().Msg("match running")
}

func (a *MatchActor) handleTick() {
	if a.phase != PhaseRunning && a.phase != PhasePointPause {
		return
	}
	started := a.now()
	res := a.state.Step(started, a.currentIntents(), a.cfg, a.rng)

	if a.state.IsPaused {
		a.phase = PhasePointPause
	} else {
		a.phase = PhaseRunning
	}
	a.broadcast(NewGameUpdateMessage(a.state.Update()))

	ticksTotal.Inc()
	tickDuration.Observe(a.now().Sub(started).Seconds())

	if res.ScoredBy != "" {
		a.log.Debug().Str("scored_by", res.ScoredBy).
			Int("player1", a.state.Player1.Score).Int("player2", a.state.Player2.Score).Msg("point")
	}
	if res.GameOver {
		a.finish(a.state.Winner, false)
	}
}

// finish moves to GAME_OVER, broadcasts game_end, hands the result to the
// recorder and tears the entry down. An empty winner abandons the match.
func (a *MatchActor) finish(winner string, disconnected bool) {
	if a.phase == PhaseGameOver {
		return
	}
	a.stopLoops()
	a.phase = PhaseGameOver
	if !a.state.IsGameOver {
		a.state.End(winner, disconnected)
	}

	a.broadcast(NewGameEndMessage(GameEndData{
		Winner:       a.state.Winner,
		Player1Score: a.state.Player1.Score,
		Player2Score: a.state.Player2.Score,
		Disconnected: a.state.Disconnected,
	}))

	result := Result{
		MatchID:      a.spec.MatchID,
		Player1:      a.state.Player1,
		Player2:      a.state.Player2,
		WinnerID:     a.state.Winner,
		Disconnected: a.state.Disconnected,
		Abandoned:    a.state.Winner == "",
	}
	matchesFinished.WithLabelValues(outcomeLabel(result)).Inc()

	// The broadcast above is authoritative; persistence is best-effort.
	pctx, cancel := context.WithTimeout(context.Background(), a.cfg.PersistTimeout)
	if err := a.recorder.RecordResult(pctx, result); err != nil {
		a.log.Error().Err(err).Str("winner", result.WinnerID).Msg("persisting match result failed")
	}
	cancel()

	a.log.Info().Str("winner", result.WinnerID).Bool("disconnected", result.Disconnected).
		Int("player1", result.Player1.Score).Int("player2", result.Player2.Score).Msg("match over")
	a.teardown()
}

// teardown releases every resource of the entry and stops the actor.
func (a *MatchActor) teardown() {
	if a.closed {
		return
	}
	a.closed = true
	a.stopLoops()
	a.closeSockets()
	a.notifyClosed()
	a.engine.Stop(a.selfPID)
}

func (a *MatchActor) closeSockets() {
	for userID, conn := range a.sockets {
		conn.Close()
		delete(a.sockets, userID)
	}
	a.authenticated = make(map[string]bool)
	a.intents = make(map[string]Direction)
}

func (a *MatchActor) notifyClosed() {
	if a.manager != nil {
		a.engine.Send(a.manager, MatchClosed{MatchID: a.spec.MatchID, PID: a.selfPID}, a.selfPID)
	}
}

func outcomeLabel(r Result) string {
	switch {
	case r.Abandoned:
		return "abandoned"
	case r.Disconnected:
		return "forfeit"
	}
	return "completed"
}

func typeName(v interface{}) string {
	return fmt.Sprintf("%T", v)
}
