package game

// broadcast queues msg on every connected socket of the match.
func (a *MatchActor) broadcast(msg ServerMessage) {
	for userID, conn := range a.sockets {
		if !conn.Send(msg) {
			a.log.Debug().Str("user_id", userID).Str("message", typeName(msg)).Msg("frame dropped")
		}
	}
}
