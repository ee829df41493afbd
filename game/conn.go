package game

// PlayerConn is the outbound side of a player's connection as seen by a match.
// Send must not block; it reports false when the frame was dropped.
// Close flushes queued frames and then closes the connection.
type PlayerConn interface {
	ID() string
	Send(msg ServerMessage) bool
	Close()
}
