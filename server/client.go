package server

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/net/websocket"

	"github.com/lguibr/pongarena/game"
)

const writeWait = 5 * time.Second

// wsClient is the game.PlayerConn of one websocket. Frames are queued on a
// bounded buffer and written by a single goroutine; a full buffer drops the
// frame instead of blocking the match.
type wsClient struct {
	id  string
	ws  *websocket.Conn
	out chan game.ServerMessage
	log zerolog.Logger

	done       chan struct{}
	closeOnce  sync.Once
	writerDone chan struct{}
}

func newWSClient(ws *websocket.Conn, buffer int, logger zerolog.Logger) *wsClient {
	if buffer <= 0 {
		buffer = 64
	}
	id := uuid.NewString()
	c := &wsClient{
		id:         id,
		ws:         ws,
		out:        make(chan game.ServerMessage, buffer),
		log:        logger.With().Str("conn_id", id).Logger(),
		done:       make(chan struct{}),
		writerDone: make(chan struct{}),
	}
	go c.writeLoop()
	return c
}

func (c *wsClient) ID() string { return c.id }

// Send queues msg. It reports false when the client is closed or its buffer is full.
func (c *wsClient) Send(msg game.ServerMessage) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.out <- msg:
		return true
	default:
		game.ObserveDroppedFrame()
		c.log.Debug().Msg("outbound buffer full, frame dropped")
		return false
	}
}

// Close stops accepting frames. Queued frames are flushed before the socket closes.
func (c *wsClient) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// wait blocks until the writer has flushed and closed the socket.
func (c *wsClient) wait() {
	<-c.writerDone
}

func (c *wsClient) writeLoop() {
	defer close(c.writerDone)
	defer c.ws.Close()

	for {
		select {
		case msg := <-c.out:
			if !c.write(msg) {
				c.Close()
				return
			}
		case <-c.done:
			for {
				select {
				case msg := <-c.out:
					if !c.write(msg) {
						return
					}
				default:
					return
				}
			}
		}
	}
}

func (c *wsClient) write(msg game.ServerMessage) bool {
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	if err := websocket.JSON.Send(c.ws, msg); err != nil {
		c.log.Debug().Err(err).Msg("write failed")
		return false
	}
	return true
}
