package server

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/gekko3d/ragdoll"
)

const writeWait = 2 * time.Second

type client struct {
	srv     *Server
	conn    *websocket.Conn
	session string
	limiter *rate.Limiter

	writeMu sync.Mutex
	done    chan struct{}
}

// serve runs the writer on its own goroutine and reads until the
// connection fails.
func (c *client) serve() {
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.writeLoop()
	}()
	c.readLoop()
	close(c.done)
	wg.Wait()
	_ = c.conn.Close()
}

func (c *client) write(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *client) writeLoop() {
	ticker := time.NewTicker(c.srv.opts.StreamInterval)
	defer ticker.Stop()
	var sent uint64
	first := true
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			fr := c.srv.runner.Frames().Load()
			if fr == nil || (!first && fr.Tick == sent) {
				continue
			}
			if err := c.write(FrameMessage{Type: MessageTypeFrame, Frame: fr}); err != nil {
				_ = c.conn.Close()
				return
			}
			sent, first = fr.Tick, false
		}
	}
}

func (c *client) readLoop() {
	c.conn.SetReadLimit(c.srv.opts.ReadLimit)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		if !c.limiter.Allow() {
			continue
		}
		msg, err := ParseMessage(data)
		if err != nil {
			_ = c.write(ErrorMessage{Type: MessageTypeError, Message: err.Error()})
			continue
		}
		c.handle(msg)
	}
}

func (c *client) handle(msg any) {
	switch m := msg.(type) {
	case *PointerMessage:
		ev, err := m.Event()
		if err != nil {
			_ = c.write(ErrorMessage{Type: MessageTypeError, Message: err.Error()})
			return
		}
		c.srv.runner.Pointer(ev)
	case *SaveMessage:
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.srv.save(ctx, c.session); err != nil {
			c.srv.log.Warnf("save session %s: %v", c.session, err)
			_ = c.write(ErrorMessage{Type: MessageTypeError, Message: err.Error()})
			return
		}
		_ = c.write(SavedMessage{Type: MessageTypeSaved, Session: c.session})
	case *RespawnMessage:
		c.srv.runner.Post(func(sim *ragdoll.Simulation) { sim.Reset() })
	}
}
