package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"

	"github.com/vovakirdan/pose-match/internal/game"
	"github.com/vovakirdan/pose-match/internal/pose"
	"github.com/vovakirdan/pose-match/internal/source"
	"github.com/vovakirdan/pose-match/internal/storage"
)

var errBadRequest = errors.New("bad request")

const (
	sendBuffer     = 32
	eventBuffer    = 64
	writeWait      = 5 * time.Second
	maxMessageSize = 8 << 10
)

// client is one browser connection with its own game.
type client struct {
	id     string
	player string
	conn   *websocket.Conn
	send   chan any
	events chan game.Event

	remote *source.Remote
	runner *game.Runner
	store  *storage.Store
	cfg    Config
	logger *log.Logger

	// last is only touched from the runner loop.
	last   game.View
	saving sync.WaitGroup
}

// Notify implements game.Observer. It runs on the runner loop and never
// blocks it. Finished runs are persisted from here; state messages are
// dropped if the connection falls behind.
func (c *client) Notify(evt game.Event) {
	c.track(evt)

	select {
	case c.events <- evt:
	default:
		c.logger.Debug("event dropped", "event", evt.Kind)
	}
}

// queue sends msg to the browser without blocking.
func (c *client) queue(msg any) {
	select {
	case c.send <- msg:
	default:
		c.logger.Debug("message dropped, client too slow")
	}
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrade failed", "remote", realIP(r), "error", err)
		return
	}
	conn.SetReadLimit(maxMessageSize)

	id := uuid.New().String()
	c := &client{
		id:     id,
		player: r.URL.Query().Get("player"),
		conn:   conn,
		send:   make(chan any, sendBuffer),
		events: make(chan game.Event, eventBuffer),
		store:  s.store,
		cfg:    s.cfg,
		logger: s.logger.With("session", id, "remote", realIP(r)),
	}
	c.remote = source.NewRemote(func() { c.queue(SimpleMessage{Type: "camera_release"}) })

	ctrl := game.NewController(s.cfg.Game, c.remote, game.WithObserver(c))
	c.runner = game.NewRunner(ctrl, c.remote,
		game.WithLogger(c.logger),
		game.WithScheduler(game.NewScheduler(s.cfg.Timing, nil)),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c.logger.Info("session started")
	go c.runner.Run(ctx)
	go c.forward(ctx)
	go c.writePump(ctx)

	c.queue(SessionMessage{Type: "session", SessionID: id, Levels: ctrl.TotalLevels()})
	c.readPump(ctx)

	cancel()
	<-c.runner.Done()
	c.saving.Wait()
	c.logger.Info("session ended")
}

func (c *client) readPump(ctx context.Context) {
	defer c.conn.Close()

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		if err := c.handle(ctx, msg); err != nil {
			c.queue(newErrorMessage(err))
		}
	}
}

func (c *client) handle(ctx context.Context, msg ClientMessage) error {
	switch msg.Type {
	case "camera":
		if msg.Ready == nil {
			return fmt.Errorf("%w: camera message needs ready", errBadRequest)
		}
		c.remote.SetCameraReady(*msg.Ready)
		return nil
	case "pose":
		c.remote.Push(pose.Snapshot{Keypoints: msg.Keypoints})
		return nil
	case "start":
		return c.runner.Start(ctx)
	case "retry":
		return c.runner.Retry(ctx)
	case "reset":
		return c.runner.Reset(ctx)
	default:
		return fmt.Errorf("%w: unknown message type %q", errBadRequest, msg.Type)
	}
}

// track persists finished runs. Completed runs are saved as they finish;
// a failed run is saved once the player gives up on it by resetting or
// disconnecting, both of which reset the controller.
func (c *client) track(evt game.Event) {
	switch {
	case evt.Kind == game.EventCompleted:
		c.persist(evt.View)
	case evt.Kind == game.EventReset && c.last.RunStatus == game.RunFailed:
		c.persist(c.last)
	}
	c.last = evt.View
}

func (c *client) persist(v game.View) {
	c.saving.Add(1)
	go func() {
		defer c.saving.Done()
		c.save(v)
	}()
}

// forward turns runner events into state messages.
func (c *client) forward(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-c.events:
			c.queue(newStateMessage(evt))
		}
	}
}

func (c *client) save(v game.View) {
	if c.store == nil {
		return
	}

	run := storage.RunFromView(v)
	run.Player = c.player
	run.Source = "remote"
	run.Difficulty = c.cfg.Difficulty

	id, err := c.store.SaveRun(run)
	if err != nil {
		c.logger.Error("could not save run", "error", err)
		return
	}
	c.logger.Info("run saved", "id", id, "status", run.Status)
}

func (c *client) writePump(ctx context.Context) {
	defer c.conn.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		}
	}
}
