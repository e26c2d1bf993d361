package http

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/smarttrack/internal/adapters/wsmap"
	"github.com/samirrijal/smarttrack/internal/pkg/metrics"
)

const defaultPingInterval = 30 * time.Second

// MapSessionHandler returns a handler that upgrades to WebSocket and runs
// one map session per connection. The browser renders the ops it is sent
// and reports draw, prompt, focus and search input back.
func MapSessionHandler(deps *Dependencies) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		remoteAddr := c.RemoteAddr().String()
		logger := slog.Default().With("remote", remoteAddr)
		logger.Info("map session connected")

		metrics.ActiveMapSessions.Inc()
		defer metrics.ActiveMapSessions.Dec()

		var mu sync.Mutex
		closed := false

		// Thread-safe write; the session, prompter and search all send.
		transport := wsmap.TransportFunc(func(data []byte) error {
			mu.Lock()
			defer mu.Unlock()
			if closed {
				return wsmap.ErrTransportClosed
			}
			return c.WriteMessage(websocket.TextMessage, data)
		})

		var searcher wsmap.Searcher
		if deps.Search != nil {
			searcher = deps.Search
		}
		opts := deps.Map.client()
		opts.Logger = logger
		client := wsmap.NewClient(transport, deps.Boundaries.Create, searcher, opts)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			defer close(done)
			if err := client.Run(ctx); err != nil {
				logger.Warn("map session ended with error", "error", err)
			}
		}()

		unsubscribe := func() {}
		if deps.Feed != nil {
			unsubscribe = deps.Feed.Subscribe(client.Session())
		}

		// Keep-alive ping
		interval := deps.Map.PingInterval
		if interval <= 0 {
			interval = defaultPingInterval
		}
		go func() {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					mu.Lock()
					err := c.WriteMessage(websocket.PingMessage, nil)
					mu.Unlock()
					if err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				break
			}
			if err := client.HandleMessage(ctx, msg); err != nil {
				logger.Debug("rejected map message", "error", err)
				client.SendError(err)
			}
		}

		// Cleanup
		unsubscribe()
		mu.Lock()
		closed = true
		mu.Unlock()
		cancel()
		<-done
		logger.Info("map session disconnected")
	}
}
