package web

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mordilloSan/go-logger/logger"

	"github.com/ragos-nas/webadmin/monitor"
)

// WebSocket keepalive configuration.
const (
	// How often to send ping frames to the client
	pingInterval = 25 * time.Second

	// Read deadline; must outlast pingInterval so the ping/pong cycle can
	// complete even when no data is flowing
	pongWait = 35 * time.Second

	// Maximum time allowed to write a message (ping or data)
	writeWait = 10 * time.Second

	// How often a fresh metrics snapshot is pushed
	metricsPushInterval = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	// Same-origin deployment; the session cookie is the gate.
	CheckOrigin: func(*http.Request) bool { return true },
}

// MetricsStreamHandler upgrades the request and pushes system metrics
// snapshots until the client goes away. Wrap it in RequireSession.
func MetricsStreamHandler(filesystem string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warnf("metrics stream upgrade failed: %v", err)
			return
		}
		defer conn.Close()

		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})

		// Drain control frames; any read error means the client is gone.
		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		push := time.NewTicker(metricsPushInterval)
		defer push.Stop()
		ping := time.NewTicker(pingInterval)
		defer ping.Stop()

		// First snapshot right away so the dashboard is never blank.
		if !writeMetrics(conn, filesystem) {
			return
		}
		for {
			select {
			case <-done:
				return
			case <-ping.C:
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			case <-push.C:
				if !writeMetrics(conn, filesystem) {
					return
				}
			}
		}
	}
}

func writeMetrics(conn *websocket.Conn, filesystem string) bool {
	m, err := monitor.CollectSystem(filesystem)
	if err != nil {
		logger.Warnf("metrics snapshot failed: %v", err)
		return true // transient; keep the stream open
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(m) == nil
}
