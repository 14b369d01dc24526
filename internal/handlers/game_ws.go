// internal/handlers/game_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Peanut-Aimbutter/rock-paper-beer-v7/internal/middleware"
)

const wsSubprotocol = "rock-paper-beer"

// WSHandler upgrades the connection, assigns it a fresh player id for its
// lifetime and runs the read pump until the client goes away. All gameplay
// flows through this single bidirectional connection.
func WSHandler(logger *logrus.Logger, srv *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		remoteAddr := r.RemoteAddr

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{wsSubprotocol},
			OriginPatterns: []string{"*"}, // Adjust in production
		})
		if err != nil {
			logger.Warnf("websocket accept error: %v", err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler finished")

		if c.Subprotocol() != wsSubprotocol {
			c.Close(BadSubprotocolError, "client must speak the rock-paper-beer subprotocol")
			return
		}

		// The transport-assigned connection identity doubles as the player
		// id for every room this connection touches.
		playerID := uuid.New()

		ctx, cancel := context.WithCancel(r.Context())
		conn := &playerConn{
			ID:      playerID,
			OutChan: make(chan ServerEvent, 16),
			logger:  logger,
		}

		middleware.LogWebSocketConnect(logger, playerID.String(), remoteAddr)

		go writePump(ctx, c, conn, logger)

		readPump(ctx, c, srv, conn, logger)

		// Cleanup after the read pump exits: remove the player from every
		// room and notify survivors.
		srv.Disconnect(context.Background(), conn)
		cancel()
		middleware.LogWebSocketDisconnect(logger, playerID.String(), remoteAddr)
	}
}

// readPump decodes inbound action envelopes and hands them to the
// coordinator one at a time. It returns when the connection closes.
func readPump(ctx context.Context, c *websocket.Conn, srv *GameServer, conn *playerConn, logger *logrus.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		typ, msg, err := c.Read(ctx)
		if err != nil {
			closeStatus := websocket.CloseStatus(err)
			if closeStatus == websocket.StatusNormalClosure || closeStatus == websocket.StatusGoingAway {
				logger.Infof("WebSocket closed normally for player %v", conn.ID)
			} else if strings.Contains(err.Error(), "context canceled") {
				// Shutdown path, nothing to report.
			} else {
				logger.Warnf("Read error for player %v: %v (CloseStatus: %d)", conn.ID, err, closeStatus)
			}
			return
		}

		if typ != websocket.MessageText {
			logger.Warnf("Received non-text message type %d from player %v. Ignoring.", typ, conn.ID)
			continue
		}

		var action ClientAction
		if err := json.Unmarshal(msg, &action); err != nil {
			logger.Warnf("Invalid json from player %v: %v", conn.ID, err)
			conn.sendError("Invalid JSON format")
			continue
		}

		srv.HandleAction(ctx, conn, action)
	}
}

// writePump drains the connection's out channel onto the socket and keeps
// the connection alive with periodic pings.
func writePump(ctx context.Context, c *websocket.Conn, conn *playerConn, logger *logrus.Logger) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-conn.OutChan:
			if !ok {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				logger.Warnf("Failed to marshal outgoing event for player %v: %v", conn.ID, err)
				continue
			}

			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err = c.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				logger.Warnf("Failed to write to websocket for player %v: %v", conn.ID, err)
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
			err := c.Ping(pingCtx)
			cancel()
			if err != nil {
				logger.Warnf("Failed to ping player %v: %v. Assuming disconnect.", conn.ID, err)
				return
			}
		}
	}
}
