package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/pavelchamgl/analog-threads/internal/middleware"
	"github.com/pavelchamgl/analog-threads/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const (
	wsTicketTTL = 30 * time.Second
	// consumedTicketGrace is how long a consumed ticket stays valid in the
	// in-process cache so every pass of the upgrade handshake can see it.
	consumedTicketGrace = 60 * time.Second
)

// IssueWSTicket handles POST /api/v1/ws/ticket. Browsers cannot set an
// Authorization header on a WebSocket upgrade, so clients trade their JWT
// for a short-lived single-use ticket passed as a query parameter.
func (s *Server) IssueWSTicket(c *fiber.Ctx) error {
	if s.redis == nil {
		return models.RespondWithError(c, fiber.StatusServiceUnavailable,
			models.NewInternalError(fmt.Errorf("ticket store unavailable")))
	}

	userID := currentUserID(c)
	ticket := uuid.New().String()
	key := fmt.Sprintf("ws_ticket:%s", ticket)

	if err := s.redis.Set(c.Context(), key, strconv.FormatUint(uint64(userID), 10), wsTicketTTL).Err(); err != nil {
		middleware.RedisErrors.WithLabelValues("set").Inc()
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{
		"ticket":     ticket,
		"expires_in": int(wsTicketTTL.Seconds()),
	})
}

// resolveWSTicket authenticates a ticket. The Redis copy is consumed
// atomically with GETDEL; the result is cached in-process because Fiber's
// WebSocket upgrade runs the middleware chain more than once.
func (s *Server) resolveWSTicket(ctx context.Context, ticket string) (uint, bool) {
	s.consumedTicketsMu.Lock()
	if entry, ok := s.consumedTickets[ticket]; ok {
		s.consumedTicketsMu.Unlock()
		if time.Since(entry.consumeAt) < consumedTicketGrace {
			return entry.userID, true
		}
		return 0, false
	}
	s.consumedTicketsMu.Unlock()

	if s.redis == nil {
		return 0, false
	}
	userIDStr, err := s.redis.GetDel(ctx, fmt.Sprintf("ws_ticket:%s", ticket)).Result()
	if err != nil {
		return 0, false
	}
	userID, err := strconv.ParseUint(userIDStr, 10, 32)
	if err != nil {
		return 0, false
	}

	s.consumedTicketsMu.Lock()
	s.consumedTickets[ticket] = consumedTicketEntry{userID: uint(userID), consumeAt: time.Now()}
	// Prune stale entries while we hold the lock.
	for t, entry := range s.consumedTickets {
		if time.Since(entry.consumeAt) >= consumedTicketGrace {
			delete(s.consumedTickets, t)
		}
	}
	s.consumedTicketsMu.Unlock()

	return uint(userID), true
}

// consumeWSTicket drops a ticket from the in-process cache once the
// connection it authenticated is established.
func (s *Server) consumeWSTicket(_ context.Context, ticketVal any) {
	ticket, ok := ticketVal.(string)
	if !ok || ticket == "" {
		return
	}
	s.consumedTicketsMu.Lock()
	delete(s.consumedTickets, ticket)
	s.consumedTicketsMu.Unlock()
}

// WebsocketHandler returns the notification stream handler for
// GET /api/v1/ws/notifications. Authentication is handled by route
// middleware and userID is read from connection locals.
func (s *Server) WebsocketHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		middleware.ActiveWebSockets.Inc()
		defer middleware.ActiveWebSockets.Dec()

		userIDVal := conn.Locals("userID")
		uid, ok := userIDVal.(uint)
		if !ok {
			_ = conn.Close()
			return
		}

		if s.hub == nil {
			_ = conn.Close()
			return
		}

		// Register connection with scaling guardrails
		client, err := s.hub.Register(uid, conn)
		if err != nil {
			log.Printf("WebSocket Notification: Failed to register user %d: %v", uid, err)
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"`+err.Error()+`"}`))
			_ = conn.Close()
			return
		}
		defer s.hub.UnregisterClient(client)

		// The ticket served its purpose once the upgrade completed.
		s.consumeWSTicket(context.Background(), conn.Locals("wsTicket"))

		if welcome, err := json.Marshal(fiber.Map{
			"type": "connected",
			"payload": fiber.Map{
				"user_id": uid,
			},
		}); err == nil {
			client.TrySend(welcome)
		}

		// Start pumps
		go client.WritePump()
		client.ReadPump()
	})
}
