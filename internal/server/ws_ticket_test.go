package server

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndResolveWSTicket(t *testing.T) {
	s, app := newTestServer(t)
	acct := signUp(t, app, "streamer")

	resp := doJSON(t, app, http.MethodPost, "/api/v1/ws/ticket", acct.Access, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Ticket    string `json:"ticket"`
		ExpiresIn int    `json:"expires_in"`
	}
	decodeBody(t, resp, &body)
	require.NotEmpty(t, body.Ticket)
	assert.Equal(t, int(wsTicketTTL.Seconds()), body.ExpiresIn)

	ctx := t.Context()

	// First resolution consumes the Redis copy via GETDEL.
	userID, ok := s.resolveWSTicket(ctx, body.Ticket)
	require.True(t, ok)
	assert.Equal(t, acct.ID, userID)

	exists, err := s.redis.Exists(ctx, "ws_ticket:"+body.Ticket).Result()
	require.NoError(t, err)
	assert.EqualValues(t, 0, exists)

	// Repeated passes of the upgrade handshake hit the in-process cache.
	userID, ok = s.resolveWSTicket(ctx, body.Ticket)
	require.True(t, ok)
	assert.Equal(t, acct.ID, userID)

	// Once the connection is established the ticket is gone for good.
	s.consumeWSTicket(ctx, body.Ticket)
	_, ok = s.resolveWSTicket(ctx, body.Ticket)
	assert.False(t, ok)
}

func TestWSTicketAuthenticatesRequest(t *testing.T) {
	_, app := newTestServer(t)
	acct := signUp(t, app, "sock")

	resp := doJSON(t, app, http.MethodPost, "/api/v1/ws/ticket", acct.Access, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body struct {
		Ticket string `json:"ticket"`
	}
	decodeBody(t, resp, &body)

	// A ticket works in place of a bearer token on protected routes.
	resp = doJSON(t, app, http.MethodGet, "/api/v1/notifications?ticket="+body.Ticket, "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestInvalidWSTicketOnWSPath(t *testing.T) {
	_, app := newTestServer(t)

	resp := doJSON(t, app, http.MethodGet, "/api/v1/ws/notifications?ticket=bogus", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestConsumedTicketGraceExpires(t *testing.T) {
	s, _ := newTestServer(t)

	s.consumedTicketsMu.Lock()
	s.consumedTickets["stale"] = consumedTicketEntry{userID: 7, consumeAt: time.Now().Add(-2 * consumedTicketGrace)}
	s.consumedTicketsMu.Unlock()

	_, ok := s.resolveWSTicket(t.Context(), "stale")
	assert.False(t, ok)
}
