package server

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavelchamgl/analog-threads/internal/models"
	"github.com/pavelchamgl/analog-threads/internal/service"
)

func TestFollowPublicProfile(t *testing.T) {
	_, app := newTestServer(t)
	alice := signUp(t, app, "alice")
	bob := signUp(t, app, "bob")

	resp := doJSON(t, app, http.MethodPost, "/api/v1/user/profile/follow", alice.Access, followBody(bob.ID))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var follow models.Follow
	decodeBody(t, resp, &follow)
	assert.True(t, follow.Allowed)

	// Duplicate follow conflicts.
	resp = doJSON(t, app, http.MethodPost, "/api/v1/user/profile/follow", alice.Access, followBody(bob.ID))
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	_ = resp.Body.Close()

	// Bob sees alice among his followers.
	var page struct {
		Count   int64         `json:"count"`
		Results []models.User `json:"results"`
	}
	resp = doJSON(t, app, http.MethodGet, "/api/v1/user/profile/followers/"+itoa(bob.ID), bob.Access, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp, &page)
	assert.EqualValues(t, 1, page.Count)
	require.Len(t, page.Results, 1)
	assert.Equal(t, "alice", page.Results[0].Username)
}

func TestFollowPrivateProfileNeedsApproval(t *testing.T) {
	s, app := newTestServer(t)
	alice := signUp(t, app, "alice")
	carol := signUp(t, app, "carol")

	resp := doJSON(t, app, http.MethodPatch, "/api/v1/user/profile/update", carol.Access, map[string]any{
		"is_private": true,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	resp = doJSON(t, app, http.MethodPost, "/api/v1/user/profile/follow", alice.Access, followBody(carol.ID))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var follow models.Follow
	decodeBody(t, resp, &follow)
	assert.False(t, follow.Allowed)

	// Carol sees the pending request and approves it.
	var pending struct {
		Count   int64           `json:"count"`
		Results []models.Follow `json:"results"`
	}
	resp = doJSON(t, app, http.MethodGet, "/api/v1/user/profile/follow_requests", carol.Access, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp, &pending)
	assert.EqualValues(t, 1, pending.Count)

	resp = doJSON(t, app, http.MethodPost, "/api/v1/user/profile/follow_requests/allow", carol.Access, followBody(alice.ID))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	state, err := s.visibility.FollowState(t.Context(), alice.ID, carol.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FollowStateFollowed, state)
}

func TestDeclineFollowRequest(t *testing.T) {
	_, app := newTestServer(t)
	alice := signUp(t, app, "alice")
	carol := signUp(t, app, "carol")

	resp := doJSON(t, app, http.MethodPatch, "/api/v1/user/profile/update", carol.Access, map[string]any{
		"is_private": true,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	resp = doJSON(t, app, http.MethodPost, "/api/v1/user/profile/follow", alice.Access, followBody(carol.ID))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	_ = resp.Body.Close()

	resp = doJSON(t, app, http.MethodPost, "/api/v1/user/profile/follow_requests/decline", carol.Access, followBody(alice.ID))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	// Declining a request that no longer exists is a 404.
	resp = doJSON(t, app, http.MethodPost, "/api/v1/user/profile/follow_requests/decline", carol.Access, followBody(alice.ID))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestMutualFollow(t *testing.T) {
	_, app := newTestServer(t)
	alice := signUp(t, app, "alice")
	bob := signUp(t, app, "bob")

	resp := doJSON(t, app, http.MethodPost, "/api/v1/user/profile/follow", alice.Access, followBody(bob.ID))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	_ = resp.Body.Close()
	resp = doJSON(t, app, http.MethodPost, "/api/v1/user/profile/follow", bob.Access, followBody(alice.ID))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	_ = resp.Body.Close()

	var body struct {
		FollowState models.FollowState `json:"follow_state"`
		Mutual      bool               `json:"mutual"`
	}
	resp = doJSON(t, app, http.MethodPost, "/api/v1/user/profile/mutual_follow", alice.Access, followBody(bob.ID))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp, &body)
	assert.True(t, body.Mutual)
	assert.Equal(t, models.FollowStateMutual, body.FollowState)

	// Mutuality holds from both sides.
	resp = doJSON(t, app, http.MethodPost, "/api/v1/user/profile/mutual_follow", bob.Access, followBody(alice.ID))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp, &body)
	assert.True(t, body.Mutual)
	assert.Equal(t, models.FollowStateMutual, body.FollowState)
}

func TestPrivateProfileHidesSocialGraph(t *testing.T) {
	_, app := newTestServer(t)
	viewer := signUp(t, app, "viewer")
	closed := signUp(t, app, "closed")

	resp := doJSON(t, app, http.MethodPatch, "/api/v1/user/profile/update", closed.Access, map[string]any{
		"is_private": true,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	resp = doJSON(t, app, http.MethodGet, "/api/v1/user/profile/followers/"+itoa(closed.ID), viewer.Access, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	_ = resp.Body.Close()

	// The owner still sees their own followers.
	resp = doJSON(t, app, http.MethodGet, "/api/v1/user/profile/followers/"+itoa(closed.ID), closed.Access, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestGetProfileByUsernameIncludesState(t *testing.T) {
	_, app := newTestServer(t)
	alice := signUp(t, app, "alice")
	bob := signUp(t, app, "bob")

	resp := doJSON(t, app, http.MethodPost, "/api/v1/user/profile/follow", alice.Access, followBody(bob.ID))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	_ = resp.Body.Close()

	var profile service.Profile
	resp = doJSON(t, app, http.MethodGet, "/api/v1/user/profile/username/bob", alice.Access, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp, &profile)
	assert.Equal(t, bob.ID, profile.User.ID)
	assert.Equal(t, models.FollowStateFollowed, profile.FollowState)
}
