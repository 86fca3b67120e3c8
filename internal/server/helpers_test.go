package server

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavelchamgl/analog-threads/internal/config"
)

func TestHumanizeParam(t *testing.T) {
	tests := []struct {
		param string
		want  string
	}{
		{"id", "ID"},
		{"userId", "user ID"},
		{"commentId", "comment ID"},
		{"postId", "post ID"},
		{"tagName", "tagName"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, humanizeParam(tt.param))
	}
}

func TestParsePaginationClamping(t *testing.T) {
	s := &Server{config: &config.Config{DefaultPageSize: 10, MaxPageSize: 100}}
	app := fiber.New()
	app.Get("/page", func(c *fiber.Ctx) error {
		page := s.parsePagination(c)
		return c.JSON(fiber.Map{"page_size": page.PageSize, "selected_id": page.SelectedID})
	})

	tests := []struct {
		name         string
		query        string
		wantSize     int
		wantSelected float64
	}{
		{name: "defaults", query: "", wantSize: 10, wantSelected: 0},
		{name: "explicit", query: "?page_size=25&selected_id=7", wantSize: 25, wantSelected: 7},
		{name: "clamped to max", query: "?page_size=500", wantSize: 100, wantSelected: 0},
		{name: "negative falls back", query: "?page_size=-1&selected_id=-5", wantSize: 10, wantSelected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodGet, "/page"+tt.query, nil)
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			var body map[string]float64
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.EqualValues(t, tt.wantSize, body["page_size"])
			assert.Equal(t, tt.wantSelected, body["selected_id"])
		})
	}
}

func TestRespondPageLinks(t *testing.T) {
	s := &Server{config: &config.Config{DefaultPageSize: 10, MaxPageSize: 100}}
	app := fiber.New()
	app.Get("/items", func(c *fiber.Ctx) error {
		page := s.parsePagination(c)
		// Simulate a full descending page of IDs 9..8 out of 3 total rows.
		return s.respondPage(c, page, 3, 2, 9, 8, true, []int{9, 8})
	})

	req, _ := http.NewRequest(http.MethodGet, "/items?page_size=2", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env struct {
		Links struct {
			Next     *string `json:"next"`
			Previous *string `json:"previous"`
		} `json:"links"`
		Count   int64 `json:"count"`
		Results []int `json:"results"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	assert.EqualValues(t, 3, env.Count)
	require.NotNil(t, env.Links.Next)
	assert.Contains(t, *env.Links.Next, "selected_id=7")
	// No cursor was supplied, so there is no previous page.
	assert.Nil(t, env.Links.Previous)
}

func TestRespondPageEmptyHasNoLinks(t *testing.T) {
	s := &Server{config: &config.Config{DefaultPageSize: 10, MaxPageSize: 100}}
	app := fiber.New()
	app.Get("/items", func(c *fiber.Ctx) error {
		page := s.parsePagination(c)
		return s.respondPage(c, page, 0, 0, 0, 0, true, []int{})
	})

	req, _ := http.NewRequest(http.MethodGet, "/items", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env struct {
		Links struct {
			Next     *string `json:"next"`
			Previous *string `json:"previous"`
		} `json:"links"`
		Count int64 `json:"count"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	assert.Nil(t, env.Links.Next)
	assert.Nil(t, env.Links.Previous)
	assert.Zero(t, env.Count)
}
