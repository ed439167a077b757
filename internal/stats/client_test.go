package stats

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordHit(t *testing.T) {
	var received Hit
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/hit", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, AppName: "afisha-main-service"}, nil)
	client.RecordHit(context.Background(), "/events/7", "192.168.0.10")

	assert.Equal(t, "afisha-main-service", received.App)
	assert.Equal(t, "/events/7", received.URI)
	assert.Equal(t, "192.168.0.10", received.IP)
	assert.NotEmpty(t, received.Timestamp)
}

func TestViews(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/stats", r.URL.Path)
		assert.Equal(t, "false", r.URL.Query().Get("unique"))
		assert.Contains(t, r.URL.Query().Get("uris"), "/events/1")

		json.NewEncoder(w).Encode([]HitCount{
			{App: "afisha-main-service", URI: "/events/1", Hits: 15},
			// Чужое приложение и мусорный URI игнорируются
			{App: "other-app", URI: "/events/2", Hits: 100},
			{App: "afisha-main-service", URI: "/events/abc", Hits: 7},
		})
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, AppName: "afisha-main-service"}, nil)
	views := client.Views(context.Background(), []int64{1, 2})

	assert.Equal(t, int64(15), views[1])
	assert.Equal(t, int64(0), views[2])
}

func TestViewsDegradeToZeroOnServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, AppName: "afisha-main-service"}, nil)
	views := client.Views(context.Background(), []int64{1, 2})

	assert.Empty(t, views)
}

func TestViewsDegradeToZeroOnUnreachableCollector(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://127.0.0.1:1", AppName: "afisha-main-service"}, nil)
	views := client.Views(context.Background(), []int64{1})

	assert.Empty(t, views)
}

func TestViewsEmptyInput(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://127.0.0.1:1", AppName: "afisha-main-service"}, nil)
	views := client.Views(context.Background(), nil)

	assert.Empty(t, views)
}
