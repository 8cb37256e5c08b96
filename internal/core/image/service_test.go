package image

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"meal-planner/internal/infrastructure/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_FindImageFor(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/photos", r.URL.Path)
		assert.Equal(t, "Client-ID test-key", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("query") {
		case "Tomato Soup food":
			_, _ = w.Write([]byte(`{"results":[{"urls":{"regular":"https://images.example.com/soup.jpg"}}]}`))
		case "broken food":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			_, _ = w.Write([]byte(`{"results":[]}`))
		}
	}))
	defer server.Close()

	svc := NewService(config.ImageSearchConfig{
		Enabled:   true,
		BaseURL:   server.URL,
		AccessKey: "test-key",
		Timeout:   time.Second,
	})

	t.Run("found", func(t *testing.T) {
		u, err := svc.FindImageFor(context.Background(), "Tomato Soup")
		require.NoError(t, err)
		assert.Equal(t, "https://images.example.com/soup.jpg", u)
	})

	t.Run("no results", func(t *testing.T) {
		u, err := svc.FindImageFor(context.Background(), "Nothing")
		require.NoError(t, err)
		assert.Empty(t, u)
	})

	t.Run("error status", func(t *testing.T) {
		_, err := svc.FindImageFor(context.Background(), "broken")
		assert.Error(t, err)
	})
}

func TestService_Disabled(t *testing.T) {
	svc := NewService(config.ImageSearchConfig{Enabled: true, BaseURL: "http://127.0.0.1:1"})

	u, err := svc.FindImageFor(context.Background(), "Tomato Soup")
	require.NoError(t, err)
	assert.Empty(t, u)
}
