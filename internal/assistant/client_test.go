package assistant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"henry-gateway/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func newTestClient(t *testing.T, baseURL string) *Client {
	return NewClient(&Config{
		BaseURL:    baseURL,
		ChatPath:   "/api/hey-henry",
		Timeout:    2 * time.Second,
		MaxRetries: 2,
	}, logger.NewTestLogger(t))
}

func chatReq(message string) *ChatRequest {
	return &ChatRequest{
		Message: message,
		Context: ChatContext{
			CurrentPage:     "dashboard",
			PageDescription: "overview",
		},
	}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestChat_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/hey-henry", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "how do I follow up?", req.Message)
		assert.Equal(t, "dashboard", req.Context.CurrentPage)

		json.NewEncoder(w).Encode(ChatResponse{Response: "Send a short note referencing your last conversation."})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	reply, err := client.Chat(context.Background(), chatReq("how do I follow up?"))
	require.NoError(t, err)
	assert.Equal(t, "Send a short note referencing your last conversation.", reply)
}

func TestChat_RetriesOnServerError(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(ChatResponse{Response: "ok"})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	reply, err := client.Chat(context.Background(), chatReq("hi"))
	require.NoError(t, err)
	assert.Equal(t, "ok", reply)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestChat_FailsAfterRetriesExhausted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	_, err := client.Chat(context.Background(), chatReq("hi"))
	assert.ErrorIs(t, err, ErrAssistantFailed)
}

func TestChat_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		json.NewEncoder(w).Encode(ChatResponse{Response: "late"})
	}))
	defer server.Close()

	client := NewClient(&Config{
		BaseURL:    server.URL,
		ChatPath:   "/api/hey-henry",
		Timeout:    50 * time.Millisecond,
		MaxRetries: 0,
	}, logger.NewTestLogger(t))

	_, err := client.Chat(context.Background(), chatReq("hi"))
	assert.ErrorIs(t, err, ErrAssistantTimeout)
}

func TestChat_EmptyResponseIsFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ChatResponse{Response: ""})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	_, err := client.Chat(context.Background(), chatReq("hi"))
	assert.ErrorIs(t, err, ErrAssistantFailed)
}

func TestChat_MalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{not json"))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	_, err := client.Chat(context.Background(), chatReq("hi"))
	assert.ErrorIs(t, err, ErrAssistantFailed)
}
