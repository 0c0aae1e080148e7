package refine

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"henry-gateway/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsRefineCommand(t *testing.T) {
	tests := []struct {
		message string
		want    bool
	}{
		{"make it more concise", true},
		{"shorten the summary section", true},
		{"Rewrite the second bullet", true},
		{"add a bullet about the migration project", true},
		{"tone down the buzzwords", true},
		{"what does the hiring manager look for?", false},
		{"should I apply to this role?", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRefineCommand(tt.message))
		})
	}
}

func TestRefine_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/documents/refine", r.URL.Path)

		var req Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "shorten the summary", req.ChatCommand)
		assert.Equal(t, "resume", req.TargetDocument)

		json.NewEncoder(w).Encode(Response{
			UpdatedDocument:        json.RawMessage(`{"summary":"short"}`),
			ChangesSummary:         "Trimmed the summary to two lines.",
			ConversationalResponse: "Done! I tightened up your summary.",
		})
	}))
	defer server.Close()

	client := NewClient(&Config{BaseURL: server.URL, Timeout: time.Second}, logger.NewTestLogger(t))

	resp, err := client.Refine(context.Background(), &Request{
		ChatCommand:    "shorten the summary",
		TargetDocument: "resume",
		Version:        3,
	})
	require.NoError(t, err)
	assert.Equal(t, "Done! I tightened up your summary.", resp.ConversationalResponse)
	assert.JSONEq(t, `{"summary":"short"}`, string(resp.UpdatedDocument))
}

func TestRefine_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	client := NewClient(&Config{BaseURL: server.URL, Timeout: time.Second}, logger.NewTestLogger(t))

	_, err := client.Refine(context.Background(), &Request{ChatCommand: "shorten it", TargetDocument: "resume"})
	assert.ErrorIs(t, err, ErrRefineFailed)
}
