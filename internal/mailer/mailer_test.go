package mailer

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendTriggersWorkflow(t *testing.T) {
	var captured triggerRequest
	var headers http.Header

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers = r.Header.Clone()
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &captured))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	n := NewNovu("secret-key", srv.URL, "emailerworkflow")
	err := n.Send(context.Background(), "reader@example.com", "<html>digest</html>")
	require.NoError(t, err)

	assert.Equal(t, "ApiKey secret-key", headers.Get("Authorization"))
	assert.Equal(t, "emailerworkflow", captured.Name)
	assert.Equal(t, "reader@example.com", captured.To.Email)
	assert.NotEmpty(t, captured.To.SubscriberID)
	assert.Equal(t, "<html>digest</html>", captured.Payload.Message)
}

func TestSendFreshSubscriberPerSend(t *testing.T) {
	var ids []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req triggerRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		ids = append(ids, req.To.SubscriberID)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	n := NewNovu("k", srv.URL, "")
	require.NoError(t, n.Send(context.Background(), "a@example.com", "x"))
	require.NoError(t, n.Send(context.Background(), "a@example.com", "x"))

	require.Len(t, ids, 2)
	assert.NotEqual(t, ids[0], ids[1])
}

func TestSendSurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad api key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	n := NewNovu("wrong", srv.URL, "")
	err := n.Send(context.Background(), "a@example.com", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}
