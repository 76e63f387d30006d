package push

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"shortcut-relay.backend/internal/config"
	"shortcut-relay.backend/internal/domain/entities"
)

func newTestDispatcher(serverURL string) *HTTPDispatcher {
	return NewHTTPDispatcher(&config.PushConfig{
		SandboxURL:    serverURL,
		ProductionURL: serverURL,
		AuthToken:     "push-token",
		Timeout:       2 * time.Second,
	})
}

func TestSend_Success(t *testing.T) {
	var got dispatchPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/notifications", r.URL.Path)
		assert.Equal(t, "Bearer push-token", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"notificationId": "n-1",
			"externalId":     "apns-42",
		})
	}))
	defer server.Close()

	result, err := newTestDispatcher(server.URL).Send(context.Background(), &DispatchRequest{
		SecretToken:  "raw-device-secret",
		ShortcutID:   "com.example.shortcut",
		ShortcutName: "Morning Routine",
		Payload:      `{"input":"hi"}`,
		Environment:  entities.PushEnvironmentProduction,
	})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "n-1", result.NotificationID)
	assert.Equal(t, "apns-42", result.ExternalID)
	assert.Equal(t, http.StatusOK, result.StatusCode)
	assert.Equal(t, "raw-device-secret", got.DeviceToken)
	assert.Equal(t, "Morning Routine", got.ShortcutName)
}

func TestSend_StatusMapping(t *testing.T) {
	tests := []struct {
		status int
		reason FailureReason
	}{
		{http.StatusBadRequest, ReasonInvalidPayload},
		{http.StatusUnauthorized, ReasonAuth},
		{http.StatusForbidden, ReasonAuth},
		{http.StatusNotFound, ReasonSecretInvalid},
		{http.StatusGone, ReasonSecretInvalid},
		{http.StatusRequestEntityTooLarge, ReasonPayloadTooLarge},
		{http.StatusTooManyRequests, ReasonRateLimited},
		{http.StatusInternalServerError, ReasonServerError},
		{http.StatusServiceUnavailable, ReasonServerError},
	}
	for _, tc := range tests {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		}))

		result, err := newTestDispatcher(server.URL).Send(context.Background(), &DispatchRequest{
			SecretToken: "s",
			ShortcutID:  "sc",
			Environment: entities.PushEnvironmentProduction,
		})
		server.Close()
		require.NoError(t, err)
		assert.False(t, result.Success, "status %d", tc.status)
		assert.Equal(t, tc.reason, result.FailureReason, "status %d", tc.status)
		assert.Equal(t, tc.status, result.StatusCode)
	}
}

func TestSend_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused

	result, err := newTestDispatcher(server.URL).Send(context.Background(), &DispatchRequest{
		SecretToken: "s",
		ShortcutID:  "sc",
		Environment: entities.PushEnvironmentProduction,
	})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, ReasonTransport, result.FailureReason)
}

func TestSend_SandboxSelectsSandboxHost(t *testing.T) {
	hits := 0
	sandbox := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusOK)
	}))
	defer sandbox.Close()

	d := NewHTTPDispatcher(&config.PushConfig{
		SandboxURL:    sandbox.URL,
		ProductionURL: "http://127.0.0.1:1", // must not be contacted
		Timeout:       2 * time.Second,
	})
	result, err := d.Send(context.Background(), &DispatchRequest{
		SecretToken: "s",
		ShortcutID:  "sc",
		Environment: entities.PushEnvironmentSandbox,
	})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 1, hits)
}

func TestSend_NilRequest(t *testing.T) {
	_, err := newTestDispatcher("http://example.invalid").Send(context.Background(), nil)
	assert.Error(t, err)
}
