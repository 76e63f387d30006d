package push

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"shortcut-relay.backend/internal/config"
	"shortcut-relay.backend/internal/domain/entities"
	"shortcut-relay.backend/pkg/logger"
)

// HTTPDispatcher delivers notifications over the push service's HTTP API
type HTTPDispatcher struct {
	sandboxURL    string
	productionURL string
	authToken     string
	client        *http.Client
}

// NewHTTPDispatcher creates a dispatcher from config
func NewHTTPDispatcher(cfg *config.PushConfig) *HTTPDispatcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPDispatcher{
		sandboxURL:    cfg.SandboxURL,
		productionURL: cfg.ProductionURL,
		authToken:     cfg.AuthToken,
		client:        &http.Client{Timeout: timeout},
	}
}

type dispatchPayload struct {
	DeviceToken  string `json:"deviceToken"`
	ShortcutID   string `json:"shortcutId"`
	ShortcutName string `json:"shortcutName"`
	Payload      string `json:"payload,omitempty"`
}

type dispatchResponse struct {
	NotificationID string `json:"notificationId"`
	ExternalID     string `json:"externalId"`
	Error          string `json:"error"`
}

// Send posts one notification and maps the upstream status to a result.
// Transport failures come back as a failed result, not an error.
func (d *HTTPDispatcher) Send(ctx context.Context, req *DispatchRequest) (*DispatchResult, error) {
	if req == nil {
		return nil, errors.New("nil dispatch request")
	}

	baseURL := d.productionURL
	if req.Environment == entities.PushEnvironmentSandbox {
		baseURL = d.sandboxURL
	}
	if baseURL == "" {
		return nil, errors.New("push endpoint not configured")
	}

	body, err := json.Marshal(dispatchPayload{
		DeviceToken:  req.SecretToken,
		ShortcutID:   req.ShortcutID,
		ShortcutName: req.ShortcutName,
		Payload:      req.Payload,
	})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/v1/notifications", baseURL), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if d.authToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+d.authToken)
	}

	resp, err := d.client.Do(httpReq)
	if err != nil {
		logger.Error(ctx, "push dispatch transport failure", zap.Error(err))
		return &DispatchResult{Success: false, FailureReason: ReasonTransport}, nil
	}
	defer resp.Body.Close()

	var parsed dispatchResponse
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	_ = json.Unmarshal(respBody, &parsed)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		notificationID := parsed.NotificationID
		if notificationID == "" {
			notificationID = uuid.New().String()
		}
		return &DispatchResult{
			Success:        true,
			NotificationID: notificationID,
			ExternalID:     parsed.ExternalID,
			StatusCode:     resp.StatusCode,
		}, nil
	}

	return &DispatchResult{
		Success:       false,
		FailureReason: reasonForStatus(resp.StatusCode),
		StatusCode:    resp.StatusCode,
	}, nil
}

func reasonForStatus(status int) FailureReason {
	switch status {
	case http.StatusBadRequest:
		return ReasonInvalidPayload
	case http.StatusUnauthorized, http.StatusForbidden:
		return ReasonAuth
	case http.StatusGone, http.StatusNotFound:
		return ReasonSecretInvalid
	case http.StatusRequestEntityTooLarge:
		return ReasonPayloadTooLarge
	case http.StatusTooManyRequests:
		return ReasonRateLimited
	default:
		return ReasonServerError
	}
}
