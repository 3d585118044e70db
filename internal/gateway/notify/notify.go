package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"pharmadispatch/internal/domain"
)

// Notification is the push payload sent to the external notification service.
type Notification struct {
	CourierID  int64     `json:"courier_id"`
	DeliveryID int64     `json:"delivery_id"`
	OrderID    string    `json:"order_id"`
	AssignedAt time.Time `json:"assigned_at"`
}

// StatusError is a non-2xx response from the notification service.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return "notify gateway: unexpected status " + strconv.Itoa(e.Code)
}

// HTTPGateway pushes assignment notifications over HTTP.
type HTTPGateway struct {
	baseURL string
	client  *http.Client
}

// NewHTTPGateway creates a notification gateway. A nil gateway is returned
// when no base URL is configured, so a deployment without the push service
// still starts.
func NewHTTPGateway(baseURL string, client *http.Client) *HTTPGateway {
	if strings.TrimSpace(baseURL) == "" {
		return nil
	}
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &HTTPGateway{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

// NotifyAssigned tells the push service which courier got which delivery.
func (g *HTTPGateway) NotifyAssigned(ctx context.Context, r domain.AssignResult) error {
	body, err := json.Marshal(Notification{
		CourierID:  r.CourierID,
		DeliveryID: r.DeliveryID,
		OrderID:    r.OrderID,
		AssignedAt: r.AssignedAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("notify gateway: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/push/assignment", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("notify gateway: request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("notify gateway: push: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Code: resp.StatusCode}
	}
	return nil
}
