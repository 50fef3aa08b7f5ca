package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/iamwsll/poker-score-release/internal/room"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Client is the thin request/response wrapper around the room API. It exists
// for the optimistic-write path: responses are fed into the store through the
// same primitives the event stream uses.
type Client struct {
	httpClient *http.Client
	origin     string
	sessionID  string
}

func NewClient(origin, sessionID string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		origin:     origin,
		sessionID:  sessionID,
	}
}

// response is the server's uniform envelope; code 0 means success.
type response struct {
	Code    int                 `json:"code"`
	Message string              `json:"message"`
	Data    jsoniter.RawMessage `json:"data"`
}

// GetRoomInfo fetches the authoritative room snapshot.
func (c *Client) GetRoomInfo(ctx context.Context, roomID int64) (room.Snapshot, error) {
	var snap room.Snapshot
	if err := c.get(ctx, fmt.Sprintf("/api/rooms/%d", roomID), &snap); err != nil {
		return room.Snapshot{}, err
	}
	return snap, nil
}

// GetRoomOperations fetches the operation history, most recent first.
func (c *Client) GetRoomOperations(ctx context.Context, roomID int64) ([]room.Operation, error) {
	var data struct {
		Operations []room.Operation `json:"operations"`
		Total      int64            `json:"total"`
	}
	if err := c.get(ctx, fmt.Sprintf("/api/rooms/%d/operations", roomID), &data); err != nil {
		return nil, err
	}
	return data.Operations, nil
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.origin+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.sessionID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("GET %s: read body: %w", path, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: status %d", path, resp.StatusCode)
	}

	var envelope response
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("GET %s: decode envelope: %w", path, err)
	}
	if envelope.Code != 0 {
		return fmt.Errorf("GET %s: server error %d: %s", path, envelope.Code, envelope.Message)
	}

	if out != nil && len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("GET %s: decode data: %w", path, err)
		}
	}
	return nil
}
