// Package rest is the HTTP boundary to the remote chat system.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dkeye/Chat/internal/domain"
)

// APIError carries the remote status and message of a failed call.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

type Client struct {
	baseURL    string
	apiKey     string
	userID     domain.UserID
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string, userID domain.UserID) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		userID:     userID,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) SessionUser() domain.UserID { return c.userID }

func (c *Client) doRequest(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(respBody, &errResp)
		return nil, &APIError{Status: resp.StatusCode, Message: errResp.Error}
	}

	return respBody, nil
}

func (c *Client) post(ctx context.Context, path string, payload any) ([]byte, error) {
	var body []byte
	if payload != nil {
		var err error
		if body, err = json.Marshal(payload); err != nil {
			return nil, err
		}
	}
	return c.doRequest(ctx, http.MethodPost, path, body)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	respBody, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	return json.Unmarshal(respBody, out)
}

// FetchRoom loads one room record.
func (c *Client) FetchRoom(ctx context.Context, id domain.RoomID) (domain.Room, error) {
	var room domain.Room
	err := c.get(ctx, "/rooms/"+string(id), &room)
	return room, err
}

// FetchRooms loads every room this session belongs to.
func (c *Client) FetchRooms(ctx context.Context) ([]domain.Room, error) {
	var rooms []domain.Room
	err := c.get(ctx, "/rooms", &rooms)
	return rooms, err
}

func (c *Client) JoinRoom(ctx context.Context, id domain.RoomID) error {
	_, err := c.post(ctx, "/rooms/"+string(id)+"/join", nil)
	return err
}

func (c *Client) LeaveRoom(ctx context.Context, id domain.RoomID) error {
	_, err := c.post(ctx, "/rooms/"+string(id)+"/leave", nil)
	return err
}

func (c *Client) InviteToRoom(ctx context.Context, id domain.RoomID, user domain.UserID) error {
	_, err := c.post(ctx, "/rooms/"+string(id)+"/invite", map[string]domain.UserID{"user": user})
	return err
}

func (c *Client) SendMessage(ctx context.Context, id domain.RoomID, body string) (domain.Message, error) {
	respBody, err := c.post(ctx, "/rooms/"+string(id)+"/message", map[string]string{"body": body})
	if err != nil {
		return domain.Message{}, err
	}

	var msg domain.Message
	if err := json.Unmarshal(respBody, &msg); err != nil {
		return domain.Message{}, err
	}
	return msg, nil
}

func (c *Client) SendCustom(ctx context.Context, id domain.RoomID, body, subtag string, msgCtx map[string]string) (domain.Message, error) {
	payload := struct {
		Body    string            `json:"body"`
		Subtag  string            `json:"subtag"`
		Context map[string]string `json:"context,omitempty"`
	}{Body: body, Subtag: subtag, Context: msgCtx}

	respBody, err := c.post(ctx, "/rooms/"+string(id)+"/custom", payload)
	if err != nil {
		return domain.Message{}, err
	}

	var msg domain.Message
	if err := json.Unmarshal(respBody, &msg); err != nil {
		return domain.Message{}, err
	}
	return msg, nil
}

func (c *Client) SetMark(ctx context.Context, id domain.RoomID, ts domain.Timestamp) error {
	_, err := c.post(ctx, "/rooms/"+string(id)+"/mark", map[string]domain.Timestamp{"timestamp": ts})
	return err
}

func (c *Client) SendTyping(ctx context.Context, id domain.RoomID) error {
	_, err := c.post(ctx, "/rooms/"+string(id)+"/typing", nil)
	return err
}

func (c *Client) RoomHistory(ctx context.Context, id domain.RoomID, offset, limit int) (domain.Paginated, error) {
	var page domain.Paginated
	path := fmt.Sprintf("/rooms/%s/history?offset=%d&limit=%d", id, offset, limit)
	err := c.get(ctx, path, &page)
	return page, err
}

func (c *Client) RoomHistoryLast(ctx context.Context, id domain.RoomID, count int) (domain.Paginated, error) {
	var page domain.Paginated
	path := fmt.Sprintf("/rooms/%s/history/last?count=%d", id, count)
	err := c.get(ctx, path, &page)
	return page, err
}

func (c *Client) RoomUsers(ctx context.Context, id domain.RoomID) ([]domain.UserID, error) {
	var users []domain.UserID
	err := c.get(ctx, "/rooms/"+string(id)+"/users", &users)
	return users, err
}

// FetchCall loads one call record.
func (c *Client) FetchCall(ctx context.Context, id domain.CallID) (domain.Call, error) {
	var call domain.Call
	err := c.get(ctx, "/calls/"+string(id), &call)
	return call, err
}

// FetchActiveCalls loads the calls this session currently takes part in.
func (c *Client) FetchActiveCalls(ctx context.Context) ([]domain.Call, error) {
	var calls []domain.Call
	err := c.get(ctx, "/calls/active", &calls)
	return calls, err
}

func (c *Client) JoinCall(ctx context.Context, id domain.CallID) error {
	_, err := c.post(ctx, "/calls/"+string(id)+"/join", nil)
	return err
}

func (c *Client) LeaveCall(ctx context.Context, id domain.CallID, reason string) error {
	_, err := c.post(ctx, "/calls/"+string(id)+"/leave", map[string]string{"reason": reason})
	return err
}

func (c *Client) InviteToCall(ctx context.Context, id domain.CallID, user domain.UserID) error {
	_, err := c.post(ctx, "/calls/"+string(id)+"/invite", map[string]domain.UserID{"user": user})
	return err
}

func (c *Client) AnswerCall(ctx context.Context, id domain.CallID) error {
	_, err := c.post(ctx, "/calls/"+string(id)+"/answer", nil)
	return err
}

func (c *Client) RejectCall(ctx context.Context, id domain.CallID, reason string) error {
	_, err := c.post(ctx, "/calls/"+string(id)+"/reject", map[string]string{"reason": reason})
	return err
}

func (c *Client) PullCall(ctx context.Context, id domain.CallID) error {
	_, err := c.post(ctx, "/calls/"+string(id)+"/pull", nil)
	return err
}

func (c *Client) CallHistory(ctx context.Context, id domain.CallID, offset, limit int) (domain.Paginated, error) {
	var page domain.Paginated
	path := fmt.Sprintf("/calls/%s/history?offset=%d&limit=%d", id, offset, limit)
	err := c.get(ctx, path, &page)
	return page, err
}

func (c *Client) CallUsers(ctx context.Context, id domain.CallID) ([]domain.UserID, error) {
	var users []domain.UserID
	err := c.get(ctx, "/calls/"+string(id)+"/users", &users)
	return users, err
}
