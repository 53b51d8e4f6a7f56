package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/ecobin-app/backend/internal/models"
)

// API is a thin client for the backend's HTTP surface. The durable HTTP
// path is authoritative; the realtime connection only accelerates it.
type API struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

func NewAPI(baseURL, token string) *API {
	return &API{
		BaseURL:    baseURL,
		Token:      token,
		HTTPClient: http.DefaultClient,
	}
}

func (a *API) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.BaseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if a.Token != "" {
		req.Header.Set("Authorization", "Bearer "+a.Token)
	}

	resp, err := a.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("request %s %s failed with status %d: %s", method, path, resp.StatusCode, string(data))
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

type sendMessageResponse struct {
	Success bool           `json:"success"`
	Message models.Message `json:"message"`
}

type markSeenResponse struct {
	Success       bool  `json:"success"`
	ModifiedCount int64 `json:"modifiedCount"`
}

// NotificationPage is one page of the notification listing.
type NotificationPage struct {
	Success       bool                  `json:"success"`
	Notifications []models.Notification `json:"notifications"`
	TotalPages    int                   `json:"totalPages"`
	CurrentPage   int                   `json:"currentPage"`
	Total         int64                 `json:"total"`
}

// Preferences is the push-settings shape returned by the server.
type Preferences struct {
	NotificationsEnabled bool                           `json:"notificationsEnabled"`
	Preferences          models.NotificationPreferences `json:"preferences"`
}

// SendMessage posts a message over the durable HTTP path.
func (a *API) SendMessage(ctx context.Context, senderID, receiverID uint, text string) (*models.Message, error) {
	req := models.SendMessageRequest{SenderID: senderID, ReceiverID: receiverID, Text: text}
	var resp sendMessageResponse
	if err := a.do(ctx, http.MethodPost, "/api/v1/messages/send", req, &resp); err != nil {
		return nil, err
	}
	return &resp.Message, nil
}

// GetConversation loads the full history between two users, oldest first.
func (a *API) GetConversation(ctx context.Context, userID, otherUserID uint) ([]models.Message, error) {
	var messages []models.Message
	path := fmt.Sprintf("/api/v1/messages/conversation/%d/%d", userID, otherUserID)
	if err := a.do(ctx, http.MethodGet, path, nil, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// ListConversations loads the per-counterpart conversation snapshots.
func (a *API) ListConversations(ctx context.Context, userID uint) ([]models.Conversation, error) {
	var conversations []models.Conversation
	path := fmt.Sprintf("/api/v1/messages/conversations/%d", userID)
	if err := a.do(ctx, http.MethodGet, path, nil, &conversations); err != nil {
		return nil, err
	}
	return conversations, nil
}

// MarkSeen flips read-state on all messages from senderID to receiverID.
func (a *API) MarkSeen(ctx context.Context, senderID, receiverID uint) (int64, error) {
	var resp markSeenResponse
	path := fmt.Sprintf("/api/v1/messages/seen/%d/%d", senderID, receiverID)
	if err := a.do(ctx, http.MethodPut, path, nil, &resp); err != nil {
		return 0, err
	}
	return resp.ModifiedCount, nil
}

// ListNotifications fetches one page of notifications.
func (a *API) ListNotifications(ctx context.Context, page, limit int, includeDeleted bool) (*NotificationPage, error) {
	var resp NotificationPage
	path := fmt.Sprintf("/api/v1/notifications?page=%d&limit=%d&includeDeleted=%t", page, limit, includeDeleted)
	if err := a.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// MarkNotificationRead marks a single notification as read.
func (a *API) MarkNotificationRead(ctx context.Context, id string) error {
	return a.do(ctx, http.MethodPut, "/api/v1/notifications/"+id+"/read", nil, nil)
}

// MarkAllNotificationsRead marks all notifications as read.
func (a *API) MarkAllNotificationsRead(ctx context.Context) error {
	return a.do(ctx, http.MethodPut, "/api/v1/notifications/mark-all-read", nil, nil)
}

// DeleteNotification soft-deletes by default; force removes permanently.
func (a *API) DeleteNotification(ctx context.Context, id string, force bool) error {
	path := "/api/v1/notifications/" + id
	if force {
		path += "?force=true"
	}
	return a.do(ctx, http.MethodDelete, path, nil, nil)
}

// RestoreNotification reverses a soft delete.
func (a *API) RestoreNotification(ctx context.Context, id string) error {
	return a.do(ctx, http.MethodPut, "/api/v1/notifications/"+id+"/restore", nil, nil)
}

// NotificationStats returns the unread/total counts.
func (a *API) NotificationStats(ctx context.Context) (*models.NotificationStats, error) {
	var resp struct {
		Success bool                     `json:"success"`
		Stats   models.NotificationStats `json:"stats"`
	}
	if err := a.do(ctx, http.MethodGet, "/api/v1/notifications/stats", nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Stats, nil
}

// GetPreferences loads the push settings.
func (a *API) GetPreferences(ctx context.Context) (*Preferences, error) {
	var resp Preferences
	if err := a.do(ctx, http.MethodGet, "/api/v1/notifications/preferences", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdatePreferences applies preference toggles.
func (a *API) UpdatePreferences(ctx context.Context, req models.UpdatePreferencesRequest) (*Preferences, error) {
	var resp Preferences
	if err := a.do(ctx, http.MethodPut, "/api/v1/notifications/preferences", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RegisterPushToken stores the device push token server-side.
func (a *API) RegisterPushToken(ctx context.Context, token string) error {
	req := models.RegisterPushTokenRequest{Token: token}
	return a.do(ctx, http.MethodPost, "/api/v1/notifications/push-token", req, nil)
}
