package client

import (
	"context"
	"sync"

	"github.com/ecobin-app/backend/internal/models"
)

// NotificationAPI is the slice of the HTTP API the notification center
// needs. *API satisfies it.
type NotificationAPI interface {
	ListNotifications(ctx context.Context, page, limit int, includeDeleted bool) (*NotificationPage, error)
	MarkNotificationRead(ctx context.Context, id string) error
	MarkAllNotificationsRead(ctx context.Context) error
	DeleteNotification(ctx context.Context, id string, force bool) error
	RestoreNotification(ctx context.Context, id string) error
	GetPreferences(ctx context.Context) (*Preferences, error)
	UpdatePreferences(ctx context.Context, req models.UpdatePreferencesRequest) (*Preferences, error)
	RegisterPushToken(ctx context.Context, token string) error
}

// NotificationCenter loads and paginates the notification store, exposes
// preference toggles, and presents incoming items.
type NotificationCenter struct {
	api      NotificationAPI
	pageSize int

	// OnIncoming presents a freshly received notification locally.
	OnIncoming func(models.Notification)

	mu         sync.Mutex
	items      []models.Notification
	known      map[string]bool
	page       int
	totalPages int
}

func NewNotificationCenter(api NotificationAPI, pageSize int) *NotificationCenter {
	if pageSize <= 0 {
		pageSize = 20
	}
	return &NotificationCenter{
		api:      api,
		pageSize: pageSize,
		known:    make(map[string]bool),
	}
}

// Refresh reloads the first page, dropping local state.
func (c *NotificationCenter) Refresh(ctx context.Context) error {
	resp, err := c.api.ListNotifications(ctx, 1, c.pageSize, false)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.items = resp.Notifications
	c.known = make(map[string]bool, len(resp.Notifications))
	for _, n := range resp.Notifications {
		c.known[n.ID.Hex()] = true
	}
	c.page = resp.CurrentPage
	c.totalPages = resp.TotalPages
	c.mu.Unlock()
	return nil
}

// LoadMore appends the next page, if any.
func (c *NotificationCenter) LoadMore(ctx context.Context) error {
	c.mu.Lock()
	if c.totalPages > 0 && c.page >= c.totalPages {
		c.mu.Unlock()
		return nil
	}
	next := c.page + 1
	c.mu.Unlock()

	resp, err := c.api.ListNotifications(ctx, next, c.pageSize, false)
	if err != nil {
		return err
	}

	c.mu.Lock()
	for _, n := range resp.Notifications {
		key := n.ID.Hex()
		if c.known[key] {
			continue
		}
		c.known[key] = true
		c.items = append(c.items, n)
	}
	c.page = resp.CurrentPage
	c.totalPages = resp.TotalPages
	c.mu.Unlock()
	return nil
}

// Receive presents an incoming notification and prepends it locally.
func (c *NotificationCenter) Receive(n models.Notification) {
	c.mu.Lock()
	key := n.ID.Hex()
	if c.known[key] {
		c.mu.Unlock()
		return
	}
	c.known[key] = true
	c.items = append([]models.Notification{n}, c.items...)
	c.mu.Unlock()

	if c.OnIncoming != nil {
		c.OnIncoming(n)
	}
}

// MarkRead marks one item read, server first, then locally.
func (c *NotificationCenter) MarkRead(ctx context.Context, id string) error {
	if err := c.api.MarkNotificationRead(ctx, id); err != nil {
		return err
	}
	c.mu.Lock()
	for i := range c.items {
		if c.items[i].ID.Hex() == id {
			c.items[i].Read = true
		}
	}
	c.mu.Unlock()
	return nil
}

// MarkAllRead marks everything read.
func (c *NotificationCenter) MarkAllRead(ctx context.Context) error {
	if err := c.api.MarkAllNotificationsRead(ctx); err != nil {
		return err
	}
	c.mu.Lock()
	for i := range c.items {
		c.items[i].Read = true
	}
	c.mu.Unlock()
	return nil
}

// Delete soft-deletes (or force-deletes) an item and removes it locally.
func (c *NotificationCenter) Delete(ctx context.Context, id string, force bool) error {
	if err := c.api.DeleteNotification(ctx, id, force); err != nil {
		return err
	}
	c.mu.Lock()
	for i := range c.items {
		if c.items[i].ID.Hex() == id {
			c.items = append(c.items[:i], c.items[i+1:]...)
			delete(c.known, id)
			break
		}
	}
	c.mu.Unlock()
	return nil
}

// Restore reverses a soft delete server-side; the next Refresh picks the
// item back up.
func (c *NotificationCenter) Restore(ctx context.Context, id string) error {
	return c.api.RestoreNotification(ctx, id)
}

// Preferences loads the current push settings.
func (c *NotificationCenter) Preferences(ctx context.Context) (*Preferences, error) {
	return c.api.GetPreferences(ctx)
}

// UpdatePreferences applies preference toggles.
func (c *NotificationCenter) UpdatePreferences(ctx context.Context, req models.UpdatePreferencesRequest) (*Preferences, error) {
	return c.api.UpdatePreferences(ctx, req)
}

// RegisterPushToken registers the device token for push delivery.
func (c *NotificationCenter) RegisterPushToken(ctx context.Context, token string) error {
	return c.api.RegisterPushToken(ctx, token)
}

// Items returns a copy of the loaded notifications, newest first.
func (c *NotificationCenter) Items() []models.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Notification, len(c.items))
	copy(out, c.items)
	return out
}
