// Package notifyclient provides a notification state container for API
// consumers. A Client keeps a local view of the user's notifications in sync
// through periodic polling and, optionally, realtime events fed in by a
// Bridge. Mutations are applied optimistically and every failure is surfaced
// through the returned error and the OnError callback, never swallowed.
package notifyclient

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"
)

// DefaultPollInterval is the fallback cadence for background refreshes. It is
// deliberately coarse; polling is the backstop, realtime events are the fast
// path.
const DefaultPollInterval = 30 * time.Second

// Notification mirrors the API representation of a notification.
type Notification struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	Link      string         `json:"link,omitempty"`
	TenderID  string         `json:"tender_id,omitempty"`
	Read      bool           `json:"read"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Category groups notification types for presentation. Unknown types fall
// back to CategoryGeneral rather than failing; the server may introduce new
// types before every consumer is updated.
type Category string

const (
	CategoryDeadline Category = "deadline"
	CategoryOutcome  Category = "outcome"
	CategoryTeam     Category = "team"
	CategoryGeneral  Category = "general"
)

// Category maps the notification type to its presentation group.
func (n Notification) Category() Category {
	switch n.Type {
	case "TENDER_DEADLINE_7D", "TENDER_DEADLINE_3D", "TENDER_DEADLINE_24H":
		return CategoryDeadline
	case "TENDER_WON", "TENDER_LOST":
		return CategoryOutcome
	case "TEAM_INVITE", "NEW_COMMENT":
		return CategoryTeam
	default:
		return CategoryGeneral
	}
}

// Snapshot is a point-in-time copy of the client state.
type Snapshot struct {
	Notifications []Notification
	UnreadCount   int64
	Loading       bool
}

// Transport abstracts the notification API so the client can be exercised
// against a real server or a test double.
type Transport interface {
	Fetch(ctx context.Context, unreadOnly bool, limit int) ([]Notification, int64, error)
	MarkRead(ctx context.Context, ids []string) error
	MarkAllRead(ctx context.Context) error
	Delete(ctx context.Context, ids []string) error
}

// Config configures a Client.
type Config struct {
	Transport    Transport
	PollInterval time.Duration // defaults to DefaultPollInterval
	OnError      func(error)   // invoked for background failures; may be nil
}

// Client holds the notification state for one user session. All methods are
// safe for concurrent use.
type Client struct {
	transport    Transport
	pollInterval time.Duration
	onError      func(error)

	mu            sync.RWMutex
	notifications []Notification
	unreadCount   int64
	loading       bool

	closeOnce sync.Once
	started   bool
	stop      chan struct{}
	done      chan struct{}
}

// New constructs a Client. Start must be called to begin polling.
func New(cfg Config) (*Client, error) {
	if cfg.Transport == nil {
		return nil, errors.New("notifyclient: transport is required")
	}

	interval := cfg.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	return &Client{
		transport:    cfg.Transport,
		pollInterval: interval,
		onError:      cfg.OnError,
		stop:         make(chan struct{}),
		done:         make(chan struct{}),
	}, nil
}

// Start performs an initial refresh and launches the background poll loop.
// The initial fetch error is returned so callers can render it; the poller
// keeps running regardless, so a transient failure heals on the next tick.
func (c *Client) Start(ctx context.Context) error {
	c.mu.Lock()
	alreadyStarted := c.started
	c.started = true
	c.mu.Unlock()
	if alreadyStarted {
		return errors.New("notifyclient: already started")
	}

	err := c.Refresh(ctx)

	go c.pollLoop(ctx)

	return err
}

// Close stops the poll loop. It is safe to call more than once, or without a
// prior Start.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.stop)

		c.mu.RLock()
		started := c.started
		c.mu.RUnlock()
		if started {
			<-c.done
		}
	})
}

func (c *Client) pollLoop(ctx context.Context) {
	defer close(c.done)

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.Refresh(ctx); err != nil {
				c.reportError(err)
			}
		}
	}
}

// Refresh fetches the current server state and replaces the local view. On
// failure the previous state is left untouched.
func (c *Client) Refresh(ctx context.Context) error {
	c.setLoading(true)
	defer c.setLoading(false)

	notifications, unread, err := c.transport.Fetch(ctx, false, 0)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.notifications = notifications
	c.unreadCount = unread
	c.mu.Unlock()
	return nil
}

// State returns a copy of the current client state.
func (c *Client) State() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	notifications := make([]Notification, len(c.notifications))
	copy(notifications, c.notifications)
	return Snapshot{
		Notifications: notifications,
		UnreadCount:   c.unreadCount,
		Loading:       c.loading,
	}
}

// MarkRead marks the supplied notifications read locally and on the server.
// When the server call fails the optimistic update is rolled back and the
// error returned.
func (c *Client) MarkRead(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	previous := c.State()
	c.applyMarkRead(ids)

	if err := c.transport.MarkRead(ctx, ids); err != nil {
		c.restore(previous)
		c.reportError(err)
		return err
	}
	return nil
}

// MarkAllRead marks every notification read locally and on the server.
func (c *Client) MarkAllRead(ctx context.Context) error {
	previous := c.State()
	c.applyMarkAllRead()

	if err := c.transport.MarkAllRead(ctx); err != nil {
		c.restore(previous)
		c.reportError(err)
		return err
	}
	return nil
}

// Delete removes the supplied notifications locally and on the server.
func (c *Client) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	previous := c.State()
	c.applyDelete(ids)

	if err := c.transport.Delete(ctx, ids); err != nil {
		c.restore(previous)
		c.reportError(err)
		return err
	}
	return nil
}

// Event is a realtime payload applied to the local state.
type Event struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// ApplyEvent feeds a realtime event through the state reducer. Unknown events
// are ignored so new server events never break older clients. Applying the
// same event twice converges to the same state.
func (c *Client) ApplyEvent(event Event) {
	switch event.Event {
	case "notification.created":
		var payload struct {
			Notification Notification `json:"notification"`
		}
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			c.reportError(err)
			return
		}
		c.upsert(payload.Notification)
	case "notification.read":
		var payload struct {
			NotificationIDs []string `json:"notification_ids"`
		}
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			c.reportError(err)
			return
		}
		c.applyMarkRead(payload.NotificationIDs)
	case "notification.read_all":
		c.applyMarkAllRead()
	case "notification.deleted":
		var payload struct {
			NotificationIDs []string `json:"notification_ids"`
		}
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			c.reportError(err)
			return
		}
		c.applyDelete(payload.NotificationIDs)
	}
}

// upsert inserts or replaces a notification by id. On a conflict the copy
// with the newer UpdatedAt wins, and a notification that is already read
// locally never reverts to unread; stale events must not resurrect badges.
func (c *Client) upsert(incoming Notification) {
	if incoming.ID == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for i, existing := range c.notifications {
		if existing.ID != incoming.ID {
			continue
		}
		if incoming.UpdatedAt.Before(existing.UpdatedAt) {
			return
		}
		if existing.Read && !incoming.Read {
			incoming.Read = true
		}
		if existing.Read != incoming.Read {
			if incoming.Read {
				c.decrementUnreadLocked()
			} else {
				c.unreadCount++
			}
		}
		c.notifications[i] = incoming
		c.sortLocked()
		return
	}

	c.notifications = append(c.notifications, incoming)
	if !incoming.Read {
		c.unreadCount++
	}
	c.sortLocked()
}

func (c *Client) applyMarkRead(ids []string) {
	wanted := idSet(ids)

	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.notifications {
		if _, ok := wanted[c.notifications[i].ID]; !ok {
			continue
		}
		if !c.notifications[i].Read {
			c.notifications[i].Read = true
			c.decrementUnreadLocked()
		}
	}
}

func (c *Client) applyMarkAllRead() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.notifications {
		c.notifications[i].Read = true
	}
	c.unreadCount = 0
}

func (c *Client) applyDelete(ids []string) {
	wanted := idSet(ids)

	c.mu.Lock()
	defer c.mu.Unlock()

	kept := c.notifications[:0]
	for _, notification := range c.notifications {
		if _, ok := wanted[notification.ID]; ok {
			if !notification.Read {
				c.decrementUnreadLocked()
			}
			continue
		}
		kept = append(kept, notification)
	}
	c.notifications = kept
}

func (c *Client) restore(snapshot Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notifications = snapshot.Notifications
	c.unreadCount = snapshot.UnreadCount
}

func (c *Client) setLoading(loading bool) {
	c.mu.Lock()
	c.loading = loading
	c.mu.Unlock()
}

func (c *Client) decrementUnreadLocked() {
	if c.unreadCount > 0 {
		c.unreadCount--
	}
}

func (c *Client) sortLocked() {
	sort.SliceStable(c.notifications, func(i, j int) bool {
		return c.notifications[i].CreatedAt.After(c.notifications[j].CreatedAt)
	})
}

func (c *Client) reportError(err error) {
	if c.onError != nil && err != nil {
		c.onError(err)
	}
}

func idSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
