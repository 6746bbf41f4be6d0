package realtime

// Named realtime streams used across the platform.
const (
	StreamNotifications = "notifications"
	StreamTenders       = "tenders"
)

// Notification stream events.
const (
	EventNotificationCreated = "notification.created"
	EventNotificationRead    = "notification.read"
	EventNotificationReadAll = "notification.read_all"
	EventNotificationDeleted = "notification.deleted"
	EventTenderUpdated       = "tender.updated"
)
