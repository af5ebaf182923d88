package taskname

const (
	// Notification tasks
	NotificationSubscriptionSuccess = "notification:subscription:success"
)
