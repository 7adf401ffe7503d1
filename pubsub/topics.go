package pubsub

// Topic names used across CleanCity services.
const (
	TopicRewardEvents       = "reward.events"
	TopicReportEvents       = "report.events"
	TopicRecyclingEvents    = "recycling.events"
	TopicNotificationEvents = "notification.events"
)
