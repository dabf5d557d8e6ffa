package rabbitmq

type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

func GetNotificationQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: "notification.payment", RoutingKey: "payment.confirmed"},
		// при необходимости дополнительные очереди для других воркеров
	}
}
