package rabbitmq

import (
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/visaslot-backend/internal/models"
)

// NotificationPublisher публикует уведомления о подтверждённых оплатах
// в exchange "notifications" для воркера рассылки.
type NotificationPublisher struct {
	ch *amqp.Channel
}

func NewNotificationPublisher(ch *amqp.Channel) *NotificationPublisher {
	return &NotificationPublisher{ch: ch}
}

func (p *NotificationPublisher) PublishPaymentConfirmed(confirmation models.PaymentConfirmation) error {
	return PublishMessage(p.ch, "notifications", "payment.confirmed", confirmation)
}
