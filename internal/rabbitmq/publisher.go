package rabbitmq

import (
	"github.com/streadway/amqp"

	librabbitmq "github.com/quizory/quiz-league/internal/lib/rabbitmq"
)

// ChannelPublisher публикует сообщения через открытый канал AMQP.
type ChannelPublisher struct {
	Ch *amqp.Channel
}

// Publish отправляет сообщение в exchange с ключом маршрутизации.
func (p *ChannelPublisher) Publish(exchange, routingKey string, message any) error {
	return librabbitmq.PublishMessage(p.Ch, exchange, routingKey, message)
}
