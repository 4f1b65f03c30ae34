package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"photoshare/logger"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

const EVENTS_EXCHANGE = "photoshare_events"

// AMQPPublisher публикует события в topic exchange
type AMQPPublisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
}

// NewAMQPPublisher инициализирует соединение и exchange
func NewAMQPPublisher(url string) (*AMQPPublisher, error) {
	if url == "" {
		return nil, fmt.Errorf("RabbitMQ URL is empty")
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	if err := channel.ExchangeDeclare(
		EVENTS_EXCHANGE,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,   // args
	); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}
	logger.Log.WithField("exchange", EVENTS_EXCHANGE).Info("RabbitMQ initialized")
	return &AMQPPublisher{conn: conn, channel: channel, exchange: EVENTS_EXCHANGE}, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, routingKey string, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.channel.PublishWithContext(ctx,
		p.exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}

func (p *AMQPPublisher) Close() error {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// StartNotificationConsumer слушает события user.* и пушит их через WebSocket.
// У каждого инстанса своя временная очередь: соединения пользователей живут в памяти процесса.
func (p *AMQPPublisher) StartNotificationConsumer(ctx context.Context, ws *WSConnManager) error {
	channel, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open consumer channel: %w", err)
	}
	q, err := channel.QueueDeclare(
		"",
		false, // durable
		true,  // auto-delete
		true,  // exclusive
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}
	if err := channel.QueueBind(q.Name, "user.*", p.exchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue: %w", err)
	}
	msgs, err := channel.Consume(
		q.Name,
		"",
		true,  // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to start consumer: %w", err)
	}

	go func() {
		defer channel.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					logger.Log.Warn("notification consumer channel closed")
					return
				}
				if err := deliverNotification(ws, msg.Body); err != nil {
					logger.Log.WithFields(logrus.Fields{"routing_key": msg.RoutingKey}).
						WithError(err).Warn("failed to deliver notification")
				}
			}
		}
	}()
	return nil
}

// deliverNotification отправляет событие во все WebSocket-соединения получателя
func deliverNotification(ws *WSConnManager, body []byte) error {
	var event Event
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("failed to unmarshal event: %w", err)
	}
	if event.UserID == "" {
		return fmt.Errorf("event %q has no recipient", event.Type)
	}
	ws.Send(event.UserID, body)
	return nil
}
