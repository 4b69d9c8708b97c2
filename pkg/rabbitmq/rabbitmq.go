package rabbitmq

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"joints/internal/observability"

	amqp "github.com/streadway/amqp"
)

// EventsQueue receives every domain event the app publishes.
const EventsQueue = "joints_events"

// Client holds the RabbitMQ connection and channel.
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	mu      sync.Mutex // amqp channels are not safe for concurrent publishes
}

// Config holds RabbitMQ connection details.
type Config struct {
	URL string
}

// Event is the envelope published for every domain event.
type Event struct {
	Type    string                 `json:"type"`
	Payload map[string]interface{} `json:"payload"`
}

// NewClient connects to RabbitMQ, opens a channel and declares the events queue.
func NewClient(cfg Config) (*Client, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if _, err := declareEventsQueue(ch); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	observability.Log.WithField("queue", EventsQueue).Info("RabbitMQ client connected")

	return &Client{
		conn:    conn,
		channel: ch,
	}, nil
}

func declareEventsQueue(ch *amqp.Channel) (amqp.Queue, error) {
	q, err := ch.QueueDeclare(
		EventsQueue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return q, fmt.Errorf("failed to declare %s: %w", EventsQueue, err)
	}
	return q, nil
}

// Close closes the RabbitMQ connection and channel.
func (c *Client) Close() error {
	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("multiple errors occurred during RabbitMQ client close: %v", errs)
	}
	return nil
}

// EncodeEvent builds the JSON body published for an event.
func EncodeEvent(routingKey string, payload map[string]interface{}) ([]byte, error) {
	body, err := json.Marshal(Event{Type: routingKey, Payload: payload})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event %s: %w", routingKey, err)
	}
	return body, nil
}

// PublishEvent publishes a persistent event message to the events queue.
func (c *Client) PublishEvent(routingKey string, payload map[string]interface{}) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available")
	}

	body, err := EncodeEvent(routingKey, payload)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	err = c.channel.Publish(
		"",          // default exchange
		EventsQueue, // routing key: the queue name
		false,       // mandatory
		false,       // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Type:         routingKey,
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		})
	if err != nil {
		return fmt.Errorf("failed to publish event %s: %w", routingKey, err)
	}
	return nil
}

// ConsumeEvents registers a consumer on the events queue and hands each
// decoded event to handler in a background goroutine. Messages the handler
// fails on are requeued once; a redelivered failure is dropped.
func (c *Client) ConsumeEvents(handler func(Event) error) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available for consumption")
	}

	queue, err := declareEventsQueue(c.channel)
	if err != nil {
		return err
	}

	msgs, err := c.channel.Consume(
		queue.Name,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	go func() {
		for msg := range msgs {
			handleDelivery(msg, handler)
		}
	}()

	return nil
}

// handleDelivery decodes one delivery and acks it once handler succeeds.
// Malformed bodies are dropped; a failed handler gets one redelivery.
func handleDelivery(msg amqp.Delivery, handler func(Event) error) {
	var event Event
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		observability.Log.WithError(err).WithField("delivery_tag", msg.DeliveryTag).Warn("dropping malformed event")
		if nackErr := msg.Nack(false, false); nackErr != nil {
			observability.Log.WithError(nackErr).Error("failed to nack event")
		}
		return
	}
	if err := handler(event); err != nil {
		observability.Log.WithError(err).WithField("event", event.Type).Warn("event handler failed")
		if nackErr := msg.Nack(false, !msg.Redelivered); nackErr != nil {
			observability.Log.WithError(nackErr).Error("failed to nack event")
		}
		return
	}
	if ackErr := msg.Ack(false); ackErr != nil {
		observability.Log.WithError(ackErr).Error("failed to ack event")
	}
}

// LogEvent is a consumer handler that records activity in the application log.
func LogEvent(event Event) error {
	observability.Log.WithField("event", event.Type).WithField("payload", event.Payload).Info("activity")
	return nil
}
