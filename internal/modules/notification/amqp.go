package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

var ErrUnknownEvent = errors.New("unknown notification event")

type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
}

// AMQPSink publishes booking events to a durable topic exchange.
type AMQPSink struct {
	ch       publisher
	exchange string
	now      func() time.Time
}

func NewAMQPSink(ch publisher, exchange string) *AMQPSink {
	return &AMQPSink{ch: ch, exchange: exchange, now: time.Now}
}

func (s *AMQPSink) NotifyBookingConfirmed(ctx context.Context, email string, b BookingDetails, t TrainDetails) error {
	return s.publish(ctx, Event{Type: TypeBookingConfirmed, Email: email, Booking: b, Train: t})
}

func (s *AMQPSink) NotifyBookingCancelled(ctx context.Context, email string, b BookingDetails, t TrainDetails) error {
	return s.publish(ctx, Event{Type: TypeBookingCancelled, Email: email, Booking: b, Train: t})
}

func (s *AMQPSink) publish(ctx context.Context, ev Event) error {
	ev.OccurredAt = s.now().UTC()
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	err = s.ch.PublishWithContext(ctx,
		s.exchange, // exchange
		ev.Type,    // routing key
		false,      // mandatory
		false,      // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			MessageId:    ev.Booking.Reference + ":" + ev.Type,
			Timestamp:    ev.OccurredAt,
			Body:         body,
		})
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", ev.Type, err)
	}
	return nil
}

// Dial connects to the broker and declares the exchange and the notifier queue.
func Dial(url, exchange, queue string) (*amqp091.Connection, *amqp091.Channel, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("failed to open channel: %w", err)
	}
	if err := SetupTopology(ch, exchange, queue); err != nil {
		ch.Close()
		conn.Close()
		return nil, nil, err
	}
	log.Println("Connected to RabbitMQ")
	return conn, ch, nil
}

func SetupTopology(ch *amqp091.Channel, exchange, queue string) error {
	err := ch.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}

	_, err = ch.QueueDeclare(
		queue, // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", queue, err)
	}

	if err := ch.QueueBind(queue, "booking.*", exchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue %s: %w", queue, err)
	}
	return nil
}

type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

// HandleDelivery decodes one message and hands it to sink. Malformed or unknown
// messages are dropped; sink failures are requeued.
func HandleDelivery(ctx context.Context, sink Sink, body []byte, ack acknowledger) error {
	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		_ = ack.Nack(false, false)
		return fmt.Errorf("decode event: %w", err)
	}
	if err := Deliver(ctx, sink, ev); err != nil {
		_ = ack.Nack(false, !errors.Is(err, ErrUnknownEvent))
		return err
	}
	return ack.Ack(false)
}

// Consume runs until ctx is cancelled or the delivery channel closes.
func Consume(ctx context.Context, ch *amqp091.Channel, queue string, prefetch int, sink Sink, loggerf func(format string, args ...interface{})) error {
	if err := ch.Qos(prefetch, 0, false); err != nil {
		return fmt.Errorf("failed to set qos: %w", err)
	}
	deliveries, err := ch.ConsumeWithContext(ctx, queue, "railbook-notifier", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to consume %s: %w", queue, err)
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("delivery channel closed")
			}
			if err := HandleDelivery(ctx, sink, d.Body, &deliveryAck{d: d}); err != nil {
				loggerf("level=error msg=\"notification delivery failed\" message_id=%s err=%v", d.MessageId, err)
			}
		}
	}
}

type deliveryAck struct {
	d amqp091.Delivery
}

func (a *deliveryAck) Ack(multiple bool) error           { return a.d.Ack(multiple) }
func (a *deliveryAck) Nack(multiple, requeue bool) error { return a.d.Nack(multiple, requeue) }
