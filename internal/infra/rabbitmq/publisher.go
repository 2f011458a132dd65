package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"lpk-quiz-service/internal/domain"
)

const (
	defaultExchange = "quiz.events"
	redialInterval  = 5 * time.Second
)

var errUnavailable = errors.New("rabbitmq unavailable")

// channel is the part of *amqp091.Channel the publisher uses.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	NotifyClose(receiver chan *amqp091.Error) chan *amqp091.Error
	Close() error
}

// session is one connection and its publishing channel. closed fires when the
// broker or the network ends either of them.
type session struct {
	ch     channel
	conn   io.Closer
	closed chan *amqp091.Error
}

func (s *session) close() {
	if err := s.ch.Close(); err != nil && !errors.Is(err, amqp091.ErrClosed) {
		log.Printf("close rabbitmq channel: %v", err)
	}
	if s.conn != nil {
		if err := s.conn.Close(); err != nil && !errors.Is(err, amqp091.ErrClosed) {
			log.Printf("close rabbitmq connection: %v", err)
		}
	}
}

// Publisher sends domain events to a topic exchange, routed by event type.
// With an empty URI it is disabled and drops events. A closed connection is
// redialed on the next Publish, at most once per redial interval.
type Publisher struct {
	exchange string
	dial     func() (*session, error)
	now      func() time.Time

	mu       sync.Mutex
	sess     *session
	lastDial time.Time
}

func NewPublisher(uri, exchange string) (*Publisher, error) {
	if exchange == "" {
		exchange = defaultExchange
	}
	if uri == "" {
		log.Println("rabbitmq uri is empty, event publishing is disabled")
		return &Publisher{exchange: exchange}, nil
	}

	p := newPublisher(exchange, func() (*session, error) { return dialSession(uri, exchange) })
	p.lastDial = p.now()
	sess, err := p.dial()
	if err != nil {
		return nil, err
	}
	p.sess = sess
	log.Printf("event publisher ready on exchange %s", exchange)
	return p, nil
}

func newPublisher(exchange string, dial func() (*session, error)) *Publisher {
	return &Publisher{exchange: exchange, dial: dial, now: time.Now}
}

func dialSession(uri, exchange string) (*session, error) {
	conn, err := amqp091.Dial(uri)
	if err != nil {
		return nil, fmt.Errorf("connect rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	err = ch.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	// a closed connection closes its channels, so one watch covers both
	return &session{ch: ch, conn: conn, closed: ch.NotifyClose(make(chan *amqp091.Error, 1))}, nil
}

func (p *Publisher) Publish(ctx context.Context, event domain.Event) error {
	if p.dial == nil {
		return nil
	}
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	// amqp channels are not safe for concurrent publishing
	p.mu.Lock()
	defer p.mu.Unlock()
	sess, err := p.session()
	if err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	err = sess.ch.PublishWithContext(ctx,
		p.exchange,         // exchange
		string(event.Type), // routing key
		false,              // mandatory
		false,              // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
			Headers: amqp091.Table{
				"event_type": string(event.Type),
				"user_id":    event.UserID,
				"quiz_id":    event.QuizID,
			},
		},
	)
	if err != nil {
		if errors.Is(err, amqp091.ErrClosed) {
			sess.close()
			p.sess = nil
		}
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// session returns a live session, redialing when the last one was closed.
// Callers hold p.mu.
func (p *Publisher) session() (*session, error) {
	if p.sess != nil {
		select {
		case amqpErr := <-p.sess.closed:
			log.Printf("rabbitmq connection lost: %v", amqpErr)
			p.sess.close()
			p.sess = nil
		default:
			return p.sess, nil
		}
	}

	now := p.now()
	if !p.lastDial.IsZero() && now.Sub(p.lastDial) < redialInterval {
		return nil, errUnavailable
	}
	p.lastDial = now
	sess, err := p.dial()
	if err != nil {
		return nil, err
	}
	log.Printf("rabbitmq reconnected on exchange %s", p.exchange)
	p.sess = sess
	return sess, nil
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sess != nil {
		p.sess.close()
		p.sess = nil
	}
	return nil
}
