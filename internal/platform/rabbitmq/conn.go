// Package rabbitmq owns the AMQP connection and a reopenable publishing channel.
package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

// SanitizeURL trims quotes and stray prefixes operators paste around the URL
// and checks the scheme.
func SanitizeURL(raw string) (string, error) {
	clean := strings.Trim(strings.TrimSpace(raw), "\"'")
	if idx := strings.Index(strings.ToLower(clean), "amqp"); idx > 0 {
		clean = clean[idx:]
	}
	u, err := url.Parse(clean)
	if err != nil {
		return "", fmt.Errorf("parse AMQP URL: %w", err)
	}
	if u.Scheme != "amqp" && u.Scheme != "amqps" {
		return "", errors.New("AMQP scheme must be either 'amqp://' or 'amqps://'")
	}
	return clean, nil
}

// Conn is a connection with one publishing channel.
type Conn struct {
	conn *amqp091.Connection

	mu sync.Mutex
	ch *amqp091.Channel
}

// Dial connects with a bounded dial timeout.
func Dial(rawURL string) (*Conn, error) {
	clean, err := SanitizeURL(rawURL)
	if err != nil {
		return nil, err
	}
	conn, err := amqp091.DialConfig(clean, amqp091.Config{Dial: amqp091.DefaultDial(10 * time.Second)})
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open rabbitmq channel: %w", err)
	}
	return &Conn{conn: conn, ch: ch}, nil
}

// DeclareTopicExchange declares a durable topic exchange.
func (c *Conn) DeclareTopicExchange(name string) error {
	return c.withChannel(func(ch *amqp091.Channel) error {
		return ch.ExchangeDeclare(name, "topic", true, false, false, false, nil)
	})
}

// Publish sends one JSON message. A failed publish reopens the channel and
// retries once.
func (c *Conn) Publish(ctx context.Context, exchange, routingKey string, msg amqp091.Publishing) error {
	return c.withChannel(func(ch *amqp091.Channel) error {
		return ch.PublishWithContext(ctx, exchange, routingKey, false, false, msg)
	})
}

func (c *Conn) withChannel(fn func(*amqp091.Channel) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	err := fn(c.ch)
	if err == nil {
		return nil
	}
	ch, chErr := c.conn.Channel()
	if chErr != nil {
		return errors.Join(err, chErr)
	}
	_ = c.ch.Close()
	c.ch = ch
	return fn(c.ch)
}

func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ch != nil {
		_ = c.ch.Close()
	}
	return c.conn.Close()
}
