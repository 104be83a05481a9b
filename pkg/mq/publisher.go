package mq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"focusdesk/pkg/otel"
)

var (
	ErrPublisherClosed = errors.New("publisher is closed")
	ErrNacked          = errors.New("broker nacked message")
)

const confirmTimeout = 5 * time.Second

// Publisher 以 confirm 模式发布 JSON 事件。amqp channel 不能并发发布，
// Publish 串行执行；连接断开后下一次 Publish 会重连一次。
type Publisher struct {
	url    string
	logger *zap.Logger

	mu      sync.Mutex
	conn    *amqp091.Connection
	channel *amqp091.Channel
	closed  bool
}

func NewPublisher(url string, logger *zap.Logger) (*Publisher, error) {
	p := &Publisher{url: url, logger: logger}
	if err := p.connect(); err != nil {
		return nil, err
	}
	return p, nil
}

// connect 需持有 mu（构造时除外）
func (p *Publisher) connect() error {
	conn, err := NewConnection(p.url)
	if err != nil {
		return err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to open channel: %w", err)
	}
	if err := DeclareExchange(ch); err != nil {
		conn.Close()
		return fmt.Errorf("failed to declare exchange: %w", err)
	}
	if err := ch.Confirm(false); err != nil {
		conn.Close()
		return fmt.Errorf("failed to enable publisher confirms: %w", err)
	}
	p.conn, p.channel = conn, ch
	return nil
}

func (p *Publisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.conn, p.channel = nil, nil
}

// Publish 发布 payload 并等待 broker 确认
func (p *Publisher) Publish(ctx context.Context, routingKey string, payload any) (err error) {
	ctx, span := otel.MQPublishSpan(ctx, ExchangeName, routingKey)
	defer func() { otel.End(span, err) }()

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", routingKey, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPublisherClosed
	}
	if p.conn == nil || p.conn.IsClosed() {
		p.logger.Warn("RabbitMQ connection lost, reconnecting")
		if err := p.connect(); err != nil {
			return err
		}
	}

	confirm, err := p.channel.PublishWithDeferredConfirmWithContext(
		ctx,
		ExchangeName,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Headers:      amqp091.Table(otel.InjectHeaders(ctx, nil)),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, confirmTimeout)
	defer cancel()
	acked, err := confirm.WaitContext(waitCtx)
	if err != nil {
		return fmt.Errorf("confirm %s: %w", routingKey, err)
	}
	if !acked {
		return fmt.Errorf("%w: %s", ErrNacked, routingKey)
	}
	return nil
}
