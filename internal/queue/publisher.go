package queue

import (
    "context"
    "encoding/json"
    "fmt"
    "sync"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/rs/zerolog"
)

// Publisher sends UserEvents to a durable queue on the default exchange.
// The connection is opened lazily and re-opened after a failure.  Callers
// treat publishing as best-effort: errors are logged and returned so the
// caller can choose to ignore them.
type Publisher struct {
    url   string
    queue string
    log   zerolog.Logger

    mu   sync.Mutex
    conn *amqp.Connection
    ch   *amqp.Channel
}

func NewPublisher(url, queueName string, log zerolog.Logger) *Publisher {
    return &Publisher{url: url, queue: queueName, log: log.With().Str("component", "event-publisher").Logger()}
}

// Publish marshals ev and publishes it as a persistent message.
func (p *Publisher) Publish(ctx context.Context, ev UserEvent) error {
    msg, err := buildPublishing(ev)
    if err != nil {
        p.log.Error().Err(err).Str("event", string(ev.Type)).Msg("marshal event failed")
        return err
    }

    p.mu.Lock()
    defer p.mu.Unlock()

    ch, err := p.channel()
    if err != nil {
        p.log.Warn().Err(err).Str("event", string(ev.Type)).Msg("broker unavailable, event dropped")
        return err
    }
    if err := ch.PublishWithContext(ctx,
        "",      // default exchange
        p.queue, // routing key = queue name
        false,   // mandatory
        false,   // immediate
        msg,
    ); err != nil {
        p.log.Warn().Err(err).Str("event", string(ev.Type)).Msg("publish failed")
        p.reset()
        return err
    }
    return nil
}

// channel returns an open channel, dialing and declaring the queue when
// needed.  p.mu must be held.
func (p *Publisher) channel() (*amqp.Channel, error) {
    if p.ch != nil && !p.ch.IsClosed() {
        return p.ch, nil
    }
    p.reset()

    conn, err := amqp.DialConfig(p.url, amqp.Config{Dial: amqp.DefaultDial(5 * time.Second)})
    if err != nil {
        return nil, fmt.Errorf("dial: %w", err)
    }
    ch, err := conn.Channel()
    if err != nil {
        _ = conn.Close()
        return nil, fmt.Errorf("channel open: %w", err)
    }
    // Durable so messages survive broker restarts.
    if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
        _ = ch.Close()
        _ = conn.Close()
        return nil, fmt.Errorf("queue declare: %w", err)
    }
    p.conn, p.ch = conn, ch
    return ch, nil
}

func (p *Publisher) reset() {
    if p.ch != nil {
        _ = p.ch.Close()
        p.ch = nil
    }
    if p.conn != nil {
        _ = p.conn.Close()
        p.conn = nil
    }
}

// Close releases the broker connection.
func (p *Publisher) Close() error {
    p.mu.Lock()
    defer p.mu.Unlock()
    p.reset()
    return nil
}

func buildPublishing(ev UserEvent) (amqp.Publishing, error) {
    body, err := json.Marshal(ev)
    if err != nil {
        return amqp.Publishing{}, err
    }
    return amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent, // store on disk
        MessageId:    ev.ID,
        Type:         string(ev.Type),
        Timestamp:    ev.OccurredAt,
        Body:         body,
    }, nil
}
