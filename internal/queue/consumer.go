package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/rs/zerolog"
)

const auditLogFile = "user-audit.log"

// AuditConsumer drains the user events queue into an append-only audit log.
type AuditConsumer struct {
    URL   string
    Queue string
    Dir   string
    Log   zerolog.Logger
}

// Run connects to the broker, declares the queue (durable), and consumes
// messages until ctx is cancelled.  Each message is appended to
// <Dir>/user-audit.log as one line.  Connection failures are retried with
// exponential backoff capped at 30s.  Malformed messages are rejected
// without requeue.
func (a *AuditConsumer) Run(ctx context.Context) {
    log := a.Log.With().Str("component", "audit-consumer").Logger()
    backoff := time.Second
    for {
        if ctx.Err() != nil {
            return
        }
        conn, err := amqp.Dial(a.URL)
        if err != nil {
            log.Warn().Err(err).Dur("retry_in", backoff).Msg("failed to dial broker")
            if !sleepCtx(ctx, backoff) {
                return
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second // reset after successful connect

        err = a.consumeLoop(ctx, conn, log)
        _ = conn.Close()
        if ctx.Err() != nil {
            return
        }
        log.Warn().Err(err).Msg("consume loop ended, reconnecting")
        if !sleepCtx(ctx, 2*time.Second) {
            return
        }
    }
}

func (a *AuditConsumer) consumeLoop(ctx context.Context, conn *amqp.Connection, log zerolog.Logger) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        log.Warn().Err(err).Msg("set QoS failed")
    }
    if _, err := ch.QueueDeclare(a.Queue, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    msgs, err := ch.Consume(a.Queue, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok := <-msgs:
            if !ok {
                return errors.New("deliveries channel closed")
            }
            if err := handleMessage(a.Dir, d.Body); err != nil {
                log.Error().Err(err).Str("message_id", d.MessageId).Msg("handle message failed")
                _ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
                continue
            }
            _ = d.Ack(false)
        }
    }
}

func handleMessage(dir string, body []byte) error {
    var ev UserEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if ev.Type == "" || ev.Username == "" {
        return errors.New("event without type or username")
    }
    if err := os.MkdirAll(dir, 0o755); err != nil {
        return fmt.Errorf("mkdir %s: %w", dir, err)
    }
    f, err := os.OpenFile(filepath.Join(dir, auditLogFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()

    actor := ev.Actor
    if actor == "" {
        actor = "self"
    }
    line := fmt.Sprintf("[%s] %s | event_id=%s | user_id=%d | username=%q | email=%q | role=%s | actor=%s\n",
        ev.OccurredAt.UTC().Format(time.RFC3339), ev.Type, ev.ID, ev.UserID, ev.Username, ev.Email, ev.Role, actor)
    if _, err := f.WriteString(line); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}
