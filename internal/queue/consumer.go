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
    "github.com/sirupsen/logrus"
)

// Consumer drains the notification queues and appends one line per
// delivered message to <dir>/notifications.log.  It stands in for a
// real mail or SMS gateway.
type Consumer struct {
    url string
    dir string
    log *logrus.Logger
}

func NewConsumer(url, dir string, log *logrus.Logger) *Consumer {
    if log == nil {
        log = logrus.StandardLogger()
    }
    if dir == "" {
        dir = "logs"
    }
    return &Consumer{url: url, dir: dir, log: log}
}

// Run connects, consumes both queues and reconnects with backoff
// until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
    backoff := time.Second
    for {
        if ctx.Err() != nil {
            return ctx.Err()
        }
        conn, err := amqp.Dial(c.url)
        if err != nil {
            c.log.WithError(err).Warnf("notification-consumer: dial failed; retrying in %s", backoff)
            if !sleep(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second

        err = c.consume(ctx, conn)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        c.log.WithError(err).Warn("notification-consumer: consume loop ended; reconnecting")
        if !sleep(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func sleep(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        c.log.WithError(err).Warn("notification-consumer: set QoS failed")
    }

    deliveries := make(chan amqp.Delivery)
    done := make(chan struct{})
    defer close(done)
    for _, name := range []string{EmailQueue, SMSQueue} {
        if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
            return fmt.Errorf("queue declare %s: %w", name, err)
        }
        msgs, err := ch.Consume(name, "", false, false, false, false, nil)
        if err != nil {
            return fmt.Errorf("queue consume %s: %w", name, err)
        }
        go func() {
            for d := range msgs {
                select {
                case deliveries <- d:
                case <-done:
                    return
                }
            }
        }()
    }

    closed := ch.NotifyClose(make(chan *amqp.Error, 1))
    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case err := <-closed:
            if err != nil {
                return err
            }
            return errors.New("channel closed")
        case d := <-deliveries:
            if err := c.handleMessage(d.Body); err != nil {
                c.log.WithError(err).Warn("notification-consumer: handle message failed")
                _ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
                continue
            }
            _ = d.Ack(false)
        }
    }
}

func (c *Consumer) handleMessage(body []byte) error {
    var ev NotificationEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if ev.NotificationID == "" || ev.RecipientID == "" {
        return errors.New("event missing ids")
    }
    if err := os.MkdirAll(c.dir, 0o755); err != nil {
        return fmt.Errorf("mkdir logs: %w", err)
    }
    f, err := os.OpenFile(filepath.Join(c.dir, "notifications.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()

    line := fmt.Sprintf("[%s] %s delivered | notification_id=%s | recipient=%s | message=%q\n",
        ev.SentAt, ev.Channel, ev.NotificationID, ev.RecipientID, ev.Message)
    if _, err := f.WriteString(line); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}
