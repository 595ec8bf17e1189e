package queue

import (
    "context"
    "encoding/json"
    "fmt"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/sirupsen/logrus"
)

// Publisher sends notification events to RabbitMQ.  Each call dials
// its own connection, so a broker outage only fails the calls made
// while it lasts.  Errors are logged and returned; callers may ignore
// them without interrupting the main request flow.
type Publisher struct {
    url string
    log *logrus.Logger
}

// NewPublisher returns a Publisher for the broker at url.
func NewPublisher(url string, log *logrus.Logger) *Publisher {
    if log == nil {
        log = logrus.StandardLogger()
    }
    return &Publisher{url: url, log: log}
}

// Publish routes ev to the queue of its channel.  Messages are
// marked as persistent.
func (p *Publisher) Publish(ctx context.Context, ev NotificationEvent) error {
    name := QueueFor(ev.Channel)
    if name == "" {
        return fmt.Errorf("no queue for channel %q", ev.Channel)
    }
    l := p.log.WithFields(logrus.Fields{"queue": name, "notification_id": ev.NotificationID})

    conn, err := amqp.Dial(p.url)
    if err != nil {
        l.WithError(err).Warn("rabbitmq: dial failed")
        return err
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        l.WithError(err).Warn("rabbitmq: channel open failed")
        return err
    }
    defer func() { _ = ch.Close() }()

    // Idempotent; durable so messages survive broker restarts.
    if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
        l.WithError(err).Warn("rabbitmq: queue declare failed")
        return err
    }

    body, err := json.Marshal(ev)
    if err != nil {
        return err
    }
    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        Timestamp:    time.Now().UTC(),
        Body:         body,
    }
    if err := ch.PublishWithContext(ctx, "", name, false, false, pub); err != nil {
        l.WithError(err).Warn("rabbitmq: publish failed")
        return err
    }
    return nil
}
