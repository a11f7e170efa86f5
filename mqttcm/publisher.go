package mqttcm

import (
	"context"
	"encoding/json"
	"time"

	"github.com/eclipse/paho.golang/paho"
	"go.ntppool.org/common/logger"

	"github.com/auraprotocol/diamond/diamond"
)

const publishTimeout = 10 * time.Second

// Client is the publishing side of an MQTT connection;
// *autopaho.ConnectionManager implements it.
type Client interface {
	Publish(ctx context.Context, p *paho.Publish) (*paho.PublishResponse, error)
}

// Publisher sends every committed record to the cuts topic. It implements
// diamond.Notifier.
type Publisher struct {
	client Client
	topic  string
}

func NewPublisher(client Client, topics *Topics) *Publisher {
	return &Publisher{client: client, topic: topics.Cuts()}
}

// Notify publishes rec with QoS 1, retained so new subscribers see the
// latest state. Failures are logged; the record is already committed.
func (p *Publisher) Notify(ctx context.Context, rec *diamond.Record) {
	log := logger.FromContext(ctx)

	payload, err := json.Marshal(rec)
	if err != nil {
		log.ErrorContext(ctx, "could not encode record", "seq", rec.Seq, "err", err)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	_, err = p.client.Publish(ctx, &paho.Publish{
		Topic:   p.topic,
		Payload: payload,
		QoS:     1,
		Retain:  true,
		Properties: &paho.PublishProperties{
			ContentType: "application/json",
		},
	})
	if err != nil {
		log.WarnContext(ctx, "mqtt publish error", "topic", p.topic, "seq", rec.Seq, "err", err)
		return
	}
	log.DebugContext(ctx, "published record", "topic", p.topic, "seq", rec.Seq)
}
