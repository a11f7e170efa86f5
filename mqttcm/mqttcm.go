// Package mqttcm publishes committed registry records and the daemon
// status to an MQTT broker ("mqtt connection manager").
package mqttcm

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/eclipse/paho.golang/autopaho"
	"github.com/eclipse/paho.golang/paho"
	"go.ntppool.org/common/logger"

	"github.com/auraprotocol/diamond/version"
)

// Config is the broker connection configuration.
type Config struct {
	Broker   string `name:"broker" env:"DIAMOND_MQTT_BROKER" help:"MQTT broker URL (mqtt://, mqtts://)"`
	ClientID string `name:"client-id" env:"DIAMOND_MQTT_CLIENT_ID" default:"diamondd" help:"MQTT client id"`
	Username string `name:"username" env:"DIAMOND_MQTT_USERNAME" help:"MQTT username"`
	Password string `name:"password" env:"DIAMOND_MQTT_PASSWORD" help:"MQTT password or JWT"`
}

func (c Config) Enabled() bool {
	return c.Broker != ""
}

// Setup connects to the broker. The connection is kept up in the
// background until ctx is done; the status topic gets a retained online
// message on every connect and an offline will.
func Setup(ctx context.Context, cfg Config, topics *Topics) (*autopaho.ConnectionManager, error) {
	log := logger.FromContext(ctx).WithGroup("mqtt")

	if !cfg.Enabled() {
		return nil, errors.New("mqtt: no broker configured")
	}

	broker, err := url.Parse(cfg.Broker)
	if err != nil {
		return nil, fmt.Errorf("mqtt broker: %w", err)
	}

	statusChannel := topics.Status()

	publishOnlineMessage := func(cm *autopaho.ConnectionManager) {
		msg, err := StatusMessageJSON(true)
		if err != nil {
			log.WarnContext(ctx, "mqtt status error", "err", err)
			return
		}
		log.DebugContext(ctx, "sending mqtt status message", "topic", statusChannel)
		expireSeconds := uint32(86400)
		_, err = cm.Publish(ctx, &paho.Publish{
			Topic:   statusChannel,
			Payload: msg,
			QoS:     1,
			Retain:  true,
			Properties: &paho.PublishProperties{
				MessageExpiry: &expireSeconds,
			},
		})
		if err != nil {
			log.WarnContext(ctx, "mqtt status publish error", "err", err)
		}
	}

	offlineMessage, err := StatusMessageJSON(false)
	if err != nil {
		return nil, fmt.Errorf("status message: %w", err)
	}

	mqttcfg := autopaho.ClientConfig{
		ServerUrls:                    []*url.URL{broker},
		CleanStartOnInitialConnection: true,
		SessionExpiryInterval:         60,
		KeepAlive:                     120,

		ConnectUsername: cfg.Username,
		ConnectPassword: []byte(cfg.Password),

		WillMessage: &paho.WillMessage{
			Retain:  true,
			Topic:   statusChannel,
			Payload: offlineMessage,
		},
		WillProperties: &paho.WillProperties{
			WillDelayInterval: paho.Uint32(30),
			MessageExpiry:     paho.Uint32(86400),
		},

		OnConnectionUp: func(cm *autopaho.ConnectionManager, connAck *paho.Connack) {
			log.InfoContext(ctx, "mqtt connection up", "broker", broker.Host)
			publishOnlineMessage(cm)
		},
		OnConnectError: func(err error) {
			log.ErrorContext(ctx, "mqtt connect", "err", err)
		},
		ClientConfig: paho.ClientConfig{
			ClientID: cfg.ClientID,
			OnClientError: func(err error) {
				log.ErrorContext(ctx, "mqtt client error", "err", err)
			},
			OnServerDisconnect: func(d *paho.Disconnect) {
				if d.Properties != nil {
					log.ErrorContext(ctx, "mqtt server requested disconnect", "reason", d.Properties.ReasonString)
				} else {
					log.ErrorContext(ctx, "mqtt server requested disconnect", "reasonCode", d.ReasonCode)
				}
			},
		},
	}

	if broker.Scheme == "mqtts" || broker.Scheme == "ssl" || broker.Scheme == "tls" {
		mqttcfg.TlsCfg = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	errlog := logger.NewStdLog("mqtt error", true, logger.FromContext(ctx))
	mqttcfg.Errors = errlog
	mqttcfg.PahoErrors = errlog

	cm, err := autopaho.NewConnection(ctx, mqttcfg)
	if err != nil {
		return cm, err
	}

	go func() {
		for {
			select {
			case <-time.After(1 * time.Hour):
				publishOnlineMessage(cm)
			case <-cm.Done():
				return
			}
		}
	}()

	return cm, nil
}

type StatusMessage struct {
	Online    bool
	Version   version.Info
	UpdatedMQ time.Time
}

func StatusMessageJSON(online bool) ([]byte, error) {
	sm := &StatusMessage{
		Online:    online,
		Version:   version.VersionInfo(),
		UpdatedMQ: time.Now().Truncate(time.Second),
	}
	return json.Marshal(sm)
}
