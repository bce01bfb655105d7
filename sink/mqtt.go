package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/icodeforyou/entsoe-go/config"
	"github.com/icodeforyou/entsoe-go/types"
)

const publishTimeout = 10 * time.Second

type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// MQTT publishes every record as a JSON message on
// <prefix>/<kind>/<area>, QoS 1.
type MQTT struct {
	client publisher
	logger *slog.Logger
	prefix string
}

// NewMQTT connects to the broker of cnfg.
func NewMQTT(cnfg config.AppConfigMqtt) (*MQTT, error) {
	logger := slog.Default().With("module", "mqtt_sink")
	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cnfg.Broker, cnfg.Port))
	opts.SetClientID(cnfg.GetClientID())
	opts.SetUsername(cnfg.Username)
	opts.SetPassword(cnfg.Password)
	opts.SetAutoReconnect(true)
	opts.OnConnect = func(client mqtt.Client) {
		logger.Info("MQTT connected", slog.String("broker", cnfg.Broker))
	}
	opts.OnConnectionLost = func(client mqtt.Client, err error) {
		logger.Warn("MQTT connection lost", slog.Any("error", err))
	}

	mqttLogger := slog.Default().With("module", "mqtt")
	mqtt.CRITICAL = newMqttLogger(mqttLogger, slog.LevelError)
	mqtt.ERROR = newMqttLogger(mqttLogger, slog.LevelError)
	mqtt.WARN = newMqttLogger(mqttLogger, slog.LevelWarn)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connecting to MQTT broker: %w", token.Error())
	}

	return newMQTT(client, logger, cnfg.GetTopicPrefix()), nil
}

func newMQTT(client publisher, logger *slog.Logger, prefix string) *MQTT {
	return &MQTT{client: client, logger: logger, prefix: prefix}
}

func (m *MQTT) Publish(ctx context.Context, kind types.Kind, area string, records []types.FlatRecord) error {
	topic := Topic(m.prefix, kind, area)
	for _, r := range records {
		payload, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("encoding record: %w", err)
		}
		token := m.client.Publish(topic, 1, false, payload)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-token.Done():
		case <-time.After(publishTimeout):
			return fmt.Errorf("publishing to %s: timeout", topic)
		}
		if err := token.Error(); err != nil {
			return fmt.Errorf("publishing to %s: %w", topic, err)
		}
	}
	m.logger.Debug("records published", slog.String("topic", topic), slog.Int("records", len(records)))
	return nil
}

func (m *MQTT) Close() error {
	m.client.Disconnect(250)
	return nil
}
