package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"wisefido-tenants/internal/domain"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

// MQTTConfig MQTT 事件发布配置
type MQTTConfig struct {
	Broker   string
	ClientID string
	Username string
	Password string
	Topic    string
	QoS      byte
}

// MQTTNotifier 把租户生命周期事件发布到 MQTT 主题。
// 发布失败只记日志，不影响 provisioning 流程。
type MQTTNotifier struct {
	client mqtt.Client
	topic  string
	qos    byte
	logger *zap.Logger
}

var _ Notifier = (*MQTTNotifier)(nil)

func NewMQTTNotifier(cfg MQTTConfig, logger *zap.Logger) (*MQTTNotifier, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	return &MQTTNotifier{
		client: client,
		topic:  cfg.Topic,
		qos:    cfg.QoS,
		logger: logger,
	}, nil
}

func (n *MQTTNotifier) TenantEvent(_ context.Context, event string, t *domain.Tenant) {
	payload, err := json.Marshal(newEvent(event, t))
	if err != nil {
		n.logger.Warn("failed to marshal tenant event", zap.String("event", event), zap.Error(err))
		return
	}

	token := n.client.Publish(n.topic, n.qos, false, payload)
	if !token.WaitTimeout(5 * time.Second) {
		n.logger.Warn("MQTT publish timed out",
			zap.String("event", event),
			zap.String("client_id", t.ClientID),
		)
		return
	}
	if err := token.Error(); err != nil {
		n.logger.Warn("MQTT publish failed",
			zap.String("event", event),
			zap.String("client_id", t.ClientID),
			zap.Error(err),
		)
	}
}

// Close 断开 MQTT 连接
func (n *MQTTNotifier) Close() {
	n.client.Disconnect(250)
}
