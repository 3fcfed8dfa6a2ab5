package notify

import (
	"context"
	"time"

	"wisefido-tenants/internal/domain"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// WebhookNotifier 把租户生命周期事件 POST 到外部回调地址。
// 带重试；最终失败只记日志。
type WebhookNotifier struct {
	client *resty.Client
	url    string
	logger *zap.Logger
}

var _ Notifier = (*WebhookNotifier)(nil)

func NewWebhookNotifier(url string, logger *zap.Logger) *WebhookNotifier {
	client := resty.New().
		SetTimeout(10 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second).
		SetHeader("Content-Type", "application/json")

	return &WebhookNotifier{client: client, url: url, logger: logger}
}

func (n *WebhookNotifier) TenantEvent(ctx context.Context, event string, t *domain.Tenant) {
	resp, err := n.client.R().
		SetContext(ctx).
		SetBody(newEvent(event, t)).
		Post(n.url)
	if err != nil {
		n.logger.Warn("webhook delivery failed",
			zap.String("event", event),
			zap.String("client_id", t.ClientID),
			zap.Error(err),
		)
		return
	}
	if resp.IsError() {
		n.logger.Warn("webhook returned error status",
			zap.String("event", event),
			zap.String("client_id", t.ClientID),
			zap.Int("status_code", resp.StatusCode()),
		)
	}
}
