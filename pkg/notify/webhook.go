package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	shttp "github.com/shashiranjanraj/shopdesk/pkg/http"
	"github.com/shashiranjanraj/shopdesk/pkg/logger"
	"github.com/shashiranjanraj/shopdesk/pkg/workerpool"
)

// SlackAttachment is a single Slack message attachment block.
type SlackAttachment struct {
	Color  string `json:"color,omitempty"` // "good" | "warning" | "danger"
	Title  string `json:"title,omitempty"`
	Text   string `json:"text,omitempty"`
	Footer string `json:"footer,omitempty"`
}

type slackMessage struct {
	Text        string            `json:"text"`
	Attachments []SlackAttachment `json:"attachments,omitempty"`
}

// Webhook posts toasts to a Slack-compatible incoming webhook. Delivery runs
// on the pool; a full pool drops the toast with a warning.
type Webhook struct {
	URL  string
	pool *workerpool.Pool
}

// NewWebhook returns a Webhook notifier delivering on pool.
func NewWebhook(url string, pool *workerpool.Pool) *Webhook {
	return &Webhook{URL: url, pool: pool}
}

func (w *Webhook) Notify(ctx context.Context, t Toast) {
	log := logger.WithCtx(ctx)
	err := w.pool.Submit(func() {
		if err := w.Send(context.Background(), t); err != nil {
			log.Error("notify: webhook delivery failed", "title", t.Title, "error", err)
		}
	})
	if errors.Is(err, workerpool.ErrPoolFull) || errors.Is(err, workerpool.ErrPoolClosed) {
		log.Warn("notify: toast dropped", "title", t.Title, "error", err)
	}
}

// Send delivers t synchronously.
func (w *Webhook) Send(ctx context.Context, t Toast) error {
	msg := slackMessage{
		Text: t.Title,
		Attachments: []SlackAttachment{{
			Color:  color(t.Level),
			Title:  t.Title,
			Text:   t.Message,
			Footer: t.Action,
		}},
	}

	resp, err := shttp.Post(w.URL).
		Body(msg).
		Timeout(10 * time.Second).
		WithContext(ctx).
		Send()
	if err != nil {
		return err
	}
	if !resp.OK() {
		return fmt.Errorf("notify: webhook returned %d: %s", resp.StatusCode, resp.Text())
	}
	return nil
}

func color(l Level) string {
	switch l {
	case LevelSuccess:
		return "good"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "danger"
	default:
		return ""
	}
}
