package channel

import (
	"context"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// pushTimeout bounds each push POST so one unresponsive endpoint cannot
// stall a delivery batch.
const pushTimeout = 10 * time.Second

// defaultPriority is the ntfy message priority (1-5 scale).
const defaultPriority = "3"

// PushSender publishes messages to an ntfy-compatible server over HTTP
// POST with the Title/Priority/Click header contract.
type PushSender struct {
	server string
	client *resty.Client
}

// NewPushSender creates a push sender targeting the given server URL.
func NewPushSender(server string) *PushSender {
	return &PushSender{
		server: strings.TrimRight(server, "/"),
		client: resty.New().SetTimeout(pushTimeout),
	}
}

// Publish posts one message to a topic. clickURL, when non-empty, is
// attached as the notification's click target.
func (s *PushSender) Publish(ctx context.Context, topic, title, message, clickURL string) Result {
	if s.server == "" || topic == "" {
		return ResultTransientFailure
	}

	req := s.client.R().
		SetContext(ctx).
		SetHeader("Title", title).
		SetHeader("Priority", defaultPriority).
		SetBody(message)
	if clickURL != "" {
		req.SetHeader("Click", clickURL)
	}

	resp, err := req.Post(s.server + "/" + topic)
	if err != nil {
		return ResultTransientFailure
	}
	if !resp.IsSuccess() {
		return ResultTransientFailure
	}
	return ResultSent
}
