package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	appLog "jalaliflow/internal/log"
	"jalaliflow/internal/model"
)

// RegisterBuiltins installs the handlers available to every deployment:
//
//	log.info      logs the event name and args
//	webhook.post  POSTs the event as JSON to args[0]
//
// Inline payloads are logged.
func RegisterBuiltins(x *Executor, client *http.Client) {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	x.Register("log", "info", func(_ context.Context, ev model.RecurringEvent, args []string) error {
		appLog.Info("event fired", "id", ev.ID, "name", ev.Name, "args", args)
		return nil
	})
	x.Register("webhook", "post", func(ctx context.Context, ev model.RecurringEvent, args []string) error {
		if len(args) == 0 || args[0] == "" {
			return fmt.Errorf("webhook.post: missing url argument")
		}
		return postWebhook(ctx, client, args[0], ev)
	})
	x.HandleInline(func(_ context.Context, ev model.RecurringEvent, data []byte) error {
		appLog.Info("event fired", "id", ev.ID, "name", ev.Name, "payload", string(data))
		return nil
	})
}

type webhookBody struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Frequency string `json:"frequency"`
	RunDate   string `json:"run_date"`
}

func postWebhook(ctx context.Context, client *http.Client, url string, ev model.RecurringEvent) error {
	body, err := json.Marshal(webhookBody{
		ID:        ev.ID,
		Name:      ev.Name,
		Frequency: string(ev.Frequency),
		RunDate:   ev.NextRun,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook.post: unexpected status %s", resp.Status)
	}
	return nil
}
