package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/example/dairyshop/pkg/config"
)

// EmailClient calls the transactional email provider's send endpoint.
type EmailClient struct {
	cfg        *config.EmailConfig
	httpClient *http.Client
}

func NewEmailClient(cfg *config.EmailConfig) *EmailClient {
	return &EmailClient{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

type sendRequest struct {
	From     string                 `json:"from"`
	To       string                 `json:"to"`
	Template string                 `json:"template"`
	Data     map[string]interface{} `json:"data"`
}

func (c *EmailClient) Send(ctx context.Context, msg Message) error {
	body, err := json.Marshal(sendRequest{
		From:     c.cfg.From,
		To:       msg.To,
		Template: msg.Template,
		Data:     msg.Data,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("email provider returned %d: %s", resp.StatusCode, detail)
	}
	return nil
}
