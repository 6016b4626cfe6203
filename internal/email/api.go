package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/yossefJiy/caravan-creator-sub000/platform/config"
)

// APISender delivers mail through the email delivery API.
type APISender struct {
	baseURL   string
	apiKey    string
	fromName  string
	fromEmail string
	client    *http.Client
}

type apiEmailRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

type apiEmailResponse struct {
	ID string `json:"id"`
}

func NewAPISender(cfg config.EmailConfig) *APISender {
	return &APISender{
		baseURL:   cfg.GetEmailAPIURL(),
		apiKey:    cfg.GetEmailAPIKey(),
		fromName:  cfg.GetEmailFromName(),
		fromEmail: cfg.GetEmailFromAddress(),
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *APISender) Send(ctx context.Context, msg Message) (string, error) {
	payload := apiEmailRequest{
		From:    fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail),
		To:      msg.To,
		Subject: msg.Subject,
		HTML:    msg.HTML,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("email send failed: status %d: %s", resp.StatusCode, string(data))
	}

	var decoded apiEmailResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		// Delivery succeeded; a missing id only loses the audit reference.
		return "", nil
	}
	return decoded.ID, nil
}
