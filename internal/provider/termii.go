package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/sikafe/rentpay/internal/fallback"
)

// Termii is the second-ranked SMS gateway. The API key travels in the
// request body per their convention.
type Termii struct {
	baseURL    string
	apiKey     string
	sender     string
	maxRetries int
	client     *http.Client
}

func NewTermii(baseURL, apiKey, sender string, maxRetries int) *Termii {
	return &Termii{
		baseURL:    baseURL,
		apiKey:     apiKey,
		sender:     sender,
		maxRetries: maxRetries,
		client:     &http.Client{Timeout: 15 * time.Second},
	}
}

func (g *Termii) Name() string { return "termii" }

func (g *Termii) MaxRetries() int { return g.maxRetries }

type termiiRequest struct {
	To      string `json:"to"`
	From    string `json:"from"`
	SMS     string `json:"sms"`
	Type    string `json:"type"`
	Channel string `json:"channel"`
	APIKey  string `json:"api_key"`
}

type termiiResponse struct {
	MessageID string `json:"message_id"`
	Code      string `json:"code"`
}

func (g *Termii) Attempt(ctx context.Context, msg fallback.Message) (*fallback.Result, error) {
	body, _ := json.Marshal(termiiRequest{
		To:      msg.To,
		From:    g.sender,
		SMS:     msg.Body,
		Type:    "plain",
		Channel: "generic",
		APIKey:  g.apiKey,
	})

	req, err := http.NewRequestWithContext(ctx, "POST", g.baseURL+"/sms/send", bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return nil, errors.New("termii error: " + string(data))
	}

	var result termiiResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	if result.Code != "ok" {
		return nil, errors.New("termii rejected message: code " + result.Code)
	}

	return &fallback.Result{Provider: g.Name(), MessageID: result.MessageID}, nil
}
