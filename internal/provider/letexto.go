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

// LeTexto is the primary SMS gateway (best local delivery rates on Ivorian
// numbers). It implements fallback.Handler.
type LeTexto struct {
	baseURL    string
	token      string
	sender     string
	maxRetries int
	client     *http.Client
}

func NewLeTexto(baseURL, token, sender string, maxRetries int) *LeTexto {
	return &LeTexto{
		baseURL:    baseURL,
		token:      token,
		sender:     sender,
		maxRetries: maxRetries,
		client:     &http.Client{Timeout: 15 * time.Second},
	}
}

func (g *LeTexto) Name() string { return "letexto" }

func (g *LeTexto) MaxRetries() int { return g.maxRetries }

type leTextoRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Content string `json:"content"`
}

type leTextoResponse struct {
	MessageID string `json:"messageId"`
	Status    string `json:"status"`
}

func (g *LeTexto) Attempt(ctx context.Context, msg fallback.Message) (*fallback.Result, error) {
	body, _ := json.Marshal(leTextoRequest{
		From:    g.sender,
		To:      msg.To,
		Content: msg.Body,
	})

	req, err := http.NewRequestWithContext(ctx, "POST", g.baseURL+"/messages/send", bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.token)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		data, _ := io.ReadAll(resp.Body)
		return nil, errors.New("letexto error: " + string(data))
	}

	var result leTextoResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}

	return &fallback.Result{Provider: g.Name(), MessageID: result.MessageID}, nil
}
