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

// Infobip is the last-resort SMS gateway: highest per-message cost but the
// widest routing, so it sits at the bottom of the fallback order.
type Infobip struct {
	baseURL    string
	apiKey     string
	sender     string
	maxRetries int
	client     *http.Client
}

func NewInfobip(baseURL, apiKey, sender string, maxRetries int) *Infobip {
	return &Infobip{
		baseURL:    baseURL,
		apiKey:     apiKey,
		sender:     sender,
		maxRetries: maxRetries,
		client:     &http.Client{Timeout: 15 * time.Second},
	}
}

func (g *Infobip) Name() string { return "infobip" }

func (g *Infobip) MaxRetries() int { return g.maxRetries }

type infobipRequest struct {
	Messages []infobipMessage `json:"messages"`
}

type infobipMessage struct {
	From         string               `json:"from"`
	Destinations []infobipDestination `json:"destinations"`
	Text         string               `json:"text"`
}

type infobipDestination struct {
	To string `json:"to"`
}

type infobipResponse struct {
	Messages []struct {
		MessageID string `json:"messageId"`
		Status    struct {
			GroupName string `json:"groupName"`
		} `json:"status"`
	} `json:"messages"`
}

func (g *Infobip) Attempt(ctx context.Context, msg fallback.Message) (*fallback.Result, error) {
	body, _ := json.Marshal(infobipRequest{
		Messages: []infobipMessage{{
			From:         g.sender,
			Destinations: []infobipDestination{{To: msg.To}},
			Text:         msg.Body,
		}},
	})

	req, err := http.NewRequestWithContext(ctx, "POST", g.baseURL+"/sms/2/text/advanced", bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "App "+g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return nil, errors.New("infobip error: " + string(data))
	}

	var result infobipResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	if len(result.Messages) == 0 {
		return nil, errors.New("infobip returned no message status")
	}
	if result.Messages[0].Status.GroupName == "REJECTED" {
		return nil, errors.New("infobip rejected message")
	}

	return &fallback.Result{Provider: g.Name(), MessageID: result.Messages[0].MessageID}, nil
}
