package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	aiport "peer-match/internal/ai"
	"peer-match/internal/config"
	"peer-match/internal/domain/profile"
)

const defaultMaxRetries = 3

// slot-specific expansion instructions; the model reply is used verbatim as
// the expanded text.
var expandPrompts = map[profile.Slot]string{
	profile.SlotWhoYouAre:            "Expand this self-description of a person's background, skills and experience into a richer paragraph full of synonyms and related concepts. Reply with the expanded text only.",
	profile.SlotWhoYouAreLookingFor:  "Expand this description of the kind of mentor or learning partner a person is looking for into a richer paragraph full of synonyms and related concepts. Reply with the expanded text only.",
	profile.SlotMentoringSubjects:    "Expand this list of subjects a person can mentor others in into a richer description naming related topics and skills. Reply with the expanded text only.",
	profile.SlotProfessionalServices: "Expand this list of professional services a person offers into a richer description naming related services and skills. Reply with the expanded text only.",
}

// Client talks to an OpenAI-compatible API: chat completions for text
// expansion and /embeddings for vectors.
type Client struct {
	baseURL     string
	apiKey      string
	expandModel string
	embedModel  string
	client      *http.Client
	maxRetries  int
}

func NewClient(cfg config.AIConfig) *Client {
	base := strings.TrimSuffix(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = "https://api.openai.com/v1"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:     base,
		apiKey:      cfg.APIKey,
		expandModel: cfg.ExpandModel,
		embedModel:  cfg.EmbedModel,
		client:      &http.Client{Timeout: timeout},
		maxRetries:  defaultMaxRetries,
	}
}

func (c *Client) Expand(ctx context.Context, text string, slot profile.Slot) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", nil
	}

	prompt, ok := expandPrompts[slot]
	if !ok {
		return "", fmt.Errorf("%w: unknown slot %q", aiport.ErrExpansion, slot)
	}

	req := chatRequest{
		Model: c.expandModel,
		Messages: []chatMessage{
			{Role: "system", Content: prompt},
			{Role: "user", Content: text},
		},
	}

	var resp chatResponse
	if err := c.post(ctx, "/chat/completions", req, &resp); err != nil {
		return "", fmt.Errorf("%w: %v", aiport.ErrExpansion, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty response", aiport.ErrExpansion)
	}

	out := strings.TrimSpace(resp.Choices[0].Message.Content)
	if out == "" {
		return "", fmt.Errorf("%w: empty expansion", aiport.ErrExpansion)
	}
	return out, nil
}

func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	req := embeddingRequest{Model: c.embedModel, Input: text}

	var resp embeddingResponse
	if err := c.post(ctx, "/embeddings", req, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", aiport.ErrEmbedding, err)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("%w: no embedding returned", aiport.ErrEmbedding)
	}
	return resp.Data[0].Embedding, nil
}

// post sends a JSON request with bounded retries on 429/5xx and transport
// errors, honoring Retry-After when present.
func (c *Client) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(retryDelay(attempt - 1)):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("provider status %s", resp.Status)
			if ra := resp.Header.Get("Retry-After"); ra != "" {
				if secs, perr := strconv.Atoi(ra); perr == nil && secs > 0 {
					_ = resp.Body.Close()
					select {
					case <-ctx.Done():
						return ctx.Err()
					case <-time.After(time.Duration(secs) * time.Second):
					}
					continue
				}
			}
			_ = resp.Body.Close()
			continue
		}

		payload, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode >= 300 {
			return fmt.Errorf("provider status %s", resp.Status)
		}
		return json.Unmarshal(payload, out)
	}
	return lastErr
}

func retryDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	d := 200 * time.Millisecond << attempt
	if d > 5*time.Second {
		d = 5 * time.Second
	}
	return d
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type embeddingRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}
