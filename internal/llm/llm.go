// Package llm is a thin client for an OpenAI-compatible chat completions
// endpoint, used for two things: extracting structured item intents from
// chat messages and ranking candidate plans against a stated preference.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/kartquake/kartquake/internal/model"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-4o-mini"
)

var ErrNotConfigured = errors.New("llm: no api key configured")

type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

type Client struct {
	cfg        Config
	httpClient *http.Client
}

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Temperature    float64       `json:"temperature"`
	ResponseFormat struct {
		Type string `json:"type"`
	} `json:"response_format"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// chatJSON runs one completion in JSON mode and returns the raw message
// content. Transport errors and 5xx responses are retried with backoff.
func (c *Client) chatJSON(ctx context.Context, temperature float64, system, user string) ([]byte, error) {
	if c.cfg.APIKey == "" {
		return nil, ErrNotConfigured
	}

	req := chatRequest{
		Model:       c.cfg.Model,
		Temperature: temperature,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	}
	req.ResponseFormat.Type = "json_object"

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal chat request: %w", err)
	}

	var content []byte
	backoff := retry.WithMaxRetries(2, retry.NewExponential(500*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
			c.cfg.BaseURL+"/chat/completions", bytes.NewReader(payload))
		if err != nil {
			return err
		}
		httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return retry.RetryableError(err)
		}
		if resp.StatusCode >= 500 {
			return retry.RetryableError(fmt.Errorf("llm: status %d", resp.StatusCode))
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("llm: status %d: %s", resp.StatusCode, body)
		}

		var parsed chatResponse
		if err := json.Unmarshal(body, &parsed); err != nil {
			return fmt.Errorf("decode chat response: %w", err)
		}
		if len(parsed.Choices) == 0 {
			return errors.New("llm: empty choices")
		}
		content = []byte(parsed.Choices[0].Message.Content)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return content, nil
}

// IntentDraft is one extracted item before persistence.
type IntentDraft struct {
	RawText           string
	CanonicalCategory string
	Attributes        map[string]any
	Quantity          int
}

// Extraction is the result of intent extraction. Exactly two shapes exist:
// a Clarification question, or a list of drafts with a reply.
type Extraction interface {
	extraction()
	AssistantReply() string
}

// Clarification means the message looked like shopping but was too vague to
// act on.
type Clarification struct {
	Reply string
}

// IntentList carries the extracted drafts.
type IntentList struct {
	Reply   string
	Intents []IntentDraft
}

func (Clarification) extraction() {}
func (IntentList) extraction()    {}

func (c Clarification) AssistantReply() string { return c.Reply }
func (l IntentList) AssistantReply() string    { return l.Reply }

const extractSystemPrompt = `You are a shopping assistant that extracts purchase intents from chat messages.

Respond with a single JSON object:
{
  "needs_clarification": boolean,
  "reply": string,
  "intents": [
    {
      "raw_text": string,
      "canonical_category": one of "milk", "eggs", "cereal", "tablet", "detergent", "other",
      "attributes": object with keys like "fat_level", "volume", "lactose_free", "brand", "egg_size", "flavor", "type",
      "quantity": integer, default 1
    }
  ]
}

Set needs_clarification true and ask one short question in "reply" when the message is about shopping but too vague to extract items. When the message is not about shopping at all, return an empty intents list with a friendly reply. Never invent items the user did not mention.`

type wireIntent struct {
	RawText           string         `json:"raw_text"`
	CanonicalCategory string         `json:"canonical_category"`
	Attributes        map[string]any `json:"attributes"`
	Quantity          any            `json:"quantity"`
}

type wireExtraction struct {
	NeedsClarification bool         `json:"needs_clarification"`
	Reply              string       `json:"reply"`
	Intents            []wireIntent `json:"intents"`
}

// coerceQuantity tolerates the model emitting numbers as floats or strings.
func coerceQuantity(v any) int {
	switch q := v.(type) {
	case float64:
		if q >= 1 {
			return int(q)
		}
	case string:
		if n, err := strconv.Atoi(q); err == nil && n >= 1 {
			return n
		}
	}
	return 1
}

func normalizeCategory(cat string) string {
	switch cat {
	case model.CategoryMilk, model.CategoryEggs, model.CategoryCereal,
		model.CategoryTablet, model.CategoryDetergent:
		return cat
	case "":
		return ""
	default:
		return model.CategoryOther
	}
}

// ExtractIntents turns a chat message into item drafts or a clarification
// question.
func (c *Client) ExtractIntents(ctx context.Context, message string) (Extraction, error) {
	content, err := c.chatJSON(ctx, 0.3, extractSystemPrompt, message)
	if err != nil {
		return nil, err
	}

	var wire wireExtraction
	if err := json.Unmarshal(content, &wire); err != nil {
		return nil, fmt.Errorf("decode extraction: %w", err)
	}

	if wire.NeedsClarification {
		reply := wire.Reply
		if reply == "" {
			reply = "Could you tell me a bit more about what you'd like to buy?"
		}
		return Clarification{Reply: reply}, nil
	}

	list := IntentList{Reply: wire.Reply}
	for _, w := range wire.Intents {
		attrs := w.Attributes
		if attrs == nil {
			attrs = map[string]any{}
		}
		list.Intents = append(list.Intents, IntentDraft{
			RawText:           w.RawText,
			CanonicalCategory: normalizeCategory(w.CanonicalCategory),
			Attributes:        attrs,
			Quantity:          coerceQuantity(w.Quantity),
		})
	}
	return list, nil
}

const chooseSystemPrompt = `You are a shopping trip advisor. Given candidate shopping plans as JSON, the user's stated preference, and their trip constraints, pick the single best plan.

Respond with a single JSON object:
{
  "selected_plan_key": the key of the chosen plan,
  "explanation": one or two sentences addressed to the user explaining the choice
}

Constraints are hard rules, not preferences: when avoid_costco is true, never pick a plan whose stores include a warehouse club; when must_include_costco is true, pick a plan that visits one; prefer plans using no more than max_stores stores.

Honor the optimize_for constraint: prefer the lowest total_price for "cheapest_overall", the lowest travel_minutes for "fastest_drive", and a sensible balance otherwise.`

type planSummary struct {
	Key            string  `json:"key"`
	Label          string  `json:"label"`
	NumberOfStores int     `json:"number_of_stores"`
	TotalPrice     float64 `json:"total_price"`
	TravelMinutes  float64 `json:"travel_minutes"`
}

// ChoosePlan asks the model to rank the surviving plans. The returned key is
// not validated here; callers fall back when it does not match a plan.
func (c *Client) ChoosePlan(ctx context.Context, plans []*model.CandidatePlan, preference string, constraints model.PlanConstraints) (string, string, error) {
	summaries := make([]planSummary, len(plans))
	for i, p := range plans {
		summaries[i] = planSummary{
			Key:            p.Key,
			Label:          p.Label,
			NumberOfStores: p.NumberOfStores,
			TotalPrice:     p.TotalPrice,
			TravelMinutes:  p.TravelMinutes,
		}
	}

	prompt, err := json.Marshal(map[string]any{
		"plans":       summaries,
		"preference":  preference,
		"constraints": constraints,
	})
	if err != nil {
		return "", "", fmt.Errorf("marshal choose prompt: %w", err)
	}

	content, err := c.chatJSON(ctx, 0.2, chooseSystemPrompt, string(prompt))
	if err != nil {
		return "", "", err
	}

	var choice struct {
		SelectedPlanKey string `json:"selected_plan_key"`
		Explanation     string `json:"explanation"`
	}
	if err := json.Unmarshal(content, &choice); err != nil {
		return "", "", fmt.Errorf("decode choice: %w", err)
	}
	if choice.SelectedPlanKey == "" {
		return "", "", errors.New("llm: empty plan key")
	}
	if choice.Explanation == "" {
		choice.Explanation = fmt.Sprintf("I selected the '%s' plan.", choice.SelectedPlanKey)
	}
	return choice.SelectedPlanKey, choice.Explanation, nil
}
