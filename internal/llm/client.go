// Package llm talks to the Gemini API on behalf of shop customers: it builds
// their instructions, sends conversation turns, and reads the structured tags
// out of their replies.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"google.golang.org/genai"

	"github.com/talgya/pawnshop/internal/notify"
)

const (
	// DefaultModel is used when the configuration names none.
	DefaultModel = "gemini-1.5-flash-latest"

	maxTokensTurn   = 250
	maxTokensSingle = 60
)

// Placeholder replies returned instead of an error so the turn still completes.
const (
	lostForWords   = "*Seems lost for words.*"
	blockedFormat  = "*Response blocked by safety filters (%s).*"
	unknownSafety  = "Unknown Safety Reason"
	acknowledgment = "Okay, I understand the rules. I will act according to my assigned role (seller or buyer) and personality. I will use the correct tags like [PRICE_ASK: value] or [PRICE_OFFER: value], [ACCEPT_OFFER: value] or [ACCEPT_PRICE: value], [REVEALED_NAME: value], and [PATIENCE: -X] when appropriate. **Crucially, all price values and numerical values in tags will use only numerical digits.** I will keep my invented personal details private unless asked or it feels natural to reveal them."
)

var (
	// ErrNoCredential means no API key is configured.
	ErrNoCredential = errors.New("llm: API key is missing")
	// ErrRateLimited means the per-minute call budget is spent.
	ErrRateLimited = errors.New("llm: rate limit exceeded")
)

// Speaker roles in a conversation history.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Turn is one line of conversation history.
type Turn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// Gateway sends a prompt and history to the model and returns its reply.
// A safety block or empty reply yields a placeholder string, not an error.
type Gateway interface {
	Generate(ctx context.Context, history []Turn, prompt string, singleTurn bool) (string, error)
}

// Config configures a Client.
type Config struct {
	APIKey       string
	Model        string
	BaseURL      string        // Overrides the API endpoint, for tests and proxies
	Timeout      time.Duration // Per call; 0 means none
	MaxPerMinute int           // 0 means unlimited
}

// Client is the Gemini-backed Gateway.
type Client struct {
	cfg    Config
	genai  *genai.Client
	notify notify.Notifier

	// Rate limiting: max calls per minute.
	mu        sync.Mutex
	callCount int
	resetAt   time.Time
}

// NewClient creates a Gemini client. A missing API key is not an error here:
// the client is returned disabled and every call reports ErrNoCredential.
func NewClient(ctx context.Context, cfg Config, n notify.Notifier) (*Client, error) {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if n == nil {
		n = notify.Log
	}
	c := &Client{cfg: cfg, notify: n}
	if cfg.APIKey == "" {
		return c, nil
	}

	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: cfg.BaseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	c.genai = gc
	return c, nil
}

// Enabled returns true if the client has a valid API key.
func (c *Client) Enabled() bool {
	return c != nil && c.genai != nil
}

// Model returns the configured model name.
func (c *Client) Model() string { return c.cfg.Model }

// Generate implements Gateway. In multi-turn mode the prompt and a canned
// acknowledgment precede history; in single-turn mode only the prompt is sent.
func (c *Client) Generate(ctx context.Context, history []Turn, prompt string, singleTurn bool) (string, error) {
	if !c.Enabled() {
		c.notify.Notify("API Key is missing. Please set it in Options.", notify.Error, notify.Long)
		return "", ErrNoCredential
	}
	if err := c.allow(); err != nil {
		c.notify.Notify("Too many requests, please wait a moment.", notify.Error, notify.Long)
		return "", err
	}

	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := c.genai.Models.GenerateContent(ctx, c.cfg.Model, buildContents(history, prompt, singleTurn), generationConfig(singleTurn))
	if err != nil {
		slog.Error("gemini call failed", "error", err, "model", c.cfg.Model)
		c.notify.Notify("Network error communicating with customer.", notify.Error, notify.Long)
		return "", fmt.Errorf("generate content: %w", err)
	}

	text, outcome := interpret(resp)
	switch outcome {
	case outcomeBlocked:
		c.notify.Notify("Customer response blocked by safety filters.", notify.Info, notify.Short)
	case outcomeEmpty:
		c.notify.Notify("Customer seems lost for words...", notify.Info, notify.Short)
	}

	slog.Debug("gemini call",
		"model", c.cfg.Model,
		"single_turn", singleTurn,
		"turns", len(history),
		"outcome", outcome,
		"elapsed", time.Since(start),
	)
	return text, nil
}

func (c *Client) allow() error {
	if c.cfg.MaxPerMinute <= 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	if now.After(c.resetAt) {
		c.callCount = 0
		c.resetAt = now.Add(time.Minute)
	}
	if c.callCount >= c.cfg.MaxPerMinute {
		return fmt.Errorf("%w (%d calls/min)", ErrRateLimited, c.cfg.MaxPerMinute)
	}
	c.callCount++
	return nil
}

func buildContents(history []Turn, prompt string, singleTurn bool) []*genai.Content {
	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}
	if singleTurn {
		return contents
	}
	contents = append(contents, genai.NewContentFromText(acknowledgment, genai.RoleModel))
	for _, t := range history {
		role := genai.Role(genai.RoleUser)
		if t.Role == RoleModel {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(t.Text, role))
	}
	return contents
}

func generationConfig(singleTurn bool) *genai.GenerateContentConfig {
	maxTokens := int32(maxTokensTurn)
	if singleTurn {
		maxTokens = maxTokensSingle
	}
	safety := make([]*genai.SafetySetting, 0, 4)
	for _, cat := range []genai.HarmCategory{
		genai.HarmCategoryHarassment,
		genai.HarmCategoryHateSpeech,
		genai.HarmCategorySexuallyExplicit,
		genai.HarmCategoryDangerousContent,
	} {
		safety = append(safety, &genai.SafetySetting{
			Category:  cat,
			Threshold: genai.HarmBlockThresholdBlockMediumAndAbove,
		})
	}
	return &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](0.75),
		TopP:            genai.Ptr[float32](0.95),
		TopK:            genai.Ptr[float32](40),
		MaxOutputTokens: maxTokens,
		SafetySettings:  safety,
	}
}

type outcome string

const (
	outcomeText    outcome = "text"
	outcomeBlocked outcome = "blocked"
	outcomeEmpty   outcome = "empty"
)

// interpret reduces a response to the reply text or a placeholder.
func interpret(resp *genai.GenerateContentResponse) (string, outcome) {
	if resp == nil {
		return lostForWords, outcomeEmpty
	}

	var first *genai.Candidate
	if len(resp.Candidates) > 0 {
		first = resp.Candidates[0]
	}

	promptBlocked := resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" &&
		string(resp.PromptFeedback.BlockReason) != "BLOCKED_REASON_UNSPECIFIED"
	if promptBlocked || (first != nil && first.FinishReason == genai.FinishReasonSafety) {
		reason := unknownSafety
		if promptBlocked {
			reason = string(resp.PromptFeedback.BlockReason)
		} else {
			for _, r := range first.SafetyRatings {
				if r != nil && r.Blocked {
					reason = string(r.Category)
					break
				}
			}
		}
		slog.Warn("response blocked by safety settings", "reason", reason)
		return fmt.Sprintf(blockedFormat, reason), outcomeBlocked
	}

	if first != nil && first.FinishReason != "" && first.FinishReason != genai.FinishReasonStop {
		slog.Warn("response may be incomplete", "finish_reason", first.FinishReason)
	}

	if first == nil || first.Content == nil || len(first.Content.Parts) == 0 ||
		first.Content.Parts[0] == nil || first.Content.Parts[0].Text == "" {
		slog.Warn("model returned no text")
		return lostForWords, outcomeEmpty
	}
	return first.Content.Parts[0].Text, outcomeText
}
