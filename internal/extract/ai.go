package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"secfeed/internal/model"
	"secfeed/internal/target"
	"secfeed/internal/validate"
)

const (
	methodAI = "ai_daily_news_v6"

	// maxPromptHTML bounds how much page HTML is handed to the model.
	maxPromptHTML = 60000

	aiMinTitleLen   = 10
	aiMinContentLen = 20
)

const aiSystemPrompt = `You are an expert cybersecurity news extractor. Extract ONLY recent daily security news articles from the provided HTML. Focus on:

1. Recent articles published today or within the last few days
2. Cybersecurity-related content (vulnerabilities, breaches, threats, security tools, etc.)
3. Skip old articles, advertisements, navigation items, or promotional content
4. Extract actual article titles and meaningful summaries
5. Include full URLs when possible

Return ONLY a valid JSON array of recent security articles:
[
  {
    "title": "Exact article title here",
    "content": "Detailed article summary or excerpt (3-5 sentences with key security details)",
    "url": "Complete article URL here"
  }
]

Requirements:
- Focus on articles with URLs containing the current year
- Prioritize vulnerability reports, security incidents, threat analysis
- Extract 5-15 of the most recent and relevant articles
- Ensure JSON is valid and parseable
- Include substantive content summaries with security context
- Skip duplicate or similar articles`

// Completer is the language-model dependency: a request/response completion
// call returning free-form text expected to contain a JSON array.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// OpenAIClient speaks the chat-completions wire format. The base URL is
// configurable so tests can point it at a local server.
type OpenAIClient struct {
	BaseURL string
	APIKey  string
	Model   string
	HTTPC   *http.Client
}

// NewOpenAIClient builds a client with a 60s request timeout.
func NewOpenAIClient(baseURL, apiKey, modelName string) *OpenAIClient {
	return &OpenAIClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		APIKey:  apiKey,
		Model:   modelName,
		HTTPC:   &http.Client{Timeout: 60 * time.Second},
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (c *OpenAIClient) Complete(ctx context.Context, system, user string) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model: c.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: 0.1,
		MaxTokens:   4000,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPC.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("completion API: status %d: %s", resp.StatusCode, model.Truncate(string(body), 200))
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("completion API: decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("completion API: empty choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

// AI is the language-model cascade stage. It fetches the target page, hands
// a bounded HTML prefix to the completion service, and recovers a JSON array
// from whatever text comes back. Every failure mode degrades to an empty
// result so the cascade can fall back to heuristics.
type AI struct {
	fetcher   Fetcher
	completer Completer
	logger    *zap.Logger
	now       func() time.Time
}

// NewAI builds the AI stage.
func NewAI(f Fetcher, c Completer, logger *zap.Logger) *AI {
	return &AI{fetcher: f, completer: c, logger: logger, now: time.Now}
}

func (a *AI) Name() string { return "ai" }

func (a *AI) Extract(ctx context.Context, tgt target.Target, req Request) ([]model.Article, error) {
	pageURL := tgt.BaseURL
	if tgt.DirectURL != "" {
		pageURL = tgt.DirectURL
	}
	if req.DirectURL != "" {
		pageURL = req.DirectURL
	}

	page, err := a.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("ai stage: %w", err)
	}

	userPrompt := req.Prompt
	if userPrompt == "" {
		userPrompt = fmt.Sprintf(
			"Extract recent daily cybersecurity news articles from this %s webpage. Focus on articles published today or in the last few days.",
			tgt.Name)
	}
	userPrompt = fmt.Sprintf("%s HTML content (first %d chars):\n\n%s",
		userPrompt, maxPromptHTML, model.Truncate(page.Body, maxPromptHTML))

	raw, err := a.completer.Complete(ctx, aiSystemPrompt, userPrompt)
	if err != nil {
		return nil, fmt.Errorf("ai stage: %w", err)
	}

	items := parseAIResponse(raw)
	if len(items) == 0 {
		a.logger.Warn("ai response yielded no parseable articles",
			zap.String("target", tgt.ID),
			zap.String("response_head", model.Truncate(raw, 200)))
		return nil, nil
	}

	now := a.now()
	articles := make([]model.Article, 0, len(items))
	for _, it := range items {
		art := model.NewArticle(strings.TrimSpace(it.Title), strings.TrimSpace(it.Content), it.URL, now)
		if art.URL == "" {
			art.URL = pageURL
		}
		art.ContentType = validate.Classify(art.Title, art.Content)
		art.ExtractionMethod = methodAI
		art.FetchedAt = page.FetchedAt
		art.Strategy = "daily_security_focus"
		articles = append(articles, art)
	}

	a.logger.Info("ai extraction complete",
		zap.String("target", tgt.ID),
		zap.Int("articles", len(articles)))
	return articles, nil
}

type aiItem struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	URL     string `json:"url"`
}

// parseAIResponse isolates the first JSON array span in the model output,
// tolerating code fences and surrounding prose. Unparseable responses yield
// an empty slice, never an error.
func parseAIResponse(raw string) []aiItem {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")

	start := strings.Index(s, "[")
	end := strings.LastIndex(s, "]")
	if start == -1 || end == -1 || end <= start {
		return nil
	}

	var items []aiItem
	if err := json.Unmarshal([]byte(s[start:end+1]), &items); err != nil {
		return nil
	}

	valid := items[:0]
	for _, it := range items {
		if len(it.Title) <= aiMinTitleLen || len(it.Content) <= aiMinContentLen {
			continue
		}
		if !validate.HasSecurityKeyword(it.Title) && !validate.HasSecurityKeyword(it.Content) {
			continue
		}
		valid = append(valid, it)
	}
	return valid
}
