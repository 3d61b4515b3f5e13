package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"credit-risk-agent/domain"

	"go.uber.org/zap"
)

const narrativeSystemPrompt = "You write adverse-action notices for a consumer lender. " +
	"Explain the listed factors plainly and respectfully in two or three sentences. " +
	"Do not invent factors, do not give legal advice, and do not mention the model."

// NarrativeConfig configures the chat-completions endpoint.
type NarrativeConfig struct {
	APIKey  string
	APIURL  string
	Model   string
	Timeout time.Duration
}

// NarrativeService turns a decision into a short customer-facing notice.
// Without an API key, or when the call fails, a fixed template is used.
type NarrativeService struct {
	apiKey     string
	apiURL     string
	model      string
	enabled    bool
	httpClient *http.Client
	log        *zap.Logger
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
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

func NewNarrativeService(cfg NarrativeConfig, log *zap.Logger) *NarrativeService {
	if log == nil {
		log = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &NarrativeService{
		apiKey:  cfg.APIKey,
		apiURL:  cfg.APIURL,
		model:   cfg.Model,
		enabled: cfg.APIKey != "" && cfg.APIURL != "",
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

// Enabled reports whether the remote model is used.
func (s *NarrativeService) Enabled() bool {
	return s.enabled
}

// Explain returns the notice for a decision.
func (s *NarrativeService) Explain(ctx context.Context, decision domain.Decision) string {
	if decision.Accepted {
		return AcceptedNarrative
	}
	if !s.enabled || len(decision.Reasons) == 0 {
		return fallbackNarrative(decision)
	}

	var factors strings.Builder
	for i, reason := range decision.Reasons {
		fmt.Fprintf(&factors, "%d. %s\n", i+1, reason)
	}
	prompt := fmt.Sprintf(`An application was declined. Estimated default probability: %.2f%%.

Principal factors, in order of importance:
%s
Write the notice.`, decision.RiskProbability*100, factors.String())

	text, err := s.callLLM(ctx, prompt)
	if err != nil {
		s.log.Warn("narrative generation failed, using fallback", zap.Error(err))
		return fallbackNarrative(decision)
	}
	return text
}

func (s *NarrativeService) callLLM(ctx context.Context, prompt string) (string, error) {
	reqBody := chatRequest{
		Model: s.model,
		Messages: []chatMessage{
			{Role: "system", Content: narrativeSystemPrompt},
			{Role: "user", Content: prompt},
		},
		MaxTokens: 200,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("no response from model")
	}

	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}

func fallbackNarrative(decision domain.Decision) string {
	if decision.Accepted {
		return AcceptedNarrative
	}
	if len(decision.Reasons) == 0 {
		return fmt.Sprintf("Your application was declined (estimated default probability %.2f%%).",
			decision.RiskProbability*100)
	}

	factors := make([]string, len(decision.Reasons))
	for i, reason := range decision.Reasons {
		factors[i] = strings.TrimSuffix(reason, ".")
	}
	return fmt.Sprintf("Your application was declined (estimated default probability %.2f%%). Principal factors: %s.",
		decision.RiskProbability*100, strings.Join(factors, "; "))
}
