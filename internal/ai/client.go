// Package ai produces an optional narrative summary of an analysis using the
// Anthropic API.
package ai

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/liushuangls/go-anthropic/v2"

	internalerrors "github.com/olegiv/cbl-analyzer-go/internal/errors"
)

// Client wraps the Anthropic API client
type Client struct {
	client    *anthropic.Client
	model     string
	maxTokens int
}

// Stats holds statistics about the API call
type Stats struct {
	InputTokens     int
	OutputTokens    int
	CostUSD         float64
	DurationSeconds float64
}

// NewClient creates a new Claude AI client
func NewClient(apiKey, model, proxyURL string, timeoutSeconds, maxTokens int) (*Client, error) {
	var httpClient *http.Client
	timeout := time.Duration(timeoutSeconds) * time.Second

	// Configure proxy if provided
	if proxyURL != "" {
		proxyURLParsed, err := url.Parse(proxyURL)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL: %w", err)
		}

		// Validate proxy URL scheme for security
		if proxyURLParsed.Scheme != "http" && proxyURLParsed.Scheme != "https" {
			return nil, fmt.Errorf("proxy URL must use http or https scheme, got: %s", proxyURLParsed.Scheme)
		}

		httpClient = &http.Client{
			Transport: &http.Transport{
				Proxy: http.ProxyURL(proxyURLParsed),
			},
			Timeout: timeout,
		}
	} else {
		httpClient = &http.Client{
			Timeout: timeout,
		}
	}

	client := anthropic.NewClient(
		apiKey,
		anthropic.WithHTTPClient(httpClient),
	)

	return &Client{
		client:    client,
		model:     model,
		maxTokens: maxTokens,
	}, nil
}

// Summarize produces a short engineering narrative for the given analysis
// report. The report is the plain-text digest produced by BuildReport.
func (c *Client) Summarize(ctx context.Context, report string) (string, *Stats, error) {
	startTime := time.Now()

	var response anthropic.MessagesResponse
	var lastErr error

	for attempt := 1; attempt <= 3; attempt++ {
		var err error
		response, err = c.callAPI(ctx, systemPrompt(), userPrompt(report))
		if err == nil {
			break
		}

		lastErr = err
		if attempt < 3 {
			// Exponential backoff: 2^n seconds
			backoff := time.Duration(math.Pow(2, float64(attempt))) * time.Second
			time.Sleep(backoff)
		}
	}

	if lastErr != nil {
		return "", nil, fmt.Errorf("all retry attempts failed: %w", lastErr)
	}

	if len(response.Content) == 0 {
		return "", nil, fmt.Errorf("empty response from Claude")
	}

	var narrative strings.Builder
	for _, content := range response.Content {
		if content.Type == "text" && content.Text != nil {
			narrative.WriteString(*content.Text)
		}
	}

	text := strings.TrimSpace(narrative.String())
	if text == "" {
		return "", nil, fmt.Errorf("response contained no text content")
	}

	stats := c.calculateStats(response, time.Since(startTime).Seconds())

	return text, stats, nil
}

// callAPI makes the actual API call to Claude
func (c *Client) callAPI(ctx context.Context, systemPrompt, userPrompt string) (anthropic.MessagesResponse, error) {
	request := anthropic.MessagesRequest{
		Model: anthropic.Model(c.model),
		Messages: []anthropic.Message{
			{
				Role: anthropic.RoleUser,
				Content: []anthropic.MessageContent{
					anthropic.NewTextMessageContent(userPrompt),
				},
			},
		},
		System:    systemPrompt,
		MaxTokens: c.maxTokens,
	}

	response, err := c.client.CreateMessages(ctx, request)
	if err != nil {
		// Sanitize error to prevent credentials from appearing in error messages
		return anthropic.MessagesResponse{}, internalerrors.Wrapf(err, "API call failed")
	}

	return response, nil
}

// calculateStats calculates cost and token statistics
func (c *Client) calculateStats(response anthropic.MessagesResponse, durationSeconds float64) *Stats {
	inputTokens := response.Usage.InputTokens
	outputTokens := response.Usage.OutputTokens

	// Claude Sonnet 4.5 pricing: input $3/MTok, output $15/MTok
	inputCost := float64(inputTokens) / 1000000 * 3.0
	outputCost := float64(outputTokens) / 1000000 * 15.0

	return &Stats{
		InputTokens:     inputTokens,
		OutputTokens:    outputTokens,
		CostUSD:         inputCost + outputCost,
		DurationSeconds: durationSeconds,
	}
}

// GetModelInfo returns information about the configured model
func (c *Client) GetModelInfo() map[string]interface{} {
	return map[string]interface{}{
		"model":      c.model,
		"provider":   "Anthropic",
		"max_tokens": c.maxTokens,
	}
}
