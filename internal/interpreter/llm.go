package interpreter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const systemPrompt = "You are an assistant that turns free-text community-event descriptions into a structured event draft plus a next-action decision. Respond with strict JSON only."

const envelopeSchemaPrompt = `Required JSON schema:
{
  "next_action": "show_preview | ask_clarification",
  "confidence": "float (0.0-1.0)",
  "human_summary": "string (one sentence)",
  "clarification_question": "string or null",
  "blocking_fields": ["string (field keys, may be empty)"],
  "draft_payload": {
    "title": "string or null",
    "event_type": ["open_mic | song_circle | showcase | workshop | jam_session | gig | meetup | other"],
    "venue_id": "string or null", "venue_name": "string or null",
    "custom_location_name": "string or null", "custom_address": "string or null",
    "custom_city": "string or null", "custom_state": "string or null",
    "location_mode": "venue | online | hybrid | null", "online_url": "string or null",
    "signup_mode": "rsvp | walk_in | external | null",
    "has_timeslots": "boolean or null", "total_slots": "int or null",
    "slot_duration_minutes": "int or null", "allow_guests": "boolean or null",
    "series_mode": "single | weekly | biweekly | monthly | custom | null",
    "recurrence_rule": "string or null", "day_of_week": "string or null",
    "occurrence_count": "int or null", "max_occurrences": "int or null",
    "custom_dates": ["YYYY-MM-DD"],
    "start_date": "YYYY-MM-DD or null", "start_time": "HH:MM or null",
    "end_time": "HH:MM or null", "is_free": "boolean or null",
    "external_url": "string or null"
  }
}`

type llmFailureClass int

const (
	failureTimeout llmFailureClass = iota
	failureRateLimit
	failureServer
	failureClient
)

// LLMCaller is the seam between the deterministic pipeline and the upstream
// model. Tests substitute a fake; production uses AnthropicCaller.
type LLMCaller interface {
	GenerateJSON(ctx context.Context, prompt string) (string, error)
}

type AnthropicMessager interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

type AnthropicCaller struct {
	messages  AnthropicMessager
	model     anthropic.Model
	maxTokens int64
}

func NewAnthropicCallerFromEnv() (*AnthropicCaller, error) {
	apiKey := strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY"))
	if apiKey == "" {
		return nil, errors.New("ANTHROPIC_API_KEY not configured")
	}
	c := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &AnthropicCaller{
		messages:  &c.Messages,
		model:     anthropic.ModelClaudeSonnet4_20250514,
		maxTokens: 4096,
	}, nil
}

func (a *AnthropicCaller) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	resp, err := a.messages.New(ctx, anthropic.MessageNewParams{
		Model:       a.model,
		MaxTokens:   a.maxTokens,
		System:      []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(prompt))},
		Temperature: anthropic.Float(0),
	})
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, b := range resp.Content {
		if b.Type == "text" {
			sb.WriteString(b.Text)
		}
	}
	return sb.String(), nil
}

// Client drives one interpret turn against the LLM: prompt assembly, retries
// with feedback on malformed output, and envelope decoding. The resulting
// envelope is still untrusted; the pipeline repairs it.
type Client struct {
	caller LLMCaller
}

func NewClient(caller LLMCaller) *Client {
	return &Client{caller: caller}
}

func (c *Client) Interpret(ctx context.Context, mode Mode, message string, history []ConversationTurn, catalog []VenueCatalogEntry) (ResponseEnvelope, error) {
	prompt := buildInterpretPrompt(mode, message, history, catalog)
	feedback := ""
	var env ResponseEnvelope
	for attempt := 1; attempt <= 3; attempt++ {
		fullPrompt := prompt + "\n\nRespond with only valid JSON matching the schema."
		if feedback != "" {
			fullPrompt += "\n\n" + feedback
		}

		raw, err := c.caller.GenerateJSON(ctx, fullPrompt)
		if err != nil {
			class := classifyTransportError(err)
			if attempt < 3 && (class == failureTimeout || class == failureRateLimit || class == failureServer) {
				time.Sleep(backoffDelay(attempt))
				continue
			}
			return env, fmt.Errorf("interpret transport failure: %w", err)
		}

		raw = strings.TrimSpace(raw)
		if raw == "" {
			if attempt < 3 {
				feedback = "Your previous response was empty. Respond with valid JSON."
				continue
			}
			return env, errors.New("interpret failed: empty response")
		}

		if err := json.Unmarshal([]byte(stripCodeFences(raw)), &env); err != nil {
			if attempt < 3 {
				feedback = "Your previous response was not valid JSON. Respond with only valid JSON."
				continue
			}
			return env, fmt.Errorf("interpret failed json parse: %w", err)
		}
		return env, nil
	}
	return env, errors.New("interpret failed after retries")
}

func buildInterpretPrompt(mode Mode, message string, history []ConversationTurn, catalog []VenueCatalogEntry) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Interpretation mode: %s.\n\n%s\n\n", mode, envelopeSchemaPrompt)
	if len(catalog) > 0 {
		sb.WriteString("Known venues (use venue_id when one clearly matches):\n")
		for _, v := range catalog {
			fmt.Fprintf(&sb, "- %s: %s\n", v.ID, v.Name)
		}
		sb.WriteString("\n")
	}
	if len(history) > 0 {
		sb.WriteString("Conversation so far:\n")
		for _, turn := range history {
			fmt.Fprintf(&sb, "[%s] %s\n", turn.Role, turn.Content)
		}
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "Current user message:\n%s", message)
	return sb.String()
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		parts := strings.SplitN(s, "\n", 2)
		if len(parts) == 2 {
			s = parts[1]
		}
		s = strings.TrimPrefix(s, "json")
		s = strings.TrimSpace(strings.TrimSuffix(s, "```"))
	}
	return s
}

func classifyTransportError(err error) llmFailureClass {
	msg := strings.ToLower(err.Error())
	if errors.Is(err, context.DeadlineExceeded) {
		return failureTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return failureTimeout
	}
	switch {
	case strings.Contains(msg, "429"):
		return failureRateLimit
	case strings.Contains(msg, "status code: 5") || strings.Contains(msg, "server error"):
		return failureServer
	case strings.Contains(msg, "status code: 4"):
		return failureClient
	default:
		return failureServer
	}
}

func backoffDelay(attempt int) time.Duration {
	if attempt <= 1 {
		return 1 * time.Second
	}
	return 2 * time.Second
}
