package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const geminiModelName = "gemini-1.5-flash"

// GeminiGenerator implements ContentGenerator against the Gemini API.
type GeminiGenerator struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

func NewGeminiGenerator(ctx context.Context, apiKey string) (*GeminiGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is not set")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiGenerator{
		client: client,
		model:  client.GenerativeModel(geminiModelName),
	}, nil
}

func (g *GeminiGenerator) Close() error {
	return g.client.Close()
}

func (g *GeminiGenerator) TopicFor(ctx context.Context, questionText string) (string, error) {
	prompt := fmt.Sprintf(
		"Name the single academic topic this question tests, in at most four words. Reply with the topic only, no punctuation.\n\nQuestion: %s",
		questionText)

	text, err := g.generate(ctx, prompt)
	if err != nil {
		return "", err
	}

	topic := strings.TrimSpace(strings.Trim(text, "\"'."))
	if topic == "" {
		return "", fmt.Errorf("%w: empty topic", ErrGenerationFailed)
	}
	if len(topic) > 100 {
		topic = topic[:100]
	}
	return topic, nil
}

func (g *GeminiGenerator) FollowupQuestions(ctx context.Context, topic string, count int) ([]GeneratedQuestion, error) {
	prompt := fmt.Sprintf(
		`Write %d multiple-choice practice questions on the topic "%s". Answer with a JSON array only, no prose, where each element has the keys "text", "option_a", "option_b", "option_c", "option_d" and "correct_option" (one of "A", "B", "C", "D").`,
		count, topic)

	text, err := g.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var questions []GeneratedQuestion
	if err := json.Unmarshal([]byte(stripCodeFence(text)), &questions); err != nil {
		return nil, fmt.Errorf("%w: unparseable response: %v", ErrGenerationFailed, err)
	}
	if len(questions) > count {
		questions = questions[:count]
	}
	return questions, nil
}

func (g *GeminiGenerator) generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%w: empty response", ErrGenerationFailed)
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("%w: no text parts in response", ErrGenerationFailed)
	}
	return sb.String(), nil
}

// stripCodeFence unwraps a markdown-fenced block the model sometimes
// wraps JSON in.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
