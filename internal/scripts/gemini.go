package scripts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const defaultModelID = "gemini-2.5-flash"

// callScriptPrompt keeps the output short enough to speak in one breath and
// free of formatting the text-to-speech engine would read aloud.
const callScriptPrompt = `Generate a voice-call script.

Rules:
- Max 15 seconds spoken
- Natural conversational tone
- No markdown
- No emojis
- Suitable for automated phone calls

Campaign: %s
Description: %s`

const safetyPrompt = `Classify the content below.

Reply with ONLY ONE WORD:
SAFE or UNSAFE

Content:
%s`

const chatSystemPrompt = `You reply to a customer on behalf of the outreach
campaign %q. Be brief, friendly and factual. Plain text only, no markdown,
no emojis. If you do not know something, say so and offer a follow-up.`

// GeminiGenerator implements Generator on Google's Gemini API.
type GeminiGenerator struct {
	client  *genai.Client
	modelID string
}

func NewGeminiGenerator(ctx context.Context, apiKey, modelID string) (*GeminiGenerator, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("scripts: gemini api key is required")
	}
	if strings.TrimSpace(modelID) == "" {
		modelID = defaultModelID
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("scripts: creating gemini client: %w", err)
	}
	return &GeminiGenerator{client: client, modelID: modelID}, nil
}

func (g *GeminiGenerator) CallScript(ctx context.Context, title, description string) (string, error) {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)
	if title == "" || description == "" {
		return "", ErrEmptyCampaign
	}

	// The description is user-supplied; classify it before letting it
	// steer generation.
	if err := g.classify(ctx, description); err != nil {
		return "", err
	}

	out, err := g.generate(ctx, fmt.Sprintf(callScriptPrompt, title, description))
	if err != nil {
		return "", fmt.Errorf("scripts: call script generation: %w", err)
	}
	return out, nil
}

func (g *GeminiGenerator) ChatReply(ctx context.Context, title string, history []ChatTurn) (string, error) {
	if len(history) == 0 {
		return "", ErrEmptyHistory
	}
	last := history[len(history)-1]
	if !last.FromContact {
		return "", ErrEmptyHistory
	}

	model := g.client.GenerativeModel(g.modelID)
	model.SystemInstruction = genai.NewUserContent(genai.Text(fmt.Sprintf(chatSystemPrompt, title)))

	cs := model.StartChat()
	for _, turn := range history[:len(history)-1] {
		body := strings.TrimSpace(turn.Body)
		if body == "" {
			continue
		}
		role := "model"
		if turn.FromContact {
			role = "user"
		}
		cs.History = append(cs.History, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(body)},
		})
	}

	resp, err := cs.SendMessage(ctx, genai.Text(last.Body))
	if err != nil {
		return "", fmt.Errorf("scripts: chat reply generation: %w", err)
	}
	return firstText(resp)
}

// classify rejects content the model flags; anything but an explicit SAFE
// verdict is treated as unsafe.
func (g *GeminiGenerator) classify(ctx context.Context, content string) error {
	verdict, err := g.generate(ctx, fmt.Sprintf(safetyPrompt, content))
	if err != nil {
		return fmt.Errorf("scripts: safety classification: %w", err)
	}
	if strings.ToUpper(strings.TrimSpace(verdict)) != "SAFE" {
		return ErrUnsafeContent
	}
	return nil
}

func (g *GeminiGenerator) generate(ctx context.Context, prompt string) (string, error) {
	model := g.client.GenerativeModel(g.modelID)
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}
	return firstText(resp)
}

func firstText(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		return "", errors.New("scripts: model returned no candidates")
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", errors.New("scripts: model returned empty content")
	}

	var b strings.Builder
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	out := strings.TrimSpace(b.String())
	if out == "" {
		return "", errors.New("scripts: model returned no text parts")
	}
	return out, nil
}

func (g *GeminiGenerator) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}
