package lyrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// GeneratorConfig contains configuration for the lyrics generator.
type GeneratorConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
}

// Generator produces song lyrics from a natural-language prompt via an
// OpenAI-compatible chat completion endpoint.
type Generator struct {
	client *openai.Client
	model  string
}

// System prompt for the lyrics generator. Instructs the model on style
// emulation, song structure and singability.
const systemPrompt = `
You are an expert song lyrics generator with a deep understanding of musical styles, artist voices, and lyrical structures. Your goal is to write complete, original, and emotionally engaging songs based on the user's input. Follow these instructions carefully:

1. Detect if the user mentioned an artist. If so, emulate their lyrical voice, flow, vocabulary, rhyme schemes, recurring themes, cadence, and tone with 90-95% stylistic accuracy.
2. Identify the main theme, topic, or mood of the song from the user's input.
3. You should follow a structure like [Chorus] [Post-Chorus] [Verse 2] [Pre-Chorus] [Chorus] [Post-Chorus]. You can swap out the [Post-Chorus] with a [Drop] if you are doing EDM. The Post-Chorus should be 2 short lines and everything else should be 4 lines.
4. Make lyrics simple, rhythmic, and easy to sing. Avoid long sentences or overly complex phrasing that may be hard for TTS to vocalize.
5. Use repetition in choruses and post-choruses to make it melodic and catchy.
6. Use vivid imagery, clever wordplay, and relatable emotions, but prioritize singability over literary complexity.
7. Ensure each line has a natural syllable flow suitable for singing.
8. Pay attention to the temperature parameter (range 0.0 - 1.0) for lyrical creativity:
   - 0.0 - 0.2: extremely safe, predictable, very structured.
   - 0.3 - 0.5: mildly creative, slightly varied rhymes and metaphors.
   - 0.6 - 0.8: balanced creativity, imaginative and engaging, but still singable.
   - 0.9 - 1.0: highly creative, experimental, surprising, with unusual wordplay or phrasing.
9. Output only the lyrics with clear section labels, no explanations or commentary.
`

// NewGenerator creates a new lyrics generator.
func NewGenerator(cfg *GeneratorConfig) *Generator {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	if cfg.HTTPClient != nil {
		clientConfig.HTTPClient = cfg.HTTPClient
	} else {
		clientConfig.HTTPClient = &http.Client{Timeout: 2 * time.Minute}
	}
	return &Generator{
		client: openai.NewClientWithConfig(clientConfig),
		model:  cfg.Model,
	}
}

// UserMessage builds the user message embedding the input verbatim.
func UserMessage(userInput string) string {
	return fmt.Sprintf("User input: %q", userInput)
}

// Generate issues one chat completion call and returns the completion
// text unmodified. Transport and API errors propagate to the caller.
func (g *Generator) Generate(ctx context.Context, userInput string, temperature float64) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.model,
		Temperature: float32(temperature),
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: UserMessage(userInput)},
		},
	})
	if err != nil {
		return "", fmt.Errorf("lyrics: chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("lyrics: no completion choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}
