// Package refine sends a raw transcript to an LLM for the cleanup and plan
// modes. Network calls live entirely outside the recording path; callers are
// expected to fall back to the raw transcript on any error.
package refine

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	"github.com/rs/zerolog"

	"github.com/petems/vibetotext/internal/config"
)

const cleanupPrompt = `You rewrite rambling spoken dictation into a clear,
concise prompt. Keep the speaker's intent and technical terms, remove filler
and repetition, fix obvious transcription slips. Reply with the rewritten
text only.`

const planPrompt = `You are a senior engineer. Turn the spoken request into
a short, numbered implementation plan: concrete steps, files or components to
touch, and open questions at the end. Reply with the plan only.`

// Refiner rewrites transcripts for the cleanup and plan modes.
type Refiner interface {
	Cleanup(ctx context.Context, text string) (string, error)
	Plan(ctx context.Context, text string) (string, error)
}

type openAIRefiner struct {
	client  openai.Client
	model   string
	timeout time.Duration
	log     zerolog.Logger
}

// New builds a Refiner from config. Returns an error when the API key
// environment variable is unset; the app then runs with refinement disabled.
func New(cfg config.RefineConfig, log zerolog.Logger) (Refiner, error) {
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("refine: %s is not set", cfg.APIKeyEnv)
	}

	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &openAIRefiner{
		client:  openai.NewClient(option.WithAPIKey(key)),
		model:   cfg.Model,
		timeout: timeout,
		log:     log,
	}, nil
}

func (r *openAIRefiner) Cleanup(ctx context.Context, text string) (string, error) {
	return r.complete(ctx, cleanupPrompt, text)
}

func (r *openAIRefiner) Plan(ctx context.Context, text string) (string, error) {
	return r.complete(ctx, planPrompt, text)
}

func (r *openAIRefiner) complete(ctx context.Context, system, text string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	started := time.Now()
	resp, err := r.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: shared.ChatModel(r.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(text),
		},
	})
	if err != nil {
		return "", fmt.Errorf("refine request: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("refine request: empty response")
	}

	r.log.Debug().
		Str("model", r.model).
		Dur("latency", time.Since(started)).
		Msg("Refinement completed")
	return resp.Choices[0].Message.Content, nil
}
