// Package gemini adapts the Gemini API (through its OpenAI-compatible
// endpoint) as the transcription, clip-analysis, embedding and reasoning
// collaborators.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"github.com/forPelevin/brollplan/internal/ports"
	"github.com/forPelevin/brollplan/internal/types"
)

const (
	defaultEmbedModel = "text-embedding-004"

	embedTimeout      = 60 * time.Second
	chatTimeout       = 90 * time.Second
	transcribeTimeout = 5 * time.Minute
)

// Newer model aliases first; older ones are kept as fallbacks for accounts
// that lag on rollout.
var defaultGenModels = []string{
	"gemini-flash-latest",
	"gemini-2.0-flash-lite",
	"gemini-2.0-flash",
}

type Adapter struct {
	client           openai.Client
	embedModel       string
	genModels        []string
	transcribeModels []string
	log              zerolog.Logger
}

type Config struct {
	APIKey  string
	BaseURL string

	EmbedModel string
	// GenModels is the ordered fallback list for text generation: first
	// success wins, the last error is kept for diagnostics.
	GenModels []string
	// TranscribeModels is the same, for audio transcription.
	TranscribeModels []string

	Log zerolog.Logger
}

// New builds the one client this process talks to Gemini through. The client
// is constructed here, once, and injected wherever a collaborator is needed.
func New(cfg Config) *Adapter {
	embedModel := cfg.EmbedModel
	if embedModel == "" {
		embedModel = defaultEmbedModel
	}
	genModels := cfg.GenModels
	if len(genModels) == 0 {
		genModels = defaultGenModels
	}
	transcribeModels := cfg.TranscribeModels
	if len(transcribeModels) == 0 {
		transcribeModels = genModels
	}

	client := openai.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(normalizeBaseURL(cfg.BaseURL)),
	)
	return &Adapter{
		client:           client,
		embedModel:       embedModel,
		genModels:        genModels,
		transcribeModels: transcribeModels,
		log:              cfg.Log,
	}
}

func (a *Adapter) Embed(ctx context.Context, text string) ([]float64, error) {
	reqCtx, cancel := context.WithTimeout(ctx, embedTimeout)
	defer cancel()

	resp, err := a.client.Embeddings.New(reqCtx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
		Model: openai.EmbeddingModel(a.embedModel),
	})
	if err != nil {
		return nil, &ports.CollaboratorError{Provider: "gemini", Op: "embed", Err: err}
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, &ports.CollaboratorError{Provider: "gemini", Op: "embed", Err: errors.New("empty embedding response")}
	}
	return resp.Data[0].Embedding, nil
}

func (a *Adapter) Explain(ctx context.Context, segmentText, clipDescription string, score float64) (string, error) {
	prompt := fmt.Sprintf(
		"You are a video editor assistant. Explain in 1-2 sentences why a specific B-roll clip "+
			"is a good visual match for a spoken segment. Be specific about thematic connections.\n\n"+
			"Spoken text: %q\nB-roll clip: %s\nSimilarity score: %.3f\n\nWhy is this a good match?",
		segmentText, clipDescription, score,
	)
	text, err := firstSuccess(a.genModels, func(model string) (string, error) {
		return a.complete(ctx, model, prompt)
	})
	if err != nil {
		return "", &ports.CollaboratorError{Provider: "gemini", Op: "explain", Err: err}
	}
	return text, nil
}

func (a *Adapter) Describe(ctx context.Context, clipPath string) (types.ClipDescriptor, error) {
	base := baseDescription(clipPath)
	prompt := fmt.Sprintf(
		"You are a video editor assistant. Given a brief video clip name, expand it into a "+
			"detailed 1-2 sentence description of what the clip likely contains. "+
			"Focus on visual elements, mood, and context.\n\nClip name: %s",
		base,
	)
	text, err := firstSuccess(a.genModels, func(model string) (string, error) {
		return a.complete(ctx, model, prompt)
	})
	if err != nil {
		return types.ClipDescriptor{}, &ports.CollaboratorError{Provider: "gemini", Op: "describe", Err: err}
	}
	return types.ClipDescriptor{ClipName: filepath.Base(clipPath), Description: text}, nil
}

// Transcribe never fails the planner: on total failure it surfaces a single
// degenerate segment carrying the error message.
func (a *Adapter) Transcribe(ctx context.Context, wavPath string) ([]types.TranscriptSegment, error) {
	segs, err := firstSuccess(a.transcribeModels, func(model string) ([]types.TranscriptSegment, error) {
		return a.transcribeOnce(ctx, model, wavPath)
	})
	if err != nil {
		a.log.Warn().Err(err).Msg("transcription failed on all models")
		return []types.TranscriptSegment{
			{Start: 0, End: 5, Text: fmt.Sprintf("Error during transcription: %v", err)},
		}, nil
	}
	return segs, nil
}

func (a *Adapter) transcribeOnce(ctx context.Context, model, wavPath string) ([]types.TranscriptSegment, error) {
	f, err := os.Open(wavPath)
	if err != nil {
		return nil, fmt.Errorf("open audio: %w", err)
	}
	defer f.Close()

	reqCtx, cancel := context.WithTimeout(ctx, transcribeTimeout)
	defer cancel()

	resp, err := a.client.Audio.Transcriptions.New(reqCtx, openai.AudioTranscriptionNewParams{
		File:                   f,
		Model:                  openai.AudioModel(model),
		ResponseFormat:         openai.AudioResponseFormatVerboseJSON,
		TimestampGranularities: []string{"segment"},
	})
	if err != nil {
		return nil, err
	}
	return parseSegments(resp.RawJSON(), resp.Text)
}

// parseSegments pulls segment timing out of a verbose transcription payload.
// The typed response only carries the flat text, so the segment array is read
// from the raw JSON when the provider includes one.
func parseSegments(raw, text string) ([]types.TranscriptSegment, error) {
	var out []types.TranscriptSegment
	for _, seg := range gjson.Get(raw, "segments").Array() {
		start := seg.Get("start").Float()
		end := seg.Get("end").Float()
		segText := strings.TrimSpace(seg.Get("text").String())
		if end <= start || segText == "" {
			continue
		}
		out = append(out, types.TranscriptSegment{Start: start, End: end, Text: segText})
	}
	if len(out) > 0 {
		return out, nil
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.New("transcription returned no segments or text")
	}
	// Flat text only: estimate the span from word count at a speaking pace
	// of ~2.5 words per second.
	end := float64(len(strings.Fields(text))) * 0.4
	if end < 5 {
		end = 5
	}
	return []types.TranscriptSegment{{Start: 0, End: end, Text: text}}, nil
}

func (a *Adapter) complete(ctx context.Context, model, prompt string) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, chatTimeout)
	defer cancel()

	resp, err := a.client.Chat.Completions.New(reqCtx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Model:       openai.ChatModel(model),
		Temperature: openai.Float(0.4),
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no choices in response")
	}
	out := strings.TrimSpace(resp.Choices[0].Message.Content)
	if out == "" {
		return "", errors.New("empty completion")
	}
	return out, nil
}

// firstSuccess tries each model in order; first success wins, the last error
// is kept for diagnostics.
func firstSuccess[T any](models []string, attempt func(model string) (T, error)) (T, error) {
	var zero T
	var lastErr error
	for _, m := range models {
		v, err := attempt(m)
		if err == nil {
			return v, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = errors.New("no models configured")
	}
	return zero, lastErr
}

// baseDescription derives a plain description from the clip filename:
// "drone_city-night.mp4" -> "drone city night".
func baseDescription(clipPath string) string {
	stem := strings.TrimSuffix(filepath.Base(clipPath), filepath.Ext(clipPath))
	stem = strings.ReplaceAll(stem, "_", " ")
	stem = strings.ReplaceAll(stem, "-", " ")
	return strings.Join(strings.Fields(stem), " ")
}
