package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"strings"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"voicereminder/internal/model"
)

// Client wraps the OpenAI SDK behind the two capabilities this system
// needs: text-to-speech synthesis and object detection on images.
type Client struct {
	apiKey string
	client *openai.Client
	model  openai.ChatModel
	speech openai.SpeechModel
}

// ErrClientNotInitialised is returned when attempting to call the API without a configured client.
var ErrClientNotInitialised = errors.New("openai client not initialised")

// MaxLabels caps how many distinct object labels detection returns.
const MaxLabels = 3

// New returns an OpenAI client when apiKey is provided, otherwise an
// unconfigured client whose calls fail with ErrClientNotInitialised.
func New(apiKey string) *Client {
	if apiKey == "" {
		return &Client{}
	}
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &Client{
		apiKey: apiKey,
		client: &client,
		model:  openai.ChatModelGPT4oMini,
		speech: openai.SpeechModelTTS1,
	}
}

// Synthesize converts note text into MP3 audio bytes.
func (c *Client) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}
	if c.client == nil {
		return nil, ErrClientNotInitialised
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	resp, err := c.client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Model:          c.speech,
		Voice:          openai.AudioSpeechNewParamsVoiceAlloy,
		Input:          text,
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatMP3,
	})
	if err != nil {
		return nil, fmt.Errorf("speech synthesis: %w", err)
	}
	defer resp.Body.Close()

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read speech response: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("empty speech response")
	}
	return audio, nil
}

// Detect decodes the image, asks the vision model what objects it shows,
// and returns at most MaxLabels distinct labels in no particular order.
func (c *Client) Detect(ctx context.Context, imageBytes []byte) ([]string, error) {
	if len(imageBytes) == 0 {
		return nil, model.ErrNoImage
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(imageBytes)); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrImageDecode, err)
	}
	if c.client == nil {
		return nil, ErrClientNotInitialised
	}

	dataURL := fmt.Sprintf("data:%s;base64,%s",
		http.DetectContentType(imageBytes),
		base64.StdEncoding.EncodeToString(imageBytes))

	req := openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			{
				OfSystem: &openai.ChatCompletionSystemMessageParam{
					Content: openai.ChatCompletionSystemMessageParamContentUnion{
						OfString: openai.String("You are an object detector. List the distinct objects visible in the image as lowercase singular nouns, comma-separated, nothing else."),
					},
				},
			},
			{
				OfUser: &openai.ChatCompletionUserMessageParam{
					Content: openai.ChatCompletionUserMessageParamContentUnion{
						OfArrayOfContentParts: []openai.ChatCompletionContentPartUnionParam{
							{
								OfText: &openai.ChatCompletionContentPartTextParam{
									Text: "What objects are in this image?",
								},
							},
							{
								OfImageURL: &openai.ChatCompletionContentPartImageParam{
									ImageURL: openai.ChatCompletionContentPartImageImageURLParam{
										URL: dataURL,
									},
								},
							},
						},
					},
				},
			},
		},
		Temperature:         openai.Float(0.0),
		MaxCompletionTokens: openai.Int(40),
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	resp, err := c.client.Chat.Completions.New(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("detection request: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no completion received")
	}
	return parseLabels(resp.Choices[0].Message.Content), nil
}

// parseLabels normalises the model's reply into a deduplicated label list
// capped at MaxLabels.
func parseLabels(reply string) []string {
	fields := strings.FieldsFunc(reply, func(r rune) bool {
		return r == ',' || r == '\n'
	})

	seen := make(map[string]struct{}, len(fields))
	labels := make([]string, 0, MaxLabels)
	for _, field := range fields {
		label := strings.ToLower(strings.Trim(strings.TrimSpace(field), "."))
		if label == "" {
			continue
		}
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}
		labels = append(labels, label)
		if len(labels) == MaxLabels {
			break
		}
	}
	return labels
}
