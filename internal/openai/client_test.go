package openai

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"voicereminder/internal/model"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestParseLabels(t *testing.T) {
	t.Parallel()

	cases := map[string][]string{
		"dog, cat, bird":              {"dog", "cat", "bird"},
		"dog, Dog, DOG":               {"dog"},
		"dog, cat, bird, fish":        {"dog", "cat", "bird"},
		"Dog.\nCat.":                  {"dog", "cat"},
		"  person ,  , car  ":         {"person", "car"},
		"":                            {},
		"a, b, c, a, b, c, d":         {"a", "b", "c"},
		"coffee cup, laptop, monitor": {"coffee cup", "laptop", "monitor"},
	}

	for input, want := range cases {
		got := parseLabels(input)
		if len(got) != len(want) {
			t.Fatalf("parseLabels(%q) = %v, want %v", input, got, want)
		}
		for i := range got {
			if got[i] != want[i] {
				t.Fatalf("parseLabels(%q)[%d] = %q, want %q", input, i, got[i], want[i])
			}
		}
	}
}

func TestParseLabelsCap(t *testing.T) {
	t.Parallel()

	got := parseLabels("one, two, three, four, five")
	if len(got) > MaxLabels {
		t.Fatalf("parseLabels returned %d labels, cap is %d", len(got), MaxLabels)
	}
}

func TestDetectRejectsUndecodableBytes(t *testing.T) {
	t.Parallel()
	client := New("")

	_, err := client.Detect(context.Background(), []byte("definitely not an image"))
	if !errors.Is(err, model.ErrImageDecode) {
		t.Fatalf("err = %v, want ErrImageDecode", err)
	}
}

func TestDetectRejectsEmptyPayload(t *testing.T) {
	t.Parallel()
	client := New("")

	_, err := client.Detect(context.Background(), nil)
	if !errors.Is(err, model.ErrNoImage) {
		t.Fatalf("err = %v, want ErrNoImage", err)
	}
}

func TestDetectWithoutAPIKey(t *testing.T) {
	t.Parallel()
	client := New("")

	// Decode succeeds, so the failure is the missing client, not the image.
	_, err := client.Detect(context.Background(), pngBytes(t))
	if !errors.Is(err, ErrClientNotInitialised) {
		t.Fatalf("err = %v, want ErrClientNotInitialised", err)
	}
}

func TestSynthesizeWithoutAPIKey(t *testing.T) {
	t.Parallel()
	client := New("")

	if _, err := client.Synthesize(context.Background(), "hello"); !errors.Is(err, ErrClientNotInitialised) {
		t.Fatalf("err = %v, want ErrClientNotInitialised", err)
	}
}

func TestSynthesizeRejectsEmptyText(t *testing.T) {
	t.Parallel()
	client := New("")

	if _, err := client.Synthesize(context.Background(), "   "); err == nil {
		t.Fatalf("expected error for empty text")
	}
}
