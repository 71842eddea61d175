package identify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atinyakov/FloraFacts/internal/imaging"
)

type fakeGenerator struct {
	GenerateFunc func(ctx context.Context, prompt string, image []byte, mimeType string) (string, error)
	prompts      []string
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string, image []byte, mimeType string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.GenerateFunc(ctx, prompt, image, mimeType)
}

var leafImage = imaging.EncodeDataURL("image/jpeg", []byte{0xff, 0xd8, 0xff})

func TestIdentify_NotConfigured(t *testing.T) {
	c := NewClient(nil)
	_, err := c.Identify(context.Background(), leafImage)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestIdentify_InvalidImage(t *testing.T) {
	gen := &fakeGenerator{GenerateFunc: func(context.Context, string, []byte, string) (string, error) {
		t.Fatal("generator must not be called")
		return "", nil
	}}
	_, err := NewClient(gen).Identify(context.Background(), "not a data url")
	assert.ErrorIs(t, err, ErrInvalidImage)
}

func TestIdentify_Success(t *testing.T) {
	gen := &fakeGenerator{GenerateFunc: func(_ context.Context, prompt string, image []byte, mimeType string) (string, error) {
		assert.Equal(t, "image/jpeg", mimeType)
		assert.Equal(t, []byte{0xff, 0xd8, 0xff}, image)
		if prompt == verificationPrompt {
			return "Yes.", nil
		}
		return `{"name":"Rose"}`, nil
	}}

	text, err := NewClient(gen).Identify(context.Background(), leafImage)
	require.NoError(t, err)
	assert.Equal(t, `{"name":"Rose"}`, text)
	assert.Equal(t, []string{verificationPrompt, analysisPrompt}, gen.prompts)
}

func TestIdentify_NotAPlant(t *testing.T) {
	gen := &fakeGenerator{GenerateFunc: func(context.Context, string, []byte, string) (string, error) {
		return "no", nil
	}}
	_, err := NewClient(gen).Identify(context.Background(), leafImage)
	assert.ErrorIs(t, err, ErrNotAPlant)
	assert.Len(t, gen.prompts, 1)
}

func TestIdentify_WithoutVerification(t *testing.T) {
	gen := &fakeGenerator{GenerateFunc: func(context.Context, string, []byte, string) (string, error) {
		return "text", nil
	}}
	_, err := NewClient(gen, WithoutVerification()).Identify(context.Background(), leafImage)
	require.NoError(t, err)
	assert.Equal(t, []string{analysisPrompt}, gen.prompts)
}

func TestIdentify_ErrorKinds(t *testing.T) {
	cases := []struct {
		name   string
		genErr error
		want   error
		msg    string
	}{
		{"overloaded sentinel", ErrOverloaded, ErrOverloaded, "The model is overloaded. Please try again in a few moments."},
		{"overloaded message", errors.New("googleapi: The model is overloaded"), ErrOverloaded, "The model is overloaded. Please try again in a few moments."},
		{"other", errors.New("connection reset"), nil, "Failed to identify plant"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gen := &fakeGenerator{GenerateFunc: func(context.Context, string, []byte, string) (string, error) {
				return "", tc.genErr
			}}
			_, err := NewClient(gen).Identify(context.Background(), leafImage)
			require.Error(t, err)
			if tc.want != nil {
				assert.ErrorIs(t, err, tc.want)
			}
			assert.Equal(t, tc.msg, Message(err))
		})
	}
}

func TestIdentify_Timeout(t *testing.T) {
	gen := &fakeGenerator{GenerateFunc: func(ctx context.Context, _ string, _ []byte, _ string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}}
	_, err := NewClient(gen, WithTimeout(10*time.Millisecond)).Identify(context.Background(), leafImage)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, "Identification timed out. Please try again.", Message(err))
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "", Message(nil))
	assert.Equal(t, "Gemini API key is not configured", Message(ErrNotConfigured))
	assert.Equal(t, "No plant detected. Please try using a clear picture of a plant.", Message(ErrNotAPlant))
}
