package generator_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Adalene/glyph/internal/catalog"
	"github.com/Adalene/glyph/internal/generator"
	"github.com/Adalene/glyph/internal/llm"
	"github.com/Adalene/glyph/internal/storage/snapshot"
	"github.com/Adalene/glyph/pkg/types"
)

// stubModel returns a canned reply and records every prompt.
type stubModel struct {
	reply   string
	err     error
	prompts []string
}

func (s *stubModel) Complete(_ context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	return s.reply, s.err
}

func (s *stubModel) GetModel() string { return "stub" }

// recordingSaver captures saved icons.
type recordingSaver struct {
	saved  []types.Icon
	result catalog.SaveResult
	err    error
}

func (r *recordingSaver) Save(_ context.Context, icon types.Icon) (catalog.SaveResult, error) {
	r.saved = append(r.saved, icon)
	if r.err != nil {
		return catalog.SaveResult{}, r.err
	}
	res := r.result
	res.Icon = icon
	return res, nil
}

var fixedNow = time.Date(2026, 5, 4, 10, 30, 0, 0, time.UTC)

func newPipeline(t *testing.T, model llm.TextGenerator, opts ...generator.Option) *generator.Pipeline {
	t.Helper()
	opts = append([]generator.Option{
		generator.WithLogger(zaptest.NewLogger(t)),
		generator.WithClock(func() time.Time { return fixedNow }),
	}, opts...)
	return generator.New(model, opts...)
}

func TestGenerate_ExactRecord(t *testing.T) {
	model := &stubModel{reply: `{"path":"M4 12h16M12 4v16","tags":["plus","add","new"]}`}
	p := newPipeline(t, model)

	got, err := p.Generate(context.Background(), generator.Request{Name: "plus sign", Category: "ui", Style: "minimal"})
	require.NoError(t, err)

	want := types.Icon{
		ID:          "plus-sign",
		Name:        "Plus sign",
		Category:    "ui",
		Tags:        []string{"plus", "add", "new"},
		Path:        "M4 12h16M12 4v16",
		Generated:   true,
		GeneratedAt: fixedNow.UnixMilli(),
	}
	assert.Equal(t, want, got)

	require.Len(t, model.prompts, 1)
	assert.Contains(t, model.prompts[0], `Design a "plus sign" icon for category "ui".`)
	assert.Contains(t, model.prompts[0], llm.StyleMinimal.Guide())
}

func TestGenerate_Defaults(t *testing.T) {
	model := &stubModel{reply: `{"path":"M1 1"}`}
	p := newPipeline(t, model)

	got, err := p.Generate(context.Background(), generator.Request{Name: "Coffee Cup", Style: "watercolor"})
	require.NoError(t, err)

	assert.Equal(t, types.DefaultCategory, got.Category)
	assert.Equal(t, []string{"coffee cup"}, got.Tags, "missing tags fall back to the lowercased name")
	assert.Contains(t, model.prompts[0], llm.StyleOutline.Guide())
}

func TestGenerate_EmptyTagsKept(t *testing.T) {
	p := newPipeline(t, &stubModel{reply: `{"path":"M1 1","tags":[]}`})

	got, err := p.Generate(context.Background(), generator.Request{Name: "dot"})
	require.NoError(t, err)
	assert.NotNil(t, got.Tags)
	assert.Empty(t, got.Tags)
}

func TestGenerate_FencedEqualsUnfenced(t *testing.T) {
	const body = `{"path":"M2 2l20 20","tags":["slash"]}`
	ctx := context.Background()

	plain, err := newPipeline(t, &stubModel{reply: body}).Generate(ctx, generator.Request{Name: "slash"})
	require.NoError(t, err)
	fenced, err := newPipeline(t, &stubModel{reply: "```json\n" + body + "\n```"}).Generate(ctx, generator.Request{Name: "slash"})
	require.NoError(t, err)

	assert.Equal(t, plain, fenced)
}

func TestGenerate_InvalidNameNeverCallsUpstream(t *testing.T) {
	for _, name := range []string{"", "   ", "\t\n", "!!!", "???  ***"} {
		t.Run(fmt.Sprintf("%q", name), func(t *testing.T) {
			model := &stubModel{reply: `{"path":"M1 1"}`}
			saver := &recordingSaver{}
			p := newPipeline(t, model, generator.WithSaver(saver))

			_, err := p.Generate(context.Background(), generator.Request{Name: name})
			assert.ErrorIs(t, err, generator.ErrInvalidInput)
			assert.Empty(t, model.prompts)
			assert.Empty(t, saver.saved)
		})
	}
}

func TestGenerate_NotConfigured(t *testing.T) {
	p := newPipeline(t, nil)
	assert.False(t, p.Configured())

	// Checked before the name, so an empty request still reports configuration.
	_, err := p.Generate(context.Background(), generator.Request{})
	assert.ErrorIs(t, err, generator.ErrNotConfigured)
}

func TestGenerate_MissingPathNotSaved(t *testing.T) {
	for _, reply := range []string{`{"tags":["a","b","c"]}`, `{"path":""}`, "I'd rather not.", ""} {
		t.Run(reply, func(t *testing.T) {
			saver := &recordingSaver{result: catalog.SaveResult{Accepted: true}}
			p := newPipeline(t, &stubModel{reply: reply}, generator.WithSaver(saver))

			got, err := p.Generate(context.Background(), generator.Request{Name: "ghost"})
			assert.ErrorIs(t, err, generator.ErrGenerationFailed)
			assert.Zero(t, got)
			assert.Empty(t, saver.saved)
		})
	}
}

func TestGenerate_UpstreamError(t *testing.T) {
	apiErr := &llm.APIError{StatusCode: 429, Message: "Anthropic Error: rate limited"}
	saver := &recordingSaver{}
	p := newPipeline(t, &stubModel{err: fmt.Errorf("wrapped: %w", apiErr)}, generator.WithSaver(saver))

	_, err := p.Generate(context.Background(), generator.Request{Name: "bell"})

	var got *llm.APIError
	require.True(t, errors.As(err, &got))
	assert.Equal(t, 429, got.StatusCode)
	assert.Equal(t, "Anthropic Error: rate limited", got.Message)
	assert.NotErrorIs(t, err, generator.ErrGenerationFailed)
	assert.Empty(t, saver.saved)
}

func TestGenerate_TransportAndBreakerErrors(t *testing.T) {
	for _, cause := range []error{errors.New("dial tcp: connection refused"), llm.ErrCircuitOpen} {
		p := newPipeline(t, &stubModel{err: cause})
		_, err := p.Generate(context.Background(), generator.Request{Name: "bell"})
		assert.ErrorIs(t, err, generator.ErrGenerationFailed)
	}
}

func TestGenerate_SaveOutcomesDoNotChangeResponse(t *testing.T) {
	model := func() *stubModel { return &stubModel{reply: `{"path":"M1 1","tags":["x"]}`} }
	ctx := context.Background()

	t.Run("accepted", func(t *testing.T) {
		saver := &recordingSaver{result: catalog.SaveResult{Accepted: true, Via: catalog.ViaRemote}}
		got, err := newPipeline(t, model(), generator.WithSaver(saver)).Generate(ctx, generator.Request{Name: "x"})
		require.NoError(t, err)
		require.Len(t, saver.saved, 1)
		assert.Equal(t, saver.saved[0], got)
	})

	t.Run("rejected", func(t *testing.T) {
		saver := &recordingSaver{result: catalog.SaveResult{Existing: true}}
		got, err := newPipeline(t, model(), generator.WithSaver(saver)).Generate(ctx, generator.Request{Name: "x"})
		require.NoError(t, err)
		assert.Equal(t, "x", got.ID)
	})

	t.Run("save error", func(t *testing.T) {
		saver := &recordingSaver{err: errors.New("invalid")}
		got, err := newPipeline(t, model(), generator.WithSaver(saver)).Generate(ctx, generator.Request{Name: "x"})
		require.NoError(t, err)
		assert.Equal(t, "M1 1", got.Path)
	})
}

func TestGenerate_WithRealCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "icons.json")
	cat := catalog.New(nil, snapshot.New(path, true), catalog.WithLogger(zaptest.NewLogger(t)))
	p := newPipeline(t, &stubModel{reply: `{"path":"M3 3","tags":["star"]}`}, generator.WithSaver(cat))

	got, err := p.Generate(context.Background(), generator.Request{Name: "star"})
	require.NoError(t, err)

	listing := cat.FetchAll(context.Background())
	require.Len(t, listing.Icons, 1)
	assert.Equal(t, got.ID, listing.Icons[0].ID)
	assert.True(t, listing.Icons[0].Generated)
}
