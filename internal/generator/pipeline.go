// Package generator turns an icon name into a finished icon record: it
// builds the prompt, calls the model once, parses the reply and hands the
// record to the catalog for persistence.
package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Adalene/glyph/internal/catalog"
	"github.com/Adalene/glyph/internal/llm"
	"github.com/Adalene/glyph/pkg/types"
)

var (
	// ErrInvalidInput is returned for a missing, blank or unsluggable name.
	ErrInvalidInput = errors.New("generator: invalid input")

	// ErrNotConfigured is returned when no model credential is configured.
	ErrNotConfigured = errors.New("generator: API key not configured")

	// ErrGenerationFailed covers transport failures, an open circuit and
	// replies that do not parse into an icon.
	ErrGenerationFailed = errors.New("generator: generation failed")
)

// Request is one generation request. Category and Style are optional.
type Request struct {
	Name     string
	Category string
	Style    string
}

// Saver persists a generated record. *catalog.Catalog satisfies it.
type Saver interface {
	Save(ctx context.Context, icon types.Icon) (catalog.SaveResult, error)
}

// Pipeline generates icons with a TextGenerator and optionally saves them.
type Pipeline struct {
	gen    llm.TextGenerator
	saver  Saver
	logger *zap.Logger
	now    func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithSaver enables persistence of every generated icon.
func WithSaver(s Saver) Option {
	return func(p *Pipeline) { p.saver = s }
}

// WithLogger sets the pipeline logger.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithClock overrides the time source for generatedAt.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

// New creates a Pipeline. gen may be nil when no credential is configured;
// Generate then fails with ErrNotConfigured.
func New(gen llm.TextGenerator, opts ...Option) *Pipeline {
	p := &Pipeline{
		gen:    gen,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Configured reports whether a model backend is available.
func (p *Pipeline) Configured() bool {
	return p.gen != nil
}

// Generate produces one icon. Errors are ErrNotConfigured, ErrInvalidInput,
// ErrGenerationFailed (all wrapped) or an *llm.APIError carrying the
// upstream status. Persistence problems are logged and never fail the call.
func (p *Pipeline) Generate(ctx context.Context, req Request) (types.Icon, error) {
	if p.gen == nil {
		return types.Icon{}, ErrNotConfigured
	}

	name := req.Name
	if strings.TrimSpace(name) == "" {
		return types.Icon{}, fmt.Errorf("%w: missing icon name", ErrInvalidInput)
	}
	id := types.Slugify(name)
	if id == "" || strings.Trim(id, "-") == "" {
		return types.Icon{}, fmt.Errorf("%w: name %q has no usable characters", ErrInvalidInput, name)
	}

	category := req.Category
	if category == "" {
		category = types.DefaultCategory
	}
	style := llm.ParseStyle(req.Style)

	logger := p.logger.With(zap.String("id", id), zap.String("style", string(style)))

	text, err := p.gen.Complete(ctx, llm.IconPrompt(name, category, style))
	if err != nil {
		var apiErr *llm.APIError
		if errors.As(err, &apiErr) {
			logger.Warn("upstream rejected generation", zap.Int("status", apiErr.StatusCode), zap.Error(err))
			return types.Icon{}, apiErr
		}
		logger.Error("generation call failed", zap.Error(err))
		return types.Icon{}, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	parsed, err := llm.ParseIconResponse(text)
	if err != nil {
		logger.Error("unparseable model reply", zap.Error(err), zap.String("reply", text))
		return types.Icon{}, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	tags := parsed.Tags
	if tags == nil {
		tags = []string{strings.ToLower(name)}
	}

	icon := types.Icon{
		ID:          id,
		Name:        types.Capitalize(name),
		Category:    category,
		Tags:        tags,
		Path:        parsed.Path,
		Generated:   true,
		GeneratedAt: p.now().UnixMilli(),
	}

	if p.saver == nil {
		return icon, nil
	}

	result, err := p.saver.Save(ctx, icon)
	switch {
	case err != nil:
		logger.Error("generated icon not saved", zap.Error(err))
	case !result.Accepted:
		logger.Info("generated icon already in catalog, not saved")
	default:
		logger.Info("generated icon saved", zap.String("via", result.Via))
		icon = result.Icon
	}
	return icon, nil
}
