// Package assembly turns a template plus a slide selection into a new deck:
// copy, prune and reorder, rewrite text, record.
package assembly

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gnemet/PromptDeck/internal/generation"
	"github.com/gnemet/PromptDeck/internal/store"
	"go.uber.org/zap"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/slides/v1"
)

var ErrValidation = errors.New("invalid request")

// ValidationError carries the message key shown to the user.
type ValidationError struct {
	Key string
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func invalid(key, format string, args ...any) error {
	return &ValidationError{Key: key, Msg: fmt.Sprintf(format, args...)}
}

// AbortError reports a failure after the copy was created.
type AbortError struct {
	CopyID string
	Slides []SlideReport
	Err    error
}

func (e *AbortError) Error() string {
	return fmt.Sprintf("assembly of %s aborted: %v", e.CopyID, e.Err)
}

func (e *AbortError) Unwrap() error { return e.Err }

// Provider is the slice of the document provider the workflow needs.
type Provider interface {
	GetFile(ctx context.Context, id string) (*drive.File, error)
	GetPresentation(ctx context.Context, id string) (*slides.Presentation, error)
	CopyFile(ctx context.Context, id, name, parentFolder string) (*drive.File, error)
	BatchUpdate(ctx context.Context, presentationID string, requests []*slides.Request) error
	DeleteFile(ctx context.Context, id string) error
}

type Generator interface {
	GenerateSlideContent(ctx context.Context, prompt, theme string, placeholders []generation.Placeholder) (map[string]string, error)
}

type Request struct {
	TemplateID   string            `json:"templateId"`
	ActiveSlides []int             `json:"activeSlides"`
	Metadata     map[string]any    `json:"metadata,omitempty"`
	Prompt       string            `json:"prompt,omitempty"`
	SlideThemes  map[string]string `json:"slideThemes,omitempty"`
}

type Stage string

const (
	StageDiscovered Stage = "discovered"
	StageGenerated  Stage = "generated"
	StageEdited     Stage = "edited"
	StageSkipped    Stage = "skipped"
	StageFailed     Stage = "failed"
)

// SlideReport is the text pass outcome for one slide of the copy.
type SlideReport struct {
	Index        int    `json:"index"`
	ObjectID     string `json:"objectId"`
	Placeholders int    `json:"placeholders"`
	Stage        Stage  `json:"stage"`
	Error        string `json:"error,omitempty"`
}

type Result struct {
	ID          string              `json:"id"`
	WebViewLink string              `json:"webViewLink"`
	Record      *store.Presentation `json:"-"`
	Slides      []SlideReport       `json:"slides,omitempty"`
}

// Options tune the workflow. DefaultBudget applies to placeholders with no
// current text.
type Options struct {
	DestinationFolder string
	DefaultBudget     int
	CleanupOnFailure  bool
}

type Assembler struct {
	provider  Provider
	generator Generator
	store     store.Store
	opts      Options
	log       *zap.Logger
	now       func() time.Time
}

func New(p Provider, g Generator, s store.Store, opts Options, log *zap.Logger) *Assembler {
	if opts.DefaultBudget <= 0 {
		opts.DefaultBudget = 200
	}
	return &Assembler{provider: p, generator: g, store: s, opts: opts, log: log, now: time.Now}
}

// NormalizeTemplateID accepts either a bare id or a JSON-encoded template
// object and returns the id.
func NormalizeTemplateID(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "{") {
		return raw
	}
	var tpl struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal([]byte(raw), &tpl); err != nil || tpl.ID == "" {
		return raw
	}
	return tpl.ID
}

func (r *Request) validate() error {
	r.TemplateID = NormalizeTemplateID(r.TemplateID)
	if r.TemplateID == "" {
		return invalid("template_id_required", "template id is required")
	}
	if len(r.ActiveSlides) == 0 {
		return invalid("active_slides_required", "at least one active slide is required")
	}
	return nil
}

// Assemble runs the whole workflow. A failure after the copy exists is an
// *AbortError; the copy is only removed when CleanupOnFailure is set.
func (a *Assembler) Assemble(ctx context.Context, req Request) (*Result, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	log := a.log.With(zap.String("template_id", req.TemplateID))

	file, err := a.provider.GetFile(ctx, req.TemplateID)
	if err != nil {
		return nil, fmt.Errorf("template %s not accessible: %w", req.TemplateID, err)
	}
	tpl, err := a.provider.GetPresentation(ctx, req.TemplateID)
	if err != nil {
		return nil, fmt.Errorf("reading template %s: %w", req.TemplateID, err)
	}
	if err := checkSelection(req.ActiveSlides, len(tpl.Slides)); err != nil {
		return nil, err
	}

	cp, err := a.provider.CopyFile(ctx, req.TemplateID, a.copyName(file.Name, req.Prompt), a.opts.DestinationFolder)
	if err != nil {
		return nil, fmt.Errorf("copying template: %w", err)
	}
	log = log.With(zap.String("presentation_id", cp.Id))
	log.Info("template copied", zap.String("name", cp.Name))

	reports, err := a.build(ctx, cp.Id, req, log)
	if err != nil {
		a.cleanup(ctx, cp.Id, log)
		return nil, &AbortError{CopyID: cp.Id, Slides: reports, Err: err}
	}

	record := &store.Presentation{
		GoogleSlidesID: cp.Id,
		TemplateID:     req.TemplateID,
		SlidesOrder:    req.ActiveSlides,
		Metadata:       mergeMetadata(req),
		WebViewLink:    cp.WebViewLink,
	}
	if err := a.store.Ping(ctx); err != nil {
		a.cleanup(ctx, cp.Id, log)
		return nil, &AbortError{CopyID: cp.Id, Slides: reports, Err: fmt.Errorf("metadata store unavailable: %w", err)}
	}
	if err := a.store.Insert(ctx, record); err != nil {
		a.cleanup(ctx, cp.Id, log)
		return nil, &AbortError{CopyID: cp.Id, Slides: reports, Err: err}
	}

	log.Info("presentation assembled", zap.Int("slides", len(req.ActiveSlides)))
	return &Result{ID: cp.Id, WebViewLink: cp.WebViewLink, Record: record, Slides: reports}, nil
}

func (a *Assembler) build(ctx context.Context, id string, req Request, log *zap.Logger) ([]SlideReport, error) {
	deck, err := a.provider.GetPresentation(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reading copy: %w", err)
	}
	if plan := PlanStructure(slideIDs(deck.Slides), req.ActiveSlides); len(plan) > 0 {
		if err := a.provider.BatchUpdate(ctx, id, plan); err != nil {
			return nil, fmt.Errorf("pruning slides: %w", err)
		}
	}

	if req.Prompt == "" || req.SlideThemes == nil {
		return nil, nil
	}
	return a.rewriteText(ctx, id, req, log)
}

// rewriteText handles slides one at a time, in deck order.
func (a *Assembler) rewriteText(ctx context.Context, id string, req Request, log *zap.Logger) ([]SlideReport, error) {
	deck, err := a.provider.GetPresentation(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reading pruned copy: %w", err)
	}

	reports := make([]SlideReport, 0, len(deck.Slides))
	for i, page := range deck.Slides {
		rep := SlideReport{Index: i, ObjectID: page.ObjectId}
		phs := DiscoverPlaceholders(page, a.opts.DefaultBudget)
		if len(phs) == 0 {
			rep.Stage = StageSkipped
			reports = append(reports, rep)
			continue
		}
		rep.Stage = StageDiscovered
		rep.Placeholders = len(phs)

		fail := func(err error) ([]SlideReport, error) {
			rep.Stage = StageFailed
			rep.Error = err.Error()
			return append(reports, rep), fmt.Errorf("slide %d: %w", i, err)
		}

		content, err := a.generator.GenerateSlideContent(ctx, req.Prompt, req.SlideThemes[strconv.Itoa(i)], toGeneration(phs))
		if err != nil {
			return fail(err)
		}
		rep.Stage = StageGenerated

		for _, ph := range phs {
			if err := a.provider.BatchUpdate(ctx, id, TextEditRequests(ph, content[ph.ObjectID])); err != nil {
				return fail(fmt.Errorf("replacing text of %s: %w", ph.ObjectID, err))
			}
		}
		rep.Stage = StageEdited
		log.Debug("slide rewritten", zap.Int("slide", i), zap.Int("placeholders", len(phs)))
		reports = append(reports, rep)
	}
	return reports, nil
}

func (a *Assembler) cleanup(ctx context.Context, id string, log *zap.Logger) {
	if !a.opts.CleanupOnFailure {
		log.Warn("assembly failed, copy left in place")
		return
	}
	if err := a.provider.DeleteFile(context.WithoutCancel(ctx), id); err != nil {
		log.Error("failed to delete partial copy", zap.Error(err))
		return
	}
	log.Info("partial copy deleted")
}

func (a *Assembler) copyName(templateName, prompt string) string {
	label := strings.TrimSpace(prompt)
	if r := []rune(label); len(r) > 80 {
		label = string(r[:80])
	}
	if label == "" {
		label = a.now().Format("2006-01-02 15:04:05")
	}
	return templateName + " - " + label
}

func mergeMetadata(req Request) map[string]any {
	meta := make(map[string]any, len(req.Metadata)+2)
	for k, v := range req.Metadata {
		meta[k] = v
	}
	if req.Prompt != "" {
		meta["prompt"] = req.Prompt
	}
	if req.SlideThemes != nil {
		meta["slideThemes"] = req.SlideThemes
	}
	return meta
}
