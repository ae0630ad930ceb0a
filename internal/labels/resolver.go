// Package labels resolves the labeler-issued badges that apply to an actor.
package labels

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/text/language"

	"github.com/blackmichael/skygazer/internal/domain"
	"github.com/blackmichael/skygazer/internal/lexicon"
)

const (
	DefaultCacheSize = 256
	DefaultCacheTTL  = 10 * time.Minute
)

type Options struct {
	// Locale selects label names and descriptions. Defaults to English.
	Locale language.Tag

	// CacheSize and CacheTTL bound the labeler view cache. A zero CacheTTL
	// uses DefaultCacheTTL; a negative one disables caching.
	CacheSize int
	CacheTTL  time.Duration

	Logger *slog.Logger
}

type Resolver struct {
	client domain.LabelClient
	locale language.Tag
	cache  *expirable.LRU[string, *lexicon.LabelerViewDetailed]
	logger *slog.Logger
	now    func() time.Time
}

func NewResolver(client domain.LabelClient, opts Options) *Resolver {
	if opts.Locale == language.Und {
		opts.Locale = language.English
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = DefaultCacheSize
	}
	if opts.CacheTTL == 0 {
		opts.CacheTTL = DefaultCacheTTL
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	r := &Resolver{
		client: client,
		locale: opts.Locale,
		logger: opts.Logger,
		now:    time.Now,
	}
	if opts.CacheTTL > 0 {
		r.cache = expirable.NewLRU[string, *lexicon.LabelerViewDetailed](opts.CacheSize, nil, opts.CacheTTL)
	}
	return r
}

type labelKey struct {
	labeler string
	value   string
}

// ResolveLabels returns the user labels the given labelers currently apply to
// subject, in labeler order. It makes no calls when subject or labelerDIDs
// is empty. Errors from the label query or the labeler lookup are returned
// as is; callers decide whether to degrade.
func (r *Resolver) ResolveLabels(ctx context.Context, subject string, labelerDIDs []string) ([]domain.UserLabel, error) {
	if subject == "" || len(labelerDIDs) == 0 {
		return nil, nil
	}

	ctx, span := otel.Tracer("labels").Start(ctx, "ResolveLabels")
	defer span.End()
	span.SetAttributes(attribute.String("subject", subject), attribute.Int("labelers", len(labelerDIDs)))

	start := time.Now()
	out, err := r.resolve(ctx, subject, labelerDIDs)
	status := "ok"
	if err != nil {
		status = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	resolutions.WithLabelValues(status).Inc()
	resolutionDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())
	return out, err
}

func (r *Resolver) resolve(ctx context.Context, subject string, labelerDIDs []string) ([]domain.UserLabel, error) {
	raw, err := r.client.QueryLabels(ctx, []string{subject}, labelerDIDs)
	if err != nil {
		return nil, fmt.Errorf("query labels: %w", err)
	}

	applied := r.activeLabels(raw)
	if len(applied) == 0 {
		return nil, nil
	}

	var referenced []string
	seen := make(map[string]bool)
	for _, did := range labelerDIDs {
		if seen[did] {
			continue
		}
		seen[did] = true
		for key := range applied {
			if key.labeler == did {
				referenced = append(referenced, did)
				break
			}
		}
	}

	views, err := r.labelerViews(ctx, referenced)
	if err != nil {
		return nil, fmt.Errorf("get labeler services: %w", err)
	}

	var out []domain.UserLabel
	for _, did := range referenced {
		view, ok := views[did]
		if !ok || view.Policies == nil {
			continue
		}
		for _, def := range view.Policies.LabelValueDefinitions {
			if !applied[labelKey{labeler: did, value: def.Identifier}] {
				continue
			}
			out = append(out, r.userLabel(view, def))
		}
	}
	return out, nil
}

// activeLabels keeps the newest label per (labeler, value) and drops the pair
// when that label is a negation or has expired.
func (r *Resolver) activeLabels(raw []lexicon.Label) map[labelKey]bool {
	now := r.now()
	latest := make(map[labelKey]lexicon.Label)
	for _, l := range raw {
		key := labelKey{labeler: l.Src, value: l.Val}
		prev, ok := latest[key]
		if !ok || !l.CreatedAt().Before(prev.CreatedAt()) {
			latest[key] = l
		}
	}

	applied := make(map[labelKey]bool, len(latest))
	for key, l := range latest {
		if l.Neg || l.Expired(now) {
			continue
		}
		applied[key] = true
	}
	return applied
}

func (r *Resolver) labelerViews(ctx context.Context, dids []string) (map[string]*lexicon.LabelerViewDetailed, error) {
	views := make(map[string]*lexicon.LabelerViewDetailed, len(dids))
	var missing []string
	for _, did := range dids {
		if r.cache != nil {
			if v, ok := r.cache.Get(did); ok {
				labelerCacheHits.Inc()
				views[did] = v
				continue
			}
		}
		labelerCacheMisses.Inc()
		missing = append(missing, did)
	}
	if len(missing) == 0 {
		return views, nil
	}

	fetched, err := r.client.GetLabelerServices(ctx, missing, true)
	if err != nil {
		return nil, err
	}
	for _, sv := range fetched {
		v := sv.LabelerViewDetailed
		if v == nil || v.Creator == nil {
			continue
		}
		views[v.Creator.DID] = v
		if r.cache != nil {
			r.cache.Add(v.Creator.DID, v)
		}
	}
	return views, nil
}

func (r *Resolver) userLabel(view *lexicon.LabelerViewDetailed, def lexicon.LabelValueDefinition) domain.UserLabel {
	name, desc := def.Identifier, ""
	if loc, ok := r.pickLocale(def.Locales); ok {
		name, desc = loc.Name, loc.Description
	}

	ul := domain.UserLabel{
		Name:        name,
		Description: desc,
		CreatorDID:  view.Creator.DID,
		Blurs:       def.Blurs,
		Adult:       def.AdultOnly != nil && *def.AdultOnly,
	}
	ul.CreatorHandle = view.Creator.Handle
	if view.Creator.Avatar != nil {
		ul.Avatar = *view.Creator.Avatar
	}
	return ul
}

// pickLocale prefers an exact tag match, then the same base language, then
// the first declared locale.
func (r *Resolver) pickLocale(locales []lexicon.LabelValueDefinitionStrings) (lexicon.LabelValueDefinitionStrings, bool) {
	if len(locales) == 0 {
		return lexicon.LabelValueDefinitionStrings{}, false
	}

	want, _ := r.locale.Base()
	baseMatch := -1
	for i, loc := range locales {
		tag, err := language.Parse(loc.Lang)
		if err != nil {
			continue
		}
		if tag == r.locale {
			return loc, true
		}
		if base, _ := tag.Base(); baseMatch < 0 && base == want {
			baseMatch = i
		}
	}
	if baseMatch >= 0 {
		return locales[baseMatch], true
	}
	return locales[0], true
}
