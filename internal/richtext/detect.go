package richtext

import (
	"context"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/blackmichael/skygazer/internal/domain"
)

var (
	linkRegex    = regexp.MustCompile(`https?:\/\/[\w\-]+(?:\.[\w\-]+)+(?:[\w/\-?=%.&#~+:@!]*[\w/\-&?=%#~+])?`)
	mentionRegex = regexp.MustCompile(`(?:^|[\s(])(@([a-zA-Z0-9.\-]+))`)
	tagRegex     = regexp.MustCompile(`(?:^|\s)(#([\p{L}\p{M}0-9_]+))`)
	handleRegex  = regexp.MustCompile(`^([a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?\.)+[a-zA-Z]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?$`)
)

// HandleResolver resolves a handle to a DID.
type HandleResolver interface {
	ResolveHandle(ctx context.Context, handle string) (string, error)
}

type Detector struct {
	resolver HandleResolver
	logger   *slog.Logger
}

func NewDetector(resolver HandleResolver, logger *slog.Logger) *Detector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Detector{resolver: resolver, logger: logger}
}

type span struct {
	start, end int
	feature    domain.FacetFeature
}

// Detect finds links, tags and mentions in text. Mentions are resolved to
// DIDs concurrently; a mention whose handle does not resolve is left out.
// Detect only fails when ctx is done.
func (d *Detector) Detect(ctx context.Context, text string) ([]domain.Facet, error) {
	if text == "" {
		return nil, nil
	}

	var spans []span
	for _, m := range linkRegex.FindAllStringIndex(text, -1) {
		spans = append(spans, span{start: m[0], end: m[1], feature: domain.FacetFeature{
			Kind:  domain.FeatureLink,
			Value: text[m[0]:m[1]],
		}})
	}
	for _, m := range tagRegex.FindAllStringSubmatchIndex(text, -1) {
		tag := text[m[4]:m[5]]
		if isNumeric(tag) {
			continue
		}
		spans = append(spans, span{start: m[2], end: m[3], feature: domain.FacetFeature{
			Kind:  domain.FeatureTag,
			Value: tag,
		}})
	}

	mentions := mentionRegex.FindAllStringSubmatchIndex(text, -1)
	resolved := make([]*span, len(mentions))
	g, gctx := errgroup.WithContext(ctx)
	for i, m := range mentions {
		handle := strings.TrimRight(text[m[4]:m[5]], ".")
		if !handleRegex.MatchString(handle) || d.resolver == nil {
			continue
		}
		start, end := m[2], m[4]+len(handle)
		g.Go(func() error {
			did, err := d.resolver.ResolveHandle(gctx, handle)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				d.logger.Debug("failed to resolve mention", "handle", handle, "error", err)
				return nil
			}
			resolved[i] = &span{start: start, end: end, feature: domain.FacetFeature{
				Kind:  domain.FeatureMention,
				Value: did,
			}}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for _, s := range resolved {
		if s != nil {
			spans = append(spans, *s)
		}
	}

	return toFacets(text, spans), nil
}

// toFacets orders spans and drops any that overlap an earlier one.
func toFacets(text string, spans []span) []domain.Facet {
	sort.SliceStable(spans, func(i, j int) bool { return spans[i].start < spans[j].start })

	idx := newOffsetIndex(text)
	var out []domain.Facet
	last := -1
	for _, s := range spans {
		if s.start < last {
			continue
		}
		f, ok := idx.facet(s.start, s.end, []domain.FacetFeature{s.feature})
		if !ok {
			continue
		}
		out = append(out, f)
		last = s.end
	}
	return out
}

func isNumeric(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
