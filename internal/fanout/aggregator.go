// Package fanout enriches and normalizes a page of feed items concurrently.
package fanout

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/blackmichael/skygazer/internal/domain"
	"github.com/blackmichael/skygazer/internal/lexicon"
	"github.com/blackmichael/skygazer/internal/normalize"
)

// LabelResolver resolves the user labels of an actor.
type LabelResolver interface {
	ResolveLabels(ctx context.Context, subject string, labelerDIDs []string) ([]domain.UserLabel, error)
}

type Options struct {
	// Limit caps the number of items processed at once. Zero means one
	// goroutine per item.
	Limit int

	Logger *slog.Logger
}

type Aggregator struct {
	labels LabelResolver
	limit  int
	logger *slog.Logger
}

func New(labels LabelResolver, opts Options) *Aggregator {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Aggregator{labels: labels, limit: opts.Limit, logger: opts.Logger}
}

// Aggregate resolves labels for the author of every item, and for reply
// ancestors, then normalizes each item. The result is in input order.
// Label failures degrade to no labels and undecodable items are dropped.
// If ctx is cancelled the whole page is discarded and ctx's error returned.
func (a *Aggregator) Aggregate(ctx context.Context, items []lexicon.FeedViewPost, labelerDIDs []string) ([]domain.FeedPost, error) {
	ctx, span := otel.Tracer("fanout").Start(ctx, "Aggregate")
	defer span.End()
	span.SetAttributes(attribute.Int("items", len(items)))
	defer observeDuration(time.Now())

	slots := make([]*domain.FeedPost, len(items))
	g, gctx := errgroup.WithContext(ctx)
	if a.limit > 0 {
		g.SetLimit(a.limit)
	}
	for i := range items {
		item := &items[i]
		g.Go(func() error {
			labels, err := a.itemLabels(gctx, item, labelerDIDs)
			if err != nil {
				return err
			}
			fp, err := normalize.FeedItem(item, labels)
			if err != nil {
				a.drop(item.Post, err)
				return nil
			}
			itemsProcessed.WithLabelValues("ok").Inc()
			slots[i] = fp
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]domain.FeedPost, 0, len(items))
	for _, fp := range slots {
		if fp != nil {
			out = append(out, *fp)
		}
	}
	return out, nil
}

// AggregatePosts is Aggregate for bare post views.
func (a *Aggregator) AggregatePosts(ctx context.Context, views []lexicon.PostView, labelerDIDs []string) ([]domain.Post, error) {
	ctx, span := otel.Tracer("fanout").Start(ctx, "AggregatePosts")
	defer span.End()
	span.SetAttributes(attribute.Int("posts", len(views)))

	slots := make([]*domain.Post, len(views))
	g, gctx := errgroup.WithContext(ctx)
	if a.limit > 0 {
		g.SetLimit(a.limit)
	}
	for i := range views {
		view := &views[i]
		g.Go(func() error {
			labels, err := a.resolve(gctx, authorDID(view), labelerDIDs)
			if err != nil {
				return err
			}
			p, err := normalize.Post(view, labels)
			if err != nil {
				a.drop(view, err)
				return nil
			}
			itemsProcessed.WithLabelValues("ok").Inc()
			slots[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]domain.Post, 0, len(views))
	for _, p := range slots {
		if p != nil {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (a *Aggregator) itemLabels(ctx context.Context, item *lexicon.FeedViewPost, labelerDIDs []string) (normalize.ItemLabels, error) {
	var labels normalize.ItemLabels
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		labels.Author, err = a.resolve(gctx, authorDID(item.Post), labelerDIDs)
		return err
	})
	if item.Reply != nil {
		g.Go(func() (err error) {
			labels.Parent, err = a.resolve(gctx, refAuthorDID(item.Reply.Parent), labelerDIDs)
			return err
		})
		g.Go(func() (err error) {
			labels.Root, err = a.resolve(gctx, refAuthorDID(item.Reply.Root), labelerDIDs)
			return err
		})
	}
	err := g.Wait()
	return labels, err
}

// resolve swallows resolver errors unless ctx is done.
func (a *Aggregator) resolve(ctx context.Context, subject string, labelerDIDs []string) ([]domain.UserLabel, error) {
	if subject == "" || a.labels == nil {
		return nil, nil
	}
	labels, err := a.labels.ResolveLabels(ctx, subject, labelerDIDs)
	if err == nil {
		return labels, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	labelFailures.Inc()
	a.logger.Warn("failed to resolve labels", "subject", subject, "error", err)
	return nil, nil
}

func (a *Aggregator) drop(view *lexicon.PostView, err error) {
	itemsProcessed.WithLabelValues("dropped").Inc()
	uri := ""
	if view != nil {
		uri = view.URI
	}
	if errors.Is(err, domain.ErrUndecodable) {
		a.logger.Debug("dropping undecodable post", "uri", uri, "error", err)
		return
	}
	a.logger.Warn("dropping post", "uri", uri, "error", err)
}

func authorDID(view *lexicon.PostView) string {
	if view == nil || view.Author == nil {
		return ""
	}
	return view.Author.DID
}

func refAuthorDID(ref *lexicon.ReplyRefPost) string {
	if ref == nil {
		return ""
	}
	return authorDID(ref.PostView)
}

func observeDuration(start time.Time) {
	aggregateDuration.Observe(time.Since(start).Seconds())
}
