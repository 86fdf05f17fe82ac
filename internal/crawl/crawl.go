// Package crawl drives list-to-detail traversal for every source shape and
// performs the final per-batch ID assignment.
package crawl

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/twgovdata/laborfaq/internal/faq"
	"github.com/twgovdata/laborfaq/internal/fetch"
	"github.com/twgovdata/laborfaq/internal/metrics"
)

// Site is the capability set a paginated or single-tree source provides.
// ParseDetail degrades gracefully on malformed pages and never errors; the
// partial record survives with whatever fields it already has.
type Site interface {
	Source() faq.Source
	ListURL(page int) string
	ParseList(body []byte) ([]*faq.Record, error)
	ParseDetail(body []byte, partial *faq.Record) *faq.Record
}

// MultiLevelSite is the capability set of a source whose listing pages must
// first be discovered by walking a category tree.
type MultiLevelSite interface {
	Source() faq.Source
	Discover(ctx context.Context) ([]faq.Endpoint, error)
	ParseList(body []byte) ([]*faq.Record, error)
	ParseDetail(body []byte, partial *faq.Record) *faq.Record
}

// Runner executes crawl runs. One Runner serves one process; sources run
// sequentially through the shared fetch client.
type Runner struct {
	client *fetch.Client
	logger *zap.Logger
	runID  string
}

// NewRunner returns a Runner with a fresh run identifier.
func NewRunner(client *fetch.Client, logger *zap.Logger) *Runner {
	runID := uuid.NewString()
	return &Runner{
		client: client,
		logger: logger.With(zap.String("run_id", runID)),
		runID:  runID,
	}
}

// RunID returns the identifier attached to this runner's log entries.
func (r *Runner) RunID() string { return r.runID }

// RunPaginated crawls a paginated source page by page, stopping when a page
// yields no items or the page bound is reached. maxPages <= 0 means
// unbounded.
func (r *Runner) RunPaginated(ctx context.Context, site Site, startPage, maxPages int) ([]*faq.Record, error) {
	if startPage < 1 {
		startPage = 1
	}
	source := site.Source()
	var batch []*faq.Record

	for page := startPage; ; page++ {
		if maxPages > 0 && page >= startPage+maxPages {
			r.logger.Info("page bound reached", zap.Int("max_pages", maxPages))
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("crawl %s: %w", source, err)
		}

		items, err := r.crawlPage(ctx, site, page)
		if err != nil {
			return nil, err
		}
		if len(items) == 0 {
			r.logger.Info("empty page, stopping", zap.Int("page", page))
			break
		}
		batch = append(batch, items...)
	}

	r.finish(source, batch)
	return batch, nil
}

// crawlPage fetches one list page and expands every item's detail page. A
// failed list fetch yields zero items so the page loop terminates; a failed
// detail fetch drops that item only.
func (r *Runner) crawlPage(ctx context.Context, site Site, page int) ([]*faq.Record, error) {
	source := site.Source()
	r.logger.Info("crawling list page", zap.String("source", string(source)), zap.Int("page", page))

	resp, err := r.client.Get(ctx, site.ListURL(page))
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("crawl %s page %d: %w", source, page, ctx.Err())
		}
		r.logger.Error("list page fetch failed", zap.Int("page", page), zap.Error(err))
		return nil, nil
	}

	items, err := site.ParseList(resp.Body)
	if err != nil {
		r.logger.Error("list page parse failed", zap.Int("page", page), zap.Error(err))
		return nil, nil
	}

	completed := r.expandDetails(ctx, site.ParseDetail, items)
	for _, rec := range completed {
		rec.Page = page
	}
	r.logger.Info("page done",
		zap.Int("page", page),
		zap.Int("completed", len(completed)),
		zap.Int("listed", len(items)),
	)
	return completed, nil
}

// RunTree crawls a source whose entire listing arrives in one tree page.
func (r *Runner) RunTree(ctx context.Context, site Site) ([]*faq.Record, error) {
	source := site.Source()
	r.logger.Info("crawling tree page", zap.String("source", string(source)))

	resp, err := r.client.Get(ctx, site.ListURL(1))
	if err != nil {
		return nil, fmt.Errorf("crawl %s tree page: %w", source, err)
	}
	items, err := site.ParseList(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse %s tree page: %w", source, err)
	}

	batch := r.expandDetails(ctx, site.ParseDetail, items)
	r.finish(source, batch)
	return batch, nil
}

// RunMultiLevel crawls a source with a discovery phase. Discovery completes
// fully before any endpoint is expanded; list endpoints stamp their name as
// category on every item, article endpoints become a synthesized partial
// record expanded directly.
func (r *Runner) RunMultiLevel(ctx context.Context, site MultiLevelSite) ([]*faq.Record, error) {
	source := site.Source()

	endpoints, err := site.Discover(ctx)
	if err != nil {
		return nil, fmt.Errorf("discover %s endpoints: %w", source, err)
	}
	if len(endpoints) == 0 {
		r.logger.Warn("no endpoints discovered", zap.String("source", string(source)))
		return nil, nil
	}

	var batch []*faq.Record
	for i, ep := range endpoints {
		r.logger.Info("expanding endpoint",
			zap.Int("n", i+1),
			zap.Int("total", len(endpoints)),
			zap.String("type", string(ep.Type)),
			zap.String("name", ep.Name),
		)

		switch ep.Type {
		case faq.EndpointList:
			resp, err := r.client.Get(ctx, ep.URL)
			if err != nil {
				if ctx.Err() != nil {
					return nil, fmt.Errorf("crawl %s: %w", source, ctx.Err())
				}
				r.logger.Error("endpoint fetch failed", zap.String("url", ep.URL), zap.Error(err))
				continue
			}
			items, err := site.ParseList(resp.Body)
			if err != nil {
				r.logger.Error("endpoint parse failed", zap.String("url", ep.URL), zap.Error(err))
				continue
			}
			completed := r.expandDetails(ctx, site.ParseDetail, items)
			for _, rec := range completed {
				rec.Category = ep.Name
			}
			batch = append(batch, completed...)

		case faq.EndpointArticle:
			segments := strings.Split(ep.Name, " > ")
			partial := &faq.Record{
				Source:    source,
				Question:  segments[len(segments)-1],
				Category:  ep.Name,
				DetailURL: ep.URL,
			}
			completed := r.expandDetails(ctx, site.ParseDetail, []*faq.Record{partial})
			for _, rec := range completed {
				rec.Category = ep.Name
			}
			batch = append(batch, completed...)
		}
	}

	r.finish(source, batch)
	return batch, nil
}

type detailParser func(body []byte, partial *faq.Record) *faq.Record

// expandDetails fetches and merges each item's detail page. Items without a
// detail URL or with an exhausted fetch are dropped; the batch continues.
func (r *Runner) expandDetails(ctx context.Context, parse detailParser, items []*faq.Record) []*faq.Record {
	var completed []*faq.Record
	for _, item := range items {
		if item.DetailURL == "" {
			r.logger.Warn("item without detail url", zap.String("question", item.Question))
			continue
		}
		resp, err := r.client.Get(ctx, item.DetailURL)
		if err != nil {
			r.logger.Error("detail fetch failed, dropping item",
				zap.String("url", item.DetailURL),
				zap.Error(err),
			)
			continue
		}
		completed = append(completed, parse(resp.Body, item))
	}
	return completed
}

// finish assigns batch IDs and records run totals.
func (r *Runner) finish(source faq.Source, batch []*faq.Record) {
	faq.AssignIDs(source, batch)
	metrics.RecordsCrawled.WithLabelValues(string(source)).Add(float64(len(batch)))

	stats := r.client.Stats()
	r.logger.Info("crawl complete",
		zap.String("source", string(source)),
		zap.Int("records", len(batch)),
		zap.Int("total_requests", stats.TotalRequests),
		zap.Int("successful_requests", stats.SuccessfulRequests),
		zap.Int("failed_requests", stats.FailedRequests),
	)
}
