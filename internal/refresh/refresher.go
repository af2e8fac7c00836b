package refresh

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"backstage/internal/logging"
	"backstage/internal/match"
	"backstage/internal/notifications"
	"backstage/internal/programme"
)

// ActFetcher fetches a fresh act list snapshot.
type ActFetcher interface {
	Fetch(ctx context.Context) ([]programme.Act, error)
}

// ProgramFetcher fetches the website's published descriptions for one stage.
type ProgramFetcher interface {
	GetPrograms(ctx context.Context, locationName string) ([]match.WebsiteAct, error)
}

// Options configures a Refresher.
type Options struct {
	Stage                string
	ActsInterval         time.Duration
	DescriptionsInterval time.Duration
}

// Refresher owns the two periodic jobs: the acts refresh against the planner
// feed and the descriptions refresh against the website. Each job either
// completes fully or leaves the stored documents untouched.
type Refresher struct {
	service  *programme.Service
	feed     ActFetcher
	website  ProgramFetcher
	matcher  *match.Matcher
	notifier notifications.Service
	logger   *slog.Logger
	opts     Options

	mu               sync.Mutex
	lastActs         time.Time
	lastDescriptions time.Time
}

// New constructs a Refresher.
func New(service *programme.Service, feed ActFetcher, website ProgramFetcher, matcher *match.Matcher, notifier notifications.Service, logger *slog.Logger, opts Options) *Refresher {
	if opts.ActsInterval <= 0 {
		opts.ActsInterval = 10 * time.Minute
	}
	if opts.DescriptionsInterval <= 0 {
		opts.DescriptionsInterval = time.Hour
	}
	return &Refresher{
		service:  service,
		feed:     feed,
		website:  website,
		matcher:  matcher,
		notifier: notifier,
		logger:   logging.NewComponentLogger(logger, "refresh"),
		opts:     opts,
	}
}

// RefreshActs replaces the stored act list with a fresh feed snapshot. On any
// fetch error the stored documents stay as they are.
func (r *Refresher) RefreshActs(ctx context.Context) error {
	acts, err := r.feed.Fetch(ctx)
	if err != nil {
		r.reportFailure(ctx, err, "acts refresh")
		return fmt.Errorf("refresh acts: %w", err)
	}
	if err := r.service.ReplaceActs(acts); err != nil {
		r.reportFailure(ctx, err, "acts refresh")
		return fmt.Errorf("refresh acts: %w", err)
	}

	r.mu.Lock()
	r.lastActs = time.Now()
	r.mu.Unlock()
	r.logger.Info("acts refresh completed", logging.Int("acts", len(acts)))
	return nil
}

// RefreshDescriptions re-matches every act with a show on the configured stage
// against the website's published programs and replaces the description cache
// in one write. A website fetch failure abandons the run with the cache
// untouched.
func (r *Refresher) RefreshDescriptions(ctx context.Context) error {
	candidates, err := r.website.GetPrograms(ctx, r.opts.Stage)
	if err != nil {
		r.reportFailure(ctx, err, "descriptions refresh")
		return fmt.Errorf("refresh descriptions: %w", err)
	}

	stage := strings.ToUpper(r.opts.Stage)
	entries := map[string]programme.Entry{}
	for _, act := range r.service.Acts() {
		if !performsOnStage(act, stage) {
			continue
		}
		outcome := r.matcher.Match(act.Key(), act.Name, candidates)
		entries[act.Key()] = programme.Entry{
			DescriptionHTML:      outcome.DescriptionHTML,
			NameMatchedToWebsite: outcome.Matched,
		}
	}

	fetchTime := time.Now().Format(time.RFC3339)
	if err := r.service.ApplyDescriptions(entries, fetchTime); err != nil {
		r.reportFailure(ctx, err, "descriptions refresh")
		return fmt.Errorf("refresh descriptions: %w", err)
	}

	r.mu.Lock()
	r.lastDescriptions = time.Now()
	r.mu.Unlock()
	r.logger.Info("descriptions refresh completed", logging.Int("acts", len(entries)))
	return r.notifier.NotifyRefreshCompleted(ctx, "descriptions", len(entries))
}

// Run performs one immediate refresh of both documents and then keeps them
// fresh on the configured intervals until ctx is cancelled. Individual cycle
// failures are reported and do not stop the loop.
func (r *Refresher) Run(ctx context.Context) {
	if err := r.RefreshActs(ctx); err != nil {
		r.logger.Error("initial acts refresh failed", logging.Error(err))
	}
	if err := r.RefreshDescriptions(ctx); err != nil {
		r.logger.Error("initial descriptions refresh failed", logging.Error(err))
	}

	actsTicker := time.NewTicker(r.opts.ActsInterval)
	defer actsTicker.Stop()
	descriptionsTicker := time.NewTicker(r.opts.DescriptionsInterval)
	defer descriptionsTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-actsTicker.C:
			if err := r.RefreshActs(ctx); err != nil {
				r.logger.Error("acts refresh failed", logging.Error(err))
			}
		case <-descriptionsTicker.C:
			if err := r.RefreshDescriptions(ctx); err != nil {
				r.logger.Error("descriptions refresh failed", logging.Error(err))
			}
		}
	}
}

// LastActsRefresh returns the completion time of the most recent successful
// acts refresh, zero when none has happened yet.
func (r *Refresher) LastActsRefresh() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastActs
}

// LastDescriptionsRefresh returns the completion time of the most recent
// successful descriptions refresh, zero when none has happened yet.
func (r *Refresher) LastDescriptionsRefresh() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastDescriptions
}

func (r *Refresher) reportFailure(ctx context.Context, err error, label string) {
	r.logger.Error("refresh cycle failed",
		logging.String("job", label),
		logging.Error(err))
	if notifyErr := r.notifier.NotifyError(ctx, err, label); notifyErr != nil {
		r.logger.Warn("error notification failed", logging.Error(notifyErr))
	}
}

func performsOnStage(act programme.Act, stage string) bool {
	for _, event := range act.Timeline {
		if event.Type == programme.EventShowtime && strings.ToUpper(event.Stage) == stage {
			return true
		}
	}
	return false
}
