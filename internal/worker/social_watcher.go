package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/support-assistant/internal/config"
	"github.com/spec-kit/support-assistant/internal/domain"
	"github.com/spec-kit/support-assistant/internal/observability"
	"github.com/spec-kit/support-assistant/internal/service"
)

// SocialSource fetches public posts newer than a checkpoint for one
// hashtag. Implemented by social.Client.
type SocialSource interface {
	SearchHashtag(ctx context.Context, tag, sinceID string) ([]domain.SocialPost, error)
}

// PostHandler runs one fetched post through the social pipeline.
// Implemented by service.SocialService.
type PostHandler interface {
	HandleSocialPost(ctx context.Context, post domain.SocialPost) (*service.SocialOutcome, error)
}

// WatchStatus is a point-in-time snapshot of the watch loop.
type WatchStatus struct {
	Hashtags     []string          `json:"hashtags"`
	PollInterval string            `json:"poll_interval"`
	LastPollAt   *time.Time        `json:"last_poll_at,omitempty"`
	Checkpoints  map[string]string `json:"checkpoints"`
	PostsHandled int64             `json:"posts_handled"`
}

// SocialWatcher polls the watched hashtags on a fixed interval and feeds
// every new post through the handler.
type SocialWatcher struct {
	source   SocialSource
	handler  PostHandler
	hashtags []string
	interval time.Duration
	logger   *zap.Logger

	mu       sync.Mutex
	since    map[string]string
	lastPoll time.Time
	handled  int64
}

// NewSocialWatcher constructs the watcher from the social configuration.
func NewSocialWatcher(source SocialSource, handler PostHandler, cfg config.SocialConfig, logger *zap.Logger) *SocialWatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SocialWatcher{
		source:   source,
		handler:  handler,
		hashtags: cfg.Hashtags,
		interval: cfg.PollInterval(),
		logger:   logger,
		since:    make(map[string]string),
	}
}

// Run polls until ctx is cancelled. The first poll happens immediately,
// not one interval in.
func (w *SocialWatcher) Run(ctx context.Context) {
	w.logger.Info("social watch loop started",
		zap.Strings("hashtags", w.hashtags),
		zap.Duration("interval", w.interval))

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.pollAll(ctx)
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("social watch loop stopped")
			return
		case <-ticker.C:
			w.pollAll(ctx)
		}
	}
}

// Status reports a snapshot of the loop for the status endpoint.
func (w *SocialWatcher) Status() WatchStatus {
	w.mu.Lock()
	defer w.mu.Unlock()

	checkpoints := make(map[string]string, len(w.since))
	for tag, id := range w.since {
		checkpoints[tag] = id
	}
	status := WatchStatus{
		Hashtags:     w.hashtags,
		PollInterval: w.interval.String(),
		Checkpoints:  checkpoints,
		PostsHandled: w.handled,
	}
	if !w.lastPoll.IsZero() {
		lastPoll := w.lastPoll
		status.LastPollAt = &lastPoll
	}
	return status
}

func (w *SocialWatcher) pollAll(ctx context.Context) {
	for _, tag := range w.hashtags {
		if ctx.Err() != nil {
			return
		}
		w.pollHashtag(ctx, tag)
	}
	w.mu.Lock()
	w.lastPoll = time.Now().UTC()
	w.mu.Unlock()
}

func (w *SocialWatcher) pollHashtag(ctx context.Context, tag string) {
	w.mu.Lock()
	since := w.since[tag]
	w.mu.Unlock()

	posts, err := w.source.SearchHashtag(ctx, tag, since)
	if err != nil {
		observability.SocialPolls.WithLabelValues(tag, observability.OutcomeFailed).Inc()
		w.logger.Error("hashtag poll failed", zap.String("hashtag", tag), zap.Error(err))
		return
	}
	observability.SocialPolls.WithLabelValues(tag, observability.OutcomeProcessed).Inc()

	for _, post := range posts {
		if ctx.Err() != nil {
			return
		}
		// The checkpoint advances even when handling fails: a post that
		// breaks the pipeline once must not break every later poll too.
		w.advance(tag, post.ID)
		if _, err := w.handler.HandleSocialPost(ctx, post); err != nil {
			w.logger.Error("social post handling failed",
				zap.String("hashtag", tag),
				zap.String("post_id", post.ID),
				zap.Error(err))
			continue
		}
		w.mu.Lock()
		w.handled++
		w.mu.Unlock()
	}
}

func (w *SocialWatcher) advance(tag, id string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if idAfter(id, w.since[tag]) {
		w.since[tag] = id
	}
}

// idAfter reports whether a sorts after b as a platform post id. Ids are
// decimal strings of increasing value, so a longer id is always later.
func idAfter(a, b string) bool {
	if b == "" {
		return a != ""
	}
	if len(a) != len(b) {
		return len(a) > len(b)
	}
	return a > b
}
