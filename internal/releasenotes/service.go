package releasenotes

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// FeatureSource loads the candidate features for a milestone's release notes.
type FeatureSource interface {
	FeaturesForReleaseNotes(ctx context.Context, milestone int) ([]Feature, error)
}

// ChannelSource reports the version currently on the stable channel.
type ChannelSource interface {
	StableVersion(ctx context.Context) (int, error)
}

var ErrNoMilestone = errors.New("no milestone requested and stable channel unknown")

// Metrics are the counters the service maintains. A nil *Metrics disables them.
type Metrics struct {
	builds       prometheus.Counter
	features     *prometheus.CounterVec
	unrecognized prometheus.Counter
}

// NewMetrics creates the release notes metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		builds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "releasedash",
			Name:      "release_notes_builds_total",
			Help:      "Total number of release notes computed.",
		}),
		features: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "releasedash",
			Name:      "release_notes_features_total",
			Help:      "Features placed in release notes, by bucket and product category.",
		}, []string{"bucket", "category"}),
		unrecognized: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "releasedash",
			Name:      "unrecognized_category_total",
			Help:      "Features left out of release notes because of an unknown product category.",
		}),
	}
	reg.MustRegister(m.builds, m.features, m.unrecognized)
	return m
}

func (m *Metrics) observe(n Notes) {
	if m == nil {
		return
	}
	m.builds.Inc()
	for bucket, b := range map[string]CategoryBuckets{"current": n.Current, "upcoming": n.Upcoming} {
		m.features.WithLabelValues(bucket, "browser_update").Add(float64(len(b.BrowserUpdate)))
		m.features.WithLabelValues(bucket, "enterprise_core").Add(float64(len(b.Core)))
		m.features.WithLabelValues(bucket, "enterprise_premium").Add(float64(len(b.Premium)))
	}
	m.unrecognized.Add(float64(len(n.Unrecognized())))
}

// Service computes release notes from stored features.
type Service struct {
	features FeatureSource
	channels ChannelSource
	metrics  *Metrics
	log      *zap.Logger

	// background builds skip metrics and log unrecognized categories at debug.
	background bool
}

func NewService(features FeatureSource, channels ChannelSource, metrics *Metrics, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{features: features, channels: channels, metrics: metrics, log: log}
}

// Background returns a service sharing s's sources for periodic recomputes.
// Its builds are not counted as served release notes.
func (s *Service) Background() *Service {
	cp := *s
	cp.metrics = nil
	cp.background = true
	return &cp
}

// ResolveMilestone picks the milestone to show: the requested one when it is
// a real milestone, otherwise the stable channel version.
func (s *Service) ResolveMilestone(ctx context.Context, requested *int) (int, error) {
	if m, ok := Milestone(requested); ok {
		return m, nil
	}
	if s.channels == nil {
		return 0, ErrNoMilestone
	}
	v, err := s.channels.StableVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("stable channel: %w", err)
	}
	if v <= 0 {
		return 0, ErrNoMilestone
	}
	return v, nil
}

// ForMilestone builds the release notes of milestone.
func (s *Service) ForMilestone(ctx context.Context, milestone int) (Notes, error) {
	features, err := s.features.FeaturesForReleaseNotes(ctx, milestone)
	if err != nil {
		return Notes{}, fmt.Errorf("load features for milestone %d: %w", milestone, err)
	}

	notes := Build(features, milestone)
	logUnrecognized := s.log.Warn
	if s.background {
		logUnrecognized = s.log.Debug
	}
	for _, f := range notes.Unrecognized() {
		logUnrecognized("feature has unrecognized product category",
			zap.Int64("feature_id", f.ID),
			zap.Int("category", int(f.EnterpriseProductCategory)),
			zap.Int("milestone", milestone))
	}
	s.metrics.observe(notes)
	return notes, nil
}

// Resolve combines ResolveMilestone and ForMilestone.
func (s *Service) Resolve(ctx context.Context, requested *int) (Notes, error) {
	m, err := s.ResolveMilestone(ctx, requested)
	if err != nil {
		return Notes{}, err
	}
	return s.ForMilestone(ctx, m)
}
