package service

import (
	"context"
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nxl-pharma/crm-api/internal/analytics"
	"github.com/nxl-pharma/crm-api/internal/config"
	"github.com/nxl-pharma/crm-api/internal/domain"
	"github.com/nxl-pharma/crm-api/internal/repository"
	apperrors "github.com/nxl-pharma/crm-api/pkg/util"
)

// MediaTotaler sums media engagement counters.
type MediaTotaler interface {
	Totals(ctx context.Context) (repository.MediaTotals, error)
}

// CountryResolver maps an IP to an ISO country code.
type CountryResolver interface {
	Country(ip string) string
}

// VisitorDimensions maps breakdown names to stored visit fields.
var VisitorDimensions = map[string]string{
	"pages":     "path",
	"devices":   "device",
	"countries": "country",
	"referrers": "referrer",
}

// AnalyticsService tracks visits and aggregates dashboard figures.
type AnalyticsService struct {
	inquiries   repository.InquiryRepository
	subscribers repository.SubscriberRepository
	visitors    repository.VisitorRepository
	media       MediaTotaler
	geo         CountryResolver
	salt        string
	siteHost    string
	logger      *zap.Logger
	now         func() time.Time
}

// AnalyticsDependencies bundles requirements for the analytics service.
type AnalyticsDependencies struct {
	InquiryRepo    repository.InquiryRepository
	SubscriberRepo repository.SubscriberRepository
	VisitorRepo    repository.VisitorRepository
	Media          MediaTotaler
	GeoIP          CountryResolver
	Logger         *zap.Logger
	Now            func() time.Time
}

// TrackInput is one page view reported by the public site.
type TrackInput struct {
	Path      string
	Referrer  string
	IP        string
	UserAgent string
}

// Overview is the dashboard headline figures for a range.
type Overview struct {
	Range       string                         `json:"range"`
	Inquiries   InquiryTotals                  `json:"inquiries"`
	Subscribers SubscriberTotals               `json:"subscribers"`
	Visitors    repository.VisitorSummary      `json:"visitors"`
	Media       repository.MediaTotals         `json:"media"`
	ByStatus    map[domain.InquiryStatus]int64 `json:"byStatus"`
}

// InquiryTotals counts inquiries overall and within the range.
type InquiryTotals struct {
	Total   int64 `json:"total"`
	InRange int64 `json:"inRange"`
}

// SubscriberTotals counts subscribers overall and new within the range.
type SubscriberTotals struct {
	Total int64 `json:"total"`
	New   int64 `json:"new"`
}

// NewAnalyticsService constructs the service.
func NewAnalyticsService(cfg config.Config, deps AnalyticsDependencies) *AnalyticsService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	siteHost := ""
	if u, err := url.Parse(cfg.App.SiteURL); err == nil {
		siteHost = u.Hostname()
	}
	return &AnalyticsService{
		inquiries:   deps.InquiryRepo,
		subscribers: deps.SubscriberRepo,
		visitors:    deps.VisitorRepo,
		media:       deps.Media,
		geo:         deps.GeoIP,
		salt:        cfg.Analytics.VisitorSalt,
		siteHost:    siteHost,
		logger:      logger,
		now:         clockOrNow(deps.Now),
	}
}

// VisitorHash is the anonymous per-day identity of a caller.
func (s *AnalyticsService) VisitorHash(ip, userAgent string) string {
	return analytics.VisitorHash(s.salt, ip, userAgent, s.now())
}

// Track records a page view. Bots are ignored and reported as not tracked.
func (s *AnalyticsService) Track(ctx context.Context, input TrackInput) (bool, error) {
	client := analytics.ParseUserAgent(input.UserAgent)
	if client.Bot {
		return false, nil
	}
	now := s.now()
	visit := &domain.Visit{
		ID:          uuid.NewString(),
		VisitorHash: analytics.VisitorHash(s.salt, input.IP, input.UserAgent, now),
		Path:        analytics.NormalizePath(input.Path),
		Referrer:    analytics.ReferrerHost(input.Referrer, s.siteHost),
		Browser:     client.Browser,
		OS:          client.OS,
		Device:      client.Device,
		At:          now,
	}
	if s.geo != nil {
		visit.Country = s.geo.Country(input.IP)
	}
	if err := s.visitors.Insert(ctx, visit); err != nil {
		return false, apperrors.MapError(err)
	}
	return true, nil
}

func (s *AnalyticsService) window(label string) (analytics.Window, error) {
	w, err := analytics.ParseRange(label, s.now())
	if err != nil {
		return w, apperrors.NewValidationError(err.Error(), map[string]any{"range": label})
	}
	return w, nil
}

// Overview gathers headline figures.
func (s *AnalyticsService) Overview(ctx context.Context, label string) (*Overview, error) {
	w, err := s.window(label)
	if err != nil {
		return nil, err
	}
	if label == "" {
		label = analytics.DefaultRange
	}
	out := &Overview{Range: label}

	if out.Inquiries.Total, err = s.inquiries.Count(ctx, repository.InquiryFilter{}); err != nil {
		return nil, apperrors.MapError(err)
	}
	if out.Inquiries.InRange, err = s.inquiries.Count(ctx, repository.InquiryFilter{Since: &w.Since}); err != nil {
		return nil, apperrors.MapError(err)
	}
	if out.ByStatus, err = s.inquiries.CountByStatus(ctx, &w.Since); err != nil {
		return nil, apperrors.MapError(err)
	}
	if out.Subscribers.Total, err = s.subscribers.Count(ctx, repository.SubscriberFilter{}); err != nil {
		return nil, apperrors.MapError(err)
	}
	if out.Subscribers.New, err = s.subscribers.Count(ctx, repository.SubscriberFilter{Since: &w.Since}); err != nil {
		return nil, apperrors.MapError(err)
	}
	if out.Visitors, err = s.visitors.Summary(ctx, w.Since); err != nil {
		return nil, apperrors.MapError(err)
	}
	if s.media != nil {
		if out.Media, err = s.media.Totals(ctx); err != nil {
			return nil, apperrors.MapError(err)
		}
	}
	return out, nil
}

// Submissions returns inquiries per day, one entry for every day of the range.
func (s *AnalyticsService) Submissions(ctx context.Context, label string) ([]repository.DayCount, error) {
	w, err := s.window(label)
	if err != nil {
		return nil, err
	}
	counts, err := s.inquiries.DailyCounts(ctx, w.Since)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return zeroFill(w, counts), nil
}

// StatusCounts returns inquiries per status created within the range.
func (s *AnalyticsService) StatusCounts(ctx context.Context, label string) (map[domain.InquiryStatus]int64, error) {
	w, err := s.window(label)
	if err != nil {
		return nil, err
	}
	counts, err := s.inquiries.CountByStatus(ctx, &w.Since)
	return counts, apperrors.MapError(err)
}

// VisitorsDaily returns page views per day, zero-filled.
func (s *AnalyticsService) VisitorsDaily(ctx context.Context, label string) ([]repository.DayCount, error) {
	w, err := s.window(label)
	if err != nil {
		return nil, err
	}
	counts, err := s.visitors.Daily(ctx, w.Since)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return zeroFill(w, counts), nil
}

// VisitorBreakdown groups page views by one of VisitorDimensions.
func (s *AnalyticsService) VisitorBreakdown(ctx context.Context, dimension, label string, limit int) ([]repository.GroupCount, error) {
	field, ok := VisitorDimensions[dimension]
	if !ok {
		return nil, apperrors.NewNotFound("breakdown", map[string]any{"dimension": dimension})
	}
	w, err := s.window(label)
	if err != nil {
		return nil, err
	}
	rows, err := s.visitors.GroupBy(ctx, field, w.Since, limit)
	return rows, apperrors.MapError(err)
}

func zeroFill(w analytics.Window, counts []repository.DayCount) []repository.DayCount {
	byDay := make(map[string]int64, len(counts))
	for _, c := range counts {
		byDay[c.Day] = c.Count
	}
	keys := w.DayKeys()
	out := make([]repository.DayCount, 0, len(keys))
	for _, day := range keys {
		out = append(out, repository.DayCount{Day: day, Count: byDay[day]})
	}
	return out
}
