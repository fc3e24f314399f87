package reports

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"faith-connect/congregation-portal/portal-backend/internal/auth"
	"faith-connect/congregation-portal/portal-backend/internal/congregations"
	"faith-connect/congregation-portal/portal-backend/internal/events"
	"faith-connect/congregation-portal/portal-backend/internal/users"
	"faith-connect/congregation-portal/portal-backend/pkg/workflows"
)

var ErrPermissionDenied = errors.New("reports: permission denied")

const countryRankingSize = 10

// Service builds the admin reports from the congregation snapshot and
// the users/events tables.
type Service struct {
	registry *congregations.Registry
	users    users.Repository
	events   events.Repository
	logger   *zap.Logger
}

// NewService creates a new reports service
func NewService(registry *congregations.Registry, users users.Repository, events events.Repository, logger *zap.Logger) *Service {
	return &Service{registry: registry, users: users, events: events, logger: logger}
}

// BuildSummary assembles the full reports payload
func (s *Service) BuildSummary(ctx context.Context, actor *auth.Principal) (*Summary, error) {
	if !actor.IsSuperAdmin() {
		return nil, ErrPermissionDenied
	}

	snapshot := s.registry.Snapshot()

	userList, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	eventList, err := s.events.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	now := time.Now()
	summary := &Summary{
		GeneratedAt:   now.UTC(),
		ByCountry:     countryRanking(snapshot),
		GrowthByMonth: growthByMonth(snapshot),
	}

	for _, c := range snapshot {
		summary.KPIs.TotalCongregations++
		switch c.Status {
		case workflows.StatusVerified:
			summary.KPIs.Verified++
		case workflows.StatusRejected:
			summary.KPIs.Rejected++
		default:
			summary.KPIs.Pending++
		}
	}
	summary.KPIs.TotalUsers = len(userList)
	summary.KPIs.TotalEvents = len(eventList)
	for _, e := range eventList {
		if e.StatusAt(now) == events.StatusUpcoming {
			summary.KPIs.UpcomingEvents++
		}
	}

	summary.Verification = VerificationBreakdown{
		Verified: summary.KPIs.Verified,
		Pending:  summary.KPIs.Pending,
		Rejected: summary.KPIs.Rejected,
	}
	if summary.KPIs.TotalCongregations > 0 {
		summary.Verification.VerifiedRate =
			float64(summary.KPIs.Verified) / float64(summary.KPIs.TotalCongregations)
	}

	return summary, nil
}

func countryRanking(snapshot []congregations.Congregation) []CountryCount {
	counts := make(map[string]int)
	for _, c := range snapshot {
		country := c.Country
		if country == "" {
			country = "Unknown"
		}
		counts[country]++
	}

	ranking := make([]CountryCount, 0, len(counts))
	for country, n := range counts {
		ranking = append(ranking, CountryCount{Country: country, Count: n})
	}
	sort.Slice(ranking, func(i, j int) bool {
		if ranking[i].Count != ranking[j].Count {
			return ranking[i].Count > ranking[j].Count
		}
		return ranking[i].Country < ranking[j].Country
	})

	if len(ranking) > countryRankingSize {
		ranking = ranking[:countryRankingSize]
	}
	return ranking
}

func growthByMonth(snapshot []congregations.Congregation) []MonthCount {
	counts := make(map[string]int)
	for _, c := range snapshot {
		counts[c.CreatedAt.Format("2006-01")]++
	}

	series := make([]MonthCount, 0, len(counts))
	for month, n := range counts {
		series = append(series, MonthCount{Month: month, Count: n})
	}
	sort.Slice(series, func(i, j int) bool { return series[i].Month < series[j].Month })
	return series
}
