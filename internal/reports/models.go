package reports

import "time"

// KPIs are the headline numbers on the admin reports page
type KPIs struct {
	TotalCongregations int `json:"total_congregations"`
	Verified           int `json:"verified"`
	Pending            int `json:"pending"`
	Rejected           int `json:"rejected"`
	TotalUsers         int `json:"total_users"`
	TotalEvents        int `json:"total_events"`
	UpcomingEvents     int `json:"upcoming_events"`
}

// CountryCount is one row of the congregations-by-country ranking
type CountryCount struct {
	Country string `json:"country"`
	Count   int    `json:"count"`
}

// MonthCount is one point of the registration growth series
type MonthCount struct {
	Month string `json:"month"` // YYYY-MM
	Count int    `json:"count"`
}

// VerificationBreakdown summarises moderation outcomes
type VerificationBreakdown struct {
	Verified     int     `json:"verified"`
	Pending      int     `json:"pending"`
	Rejected     int     `json:"rejected"`
	VerifiedRate float64 `json:"verified_rate"` // 0..1 over all congregations
}

// Summary is the full reports payload
type Summary struct {
	GeneratedAt   time.Time             `json:"generated_at"`
	KPIs          KPIs                  `json:"kpis"`
	ByCountry     []CountryCount        `json:"by_country"`      // top 10
	GrowthByMonth []MonthCount          `json:"growth_by_month"` // ascending
	Verification  VerificationBreakdown `json:"verification"`
}
