package reports

import (
	"fmt"

	"faith-connect/congregation-portal/portal-backend/internal/reports/export"
)

func summaryKPIPairs(s *Summary) [][2]string {
	return [][2]string{
		{"Total congregations", fmt.Sprintf("%d", s.KPIs.TotalCongregations)},
		{"Verified", fmt.Sprintf("%d", s.KPIs.Verified)},
		{"Pending", fmt.Sprintf("%d", s.KPIs.Pending)},
		{"Rejected", fmt.Sprintf("%d", s.KPIs.Rejected)},
		{"Verified rate", fmt.Sprintf("%.1f%%", s.Verification.VerifiedRate*100)},
		{"Total users", fmt.Sprintf("%d", s.KPIs.TotalUsers)},
		{"Total events", fmt.Sprintf("%d", s.KPIs.TotalEvents)},
		{"Upcoming events", fmt.Sprintf("%d", s.KPIs.UpcomingEvents)},
	}
}

func summaryCountryRows(s *Summary) [][]string {
	rows := make([][]string, 0, len(s.ByCountry))
	for _, c := range s.ByCountry {
		rows = append(rows, []string{c.Country, fmt.Sprintf("%d", c.Count)})
	}
	return rows
}

func summaryGrowthRows(s *Summary) [][]string {
	rows := make([][]string, 0, len(s.GrowthByMonth))
	for _, m := range s.GrowthByMonth {
		rows = append(rows, []string{m.Month, fmt.Sprintf("%d", m.Count)})
	}
	return rows
}

// RenderPDF produces the downloadable PDF version of a summary
func RenderPDF(s *Summary) ([]byte, error) {
	opts := export.DefaultPDFOptions()
	opts.Subtitle = "Congregation Portal"

	g := export.NewPDFGenerator(opts)
	g.AddKeyValueSection("Key Figures", summaryKPIPairs(s))
	g.AddTable("Congregations by Country", []string{"Country", "Congregations"}, summaryCountryRows(s))
	g.AddTable("Registrations by Month", []string{"Month", "Registrations"}, summaryGrowthRows(s))
	return g.Bytes()
}

// RenderExcel produces the downloadable workbook version of a summary
func RenderExcel(s *Summary) ([]byte, error) {
	e := export.NewExcelExporter(export.DefaultExcelOptions())
	if err := e.AddKeyValueSection("Key Figures", summaryKPIPairs(s)); err != nil {
		return nil, err
	}
	if err := e.AddTable("Congregations by Country", []string{"Country", "Congregations"}, summaryCountryRows(s)); err != nil {
		return nil, err
	}
	if err := e.AddTable("Registrations by Month", []string{"Month", "Registrations"}, summaryGrowthRows(s)); err != nil {
		return nil, err
	}
	return e.Bytes()
}
