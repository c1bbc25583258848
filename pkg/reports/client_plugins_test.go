package reports

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/tally/pkg/charts"
	"github.com/platinummonkey/tally/pkg/stats"
)

var (
	version30 = stats.Metric{Kind: stats.KindGRRVersion, Days: 30}
	os30      = stats.Metric{Kind: stats.KindOS, Days: 30}
	release30 = stats.Metric{Kind: stats.KindOSRelease, Days: 30}
	active    = stats.Metric{Kind: stats.KindLastActive}
)

func TestGRRVersionHistory(t *testing.T) {
	env := setupReportsTest(t, date(12, 31))
	env.addSnapshot(t, stats.AllClients, version30, date(12, 30), map[string]int64{"GRR Monitor 1": 20})

	data := env.report(t, Request{Name: "GRRVersion30ReportPlugin", ClientLabel: ptr(stats.AllClients)})

	assert.Equal(t, charts.LineChart, data.RepresentationType)
	require.Len(t, data.LineChart.Data, 1)
	series := data.LineChart.Data[0]
	assert.Equal(t, "GRR Monitor 1", series.Label)
	require.Len(t, series.Points, 1)
	assert.Equal(t, float64(20), series.Points[0].Y)
	assert.Equal(t, float64(date(12, 30).UnixMilli()), series.Points[0].X)
}

func TestGRRVersionHistory_SeriesPerVersion(t *testing.T) {
	env := setupReportsTest(t, date(12, 31))
	env.addSnapshot(t, stats.AllClients, version30, date(12, 29), map[string]int64{"3.1": 5, "3.0": 7})
	env.addSnapshot(t, stats.AllClients, version30, date(12, 30), map[string]int64{"3.1": 9, "": 1})

	data := env.report(t, Request{Name: "GRRVersion30ReportPlugin"})

	require.Len(t, data.LineChart.Data, 3)
	assert.Equal(t, "Unknown", data.LineChart.Data[0].Label)
	assert.Equal(t, "3.0", data.LineChart.Data[1].Label)
	assert.Equal(t, "3.1", data.LineChart.Data[2].Label)
	assert.Equal(t, []charts.Point2D{
		{X: float64(date(12, 29).UnixMilli()), Y: 5},
		{X: float64(date(12, 30).UnixMilli()), Y: 9},
	}, data.LineChart.Data[2].Points)
}

func TestGRRVersionHistory_NoActivity(t *testing.T) {
	env := setupReportsTest(t, date(12, 31))

	data := env.report(t, Request{Name: "GRRVersion30ReportPlugin", ClientLabel: ptr(stats.AllClients)})

	assert.Equal(t, charts.NewLine(nil), data)
}

func TestLastActive(t *testing.T) {
	env := setupReportsTest(t, date(12, 31))
	env.addSnapshot(t, stats.AllClients, active, date(12, 30), map[string]int64{
		"60": 20, "30": 20, "7": 0, "3": 0, "1": 0,
	})

	data := env.report(t, Request{Name: "LastActiveReportPlugin", ClientLabel: ptr(stats.AllClients)})

	assert.Equal(t, charts.LineChart, data.RepresentationType)
	labels := []string{"60 day active", "30 day active", "7 day active", "3 day active", "1 day active"}
	ys := []float64{20, 20, 0, 0, 0}
	require.Len(t, data.LineChart.Data, len(labels))
	for i, series := range data.LineChart.Data {
		assert.Equal(t, labels[i], series.Label)
		require.Len(t, series.Points, 1)
		assert.Equal(t, ys[i], series.Points[0].Y)
	}
}

func TestLastActive_NoActivity(t *testing.T) {
	env := setupReportsTest(t, date(12, 31))

	data := env.report(t, Request{Name: "LastActiveReportPlugin"})

	assert.Equal(t, charts.NewLine(nil), data)
}

func TestOSBreakdown(t *testing.T) {
	env := setupReportsTest(t, date(12, 31))
	env.addSnapshot(t, stats.AllClients, os30, date(12, 30), map[string]int64{"": 1})

	data := env.report(t, Request{Name: "OSBreakdown30ReportPlugin", ClientLabel: ptr(stats.AllClients)})

	assert.Equal(t, charts.NewPie([]charts.Point1D{{Label: "Unknown", X: 1}}), data)
}

func TestOSBreakdown_UsesLatestSnapshot(t *testing.T) {
	env := setupReportsTest(t, date(12, 31))
	env.addSnapshot(t, stats.AllClients, os30, date(12, 29), map[string]int64{"Windows": 50})
	env.addSnapshot(t, stats.AllClients, os30, date(12, 30), map[string]int64{"Linux": 3, "Windows": 10, "Darwin": 3})

	data := env.report(t, Request{Name: "OSBreakdown30ReportPlugin"})

	assert.Equal(t, []charts.Point1D{
		{Label: "Windows", X: 10},
		{Label: "Darwin", X: 3},
		{Label: "Linux", X: 3},
	}, data.PieChart.Data)
}

func TestOSBreakdown_ByLabel(t *testing.T) {
	env := setupReportsTest(t, date(12, 31))
	env.addSnapshot(t, stats.AllClients, os30, date(12, 30), map[string]int64{"Windows": 10, "Linux": 10})
	env.addSnapshot(t, "linux-fleet", os30, date(12, 30), map[string]int64{"Linux": 10})

	data := env.report(t, Request{Name: "OSBreakdown30ReportPlugin", ClientLabel: ptr("linux-fleet")})

	assert.Equal(t, []charts.Point1D{{Label: "Linux", X: 10}}, data.PieChart.Data)
}

func TestOSBreakdown_NoData(t *testing.T) {
	env := setupReportsTest(t, date(12, 31))

	data := env.report(t, Request{Name: "OSBreakdown30ReportPlugin", ClientLabel: ptr(stats.AllClients)})

	assert.Equal(t, charts.NewPie(nil), data)
}

func TestOSReleaseBreakdown(t *testing.T) {
	env := setupReportsTest(t, date(12, 31))
	env.addSnapshot(t, stats.AllClients, release30, date(12, 30), map[string]int64{"": 1})

	data := env.report(t, Request{Name: "OSReleaseBreakdown30ReportPlugin", ClientLabel: ptr(stats.AllClients)})

	assert.Equal(t, charts.NewPie([]charts.Point1D{{Label: "Unknown", X: 1}}), data)
}

func TestOSReleaseBreakdown_NoData(t *testing.T) {
	env := setupReportsTest(t, date(12, 31))

	data := env.report(t, Request{Name: "OSReleaseBreakdown30ReportPlugin"})

	assert.Equal(t, charts.NewPie(nil), data)
}

func TestGRRVersionBreakdown(t *testing.T) {
	env := setupReportsTest(t, date(12, 31))
	env.addSnapshot(t, stats.AllClients, version30, date(12, 30), map[string]int64{"3.1": 12, "3.0": 4})

	data := env.report(t, Request{Name: "GRRVersionBreakdownReportPlugin"})

	assert.Equal(t, []charts.Point1D{{Label: "3.1", X: 12}, {Label: "3.0", X: 4}}, data.PieChart.Data)
}

func TestClientReports_FromAggregatedSnapshots(t *testing.T) {
	env := setupReportsTest(t, date(12, 31))
	now := date(12, 31)
	clients := []stats.ClientInfo{
		{ID: "C.1", OS: "Linux", OSRelease: "14.04", GRRVersion: "GRR Monitor 1", LastSeen: now.Add(-40 * 24 * time.Hour)},
		{ID: "C.2", OS: "Windows", GRRVersion: "GRR Monitor 1", LastSeen: now.Add(-2 * time.Hour), Labels: []string{"prod"}},
	}
	for label, metrics := range stats.ComputeSnapshots(now, clients) {
		for metric, snap := range metrics {
			env.addSnapshot(t, label, metric, snap.Timestamp, snap.Counts)
		}
	}

	data := env.report(t, Request{Name: "LastActiveReportPlugin"})
	var ys []float64
	for _, s := range data.LineChart.Data {
		ys = append(ys, s.Points[0].Y)
	}
	assert.Equal(t, []float64{2, 1, 1, 1, 1}, ys)

	data = env.report(t, Request{Name: "OSBreakdown1ReportPlugin", ClientLabel: ptr("prod")})
	assert.Equal(t, []charts.Point1D{{Label: "Windows", X: 1}}, data.PieChart.Data)
}
