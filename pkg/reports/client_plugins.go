package reports

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/platinummonkey/tally/pkg/aggregate"
	"github.com/platinummonkey/tally/pkg/charts"
	"github.com/platinummonkey/tally/pkg/stats"
)

// UnknownLabel replaces empty values in breakdown charts
const UnknownLabel = "Unknown"

type clientPlugin struct {
	base
	metric stats.Metric
}

func (p *clientPlugin) history(ctx context.Context, req Request) ([]stats.Snapshot, error) {
	if p.src.Clients == nil {
		return nil, upstream("client stats", errNoSource)
	}
	history, err := p.src.Clients.History(ctx, req.Label(), p.metric)
	if err != nil {
		return nil, upstream("client stats", err)
	}
	return history, nil
}

// versionHistoryPlugin draws one line per agent version over the stored history
type versionHistoryPlugin struct {
	clientPlugin
}

func newVersionHistoryPlugin(days int) Constructor {
	return func(desc Descriptor, src Sources) Plugin {
		return &versionHistoryPlugin{clientPlugin{
			base:   base{desc: desc, src: src},
			metric: stats.Metric{Kind: stats.KindGRRVersion, Days: days},
		}}
	}
}

func (p *versionHistoryPlugin) GetReportData(ctx context.Context, req Request) (*charts.ReportData, error) {
	history, err := p.history(ctx, req)
	if err != nil {
		return nil, err
	}

	series := make(map[string]*charts.Series2D)
	for _, snap := range history {
		x := float64(snap.Timestamp.UnixMilli())
		for _, version := range snap.Keys() {
			s, ok := series[version]
			if !ok {
				s = &charts.Series2D{Label: displayLabel(version)}
				series[version] = s
			}
			s.Points = append(s.Points, charts.Point2D{X: x, Y: float64(snap.Counts[version])})
		}
	}

	versions := make([]string, 0, len(series))
	for v := range series {
		versions = append(versions, v)
	}
	sort.Strings(versions)

	data := make([]charts.Series2D, 0, len(versions))
	for _, v := range versions {
		data = append(data, *series[v])
	}
	return charts.NewLine(data), nil
}

// breakdownPlugin draws the latest snapshot of a breakdown metric as a pie
type breakdownPlugin struct {
	clientPlugin
}

func newBreakdownPlugin(kind stats.Kind, days int) Constructor {
	return func(desc Descriptor, src Sources) Plugin {
		return &breakdownPlugin{clientPlugin{
			base:   base{desc: desc, src: src},
			metric: stats.Metric{Kind: kind, Days: days},
		}}
	}
}

func (p *breakdownPlugin) GetReportData(ctx context.Context, req Request) (*charts.ReportData, error) {
	history, err := p.history(ctx, req)
	if err != nil {
		return nil, err
	}

	latest := stats.Latest(history)
	if latest == nil {
		return charts.NewPie(nil), nil
	}

	counts := make(map[string]int64, len(latest.Counts))
	for k, v := range latest.Counts {
		counts[displayLabel(k)] += v
	}

	ranked := aggregate.TopN(counts, 0)
	data := make([]charts.Point1D, 0, len(ranked))
	for _, r := range ranked {
		data = append(data, charts.Point1D{Label: r.Key, X: float64(r.Count)})
	}
	return charts.NewPie(data), nil
}

// lastActivePlugin draws one line per activity threshold over the stored history
type lastActivePlugin struct {
	clientPlugin
}

func newLastActivePlugin(desc Descriptor, src Sources) Plugin {
	return &lastActivePlugin{clientPlugin{
		base:   base{desc: desc, src: src},
		metric: stats.Metric{Kind: stats.KindLastActive},
	}}
}

func (p *lastActivePlugin) GetReportData(ctx context.Context, req Request) (*charts.ReportData, error) {
	history, err := p.history(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(history) == 0 {
		return charts.NewLine(nil), nil
	}

	thresholds := aggregate.DefaultLastActiveThresholds
	data := make([]charts.Series2D, len(thresholds))
	for i, days := range thresholds {
		data[i] = charts.Series2D{Label: fmt.Sprintf("%d day active", days)}
		key := strconv.Itoa(days)
		for _, snap := range history {
			data[i].Points = append(data[i].Points, charts.Point2D{
				X: float64(snap.Timestamp.UnixMilli()),
				Y: float64(snap.Counts[key]),
			})
		}
	}
	return charts.NewLine(data), nil
}

func displayLabel(value string) string {
	if value == "" {
		return UnknownLabel
	}
	return value
}
