package reports

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/platinummonkey/tally/pkg/aggregate"
	"github.com/platinummonkey/tally/pkg/audit"
	"github.com/platinummonkey/tally/pkg/charts"
)

// TopLimit caps ranked server charts
const TopLimit = 10

// UserActivityWeeks is the number of trailing weeks in the user activity chart
const UserActivityWeeks = 10

// SystemUsers are the accounts the server acts as on its own behalf
var SystemUsers = map[string]bool{
	"GRR":                 true,
	"GRRArtifactRegistry": true,
	"GRRBenchmarkTest":    true,
	"GRRConsole":          true,
	"GRRCron":             true,
	"GRREndToEndTest":     true,
	"GRRFrontEnd":         true,
	"GRRStatsStore":       true,
	"GRRSystem":           true,
	"GRRWorker":           true,
	"Cron":                true,
}

// IsSystemUser reports whether user is one of SystemUsers
func IsSystemUser(user string) bool {
	return SystemUsers[user]
}

var (
	approvalFields = []string{
		audit.FieldAction, audit.FieldDescription, audit.FieldTimestamp,
		audit.FieldURN, audit.FieldUser,
	}
	clientApprovalFields = []string{
		audit.FieldAction, audit.FieldClient, audit.FieldDescription,
		audit.FieldTimestamp, audit.FieldUser,
	}
	huntActionFields = []string{
		audit.FieldAction, audit.FieldDescription, audit.FieldFlowName,
		audit.FieldTimestamp, audit.FieldURN, audit.FieldUser,
	}
)

// auditTablePlugin lists the events matching a fixed set of actions, newest first
type auditTablePlugin struct {
	base
	actions map[audit.Action]bool
	fields  []string
}

func newAuditTablePlugin(fields []string, actions ...audit.Action) Constructor {
	set := make(map[audit.Action]bool, len(actions))
	for _, a := range actions {
		set[a] = true
	}
	return func(desc Descriptor, src Sources) Plugin {
		return &auditTablePlugin{base: base{desc: desc, src: src}, actions: set, fields: fields}
	}
}

func (p *auditTablePlugin) GetReportData(ctx context.Context, req Request) (*charts.ReportData, error) {
	events, err := p.readAudit(ctx, req)
	if err != nil {
		return nil, err
	}

	rows := make([]audit.Event, 0)
	for i := len(events) - 1; i >= 0; i-- {
		if p.actions[events[i].Action] {
			rows = append(rows, events[i].Project(p.fields))
		}
	}
	return charts.NewAudit(p.fields, rows), nil
}

// mostActiveUsersPlugin ranks non-system users by event count
type mostActiveUsersPlugin struct {
	base
}

func newMostActiveUsersPlugin(desc Descriptor, src Sources) Plugin {
	return &mostActiveUsersPlugin{base{desc: desc, src: src}}
}

func (p *mostActiveUsersPlugin) GetReportData(ctx context.Context, req Request) (*charts.ReportData, error) {
	events, err := p.readAudit(ctx, req)
	if err != nil {
		return nil, err
	}

	counter := aggregate.Counter{}
	for _, e := range events {
		if e.User == "" || IsSystemUser(e.User) {
			continue
		}
		counter.Add(e.User)
	}

	top := counter.Top(TopLimit)
	data := make([]charts.Point1D, 0, len(top))
	for _, r := range top {
		data = append(data, charts.Point1D{Label: r.Key, X: float64(r.Count)})
	}
	return charts.NewPie(data), nil
}

// flowsPlugin ranks started flows, run by system or by human users
type flowsPlugin struct {
	base
	system bool
}

func newFlowsPlugin(system bool) Constructor {
	return func(desc Descriptor, src Sources) Plugin {
		return &flowsPlugin{base: base{desc: desc, src: src}, system: system}
	}
}

func (p *flowsPlugin) GetReportData(ctx context.Context, req Request) (*charts.ReportData, error) {
	events, err := p.readAudit(ctx, req)
	if err != nil {
		return nil, err
	}

	flows := aggregate.Counter{}
	users := make(map[string]aggregate.Counter)
	for _, e := range events {
		if e.Action != audit.ActionRunFlow || IsSystemUser(e.User) != p.system {
			continue
		}
		flow := displayLabel(e.FlowName)
		flows.Add(flow)
		if users[flow] == nil {
			users[flow] = aggregate.Counter{}
		}
		users[flow].Add(e.User)
	}

	top := flows.Top(TopLimit)
	data := make([]charts.Series2D, 0, len(top))
	for rank, flow := range top {
		data = append(data, charts.Series2D{
			Label:  FlowLabel(flow.Key, users[flow.Key].Top(0)),
			Points: []charts.Point2D{{X: float64(rank), Y: float64(flow.Count)}},
		})
	}
	return charts.NewStack(data, nil, 0), nil
}

// FlowLabel renders "<flow> Run By: <user> (<n>), ..." for a ranked flow
func FlowLabel(flow string, users []aggregate.Ranked) string {
	parts := make([]string, len(users))
	for i, u := range users {
		parts[i] = fmt.Sprintf("%s (%d)", u.Key, u.Count)
	}
	return fmt.Sprintf("%s\u2003Run By: %s", flow, strings.Join(parts, ", "))
}

// userActivityPlugin counts events per non-system user in trailing weekly buckets
type userActivityPlugin struct {
	base
}

func newUserActivityPlugin(desc Descriptor, src Sources) Plugin {
	return &userActivityPlugin{base{desc: desc, src: src}}
}

func (p *userActivityPlugin) GetReportData(ctx context.Context, _ Request) (*charts.ReportData, error) {
	windower := aggregate.NewWeekWindower(p.now(), UserActivityWeeks)
	start := windower.Start()

	events, err := p.readAuditWindow(ctx, start, windower.End.Sub(start))
	if err != nil {
		return nil, err
	}

	perUser := make(map[string]*aggregate.WindowCounts)
	for _, e := range events {
		if e.User == "" || IsSystemUser(e.User) {
			continue
		}
		counts, ok := perUser[e.User]
		if !ok {
			counts = windower.NewCounts()
			perUser[e.User] = counts
		}
		counts.Add(e.Timestamp)
	}

	names := make([]string, 0, len(perUser))
	for user := range perUser {
		names = append(names, user)
	}
	sort.Strings(names)

	data := make([]charts.Series2D, 0, len(names))
	for _, user := range names {
		data = append(data, charts.Series2D{Label: user, Points: perUser[user].Points()})
	}
	return charts.NewStack(data, nil, 0), nil
}
