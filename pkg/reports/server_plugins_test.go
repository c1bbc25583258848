package reports

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/tally/pkg/aggregate"
	"github.com/platinummonkey/tally/pkg/audit"
	"github.com/platinummonkey/tally/pkg/charts"
)

var thirtyDays = 30 * 24 * time.Hour

func rangeRequest(name string, start time.Time) Request {
	return Request{Name: name, StartTime: ptr(start), Duration: ptr(thirtyDays)}
}

func TestClientApprovals(t *testing.T) {
	env := setupReportsTest(t, date(12, 31))
	env.addEvents(t, audit.Event{
		Timestamp:   date(12, 14),
		Action:      audit.ActionClientApprovalBreakGlassRequest,
		User:        "User123",
		Description: "Approval request description.",
	})
	ts := date(12, 22)
	for i := 0; i < 10; i++ {
		env.addEvents(t, audit.Event{
			Timestamp:   ts,
			Action:      audit.ActionClientApprovalRequest,
			User:        fmt.Sprintf("User%d", i),
			Description: "Approval request.",
		})
		ts = ts.Add(time.Second)
	}
	env.addEvents(t,
		audit.Event{Timestamp: ts, Action: audit.ActionClientApprovalGrant, User: "User456", Description: "Grant."},
		audit.Event{Timestamp: ts, Action: audit.ActionRunFlow, User: "User456", FlowName: "Flow123"},
	)

	data := env.report(t, rangeRequest("ClientApprovalsReportPlugin", date(12, 15)))

	assert.Equal(t, charts.AuditChart, data.RepresentationType)
	assert.Equal(t, []string{"action", "client", "description", "timestamp", "user"}, data.AuditChart.UsedFields)

	type row struct {
		action      audit.Action
		client      string
		description string
		user        string
	}
	expected := []row{{audit.ActionClientApprovalGrant, "", "Grant.", "User456"}}
	for i := 9; i >= 0; i-- {
		expected = append(expected, row{audit.ActionClientApprovalRequest, "", "Approval request.", fmt.Sprintf("User%d", i)})
	}

	var got []row
	for _, r := range data.AuditChart.Rows {
		got = append(got, row{r.Action, r.Client, r.Description, r.User})
	}
	assert.Equal(t, expected, got)
}

func TestClientApprovals_NoActivity(t *testing.T) {
	env := setupReportsTest(t, date(12, 31))

	data := env.report(t, rangeRequest("ClientApprovalsReportPlugin", date(12, 1)))

	assert.Equal(t, charts.NewAudit([]string{"action", "client", "description", "timestamp", "user"}, nil), data)
}

func TestHuntActions(t *testing.T) {
	env := setupReportsTest(t, date(12, 31))
	env.addEvents(t,
		audit.Event{Timestamp: date(12, 14), Action: audit.ActionHuntStopped, User: "User123", URN: "aff4:/hunts/H:000"},
		audit.Event{Timestamp: date(12, 22), Action: audit.ActionHuntCreated, User: "User456", FlowName: "Flow123", URN: "aff4:/hunts/H:001", Description: "Created."},
		audit.Event{Timestamp: date(12, 23), Action: audit.ActionHuntStarted, User: "User456", URN: "aff4:/hunts/H:001", Client: "C.1"},
		audit.Event{Timestamp: date(12, 24), Action: audit.ActionHuntApprovalGrant, User: "User123", URN: "aff4:/hunts/H:001"},
	)

	data := env.report(t, rangeRequest("HuntActionsReportPlugin", date(12, 15)))

	assert.Equal(t, []string{"action", "description", "flow_name", "timestamp", "urn", "user"}, data.AuditChart.UsedFields)
	require.Len(t, data.AuditChart.Rows, 2)
	assert.Equal(t, audit.ActionHuntStarted, data.AuditChart.Rows[0].Action)
	assert.Equal(t, "", data.AuditChart.Rows[0].Client)
	assert.Equal(t, audit.ActionHuntCreated, data.AuditChart.Rows[1].Action)
	assert.Equal(t, "Flow123", data.AuditChart.Rows[1].FlowName)
	assert.Equal(t, "Created.", data.AuditChart.Rows[1].Description)
	assert.True(t, date(12, 22).Equal(data.AuditChart.Rows[1].Timestamp))
}

func TestHuntApprovals(t *testing.T) {
	env := setupReportsTest(t, date(12, 31))
	env.addEvents(t,
		audit.Event{Timestamp: date(12, 14), Action: audit.ActionHuntApprovalRequest, User: "User123", URN: "aff4:/hunts/H:000"},
		audit.Event{Timestamp: date(12, 22), Action: audit.ActionHuntApprovalRequest, User: "User456", URN: "aff4:/hunts/H:001", Description: "Please."},
		audit.Event{Timestamp: date(12, 23), Action: audit.ActionHuntApprovalGrant, User: "User123", URN: "aff4:/hunts/H:001"},
		audit.Event{Timestamp: date(12, 24), Action: audit.ActionCronApprovalGrant, User: "User123", URN: "aff4:/cron/C:001"},
	)

	data := env.report(t, rangeRequest("HuntApprovalsReportPlugin", date(12, 15)))

	assert.Equal(t, []string{"action", "description", "timestamp", "urn", "user"}, data.AuditChart.UsedFields)
	require.Len(t, data.AuditChart.Rows, 2)
	assert.Equal(t, audit.ActionHuntApprovalGrant, data.AuditChart.Rows[0].Action)
	assert.Equal(t, "2012/12/23", data.AuditChart.Rows[0].Timestamp.Format("2006/01/02"))
	assert.Equal(t, audit.ActionHuntApprovalRequest, data.AuditChart.Rows[1].Action)
	assert.Equal(t, "aff4:/hunts/H:001", data.AuditChart.Rows[1].URN)
}

func TestCronApprovals(t *testing.T) {
	env := setupReportsTest(t, date(12, 31))
	env.addEvents(t,
		audit.Event{Timestamp: date(12, 22), Action: audit.ActionCronApprovalRequest, User: "User456", URN: "aff4:/cron/C:001"},
		audit.Event{Timestamp: date(12, 23), Action: audit.ActionCronApprovalGrant, User: "User123", URN: "aff4:/cron/C:001"},
		audit.Event{Timestamp: date(12, 24), Action: audit.ActionHuntApprovalGrant, User: "User123", URN: "aff4:/hunts/H:001"},
	)

	data := env.report(t, rangeRequest("CronApprovalsReportPlugin", date(12, 15)))

	assert.Equal(t, []string{"action", "description", "timestamp", "urn", "user"}, data.AuditChart.UsedFields)
	require.Len(t, data.AuditChart.Rows, 2)
	assert.Equal(t, audit.ActionCronApprovalGrant, data.AuditChart.Rows[0].Action)
	assert.Equal(t, audit.ActionCronApprovalRequest, data.AuditChart.Rows[1].Action)
}

func TestAuditTables_NoActivity(t *testing.T) {
	env := setupReportsTest(t, date(12, 31))

	for name, fields := range map[string][]string{
		"HuntActionsReportPlugin":   {"action", "description", "flow_name", "timestamp", "urn", "user"},
		"HuntApprovalsReportPlugin": {"action", "description", "timestamp", "urn", "user"},
		"CronApprovalsReportPlugin": {"action", "description", "timestamp", "urn", "user"},
	} {
		data := env.report(t, rangeRequest(name, date(12, 1)))
		assert.Equal(t, charts.NewAudit(fields, nil), data, name)
	}
}

func addUserEvents(t *testing.T, env *testEnv) {
	t.Helper()
	env.addEvents(t, audit.Event{Timestamp: date(12, 14), User: "User123", Client: "C.123", Description: "Fake audit description 14 Dec."})
	for i := 0; i < 10; i++ {
		env.addEvents(t, audit.Event{Timestamp: date(12, 22), User: "User123", Client: "C.123", Description: "Fake audit description 22 Dec."})
	}
	env.addEvents(t,
		audit.Event{Timestamp: date(12, 22), User: "User456", Client: "C.456", Description: "Fake audit description 22 Dec."},
		audit.Event{Timestamp: date(12, 22), User: "GRRWorker", Action: audit.ActionRunFlow, FlowName: "Interrogate"},
	)
}

func TestMostActiveUsers(t *testing.T) {
	now := date(12, 31)
	env := setupReportsTest(t, now)
	addUserEvents(t, env)

	data := env.report(t, rangeRequest("MostActiveUsersReportPlugin", now.Add(-thirtyDays)))

	assert.Equal(t, charts.NewPie([]charts.Point1D{
		{Label: "User123", X: 11},
		{Label: "User456", X: 1},
	}), data)
}

func TestMostActiveUsers_DefaultRange(t *testing.T) {
	env := setupReportsTest(t, date(12, 31))
	addUserEvents(t, env)
	env.addEvents(t, audit.Event{Timestamp: date(11, 20), User: "User789"})

	data := env.report(t, Request{Name: "MostActiveUsersReportPlugin"})

	require.Len(t, data.PieChart.Data, 2)
	assert.Equal(t, "User123", data.PieChart.Data[0].Label)
}

func TestMostActiveUsers_TopTen(t *testing.T) {
	env := setupReportsTest(t, date(12, 31))
	for i := 0; i < 15; i++ {
		for j := 0; j <= i; j++ {
			env.addEvents(t, audit.Event{Timestamp: date(12, 20), User: fmt.Sprintf("User%02d", i)})
		}
	}

	data := env.report(t, rangeRequest("MostActiveUsersReportPlugin", date(12, 1)))

	require.Len(t, data.PieChart.Data, TopLimit)
	assert.Equal(t, charts.Point1D{Label: "User14", X: 15}, data.PieChart.Data[0])
	assert.Equal(t, charts.Point1D{Label: "User05", X: 6}, data.PieChart.Data[TopLimit-1])
}

func TestMostActiveUsers_NoActivity(t *testing.T) {
	now := date(12, 31)
	env := setupReportsTest(t, now)

	data := env.report(t, rangeRequest("MostActiveUsersReportPlugin", now.Add(-thirtyDays)))

	assert.Equal(t, charts.NewPie(nil), data)
}

func addFlowEvents(t *testing.T, env *testEnv, user, other string) {
	t.Helper()
	env.addEvents(t, audit.Event{Timestamp: date(12, 14), Action: audit.ActionRunFlow, User: user, FlowName: "Flow123"})
	for i := 0; i < 10; i++ {
		env.addEvents(t, audit.Event{Timestamp: date(12, 22), Action: audit.ActionRunFlow, User: user, FlowName: "Flow123"})
	}
	env.addEvents(t, audit.Event{Timestamp: date(12, 22), Action: audit.ActionRunFlow, User: other, FlowName: "Flow456"})
}

func TestSystemFlows(t *testing.T) {
	env := setupReportsTest(t, date(12, 31))
	addFlowEvents(t, env, "GRR", "GRR")
	env.addEvents(t, audit.Event{Timestamp: date(12, 22), Action: audit.ActionRunFlow, User: "User123", FlowName: "Flow789"})

	data := env.report(t, rangeRequest("SystemFlowsReportPlugin", date(12, 15)))

	assert.Equal(t, charts.NewStack([]charts.Series2D{
		{Label: "Flow123\u2003Run By: GRR (10)", Points: []charts.Point2D{{X: 0, Y: 10}}},
		{Label: "Flow456\u2003Run By: GRR (1)", Points: []charts.Point2D{{X: 1, Y: 1}}},
	}, []charts.Tick{}, 0), data)
}

func TestSystemFlows_NoActivity(t *testing.T) {
	now := date(12, 31)
	env := setupReportsTest(t, now)

	data := env.report(t, rangeRequest("SystemFlowsReportPlugin", now.Add(-thirtyDays)))

	assert.Equal(t, charts.NewStack(nil, nil, 0), data)
	assert.Empty(t, data.StackChart.XTicks)
	assert.NotNil(t, data.StackChart.XTicks)
}

func TestUserFlows(t *testing.T) {
	env := setupReportsTest(t, date(12, 31))
	addFlowEvents(t, env, "User123", "User456")
	env.addEvents(t, audit.Event{Timestamp: date(12, 22), Action: audit.ActionRunFlow, User: "GRRCron", FlowName: "Flow789"})

	data := env.report(t, rangeRequest("UserFlowsReportPlugin", date(12, 15)))

	assert.Equal(t, charts.NewStack([]charts.Series2D{
		{Label: "Flow123\u2003Run By: User123 (10)", Points: []charts.Point2D{{X: 0, Y: 10}}},
		{Label: "Flow456\u2003Run By: User456 (1)", Points: []charts.Point2D{{X: 1, Y: 1}}},
	}, nil, 0), data)
}

func TestUserFlows_UnnamedFlow(t *testing.T) {
	env := setupReportsTest(t, date(12, 31))
	env.addEvents(t, audit.Event{Timestamp: date(12, 22), Action: audit.ActionRunFlow, User: "User123"})

	data := env.report(t, rangeRequest("UserFlowsReportPlugin", date(12, 15)))

	assert.Equal(t, charts.NewStack([]charts.Series2D{
		{Label: "Unknown\u2003Run By: User123 (1)", Points: []charts.Point2D{{X: 0, Y: 1}}},
	}, nil, 0), data)
}

func TestUserFlows_NoActivity(t *testing.T) {
	now := date(12, 31)
	env := setupReportsTest(t, now)

	data := env.report(t, rangeRequest("UserFlowsReportPlugin", now.Add(-thirtyDays)))

	assert.Equal(t, charts.NewStack(nil, nil, 0), data)
}

func TestFlowLabel(t *testing.T) {
	label := FlowLabel("Interrogate", []aggregate.Ranked{{Key: "alice", Count: 3}, {Key: "bob", Count: 1}})
	assert.Equal(t, "Interrogate\u2003Run By: alice (3), bob (1)", label)
}

func TestUserActivity(t *testing.T) {
	env := setupReportsTest(t, date(12, 31))
	addUserEvents(t, env)

	data := env.report(t, Request{Name: "UserActivityReportPlugin"})

	points := func(ys ...float64) []charts.Point2D {
		out := make([]charts.Point2D, len(ys))
		for i, y := range ys {
			out[i] = charts.Point2D{X: float64(i - len(ys)), Y: y}
		}
		return out
	}
	assert.Equal(t, charts.NewStack([]charts.Series2D{
		{Label: "User123", Points: points(0, 0, 0, 0, 0, 0, 0, 1, 10, 0)},
		{Label: "User456", Points: points(0, 0, 0, 0, 0, 0, 0, 0, 1, 0)},
	}, nil, 0), data)
}

func TestUserActivity_NoActivity(t *testing.T) {
	env := setupReportsTest(t, date(12, 31))

	data := env.report(t, Request{Name: "UserActivityReportPlugin"})

	assert.Equal(t, charts.NewStack(nil, nil, 0), data)
}

func TestIsSystemUser(t *testing.T) {
	assert.True(t, IsSystemUser("GRR"))
	assert.True(t, IsSystemUser("GRRWorker"))
	assert.False(t, IsSystemUser("User123"))
	assert.False(t, IsSystemUser("grr"))
}
