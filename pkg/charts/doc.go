// Package charts defines the chart payloads report plugins return.
//
// A ReportData carries a representation type tag and exactly one payload of
// the matching shape: a line chart, a pie chart, a stack chart, or an audit
// table. Build values with NewLine, NewPie, NewStack and NewAudit rather than
// struct literals so the tag and payload always agree.
package charts
