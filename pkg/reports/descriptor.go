package reports

// ReportType separates reports about clients from reports about the server
type ReportType string

const (
	TypeClient ReportType = "CLIENT"
	TypeServer ReportType = "SERVER"
)

// Descriptor is the static metadata of a report plugin
type Descriptor struct {
	Name              string     `json:"name"`
	Type              ReportType `json:"type"`
	Title             string     `json:"title"`
	Summary           string     `json:"summary"`
	RequiresTimeRange bool       `json:"requires_time_range"`
}
