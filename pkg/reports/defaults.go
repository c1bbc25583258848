package reports

import (
	"fmt"

	"github.com/platinummonkey/tally/pkg/audit"
	"github.com/platinummonkey/tally/pkg/stats"
)

// Builtins returns the registrations of every built-in report plugin in
// dashboard order
func Builtins() []Registration {
	var regs []Registration

	for _, days := range []int{1, 7, 30} {
		regs = append(regs, Registration{
			Descriptor: Descriptor{
				Name:    fmt.Sprintf("GRRVersion%dReportPlugin", days),
				Type:    TypeClient,
				Title:   fmt.Sprintf("%d Day Active GRR Versions", days),
				Summary: fmt.Sprintf("Agent versions of clients active in the last %d days over time.", days),
			},
			New: newVersionHistoryPlugin(days),
		})
	}

	regs = append(regs, Registration{
		Descriptor: Descriptor{
			Name:    "GRRVersionBreakdownReportPlugin",
			Type:    TypeClient,
			Title:   "GRR Version Breakdown",
			Summary: "Agent versions of clients active in the last 30 days.",
		},
		New: newBreakdownPlugin(stats.KindGRRVersion, 30),
	})

	for _, days := range stats.BreakdownWindows {
		regs = append(regs, Registration{
			Descriptor: Descriptor{
				Name:    fmt.Sprintf("OSBreakdown%dReportPlugin", days),
				Type:    TypeClient,
				Title:   fmt.Sprintf("OS Breakdown (%d Day Active)", days),
				Summary: fmt.Sprintf("Operating system of clients active in the last %d days.", days),
			},
			New: newBreakdownPlugin(stats.KindOS, days),
		})
	}

	for _, days := range stats.BreakdownWindows {
		regs = append(regs, Registration{
			Descriptor: Descriptor{
				Name:    fmt.Sprintf("OSReleaseBreakdown%dReportPlugin", days),
				Type:    TypeClient,
				Title:   fmt.Sprintf("OS Release Breakdown (%d Day Active)", days),
				Summary: fmt.Sprintf("Operating system version of clients active in the last %d days.", days),
			},
			New: newBreakdownPlugin(stats.KindOSRelease, days),
		})
	}

	regs = append(regs,
		Registration{
			Descriptor: Descriptor{
				Name:    "LastActiveReportPlugin",
				Type:    TypeClient,
				Title:   "Last Active",
				Summary: "Number of clients active in the last day, 3, 7, 30 and 60 days.",
			},
			New: newLastActivePlugin,
		},
		Registration{
			Descriptor: Descriptor{
				Name:    "FileSizeDistributionReportPlugin",
				Type:    TypeServer,
				Title:   "File Size Distribution",
				Summary: "Number of files in the file store by size.",
			},
			New: newFileSizePlugin,
		},
		Registration{
			Descriptor: Descriptor{
				Name:    "FileClientCountReportPlugin",
				Type:    TypeServer,
				Title:   "File Client Count",
				Summary: "Number of files in the file store by the number of clients holding them.",
			},
			New: newFileClientCountPlugin,
		},
		Registration{
			Descriptor: Descriptor{
				Name:              "ClientApprovalsReportPlugin",
				Type:              TypeServer,
				Title:             "Client Approvals",
				Summary:           "Client approval requests and grants.",
				RequiresTimeRange: true,
			},
			New: newAuditTablePlugin(clientApprovalFields,
				audit.ActionClientApprovalBreakGlassRequest,
				audit.ActionClientApprovalGrant,
				audit.ActionClientApprovalRequest,
			),
		},
		Registration{
			Descriptor: Descriptor{
				Name:              "HuntApprovalsReportPlugin",
				Type:              TypeServer,
				Title:             "Hunt Approvals",
				Summary:           "Hunt approval requests and grants.",
				RequiresTimeRange: true,
			},
			New: newAuditTablePlugin(approvalFields,
				audit.ActionHuntApprovalGrant,
				audit.ActionHuntApprovalRequest,
			),
		},
		Registration{
			Descriptor: Descriptor{
				Name:              "CronApprovalsReportPlugin",
				Type:              TypeServer,
				Title:             "Cron Job Approvals",
				Summary:           "Cron job approval requests and grants.",
				RequiresTimeRange: true,
			},
			New: newAuditTablePlugin(approvalFields,
				audit.ActionCronApprovalGrant,
				audit.ActionCronApprovalRequest,
			),
		},
		Registration{
			Descriptor: Descriptor{
				Name:              "HuntActionsReportPlugin",
				Type:              TypeServer,
				Title:             "Hunts",
				Summary:           "Hunt management actions.",
				RequiresTimeRange: true,
			},
			New: newAuditTablePlugin(huntActionFields,
				audit.ActionHuntCreated,
				audit.ActionHuntModified,
				audit.ActionHuntPaused,
				audit.ActionHuntStarted,
				audit.ActionHuntStopped,
			),
		},
		Registration{
			Descriptor: Descriptor{
				Name:              "MostActiveUsersReportPlugin",
				Type:              TypeServer,
				Title:             "User Breakdown",
				Summary:           "Active user actions.",
				RequiresTimeRange: true,
			},
			New: newMostActiveUsersPlugin,
		},
		Registration{
			Descriptor: Descriptor{
				Name:              "SystemFlowsReportPlugin",
				Type:              TypeServer,
				Title:             "System Flows",
				Summary:           "Flows launched by GRR crons and workers over the given timerange grouped by type.",
				RequiresTimeRange: true,
			},
			New: newFlowsPlugin(true),
		},
		Registration{
			Descriptor: Descriptor{
				Name:    "UserActivityReportPlugin",
				Type:    TypeServer,
				Title:   "User Activity",
				Summary: "Number of actions taken by each user over the last few weeks.",
			},
			New: newUserActivityPlugin,
		},
		Registration{
			Descriptor: Descriptor{
				Name:              "UserFlowsReportPlugin",
				Type:              TypeServer,
				Title:             "User Flows",
				Summary:           "Flows launched by GRR users over the given timerange grouped by type.",
				RequiresTimeRange: true,
			},
			New: newFlowsPlugin(false),
		},
	)

	return regs
}

// RegisterDefaults registers every built-in plugin on r
func RegisterDefaults(r *Registry) error {
	for _, reg := range Builtins() {
		if err := r.Register(reg); err != nil {
			return fmt.Errorf("failed to register %s: %w", reg.Descriptor.Name, err)
		}
	}
	return nil
}
