package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	BuilderRequestsSubmitted = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "hive_builder_requests_submitted_total", Help: "Total builder requests submitted"},
	)
	BuilderRequestsApproved = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "hive_builder_requests_approved_total", Help: "Total builder requests approved"},
	)
	BuilderRequestsDenied = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "hive_builder_requests_denied_total", Help: "Total builder requests denied"},
	)
	ToolsPlaced = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "hive_tools_placed_total", Help: "Total tools placed into spaces"},
	)
	ToolInteractions = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "hive_tool_interactions_total", Help: "Total recorded tool interactions"},
	)
	SurgesDetected = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "hive_surges_detected_total", Help: "Total spaces marked surging"},
	)
	DormancySweeps = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "hive_dormancy_sweeps_total", Help: "Total dormancy sweep runs"},
	)
	SpacesDemoted = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "hive_spaces_demoted_total", Help: "Total active spaces demoted to dormant"},
	)
	RecommendationsGenerated = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "hive_recommendations_generated_total", Help: "Total recommendation rows generated"},
	)
	RecommendationRunFailures = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "hive_recommendation_run_failures_total", Help: "Total per-user recommendation failures"},
	)
	NotifyFailures = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "hive_notify_failures_total", Help: "Total notification dispatch failures"},
	)
)

func Register() {
	prometheus.MustRegister(
		BuilderRequestsSubmitted,
		BuilderRequestsApproved,
		BuilderRequestsDenied,
		ToolsPlaced,
		ToolInteractions,
		SurgesDetected,
		DormancySweeps,
		SpacesDemoted,
		RecommendationsGenerated,
		RecommendationRunFailures,
		NotifyFailures,
	)
}
