package metricskey

import "github.com/effective-security/metrics"

// Stats
var (
	StatsToolCallsSucceeded = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_tool_calls_succeeded",
		Help:         "stats_tool_calls_succeeded provides total tool calls succeeded",
		RequiredTags: []string{"tool"},
	}

	StatsToolCallsFailed = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_tool_calls_failed",
		Help:         "stats_tool_calls_failed provides total tool calls failed",
		RequiredTags: []string{"tool", "kind"},
	}

	StatsToolCallsNotFound = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_tool_calls_not_found",
		Help:         "stats_tool_calls_not_found provides total tool calls not found",
		RequiredTags: []string{"tool"},
	}

	StatsToolCallsInvalid = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_tool_calls_invalid",
		Help:         "stats_tool_calls_invalid provides total tool calls rejected by validation",
		RequiredTags: []string{"tool"},
	}

	// StatsUpstreamCallsSucceeded is base for counter metric for Moodle web service calls
	StatsUpstreamCallsSucceeded = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_upstream_calls_succeeded",
		Help:         "stats_upstream_calls_succeeded provides total Moodle calls succeeded",
		RequiredTags: []string{"function"},
	}

	StatsUpstreamCallsFailed = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_upstream_calls_failed",
		Help:         "stats_upstream_calls_failed provides total Moodle calls failed",
		RequiredTags: []string{"function", "kind"},
	}

	StatsActivityResolved = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_activity_resolved",
		Help:         "stats_activity_resolved provides total activities resolved by module type",
		RequiredTags: []string{"modname", "content_type"},
	}
)

// Perf
var (
	PerfToolCall = metrics.Describe{
		Type:         metrics.TypeSample,
		Name:         "perf_tool_call",
		Help:         "perf_tool_call provides duration of tool call",
		RequiredTags: []string{"tool"},
	}

	PerfUpstreamCall = metrics.Describe{
		Type:         metrics.TypeSample,
		Name:         "perf_upstream_call",
		Help:         "perf_upstream_call provides duration of Moodle call",
		RequiredTags: []string{"function"},
	}
)

// Metrics returns slice of metrics from this repo
// keep sorted by name
var Metrics = []*metrics.Describe{
	&PerfToolCall,
	&PerfUpstreamCall,
	&StatsActivityResolved,
	&StatsToolCallsFailed,
	&StatsToolCallsInvalid,
	&StatsToolCallsNotFound,
	&StatsToolCallsSucceeded,
	&StatsUpstreamCallsFailed,
	&StatsUpstreamCallsSucceeded,
}
