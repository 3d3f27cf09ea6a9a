package internaldefs

import (
	"github.com/MrEthical07/authbridge"
)

// CounterDef names one engine counter.
type CounterDef struct {
	ID   authbridge.MetricID
	Name string
	Help string
}

// HistogramDef names one engine latency histogram.
type HistogramDef struct {
	ID   authbridge.MetricID
	Name string
	Help string
}

var CounterDefs = []CounterDef{
	{ID: authbridge.MetricBridgeMatched, Name: "authbridge_bridge_matched_total", Help: "Requests whose Authorization header matched the bridge secret."},
	{ID: authbridge.MetricBridgePassthrough, Name: "authbridge_bridge_passthrough_total", Help: "Requests passed through the bridge untouched."},
	{ID: authbridge.MetricBridgeFailure, Name: "authbridge_bridge_failure_total", Help: "Bridge matches that failed to mint a session."},
	{ID: authbridge.MetricSessionStarted, Name: "authbridge_session_started_total", Help: "Sessions started."},
	{ID: authbridge.MetricSessionStartFailure, Name: "authbridge_session_start_failure_total", Help: "Failed session starts."},
	{ID: authbridge.MetricSessionValidated, Name: "authbridge_session_validated_total", Help: "Session tokens resolved to a session."},
	{ID: authbridge.MetricSessionRejected, Name: "authbridge_session_rejected_total", Help: "Session tokens rejected."},
	{ID: authbridge.MetricSessionEnded, Name: "authbridge_session_ended_total", Help: "Sessions ended."},
	{ID: authbridge.MetricSignInSuccess, Name: "authbridge_sign_in_success_total", Help: "Successful password sign-ins."},
	{ID: authbridge.MetricSignInFailure, Name: "authbridge_sign_in_failure_total", Help: "Failed password sign-ins."},
	{ID: authbridge.MetricSignInRateLimited, Name: "authbridge_sign_in_rate_limited_total", Help: "Password sign-ins refused by the limiter."},
	{ID: authbridge.MetricInitialItemCreated, Name: "authbridge_initial_item_created_total", Help: "Initial items created."},
}

var HistogramDefs = []HistogramDef{
	{ID: authbridge.MetricSessionStartLatency, Name: "authbridge_session_start_latency_seconds", Help: "Session start latency."},
}

// HistogramBounds are the upper bounds of the engine buckets in seconds.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundValues matches HistogramBounds without the +Inf bucket.
var HistogramBoundValues = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5}

// NormalizeBuckets copies raw into a fixed array, padding with zeros.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	copy(out[:], raw)
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i, v := range raw {
		running += v
		out[i] = running
	}
	return out
}
