package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	interpretRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "interpreter_runs_total",
		Help: "Pipeline runs by mode",
	}, []string{"mode"})

	nextActions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "interpreter_next_action_total",
		Help: "Final next-action decisions by action",
	}, []string{"action"})

	venueResolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "interpreter_venue_resolution_total",
		Help: "Venue resolution attempts by outcome",
	}, []string{"outcome"}) // outcome=resolved|ambiguous|unresolved|not_applicable

	guardTrips = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "interpreter_guard_trips_total",
		Help: "Hallucination-guard trips by guard",
	}, []string{"guard"}) // guard=timeslots|recurrence

	llmFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "interpreter_llm_failures_total",
		Help: "Interpret turns that failed at the LLM boundary",
	})
)

func RecordRun(mode, action string) {
	interpretRuns.WithLabelValues(mode).Inc()
	nextActions.WithLabelValues(action).Inc()
}

func RecordVenueResolution(outcome string) {
	if outcome != "" {
		venueResolutions.WithLabelValues(outcome).Inc()
	}
}

func RecordGuardTrips(guards []string) {
	for _, g := range guards {
		guardTrips.WithLabelValues(g).Inc()
	}
}

func RecordLLMFailure() {
	llmFailures.Inc()
}
