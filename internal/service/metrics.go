package service

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	aiRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "council_ai_requests_total",
			Help: "Total number of requests to the AI provider.",
		},
		[]string{"provider", "model", "status"},
	)
	aiRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "council_ai_request_duration_seconds",
			Help:    "Histogram of AI provider request durations.",
			Buckets: []float64{.25, .5, 1, 2.5, 5, 10, 20, 40, 80, 120},
		},
		[]string{"provider", "model"},
	)
	aiPromptTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "council_ai_prompt_tokens",
			Help:    "Histogram of prompt token counts.",
			Buckets: prometheus.LinearBuckets(250, 250, 20),
		},
		[]string{"provider", "model"},
	)
	aiCompletionTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "council_ai_completion_tokens",
			Help:    "Histogram of completion token counts.",
			Buckets: prometheus.LinearBuckets(250, 250, 20),
		},
		[]string{"provider", "model"},
	)

	councilRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "council_runs_total",
			Help: "Council debates by outcome.",
		},
		[]string{"scenario_type", "status"},
	)
	councilRecommendationMismatchTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "council_recommendation_mismatch_total",
		Help: "Council replies whose recommended option matches none of the option summaries.",
	})
	chatRepliesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "council_chat_replies_total",
			Help: "Chat assistant replies by outcome (fallback = canned apology).",
		},
		[]string{"status"},
	)
)

func recordAIRequest(provider, model, status string, duration time.Duration, usage UsageInfo) {
	aiRequestsTotal.WithLabelValues(provider, model, status).Inc()
	if status != "success" {
		return
	}
	aiRequestDuration.WithLabelValues(provider, model).Observe(duration.Seconds())
	if usage.TotalTokens > 0 {
		aiPromptTokens.WithLabelValues(provider, model).Observe(float64(usage.PromptTokens))
		aiCompletionTokens.WithLabelValues(provider, model).Observe(float64(usage.CompletionTokens))
	}
}
