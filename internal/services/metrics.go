package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// poolJoinsTotal counts GetOrJoinPool outcomes
	poolJoinsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vibe_pool_joins_total",
		Help: "Pool resolutions by outcome (seated, joined, created, cooldown)",
	}, []string{"outcome"})

	// poolJoinConflictsTotal counts joins that lost a race for the last slot
	poolJoinConflictsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vibe_pool_join_conflicts_total",
		Help: "Pool joins retried because the target pool filled concurrently",
	})

	// meetupRequestsTotal counts RequestMeetup results
	meetupRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vibe_meetup_requests_total",
		Help: "Meetup requests by result (requested, duplicate, mutual_match, quota_exceeded)",
	}, []string{"result"})

	// matchTransitionsTotal counts mutual match state changes
	matchTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vibe_match_transitions_total",
		Help: "Mutual match transitions by target status",
	}, []string{"status"})

	// chatMessagesTotal counts posted chat messages
	chatMessagesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vibe_chat_messages_total",
		Help: "Chat messages posted to active matches",
	})

	// poolViewMembers tracks how many member cards a pool view scores
	poolViewMembers = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "vibe_pool_view_members",
		Help:    "Members scored per current pool view",
		Buckets: []float64{0, 1, 2, 4, 6, 8},
	})
)
