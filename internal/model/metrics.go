package model

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HandleClaims = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fortune_claims_total",
		Help: "Accepted claims by kind.",
	}, []string{"kind"})

	RejectClaims = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fortune_claims_rejected_total",
		Help: "Rejected claims by kind and reason code.",
	}, []string{"kind", "reason"})

	CheckSubscribe = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fortune_check_subscribe_total",
		Help: "Membership oracle calls by source and result.",
	}, []string{"source", "result"})

	CommissionSettled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fortune_commission_settled_total",
		Help: "Referral commissions credited.",
	})

	CommissionSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fortune_commission_skipped_total",
		Help: "Referral commissions skipped by reason.",
	}, []string{"reason"})

	TokensIssued = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fortune_tokens_issued_total",
		Help: "Action tokens issued by kind.",
	}, []string{"kind"})

	TokensExpired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fortune_tokens_expired_total",
		Help: "Action tokens found expired on consume or reaped.",
	})
)
