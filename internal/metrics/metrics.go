package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	BetsPlaced = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cricket_bets_placed_total",
		Help: "bets accepted by the bet engine",
	})
	BetsRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cricket_bets_rejected_total",
		Help: "bet placements refused, by error kind",
	}, []string{"reason"})
	BetStake = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cricket_bet_stake_total",
		Help: "sum of accepted stakes",
	})
	BetsResolved = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cricket_bets_resolved_total",
		Help: "bets moved out of pending by settlement",
	}, []string{"outcome"})
	SettlementPayout = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cricket_settlement_payout_total",
		Help: "sum of winnings credited",
	})
	SettlementDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cricket_settlement_duration_seconds",
		Help:    "time to settle one question",
		Buckets: prometheus.DefBuckets,
	})
	TransactionsResolved = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cricket_transactions_resolved_total",
		Help: "deposits and withdrawals resolved by admins",
	}, []string{"type", "status"})
	MatchesSwept = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cricket_matches_swept_live_total",
		Help: "matches moved from upcoming to live by the status sweep",
	})
)

func init() {
	prometheus.MustRegister(
		BetsPlaced,
		BetsRejected,
		BetStake,
		BetsResolved,
		SettlementPayout,
		SettlementDuration,
		TransactionsResolved,
		MatchesSwept,
	)
}
