package chain

import (
	"math"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/eigerco/rewards/internal/currency"
	"github.com/eigerco/rewards/internal/event"
	"github.com/eigerco/rewards/internal/state"
)

const (
	metricsNamespace = "rewards"
	subsystem        = "distribution"
)

// Metrics exports reward distribution telemetry. It is also an event.Sink so
// the service can feed it the same events it publishes elsewhere.
type Metrics struct {
	blocksProduced   prometheus.Counter
	creditsIssued    *prometheus.CounterVec
	capReached       prometheus.Counter
	scheduleChanges  prometheus.Counter
	changesRejected  prometheus.Counter
	height           prometheus.Gauge
	totalIssued      prometheus.Gauge
	issuanceCap      prometheus.Gauge
	headroom         prometheus.Gauge
	carry            prometheus.Gauge
	blockReward      prometheus.Gauge
	voterShare       prometheus.Gauge
	distributionTime prometheus.Histogram
	votesPerBlock    prometheus.Histogram
}

// NewMetrics registers the collectors with reg. Use prometheus.DefaultRegisterer
// to expose them on the default /metrics handler.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		blocksProduced: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: subsystem,
			Name:      "blocks_total",
			Help:      "Total number of blocks whose rewards were distributed",
		}),
		creditsIssued: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: subsystem,
			Name:      "credits_total",
			Help:      "Total number of credit instructions emitted",
		}, []string{"role"}),
		capReached: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: subsystem,
			Name:      "capped_blocks_total",
			Help:      "Total number of blocks whose nominal reward was limited by the issuance cap",
		}),
		scheduleChanges: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "governance",
			Name:      "changes_applied_total",
			Help:      "Total number of reward parameter changes applied",
		}),
		changesRejected: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "governance",
			Name:      "changes_rejected_total",
			Help:      "Total number of reward parameter changes rejected at activation",
		}),
		height: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "height",
			Help:      "Height of the last block whose rewards were distributed",
		}),
		totalIssued: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "issuance",
			Name:      "total_issued",
			Help:      "Cumulative issuance, approximated as float64",
		}),
		issuanceCap: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "issuance",
			Name:      "cap",
			Help:      "Lifetime issuance cap, approximated as float64",
		}),
		headroom: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "issuance",
			Name:      "headroom",
			Help:      "Amount that may still be minted, approximated as float64",
		}),
		carry: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: subsystem,
			Name:      "carried_remainder",
			Help:      "Undistributed remainder carried into the next block",
		}),
		blockReward: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "schedule",
			Name:      "block_reward",
			Help:      "Scheduled reward per block, approximated as float64",
		}),
		voterShare: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "schedule",
			Name:      "voter_share",
			Help:      "Fraction of the block reward reserved for vote proofs",
		}),
		distributionTime: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: subsystem,
			Name:      "block_duration_seconds",
			Help:      "Time taken to distribute and commit one block's rewards",
			Buckets:   prometheus.DefBuckets,
		}),
		votesPerBlock: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: subsystem,
			Name:      "votes_per_block",
			Help:      "Distribution of vote proofs per block",
			Buckets:   []float64{0, 1, 2, 4, 8, 16, 32, 64, 128, 256},
		}),
	}
}

func (m *Metrics) Publish(e event.Event) {
	switch v := e.(type) {
	case event.RewardIssued:
		m.creditsIssued.WithLabelValues(v.Role.String()).Inc()
	case event.CapReached:
		m.capReached.Inc()
	case event.ScheduleChanged:
		m.scheduleChanges.Inc()
	case event.ChangeRejected:
		m.changesRejected.Inc()
	}
}

// ObserveBlock records a committed block.
func (m *Metrics) ObserveBlock(s state.State, votes int, took time.Duration) {
	m.blocksProduced.Inc()
	m.votesPerBlock.Observe(float64(votes))
	m.distributionTime.Observe(took.Seconds())
	m.ObserveState(s)
}

// ObserveState refreshes the state gauges.
func (m *Metrics) ObserveState(s state.State) {
	m.height.Set(float64(s.Height))
	m.totalIssued.Set(balanceFloat(s.Issuance.TotalIssued))
	m.issuanceCap.Set(balanceFloat(s.Issuance.Cap))
	m.headroom.Set(balanceFloat(s.Issuance.RemainingHeadroom()))
	m.carry.Set(balanceFloat(s.Remainder.Carry))
	m.blockReward.Set(balanceFloat(s.Schedule.BlockReward))
	share, _ := s.Schedule.VoterShare.Decimal().Float64()
	m.voterShare.Set(share)
}

func balanceFloat(b currency.Balance) float64 {
	return float64(b.Hi)*math.Pow(2, 64) + float64(b.Lo)
}
