package metrics

import (
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/canlink/slcan-gateway/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prometheus counters
var (
	CANRxFrames = promauto.NewCounter(prometheus.CounterOpts{
		Name: "can_rx_frames_total",
		Help: "Total CAN frames received from the bus backend.",
	})
	CANTxFrames = promauto.NewCounter(prometheus.CounterOpts{
		Name: "can_tx_frames_total",
		Help: "Total CAN frames written to the bus backend.",
	})
	SlcanRxLines = promauto.NewCounter(prometheus.CounterOpts{
		Name: "slcan_rx_lines_total",
		Help: "Total SLCAN frame lines received from clients.",
	})
	SlcanTxLines = promauto.NewCounter(prometheus.CounterOpts{
		Name: "slcan_tx_lines_total",
		Help: "Total SLCAN frame lines sent to clients.",
	})
	SlcanCommands = promauto.NewCounter(prometheus.CounterOpts{
		Name: "slcan_commands_total",
		Help: "Total SLCAN channel commands handled.",
	})
	TranslateDrops = promauto.NewCounter(prometheus.CounterOpts{
		Name: "translate_dropped_frames_total",
		Help: "Total frames dropped because representation conversion failed.",
	})
	ParseErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "slcan_parse_errors_total",
		Help: "Total SLCAN lines rejected by the parser.",
	})
	MalformedFrames = promauto.NewCounter(prometheus.CounterOpts{
		Name: "malformed_frames_total",
		Help: "Total rejected malformed adapter frames (bad checksum, invalid length, truncated).",
	})
	HubDroppedFrames = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hub_dropped_frames_total",
		Help: "Total frames dropped by hub due to slow clients.",
	})
	HubKickedClients = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hub_kicked_clients_total",
		Help: "Total clients disconnected due to backpressure kick policy.",
	})
	HubRejectedClients = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hub_rejected_clients_total",
		Help: "Total client connection attempts rejected (e.g., max-clients).",
	})
	HubActiveClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hub_active_clients",
		Help: "Current number of active connected clients.",
	})
	HubBroadcastFanout = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hub_broadcast_fanout",
		Help: "Number of clients targeted in the most recent broadcast.",
	})
	HubQueueDepthMax = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hub_queue_depth_max",
		Help: "Observed max queued frames among clients since last sample window.",
	})
	HubQueueDepthAvg = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hub_queue_depth_avg",
		Help: "Approximate average queued frames per client in last sample.",
	})
	BuildInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "build_info",
		Help: "Build metadata (value is always 1).",
	}, []string{"version", "commit", "date"})
	Errors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "errors_total",
		Help: "Error counters by subsystem.",
	}, []string{"where"})
	readinessMu sync.RWMutex
	readinessFn func() bool
)

// Error label constants (stable label values to bound cardinality)
const (
	ErrTCPRead        = "tcp_read"
	ErrTCPWrite       = "tcp_write"
	ErrSerialWrite    = "serial_write"
	ErrSerialOverflow = "serial_tx_overflow"
	ErrSerialRead     = "serial_read"
	ErrSocketCANWrite = "socketcan_write"
	ErrSocketCANOver  = "socketcan_tx_overflow"
	ErrSocketCANRead  = "socketcan_read"
	ErrLinkControl    = "link_control"
)

// StartHTTP serves Prometheus metrics at /metrics on the given address and
// a readiness probe at /ready.
func StartHTTP(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if IsReady() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready\n"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready\n"))
	})

	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	go func() {
		logging.L().Info("metrics_listen", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.L().Error("metrics_http_error", "error", err)
		}
	}()
	return srv
}

// Local mirrored counters for easy logging (avoid Prometheus scraping in-process)
var (
	localCANRx     uint64
	localCANTx     uint64
	localSlcanRx   uint64
	localSlcanTx   uint64
	localCommands  uint64
	localTransDrop uint64
	localParseErr  uint64
	localMalformed uint64
	localHubDrop   uint64
	localHubKick   uint64
	localHubReject uint64
	localErrors    uint64
	localClients   uint64
	localFanout    uint64
	localQDMax     uint64
	localQDAvg     uint64
)

// Snapshot is a cheap copy of local counters.
type Snapshot struct {
	CANRx          uint64
	CANTx          uint64
	SlcanRx        uint64
	SlcanTx        uint64
	Commands       uint64
	TranslateDrops uint64
	ParseErrors    uint64
	Malformed      uint64
	HubDrops       uint64
	HubKicks       uint64
	HubRejects     uint64
	Errors         uint64 // sum across error labels
	HubClients     uint64
	Fanout         uint64
	QueueDepthMax  uint64
	QueueDepthAvg  uint64
}

func Snap() Snapshot {
	return Snapshot{
		CANRx:          atomic.LoadUint64(&localCANRx),
		CANTx:          atomic.LoadUint64(&localCANTx),
		SlcanRx:        atomic.LoadUint64(&localSlcanRx),
		SlcanTx:        atomic.LoadUint64(&localSlcanTx),
		Commands:       atomic.LoadUint64(&localCommands),
		TranslateDrops: atomic.LoadUint64(&localTransDrop),
		ParseErrors:    atomic.LoadUint64(&localParseErr),
		Malformed:      atomic.LoadUint64(&localMalformed),
		HubDrops:       atomic.LoadUint64(&localHubDrop),
		HubKicks:       atomic.LoadUint64(&localHubKick),
		HubRejects:     atomic.LoadUint64(&localHubReject),
		Errors:         atomic.LoadUint64(&localErrors),
		HubClients:     atomic.LoadUint64(&localClients),
		Fanout:         atomic.LoadUint64(&localFanout),
		QueueDepthMax:  atomic.LoadUint64(&localQDMax),
		QueueDepthAvg:  atomic.LoadUint64(&localQDAvg),
	}
}

// Wrapper helpers to keep call sites simple.
func IncCANRx() {
	CANRxFrames.Inc()
	atomic.AddUint64(&localCANRx, 1)
}

func IncCANTx() {
	CANTxFrames.Inc()
	atomic.AddUint64(&localCANTx, 1)
}

func IncSlcanRx() {
	SlcanRxLines.Inc()
	atomic.AddUint64(&localSlcanRx, 1)
}

// AddSlcanTx records n lines flushed to a client in one batch.
func AddSlcanTx(n int) {
	SlcanTxLines.Add(float64(n))
	atomic.AddUint64(&localSlcanTx, uint64(n))
}

func IncCommand() {
	SlcanCommands.Inc()
	atomic.AddUint64(&localCommands, 1)
}

// IncTranslateDrop records a frame dropped at the representation boundary.
func IncTranslateDrop() {
	TranslateDrops.Inc()
	atomic.AddUint64(&localTransDrop, 1)
}

func IncParseError() {
	ParseErrors.Inc()
	atomic.AddUint64(&localParseErr, 1)
}

func IncMalformed() {
	MalformedFrames.Inc()
	atomic.AddUint64(&localMalformed, 1)
}

func IncHubDrop() {
	HubDroppedFrames.Inc()
	atomic.AddUint64(&localHubDrop, 1)
}

func IncHubKick() {
	HubKickedClients.Inc()
	atomic.AddUint64(&localHubKick, 1)
}

func IncHubReject() {
	HubRejectedClients.Inc()
	atomic.AddUint64(&localHubReject, 1)
}

func SetHubClients(n int) {
	HubActiveClients.Set(float64(n))
	atomic.StoreUint64(&localClients, uint64(n))
}

func SetBroadcastFanout(n int) {
	HubBroadcastFanout.Set(float64(n))
	atomic.StoreUint64(&localFanout, uint64(n))
}

func IncError(label string) {
	Errors.WithLabelValues(label).Inc()
	atomic.AddUint64(&localErrors, 1)
}

// SetQueueDepth records a snapshot of max and avg queue depth.
func SetQueueDepth(max, avg int) {
	HubQueueDepthMax.Set(float64(max))
	HubQueueDepthAvg.Set(float64(avg))
	atomic.StoreUint64(&localQDMax, uint64(max))
	atomic.StoreUint64(&localQDAvg, uint64(avg))
}

// InitBuildInfo sets the build info gauge (should be called once at startup).
func InitBuildInfo(version, commit, date string) {
	BuildInfo.WithLabelValues(version, commit, date).Set(1)
	// Pre-register common error label series so first error does not log a registration latency.
	for _, lbl := range []string{
		ErrTCPRead, ErrTCPWrite,
		ErrSerialWrite, ErrSerialOverflow, ErrSerialRead,
		ErrSocketCANWrite, ErrSocketCANOver, ErrSocketCANRead,
		ErrLinkControl,
	} {
		Errors.WithLabelValues(lbl).Add(0)
	}
}

// SetReadinessFunc registers a function used by /ready and IsReady.
func SetReadinessFunc(fn func() bool) { readinessMu.Lock(); readinessFn = fn; readinessMu.Unlock() }

// IsReady invokes the registered readiness function if present.
func IsReady() bool {
	readinessMu.RLock()
	fn := readinessFn
	readinessMu.RUnlock()
	if fn == nil { // if not set yet, treat as ready so metrics endpoint doesn't flap
		return true
	}
	return fn()
}
