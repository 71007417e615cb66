package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Collector holds the loader's Prometheus metrics on a private
// registry.
type Collector struct {
	reg *prometheus.Registry

	DatasetsLoaded  *prometheus.CounterVec // result label: parsed|cached
	LoadFailures    *prometheus.CounterVec // stage label: fetch|parse|activate
	LoadDuration    prometheus.Histogram
	ActiveSchedule  *prometheus.GaugeVec // schedule label
	ActiveLines     prometheus.Gauge
	ActiveTrips     prometheus.Gauge
	StaticsBuilt    prometheus.Counter
	NoActiveVersion prometheus.Counter
}

func New() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		DatasetsLoaded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "timetable_datasets_loaded_total",
			Help: "Datasets loaded, by whether they were parsed or already in storage.",
		}, []string{"result"}),
		LoadFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "timetable_load_failures_total",
			Help: "Failed dataset loads, by stage.",
		}, []string{"stage"}),
		LoadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "timetable_load_duration_seconds",
			Help:    "Time spent fetching and parsing a dataset.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 14),
		}),
		ActiveSchedule: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "timetable_active_schedule",
			Help: "Set to 1 for the schedule version currently in effect.",
		}, []string{"schedule"}),
		ActiveLines: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "timetable_active_lines",
			Help: "Lines in the schedule version currently in effect.",
		}),
		ActiveTrips: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "timetable_active_trips",
			Help: "Trips reachable from the schedule version currently in effect.",
		}),
		StaticsBuilt: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "timetable_query_contexts_built_total",
			Help: "Query contexts built from storage.",
		}),
		NoActiveVersion: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "timetable_no_active_schedule_total",
			Help: "Loads where no schedule version was valid on the reference date.",
		}),
	}

	reg.MustRegister(
		c.DatasetsLoaded, c.LoadFailures, c.LoadDuration,
		c.ActiveSchedule, c.ActiveLines, c.ActiveTrips,
		c.StaticsBuilt, c.NoActiveVersion,
	)

	return c
}

// Records the schedule version now in effect, clearing any previous
// one.
func (c *Collector) SetActive(scheduleID string, lines int, trips int) {
	c.ActiveSchedule.Reset()
	c.ActiveSchedule.WithLabelValues(scheduleID).Set(1)
	c.ActiveLines.Set(float64(lines))
	c.ActiveTrips.Set(float64(trips))
	c.StaticsBuilt.Inc()
}

func (c *Collector) Registry() *prometheus.Registry { return c.reg }

func (c *Collector) Handler() http.Handler { return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{}) }

// Serve starts an HTTP server exposing /metrics on the given address.
func (c *Collector) Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Str("addr", addr).Msg("metrics server error")
		}
	}()
	log.Info().Str("addr", addr).Msg("metrics listening")
	return srv
}
