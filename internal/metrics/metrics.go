// Package metrics exports simulation counters to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/talgya/underworld/internal/business"
	"github.com/talgya/underworld/internal/engine"
)

// Collector records every tick on its own registry.
type Collector struct {
	registry *prometheus.Registry
	biz      *business.Store

	ticks       prometheus.Counter
	gameMinutes prometheus.Gauge
	cash        prometheus.Gauge
	cashFlow    *prometheus.CounterVec
	events      *prometheus.CounterVec
	eventRolls  *prometheus.CounterVec
	deliveries  prometheus.Counter
	dispatched  prometheus.Counter
	waiting     prometheus.Gauge
	contests    *prometheus.CounterVec
	capacity    prometheus.Gauge
	stock       prometheus.Gauge
}

// New creates a collector. biz, when set, is read for warehouse gauges.
func New(biz *business.Store) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		biz:      biz,
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "underworld_ticks_total",
			Help: "Simulation ticks processed.",
		}),
		gameMinutes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "underworld_game_minutes",
			Help: "Absolute game clock.",
		}),
		cash: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "underworld_cash",
			Help: "Player cash after the last tick.",
		}),
		cashFlow: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "underworld_cash_flow_total",
			Help: "Money moved by ticks, by source.",
		}, []string{"source"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "underworld_events_total",
			Help: "Random events fired, by kind.",
		}, []string{"kind"}),
		eventRolls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "underworld_event_rolls_total",
			Help: "Hourly event checks, by outcome.",
		}, []string{"outcome"}),
		deliveries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "underworld_deliveries_total",
			Help: "Shipments unloaded into the warehouse.",
		}),
		dispatched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "underworld_shipments_dispatched_total",
			Help: "Shipments sent by contracts.",
		}),
		waiting: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "underworld_shipments_waiting",
			Help: "Shipments held at the dock for lack of capacity.",
		}),
		contests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "underworld_contests_total",
			Help: "Territory contests, by result.",
		}, []string{"result"}),
		capacity: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "underworld_warehouse_capacity_grams",
			Help: "Total warehouse capacity.",
		}),
		stock: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "underworld_warehouse_stock_grams",
			Help: "Grams held in the warehouse.",
		}),
	}
	c.registry.MustRegister(
		c.ticks, c.gameMinutes, c.cash, c.cashFlow, c.events, c.eventRolls,
		c.deliveries, c.dispatched, c.waiting, c.contests, c.capacity, c.stock,
	)
	if biz != nil {
		c.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "underworld_warehouse_utilization",
			Help: "Fraction of warehouse capacity in use.",
		}, func() float64 {
			st := biz.Snapshot()
			if st.WarehouseCapacity == 0 {
				return 0
			}
			return float64(st.WarehouseUsed()) / float64(st.WarehouseCapacity)
		}))
	}
	return c
}

// ObserveTick records one tick.
func (c *Collector) ObserveTick(rep engine.Report) {
	c.ticks.Inc()
	c.gameMinutes.Set(rep.GameMinutes)
	c.cash.Set(rep.Cash)

	c.cashFlow.WithLabelValues("business").Add(max(0, rep.Business.Income))
	c.cashFlow.WithLabelValues("territory").Add(max(0, rep.Territory.PassiveIncome))
	c.cashFlow.WithLabelValues("upkeep").Add(max(0, rep.Territory.UpkeepCost))

	if rep.Business.Roll.Checked {
		c.eventRolls.WithLabelValues(string(rep.Business.Roll.Outcome)).Inc()
	}
	for _, ev := range rep.Business.Events {
		c.events.WithLabelValues(string(ev.Kind)).Inc()
	}
	c.deliveries.Add(float64(len(rep.Business.Delivered)))
	c.dispatched.Add(float64(len(rep.Business.Dispatched)))
	c.waiting.Set(float64(rep.Business.Waiting))

	for _, ev := range rep.Territory.ContestEvents {
		c.contests.WithLabelValues(string(ev.Result)).Inc()
	}

	if c.biz != nil {
		st := c.biz.Snapshot()
		c.capacity.Set(float64(st.WarehouseCapacity))
		c.stock.Set(float64(st.WarehouseUsed()))
	}
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
