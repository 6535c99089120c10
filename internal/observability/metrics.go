package observability

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// SimCollector bundles Prometheus metrics for the simulation engine and its
// network surface, and provides helpers to wire them into gRPC servers and
// HTTP handlers.
type SimCollector struct {
	gatherer prometheus.Gatherer

	Dispatches        *prometheus.CounterVec
	DispatchDurations *prometheus.HistogramVec
	Actions           *prometheus.CounterVec

	Entities       prometheus.Gauge
	PlacedEntities prometheus.Gauge
	Clients        prometheus.Gauge

	RPCRequests  *prometheus.CounterVec
	RPCDurations *prometheus.HistogramVec
}

// NewSimCollector registers simulation metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewSimCollector(reg prometheus.Registerer) (*SimCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	dispatches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sim_dispatches_total",
		Help: "Total number of dispatched scheduler items, labeled by payload kind.",
	}, []string{"kind"})
	dispatches, err := registerCounterVec(reg, dispatches, "sim_dispatches_total")
	if err != nil {
		return nil, err
	}

	durations := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sim_dispatch_duration_seconds",
		Help:    "Time spent handling one dispatched item, in seconds.",
		Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
	}, []string{"kind"})
	durations, err = registerHistogramVec(reg, durations, "sim_dispatch_duration_seconds")
	if err != nil {
		return nil, err
	}

	actions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sim_actions_total",
		Help: "Total number of actions sent to the proxy, labeled by action kind.",
	}, []string{"kind"})
	actions, err = registerCounterVec(reg, actions, "sim_actions_total")
	if err != nil {
		return nil, err
	}

	entities, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sim_entities",
		Help: "Current number of entities in the world state.",
	}), "sim_entities")
	if err != nil {
		return nil, err
	}
	placed, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sim_entities_placed",
		Help: "Current number of entities standing in the world rather than held.",
	}), "sim_entities_placed")
	if err != nil {
		return nil, err
	}
	clients, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sim_connected_clients",
		Help: "Current number of connected player sessions.",
	}), "sim_connected_clients")
	if err != nil {
		return nil, err
	}

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rpc_requests_total",
		Help: "Total number of handled RPCs, labeled by service, method, and gRPC status code.",
	}, []string{"service", "method", "code"})
	requests, err = registerCounterVec(reg, requests, "rpc_requests_total")
	if err != nil {
		return nil, err
	}

	rpcDurations := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rpc_request_duration_seconds",
		Help:    "RPC latency in seconds.",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"service", "method"})
	rpcDurations, err = registerHistogramVec(reg, rpcDurations, "rpc_request_duration_seconds")
	if err != nil {
		return nil, err
	}

	return &SimCollector{
		gatherer:          gatherer,
		Dispatches:        dispatches,
		DispatchDurations: durations,
		Actions:           actions,
		Entities:          entities,
		PlacedEntities:    placed,
		Clients:           clients,
		RPCRequests:       requests,
		RPCDurations:      rpcDurations,
	}, nil
}

// ObserveDispatch records one handled scheduler item.
func (c *SimCollector) ObserveDispatch(kind string, d time.Duration) {
	if c == nil {
		return
	}
	if c.Dispatches != nil {
		c.Dispatches.WithLabelValues(kind).Inc()
	}
	if c.DispatchDurations != nil {
		c.DispatchDurations.WithLabelValues(kind).Observe(d.Seconds())
	}
}

// IncAction counts one action sent to the proxy.
func (c *SimCollector) IncAction(kind string) {
	if c == nil || c.Actions == nil {
		return
	}
	c.Actions.WithLabelValues(kind).Inc()
}

// SetEntityCounts satisfies the state metrics recorder so the world state
// can drive gauge values directly from its mutators.
func (c *SimCollector) SetEntityCounts(total, placed int) {
	if c == nil {
		return
	}
	if c.Entities != nil {
		c.Entities.Set(float64(total))
	}
	if c.PlacedEntities != nil {
		c.PlacedEntities.Set(float64(placed))
	}
}

// SetClients updates the connected sessions gauge.
func (c *SimCollector) SetClients(n int) {
	if c == nil || c.Clients == nil {
		return
	}
	c.Clients.Set(float64(n))
}

// UnaryServerInterceptor records request counts and durations for unary RPCs.
func (c *SimCollector) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		if c == nil {
			return resp, err
		}

		fullMethod := ""
		if info != nil {
			fullMethod = info.FullMethod
		}
		service, method := SplitMethod(fullMethod)
		code := status.Code(err).String()

		if c.RPCRequests != nil {
			c.RPCRequests.WithLabelValues(service, method, code).Inc()
		}
		if c.RPCDurations != nil {
			c.RPCDurations.WithLabelValues(service, method).Observe(time.Since(start).Seconds())
		}

		return resp, err
	}
}

// Handler exposes a ready-to-use /metrics handler.
func (c *SimCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SplitMethod parses a fully-qualified gRPC method name into service and method
// components. It tolerates empty strings and partial paths, returning
// "unknown"/"unknown" when parsing fails.
func SplitMethod(fullMethod string) (string, string) {
	if fullMethod == "" {
		return "unknown", "unknown"
	}
	fullMethod = strings.TrimPrefix(fullMethod, "/")
	parts := strings.Split(fullMethod, "/")
	if len(parts) < 2 {
		return "unknown", "unknown"
	}
	service := parts[len(parts)-2]
	method := parts[len(parts)-1]
	if dot := strings.LastIndex(service, "."); dot >= 0 && dot+1 < len(service) {
		service = service[dot+1:]
	}
	if service == "" {
		service = "unknown"
	}
	if method == "" {
		method = "unknown"
	}
	return service, method
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
