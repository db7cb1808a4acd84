package middleware

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/broady/gateway"
)

// MetricsInterceptor records call counts and latencies per endpoint and
// result code. The collectors are registered with reg.
func MetricsInterceptor(reg prometheus.Registerer) gateway.UnaryInterceptor {
	calls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gateway",
		Name:      "calls_total",
		Help:      "Number of RPC calls by endpoint and result code.",
	}, []string{"endpoint", "code"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "gateway",
		Name:      "call_duration_seconds",
		Help:      "RPC call latency by endpoint.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"endpoint"})
	reg.MustRegister(calls, latency)

	return func(ctx context.Context, req any, info *gateway.RPCInfo, handler gateway.HandlerFunc) (any, error) {
		start := time.Now()
		res, err := handler(ctx, req)

		code := "ok"
		if err != nil {
			code = string(gateway.DefaultErrorTransformer(err).Code)
		}
		calls.WithLabelValues(info.EndpointID(), code).Inc()
		latency.WithLabelValues(info.EndpointID()).Observe(time.Since(start).Seconds())
		return res, err
	}
}
