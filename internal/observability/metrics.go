package observability

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "go-domain-routing-service"

var (
	metricsOnce sync.Once

	repositoryOps  metric.Int64Counter
	lifecycleOps   metric.Int64Counter
	edgeCalls      metric.Int64Counter
	routingUpdates metric.Int64Counter
)

func instruments() {
	metricsOnce.Do(func() {
		meter := otel.Meter(instrumentationName)
		repositoryOps, _ = meter.Int64Counter("repository_operations_total",
			metric.WithDescription("Repository operations by entity, operation and outcome"))
		lifecycleOps, _ = meter.Int64Counter("domain_lifecycle_events_total",
			metric.WithDescription("Domain lifecycle operations by operation and outcome"))
		edgeCalls, _ = meter.Int64Counter("edge_facade_calls_total",
			metric.WithDescription("Calls to the worker facade by operation and outcome"))
		routingUpdates, _ = meter.Int64Counter("routing_table_updates_total",
			metric.WithDescription("Routing table publications and retractions by outcome"))
	})
}

func RecordRepositoryOperation(ctx context.Context, entity, operation, outcome string) {
	instruments()
	if repositoryOps == nil {
		return
	}
	repositoryOps.Add(ctx, 1, metric.WithAttributes(
		attribute.String("entity", entity),
		attribute.String("operation", operation),
		attribute.String("outcome", outcome),
	))
}

func RecordDomainLifecycleEvent(ctx context.Context, operation, outcome string) {
	instruments()
	if lifecycleOps == nil {
		return
	}
	lifecycleOps.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("outcome", outcome),
	))
}

func RecordEdgeCall(ctx context.Context, operation, outcome string) {
	instruments()
	if edgeCalls == nil {
		return
	}
	edgeCalls.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("outcome", outcome),
	))
}

func RecordRoutingTableUpdate(ctx context.Context, operation, outcome string) {
	instruments()
	if routingUpdates == nil {
		return
	}
	routingUpdates.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("outcome", outcome),
	))
}
