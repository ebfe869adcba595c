package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes application-level instruments.
type Metrics struct {
	activityRecorded       metric.Int64Counter
	authorizationDecisions metric.Int64Counter
	analyticsQueries       metric.Int64Counter
	activeOrgSwitches      metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "taskflow"
	}
	meter := provider.Meter(name)

	activityRecorded, err := meter.Int64Counter("taskflow_activity_recorded_total")
	if err != nil {
		return nil, err
	}
	authorizationDecisions, err := meter.Int64Counter("taskflow_authorization_decisions_total")
	if err != nil {
		return nil, err
	}
	analyticsQueries, err := meter.Int64Counter("taskflow_analytics_queries_total")
	if err != nil {
		return nil, err
	}
	activeOrgSwitches, err := meter.Int64Counter("taskflow_active_org_switches_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		activityRecorded:       activityRecorded,
		authorizationDecisions: authorizationDecisions,
		analyticsQueries:       analyticsQueries,
		activeOrgSwitches:      activeOrgSwitches,
	}, nil
}

// NewNoop returns instruments bound to a no-op provider.
func NewNoop() *Metrics {
	m, err := New(Config{}, noop.NewMeterProvider())
	if err != nil {
		return nil
	}
	return m
}

// RecordActivity increments activity log writes per action.
func (m *Metrics) RecordActivity(ctx context.Context, action string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("action", strings.TrimSpace(action)))
	m.activityRecorded.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordAuthorization counts authorization outcomes per level and resource kind.
func (m *Metrics) RecordAuthorization(ctx context.Context, level, resourceKind string, allowed bool) {
	if m == nil {
		return
	}
	decision := "denied"
	if allowed {
		decision = "allowed"
	}
	attrs := FilterAttributes(
		attribute.String("level", strings.TrimSpace(level)),
		attribute.String("resource_kind", strings.TrimSpace(resourceKind)),
		attribute.String("decision", decision),
	)
	m.authorizationDecisions.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordAnalyticsQuery counts analytics reports served.
func (m *Metrics) RecordAnalyticsQuery(ctx context.Context, report, orgID string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("report", strings.TrimSpace(report)),
		attribute.String("org_id", strings.TrimSpace(orgID)),
	)
	m.analyticsQueries.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordActiveOrgSwitch counts active organization changes by reason.
func (m *Metrics) RecordActiveOrgSwitch(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("reason", strings.TrimSpace(reason)))
	m.activeOrgSwitches.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"org_id":        {},
	"endpoint":      {},
	"status_code":   {},
	"action":        {},
	"level":         {},
	"resource_kind": {},
	"decision":      {},
	"report":        {},
	"reason":        {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
