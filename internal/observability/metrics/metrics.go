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
}

// Metrics exposes application-level instruments.
type Metrics struct {
	invoicesCreated   metric.Int64Counter
	numberCollisions  metric.Int64Counter
	exportsServed     metric.Int64Counter
	uploadsStored     metric.Int64Counter
	rateLimitDecision metric.Int64Counter
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
				log.Info("shutting down meter provider")
				return provider.Shutdown(ctx)
			},
		})
	}

	log.Info("metrics initialized",
		zap.String("endpoint", cfg.ExporterEndpoint),
		zap.String("protocol", cfg.ExporterProtocol),
	)
	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "invoicepos"
	}
	meter := provider.Meter(name)

	invoicesCreated, err := meter.Int64Counter("invoicepos_invoices_created_total")
	if err != nil {
		return nil, err
	}
	numberCollisions, err := meter.Int64Counter("invoicepos_invoice_number_collisions_total")
	if err != nil {
		return nil, err
	}
	exportsServed, err := meter.Int64Counter("invoicepos_exports_total")
	if err != nil {
		return nil, err
	}
	uploadsStored, err := meter.Int64Counter("invoicepos_uploads_total")
	if err != nil {
		return nil, err
	}
	rateLimitDecision, err := meter.Int64Counter("invoicepos_rate_limit_decisions_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		invoicesCreated:   invoicesCreated,
		numberCollisions:  numberCollisions,
		exportsServed:     exportsServed,
		uploadsStored:     uploadsStored,
		rateLimitDecision: rateLimitDecision,
	}, nil
}

// NewNoop returns instruments backed by a no-op provider.
func NewNoop() *Metrics {
	m, _ := New(Config{}, noop.NewMeterProvider())
	return m
}

// RecordInvoiceCreated counts persisted invoices by numbering source.
func (m *Metrics) RecordInvoiceCreated(ctx context.Context, numberSource string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("number_source", strings.TrimSpace(numberSource)))
	m.invoicesCreated.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordNumberCollision counts unique-number violations observed while creating invoices.
func (m *Metrics) RecordNumberCollision(ctx context.Context, numberSource string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("number_source", strings.TrimSpace(numberSource)))
	m.numberCollisions.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordExport counts CSV exports by dataset.
func (m *Metrics) RecordExport(ctx context.Context, dataset string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("dataset", strings.TrimSpace(dataset)))
	m.exportsServed.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordUpload counts stored uploads by kind.
func (m *Metrics) RecordUpload(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("kind", strings.TrimSpace(kind)))
	m.uploadsStored.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordRateLimit counts limiter decisions.
func (m *Metrics) RecordRateLimit(ctx context.Context, endpoint string, allowed bool) {
	if m == nil {
		return
	}
	decision := "allowed"
	if !allowed {
		decision = "denied"
	}
	attrs := FilterAttributes(
		attribute.String("endpoint", strings.TrimSpace(endpoint)),
		attribute.String("decision", decision),
	)
	m.rateLimitDecision.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{otlpmetrichttp.WithInsecure()}
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

// business_id is deliberately absent: tenants are unbounded.
var allowedLabelKeys = map[attribute.Key]struct{}{
	"endpoint":      {},
	"status_code":   {},
	"number_source": {},
	"dataset":       {},
	"kind":          {},
	"decision":      {},
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
