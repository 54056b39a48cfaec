package otel_test

import (
	"context"
	"testing"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	n8notel "github.com/skokaina/ark-n8n-custom-nodes/otel"
	"github.com/skokaina/ark-n8n-custom-nodes/tool"
)

func newTestMeter() (*metric.ManualReader, *metric.MeterProvider) {
	reader := metric.NewManualReader()
	mp := metric.NewMeterProvider(metric.WithReader(reader))
	return reader, mp
}

func newTestTracer() (*tracetest.InMemoryExporter, *sdktrace.TracerProvider) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	return exporter, tp
}

func collectMetrics(t *testing.T, reader *metric.ManualReader) *metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("failed to collect metrics: %v", err)
	}
	return &rm
}

func findMetric(rm *metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, scope := range rm.ScopeMetrics {
		for i := range scope.Metrics {
			if scope.Metrics[i].Name == name {
				return &scope.Metrics[i]
			}
		}
	}
	return nil
}

func TestToolObserverRecordsMetrics(t *testing.T) {
	reader, mp := newTestMeter()
	exporter, tp := newTestTracer()

	observer, err := n8notel.NewToolObserver(mp.Meter("test-tool-observer"), tp.Tracer("test-tool-observer"))
	if err != nil {
		t.Fatalf("NewToolObserver() error = %v", err)
	}

	observer.ObserveInvoke(tool.InvokeObservation{
		RequestID:  "req-1",
		ToolName:   "calculator",
		Endpoint:   "http://n8n:5678/webhook/tool/calculator",
		StatusCode: 200,
		DurationMS: 120,
		Success:    true,
	})
	observer.ObserveInvoke(tool.InvokeObservation{
		RequestID:  "req-2",
		ToolName:   "calculator",
		Endpoint:   "http://n8n:5678/webhook/tool/calculator",
		StatusCode: 502,
		DurationMS: 15,
		ErrorCode:  tool.ErrorCodeUpstreamHTTP,
	})

	rm := collectMetrics(t, reader)

	invocations := findMetric(rm, "n8n_mcp.tool.invocations")
	if invocations == nil {
		t.Fatal("n8n_mcp.tool.invocations metric not found")
	}
	sum, ok := invocations.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("n8n_mcp.tool.invocations type = %T, want Sum[int64]", invocations.Data)
	}
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	if total != 2 {
		t.Fatalf("invocations total = %d, want 2", total)
	}

	latency := findMetric(rm, "n8n_mcp.tool.latency")
	if latency == nil {
		t.Fatal("n8n_mcp.tool.latency metric not found")
	}
	if _, ok := latency.Data.(metricdata.Histogram[float64]); !ok {
		t.Fatalf("n8n_mcp.tool.latency type = %T, want Histogram[float64]", latency.Data)
	}

	spans := exporter.GetSpans()
	if len(spans) != 2 {
		t.Fatalf("spans = %d, want 2", len(spans))
	}
	if spans[0].Name != "tool.invoke" || spans[0].Status.Code != codes.Ok {
		t.Fatalf("span[0] = %s %v", spans[0].Name, spans[0].Status)
	}
	if spans[1].Status.Code != codes.Error || spans[1].Status.Description != tool.ErrorCodeUpstreamHTTP {
		t.Fatalf("span[1] status = %v", spans[1].Status)
	}
	if got := spans[0].EndTime.Sub(spans[0].StartTime); got != 120*time.Millisecond {
		t.Fatalf("span duration = %v, want 120ms", got)
	}
}

func TestToolObserverNilTracer(t *testing.T) {
	_, mp := newTestMeter()
	observer, err := n8notel.NewToolObserver(mp.Meter("test"), nil)
	if err != nil {
		t.Fatalf("NewToolObserver() error = %v", err)
	}
	observer.ObserveInvoke(tool.InvokeObservation{ToolName: "word_count", Success: true})

	var nilObserver *n8notel.ToolObserver
	nilObserver.ObserveInvoke(tool.InvokeObservation{ToolName: "word_count"})
}
