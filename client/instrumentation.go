package client

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/timgluz/openeew/client"

var (
	tracer = otel.Tracer(instrumentationName)
	meter  = otel.Meter(instrumentationName)

	objectsFetched = newCounter("openeew.objects.fetched", "Record objects downloaded", "{object}")
	bytesFetched   = newCounter("openeew.objects.bytes", "Bytes of record objects downloaded", "By")
	decodeWarnings = newCounter("openeew.records.skipped", "Malformed record lines skipped", "{line}")
)

func newCounter(name, description, unit string) metric.Int64Counter {
	counter, err := meter.Int64Counter(name, metric.WithDescription(description), metric.WithUnit(unit))
	if err != nil {
		otel.Handle(err)
		return noop.Int64Counter{}
	}

	return counter
}

func recordAnyErrorAndEndSpan(err error, span trace.Span) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	span.End()
}
