package parking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

type instrumentedFixture struct {
	engine   *InstrumentedEngine
	clock    *fakeClock
	recorder *tracetest.SpanRecorder
	reader   *sdkmetric.ManualReader
}

func newInstrumentedFixture(t *testing.T, capacity int) *instrumentedFixture {
	t.Helper()

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	base, clock := newTestEngine(capacity)
	ie, err := NewInstrumentedEngine(base, tp.Tracer("test"), mp.Meter("test"))
	require.NoError(t, err)

	return &instrumentedFixture{engine: ie, clock: clock, recorder: recorder, reader: reader}
}

func (f *instrumentedFixture) spanNames() []string {
	var names []string
	for _, s := range f.recorder.Ended() {
		names = append(names, s.Name())
	}
	return names
}

func (f *instrumentedFixture) metric(t *testing.T, name string) metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, f.reader.Collect(context.Background(), &rm))
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == name {
				return m
			}
		}
	}
	t.Fatalf("metric %s not recorded", name)
	return metricdata.Metrics{}
}

func sumInt64(t *testing.T, m metricdata.Metrics) int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "metric %s is not an int64 sum", m.Name)
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestInstrumentedEngineIntegration(t *testing.T) {
	f := newInstrumentedFixture(t, 3)
	ctx := context.Background()

	res, err := f.engine.ParkVehicle(ctx, "KA01HH1234", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, res.SpaceIndex)

	status := f.engine.GetStatus(ctx)
	assert.Equal(t, Status{Available: 2, Occupied: 1}, status)

	snap, err := f.engine.FindVehicle(ctx, "ka01hh1234")
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Index)

	f.clock.Advance(10 * time.Minute)
	bill, err := f.engine.GenerateBillAndExit(ctx, "KA01HH1234")
	require.NoError(t, err)
	assert.Equal(t, "3.00", bill.VehicleCharge.StringFixed(2))

	assert.Equal(t, Status{Available: 3, Occupied: 0}, f.engine.GetStatus(ctx))
	assert.Len(t, f.engine.Spaces(ctx), 3)
	assert.Equal(t, 3, f.engine.Capacity())

	assert.Equal(t, []string{
		"car_park.park_vehicle",
		"car_park.get_status",
		"car_park.find_vehicle",
		"car_park.generate_bill_and_exit",
		"car_park.get_status",
		"car_park.list_spaces",
	}, f.spanNames())

	assert.Equal(t, int64(3), sumInt64(t, f.metric(t, "car_park_total_spaces")))
	assert.Equal(t, int64(0), sumInt64(t, f.metric(t, "car_park_occupied_spaces")))
	assert.Equal(t, int64(1), sumInt64(t, f.metric(t, "parking_operations_total")))
	assert.Equal(t, int64(1), sumInt64(t, f.metric(t, "billing_operations_total")))

	revenue, ok := f.metric(t, "car_park_charges_total").Data.(metricdata.Sum[float64])
	require.True(t, ok)
	require.Len(t, revenue.DataPoints, 1)
	assert.InDelta(t, 3.0, revenue.DataPoints[0].Value, 0.0001)
}

func TestInstrumentedEngineRecordsRejections(t *testing.T) {
	f := newInstrumentedFixture(t, 1)
	ctx := context.Background()

	_, err := f.engine.ParkVehicle(ctx, "ABC123", 1)
	require.NoError(t, err)

	_, err = f.engine.ParkVehicle(ctx, "XYZ789", 1)
	require.ErrorIs(t, err, ErrCarParkFull)

	_, err = f.engine.GenerateBillAndExit(ctx, "NOTFOUND")
	require.ErrorIs(t, err, ErrVehicleNotFound)

	spans := f.recorder.Ended()
	require.Len(t, spans, 3)

	full := spans[1]
	assert.Equal(t, "car_park.park_vehicle", full.Name())
	assert.Equal(t, "Error", full.Status().Code.String())
	var kinds []string
	for _, ev := range full.Events() {
		if ev.Name != "rejected" {
			continue
		}
		for _, a := range ev.Attributes {
			if a.Key == "error.kind" {
				kinds = append(kinds, a.Value.AsString())
			}
		}
	}
	assert.Equal(t, []string{string(KindCarParkFull)}, kinds)

	assert.Equal(t, int64(2), sumInt64(t, f.metric(t, "parking_operations_total")))
	assert.Equal(t, int64(1), sumInt64(t, f.metric(t, "car_park_occupied_spaces")))
}

func TestInstrumentedEngineSeedsOccupancyFromRegistry(t *testing.T) {
	base, _ := newTestEngine(4)
	_, err := base.ParkVehicle("ABC123", 2)
	require.NoError(t, err)

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	_, err = NewInstrumentedEngine(base, sdktrace.NewTracerProvider().Tracer("test"), mp.Meter("test"))
	require.NoError(t, err)

	f := &instrumentedFixture{reader: reader}
	assert.Equal(t, int64(1), sumInt64(t, f.metric(t, "car_park_occupied_spaces")))
}
