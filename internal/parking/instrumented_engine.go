package parking

import (
	"context"
	"errors"
	"time"

	"car-park/internal/logging"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentedEngine wraps Engine with spans, metrics and logs. Every
// outcome, rejections included, is counted.
type InstrumentedEngine struct {
	*Engine
	tracer trace.Tracer

	parkingOperations metric.Int64Counter
	billingOperations metric.Int64Counter
	occupancyGauge    metric.Int64UpDownCounter
	totalSpacesGauge  metric.Int64UpDownCounter
	operationDuration metric.Float64Histogram
	parkedMinutes     metric.Int64Histogram
	revenue           metric.Float64Counter
}

func NewInstrumentedEngine(engine *Engine, tracer trace.Tracer, meter metric.Meter) (*InstrumentedEngine, error) {
	parkingOperations, err := meter.Int64Counter("parking_operations_total",
		metric.WithDescription("Total number of park requests"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	billingOperations, err := meter.Int64Counter("billing_operations_total",
		metric.WithDescription("Total number of bill-and-exit requests"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	occupancyGauge, err := meter.Int64UpDownCounter("car_park_occupied_spaces",
		metric.WithDescription("Current number of occupied parking spaces"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	totalSpacesGauge, err := meter.Int64UpDownCounter("car_park_total_spaces",
		metric.WithDescription("Total number of parking spaces"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	operationDuration, err := meter.Float64Histogram("operation_duration_seconds",
		metric.WithDescription("Duration of car park operations"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	parkedMinutes, err := meter.Int64Histogram("parked_duration_minutes",
		metric.WithDescription("Billed whole minutes per stay"),
		metric.WithUnit("min"))
	if err != nil {
		return nil, err
	}

	revenue, err := meter.Float64Counter("car_park_charges_total",
		metric.WithDescription("Sum of all charges billed"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	ie := &InstrumentedEngine{
		Engine:            engine,
		tracer:            tracer,
		parkingOperations: parkingOperations,
		billingOperations: billingOperations,
		occupancyGauge:    occupancyGauge,
		totalSpacesGauge:  totalSpacesGauge,
		operationDuration: operationDuration,
		parkedMinutes:     parkedMinutes,
		revenue:           revenue,
	}

	ctx := context.Background()
	totalSpacesGauge.Add(ctx, int64(engine.registry.Capacity()))
	if occupied := engine.registry.CountOccupied(); occupied > 0 {
		occupancyGauge.Add(ctx, int64(occupied))
	}

	return ie, nil
}

func (ie *InstrumentedEngine) Capacity() int {
	return ie.registry.Capacity()
}

func (ie *InstrumentedEngine) GetStatus(ctx context.Context) Status {
	ctx, span := ie.tracer.Start(ctx, "car_park.get_status")
	defer span.End()

	start := time.Now()
	status := ie.Engine.GetStatus()

	span.SetAttributes(
		attribute.Int("car_park.available_spaces", status.Available),
		attribute.Int("car_park.occupied_spaces", status.Occupied),
	)

	ie.operationDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(
		attribute.String("operation", "get_status"),
		attribute.String("status", "success"),
	))

	return status
}

func (ie *InstrumentedEngine) ParkVehicle(ctx context.Context, vehicleReg string, vehicleTypeCode int) (ParkResult, error) {
	ctx, span := ie.tracer.Start(ctx, "car_park.park_vehicle",
		trace.WithAttributes(
			attribute.String("vehicle.registration", vehicleReg),
			attribute.Int("vehicle.type_code", vehicleTypeCode),
		))
	defer span.End()

	start := time.Now()
	span.AddEvent("finding_available_space")

	result, err := ie.Engine.ParkVehicle(vehicleReg, vehicleTypeCode)

	labels := []attribute.KeyValue{
		attribute.String("operation", "park"),
	}

	if err != nil {
		recordRejection(span, err)
		labels = append(labels, attribute.String("status", outcome(err)))

		logging.Warn(ctx).
			Err(err).
			Str("vehicle_reg", vehicleReg).
			Int("vehicle_type", vehicleTypeCode).
			Msg("park rejected")
	} else {
		labels = append(labels,
			attribute.String("status", "success"),
			attribute.String("vehicle_class", result.VehicleClass.String()),
		)
		span.SetAttributes(attribute.Int("car_park.space_number", result.SpaceIndex))
		span.AddEvent("space_allocated", trace.WithAttributes(
			attribute.Int("space_number", result.SpaceIndex),
		))
		ie.occupancyGauge.Add(ctx, 1)

		logging.Info(ctx).
			Str("vehicle_reg", result.VehicleReg).
			Str("vehicle_class", result.VehicleClass.String()).
			Int("space_number", result.SpaceIndex).
			Time("time_in", result.TimeIn).
			Msg("vehicle parked")
	}

	ie.parkingOperations.Add(ctx, 1, metric.WithAttributes(labels...))
	ie.operationDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(labels...))

	return result, err
}

func (ie *InstrumentedEngine) GenerateBillAndExit(ctx context.Context, vehicleReg string) (Bill, error) {
	ctx, span := ie.tracer.Start(ctx, "car_park.generate_bill_and_exit",
		trace.WithAttributes(
			attribute.String("vehicle.registration", vehicleReg),
		))
	defer span.End()

	start := time.Now()
	span.AddEvent("locating_vehicle")

	bill, err := ie.Engine.GenerateBillAndExit(vehicleReg)

	labels := []attribute.KeyValue{
		attribute.String("operation", "bill_and_exit"),
	}

	if err != nil {
		recordRejection(span, err)
		labels = append(labels, attribute.String("status", outcome(err)))

		logging.Warn(ctx).
			Err(err).
			Str("vehicle_reg", vehicleReg).
			Msg("exit rejected")
	} else {
		charge := bill.VehicleCharge.InexactFloat64()
		labels = append(labels,
			attribute.String("status", "success"),
			attribute.String("vehicle_class", bill.VehicleClass.String()),
		)
		span.SetAttributes(
			attribute.String("bill.id", bill.BillID),
			attribute.Int("car_park.space_number", bill.SpaceIndex),
			attribute.Int64("bill.minutes", bill.Minutes),
			attribute.String("bill.charge", bill.VehicleCharge.StringFixed(2)),
		)
		span.AddEvent("space_released")

		classAttr := metric.WithAttributes(attribute.String("vehicle_class", bill.VehicleClass.String()))
		ie.occupancyGauge.Add(ctx, -1)
		ie.revenue.Add(ctx, charge, classAttr)
		ie.parkedMinutes.Record(ctx, bill.Minutes, classAttr)

		logging.Info(ctx).
			Str("bill_id", bill.BillID).
			Str("vehicle_reg", bill.VehicleReg).
			Int("space_number", bill.SpaceIndex).
			Int64("minutes", bill.Minutes).
			Str("charge", bill.VehicleCharge.StringFixed(2)).
			Msg("vehicle exited")
	}

	ie.billingOperations.Add(ctx, 1, metric.WithAttributes(labels...))
	ie.operationDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(labels...))

	return bill, err
}

func (ie *InstrumentedEngine) FindVehicle(ctx context.Context, vehicleReg string) (SpaceSnapshot, error) {
	ctx, span := ie.tracer.Start(ctx, "car_park.find_vehicle",
		trace.WithAttributes(
			attribute.String("vehicle.registration", vehicleReg),
		))
	defer span.End()

	start := time.Now()
	snap, err := ie.Engine.FindVehicle(vehicleReg)

	labels := []attribute.KeyValue{
		attribute.String("operation", "find_vehicle"),
	}
	if err != nil {
		span.AddEvent("vehicle_not_found")
		labels = append(labels, attribute.String("status", "not_found"))
	} else {
		span.AddEvent("vehicle_found", trace.WithAttributes(
			attribute.Int("space_number", snap.Index),
		))
		labels = append(labels, attribute.String("status", "found"))
	}

	ie.operationDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(labels...))

	return snap, err
}

func (ie *InstrumentedEngine) Spaces(ctx context.Context) []SpaceSnapshot {
	_, span := ie.tracer.Start(ctx, "car_park.list_spaces")
	defer span.End()

	spaces := ie.registry.Snapshot()
	span.SetAttributes(attribute.Int("car_park.total_spaces", len(spaces)))
	return spaces
}

// recordRejection marks the span as failed. Business rejections get a
// "rejected" event carrying the error kind.
func recordRejection(span trace.Span, err error) {
	var perr *Error
	if errors.As(err, &perr) {
		span.AddEvent("rejected", trace.WithAttributes(
			attribute.String("error.kind", string(perr.Kind)),
		))
	} else {
		span.RecordError(err)
	}
	span.SetStatus(codes.Error, err.Error())
}

func outcome(err error) string {
	var perr *Error
	if errors.As(err, &perr) {
		return string(perr.Kind)
	}
	return "failed"
}
