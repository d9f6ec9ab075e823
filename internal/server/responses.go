package server

import (
	"context"
	"encoding/json"
	"net/http"

	"car-park/internal/logging"

	"go.opentelemetry.io/otel/trace"
)

// Timestamps are reported to the second without a zone suffix.
const timeLayout = "2006-01-02T15:04:05"

type Meta struct {
	TraceID   string `json:"trace_id,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type Response struct {
	Success bool              `json:"success"`
	Message string            `json:"message,omitempty"`
	Data    any               `json:"data,omitempty"`
	Error   string            `json:"error,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
	Meta    *Meta             `json:"meta,omitempty"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Meta    *Meta  `json:"meta,omitempty"`
}

type ParkVehicleRequest struct {
	VehicleReg  string `json:"vehicleReg" validate:"notblank"`
	VehicleType *int   `json:"vehicleType" validate:"required,min=1,max=3"`
}

type BillRequest struct {
	VehicleReg string `json:"vehicleReg" validate:"notblank"`
}

type ParkingStatusResponse struct {
	AvailableSpaces int `json:"availableSpaces"`
	OccupiedSpaces  int `json:"occupiedSpaces"`
}

type ParkVehicleResponse struct {
	VehicleReg  string `json:"vehicleReg"`
	SpaceNumber int    `json:"spaceNumber"`
	TimeIn      string `json:"timeIn"`
}

type BillResponse struct {
	BillID     string `json:"billId"`
	VehicleReg string `json:"vehicleReg"`
	// VehicleCharge is always rendered with two decimal places.
	VehicleCharge json.Number `json:"vehicleCharge"`
	TimeIn        string      `json:"timeIn"`
	TimeOut       string      `json:"timeOut"`
}

type FindVehicleResponse struct {
	SpaceNumber int    `json:"spaceNumber"`
	VehicleReg  string `json:"vehicleReg"`
	VehicleType string `json:"vehicleType"`
	TimeIn      string `json:"timeIn"`
}

type SpaceStatus struct {
	SpaceNumber int    `json:"spaceNumber"`
	Occupied    bool   `json:"occupied"`
	VehicleReg  string `json:"vehicleReg,omitempty"`
	VehicleType string `json:"vehicleType,omitempty"`
	TimeIn      string `json:"timeIn,omitempty"`
}

type SpacesResponse struct {
	Capacity  int           `json:"capacity"`
	Occupied  int           `json:"occupied"`
	Available int           `json:"available"`
	Spaces    []SpaceStatus `json:"spaces"`
}

func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logging.Logger().Error().Err(err).Msg("failed to write response")
	}
}

func extractMeta(ctx context.Context) *Meta {
	meta := &Meta{}

	span := trace.SpanFromContext(ctx)
	if span.SpanContext().HasTraceID() {
		meta.TraceID = span.SpanContext().TraceID().String()
	}

	if reqID, ok := ctx.Value(RequestIDKey).(string); ok {
		meta.RequestID = reqID
	}

	return meta
}

func WriteSuccess(ctx context.Context, w http.ResponseWriter, message string, data any) {
	WriteSuccessStatus(ctx, w, http.StatusOK, message, data)
}

func WriteSuccessStatus(ctx context.Context, w http.ResponseWriter, status int, message string, data any) {
	WriteJSON(w, status, Response{
		Success: true,
		Message: message,
		Data:    data,
		Meta:    extractMeta(ctx),
	})
}

func WriteError(ctx context.Context, w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, Response{
		Success: false,
		Error:   message,
		Meta:    extractMeta(ctx),
	})
}

func WriteValidationError(ctx context.Context, w http.ResponseWriter, fields map[string]string) {
	WriteJSON(w, http.StatusBadRequest, Response{
		Success: false,
		Error:   "Validation failed",
		Fields:  fields,
		Meta:    extractMeta(ctx),
	})
}
