package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"car-park/internal/logging"
	"car-park/internal/parking"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const maxBodyBytes = 1 << 20

type CarPark interface {
	Capacity() int
	GetStatus(ctx context.Context) parking.Status
	ParkVehicle(ctx context.Context, vehicleReg string, vehicleTypeCode int) (parking.ParkResult, error)
	GenerateBillAndExit(ctx context.Context, vehicleReg string) (parking.Bill, error)
	FindVehicle(ctx context.Context, vehicleReg string) (parking.SpaceSnapshot, error)
	Spaces(ctx context.Context) []parking.SpaceSnapshot
}

type Handler struct {
	carPark     CarPark
	serviceName string
	validate    *validator.Validate
}

func NewHandler(carPark CarPark, serviceName string) *Handler {
	return &Handler{
		carPark:     carPark,
		serviceName: serviceName,
		validate:    newValidator(),
	}
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, HealthResponse{
		Status:  "healthy",
		Service: h.serviceName,
		Meta:    extractMeta(r.Context()),
	})
}

func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	status := h.carPark.GetStatus(ctx)

	WriteSuccess(ctx, w, "Status retrieved successfully", ParkingStatusResponse{
		AvailableSpaces: status.Available,
		OccupiedSpaces:  status.Occupied,
	})
}

func (h *Handler) ParkVehicle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ParkVehicleRequest
	if !h.decode(w, r, &req) {
		return
	}

	res, err := h.carPark.ParkVehicle(ctx, req.VehicleReg, *req.VehicleType)
	if err != nil {
		writeCarParkError(ctx, w, err)
		return
	}

	WriteSuccessStatus(ctx, w, http.StatusCreated, "Vehicle parked successfully", ParkVehicleResponse{
		VehicleReg:  res.VehicleReg,
		SpaceNumber: res.SpaceIndex,
		TimeIn:      res.TimeIn.Format(timeLayout),
	})
}

func (h *Handler) GenerateBill(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req BillRequest
	if !h.decode(w, r, &req) {
		return
	}

	bill, err := h.carPark.GenerateBillAndExit(ctx, req.VehicleReg)
	if err != nil {
		writeCarParkError(ctx, w, err)
		return
	}

	WriteSuccess(ctx, w, "Bill generated successfully", BillResponse{
		BillID:        bill.BillID,
		VehicleReg:    bill.VehicleReg,
		VehicleCharge: json.Number(bill.VehicleCharge.StringFixed(2)),
		TimeIn:        bill.TimeIn.Format(timeLayout),
		TimeOut:       bill.TimeOut.Format(timeLayout),
	})
}

func (h *Handler) ListSpaces(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	spaces := h.carPark.Spaces(ctx)

	resp := SpacesResponse{
		Capacity: len(spaces),
		Spaces:   make([]SpaceStatus, 0, len(spaces)),
	}

	for _, space := range spaces {
		status := SpaceStatus{
			SpaceNumber: space.Index,
			Occupied:    space.Occupied,
		}
		if space.Occupied {
			resp.Occupied++
			status.VehicleReg = space.VehicleReg
			status.VehicleType = space.VehicleClass.String()
			status.TimeIn = space.TimeIn.Format(timeLayout)
		}
		resp.Spaces = append(resp.Spaces, status)
	}
	resp.Available = resp.Capacity - resp.Occupied

	WriteSuccess(ctx, w, "Spaces retrieved successfully", resp)
}

func (h *Handler) FindVehicle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	vehicleReg := chi.URLParam(r, "vehicleReg")
	if vehicleReg == "" {
		WriteError(ctx, w, http.StatusBadRequest, "Vehicle registration is required")
		return
	}

	space, err := h.carPark.FindVehicle(ctx, vehicleReg)
	if err != nil {
		writeCarParkError(ctx, w, err)
		return
	}

	WriteSuccess(ctx, w, "Vehicle found", FindVehicleResponse{
		SpaceNumber: space.Index,
		VehicleReg:  space.VehicleReg,
		VehicleType: space.VehicleClass.String(),
		TimeIn:      space.TimeIn.Format(timeLayout),
	})
}

// decode reads and validates a JSON body, writing the 400 response itself
// when the body is unusable.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		WriteError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return false
	}

	if err := h.validate.Struct(dst); err != nil {
		if fields := validationFields(err); fields != nil {
			WriteValidationError(ctx, w, fields)
			return false
		}
		WriteError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

func statusForKind(kind parking.ErrorKind) int {
	switch kind {
	case parking.KindAlreadyParked, parking.KindCarParkFull:
		return http.StatusConflict
	case parking.KindVehicleNotFound:
		return http.StatusNotFound
	case parking.KindInvalidVehicleType, parking.KindInvalidArgument:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeCarParkError(ctx context.Context, w http.ResponseWriter, err error) {
	var perr *parking.Error
	if errors.As(err, &perr) {
		WriteError(ctx, w, statusForKind(perr.Kind), perr.Message)
		return
	}

	span := trace.SpanFromContext(ctx)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	logging.Error(ctx).Err(err).Msg("unexpected car park error")

	WriteError(ctx, w, http.StatusInternalServerError, "Internal server error")
}
