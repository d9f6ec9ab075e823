package parking

// ErrorKind classifies a business-rule rejection.
type ErrorKind string

const (
	KindAlreadyParked      ErrorKind = "ALREADY_PARKED"
	KindCarParkFull        ErrorKind = "CAR_PARK_FULL"
	KindVehicleNotFound    ErrorKind = "VEHICLE_NOT_FOUND"
	KindInvalidVehicleType ErrorKind = "INVALID_VEHICLE_TYPE"
	KindInvalidArgument    ErrorKind = "INVALID_ARGUMENT"
)

// Error is returned by the engine when a request breaks a car park rule.
// VehicleReg is empty when the rejection is not about a particular vehicle.
type Error struct {
	Kind       ErrorKind
	VehicleReg string
	Message    string
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches on Kind, so errors.Is(err, ErrCarParkFull) holds for any
// car-park-full error regardless of its message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func newError(kind ErrorKind, vehicleReg, message string) *Error {
	return &Error{
		Kind:       kind,
		VehicleReg: vehicleReg,
		Message:    message,
	}
}

var (
	ErrAlreadyParked      = &Error{Kind: KindAlreadyParked, Message: "vehicle is already parked"}
	ErrCarParkFull        = &Error{Kind: KindCarParkFull, Message: "No available parking spaces"}
	ErrVehicleNotFound    = &Error{Kind: KindVehicleNotFound, Message: "vehicle not found in car park"}
	ErrInvalidVehicleType = &Error{Kind: KindInvalidVehicleType, Message: "invalid vehicle type"}
	ErrInvalidArgument    = &Error{Kind: KindInvalidArgument, Message: "invalid argument"}
)
