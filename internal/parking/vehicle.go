package parking

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// VehicleClass is the charging category of a vehicle. Its numeric value is
// the code used on the wire.
type VehicleClass int

const (
	Small  VehicleClass = 1
	Medium VehicleClass = 2
	Large  VehicleClass = 3
)

var ratesPerMinute = map[VehicleClass]decimal.Decimal{
	Small:  decimal.RequireFromString("0.10"),
	Medium: decimal.RequireFromString("0.20"),
	Large:  decimal.RequireFromString("0.40"),
}

func VehicleClassFromCode(code int) (VehicleClass, error) {
	class := VehicleClass(code)
	if !class.Valid() {
		return 0, newError(KindInvalidVehicleType, "", fmt.Sprintf("Invalid vehicle type code: %d", code))
	}
	return class, nil
}

func (c VehicleClass) Valid() bool {
	_, ok := ratesPerMinute[c]
	return ok
}

func (c VehicleClass) Code() int {
	return int(c)
}

// RatePerMinute returns the per-minute charge. It panics on an invalid
// class; classes only enter the system through VehicleClassFromCode.
func (c VehicleClass) RatePerMinute() decimal.Decimal {
	rate, ok := ratesPerMinute[c]
	if !ok {
		panic(fmt.Sprintf("parking: no rate for vehicle class %d", int(c)))
	}
	return rate
}

func (c VehicleClass) String() string {
	switch c {
	case Small:
		return "SMALL"
	case Medium:
		return "MEDIUM"
	case Large:
		return "LARGE"
	default:
		return fmt.Sprintf("VehicleClass(%d)", int(c))
	}
}
