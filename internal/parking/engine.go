package parking

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Clock interface {
	Now() time.Time
}

type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the wall clock in UTC, truncated to the second, so
// entry and exit times are compared at the precision they are reported in.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}

type IDGenerator interface {
	NewID() string
}

type IDGeneratorFunc func() string

func (f IDGeneratorFunc) NewID() string { return f() }

// UUIDGenerator issues random (version 4) UUIDs.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string {
	return uuid.NewString()
}

type Status struct {
	Available int
	Occupied  int
}

type ParkResult struct {
	VehicleReg   string
	SpaceIndex   int
	VehicleClass VehicleClass
	TimeIn       time.Time
}

type Bill struct {
	BillID        string
	VehicleReg    string
	SpaceIndex    int
	VehicleClass  VehicleClass
	Minutes       int64
	VehicleCharge decimal.Decimal
	TimeIn        time.Time
	TimeOut       time.Time
}

// Engine applies the car park rules on top of a Registry. It keeps no state
// of its own.
type Engine struct {
	registry *Registry
	clock    Clock
	ids      IDGenerator
}

type Option func(*Engine)

func WithClock(clock Clock) Option {
	return func(e *Engine) { e.clock = clock }
}

func WithIDGenerator(ids IDGenerator) Option {
	return func(e *Engine) { e.ids = ids }
}

func NewEngine(registry *Registry, opts ...Option) *Engine {
	e := &Engine{
		registry: registry,
		clock:    SystemClock{},
		ids:      UUIDGenerator{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Registry() *Registry {
	return e.registry
}

func (e *Engine) GetStatus() Status {
	var status Status
	e.registry.View(func(tx *Tx) {
		status = Status{
			Available: tx.CountAvailable(),
			Occupied:  tx.CountOccupied(),
		}
	})
	return status
}

// ParkVehicle assigns the lowest-numbered free space. Nothing is mutated
// when an error is returned.
func (e *Engine) ParkVehicle(vehicleReg string, vehicleTypeCode int) (ParkResult, error) {
	if strings.TrimSpace(vehicleReg) == "" {
		return ParkResult{}, newError(KindInvalidArgument, "", "Vehicle registration is required")
	}

	var result ParkResult
	err := e.registry.Update(func(tx *Tx) error {
		if tx.IsVehicleParked(vehicleReg) {
			return newError(KindAlreadyParked, vehicleReg,
				fmt.Sprintf("Vehicle %s is already parked", vehicleReg))
		}

		space, ok := tx.FindFirstAvailable()
		if !ok {
			return newError(KindCarParkFull, vehicleReg, "No available parking spaces")
		}

		class, err := VehicleClassFromCode(vehicleTypeCode)
		if err != nil {
			return err
		}

		timeIn := e.clock.Now()
		tx.Park(space, vehicleReg, class, timeIn)

		result = ParkResult{
			VehicleReg:   vehicleReg,
			SpaceIndex:   space.Index(),
			VehicleClass: class,
			TimeIn:       timeIn,
		}
		return nil
	})
	if err != nil {
		return ParkResult{}, err
	}
	return result, nil
}

// GenerateBillAndExit charges the vehicle for its stay and frees its space.
func (e *Engine) GenerateBillAndExit(vehicleReg string) (Bill, error) {
	if strings.TrimSpace(vehicleReg) == "" {
		return Bill{}, newError(KindInvalidArgument, "", "Vehicle registration is required")
	}

	var bill Bill
	err := e.registry.Update(func(tx *Tx) error {
		space, ok := tx.FindByVehicleReg(vehicleReg)
		if !ok {
			return newError(KindVehicleNotFound, vehicleReg,
				fmt.Sprintf("Vehicle %s not found in car park", vehicleReg))
		}

		timeOut := e.clock.Now()
		charge := CalculateCharge(space.VehicleClass(), space.TimeIn(), timeOut)

		// Vacate erases the occupancy fields, so the bill is built first.
		bill = Bill{
			BillID:        e.ids.NewID(),
			VehicleReg:    space.VehicleReg(),
			SpaceIndex:    space.Index(),
			VehicleClass:  space.VehicleClass(),
			Minutes:       charge.Minutes,
			VehicleCharge: charge.Total,
			TimeIn:        space.TimeIn(),
			TimeOut:       timeOut,
		}

		tx.Vacate(space)
		return nil
	})
	if err != nil {
		return Bill{}, err
	}
	return bill, nil
}

// FindVehicle reports the space currently holding vehicleReg.
func (e *Engine) FindVehicle(vehicleReg string) (SpaceSnapshot, error) {
	var (
		snap  SpaceSnapshot
		found bool
	)
	e.registry.View(func(tx *Tx) {
		space, ok := tx.FindByVehicleReg(vehicleReg)
		if ok {
			snap = space.snapshot()
			found = true
		}
	})
	if !found {
		return SpaceSnapshot{}, newError(KindVehicleNotFound, vehicleReg,
			fmt.Sprintf("Vehicle %s not found in car park", vehicleReg))
	}
	return snap, nil
}
