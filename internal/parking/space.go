package parking

import "time"

// Space is one bay. The index never changes; the occupancy fields are set
// and cleared together through the registry.
type Space struct {
	index        int
	occupied     bool
	vehicleReg   string
	vehicleClass VehicleClass
	timeIn       time.Time
}

func newSpace(index int) *Space {
	return &Space{index: index}
}

func (s *Space) Index() int                 { return s.index }
func (s *Space) Occupied() bool             { return s.occupied }
func (s *Space) VehicleReg() string         { return s.vehicleReg }
func (s *Space) VehicleClass() VehicleClass { return s.vehicleClass }
func (s *Space) TimeIn() time.Time          { return s.timeIn }

func (s *Space) park(vehicleReg string, class VehicleClass, timeIn time.Time) {
	s.vehicleReg = vehicleReg
	s.vehicleClass = class
	s.timeIn = timeIn
	s.occupied = true
}

func (s *Space) vacate() {
	s.vehicleReg = ""
	s.vehicleClass = 0
	s.timeIn = time.Time{}
	s.occupied = false
}

// SpaceSnapshot is a copy of a space taken under the registry lock.
type SpaceSnapshot struct {
	Index        int
	Occupied     bool
	VehicleReg   string
	VehicleClass VehicleClass
	TimeIn       time.Time
}

func (s *Space) snapshot() SpaceSnapshot {
	return SpaceSnapshot{
		Index:        s.index,
		Occupied:     s.occupied,
		VehicleReg:   s.vehicleReg,
		VehicleClass: s.vehicleClass,
		TimeIn:       s.timeIn,
	}
}
