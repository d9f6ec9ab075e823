package parking

import (
	"time"

	"github.com/shopspring/decimal"
)

const surchargeBlockMinutes = 5

// surchargePerBlock is added once for every complete five-minute block of
// the total stay.
var surchargePerBlock = decimal.NewFromInt(1)

type ChargeBreakdown struct {
	Minutes   int64
	Base      decimal.Decimal
	Surcharge decimal.Decimal
	Total     decimal.Decimal
}

// CalculateCharge bills whole elapsed minutes only: partial minutes are
// dropped, and a clock that went backwards bills nothing.
func CalculateCharge(class VehicleClass, timeIn, timeOut time.Time) ChargeBreakdown {
	minutes := int64(timeOut.Sub(timeIn) / time.Minute)
	if minutes < 0 {
		minutes = 0
	}

	m := decimal.NewFromInt(minutes)
	base := m.Mul(class.RatePerMinute())
	surcharge := decimal.NewFromInt(minutes / surchargeBlockMinutes).Mul(surchargePerBlock)

	return ChargeBreakdown{
		Minutes:   minutes,
		Base:      base,
		Surcharge: surcharge,
		Total:     base.Add(surcharge).Round(2),
	}
}
