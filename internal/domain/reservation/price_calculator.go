package reservation

type PriceCalculator interface {
	CalculatePriceCents(hourlyRateCents int64, slot TimeSlot) int64
}

// HourlyPriceCalculator bills the venue's hourly rate times the whole-hour
// difference between start and end. Minutes are truncated, not rounded; a
// 10:30-11:30 slot bills one hour and a 10:00-10:30 slot bills zero. This
// mirrors the established billing policy and must not be silently "fixed".
type HourlyPriceCalculator struct{}

func NewHourlyPriceCalculator() *HourlyPriceCalculator {
	return &HourlyPriceCalculator{}
}

func (pc *HourlyPriceCalculator) CalculatePriceCents(hourlyRateCents int64, slot TimeSlot) int64 {
	return hourlyRateCents * int64(slot.WholeHours())
}
