package vehicle

// gearCeilings maps each selector position to its maximum attainable speed in
// km/h. Neutral carries no propulsion ceiling and Reverse has its own cap.
var gearCeilings = map[Gear]float64{
	GearNeutral: 0,
	GearReverse: 30,
	GearFirst:   40,
	GearSecond:  80,
	GearThird:   120,
	GearFourth:  160,
	GearFifth:   200,
}

// MaxSpeedForGear returns the gear ceiling, with unknown gears treated as Neutral.
func MaxSpeedForGear(gear Gear) float64 {
	if ceiling, ok := gearCeilings[gear]; ok {
		return ceiling
	}
	return 0
}

// ReverseCapKmh is the fixed speed limit while backing up.
const ReverseCapKmh = 30.0

// SpeedRatio returns how close the vehicle is to its active gear ceiling in
// [0, 1]. A zero ceiling (Neutral) yields zero rather than a division.
func SpeedRatio(speedKmh float64, gear Gear) float64 {
	ceiling := MaxSpeedForGear(gear)
	if ceiling <= 0 {
		return 0
	}
	ratio := speedKmh / ceiling
	if ratio > 1 {
		return 1
	}
	if ratio < 0 {
		return 0
	}
	return ratio
}
