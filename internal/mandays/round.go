package mandays

import "github.com/shopspring/decimal"

// ceilPlaces is the precision values are rounded to before taking the ceiling,
// so products such as 10 * 0.7 do not ceil to 8.
const ceilPlaces = 6

func ceilDays(v float64) int {
	return int(decimal.NewFromFloat(v).Round(ceilPlaces).Ceil().IntPart())
}
