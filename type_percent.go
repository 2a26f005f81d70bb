package stocks

import "fmt"

// Percent is a relative change, 1.5 meaning 1.5%.
type Percent float64

// PercentChange returns the change from "from" to "to" relative to from. It
// is zero when from is zero.
func PercentChange(from, to Money) Percent {
	if from.IsZero() {
		return 0
	}
	return Percent(100 * to.Sub(from).Float() / from.Float())
}

func (p Percent) Equal(q Percent) bool {
	// it has to be compared with some precision
	const precision = 0.0001
	diff := p - q
	if diff < 0 {
		diff = -diff
	}
	return diff < precision
}

func (p Percent) String() string {
	return fmt.Sprintf("%.2f%%", p)
}

// SignedString is like String with an explicit sign. A change that rounds
// to zero is "-".
func (p Percent) SignedString() string {
	res := fmt.Sprintf("%+.2f%%", p)
	if res == "+0.00%" || res == "-0.00%" {
		return "-"
	}
	return res
}
