package parser

import (
	"errors"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrBadAmount is returned when the input holds no recognizable number.
var ErrBadAmount = errors.New("unrecognized amount")

var amountRe = regexp.MustCompile(`[0-9]+(?:[.,][0-9]+)?`)

// ParseAmount reads an amount in Indonesian shorthand: 25rb and 500k are
// thousands, 1.5jt and 2m are millions, 3b is billions. Exactly one
// multiplier applies, chosen by suffix precedence ("jt" before "t", "rb"
// before "b"), so "2jt" is 2,000,000 and nothing else.
func ParseAmount(text string) (float64, error) {
	lower := strings.ToLower(strings.TrimSpace(text))

	num := amountRe.FindString(lower)
	if num == "" {
		return 0, ErrBadAmount
	}
	num = strings.ReplaceAll(num, ",", ".")

	d, err := decimal.NewFromString(num)
	if err != nil {
		return 0, ErrBadAmount
	}

	var mult int64 = 1
	switch {
	case strings.Contains(lower, "jt"):
		mult = 1_000_000
	case strings.Contains(lower, "rb"):
		mult = 1_000
	case strings.Contains(lower, "k"):
		mult = 1_000
	case strings.Contains(lower, "j"):
		mult = 1_000_000
	case strings.Contains(lower, "m"):
		mult = 1_000_000
	case strings.Contains(lower, "b"), strings.Contains(lower, "t"):
		mult = 1_000_000_000
	}

	return d.Mul(decimal.NewFromInt(mult)).InexactFloat64(), nil
}
