package service

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/iliyamo/cable-billing/internal/model"
)

// MonthOption is one entry of a billing month picker.
type MonthOption struct {
	Value int    `json:"value"`
	Name  string `json:"name"`
}

// BillingMonths lists January through December.
func BillingMonths() []MonthOption {
	out := make([]MonthOption, 0, 12)
	for m := 1; m <= 12; m++ {
		out = append(out, MonthOption{Value: m, Name: time.Month(m).String()})
	}
	return out
}

// BillingYears lists five years back through next year.
func BillingYears(now time.Time) []int {
	out := make([]int, 0, 7)
	for y := now.Year() - 5; y <= now.Year()+1; y++ {
		out = append(out, y)
	}
	return out
}

// ParsePage converts a page query value; anything below 1 or not a number
// is page 1.
func ParsePage(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

func parseMonth(raw string, p *Problems, field string) int {
	m, err := strconv.Atoi(raw)
	if err != nil || !(model.BillingPeriod{Month: m}).Valid() {
		p.add(field, "Billing month must be between 1 and 12.")
		return 0
	}
	return m
}

func parseYear(raw string, p *Problems, field string) int {
	y, err := strconv.Atoi(raw)
	if err != nil || y < 1 {
		p.add(field, "Billing year must be a valid year.")
		return 0
	}
	return y
}

// parseAmount parses a money amount; NaN and infinities are rejected.
func parseAmount(raw string) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, strconv.ErrSyntax
	}
	return v, nil
}
