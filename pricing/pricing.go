// Copyright 2025 ByteDance Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package pricing holds the deterministic numeric derivations of the
// estimation workflow: difficulty weighting, hour/day conversion and cost
// composition. Everything here is pure and safe for concurrent use.
package pricing

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
)

// ErrInvalidConfig marks out-of-range configuration inputs (non-positive
// hours per day, buffer percentage outside [0,100], ...).
var ErrInvalidConfig = errors.New("invalid pricing config")

// Difficulty levels of a function module.
const (
	DifficultySimple      = "simple"
	DifficultyMedium      = "medium"
	DifficultyComplex     = "complex"
	DifficultyVeryComplex = "very_complex"
)

// multipliers maps a difficulty level to its hour weighting factor.
var multipliers = map[string]float64{
	DifficultySimple:      1.0,
	DifficultyMedium:      1.5,
	DifficultyComplex:     2.5,
	DifficultyVeryComplex: 4.0,
}

// Multiplier returns the weighting factor for a difficulty level.
// Unknown levels weigh 1.0.
func Multiplier(level string) float64 {
	if m, ok := multipliers[level]; ok {
		return m
	}
	return 1.0
}

// ValidDifficulty reports whether level is one of the four known levels.
func ValidDifficulty(level string) bool {
	_, ok := multipliers[level]
	return ok
}

// WeightedHours applies the difficulty multiplier to raw estimated hours.
func WeightedHours(estimatedHours float64, difficultyLevel string) float64 {
	return estimatedHours * Multiplier(difficultyLevel)
}

// HoursToWorkDays converts hours to whole work days, rounding up.
// hoursPerDay must be positive.
func HoursToWorkDays(hours float64, hoursPerDay float64) (int, error) {
	if hoursPerDay <= 0 {
		return 0, errors.Wrapf(ErrInvalidConfig, "hoursPerDay must be > 0, got %v", hoursPerDay)
	}
	if hours <= 0 {
		return 0, nil
	}
	return int(math.Ceil(hours / hoursPerDay)), nil
}

// Composition is the result of ComposeCost.
type Composition struct {
	BufferAmount int64 `json:"bufferAmount"`
	TotalCost    int64 `json:"totalCost"`
}

// ComposeCost sums the three cost components and applies the risk buffer:
// bufferAmount = round(base * bufferPercentage/100), totalCost = base + bufferAmount.
// bufferPercentage must be within [0,100].
func ComposeCost(laborCost, serviceCost, infrastructureCost int64, bufferPercentage float64) (Composition, error) {
	if bufferPercentage < 0 || bufferPercentage > 100 {
		return Composition{}, errors.Wrapf(ErrInvalidConfig, "bufferPercentage must be in [0,100], got %v", bufferPercentage)
	}
	base := laborCost + serviceCost + infrastructureCost
	buffer := int64(math.Round(float64(base) * bufferPercentage / 100))
	return Composition{
		BufferAmount: buffer,
		TotalCost:    base + buffer,
	}, nil
}

// FormatCurrency renders an amount for display. Only CNY and USD are known;
// anything else falls back to a bare number with the currency code.
func FormatCurrency(amount int64, currency string) string {
	switch currency {
	case "", "CNY":
		return fmt.Sprintf("¥%s", groupDigits(amount))
	case "USD":
		return fmt.Sprintf("$%s", groupDigits(amount))
	default:
		return fmt.Sprintf("%s %s", groupDigits(amount), currency)
	}
}

func groupDigits(n int64) string {
	s := fmt.Sprintf("%d", n)
	neg := false
	if len(s) > 0 && s[0] == '-' {
		neg = true
		s = s[1:]
	}
	var out []byte
	for i, c := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, c)
	}
	if neg {
		return "-" + string(out)
	}
	return string(out)
}
