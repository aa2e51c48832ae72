// Package recurring finds repeating charges by grouping transactions on a
// normalized description and measuring how regular their dates and amounts
// are. Detection is derived data: it never mutates the store on its own.
package recurring

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// DefaultMinOccurrences is the smallest group size worth reporting.
const DefaultMinOccurrences = 3

// Detector groups transactions into recurring patterns.
type Detector struct {
	MinOccurrences int
}

func NewDetector() *Detector {
	return &Detector{MinOccurrences: DefaultMinOccurrences}
}

var (
	longDigits    = regexp.MustCompile(`\d{4,}`)
	companySuffix = regexp.MustCompile(`\s+(inc|llc|ltd|corp)\.?$`)
)

// Normalize reduces a description to a stable grouping key: lowercased, long
// digit runs (transaction IDs) removed, trailing company suffixes dropped
// and whitespace collapsed. Short numbers like "Store #5" survive.
func Normalize(description string) string {
	s := strings.ToLower(strings.TrimSpace(description))
	s = longDigits.ReplaceAllString(s, "")
	s = companySuffix.ReplaceAllString(s, "")
	return strings.Join(strings.Fields(s), " ")
}

// medianGap returns the median of day gaps between consecutive sorted dates.
func medianGap(dates []time.Time) float64 {
	gaps := make([]int, 0, len(dates)-1)
	for i := 1; i < len(dates); i++ {
		gaps = append(gaps, int(dates[i].Sub(dates[i-1]).Hours()/24))
	}
	sort.Ints(gaps)
	mid := len(gaps) / 2
	if len(gaps)%2 == 1 {
		return float64(gaps[mid])
	}
	return float64(gaps[mid-1]+gaps[mid]) / 2
}

// classify maps a median gap in days onto a frequency. Gaps outside every
// band are irregular, which is still reported, just without a prediction.
func classify(gap float64) core.Frequency {
	switch {
	case gap >= 6 && gap <= 8:
		return core.FrequencyWeekly
	case gap >= 25 && gap <= 35:
		return core.FrequencyMonthly
	case gap >= 360 && gap <= 370:
		return core.FrequencyYearly
	default:
		return core.FrequencyIrregular
	}
}

// confidence scores a group on occurrence count (40%), amount consistency
// (30%) and date regularity (30%). Each factor grows monotonically with the
// property it measures; the result is clamped to [0, 1].
func confidence(amounts []decimal.Decimal, dates []time.Time) float64 {
	occurrence := math.Min(float64(len(amounts))/10, 1)

	minAmt, maxAmt := amounts[0], amounts[0]
	for _, a := range amounts {
		if a.LessThan(minAmt) {
			minAmt = a
		}
		if a.GreaterThan(maxAmt) {
			maxAmt = a
		}
	}
	consistency := 0.5
	if maxAmt.IsPositive() {
		spread, _ := maxAmt.Sub(minAmt).Div(maxAmt).Float64()
		consistency = math.Max(0, 1-spread)
	}

	regularity := 0.5
	if len(dates) >= 2 {
		minGap, maxGap := math.MaxInt, 0
		for i := 1; i < len(dates); i++ {
			gap := int(dates[i].Sub(dates[i-1]).Hours() / 24)
			if gap < minGap {
				minGap = gap
			}
			if gap > maxGap {
				maxGap = gap
			}
		}
		if maxGap > 0 {
			regularity = math.Max(0, 1-float64(maxGap-minGap)/float64(maxGap))
		} else {
			regularity = 1
		}
	}

	score := occurrence*0.4 + consistency*0.3 + regularity*0.3
	return math.Min(1, math.Max(0, score))
}

// Detect finds recurring patterns in the given transactions, sorted by
// confidence descending.
func (d *Detector) Detect(txns []core.Transaction) []core.RecurringPattern {
	minOcc := d.MinOccurrences
	if minOcc <= 0 {
		minOcc = DefaultMinOccurrences
	}

	groups := make(map[string][]core.Transaction)
	for _, t := range txns {
		key := Normalize(t.Description)
		groups[key] = append(groups[key], t)
	}

	var patterns []core.RecurringPattern
	for key, group := range groups {
		if len(group) < minOcc {
			continue
		}

		sort.Slice(group, func(i, j int) bool { return group[i].Date.Before(group[j].Date) })

		dates := make([]time.Time, len(group))
		amounts := make([]decimal.Decimal, len(group))
		total := decimal.Zero
		for i, t := range group {
			dates[i] = t.Date
			amounts[i] = t.AbsAmount()
			total = total.Add(t.AbsAmount())
		}

		gap := medianGap(dates)
		frequency := classify(gap)

		minAmt, maxAmt := amounts[0], amounts[0]
		for _, a := range amounts {
			if a.LessThan(minAmt) {
				minAmt = a
			}
			if a.GreaterThan(maxAmt) {
				maxAmt = a
			}
		}

		pattern := core.RecurringPattern{
			ID:                 uuid.NewString(),
			DescriptionPattern: key,
			Amount:             total.Div(decimal.NewFromInt(int64(len(group)))),
			Frequency:          frequency,
			Confidence:         confidence(amounts, dates),
			Category:           group[0].Category,
			Account:            group[0].Account,
			LastSeen:           dates[len(dates)-1],
			TransactionCount:   len(group),
		}
		if len(group) > 1 {
			variance := maxAmt.Sub(minAmt)
			pattern.AmountVariance = &variance
		}
		if frequency != core.FrequencyIrregular {
			next := dates[len(dates)-1].AddDate(0, 0, int(math.Round(gap)))
			pattern.NextExpected = &next
		}
		patterns = append(patterns, pattern)
	}

	sort.SliceStable(patterns, func(i, j int) bool {
		if patterns[i].Confidence != patterns[j].Confidence {
			return patterns[i].Confidence > patterns[j].Confidence
		}
		return patterns[i].DescriptionPattern < patterns[j].DescriptionPattern
	})
	return patterns
}

// Mark flags every transaction whose normalized description matches a
// detected pattern. It returns the updated copies and how many were marked.
func (d *Detector) Mark(txns []core.Transaction, patterns []core.RecurringPattern) ([]core.Transaction, int) {
	byPattern := make(map[string]core.RecurringPattern, len(patterns))
	for _, p := range patterns {
		byPattern[p.DescriptionPattern] = p
	}

	out := make([]core.Transaction, len(txns))
	marked := 0
	for i, t := range txns {
		if p, ok := byPattern[Normalize(t.Description)]; ok {
			t.Recurring = true
			t.RecurringID = p.ID
			marked++
		}
		out[i] = t
	}
	return out, marked
}
