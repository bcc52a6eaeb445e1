package weather

// AggregateDaily folds provider forecast readings into at most maxDays daily
// entries. Readings are grouped by calendar date in arrival order; each day keeps
// the min/max temperature and the most frequent condition (first seen wins ties).
func AggregateDaily(readings []ForecastReading, maxDays int) []DailyForecast {
	if len(readings) == 0 || maxDays <= 0 {
		return []DailyForecast{}
	}

	type dayAcc struct {
		min, max   float64
		counts     map[string]int
		conditions []string // first-seen order
	}

	var (
		order []string
		days  = make(map[string]*dayAcc)
	)

	for _, r := range readings {
		date := r.Date
		if date == "" {
			date = r.Timestamp.UTC().Format("2006-01-02")
		}

		acc, ok := days[date]
		if !ok {
			if len(order) >= maxDays {
				continue
			}
			acc = &dayAcc{
				min:    r.TemperatureC,
				max:    r.TemperatureC,
				counts: make(map[string]int),
			}
			days[date] = acc
			order = append(order, date)
		}

		if r.TemperatureC < acc.min {
			acc.min = r.TemperatureC
		}
		if r.TemperatureC > acc.max {
			acc.max = r.TemperatureC
		}

		if _, seen := acc.counts[r.Condition]; !seen {
			acc.conditions = append(acc.conditions, r.Condition)
		}
		acc.counts[r.Condition]++
	}

	out := make([]DailyForecast, 0, len(order))
	for _, date := range order {
		acc := days[date]

		// Pick majority condition.
		best, bestCount := "", 0
		for _, cond := range acc.conditions {
			if acc.counts[cond] > bestCount {
				best, bestCount = cond, acc.counts[cond]
			}
		}

		out = append(out, DailyForecast{
			Date:      date,
			TempMin:   acc.min,
			TempMax:   acc.max,
			Condition: best,
		})
	}
	return out
}
