package eventstudy

// demeanTwoWay applies the exact two-way within transformation for a balanced
// panel: z - unitMean - timeMean + grandMean. unit and period are 1-indexed
// row labels of the same length as values.
func demeanTwoWay(values []float64, unit, period []int, numUnits, numPeriods int) []float64 {
	unitSum := make([]float64, numUnits+1)
	timeSum := make([]float64, numPeriods+1)
	var grandSum float64

	for i, v := range values {
		unitSum[unit[i]] += v
		timeSum[period[i]] += v
		grandSum += v
	}

	grandMean := grandSum / float64(len(values))

	out := make([]float64, len(values))
	for i, v := range values {
		um := unitSum[unit[i]] / float64(numPeriods)
		tm := timeSum[period[i]] / float64(numUnits)
		out[i] = v - um - tm + grandMean
	}
	return out
}
