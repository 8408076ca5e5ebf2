package insight

import (
	"math"
	"sort"
	"time"

	"github.com/datapilot-labs/kpi-dashboard-agent/internal/core/dataset"
)

// FieldStats holds descriptive statistics for one numeric column.
type FieldStats struct {
	Field  string  `json:"field"`
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	Q25    float64 `json:"q25"`
	Median float64 `json:"median"`
	Q75    float64 `json:"q75"`
	Max    float64 `json:"max"`
}

// Describe computes descriptive statistics over the numeric columns of a
// table, in column order. Missing values are dropped per column.
func Describe(t *dataset.Table) []FieldStats {
	var out []FieldStats
	for _, col := range t.NumericColumns() {
		vals, _ := t.NumericColumn(col)
		if len(vals) == 0 {
			continue
		}
		sorted := append([]float64(nil), vals...)
		sort.Float64s(sorted)

		s := FieldStats{
			Field:  col,
			Count:  len(vals),
			Mean:   mean(vals),
			Min:    sorted[0],
			Q25:    quantile(sorted, 0.25),
			Median: quantile(sorted, 0.5),
			Q75:    quantile(sorted, 0.75),
			Max:    sorted[len(sorted)-1],
		}
		s.Std = sampleStd(vals, s.Mean)
		out = append(out, s)
	}
	return out
}

// ValueCount is one categorical value with its frequency.
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// CategoricalField is the full value distribution of one string column.
type CategoricalField struct {
	Field  string       `json:"field"`
	Counts []ValueCount `json:"counts"`
}

// CategoricalSummary computes value counts for every string column. The
// full distribution is retained; truncation to the top five happens only
// at prompt-rendering time.
func CategoricalSummary(t *dataset.Table) []CategoricalField {
	var out []CategoricalField
	for _, col := range t.StringColumns() {
		idx := t.ColumnIndex(col)
		counts := map[string]int{}
		for _, row := range t.Rows {
			if v, ok := row[idx].(string); ok {
				counts[v]++
			}
		}
		list := make([]ValueCount, 0, len(counts))
		for v, c := range counts {
			list = append(list, ValueCount{Value: v, Count: c})
		}
		sort.Slice(list, func(i, j int) bool {
			if list[i].Count == list[j].Count {
				return list[i].Value < list[j].Value
			}
			return list[i].Count > list[j].Count
		})
		out = append(out, CategoricalField{Field: col, Counts: list})
	}
	return out
}

// Trend classifies the direction of one numeric field over time.
type Trend struct {
	Field string  `json:"field"`
	Trend string  `json:"trend"` // increasing, decreasing, stable
	Slope float64 `json:"slope"`
}

// DetectTrend sorts (datetime, value) pairs by time, smooths the values
// with a rolling mean of the given window, and fits a first-degree
// polynomial to the smoothed sequence. It returns nil whenever the trend
// is not computable: missing columns, fewer than window+1 complete rows,
// or fewer than two rolling points.
func DetectTrend(t *dataset.Table, datetimeCol, field string, window int) *Trend {
	if datetimeCol == "" || window < 1 {
		return nil
	}
	dtIdx := t.ColumnIndex(datetimeCol)
	fIdx := t.ColumnIndex(field)
	if dtIdx < 0 || fIdx < 0 {
		return nil
	}

	type point struct {
		ts  time.Time
		val float64
	}
	var points []point
	for _, row := range t.Rows {
		ts, tok := row[dtIdx].(time.Time)
		val, vok := dataset.CellFloat(row[fIdx])
		if !tok || !vok {
			continue
		}
		points = append(points, point{ts: ts, val: val})
	}
	if len(points) < window+1 {
		return nil
	}
	sort.SliceStable(points, func(i, j int) bool { return points[i].ts.Before(points[j].ts) })

	rolling := make([]float64, 0, len(points)-window+1)
	for i := window - 1; i < len(points); i++ {
		sum := 0.0
		for j := i - window + 1; j <= i; j++ {
			sum += points[j].val
		}
		rolling = append(rolling, sum/float64(window))
	}
	if len(rolling) < 2 {
		return nil
	}

	slope := linearSlope(rolling)
	direction := "stable"
	if slope > 0 {
		direction = "increasing"
	} else if slope < 0 {
		direction = "decreasing"
	}
	return &Trend{Field: field, Trend: direction, Slope: slope}
}

// CorrMatrix is a symmetric Pearson correlation matrix across numeric
// columns. The diagonal is always 1.0; a pair with zero variance or too
// few complete observations correlates as 0.
type CorrMatrix struct {
	Fields []string    `json:"fields"`
	Values [][]float64 `json:"values"`
}

// Correlation computes pairwise-complete Pearson correlations over the
// numeric columns of a table.
func Correlation(t *dataset.Table) *CorrMatrix {
	cols := t.NumericColumns()
	if len(cols) == 0 {
		return nil
	}
	n := len(cols)
	mat := make([][]float64, n)
	for i := range mat {
		mat[i] = make([]float64, n)
		mat[i][i] = 1.0
	}
	for a := 0; a < n; a++ {
		ia := t.ColumnIndex(cols[a])
		for b := a + 1; b < n; b++ {
			ib := t.ColumnIndex(cols[b])
			r := pearson(t, ia, ib)
			mat[a][b] = r
			mat[b][a] = r
		}
	}
	return &CorrMatrix{Fields: cols, Values: mat}
}

func pearson(t *dataset.Table, ia, ib int) float64 {
	var n, sumX, sumY, sumXX, sumYY, sumXY float64
	for _, row := range t.Rows {
		x, okx := dataset.CellFloat(row[ia])
		y, oky := dataset.CellFloat(row[ib])
		if !okx || !oky {
			continue
		}
		n++
		sumX += x
		sumY += y
		sumXX += x * x
		sumYY += y * y
		sumXY += x * y
	}
	if n < 2 {
		return 0
	}
	denom := math.Sqrt((n*sumXX - sumX*sumX) * (n*sumYY - sumY*sumY))
	if denom == 0 {
		return 0
	}
	r := (n*sumXY - sumX*sumY) / denom
	if r > 1 {
		r = 1
	} else if r < -1 {
		r = -1
	}
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return r
}

// DetectAnomalies flags row indices whose z-score magnitude exceeds the
// threshold, independently per numeric column after dropping missing
// values. A zero-variance column yields an empty list rather than a
// division by zero.
func DetectAnomalies(t *dataset.Table, zThresh float64) map[string][]int {
	result := make(map[string][]int)
	for _, col := range t.NumericColumns() {
		vals, rowIdx := t.NumericColumn(col)
		anomalies := []int{}
		if len(vals) > 0 {
			m := mean(vals)
			sd := populationStd(vals, m)
			if sd > 0 {
				for i, v := range vals {
					if math.Abs((v-m)/sd) > zThresh {
						anomalies = append(anomalies, rowIdx[i])
					}
				}
			}
		}
		result[col] = anomalies
	}
	return result
}

// DetectClusters runs k-means over rows that have every numeric column
// present. It returns cluster label -> row indices, or nil when fewer
// complete rows exist than requested clusters.
func DetectClusters(t *dataset.Table, nClusters int) map[int][]int {
	cols := t.NumericColumns()
	if len(cols) == 0 || nClusters < 1 {
		return nil
	}
	colIdx := make([]int, len(cols))
	for i, c := range cols {
		colIdx[i] = t.ColumnIndex(c)
	}

	var features [][]float64
	var rowIdx []int
	for i, row := range t.Rows {
		vec := make([]float64, len(colIdx))
		complete := true
		for j, ci := range colIdx {
			v, ok := dataset.CellFloat(row[ci])
			if !ok {
				complete = false
				break
			}
			vec[j] = v
		}
		if complete {
			features = append(features, vec)
			rowIdx = append(rowIdx, i)
		}
	}
	if len(features) < nClusters {
		return nil
	}

	labels := kmeans(features, nClusters)
	clusters := make(map[int][]int)
	for i, label := range labels {
		clusters[label] = append(clusters[label], rowIdx[i])
	}
	return clusters
}

func mean(vals []float64) float64 {
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

// sampleStd is the n-1 standard deviation used by descriptive stats.
func sampleStd(vals []float64, m float64) float64 {
	if len(vals) < 2 {
		return 0
	}
	var ss float64
	for _, v := range vals {
		d := v - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(vals)-1))
}

// populationStd is the n-denominator deviation used for z-scores.
func populationStd(vals []float64, m float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	var ss float64
	for _, v := range vals {
		d := v - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(vals)))
}

// quantile interpolates linearly over a sorted slice.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

// linearSlope fits y = a*x + b over x = 0..n-1 by least squares and
// returns a.
func linearSlope(y []float64) float64 {
	n := float64(len(y))
	var sumX, sumY, sumXX, sumXY float64
	for i, v := range y {
		x := float64(i)
		sumX += x
		sumY += v
		sumXX += x * x
		sumXY += x * v
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / denom
}
