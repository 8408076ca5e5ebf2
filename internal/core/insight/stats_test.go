package insight

import (
	"math"
	"testing"
	"time"

	"github.com/datapilot-labs/kpi-dashboard-agent/internal/core/dataset"
)

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func TestDescribe(t *testing.T) {
	table := &dataset.Table{
		Columns: []string{"v", "label"},
		Rows: [][]interface{}{
			{1.0, "a"}, {2.0, "b"}, {3.0, "a"}, {4.0, "b"}, {5.0, "a"},
		},
	}
	stats := Describe(table)
	if len(stats) != 1 {
		t.Fatalf("stats = %d columns, want 1", len(stats))
	}
	s := stats[0]
	if s.Field != "v" || s.Count != 5 {
		t.Errorf("field=%q count=%d", s.Field, s.Count)
	}
	if s.Mean != 3.0 || s.Median != 3.0 || s.Min != 1.0 || s.Max != 5.0 {
		t.Errorf("mean=%v median=%v min=%v max=%v", s.Mean, s.Median, s.Min, s.Max)
	}
	if s.Q25 != 2.0 || s.Q75 != 4.0 {
		t.Errorf("q25=%v q75=%v", s.Q25, s.Q75)
	}
	// Sample std of 1..5 is sqrt(2.5).
	if math.Abs(s.Std-math.Sqrt(2.5)) > 1e-9 {
		t.Errorf("std = %v", s.Std)
	}
}

func TestDescribeSkipsMissing(t *testing.T) {
	table := &dataset.Table{
		Columns: []string{"v"},
		Rows:    [][]interface{}{{1.0}, {nil}, {3.0}},
	}
	stats := Describe(table)
	if len(stats) != 1 || stats[0].Count != 2 {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestCategoricalSummaryOrdering(t *testing.T) {
	table := &dataset.Table{
		Columns: []string{"region"},
		Rows:    [][]interface{}{{"north"}, {"south"}, {"north"}, {"east"}},
	}
	cats := CategoricalSummary(table)
	if len(cats) != 1 {
		t.Fatalf("cats = %d, want 1", len(cats))
	}
	counts := cats[0].Counts
	if counts[0].Value != "north" || counts[0].Count != 2 {
		t.Errorf("top value = %+v", counts[0])
	}
	// Ties break alphabetically.
	if counts[1].Value != "east" || counts[2].Value != "south" {
		t.Errorf("tie order = %v, %v", counts[1].Value, counts[2].Value)
	}
}

func TestDetectTrendIncreasing(t *testing.T) {
	table := &dataset.Table{
		Columns: []string{"date", "v"},
		Rows: [][]interface{}{
			{day(5), 50.0}, {day(1), 10.0}, {day(3), 30.0}, {day(2), 20.0}, {day(4), 40.0},
		},
	}
	trend := DetectTrend(table, "date", "v", 3)
	if trend == nil {
		t.Fatal("expected a trend")
	}
	if trend.Trend != "increasing" || trend.Slope <= 0 {
		t.Errorf("trend = %+v", trend)
	}
}

func TestDetectTrendTooFewRows(t *testing.T) {
	table := &dataset.Table{
		Columns: []string{"date", "v"},
		Rows:    [][]interface{}{{day(1), 1.0}, {day(2), 2.0}, {day(3), 3.0}},
	}
	// window+1 = 4 rows are needed.
	if trend := DetectTrend(table, "date", "v", 3); trend != nil {
		t.Errorf("trend = %+v, want nil", trend)
	}
}

func TestDetectTrendStable(t *testing.T) {
	table := &dataset.Table{
		Columns: []string{"date", "v"},
		Rows: [][]interface{}{
			{day(1), 5.0}, {day(2), 5.0}, {day(3), 5.0}, {day(4), 5.0}, {day(5), 5.0},
		},
	}
	trend := DetectTrend(table, "date", "v", 3)
	if trend == nil || trend.Trend != "stable" || trend.Slope != 0 {
		t.Errorf("trend = %+v", trend)
	}
}

func TestDetectTrendMissingColumn(t *testing.T) {
	table := &dataset.Table{Columns: []string{"v"}, Rows: [][]interface{}{{1.0}}}
	if trend := DetectTrend(table, "date", "v", 3); trend != nil {
		t.Errorf("trend = %+v, want nil without datetime column", trend)
	}
}

func TestCorrelationPerfect(t *testing.T) {
	table := &dataset.Table{
		Columns: []string{"x", "y", "z"},
		Rows: [][]interface{}{
			{1.0, 2.0, 3.0},
			{2.0, 4.0, 2.0},
			{3.0, 6.0, 1.0},
		},
	}
	m := Correlation(table)
	if m == nil || len(m.Fields) != 3 {
		t.Fatalf("matrix = %+v", m)
	}
	if m.Values[0][0] != 1.0 {
		t.Errorf("diagonal = %v", m.Values[0][0])
	}
	if math.Abs(m.Values[0][1]-1.0) > 1e-9 {
		t.Errorf("corr(x,y) = %v, want 1", m.Values[0][1])
	}
	if math.Abs(m.Values[0][2]+1.0) > 1e-9 {
		t.Errorf("corr(x,z) = %v, want -1", m.Values[0][2])
	}
	if m.Values[0][1] != m.Values[1][0] {
		t.Error("matrix not symmetric")
	}
}

func TestCorrelationSingleColumn(t *testing.T) {
	table := &dataset.Table{
		Columns: []string{"v"},
		Rows:    [][]interface{}{{1.0}, {2.0}, {3.0}},
	}
	m := Correlation(table)
	if m == nil || len(m.Fields) != 1 || m.Values[0][0] != 1.0 {
		t.Errorf("matrix = %+v, want 1x1 identity", m)
	}
}

func TestCorrelationZeroVariance(t *testing.T) {
	table := &dataset.Table{
		Columns: []string{"x", "flat"},
		Rows: [][]interface{}{
			{1.0, 7.0}, {2.0, 7.0}, {3.0, 7.0},
		},
	}
	m := Correlation(table)
	if m.Values[0][1] != 0 {
		t.Errorf("corr with flat column = %v, want 0", m.Values[0][1])
	}
	if m.Values[1][1] != 1.0 {
		t.Errorf("flat diagonal = %v, want 1", m.Values[1][1])
	}
}

func TestDetectAnomalies(t *testing.T) {
	rows := make([][]interface{}, 0, 11)
	for i := 0; i < 10; i++ {
		rows = append(rows, []interface{}{10.0 + float64(i%2)})
	}
	rows = append(rows, []interface{}{1000.0})
	table := &dataset.Table{Columns: []string{"v"}, Rows: rows}

	anomalies := DetectAnomalies(table, 3.0)
	if got := anomalies["v"]; len(got) != 1 || got[0] != 10 {
		t.Errorf("anomalies = %v, want [10]", got)
	}
}

func TestDetectAnomaliesZeroVariance(t *testing.T) {
	table := &dataset.Table{
		Columns: []string{"v"},
		Rows:    [][]interface{}{{5.0}, {5.0}, {5.0}},
	}
	anomalies := DetectAnomalies(table, 3.0)
	got, ok := anomalies["v"]
	if !ok {
		t.Fatal("column missing from result")
	}
	if len(got) != 0 {
		t.Errorf("anomalies = %v, want empty", got)
	}
}

func TestDetectClustersTooFewRows(t *testing.T) {
	table := &dataset.Table{
		Columns: []string{"v"},
		Rows:    [][]interface{}{{1.0}, {2.0}},
	}
	if got := DetectClusters(table, 3); got != nil {
		t.Errorf("clusters = %v, want nil", got)
	}
}

func TestDetectClustersSeparation(t *testing.T) {
	table := &dataset.Table{
		Columns: []string{"v"},
		Rows: [][]interface{}{
			{1.0}, {1.1}, {0.9},
			{100.0}, {100.1}, {99.9},
		},
	}
	clusters := DetectClusters(table, 2)
	if len(clusters) != 2 {
		t.Fatalf("clusters = %v", clusters)
	}
	// Rows 0-2 and 3-5 must land in different clusters.
	labelOf := map[int]int{}
	for label, idxs := range clusters {
		for _, i := range idxs {
			labelOf[i] = label
		}
	}
	if labelOf[0] != labelOf[1] || labelOf[0] != labelOf[2] {
		t.Error("low rows split across clusters")
	}
	if labelOf[3] != labelOf[4] || labelOf[3] != labelOf[5] {
		t.Error("high rows split across clusters")
	}
	if labelOf[0] == labelOf[3] {
		t.Error("low and high rows share a cluster")
	}
}

func TestDetectClustersDeterministic(t *testing.T) {
	table := &dataset.Table{
		Columns: []string{"x", "y"},
		Rows: [][]interface{}{
			{1.0, 1.0}, {1.2, 0.8}, {8.0, 8.0}, {8.1, 7.9}, {4.0, 4.0},
		},
	}
	first := DetectClusters(table, 2)
	second := DetectClusters(table, 2)
	if len(first) != len(second) {
		t.Fatal("cluster counts differ between runs")
	}
	for label, idxs := range first {
		other := second[label]
		if len(other) != len(idxs) {
			t.Fatalf("cluster %d size differs", label)
		}
		for i := range idxs {
			if idxs[i] != other[i] {
				t.Fatalf("cluster %d membership differs", label)
			}
		}
	}
}
