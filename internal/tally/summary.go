package tally

import (
	"fmt"
	"sort"

	"github.com/montanaflynn/stats"
)

// PointSummary describes how the class did on one knowledge point
type PointSummary struct {
	KnowledgePoint string
	TotalErrors    int
	Students       int // students with at least one error
	Mean           float64
	Median         float64
	Max            float64
}

// Summary is the class-level view of a sheet
type Summary struct {
	Students          int
	StudentsWithError int
	TotalErrors       int
	MeanPerStudent    float64
	StdDevPerStudent  float64
	Points            []PointSummary
}

// Summarize computes per knowledge point and overall figures. Every student
// counts in the means, including those without errors.
func Summarize(result Result, kps []string) (Summary, error) {
	summary := Summary{Students: len(result.Students)}
	if summary.Students == 0 {
		return summary, nil
	}

	totals := make([]float64, 0, len(result.Students))
	for _, student := range result.Students {
		total := result.Total(student)
		totals = append(totals, float64(total))
		summary.TotalErrors += total
		if total > 0 {
			summary.StudentsWithError++
		}
	}

	var err error
	if summary.MeanPerStudent, err = stats.Mean(totals); err != nil {
		return summary, fmt.Errorf("failed to compute mean errors: %w", err)
	}
	if summary.StdDevPerStudent, err = stats.StandardDeviation(totals); err != nil {
		return summary, fmt.Errorf("failed to compute error deviation: %w", err)
	}

	for _, kp := range Distinct(kps) {
		point, err := summarizePoint(result, kp)
		if err != nil {
			return summary, err
		}
		summary.Points = append(summary.Points, point)
	}

	return summary, nil
}

func summarizePoint(result Result, kp string) (PointSummary, error) {
	point := PointSummary{KnowledgePoint: kp}
	counts := make([]float64, 0, len(result.Students))
	for _, student := range result.Students {
		n := result.Count(student, kp)
		counts = append(counts, float64(n))
		point.TotalErrors += n
		if n > 0 {
			point.Students++
		}
	}

	var err error
	if point.Mean, err = stats.Mean(counts); err != nil {
		return point, fmt.Errorf("failed to compute mean for %s: %w", kp, err)
	}
	if point.Median, err = stats.Median(counts); err != nil {
		return point, fmt.Errorf("failed to compute median for %s: %w", kp, err)
	}
	if point.Max, err = stats.Max(counts); err != nil {
		return point, fmt.Errorf("failed to compute max for %s: %w", kp, err)
	}
	return point, nil
}

// Weakest returns up to n knowledge points with the most errors, skipping
// points nobody got wrong. Ties keep sheet order.
func (s Summary) Weakest(n int) []PointSummary {
	var points []PointSummary
	for _, p := range s.Points {
		if p.TotalErrors > 0 {
			points = append(points, p)
		}
	}
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].TotalErrors > points[j].TotalErrors
	})
	if len(points) > n {
		points = points[:n]
	}
	return points
}

// Distinct drops repeated labels, keeping first-seen order
func Distinct(kps []string) []string {
	seen := make(map[string]bool, len(kps))
	out := make([]string, 0, len(kps))
	for _, kp := range kps {
		if seen[kp] {
			continue
		}
		seen[kp] = true
		out = append(out, kp)
	}
	return out
}
