package tally

// StatsMarker is the row-0 header that starts the statistics block. Columns
// from the marker onwards are never read as error data.
const StatsMarker = "统计"

// Result maps each student to their error count per knowledge point. Students
// keep the order in which their rows first appear; counts are always positive.
type Result struct {
	Students []string
	Counts   map[string]map[string]int
}

func newResult() Result {
	return Result{Counts: make(map[string]map[string]int)}
}

// put stores the counts for a student. A repeated name replaces the earlier
// counts but keeps its original position.
func (r *Result) put(student string, counts map[string]int) {
	if _, seen := r.Counts[student]; !seen {
		r.Students = append(r.Students, student)
	}
	r.Counts[student] = counts
}

// Count returns the errors of student on kp, zero when absent
func (r Result) Count(student, kp string) int {
	return r.Counts[student][kp]
}

// Total returns all errors of a student
func (r Result) Total(student string) int {
	total := 0
	for _, n := range r.Counts[student] {
		total += n
	}
	return total
}

// HasErrors reports whether any student has at least one error
func (r Result) HasErrors() bool {
	for _, counts := range r.Counts {
		if len(counts) > 0 {
			return true
		}
	}
	return false
}

// Boundary returns the column of the first StatsMarker in row 0, or the grid
// width when the sheet has no marker.
func Boundary(g Grid) int {
	if len(g) > 0 {
		for col, cell := range g[0] {
			if cell.Equals(StatsMarker) {
				return col
			}
		}
	}
	return g.Width()
}

// KnowledgePoints reads the non-empty labels of row 1 in columns
// 1..boundary-1. Duplicates are kept in place.
func KnowledgePoints(g Grid, boundary int) []string {
	var kps []string
	if len(g) < 2 {
		return kps
	}
	for col := 1; col < boundary && col < len(g[1]); col++ {
		cell := g[1][col]
		if cell.IsEmpty() {
			continue
		}
		kps = append(kps, cell.String())
	}
	return kps
}

// Aggregate tallies every student row (index 2 and up) of a sheet. Each marked
// cell is paired by position with a knowledge point; the shorter of the row
// and the knowledge-point list bounds the pairing.
func Aggregate(g Grid) (Result, []string) {
	boundary := Boundary(g)
	kps := KnowledgePoints(g, boundary)
	result := newResult()

	for r := 2; r < len(g); r++ {
		row := g[r]
		name := g.At(r, 0).String()

		var errors []Cell
		if end := min(boundary, len(row)); end > 1 {
			errors = row[1:end]
		}

		summary := make(map[string]int)
		for i := 0; i < len(kps) && i < len(errors); i++ {
			if errors[i].Marked() {
				summary[kps[i]]++
			}
		}
		result.put(name, summary)
	}

	return result, kps
}
