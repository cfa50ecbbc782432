package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/okian/reportcard/internal/domain/chart"
)

// Marking constants.
const (
	// MaxMarks is the top score of a topic.
	MaxMarks = 12.0
	// StrongPercentage is the score percentage a topic must exceed to be
	// considered mastered.
	StrongPercentage = 75.0
	// ExcellentMarks is the lowest mark counted as excellent in a subject summary.
	ExcellentMarks = 7.5

	notAvailable = "Not Available"
)

// Performance classifies a single topic.
type Performance string

const (
	PerformanceStrong        Performance = "Strong"
	PerformanceNeedAttention Performance = "Need Attention"
	PerformanceWeak          Performance = "Weak"
)

// Color is the badge color shown for the performance.
func (p Performance) Color() string {
	switch p {
	case PerformanceStrong:
		return "green"
	case PerformanceNeedAttention:
		return "orange"
	default:
		return "red"
	}
}

// CSSClass is the badge class shown for the performance.
func (p Performance) CSSClass() string {
	switch p {
	case PerformanceStrong:
		return "bg-success"
	case PerformanceNeedAttention:
		return "bg-warning text-dark"
	default:
		return "bg-danger"
	}
}

// Classify grades a topic: above 75% finished in below-average time is
// Strong, above 75% otherwise needs attention, anything else is Weak.
func Classify(marks float64, timeCategory string) Performance {
	if marks/MaxMarks*100 <= StrongPercentage {
		return PerformanceWeak
	}
	if strings.Contains(strings.ToLower(timeCategory), "below") {
		return PerformanceStrong
	}
	return PerformanceNeedAttention
}

// Topic is one scored topic of a subject.
type Topic struct {
	Name             string      `json:"name"`
	TimeCategory     string      `json:"time_category"`
	Marks            float64     `json:"marks"`
	ScorePercentage  float64     `json:"score_percentage"`
	Color            string      `json:"color"`
	PerformanceClass string      `json:"performance_class"`
	Performance      Performance `json:"performance_text"`
	// Rank is the competition rank within the class, 0 when unranked.
	Rank int `json:"rank"`
}

// SubjectReport holds a subject's topics and summary counts.
type SubjectReport struct {
	Topics          []Topic `json:"topics"`
	TotalTopics     int     `json:"total_topics"`
	ExcellentTopics int     `json:"excellent_topics"`
	GrowthTopics    int     `json:"growth_topics"`
}

// Analysis is the overall verdict across subjects.
type Analysis struct {
	StrongCount         int     `json:"strong_count"`
	NeedAttentionCount  int     `json:"need_attention_count"`
	WeakCount           int     `json:"weak_count"`
	OverallPerformance  string  `json:"overall_performance"`
	OverallColor        string  `json:"overall_color"`
	StrongTopics        []Topic `json:"strong_topics"`
	NeedAttentionTopics []Topic `json:"need_attention_topics"`
	WeakTopics          []Topic `json:"weak_topics"`
}

// Report is a student's progress report.
type Report struct {
	Class      string                   `json:"Class"`
	RollNumber string                   `json:"Roll Number"`
	Name       string                   `json:"Name"`
	Subjects   map[string]SubjectReport `json:"subjects"`
	Analysis   Analysis                 `json:"performance_analysis"`
}

// SubjectNames returns the subjects in sorted order.
func (r *Report) SubjectNames() []string {
	names := make([]string, 0, len(r.Subjects))
	for name := range r.Subjects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ProgressSeries converts each subject into a chart series of topic marks.
func (r *Report) ProgressSeries() chart.SeriesMap {
	series := make(chart.SeriesMap, len(r.Subjects))
	for name, sub := range r.Subjects {
		s := chart.Series{
			Labels: make([]string, len(sub.Topics)),
			Values: make([]float64, len(sub.Topics)),
		}
		for i, t := range sub.Topics {
			s.Labels[i] = t.Name
			s.Values[i] = t.Marks
		}
		series[name] = s
	}
	return series
}

// BuildReport assembles the report of roll in class from its sheet. Only
// topics with non-zero numeric marks are included.
func BuildReport(class, roll string, grid [][]string) (*Report, error) {
	if len(grid) < minSheetRows {
		return nil, fmt.Errorf("class %s: %w", class, ErrInsufficientData)
	}

	rep := &Report{
		Class:      class,
		RollNumber: roll,
		Subjects:   make(map[string]SubjectReport),
	}
	for _, sec := range SubjectSections(grid) {
		header, ok := sectionHeader(grid, sec)
		if !ok {
			continue
		}
		row, ok := findStudent(grid, header+2, roll)
		if !ok {
			continue
		}
		if rep.Name == "" {
			rep.Name = cell(row, 1)
		}
		ranks := TopicRanks(grid, sec.Start)
		rep.Subjects[sec.Subject] = subjectReport(grid[header], row, ranks, roll)
	}
	if len(rep.Subjects) == 0 {
		return nil, fmt.Errorf("class %s roll %s: %w", class, roll, ErrStudentNotFound)
	}
	rep.Analysis = analyze(rep)
	return rep, nil
}

func findStudent(grid [][]string, dataStart int, roll string) ([]string, bool) {
	var found []string
	sectionRows(grid, dataStart, func(row []string) bool {
		if cell(row, 0) == roll {
			found = row
			return false
		}
		return true
	})
	return found, found != nil
}

func subjectReport(header, row []string, ranks map[string]map[string]int, roll string) SubjectReport {
	sub := SubjectReport{Topics: []Topic{}}
	for _, tc := range topicColumns(header) {
		marks, ok := parseMarks(cell(row, tc.col+1))
		if !ok || marks == 0 {
			continue
		}
		timeVal := cell(row, tc.col)
		perf := Classify(marks, timeVal)
		if timeVal == "" {
			timeVal = notAvailable
		}
		sub.Topics = append(sub.Topics, Topic{
			Name:             tc.name,
			TimeCategory:     timeVal,
			Marks:            marks,
			ScorePercentage:  marks / MaxMarks * 100,
			Color:            perf.Color(),
			PerformanceClass: perf.CSSClass(),
			Performance:      perf,
			Rank:             ranks[tc.name][roll],
		})
		if marks >= ExcellentMarks {
			sub.ExcellentTopics++
		} else {
			sub.GrowthTopics++
		}
	}
	sub.TotalTopics = len(sub.Topics)
	return sub
}

func analyze(r *Report) Analysis {
	a := Analysis{
		StrongTopics:        []Topic{},
		NeedAttentionTopics: []Topic{},
		WeakTopics:          []Topic{},
	}
	for _, name := range r.SubjectNames() {
		for _, t := range r.Subjects[name].Topics {
			switch t.Performance {
			case PerformanceStrong:
				a.StrongTopics = append(a.StrongTopics, t)
			case PerformanceNeedAttention:
				a.NeedAttentionTopics = append(a.NeedAttentionTopics, t)
			default:
				a.WeakTopics = append(a.WeakTopics, t)
			}
		}
	}
	a.StrongCount = len(a.StrongTopics)
	a.NeedAttentionCount = len(a.NeedAttentionTopics)
	a.WeakCount = len(a.WeakTopics)

	switch {
	case a.StrongCount > a.NeedAttentionCount && a.StrongCount > a.WeakCount:
		a.OverallPerformance, a.OverallColor = "Good Going", "green"
	case a.NeedAttentionCount > a.StrongCount && a.NeedAttentionCount > a.WeakCount:
		a.OverallPerformance, a.OverallColor = "Need Attention", "yellow"
	case a.WeakCount > 0:
		a.OverallPerformance, a.OverallColor = "Need Immediate Attention", "red"
	default:
		a.OverallPerformance, a.OverallColor = "Good Going", "green"
	}
	return a
}
