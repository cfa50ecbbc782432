package report_test

import (
	"testing"

	"github.com/okian/reportcard/internal/domain/chart"
	"github.com/okian/reportcard/internal/domain/report"
	. "github.com/smartystreets/goconvey/convey"
)

// twoSubjectSheet mirrors a published class sheet with a Maths and a Science block.
func twoSubjectSheet() [][]string {
	return [][]string{
		{"Class", "5A"},
		{"Roll No.", "Name", "Topic 1", "", "Topic 2", "", "Topic 3", ""},
		{"", "", "Time", "Marks", "Time", "Marks", "Time", "Marks"},
		{"2", "Bea", "Below Avg", "11", "Above Avg", "10", "Below Avg", "6"},
		{"1", "Ali", "Below Avg", "10", "Below Avg", "7", "", "0"},
		{"10", "Cem", "Above Avg", "11", "Below Avg", "x", "Below Avg", "10"},
		{"Total", "", "", "", "", "", "", ""},
		{"Class", "5A"},
		{"Roll No.", "Name", "Topic A", "", "Topic B", ""},
		{"", "", "Time", "Marks", "Time", "Marks"},
		{"1", "Ali", "Above Avg", "12", "Below Avg", "5"},
		{"2", "Bea", "Below Avg", "4", "Below Avg", "9.5"},
	}
}

func singleSubjectSheet() [][]string {
	return [][]string{
		{"Progress"},
		{"Roll No.", "Name", "Topic 1", ""},
		{"", "", "Time", "Marks"},
		{"3", "Dan", "Below", "8"},
		{"", ""},
	}
}

func TestSubjectSections(t *testing.T) {
	Convey("Given sheets with different numbers of Class rows", t, func() {
		Convey("Then two blocks are Maths and Science", func() {
			So(report.SubjectSections(twoSubjectSheet()), ShouldResemble, []report.Section{
				{Subject: "Maths", Start: 0},
				{Subject: "Science", Start: 7},
			})
		})

		Convey("Then a single block is Subject", func() {
			So(report.SubjectSections([][]string{{"x"}, {"Class"}}), ShouldResemble, []report.Section{{Subject: "Subject", Start: 1}})
		})

		Convey("Then a sheet without Class rows is one Subject from the top", func() {
			So(report.SubjectSections(singleSubjectSheet()), ShouldResemble, []report.Section{{Subject: "Subject", Start: 0}})
		})
	})
}

func TestStudents(t *testing.T) {
	Convey("Given a two subject sheet", t, func() {
		students := report.Students(twoSubjectSheet())

		Convey("Then the roster comes from the first block sorted by roll number", func() {
			So(students, ShouldResemble, []report.Student{
				{RollNumber: "1", Name: "Ali"},
				{RollNumber: "2", Name: "Bea"},
				{RollNumber: "10", Name: "Cem"},
			})
		})
	})

	Convey("Given a sheet without Class rows", t, func() {
		So(report.Students(singleSubjectSheet()), ShouldResemble, []report.Student{{RollNumber: "3", Name: "Dan"}})
	})

	Convey("Given a sheet with fewer than four rows", t, func() {
		So(report.Students([][]string{{"Class"}, {"Roll No."}, {""}}), ShouldBeEmpty)
	})
}

func TestTopicRanks(t *testing.T) {
	Convey("Given the Maths block", t, func() {
		ranks := report.TopicRanks(twoSubjectSheet(), 0)

		Convey("Then tied marks share a rank and the next rank skips", func() {
			So(ranks["Topic 1"], ShouldResemble, map[string]int{"2": 1, "10": 1, "1": 3})
		})

		Convey("Then non-numeric marks are left out", func() {
			So(ranks["Topic 2"], ShouldResemble, map[string]int{"2": 1, "1": 2})
		})

		Convey("Then zero marks are still ranked", func() {
			So(ranks["Topic 3"], ShouldResemble, map[string]int{"10": 1, "2": 2, "1": 3})
		})

		Convey("Then the Science block is not mixed in", func() {
			So(ranks, ShouldNotContainKey, "Topic A")
		})
	})
}

func TestClassify(t *testing.T) {
	Convey("Given marks around the 75% threshold", t, func() {
		So(report.Classify(9, "Below Avg"), ShouldEqual, report.PerformanceWeak)
		So(report.Classify(9.5, "Below Average"), ShouldEqual, report.PerformanceStrong)
		So(report.Classify(10, "Above Avg"), ShouldEqual, report.PerformanceNeedAttention)
		So(report.Classify(10, ""), ShouldEqual, report.PerformanceNeedAttention)

		Convey("Then every category has a badge", func() {
			So(report.PerformanceStrong.Color(), ShouldEqual, "green")
			So(report.PerformanceNeedAttention.Color(), ShouldEqual, "orange")
			So(report.PerformanceWeak.Color(), ShouldEqual, "red")
			So(report.PerformanceNeedAttention.CSSClass(), ShouldEqual, "bg-warning text-dark")
		})
	})
}

func TestBuildReport(t *testing.T) {
	Convey("Given a two subject sheet", t, func() {
		grid := twoSubjectSheet()

		Convey("When building the report of roll 1", func() {
			rep, err := report.BuildReport("5A", "1", grid)
			So(err, ShouldBeNil)

			Convey("Then identity fields are filled", func() {
				So(rep.Class, ShouldEqual, "5A")
				So(rep.RollNumber, ShouldEqual, "1")
				So(rep.Name, ShouldEqual, "Ali")
				So(rep.SubjectNames(), ShouldResemble, []string{"Maths", "Science"})
			})

			Convey("Then zero marks are dropped and topics are classified", func() {
				maths := rep.Subjects["Maths"]
				So(maths.TotalTopics, ShouldEqual, 2)
				So(maths.ExcellentTopics, ShouldEqual, 1)
				So(maths.GrowthTopics, ShouldEqual, 1)

				t1 := maths.Topics[0]
				So(t1.Name, ShouldEqual, "Topic 1")
				So(t1.Performance, ShouldEqual, report.PerformanceStrong)
				So(t1.ScorePercentage, ShouldAlmostEqual, 83.333, 0.001)
				So(t1.Rank, ShouldEqual, 3)
				So(maths.Topics[1].Performance, ShouldEqual, report.PerformanceWeak)
			})

			Convey("Then the overall verdict flags the weak topics", func() {
				So(rep.Analysis.StrongCount, ShouldEqual, 1)
				So(rep.Analysis.NeedAttentionCount, ShouldEqual, 1)
				So(rep.Analysis.WeakCount, ShouldEqual, 2)
				So(rep.Analysis.OverallPerformance, ShouldEqual, "Need Immediate Attention")
				So(rep.Analysis.OverallColor, ShouldEqual, "red")
			})

			Convey("Then the progress series feed the chart renderer", func() {
				So(rep.ProgressSeries(), ShouldResemble, chart.SeriesMap{
					"Maths":   {Labels: []string{"Topic 1", "Topic 2"}, Values: []float64{10, 7}},
					"Science": {Labels: []string{"Topic A", "Topic B"}, Values: []float64{12, 5}},
				})
			})
		})

		Convey("When the student only appears in the first block", func() {
			rep, err := report.BuildReport("5A", "10", grid)
			So(err, ShouldBeNil)

			Convey("Then only that subject is reported", func() {
				So(rep.SubjectNames(), ShouldResemble, []string{"Maths"})
				So(rep.Subjects["Maths"].Topics[0].TimeCategory, ShouldEqual, "Above Avg")
			})

			Convey("Then a balanced record is still good going", func() {
				So(rep.Analysis.StrongCount, ShouldEqual, 1)
				So(rep.Analysis.NeedAttentionCount, ShouldEqual, 1)
				So(rep.Analysis.OverallPerformance, ShouldEqual, "Good Going")
			})
		})

		Convey("When the roll number is unknown", func() {
			_, err := report.BuildReport("5A", "99", grid)
			So(err, ShouldWrap, report.ErrStudentNotFound)
		})

		Convey("When the sheet is too short", func() {
			_, err := report.BuildReport("5A", "1", grid[:3])
			So(err, ShouldWrap, report.ErrInsufficientData)
		})
	})

	Convey("Given a sheet without Class rows", t, func() {
		rep, err := report.BuildReport("1B", "3", singleSubjectSheet())
		So(err, ShouldBeNil)
		So(rep.SubjectNames(), ShouldResemble, []string{"Subject"})
		So(rep.Subjects["Subject"].Topics[0].Marks, ShouldEqual, 8)
		So(rep.Subjects["Subject"].Topics[0].Rank, ShouldEqual, 1)
	})
}

func TestSortClasses(t *testing.T) {
	Convey("Given unordered class names", t, func() {
		in := []string{"10A", "2B", "1C", "2A", "X"}

		Convey("Then grades sort numerically then by section", func() {
			So(report.SortClasses(in), ShouldResemble, []string{"X", "1C", "2A", "2B", "10A"})
		})

		Convey("Then the input is left untouched", func() {
			report.SortClasses(in)
			So(in[0], ShouldEqual, "10A")
		})
	})
}
