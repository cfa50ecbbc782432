package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/okian/reportcard/internal/adapters/http/api"
	"github.com/okian/reportcard/internal/adapters/sheets"
	service "github.com/okian/reportcard/internal/app"
	"github.com/okian/reportcard/internal/domain/report"
	. "github.com/smartystreets/goconvey/convey"
)

type chartCall struct {
	class, roll, subject string
	width, height        int
}

type fakeDeps struct {
	refreshErr error
	refreshed  []string
	charts     []chartCall
}

func (f *fakeDeps) Classes(context.Context) []string { return []string{"1B", "5A"} }

func (f *fakeDeps) Students(_ context.Context, class string) ([]report.Student, error) {
	if class != "5A" {
		return nil, fmt.Errorf("class %s: %w", class, sheets.ErrUnknownClass)
	}
	return []report.Student{{RollNumber: "1", Name: "Ali"}, {RollNumber: "2", Name: "Bea"}}, nil
}

func (f *fakeDeps) Report(_ context.Context, class, roll string) (*report.Report, error) {
	switch {
	case class == "9Z":
		return nil, fmt.Errorf("fetch: %w", sheets.ErrUpstreamStatus)
	case class != "5A":
		return nil, fmt.Errorf("class %s: %w", class, sheets.ErrUnknownClass)
	case roll != "1":
		return nil, fmt.Errorf("roll %s: %w", roll, report.ErrStudentNotFound)
	}
	perf := report.Classify(10, "Below Avg")
	return &report.Report{
		Class:      class,
		RollNumber: roll,
		Name:       "Ali",
		Subjects: map[string]report.SubjectReport{
			"Maths": {
				Topics: []report.Topic{{
					Name: "Fractions", TimeCategory: "Below Avg", Marks: 10,
					ScorePercentage: 10.0 / 12 * 100, Color: perf.Color(),
					PerformanceClass: perf.CSSClass(), Performance: perf, Rank: 1,
				}},
				TotalTopics:     1,
				ExcellentTopics: 1,
			},
		},
		Analysis: report.Analysis{StrongCount: 1, OverallPerformance: "Good Going", OverallColor: "green"},
	}, nil
}

func (f *fakeDeps) ChartPNG(_ context.Context, class, roll, subject string, width, height int) ([]byte, error) {
	f.charts = append(f.charts, chartCall{class, roll, subject, width, height})
	if subject != "Maths" {
		return nil, fmt.Errorf("subject %s: %w", subject, service.ErrSubjectNotFound)
	}
	return []byte("\x89PNG fake"), nil
}

func (f *fakeDeps) ChartSize() (int, int) { return 800, 400 }

func (f *fakeDeps) RequestRefresh(_ context.Context, class string) error {
	if f.refreshErr != nil {
		return f.refreshErr
	}
	f.refreshed = append(f.refreshed, class)
	return nil
}

type fakeStats struct{}

func (fakeStats) GetStats() map[string]interface{} {
	return map[string]interface{}{"workerCount": 2}
}

func newHandler(deps *fakeDeps) http.Handler {
	srv := api.NewServer(deps, fakeStats{}, nil)
	mux := http.NewServeMux()
	srv.Register(context.Background(), mux)
	return srv.Handler(mux)
}

func do(h http.Handler, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func decode(rec *httptest.ResponseRecorder) map[string]interface{} {
	var body map[string]interface{}
	So(json.Unmarshal(rec.Body.Bytes(), &body), ShouldBeNil)
	return body
}

func TestRosterRoutes(t *testing.T) {
	Convey("Given the API server", t, func() {
		h := newHandler(&fakeDeps{})

		Convey("When listing classes", func() {
			rec := do(h, http.MethodGet, "/api/classes")

			Convey("Then the configured classes are returned", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				body := decode(rec)
				So(body["success"], ShouldEqual, true)
				So(body["classes"], ShouldResemble, []interface{}{"1B", "5A"})
			})
		})

		Convey("When listing students of a known class", func() {
			rec := do(h, http.MethodGet, "/api/students/5A")

			Convey("Then each student carries roll number and name", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				students := decode(rec)["students"].([]interface{})
				So(students, ShouldHaveLength, 2)
				first := students[0].(map[string]interface{})
				So(first["Roll Number"], ShouldEqual, "1")
				So(first["Name"], ShouldEqual, "Ali")
			})
		})

		Convey("When listing students of an unknown class", func() {
			rec := do(h, http.MethodGet, "/api/students/7C")

			Convey("Then a 404 error body is returned", func() {
				So(rec.Code, ShouldEqual, http.StatusNotFound)
				body := decode(rec)
				So(body["success"], ShouldEqual, false)
				So(body["code"], ShouldEqual, "not_found")
			})
		})

		Convey("When the method does not match a route", func() {
			rec := do(h, http.MethodPost, "/api/classes")

			Convey("Then the mux rejects it", func() {
				So(rec.Code, ShouldEqual, http.StatusMethodNotAllowed)
			})
		})
	})
}

func TestReportRoutes(t *testing.T) {
	Convey("Given the API server", t, func() {
		h := newHandler(&fakeDeps{})

		Convey("When requesting a student report as JSON", func() {
			rec := do(h, http.MethodGet, "/api/student-report/5A/1")

			Convey("Then the report is wrapped in a success envelope", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				student := decode(rec)["student"].(map[string]interface{})
				So(student["Name"], ShouldEqual, "Ali")
				So(student["Roll Number"], ShouldEqual, "1")
				So(student["subjects"], ShouldContainKey, "Maths")
			})
		})

		Convey("When the student does not exist", func() {
			rec := do(h, http.MethodGet, "/api/student-report/5A/99")

			Convey("Then 404 is returned", func() {
				So(rec.Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When the upstream sheet fails", func() {
			rec := do(h, http.MethodGet, "/api/student-report/9Z/1")

			Convey("Then 502 is returned", func() {
				So(rec.Code, ShouldEqual, http.StatusBadGateway)
				So(decode(rec)["code"], ShouldEqual, "upstream_error")
			})
		})

		Convey("When requesting the report page", func() {
			rec := do(h, http.MethodGet, "/report/5A/1")

			Convey("Then an HTML page embeds one chart per subject", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Header().Get("Content-Type"), ShouldStartWith, "text/html")
				page := rec.Body.String()
				So(page, ShouldContainSubstring, "Ali")
				So(page, ShouldContainSubstring, "Fractions")
				So(page, ShouldContainSubstring, "/charts/5A/1/Maths.png")
				So(page, ShouldContainSubstring, "Good Going")
			})
		})

		Convey("When the report page is for an unknown student", func() {
			rec := do(h, http.MethodGet, "/report/5A/42")

			Convey("Then an error page is rendered with 404", func() {
				So(rec.Code, ShouldEqual, http.StatusNotFound)
				So(rec.Body.String(), ShouldContainSubstring, "No data found for Roll Number 42 in Class 5A")
			})
		})
	})
}

func TestChartRoute(t *testing.T) {
	Convey("Given the API server", t, func() {
		deps := &fakeDeps{}
		h := newHandler(deps)

		Convey("When requesting a chart without a size", func() {
			rec := do(h, http.MethodGet, "/charts/5A/1/Maths.png")

			Convey("Then PNG bytes are served and the default size is requested", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Header().Get("Content-Type"), ShouldEqual, "image/png")
				So(rec.Body.String(), ShouldStartWith, "\x89PNG")
				So(deps.charts, ShouldResemble, []chartCall{{"5A", "1", "Maths", 0, 0}})
			})
		})

		Convey("When the size is out of range", func() {
			rec := do(h, http.MethodGet, "/charts/5A/1/Maths.png?w=10&h=99999")

			Convey("Then it is clamped to the accepted bounds", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(deps.charts[0].width, ShouldEqual, api.MinChartSize)
				So(deps.charts[0].height, ShouldEqual, api.MaxChartSize)
			})
		})

		Convey("When the size is not a number", func() {
			rec := do(h, http.MethodGet, "/charts/5A/1/Maths.png?w=wide")

			Convey("Then 400 is returned without rendering", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
				So(deps.charts, ShouldBeEmpty)
			})
		})

		Convey("When the file has no png extension", func() {
			rec := do(h, http.MethodGet, "/charts/5A/1/Maths.svg")

			Convey("Then 404 is returned", func() {
				So(rec.Code, ShouldEqual, http.StatusNotFound)
				So(deps.charts, ShouldBeEmpty)
			})
		})

		Convey("When the subject is unknown", func() {
			rec := do(h, http.MethodGet, "/charts/5A/1/Art.png")

			Convey("Then 404 is returned", func() {
				So(rec.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestRefreshRoute(t *testing.T) {
	Convey("Given the API server", t, func() {
		deps := &fakeDeps{}
		h := newHandler(deps)

		Convey("When a refresh is accepted", func() {
			rec := do(h, http.MethodPost, "/api/refresh/5A")

			Convey("Then 202 is returned and the class is queued", func() {
				So(rec.Code, ShouldEqual, http.StatusAccepted)
				So(decode(rec)["status"], ShouldEqual, "queued")
				So(deps.refreshed, ShouldResemble, []string{"5A"})
			})
		})

		Convey("When the queue rejects the refresh", func() {
			deps.refreshErr = service.ErrRefreshRejected
			rec := do(h, http.MethodPost, "/api/refresh/5A")

			Convey("Then 429 is returned", func() {
				So(rec.Code, ShouldEqual, http.StatusTooManyRequests)
				So(decode(rec)["code"], ShouldEqual, "backpressure")
			})
		})
	})
}

func TestOperationalRoutes(t *testing.T) {
	Convey("Given the API server", t, func() {
		h := newHandler(&fakeDeps{})

		Convey("When scraping health", func() {
			do(h, http.MethodGet, "/api/classes")
			rec := do(h, http.MethodGet, "/healthz")

			Convey("Then Prometheus metrics are exposed", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Body.String(), ShouldContainSubstring, "reportcard_")
			})
		})

		Convey("When reading stats", func() {
			rec := do(h, http.MethodGet, "/stats")

			Convey("Then the provider's map is encoded", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(decode(rec)["workerCount"], ShouldEqual, 2)
			})
		})
	})
}

func TestRequestIDMiddleware(t *testing.T) {
	Convey("Given a handler behind the request-id middleware", t, func() {
		var seen string
		h := api.RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = api.RequestIDFromContext(r.Context())
			w.WriteHeader(http.StatusNoContent)
		}), nil)

		Convey("When the client sends no id", func() {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

			Convey("Then a uuid is generated and echoed", func() {
				id := rec.Header().Get(api.RequestIDHeader)
				So(id, ShouldHaveLength, 36)
				So(strings.Count(id, "-"), ShouldEqual, 4)
				So(seen, ShouldEqual, id)
			})
		})

		Convey("When the client sends an id", func() {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set(api.RequestIDHeader, "abc-123")
			h.ServeHTTP(rec, req)

			Convey("Then it is kept", func() {
				So(rec.Header().Get(api.RequestIDHeader), ShouldEqual, "abc-123")
				So(seen, ShouldEqual, "abc-123")
			})
		})
	})
}
