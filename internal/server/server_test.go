package server_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/Tiliavir/trivial-timecard/internal/api"
	"github.com/Tiliavir/trivial-timecard/internal/database"
	"github.com/Tiliavir/trivial-timecard/internal/model"
	"github.com/Tiliavir/trivial-timecard/internal/server"
	"github.com/Tiliavir/trivial-timecard/internal/storage"
	"github.com/Tiliavir/trivial-timecard/internal/timecard"
)

type ServerTestSuite struct {
	suite.Suite
	db  *sql.DB
	srv *httptest.Server
}

func (s *ServerTestSuite) SetupTest() {
	db, err := database.Open(filepath.Join(s.T().TempDir(), "backend.db"))
	s.Require().NoError(err)
	s.db = db
	s.srv = httptest.NewServer(server.New(server.NewRepository(db)))
}

func (s *ServerTestSuite) TearDownTest() {
	s.srv.Close()
	s.db.Close()
}

func (s *ServerTestSuite) do(method, path string, body any) (int, map[string]any) {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, s.srv.URL+path, reader)
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.srv.Client().Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	var out map[string]any
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func (s *ServerTestSuite) create(body map[string]any) map[string]any {
	status, out := s.do(http.MethodPost, "/api/timecards", body)
	s.Require().Equal(http.StatusCreated, status, out)
	return out["data"].(map[string]any)
}

func (s *ServerTestSuite) TestHealth() {
	status, out := s.do(http.MethodGet, "/health", nil)
	s.Equal(http.StatusOK, status)
	s.Equal("healthy", out["status"])
}

func (s *ServerTestSuite) TestCreateComputesTotal() {
	data := s.create(map[string]any{
		"employee_id": 1,
		"work_date":   "2026-10-12",
		"start_time":  "09:00",
		"lunch_start": "12:00",
		"lunch_end":   "13:00",
		"end_time":    "17:00",
		"total_time":  map[string]int{"hours": 99, "minutes": 0},
		"status":      "active",
	})

	s.NotZero(data["id"])
	s.Equal("2026-10-12", data["work_date"])
	s.Equal(map[string]any{"hours": float64(7), "minutes": float64(0)}, data["total_time"])
	s.Equal("active", data["status"])
}

func (s *ServerTestSuite) TestCreateValidation() {
	cases := []map[string]any{
		{"work_date": "2026-10-12"},
		{"employee_id": 1},
		{"employee_id": 1, "work_date": "2026-10-12", "start_time": "9am"},
		{"employee_id": 1, "work_date": "2026-10-12", "status": "done"},
	}
	for _, body := range cases {
		status, out := s.do(http.MethodPost, "/api/timecards", body)
		s.Equal(http.StatusBadRequest, status, body)
		s.NotEmpty(out["error"])
	}
}

func (s *ServerTestSuite) TestRangeAndList() {
	for _, d := range []string{"2026-10-09", "2026-10-12", "2026-10-23", "2026-10-26"} {
		s.create(map[string]any{"employee_id": 1, "work_date": d})
	}
	s.create(map[string]any{"employee_id": 2, "work_date": "2026-10-13"})

	status, out := s.do(http.MethodGet, "/api/timecards/employee/1/range/2026-10-12/2026-10-25", nil)
	s.Require().Equal(http.StatusOK, status)
	data := out["data"].([]any)
	s.Require().Len(data, 2)
	s.Equal("2026-10-12", data[0].(map[string]any)["work_date"])
	s.Equal("2026-10-23", data[1].(map[string]any)["work_date"])

	status, out = s.do(http.MethodGet, "/api/timecards/employee/1", nil)
	s.Require().Equal(http.StatusOK, status)
	s.Len(out["data"], 4)

	status, _ = s.do(http.MethodGet, "/api/timecards/employee/1/range/2026-10-25/2026-10-12", nil)
	s.Equal(http.StatusBadRequest, status)
}

func (s *ServerTestSuite) TestPartialUpdate() {
	created := s.create(map[string]any{
		"employee_id": 1,
		"work_date":   "2026-10-14",
		"start_time":  "08:00",
		"end_time":    "16:00",
	})
	id := int(created["id"].(float64))
	path := "/api/timecards/" + strconv.Itoa(id)

	status, out := s.do(http.MethodPut, path, map[string]any{"end_time": "17:30"})
	s.Require().Equal(http.StatusOK, status, out)
	data := out["data"].(map[string]any)
	s.Equal("08:00", data["start_time"])
	s.Equal("17:30", data["end_time"])
	s.Equal(map[string]any{"hours": float64(9), "minutes": float64(30)}, data["total_time"])

	status, out = s.do(http.MethodPut, path, map[string]any{"start_time": nil, "status": "submitted"})
	s.Require().Equal(http.StatusOK, status, out)
	data = out["data"].(map[string]any)
	s.Nil(data["start_time"])
	s.Equal("submitted", data["status"])
	s.Equal(map[string]any{"hours": float64(0), "minutes": float64(0)}, data["total_time"])
}

func (s *ServerTestSuite) TestUpdateErrors() {
	status, _ := s.do(http.MethodPut, "/api/timecards/4242", map[string]any{"status": "active"})
	s.Equal(http.StatusNotFound, status)

	created := s.create(map[string]any{"employee_id": 1, "work_date": "2026-10-14"})
	path := "/api/timecards/" + strconv.Itoa(int(created["id"].(float64)))
	status, _ = s.do(http.MethodPut, path, map[string]any{"lunch_end": "25:00"})
	s.Equal(http.StatusBadRequest, status)
}

// TestControllerRoundTrip drives the timecard controller through the HTTP
// client against the backend.
func (s *ServerTestSuite) TestControllerRoundTrip() {
	ctx := context.Background()
	client := api.NewClient(ctx, api.Options{
		BaseURL:    s.srv.URL + "/api",
		EmployeeID: 7,
		HTTPClient: s.srv.Client(),
	})
	store := storage.NewMemory()
	ctrl := timecard.New(timecard.Options{Backend: client, Store: store, Debounce: 10 * time.Millisecond})
	defer ctrl.Close()

	p, err := ctrl.Begin(ctx, time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC))
	s.Require().NoError(err)
	s.Require().Len(p.Entries, 10)
	s.Empty(timecard.MissingDates(p.Entries))

	_, err = ctrl.Edit("2026-10-12", model.FieldStartTime, model.MustClock("09:00"))
	s.Require().NoError(err)
	_, err = ctrl.Edit("2026-10-12", model.FieldEndTime, model.MustClock("17:00"))
	s.Require().NoError(err)
	s.Require().NoError(ctrl.Flush(ctx))

	_, err = ctrl.Submit(ctx, timecard.SubmitOptions{})
	s.Require().NoError(err)

	// A fresh load sees the backend's view.
	s.Require().NoError(store.Set(storage.KeyStartDate, "2026-10-12"))
	fresh := timecard.New(timecard.Options{Backend: client, Store: store})
	defer fresh.Close()
	reloaded, err := fresh.Load(ctx)
	s.Require().NoError(err)
	s.True(reloaded.IsSubmitted())
	s.Equal("8h 0m", reloaded.Entries[0].TotalTime.String())
	s.Equal("09:00", reloaded.Entries[0].StartTime.String())

	entries, err := client.FetchAll(ctx)
	s.Require().NoError(err)
	s.Len(entries, 10, "reload must not create duplicates")
}

func TestServerTestSuite(t *testing.T) {
	suite.Run(t, new(ServerTestSuite))
}
