package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Tiliavir/trivial-timecard/internal/api"
	"github.com/Tiliavir/trivial-timecard/internal/model"
	"github.com/Tiliavir/trivial-timecard/internal/timecalc"
)

// Server is the reference timecard REST backend.
type Server struct {
	repo   Repository
	router *chi.Mux
}

// New builds the router. All timecard routes live under /api.
func New(repo Repository) *Server {
	s := &Server{repo: repo}

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/health", s.health)
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.health)
		r.Route("/timecards", func(r chi.Router) {
			r.Post("/", s.create)
			r.Put("/{id}", s.update)
			r.Get("/employee/{employeeId}", s.listByEmployee)
			r.Get("/employee/{employeeId}/range/{start}/{end}", s.listRange)
		})
	})
	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Printf("Shutting down timecard backend on %s", addr)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

type envelope struct {
	Data any `json:"data"`
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "service": "ttc"})
}

func (s *Server) listByEmployee(w http.ResponseWriter, r *http.Request) {
	employeeID, err := strconv.ParseInt(chi.URLParam(r, "employeeId"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid employee id")
		return
	}
	cards, err := s.repo.ListByEmployee(r.Context(), employeeID)
	if err != nil {
		log.Printf("Failed to list timecards for employee %d: %v", employeeID, err)
		writeError(w, http.StatusInternalServerError, "failed to load timecards")
		return
	}
	writeJSON(w, http.StatusOK, envelope{Data: toWire(cards)})
}

func (s *Server) listRange(w http.ResponseWriter, r *http.Request) {
	employeeID, err := strconv.ParseInt(chi.URLParam(r, "employeeId"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid employee id")
		return
	}
	from, err := timecalc.NormalizeDate(chi.URLParam(r, "start"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	to, err := timecalc.NormalizeDate(chi.URLParam(r, "end"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if to < from {
		writeError(w, http.StatusBadRequest, "end date is before start date")
		return
	}
	cards, err := s.repo.ListRange(r.Context(), employeeID, from, to)
	if err != nil {
		log.Printf("Failed to list timecards for employee %d in %s..%s: %v", employeeID, from, to, err)
		writeError(w, http.StatusInternalServerError, "failed to load timecards")
		return
	}
	writeJSON(w, http.StatusOK, envelope{Data: toWire(cards)})
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	var body api.Entry
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if body.EmployeeID <= 0 {
		writeError(w, http.StatusBadRequest, "employee_id is required")
		return
	}
	if strings.TrimSpace(body.WorkDate) == "" {
		writeError(w, http.StatusBadRequest, "work_date is required")
		return
	}
	status, err := parseStatus(body.Status)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	entry, err := body.ToEntry()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	entry.ID = 0
	entry.Status = status
	entry.TotalTime = timecalc.EntryDuration(entry)

	tc := Timecard{TimeEntry: entry, EmployeeID: body.EmployeeID}
	if err := s.repo.Create(r.Context(), &tc); err != nil {
		log.Printf("Failed to create timecard: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to create timecard")
		return
	}
	writeJSON(w, http.StatusCreated, envelope{Data: api.FromEntry(tc.EmployeeID, tc.TimeEntry)})
}

// update applies a partial body: only keys present in the request change.
// A null or empty time clears that field. total_time is always recomputed.
func (s *Server) update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid timecard id")
		return
	}
	var patch map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	tc, err := s.repo.Get(r.Context(), id)
	if errors.Is(err, ErrNotFound) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("timecard %d not found", id))
		return
	}
	if err != nil {
		log.Printf("Failed to load timecard %d: %v", id, err)
		writeError(w, http.StatusInternalServerError, "failed to load timecard")
		return
	}

	if err := applyPatch(&tc, patch); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	tc.TotalTime = timecalc.EntryDuration(tc.TimeEntry)

	if err := s.repo.Update(r.Context(), tc); err != nil {
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("timecard %d not found", id))
			return
		}
		log.Printf("Failed to update timecard %d: %v", id, err)
		writeError(w, http.StatusInternalServerError, "failed to update timecard")
		return
	}
	writeJSON(w, http.StatusOK, envelope{Data: api.FromEntry(tc.EmployeeID, tc.TimeEntry)})
}

var wireFields = map[string]model.Field{
	"start_time":  model.FieldStartTime,
	"lunch_start": model.FieldLunchStart,
	"lunch_end":   model.FieldLunchEnd,
	"end_time":    model.FieldEndTime,
}

func applyPatch(tc *Timecard, patch map[string]json.RawMessage) error {
	for key, raw := range patch {
		switch key {
		case "work_date":
			var s string
			if err := json.Unmarshal(raw, &s); err != nil {
				return fmt.Errorf("work_date: %w", err)
			}
			date, err := timecalc.NormalizeDate(s)
			if err != nil {
				return fmt.Errorf("work_date: %w", err)
			}
			tc.Date = date
		case "employee_id":
			var id int64
			if err := json.Unmarshal(raw, &id); err != nil || id <= 0 {
				return fmt.Errorf("employee_id must be a positive integer")
			}
			tc.EmployeeID = id
		case "status":
			var s string
			if err := json.Unmarshal(raw, &s); err != nil {
				return fmt.Errorf("status: %w", err)
			}
			status, err := parseStatus(s)
			if err != nil {
				return err
			}
			tc.Status = status
		case "start_time", "lunch_start", "lunch_end", "end_time":
			var s *string
			if err := json.Unmarshal(raw, &s); err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			var c *model.Clock
			if s != nil {
				parsed, err := model.ParseOptionalClock(*s)
				if err != nil {
					return fmt.Errorf("%s: %w", key, err)
				}
				c = parsed
			}
			tc.Set(wireFields[key], c)
		}
		// id and total_time are ignored: the id comes from the path and the
		// total is derived.
	}
	return nil
}

func parseStatus(s string) (model.Status, error) {
	switch st := model.Status(strings.ToLower(strings.TrimSpace(s))); st {
	case "":
		return model.StatusUnset, nil
	case model.StatusUnset, model.StatusActive, model.StatusSubmitted:
		return st, nil
	default:
		return "", fmt.Errorf("invalid status %q", s)
	}
}

func toWire(cards []Timecard) []api.Entry {
	out := make([]api.Entry, 0, len(cards))
	for _, tc := range cards {
		out = append(out, api.FromEntry(tc.EmployeeID, tc.TimeEntry))
	}
	return out
}
