package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/Tiliavir/trivial-timecard/internal/api"
	"github.com/Tiliavir/trivial-timecard/internal/config"
	"github.com/Tiliavir/trivial-timecard/internal/model"
	"github.com/Tiliavir/trivial-timecard/internal/storage"
	"github.com/Tiliavir/trivial-timecard/internal/timecard"
)

// session bundles the collaborators of the timecard commands.
type session struct {
	cfg    config.Config
	client *api.Client
	store  *storage.FileStore
	ctrl   *timecard.Controller
}

// openSession loads the configuration and the client store and wires the
// controller to the backend. It exits on failure.
func openSession(ctx context.Context) *session {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	base, err := storage.BaseDir()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	store, err := storage.Open(base)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	client := newClient(ctx, cfg)
	ctrl := timecard.New(timecard.Options{
		Backend:     client,
		Store:       store,
		Debounce:    cfg.Debounce(),
		Concurrency: cfg.Concurrency,
		Notify:      printNotice,
	})
	return &session{cfg: cfg, client: client, store: store, ctrl: ctrl}
}

func (s *session) Close() {
	s.ctrl.Close()
}

func newClient(ctx context.Context, cfg config.Config) *api.Client {
	return api.NewClient(ctx, api.Options{
		BaseURL:    cfg.APIURL,
		EmployeeID: cfg.EmployeeID,
		Token:      cfg.APIToken,
		Timeout:    cfg.RequestTimeout(),
	})
}

// printNotice reports controller notices on stderr. Successful submission is
// reported by the submit command itself.
func printNotice(n timecard.Notice) {
	if n.Kind == timecard.NoticeSubmitted {
		return
	}
	fmt.Fprintf(os.Stderr, "Warning: %s\n", n)
}

// loadPeriod loads the active period. Without one it tells the user how to
// start one and exits. A degraded period is returned with a warning.
func loadPeriod(ctx context.Context, s *session) model.Period {
	p, err := s.ctrl.Load(ctx)
	return checkPeriod(s, p, err)
}

func checkPeriod(s *session, p model.Period, err error) model.Period {
	switch {
	case err == nil:
		return p
	case errors.Is(err, timecard.ErrNoActivePeriod):
		fmt.Fprintln(os.Stderr, "No active timecard period. Run `ttc new [date]` to start one.")
		s.Close()
		os.Exit(1)
	case p.Degraded:
		fmt.Fprintf(os.Stderr, "Warning: %v\nShowing an empty period; nothing was saved.\n", err)
		return p
	default:
		fmt.Fprintln(os.Stderr, err)
		s.Close()
		os.Exit(2)
	}
	return p
}
