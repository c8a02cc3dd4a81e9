package timecard

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoActivePeriod is returned when no start date has been chosen yet.
	ErrNoActivePeriod = errors.New("no active timecard period")
	// ErrClosed is returned by edits after Close.
	ErrClosed = errors.New("timecard controller closed")
	// ErrUnknownDate is returned for edits to a date outside the period.
	ErrUnknownDate = errors.New("date is not a weekday of the active period")
	// ErrValidationRejected is returned for edits to a submitted entry.
	ErrValidationRejected = errors.New("entry is submitted and can no longer be edited")
	// ErrNetworkFailure wraps every failed backend call.
	ErrNetworkFailure = errors.New("backend request failed")
	// ErrDegraded is returned for edits and submission of a period that was
	// installed without backend data. Load again first.
	ErrDegraded = errors.New("period was loaded without backend data")
	// ErrNothingToSubmit is returned when every open entry was skipped for
	// lacking a backend id.
	ErrNothingToSubmit = errors.New("no saved entries to submit")
	// ErrAlreadySubmitted is returned when a fully submitted period is
	// submitted again.
	ErrAlreadySubmitted = errors.New("timecard period already submitted")
	// ErrConfirmationRequired is returned when some entries have no backend
	// id and the caller has not agreed to skip them.
	ErrConfirmationRequired = errors.New("some entries were never saved; confirm to submit without them")
	// ErrPartialSubmission means some, but not all, entries were submitted.
	ErrPartialSubmission = errors.New("timecard partially submitted")
	// ErrTotalSubmission means no entry could be submitted.
	ErrTotalSubmission = errors.New("timecard submission failed")
)

// SubmissionError lists the dates whose submission failed.
type SubmissionError struct {
	FailedDates []string
	// Total is set when nothing was submitted.
	Total bool
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("%v for %s", e.Unwrap(), strings.Join(e.FailedDates, ", "))
}

func (e *SubmissionError) Unwrap() error {
	if e.Total {
		return ErrTotalSubmission
	}
	return ErrPartialSubmission
}
