package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/briandowns/spinner"

	apperrors "github.com/agbru/fibserve/internal/errors"
)

const (
	// TruncationLimit is the digit threshold from which a result is truncated
	// in standard output to avoid cluttering the terminal.
	TruncationLimit = 100
	// DisplayEdges specifies the number of digits to display at the beginning
	// and end of a truncated number.
	DisplayEdges = 25
	// SpinnerRefreshRate defines the spinner animation interval.
	SpinnerRefreshRate = 200 * time.Millisecond
	// pollInterval is the cadence of result polling in wait mode.
	pollInterval = 250 * time.Millisecond
)

// Spinner is an interface that abstracts the behavior of a terminal spinner,
// decoupling the wait loop from a specific spinner implementation for easier
// testing.
type Spinner interface {
	// Start begins the spinner animation.
	Start()
	// Stop halts the spinner animation.
	Stop()
	// UpdateSuffix sets the text that is displayed after the spinner.
	//
	// Parameters:
	//   - suffix: The text string to display.
	UpdateSuffix(suffix string)
}

// realSpinner adapts spinner.Spinner to the Spinner interface.
type realSpinner struct {
	s *spinner.Spinner
}

// Start begins the spinner animation.
func (rs *realSpinner) Start() {
	rs.s.Start()
}

// Stop halts the spinner animation.
func (rs *realSpinner) Stop() {
	rs.s.Stop()
}

// UpdateSuffix sets the text that is displayed after the spinner.
//
// Parameters:
//   - suffix: The string to display.
func (rs *realSpinner) UpdateSuffix(suffix string) {
	rs.s.Suffix = suffix
}

var newSpinner = func(options ...spinner.Option) Spinner {
	s := spinner.New(spinner.CharSets[11], SpinnerRefreshRate, options...)
	return &realSpinner{s}
}

// SubmitOptions controls a submit-mode run.
type SubmitOptions struct {
	Index       int64
	Wait        bool
	WaitTimeout time.Duration
	Quiet       bool
}

// RunSubmit submits an index to the server and, in wait mode, polls until the
// computed value arrives or the deadline passes.
//
// Parameters:
//   - ctx: Controls the whole run.
//   - client: The API client.
//   - opts: The submission options.
//   - out: Destination for user-facing output.
//   - errWriter: Destination for error messages.
//
// Returns:
//   - int: The process exit code.
func RunSubmit(ctx context.Context, client *Client, opts SubmitOptions, out, errWriter io.Writer) int {
	if err := client.Submit(ctx, opts.Index); err != nil {
		fmt.Fprintf(errWriter, "Error: %v\n", err)
		if apperrors.IsContextError(err) {
			return apperrors.ExitErrorCanceled
		}
		return apperrors.ExitErrorGeneric
	}

	if !opts.Quiet {
		fmt.Fprintf(out, "Accepted fib(%d) for computation.\n", opts.Index)
	}
	if !opts.Wait {
		return apperrors.ExitSuccess
	}

	value, err := waitForValue(ctx, client, opts.Index, opts.WaitTimeout, opts.Quiet)
	if err != nil {
		fmt.Fprintf(errWriter, "Error: %v\n", err)
		if apperrors.IsContextError(err) {
			return apperrors.ExitErrorCanceled
		}
		return apperrors.ExitErrorGeneric
	}

	fmt.Fprintf(out, "fib(%d) = %s\n", opts.Index, FormatValue(value))
	return apperrors.ExitSuccess
}

// waitForValue polls the server until the index is computed. A spinner shows
// progress unless quiet is set.
func waitForValue(ctx context.Context, client *Client, index int64, timeout time.Duration, quiet bool) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var sp Spinner
	if !quiet {
		sp = newSpinner()
		sp.UpdateSuffix(fmt.Sprintf(" waiting for fib(%d)...", index))
		sp.Start()
		defer sp.Stop()
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		value, computed, err := client.Value(ctx, index)
		if err != nil {
			return "", err
		}
		if computed {
			return value, nil
		}

		select {
		case <-ctx.Done():
			if ctx.Err() == context.DeadlineExceeded {
				return "", apperrors.TimeoutError{Operation: fmt.Sprintf("waiting for fib(%d)", index), Limit: timeout}
			}
			return "", ctx.Err()
		case <-ticker.C:
		}
	}
}

// FormatValue renders a decimal value for terminal output, truncating the
// middle of very large numbers.
//
// Parameters:
//   - value: The decimal string to format.
//
// Returns:
//   - string: The formatted value, annotated with its digit count when
//     truncated.
func FormatValue(value string) string {
	if len(value) <= TruncationLimit {
		return value
	}
	return fmt.Sprintf("%s...%s (%d digits)",
		value[:DisplayEdges], value[len(value)-DisplayEdges:], len(value))
}
