// =============================================================================
// Tangerine Label Generator - Run Orchestration
// =============================================================================
//
// This module drives one fetch -> render -> commit run against an order
// source. The run is a small state machine:
//
//   Idle -> Fetching -> Rendering -> Committing -> Done
//                 \         \             \
//                  +---------+-------------+--> Failed
//
// A fetch that returns no rows short-circuits to Done after printing the
// no-new-orders message. Errors during Fetching or Rendering fail the run
// WITHOUT committing, so unconfirmed rows are retried wholesale on the next
// run; rendering is side-effect free and safe to repeat. An error during
// Committing also fails the run, but by then the report has already been
// printed, so the operator keeps the labels even though the checkpoint may be
// inconsistently applied.
//
// =============================================================================

package pipeline

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/jejufarm/tangerine-labels/internal/label"
	"github.com/jejufarm/tangerine-labels/internal/source"
)

// =============================================================================
// STATES
// =============================================================================

// State identifies a phase of the run state machine.
type State string

const (
	StateIdle       State = "idle"
	StateFetching   State = "fetching"
	StateRendering  State = "rendering"
	StateCommitting State = "committing"
	StateDone       State = "done"
	StateFailed     State = "failed"
)

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result is the outcome of one run.
type Result struct {
	// RunID identifies the run in logs.
	RunID string

	// State is the final state, StateDone or StateFailed.
	State State

	// Rows is the number of new order rows fetched.
	Rows int

	// Printed indicates whether the label report reached the output writer.
	// It can be true even for a failed run when only the commit failed.
	Printed bool

	// Err is the failure, nil when State is StateDone.
	Err error
}

// =============================================================================
// PIPELINE STRUCTURE
// =============================================================================

// Pipeline composes an order source and a renderer into one run.
type Pipeline struct {
	src      source.Source
	renderer *label.Renderer
	out      io.Writer
	logger   *slog.Logger

	state State
}

// New creates a Pipeline writing the label report to out.
func New(src source.Source, renderer *label.Renderer, out io.Writer, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		src:      src,
		renderer: renderer,
		out:      out,
		logger:   logger,
		state:    StateIdle,
	}
}

// State returns the current state of the pipeline.
func (p *Pipeline) State() State { return p.state }

// =============================================================================
// RUN
// =============================================================================

// Run executes one fetch -> render -> commit pass.
func (p *Pipeline) Run() Result {
	result := Result{RunID: uuid.NewString()}
	logger := p.logger.With("run_id", result.RunID)

	// =========================================================================
	// FETCH
	// =========================================================================

	p.transition(logger, StateFetching)
	rows, err := p.src.FetchNew()
	if err != nil {
		return p.fail(logger, &result, fmt.Errorf("fetch new orders: %w", err))
	}
	result.Rows = len(rows)
	logger.Info("fetched new orders", "rows", len(rows))

	if len(rows) == 0 {
		// Not an error: print the message and finish without committing.
		fmt.Fprintln(p.out, label.EmptyBatchMessage)
		result.Printed = true
		p.transition(logger, StateDone)
		result.State = StateDone
		return result
	}

	// =========================================================================
	// RENDER
	// =========================================================================

	p.transition(logger, StateRendering)
	report := p.renderer.Render(rows)
	if _, err := io.WriteString(p.out, report); err != nil {
		return p.fail(logger, &result, fmt.Errorf("write label report: %w", err))
	}
	result.Printed = true

	// =========================================================================
	// COMMIT
	// =========================================================================
	// Only after the report went out: a failure before this point leaves every
	// row unconfirmed so nothing is silently lost.

	p.transition(logger, StateCommitting)
	if err := p.src.CommitConfirmed(); err != nil {
		return p.fail(logger, &result, fmt.Errorf("confirm orders: %w", err))
	}

	p.transition(logger, StateDone)
	result.State = StateDone
	return result
}

// transition advances the state machine, logging the edge.
func (p *Pipeline) transition(logger *slog.Logger, next State) {
	logger.Debug("state transition", "from", string(p.state), "to", string(next))
	p.state = next
}

// fail moves to StateFailed and fills in the result.
func (p *Pipeline) fail(logger *slog.Logger, result *Result, err error) Result {
	logger.Error("run failed", "state", string(p.state), "error", err)
	p.transition(logger, StateFailed)
	result.State = StateFailed
	result.Err = err
	return *result
}
