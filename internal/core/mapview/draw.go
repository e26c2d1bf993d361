package mapview

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/samirrijal/smarttrack/internal/core/domain"
	"github.com/samirrijal/smarttrack/internal/core/ports"
	"github.com/samirrijal/smarttrack/internal/pkg/metrics"
)

const (
	// DrawHint is shown while a capture is in progress.
	DrawHint = "Click on the map to draw boundary points. Double-click to finish."
	// NamePrompt asks for the name of a finished shape.
	NamePrompt = "Enter a name for this boundary:"
)

// DrawState is the state of the freehand capture interaction.
type DrawState int

const (
	DrawIdle DrawState = iota
	DrawDrawing
	DrawConfirming
)

func (s DrawState) String() string {
	switch s {
	case DrawIdle:
		return "idle"
	case DrawDrawing:
		return "drawing"
	case DrawConfirming:
		return "confirming"
	default:
		return fmt.Sprintf("DrawState(%d)", int(s))
	}
}

// DrawOutcome is the result of handling one draw event.
type DrawOutcome int

const (
	OutcomeNone DrawOutcome = iota
	OutcomeCommitted
	OutcomeDiscarded
	OutcomeFailed
)

func (o DrawOutcome) String() string {
	switch o {
	case OutcomeNone:
		return "none"
	case OutcomeCommitted:
		return "committed"
	case OutcomeDiscarded:
		return "discarded"
	case OutcomeFailed:
		return "failed"
	default:
		return fmt.Sprintf("DrawOutcome(%d)", int(o))
	}
}

// CommitFunc persists a named shape. vertices are in drawing order.
type CommitFunc func(ctx context.Context, vertices []domain.LatLng, name string) error

// DrawMachine drives capture, naming and commit of a freehand polygon.
// Point accumulation belongs to the surface's native tool; the machine only
// sees start, created and stop. The tool allows one capture at a time.
type DrawMachine struct {
	surface  ports.Surface
	prompter ports.Prompter
	commit   CommitFunc
	logger   *slog.Logger

	state DrawState
}

// NewDrawMachine creates an idle machine.
func NewDrawMachine(surface ports.Surface, prompter ports.Prompter, commit CommitFunc, logger *slog.Logger) *DrawMachine {
	if logger == nil {
		logger = slog.Default()
	}
	return &DrawMachine{surface: surface, prompter: prompter, commit: commit, logger: logger}
}

// State returns the current state.
func (m *DrawMachine) State() DrawState { return m.state }

// Handle applies one native draw event. For ShapeCreated it blocks on the
// name prompt. A failed commit is reported to the user through the surface
// and also returned.
func (m *DrawMachine) Handle(ctx context.Context, ev domain.DrawEvent) (DrawOutcome, error) {
	switch ev.Type {
	case domain.DrawStart:
		if m.state != DrawIdle {
			return OutcomeNone, nil
		}
		m.state = DrawDrawing
		return OutcomeNone, m.surface.SetHint(DrawHint)

	case domain.DrawStop:
		if m.state != DrawDrawing {
			return OutcomeNone, nil
		}
		m.state = DrawIdle
		return OutcomeNone, m.surface.SetHint("")

	case domain.ShapeCreated:
		outcome, err := m.confirm(ctx, ev.Vertices)
		m.state = DrawIdle
		if hintErr := m.surface.SetHint(""); hintErr != nil && err == nil {
			err = hintErr
		}
		metrics.DrawOutcomes.WithLabelValues(outcome.String()).Inc()
		return outcome, err

	default:
		return OutcomeNone, fmt.Errorf("unknown draw event %q", ev.Type)
	}
}

func (m *DrawMachine) confirm(ctx context.Context, vertices []domain.LatLng) (DrawOutcome, error) {
	vertices = slices.Clone(vertices)

	scratch, err := m.surface.AddScratch(domain.ScratchSpec(vertices))
	if err != nil {
		return OutcomeFailed, fmt.Errorf("add scratch shape: %w", err)
	}
	m.state = DrawConfirming

	name, err := m.prompter.Prompt(ctx, NamePrompt)
	if err != nil {
		m.logger.Warn("boundary name prompt failed, discarding shape", "error", err)
		name = ""
	}
	name = strings.TrimSpace(name)

	if name == "" {
		if err := m.surface.RemoveLayer(scratch); err != nil {
			return OutcomeDiscarded, fmt.Errorf("remove scratch shape: %w", err)
		}
		return OutcomeDiscarded, nil
	}

	commitErr := m.commit(ctx, vertices, name)

	// The persisted copy is drawn by the reconciler, so the scratch copy
	// goes either way.
	if err := m.surface.RemoveLayer(scratch); err != nil {
		m.logger.Warn("remove scratch shape", "error", err)
	}

	if commitErr != nil {
		msg := fmt.Sprintf("Could not save boundary %q. Please try again.", name)
		if err := m.surface.Notify("error", msg); err != nil {
			m.logger.Warn("notify save failure", "error", err)
		}
		return OutcomeFailed, fmt.Errorf("commit boundary %q: %w", name, commitErr)
	}
	return OutcomeCommitted, nil
}
