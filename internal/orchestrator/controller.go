// Package orchestrator drives a run through the agent pipeline.
//
// The Controller is a driven state machine: Start returns the first Action,
// and each StepResult fed to Handle returns the next one. Run wraps it in a
// loop that performs the invocations and step delays. Tests drive the state
// machine directly with fabricated results.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	ferrors "github.com/fin-foresight/foresight/internal/errors"
	"github.com/fin-foresight/foresight/internal/logging"
	"github.com/fin-foresight/foresight/internal/registry"
	"github.com/fin-foresight/foresight/internal/status"
	"github.com/fin-foresight/foresight/internal/types"
)

// CommunicationFailure is shown for an agent whose request never produced a
// usable response.
const CommunicationFailure = "Failed to communicate with the server"

// Executor runs one agent step against the backend.
type Executor interface {
	// Invoke sends exactly one request for agent. It must not return nil.
	Invoke(ctx context.Context, agent types.AgentID) types.StepResult
}

// Presenter renders the outcome of one agent.
type Presenter interface {
	Present(agent types.AgentID, outcome Outcome)
}

// ProgressView renders run progress from a snapshot.
type ProgressView interface {
	Refresh(snap status.Snapshot)
}

// Outcome is what a Presenter receives for one finished agent.
type Outcome struct {
	Status  types.AgentStatus
	Message string             // Failure text; empty on success
	Result  *types.AgentResult // Payload, possibly partial; nil when none arrived
	Cause   error              // Transport failure, if any
}

// ActionKind tells the caller what to do after a transition.
type ActionKind int

const (
	ActionInvoke ActionKind = iota // Invoke Action.Agent after Action.Delay
	ActionDone                     // Run is terminal
)

// Action is the controller's instruction to its driver.
type Action struct {
	Kind  ActionKind
	Agent types.AgentID
	Delay time.Duration
}

// Option configures a Controller.
type Option func(*Controller)

// WithPresenter sets the result presenter.
func WithPresenter(p Presenter) Option {
	return func(c *Controller) { c.presenter = p }
}

// WithProgressView sets the progress view.
func WithProgressView(v ProgressView) Option {
	return func(c *Controller) { c.view = v }
}

// WithStepDelay sets the pause between a finished step and the next request.
func WithStepDelay(d time.Duration) Option {
	return func(c *Controller) { c.stepDelay = d }
}

// WithCascadeOnError controls whether application and transport errors fail
// the remaining pending agents. An explicit "failed" signal always does.
func WithCascadeOnError(cascade bool) Option {
	return func(c *Controller) { c.cascade = cascade }
}

// WithTracer records every transition.
func WithTracer(t Tracer) Option {
	return func(c *Controller) { c.tracer = t }
}

// Controller owns the status store of one run and decides every transition.
type Controller struct {
	reg       *registry.Registry
	store     *status.Store
	exec      Executor
	presenter Presenter
	view      ProgressView
	tracer    Tracer
	logger    *slog.Logger

	stepDelay time.Duration
	cascade   bool

	// Agent whose request is in flight, or empty.
	current types.AgentID
}

// New creates a Controller. A nil store gets a fresh one for reg.
func New(reg *registry.Registry, store *status.Store, exec Executor, logger *slog.Logger, opts ...Option) *Controller {
	if store == nil {
		store = status.NewStore(reg)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	c := &Controller{
		reg:       reg,
		store:     store,
		exec:      exec,
		logger:    logger,
		stepDelay: time.Second,
		cascade:   true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Snapshot returns the current run state.
func (c *Controller) Snapshot() status.Snapshot {
	return c.store.Snapshot()
}

// Start begins the run. It returns the first agent to invoke, or ActionDone
// for an empty registry.
func (c *Controller) Start() (Action, error) {
	if st := c.store.RunStatus(); st != types.RunStatusIdle {
		return Action{}, ferrors.RunNotIdle(string(st))
	}
	c.store.Initialize()
	c.trace(TraceEntry{Action: TraceActionStart})

	first, ok := c.reg.First()
	if !ok {
		c.logger.Info("no agents registered, run complete")
		return c.finish(types.RunStatusCompleted), nil
	}

	c.mustStore(c.store.SetRunStatus(types.RunStatusRunning))
	c.begin(first)
	c.refresh()
	return Action{Kind: ActionInvoke, Agent: first}, nil
}

// Handle applies the result of the in-flight step.
func (c *Controller) Handle(result types.StepResult) (Action, error) {
	if st := c.store.RunStatus(); st != types.RunStatusRunning || c.current == "" {
		return Action{}, ferrors.InvariantViolation("run", string(st), "step result", "no step in flight")
	}
	agent := c.current
	c.current = ""
	log := logging.WithAgent(c.logger, string(agent))

	switch r := result.(type) {
	case types.Success:
		c.trace(TraceEntry{Action: TraceActionResult, Agent: agent, Result: resultKind(r), Next: r.Next})
		return c.handleSuccess(log, agent, r), nil

	case types.ApplicationError:
		c.trace(TraceEntry{Action: TraceActionResult, Agent: agent, Result: resultKind(r), Error: r.Message})
		log.Warn("agent reported failure", "message", r.Message)
		outcome := Outcome{
			Status:  types.AgentStatusError,
			Message: r.Message,
			Result:  r.Results.For(agent),
		}
		return c.fail(agent, outcome, c.cascade), nil

	case types.TransportError:
		c.trace(TraceEntry{Action: TraceActionResult, Agent: agent, Result: resultKind(r), Error: r.Error()})
		log.Error("agent request failed", "error", r.Cause)
		outcome := Outcome{
			Status:  types.AgentStatusError,
			Message: CommunicationFailure,
			Cause:   r.Cause,
		}
		return c.fail(agent, outcome, c.cascade), nil
	}

	cause := fmt.Errorf("unexpected step result %T", result)
	log.Error("agent request failed", "error", cause)
	return c.fail(agent, Outcome{Status: types.AgentStatusError, Message: CommunicationFailure, Cause: cause}, c.cascade), nil
}

func (c *Controller) handleSuccess(log *slog.Logger, agent types.AgentID, r types.Success) Action {
	res := r.Results.For(agent)

	next := r.Next
	if next == "" {
		if n, ok := c.reg.Next(agent); ok {
			next = types.NextAgent(n)
		} else {
			next = types.NextCompleted
		}
		log.Debug("backend sent no next agent, using registry order", "next", next)
	}

	switch {
	case next == types.NextCompleted:
		c.mustStore(c.store.SetStatus(agent, types.AgentStatusCompleted))
		c.present(agent, Outcome{Status: types.AgentStatusCompleted, Result: res})
		for _, id := range c.pending() {
			log.Warn("backend completed the run before agent ran", "pending_agent", id)
			c.mustStore(c.store.SetStatus(id, types.AgentStatusCompleted))
		}
		log.Info("agent completed", "next", next)
		return c.finish(types.RunStatusCompleted)

	case next == types.NextFailed:
		outcome := Outcome{Status: res.ReportedStatus(), Message: res.ErrorMessage(), Result: res}
		// A run cannot fail without an agent in error.
		if outcome.Status != types.AgentStatusError && len(c.pending()) == 0 {
			outcome.Status = types.AgentStatusError
		}
		if outcome.Status == types.AgentStatusError && outcome.Message == "" {
			outcome.Message = "Analysis pipeline failed"
		}
		log.Warn("backend reported pipeline failure", "message", outcome.Message)
		return c.fail(agent, outcome, true)

	case res.ReportedStatus() == types.AgentStatusError:
		msg := res.ErrorMessage()
		if msg == "" {
			msg = "Analysis pipeline failed"
		}
		log.Warn("agent payload reported error", "next", next, "message", msg)
		return c.fail(agent, Outcome{Status: types.AgentStatusError, Message: msg, Result: res}, true)
	}

	nextID := next.Agent()
	if st, ok := c.store.Status(nextID); !ok || st != types.AgentStatusPending {
		msg := fmt.Sprintf("Backend requested agent %q, which cannot run", nextID)
		log.Error("invalid next agent", "next", nextID, "status", st)
		return c.fail(agent, Outcome{Status: types.AgentStatusError, Message: msg, Result: res}, true)
	}

	c.mustStore(c.store.SetStatus(agent, types.AgentStatusCompleted))
	c.present(agent, Outcome{Status: types.AgentStatusCompleted, Result: res})
	log.Info("agent completed", "next", nextID)

	c.begin(nextID)
	c.refresh()
	return Action{Kind: ActionInvoke, Agent: nextID, Delay: c.stepDelay}
}

// fail records the outcome for agent and ends the run.
func (c *Controller) fail(agent types.AgentID, outcome Outcome, cascade bool) Action {
	c.mustStore(c.store.SetStatus(agent, outcome.Status))
	if outcome.Message != "" {
		c.mustStore(c.store.SetMessage(agent, outcome.Message))
	}
	c.present(agent, outcome)

	if cascade {
		for _, id := range c.pending() {
			c.mustStore(c.store.SetStatus(id, types.AgentStatusError))
			c.mustStore(c.store.SetMessage(id, fmt.Sprintf("Not run: pipeline stopped at %s", agent.Title())))
			c.trace(TraceEntry{Action: TraceActionCascade, Agent: id})
		}
	}
	return c.finish(types.RunStatusFailed)
}

func (c *Controller) finish(st types.RunStatus) Action {
	c.mustStore(c.store.SetRunStatus(st))
	c.trace(TraceEntry{Action: TraceActionComplete, Status: string(st)})
	c.logger.Info("run finished", "status", st)
	c.refresh()
	return Action{Kind: ActionDone}
}

func (c *Controller) begin(agent types.AgentID) {
	c.mustStore(c.store.SetStatus(agent, types.AgentStatusProcessing))
	c.current = agent
	c.trace(TraceEntry{Action: TraceActionInvoke, Agent: agent})
}

func (c *Controller) pending() []types.AgentID {
	var out []types.AgentID
	for _, a := range c.store.Snapshot().Agents {
		if a.Status == types.AgentStatusPending {
			out = append(out, a.ID)
		}
	}
	return out
}

// mustStore logs a rejected store update. Transitions are chosen so that the
// store never rejects them; a rejection is a controller bug, not a run failure.
func (c *Controller) mustStore(err error) {
	if err != nil {
		c.logger.Error("status update rejected", "error", err)
	}
}

func (c *Controller) present(agent types.AgentID, outcome Outcome) {
	if c.presenter == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("presenter panicked", "agent", agent, "panic", r)
		}
	}()
	c.presenter.Present(agent, outcome)
}

func (c *Controller) refresh() {
	if c.view == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("progress view panicked", "panic", r)
		}
	}()
	c.view.Refresh(c.store.Snapshot())
}

func (c *Controller) trace(entry TraceEntry) {
	if c.tracer == nil {
		return
	}
	if err := c.tracer.Log(entry); err != nil {
		c.logger.Warn("trace write failed", "error", err)
	}
}

// Run executes the whole pipeline: one invocation at a time, with the step
// delay between them. Cancelling ctx fails the active agent. The returned
// error is non-nil when the run ends failed.
func (c *Controller) Run(ctx context.Context) (status.Snapshot, error) {
	action, err := c.Start()
	if err != nil {
		return c.store.Snapshot(), err
	}

	for action.Kind == ActionInvoke {
		var result types.StepResult
		if err := sleep(ctx, action.Delay); err != nil {
			result = types.TransportError{Cause: err}
		} else {
			result = c.exec.Invoke(ctx, action.Agent)
		}

		action, err = c.Handle(result)
		if err != nil {
			return c.store.Snapshot(), err
		}
	}

	snap := c.store.Snapshot()
	if snap.RunStatus != types.RunStatusFailed {
		return snap, nil
	}
	return snap, failureError(ctx, snap)
}

// failureError describes the first agent that failed on its own, skipping
// agents failed by cascade.
func failureError(ctx context.Context, snap status.Snapshot) error {
	var failed *status.AgentState
	for i := range snap.Agents {
		a := &snap.Agents[i]
		if a.Status == types.AgentStatusError && a.StartedAt != nil {
			failed = a
			break
		}
	}
	if failed == nil {
		for i := range snap.Agents {
			if snap.Agents[i].Status == types.AgentStatusError {
				failed = &snap.Agents[i]
				break
			}
		}
	}
	if failed == nil {
		return ferrors.AgentFailed("run", "failed")
	}

	err := ferrors.AgentFailed(string(failed.ID), failed.Message)
	if ctxErr := ctx.Err(); ctxErr != nil {
		err = err.WithCause(ctxErr)
	}
	return err
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
