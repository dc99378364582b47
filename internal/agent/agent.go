package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/qmuntal/stateless" // FSM library

	"github.com/comigor/llm-smoke/internal/config"
	"github.com/comigor/llm-smoke/internal/llm"
	"github.com/comigor/llm-smoke/internal/logger"
	"github.com/comigor/llm-smoke/internal/mock"
	"github.com/comigor/llm-smoke/internal/state"
)

// FSM States
type FSMState string

const (
	StateStart   FSMState = "Start"
	StateInit    FSMState = "Init"
	StateLLMCall FSMState = "LLMCall"
	StateDone    FSMState = "Done"  // Terminal: successful completion
	StateError   FSMState = "Error" // Terminal: a node failed
)

// FSM Triggers
type FSMTrigger string

const (
	TriggerNext   FSMTrigger = "Next"
	TriggerFailed FSMTrigger = "Failed"
)

// BootstrapPrompt is sent when the LLM node receives an empty history.
const BootstrapPrompt = config.DefaultPrompt

// Node transforms the run state. A returned error moves the run to StateError.
type Node func(ctx context.Context, s *state.AgentState) (*state.AgentState, error)

// Step binds a node to the FSM state it runs in.
type Step struct {
	State FSMState
	Node  Node
}

// Agent runs a fixed, linear sequence of steps: Start -> steps... -> Done.
type Agent struct {
	steps []Step
}

// Option customises New.
type Option func(*Agent)

// WithMockData prepends the Init step, which fills the state's test and file records.
func WithMockData(cfg config.MockConfig) Option {
	return func(a *Agent) {
		a.steps = append([]Step{{State: StateInit, Node: InitNode(cfg)}}, a.steps...)
	}
}

// New creates the agent workflow: [Init ->] LLMCall.
func New(provider llm.Provider, opts ...Option) *Agent {
	a := &Agent{steps: []Step{{State: StateLLMCall, Node: LLMCallNode(provider)}}}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// NewWithSteps creates an agent from explicit steps, run in order.
func NewWithSteps(steps ...Step) *Agent {
	return &Agent{steps: append([]Step(nil), steps...)}
}

// States returns the workflow's node states in execution order.
func (a *Agent) States() []FSMState {
	out := make([]FSMState, 0, len(a.steps))
	for _, s := range a.steps {
		out = append(out, s.State)
	}
	return out
}

// Process runs every step once against s and returns the final state.
// The state machine is built per call, so s is owned by this run alone.
func (a *Agent) Process(ctx context.Context, s *state.AgentState) (*state.AgentState, error) {
	// FSM context data
	type fsmContext struct {
		state     *state.AgentState
		lastError error
	}
	fsmCtx := &fsmContext{state: s}

	// Queued firing: triggers fired from OnEntry run after the current transition completes.
	fsm := stateless.NewStateMachineWithMode(StateStart, stateless.FiringQueued)
	fsm.OnTransitioned(func(_ context.Context, t stateless.Transition) {
		logger.L.Debug("workflow transition", "run_id", s.RunID, "from", t.Source, "to", t.Destination, "trigger", t.Trigger)
	})

	first := StateDone
	if len(a.steps) > 0 {
		first = a.steps[0].State
	}
	fsm.Configure(StateStart).Permit(TriggerNext, first)

	for i, step := range a.steps {
		step := step
		next := StateDone
		if i+1 < len(a.steps) {
			next = a.steps[i+1].State
		}
		fsm.Configure(step.State).
			OnEntry(func(ctx context.Context, _ ...any) error {
				out, err := step.Node(ctx, fsmCtx.state)
				if out != nil {
					fsmCtx.state = out
				}
				if err != nil {
					logger.L.Error("workflow node failed", "run_id", s.RunID, "node", step.State, "error", err)
					fsmCtx.lastError = fmt.Errorf("%s node: %w", step.State, err)
					return fsm.FireCtx(ctx, TriggerFailed)
				}
				return fsm.FireCtx(ctx, TriggerNext)
			}).
			Permit(TriggerNext, next).
			Permit(TriggerFailed, StateError)
	}

	// Terminal states
	fsm.Configure(StateDone)
	fsm.Configure(StateError)

	if err := fsm.FireCtx(ctx, TriggerNext); err != nil {
		return fsmCtx.state, fmt.Errorf("workflow: %w", err)
	}

	currentState, err := fsm.State(ctx)
	if err != nil {
		return fsmCtx.state, fmt.Errorf("workflow: %w", err)
	}
	switch currentState {
	case StateDone:
		return fsmCtx.state, nil
	case StateError:
		if fsmCtx.lastError != nil {
			return fsmCtx.state, fsmCtx.lastError
		}
		return fsmCtx.state, errors.New("workflow ended in StateError without a specific error")
	default:
		return fsmCtx.state, fmt.Errorf("workflow ended in an unexpected state: %v", currentState)
	}
}

// InitNode fills the test and file records from mock data. It never fails.
func InitNode(cfg config.MockConfig) Node {
	return func(_ context.Context, s *state.AgentState) (*state.AgentState, error) {
		test := mock.LoadTestInfo(cfg)
		file := mock.LoadFileInfo(cfg)
		s.Test = &test
		s.File = &file
		return s, nil
	}
}

// LLMCallNode sends the history to provider, appends the reply and copies it into Output.
// An empty history is bootstrapped with one human message first.
func LLMCallNode(provider llm.Provider) Node {
	return func(ctx context.Context, s *state.AgentState) (*state.AgentState, error) {
		if len(s.Messages) == 0 {
			s.AddMessage(state.Human(BootstrapPrompt))
		}

		reply, err := provider.Call(ctx, s.History())
		if err != nil {
			var callErr *llm.CallError
			if !errors.As(err, &callErr) {
				err = &llm.CallError{Provider: provider.Name(), Err: err}
			}
			return s, err
		}

		s.AddMessage(state.AI(reply.Content))
		s.Output = reply.Content
		return s, nil
	}
}
