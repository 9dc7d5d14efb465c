// Package agent implements the model-invocation loop of a deep agent:
// assemble a state-aware instruction preamble, call the model, execute the
// tool calls it emits against the shared run state, feed the results back,
// and repeat until the model answers in plain text.
package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/statecraft-ai/deepagents-go/pkg/state"
	"github.com/statecraft-ai/deepagents-go/pkg/tool"
	"github.com/statecraft-ai/deepagents-go/pkg/trace"
)

// DefaultMaxIterations caps model calls per run when Config leaves
// MaxIterations unset.
const DefaultMaxIterations = 20

var (
	ErrMaxIterations = errors.New("agent: max iterations reached")
	ErrNilModel      = errors.New("agent: model is nil")
	ErrNilState      = errors.New("agent: state is nil")
)

// Config declares the collaborators for one Agent.
type Config struct {
	// Model produces assistant turns. Required.
	Model Model

	// State is the shared run state every tool call observes and mutates.
	// Required; pass the same value to cooperating agents.
	State *state.State

	// Registry supplies the tools declared to the model.
	Registry *tool.Registry

	// Instructions is the caller-supplied portion of the system prompt.
	Instructions string

	// AgentID identifies this agent in metadata and traces. Generated when
	// empty.
	AgentID string

	// AgentType is recorded in run metadata. Defaults to "main-agent".
	AgentType string

	// MaxIterations caps model calls per Run. Defaults to
	// DefaultMaxIterations.
	MaxIterations int

	// Tracer records run, model, and tool spans. Defaults to a no-op.
	Tracer *trace.Tracer

	// StaticPrompt sends only the date framing plus Instructions, skipping
	// the base policy block and the live file/todo summaries. Sub-agent
	// prompts use this.
	StaticPrompt bool
}

// Agent drives the loop against one shared state.
type Agent struct {
	model         Model
	state         *state.State
	registry      *tool.Registry
	instructions  string
	id            string
	agentType     string
	maxIterations int
	tracer        *trace.Tracer
	staticPrompt  bool
}

// NewID generates an agent identifier in the agent-<8 hex chars> form.
func NewID() string {
	return "agent-" + uuid.NewString()[:8]
}

// New constructs an Agent from cfg, filling defaults for everything
// optional.
func New(cfg Config) (*Agent, error) {
	if cfg.Model == nil {
		return nil, ErrNilModel
	}
	if cfg.State == nil {
		return nil, ErrNilState
	}
	registry := cfg.Registry
	if registry == nil {
		registry = tool.NewRegistry()
	}
	id := cfg.AgentID
	if id == "" {
		id = NewID()
	}
	agentType := cfg.AgentType
	if agentType == "" {
		agentType = "main-agent"
	}
	maxIterations := cfg.MaxIterations
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = trace.Noop()
	}
	return &Agent{
		model:         cfg.Model,
		state:         cfg.State,
		registry:      registry,
		instructions:  cfg.Instructions,
		id:            id,
		agentType:     agentType,
		maxIterations: maxIterations,
		tracer:        tracer,
		staticPrompt:  cfg.StaticPrompt,
	}, nil
}

// ID returns the agent identifier.
func (a *Agent) ID() string { return a.id }

// State returns the shared run state the agent mutates.
func (a *Agent) State() *state.State { return a.state }

// Result is the outcome of a completed run.
type Result struct {
	// Output is the final assistant text.
	Output string

	// Iterations counts model calls made.
	Iterations int

	// Messages is the full conversation including tool results.
	Messages []Message
}

// Run executes the loop until the model stops requesting tools. Model
// failures propagate to the caller; tool failures are rendered into the
// conversation as error text and the run continues. Hitting the iteration
// cap returns the partial result together with ErrMaxIterations.
func (a *Agent) Run(ctx context.Context, input string) (*Result, error) {
	if a == nil {
		return nil, errors.New("agent is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	a.state.SetMetadata("agent_id", a.id)
	a.state.SetMetadata("agent_type", a.agentType)

	ctx, span := a.tracer.StartRunSpan(ctx, a.id, a.agentType)
	var runErr error
	defer func() { a.tracer.End(span, runErr) }()

	msgs := []Message{{Role: RoleUser, Content: input}}
	iterations := 0
	lastContent := ""

	for {
		if err := ctx.Err(); err != nil {
			runErr = err
			return nil, err
		}
		if iterations >= a.maxIterations {
			runErr = ErrMaxIterations
			return &Result{Output: lastContent, Iterations: iterations, Messages: msgs}, ErrMaxIterations
		}

		c := &Context{
			System:   a.systemPrompt(time.Now()),
			Messages: msgs,
			Tools:    a.registry.List(),
		}

		mctx, mspan := a.tracer.StartModelSpan(ctx)
		out, err := a.model.Generate(mctx, c)
		a.tracer.End(mspan, err)
		if err != nil {
			runErr = err
			return nil, err
		}
		if out == nil {
			runErr = errors.New("agent: model returned nil output")
			return nil, runErr
		}
		iterations++
		lastContent = out.Content

		msgs = append(msgs, Message{Role: RoleAssistant, Content: out.Content, ToolCalls: out.ToolCalls})

		if len(out.ToolCalls) == 0 {
			return &Result{Output: out.Content, Iterations: iterations, Messages: msgs}, nil
		}

		for _, call := range out.ToolCalls {
			msgs = append(msgs, a.executeToolCall(ctx, call))
		}
	}
}

// executeToolCall runs one tool call and renders its outcome as a tool
// message. Failures become "Error: ..." text the model can react to.
func (a *Agent) executeToolCall(ctx context.Context, call ToolCall) Message {
	tctx, span := a.tracer.StartToolSpan(ctx, call.Name)
	res, err := a.registry.Execute(tctx, call.Name, call.Input)
	a.tracer.End(span, err)

	output := ""
	switch {
	case err != nil:
		output = fmt.Sprintf("Error: %s", err)
	case res != nil:
		output = res.Output
	}
	return Message{Role: RoleTool, Content: output, ToolID: call.ID, ToolName: call.Name}
}

// AsyncResult carries the outcome of a RunAsync invocation.
type AsyncResult struct {
	Result *Result
	Err    error
}

// RunAsync runs the agent on its own goroutine. The returned channel is
// buffered and receives exactly one value before closing.
func (a *Agent) RunAsync(ctx context.Context, input string) <-chan AsyncResult {
	ch := make(chan AsyncResult, 1)
	go func() {
		defer close(ch)
		res, err := a.Run(ctx, input)
		ch <- AsyncResult{Result: res, Err: err}
	}()
	return ch
}
