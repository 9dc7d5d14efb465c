package subagents

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/statecraft-ai/deepagents-go/pkg/agent"
	"github.com/statecraft-ai/deepagents-go/pkg/state"
	"github.com/statecraft-ai/deepagents-go/pkg/tool"
	toolbuiltin "github.com/statecraft-ai/deepagents-go/pkg/tool/builtin"
	"github.com/statecraft-ai/deepagents-go/pkg/trace"
)

// Config declares the collaborators sub-runtimes are built from.
type Config struct {
	// Model runs every sub-agent. Required.
	Model agent.Model

	// State is the caller's shared run state. Sub-agents receive this very
	// value, never a copy. Required.
	State *state.State

	// Registry is the parent's tool set, without the task tool. Sub-agent
	// definitions select subsets from it by name.
	Registry *tool.Registry

	// Instructions is the parent's instruction text, inherited by the
	// general-purpose sub-agent.
	Instructions string

	// Definitions are the caller-declared sub-agent types. The
	// general-purpose entry is always added in front of them.
	Definitions []Definition

	// ParentID attributes delegation spans to the delegating agent.
	ParentID string

	// MaxIterations caps model calls per sub-run. Zero means the agent
	// default.
	MaxIterations int

	// Tracer records delegation spans. Defaults to a no-op.
	Tracer *trace.Tracer
}

// Manager owns the sub-agent registry and the runtimes built from it. It
// implements the task tool's Dispatcher.
type Manager struct {
	model         agent.Model
	state         *state.State
	registry      *tool.Registry
	instructions  string
	parentID      string
	maxIterations int
	tracer        *trace.Tracer

	mu       sync.Mutex
	order    []string
	defs     map[string]Definition
	runtimes map[string]*agent.Agent
}

// NewManager validates the definitions and builds a manager whose registry
// always contains general-purpose first.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.Model == nil {
		return nil, errors.New("subagents: model is nil")
	}
	if cfg.State == nil {
		return nil, errors.New("subagents: state is nil")
	}
	registry := cfg.Registry
	if registry == nil {
		registry = tool.NewRegistry()
	}
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = trace.Noop()
	}

	m := &Manager{
		model:         cfg.Model,
		state:         cfg.State,
		registry:      registry,
		instructions:  cfg.Instructions,
		parentID:      cfg.ParentID,
		maxIterations: cfg.MaxIterations,
		tracer:        tracer,
		defs:          make(map[string]Definition),
		runtimes:      make(map[string]*agent.Agent),
	}

	m.addDefinition(generalPurposeDefinition())
	for _, def := range cfg.Definitions {
		if err := validateDefinition(def); err != nil {
			return nil, err
		}
		if _, exists := m.defs[def.Name]; exists {
			return nil, fmt.Errorf("subagents: duplicate definition %s", def.Name)
		}
		m.addDefinition(def)
	}
	return m, nil
}

func (m *Manager) addDefinition(def Definition) {
	m.defs[def.Name] = def
	m.order = append(m.order, def.Name)
}

// Types returns the registered sub-agent names in registration order.
func (m *Manager) Types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.order...)
}

// Summaries lists the registered types for the task tool description.
func (m *Manager) Summaries() []toolbuiltin.SubagentSummary {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]toolbuiltin.SubagentSummary, 0, len(m.order))
	for _, name := range m.order {
		def := m.defs[name]
		out = append(out, toolbuiltin.SubagentSummary{
			Name:        def.Name,
			Description: def.Description,
		})
	}
	return out
}

// Dispatch runs the named sub-agent synchronously against the shared state
// and returns its final text. The conversation is fresh on every call; only
// file and todo state persists across delegations.
func (m *Manager) Dispatch(ctx context.Context, subagentType, description string) (string, error) {
	if m == nil {
		return "", errors.New("subagents: manager is nil")
	}
	rt, err := m.runtime(subagentType)
	if err != nil {
		return "", err
	}

	ctx, span := m.tracer.StartSubagentSpan(ctx, subagentType, m.parentID)
	res, err := rt.Run(ctx, description)
	m.tracer.End(span, err)
	if err != nil {
		return "", err
	}
	return res.Output, nil
}

// runtime returns the cached sub-runtime for name, building it on first
// use. The general-purpose runtime inherits the parent's instructions and
// dynamic prompt; custom definitions run on their own static prompt.
func (m *Manager) runtime(name string) (*agent.Agent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if rt, ok := m.runtimes[name]; ok {
		return rt, nil
	}
	def, ok := m.defs[name]
	if !ok {
		return nil, fmt.Errorf("subagents: unknown type %s", name)
	}

	registry := m.registry
	if len(def.Tools) > 0 {
		subset, err := m.registry.Subset(def.Tools)
		if err != nil {
			return nil, fmt.Errorf("subagents: %s: %w", name, err)
		}
		registry = subset
	}

	instructions := def.Prompt
	static := true
	if name == GeneralPurposeName {
		instructions = m.instructions
		static = false
	}

	rt, err := agent.New(agent.Config{
		Model:         m.model,
		State:         m.state,
		Registry:      registry,
		Instructions:  instructions,
		AgentID:       fmt.Sprintf("subagent-%s-%s", name, uuid.NewString()[:8]),
		AgentType:     name,
		MaxIterations: m.maxIterations,
		Tracer:        m.tracer,
		StaticPrompt:  static,
	})
	if err != nil {
		return nil, fmt.Errorf("subagents: build %s: %w", name, err)
	}
	m.runtimes[name] = rt
	return rt, nil
}
