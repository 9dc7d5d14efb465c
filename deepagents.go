// Package deepagents assembles deep agents: a model loop over a shared
// in-memory run state, with planning, virtual-filesystem, and delegation
// tools built in. Callers describe the agent with a Config and drive it
// through Run or RunAsync; everything the agent and its sub-agents write
// lands in the shared state, inspectable via Snapshot.
package deepagents

import (
	"context"
	"errors"
	"fmt"

	"github.com/statecraft-ai/deepagents-go/pkg/agent"
	"github.com/statecraft-ai/deepagents-go/pkg/model"
	"github.com/statecraft-ai/deepagents-go/pkg/state"
	"github.com/statecraft-ai/deepagents-go/pkg/subagents"
	"github.com/statecraft-ai/deepagents-go/pkg/tool"
	toolbuiltin "github.com/statecraft-ai/deepagents-go/pkg/tool/builtin"
	"github.com/statecraft-ai/deepagents-go/pkg/trace"
)

// MCPServer locates one Model Context Protocol server whose tools are
// imported at construction time.
type MCPServer struct {
	// Name prefixes every imported tool as "<name>__<tool>". Optional.
	Name string

	// Path is an http(s) URL or a stdio command line.
	Path string
}

// Config describes one deep agent.
type Config struct {
	// Model produces assistant turns. Nil selects the Anthropic default,
	// which needs ANTHROPIC_API_KEY or ANTHROPIC_AUTH_TOKEN set.
	Model agent.Model

	// Instructions is the caller's portion of the system prompt. It also
	// seeds the general-purpose sub-agent.
	Instructions string

	// Tools are caller-supplied capabilities registered beside the
	// built-in state tools. Sub-agents may select them by name.
	Tools []tool.Tool

	// Subagents declares delegation targets beyond the always-present
	// general-purpose entry.
	Subagents []subagents.Definition

	// State is the shared run state. Nil creates a fresh one. Pass the
	// same value to cooperating agents.
	State *state.State

	// InitialFiles seeds the virtual filesystem, merging over whatever
	// State already holds.
	InitialFiles map[string]string

	// MCPServers are connected during New and their tools registered for
	// both the main agent and sub-agents.
	MCPServers []MCPServer

	// AgentID identifies the main agent in metadata and traces. Generated
	// when empty.
	AgentID string

	// MaxIterations caps model calls per run, for the main agent and each
	// delegation. Zero means the agent default.
	MaxIterations int

	// Tracer records run, model, tool, and delegation spans. Nil disables
	// tracing.
	Tracer *trace.Tracer
}

// Agent is an assembled deep agent: the main runtime, its delegation
// manager, and the state they share.
type Agent struct {
	runtime *agent.Agent
	manager *subagents.Manager
	state   *state.State

	// shared holds the tools visible to sub-agents and owns any MCP
	// sessions; main additionally carries the task tool.
	shared *tool.Registry
	main   *tool.Registry
}

// New assembles an Agent from cfg. ctx bounds MCP server connections and
// the lifetime of any stdio server processes they spawn, so it should
// outlive the Agent when Config.MCPServers is set.
func New(ctx context.Context, cfg Config) (*Agent, error) {
	mdl := cfg.Model
	if mdl == nil {
		var err error
		mdl, err = model.NewAnthropic(model.Config{})
		if err != nil {
			return nil, fmt.Errorf("deepagents: default model: %w", err)
		}
	}

	st := cfg.State
	if st == nil {
		st = state.New()
	}
	if len(cfg.InitialFiles) > 0 {
		st.InitFiles(cfg.InitialFiles)
	}

	tracer := cfg.Tracer
	if tracer == nil {
		tracer = trace.Noop()
	}

	shared := tool.NewRegistry()
	for _, t := range toolbuiltin.StateTools(st) {
		if err := shared.Register(t); err != nil {
			return nil, fmt.Errorf("deepagents: register %s: %w", t.Name(), err)
		}
	}
	for _, t := range cfg.Tools {
		if t == nil {
			return nil, errors.New("deepagents: nil tool in Config.Tools")
		}
		if err := shared.Register(t); err != nil {
			return nil, fmt.Errorf("deepagents: register %s: %w", t.Name(), err)
		}
	}
	for _, srv := range cfg.MCPServers {
		if err := shared.RegisterMCPServer(ctx, srv.Path, srv.Name); err != nil {
			return nil, fmt.Errorf("deepagents: register MCP %s: %w", srv.Path, err)
		}
	}

	id := cfg.AgentID
	if id == "" {
		id = agent.NewID()
	}

	manager, err := subagents.NewManager(subagents.Config{
		Model:         mdl,
		State:         st,
		Registry:      shared,
		Instructions:  cfg.Instructions,
		Definitions:   cfg.Subagents,
		ParentID:      id,
		MaxIterations: cfg.MaxIterations,
		Tracer:        tracer,
	})
	if err != nil {
		shared.Close()
		return nil, err
	}

	// The main agent sees every shared tool plus the task tool. The task
	// tool stays off the shared registry so delegations cannot recurse.
	main, err := shared.Subset(shared.Names())
	if err != nil {
		shared.Close()
		return nil, err
	}
	if err := main.Register(toolbuiltin.NewTaskTool(manager)); err != nil {
		shared.Close()
		return nil, fmt.Errorf("deepagents: register task tool: %w", err)
	}

	runtime, err := agent.New(agent.Config{
		Model:         mdl,
		State:         st,
		Registry:      main,
		Instructions:  cfg.Instructions,
		AgentID:       id,
		MaxIterations: cfg.MaxIterations,
		Tracer:        tracer,
	})
	if err != nil {
		shared.Close()
		return nil, err
	}

	return &Agent{
		runtime: runtime,
		manager: manager,
		state:   st,
		shared:  shared,
		main:    main,
	}, nil
}

// Run executes one request to completion and returns the final assistant
// text together with the full conversation.
func (a *Agent) Run(ctx context.Context, input string) (*agent.Result, error) {
	return a.runtime.Run(ctx, input)
}

// RunAsync runs the agent on its own goroutine. The returned channel is
// buffered and receives exactly one value before closing.
func (a *Agent) RunAsync(ctx context.Context, input string) <-chan agent.AsyncResult {
	return a.runtime.RunAsync(ctx, input)
}

// State returns the shared run state, the same value every tool call and
// delegation mutates.
func (a *Agent) State() *state.State { return a.state }

// Snapshot exports the current files, todos, metadata, and context.
func (a *Agent) Snapshot() state.Snapshot { return a.state.Snapshot() }

// ID returns the main agent identifier.
func (a *Agent) ID() string { return a.runtime.ID() }

// SubagentTypes lists the registered delegation targets, general-purpose
// first.
func (a *Agent) SubagentTypes() []string { return a.manager.Types() }

// ToolNames lists the tools declared to the main agent in registration
// order, task tool last.
func (a *Agent) ToolNames() []string { return a.main.Names() }

// Close releases resources held by the agent, currently the MCP sessions
// opened during New.
func (a *Agent) Close() {
	a.shared.Close()
}
