package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	deepagents "github.com/statecraft-ai/deepagents-go"
	"github.com/statecraft-ai/deepagents-go/pkg/agent"
	"github.com/statecraft-ai/deepagents-go/pkg/config"
	"github.com/statecraft-ai/deepagents-go/pkg/model"
	"github.com/statecraft-ai/deepagents-go/pkg/search"
	"github.com/statecraft-ai/deepagents-go/pkg/state"
	"github.com/statecraft-ai/deepagents-go/pkg/subagents"
	"github.com/statecraft-ai/deepagents-go/pkg/tool"
	"github.com/statecraft-ai/deepagents-go/pkg/trace"
)

// Runner is the slice of deepagents.Agent the commands drive (allows
// mocking in tests).
type Runner interface {
	Run(ctx context.Context, input string) (*agent.Result, error)
	Snapshot() state.Snapshot
	Close()
}

// runnerWrapper pairs the agent with its tracer so Close flushes spans.
type runnerWrapper struct {
	agent  *deepagents.Agent
	tracer *trace.Tracer
}

func (r *runnerWrapper) Run(ctx context.Context, input string) (*agent.Result, error) {
	return r.agent.Run(ctx, input)
}

func (r *runnerWrapper) Snapshot() state.Snapshot {
	return r.agent.Snapshot()
}

func (r *runnerWrapper) Close() {
	r.agent.Close()
	if r.tracer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := r.tracer.Shutdown(ctx); err != nil {
			log.Printf("trace shutdown warning: %v", err)
		}
	}
}

// RunnerConfig carries per-command agent wiring.
type RunnerConfig struct {
	Instructions string
	Tools        []tool.Tool
	Subagents    []subagents.Definition
}

// RunnerFactory creates a Runner instance.
type RunnerFactory func(cfg *config.Config, rc RunnerConfig) (Runner, error)

// DefaultRunnerFactory assembles the real deep agent from settings.
func DefaultRunnerFactory(cfg *config.Config, rc RunnerConfig) (Runner, error) {
	if err := requireProviderKey(cfg); err != nil {
		return nil, err
	}

	mdl, err := model.New(cfg.Provider.Type, model.Config{
		APIKey:      cfg.Provider.APIKey,
		BaseURL:     cfg.Provider.BaseURL,
		ModelName:   cfg.Agent.Model,
		MaxTokens:   cfg.Agent.MaxTokens,
		Temperature: cfg.Agent.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("create model: %w", err)
	}

	instructions := rc.Instructions
	if instructions == "" {
		instructions, err = loadInstructions(cfg)
		if err != nil {
			return nil, err
		}
	}

	defs := append([]subagents.Definition(nil), rc.Subagents...)
	if cfg.Agent.AgentsDir != "" {
		loaded, errs := subagents.Load(cfg.Agent.AgentsDir)
		for _, err := range errs {
			log.Printf("subagent loader warning: %v", err)
		}
		defs = append(defs, loaded...)
	}

	tracer := trace.Noop()
	tcfg := cfg.Trace
	if traceFlag {
		tcfg.Enabled = true
	}
	if tcfg.Enabled {
		tracer, err = trace.New(tcfg)
		if err != nil {
			return nil, fmt.Errorf("init tracing: %w", err)
		}
	}

	ag, err := deepagents.New(context.Background(), deepagents.Config{
		Model:         mdl,
		Instructions:  instructions,
		Tools:         rc.Tools,
		Subagents:     defs,
		MaxIterations: cfg.Agent.MaxIterations,
		Tracer:        tracer,
	})
	if err != nil {
		return nil, fmt.Errorf("create agent: %w", err)
	}
	return &runnerWrapper{agent: ag, tracer: tracer}, nil
}

// AgentOptions holds injectable dependencies for command handlers.
type AgentOptions struct {
	RunnerFactory RunnerFactory
	Stdin         io.Reader
	Stdout        io.Writer
	Stderr        io.Writer
}

var rootCmd = &cobra.Command{
	Use:   "deepagents",
	Short: "deepagents - run deep agents over a shared in-memory workspace",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if envFileFlag != "" {
			if err := godotenv.Load(envFileFlag); err != nil {
				return fmt.Errorf("load env file: %w", err)
			}
			return nil
		}
		_ = godotenv.Load()
		return nil
	},
}

var runCmd = &cobra.Command{
	Use:   "run [prompt]",
	Short: "Run the agent with a single prompt, or as a REPL when no prompt is given",
	RunE:  runRun,
}

var researchCmd = &cobra.Command{
	Use:   "research <question>",
	Short: "Research a question with web search and a critique pass, producing final_report.md",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runResearch,
}

var onboardCmd = &cobra.Command{
	Use:   "onboard",
	Short: "Initialize config and the agents directory",
	RunE:  runOnboard,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show deepagents status",
	RunE:  runStatus,
}

var (
	envFileFlag string
	configFlag  string
	traceFlag   bool

	providerFlag      string
	modelFlag         string
	maxIterationsFlag int
	dumpStateFlag     string

	maxResultsFlag int
	topicFlag      string
	includeRawFlag bool
	offlineFlag    bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&envFileFlag, "env-file", "", "Load environment variables from this file")
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "Path to the config file")
	rootCmd.PersistentFlags().BoolVar(&traceFlag, "trace", false, "Force span export even when the config disables it")

	runCmd.Flags().StringVar(&providerFlag, "provider", "", "Model provider (anthropic or openai)")
	runCmd.Flags().StringVar(&modelFlag, "model", "", "Model name override")
	runCmd.Flags().IntVar(&maxIterationsFlag, "max-iterations", 0, "Model-call cap per run")
	runCmd.Flags().StringVar(&dumpStateFlag, "dump-state", "", "Write the final state snapshot to this JSON file")

	researchCmd.Flags().IntVar(&maxResultsFlag, "max-results", search.DefaultMaxResults, "Max search results to retrieve")
	researchCmd.Flags().StringVar(&topicFlag, "topic", search.TopicGeneral, "Search topic vertical (general, news, or finance)")
	researchCmd.Flags().BoolVar(&includeRawFlag, "include-raw-content", false, "Include raw page content in search results")
	researchCmd.Flags().BoolVar(&offlineFlag, "offline", false, "Use the built-in offline searcher instead of Tavily")
	researchCmd.Flags().StringVar(&dumpStateFlag, "dump-state", "", "Write the final state snapshot to this JSON file")

	rootCmd.AddCommand(runCmd, researchCmd, onboardCmd, statusCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	if configFlag != "" {
		return config.LoadFrom(configFlag)
	}
	return config.Load()
}

func configPathInUse() string {
	if configFlag != "" {
		return configFlag
	}
	return config.ConfigPath()
}

func requireProviderKey(cfg *config.Config) error {
	if cfg.Provider.APIKey != "" {
		return nil
	}
	name := "ANTHROPIC_API_KEY"
	if cfg.Provider.Type == "openai" {
		name = "OPENAI_API_KEY"
	}
	return fmt.Errorf("%s environment variable is required", name)
}

func requireEnv(name string) (string, error) {
	if value := os.Getenv(name); value != "" {
		return value, nil
	}
	return "", fmt.Errorf("%s environment variable is required", name)
}

const defaultInstructions = `You are a helpful deep agent. Plan multi-step work with write_todos, keep
intermediate artifacts in files, and delegate self-contained research or
review tasks with the task tool.`

func loadInstructions(cfg *config.Config) (string, error) {
	if cfg.Agent.InstructionsFile == "" {
		return defaultInstructions, nil
	}
	data, err := os.ReadFile(cfg.Agent.InstructionsFile)
	if err != nil {
		return "", fmt.Errorf("read instructions file: %w", err)
	}
	return string(data), nil
}

// runRun is the command handler that uses default options
func runRun(cmd *cobra.Command, args []string) error {
	return runRunWithOptions(AgentOptions{}, args)
}

// runRunWithOptions runs the agent with injectable dependencies for testing
func runRunWithOptions(opts AgentOptions, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if providerFlag != "" {
		cfg.Provider.Type = providerFlag
	}
	if modelFlag != "" {
		cfg.Agent.Model = modelFlag
	}
	if maxIterationsFlag > 0 {
		cfg.Agent.MaxIterations = maxIterationsFlag
	}

	factory := opts.RunnerFactory
	if factory == nil {
		factory = DefaultRunnerFactory
	}

	runner, err := factory(cfg, RunnerConfig{})
	if err != nil {
		return err
	}
	defer runner.Close()

	stdin := opts.Stdin
	if stdin == nil {
		stdin = os.Stdin
	}
	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	ctx := context.Background()

	// Single prompt mode
	if len(args) > 0 {
		res, err := runner.Run(ctx, strings.Join(args, " "))
		if err != nil {
			return fmt.Errorf("agent error: %w", err)
		}
		if res != nil {
			fmt.Fprintln(stdout, res.Output)
		}
		return dumpState(runner, dumpStateFlag, stdout)
	}

	// REPL mode
	fmt.Fprintln(stdout, "deepagents (type 'exit' to quit)")
	scanner := bufio.NewScanner(stdin)
	for {
		fmt.Fprint(stdout, "\n> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			break
		}

		res, err := runner.Run(ctx, input)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			continue
		}
		if res != nil {
			fmt.Fprintln(stdout, res.Output)
		}
	}
	return dumpState(runner, dumpStateFlag, stdout)
}

func dumpState(runner Runner, path string, stdout io.Writer) error {
	if path == "" {
		return nil
	}
	data, err := json.MarshalIndent(runner.Snapshot(), "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	fmt.Fprintf(stdout, "State written to: %s\n", path)
	return nil
}

const researchInstructions = `You are an expert researcher. Your job is to conduct thorough research and
then write a polished report.

You have access to a few tools.

## internet_search

Use this to run an internet search for a given query. You can specify the
number of results, the topic, and whether raw content should be included.

## Planning and Organization

Use the write_todos tool to plan your research systematically:
1. Break down the research topic into specific questions
2. Plan your search strategy
3. Track your progress as you gather information
4. Plan the structure of your final report

## File Management

Use the file system tools to organize your research:
- Create files to store research notes for different aspects of your topic
- Use files to draft sections of your report
- Keep track of sources and citations

Write the final report to final_report.md as well-structured markdown with
headings, analysis, and a Sources section citing sources inline as
[Title](URL). Before finishing, delegate to the critique sub-agent for
feedback and address what it raises.`

var critiqueDefinition = subagents.Definition{
	Name:        "critique",
	Description: "Reviews a draft report for completeness, structure, and unsupported claims.",
	Prompt: `You are a harsh but constructive editor reviewing a research report.

Read final_report.md and any research notes in the workspace. Point out
missing angles, weak sourcing, structural problems, and unsupported claims.
Reply with a prioritized list of concrete fixes.`,
	Tools: []string{"ls", "read_file", "internet_search"},
}

// offlineCorpus backs --offline research runs with canned hits.
var offlineCorpus = []search.Result{
	{
		Title:   "Deep agents pattern overview",
		URL:     "https://example.com/deep-agents",
		Content: "Deep agents combine planning todos, a virtual filesystem, and task delegation to stay coherent over long workflows.",
	},
	{
		Title:   "Structured note taking for agents",
		URL:     "https://example.com/agent-notes",
		Content: "Keeping intermediate artifacts in files reduces context pressure and makes sub-agent handoffs auditable.",
	},
	{
		Title:   "Delegation and shared state",
		URL:     "https://example.com/delegation",
		Content: "Sub-agents that write into the parent's workspace make their findings immediately visible without message passing.",
	},
}

func runResearch(cmd *cobra.Command, args []string) error {
	return runResearchWithOptions(AgentOptions{}, args)
}

func runResearchWithOptions(opts AgentOptions, args []string) error {
	if !search.ValidTopic(topicFlag) {
		return fmt.Errorf("invalid topic %q (want general, news, or finance)", topicFlag)
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	var searcher search.Searcher
	if offlineFlag {
		searcher = search.NewStatic(offlineCorpus)
	} else {
		key, err := requireEnv("TAVILY_API_KEY")
		if err != nil {
			return err
		}
		searcher, err = search.NewTavily(key, "")
		if err != nil {
			return err
		}
	}

	searchTool := search.NewTool(searcher, search.Query{
		MaxResults:        maxResultsFlag,
		Topic:             topicFlag,
		IncludeRawContent: includeRawFlag,
	})

	factory := opts.RunnerFactory
	if factory == nil {
		factory = DefaultRunnerFactory
	}

	runner, err := factory(cfg, RunnerConfig{
		Instructions: researchInstructions,
		Tools:        []tool.Tool{searchTool},
		Subagents:    []subagents.Definition{critiqueDefinition},
	})
	if err != nil {
		return err
	}
	defer runner.Close()

	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}

	question := strings.Join(args, " ")
	res, err := runner.Run(context.Background(), question)
	if err != nil {
		return fmt.Errorf("agent error: %w", err)
	}
	if res != nil {
		fmt.Fprintln(stdout, res.Output)
	}

	if report, ok := runner.Snapshot().Files["final_report.md"]; ok {
		fmt.Fprintln(stdout, "\n--- final_report.md ---")
		fmt.Fprintln(stdout, report)
	}
	return dumpState(runner, dumpStateFlag, stdout)
}

func runOnboard(cmd *cobra.Command, args []string) error {
	cfgPath := config.ConfigPath()

	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		if err := config.Save(config.DefaultConfig()); err != nil {
			return fmt.Errorf("write config: %w", err)
		}
		fmt.Printf("Created config: %s\n", cfgPath)
	} else {
		fmt.Printf("Config already exists: %s\n", cfgPath)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	agentsDir := cfg.Agent.AgentsDir
	if agentsDir == "" {
		agentsDir = filepath.Join(config.ConfigDir(), "agents")
	}
	if err := os.MkdirAll(agentsDir, 0755); err != nil {
		return fmt.Errorf("create agents dir: %w", err)
	}
	writeIfNotExists(filepath.Join(agentsDir, "critic.md"), defaultCriticMD)

	fmt.Printf("Agents directory ready: %s\n", agentsDir)
	fmt.Println("\nNext steps:")
	fmt.Printf("  1. Edit %s to set your API key\n", cfgPath)
	fmt.Println("  2. Or set ANTHROPIC_API_KEY / OPENAI_API_KEY in the environment")
	fmt.Println("  3. Run 'deepagents run \"Hello\"' to test")

	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Printf("Config: error (%v)\n", err)
		return nil
	}

	fmt.Printf("Config: %s\n", configPathInUse())
	fmt.Printf("Model: %s\n", cfg.Agent.Model)
	fmt.Printf("Provider: %s\n", providerDisplay(cfg.Provider.Type))
	if cfg.Provider.APIKey != "" && len(cfg.Provider.APIKey) > 8 {
		masked := cfg.Provider.APIKey[:4] + "..." + cfg.Provider.APIKey[len(cfg.Provider.APIKey)-4:]
		fmt.Printf("API Key: %s\n", masked)
	} else if cfg.Provider.APIKey != "" {
		fmt.Println("API Key: set")
	} else {
		fmt.Println("API Key: not set")
	}
	fmt.Printf("Max iterations: %d\n", cfg.Agent.MaxIterations)

	if cfg.Agent.AgentsDir != "" {
		defs, errs := subagents.Load(cfg.Agent.AgentsDir)
		for _, err := range errs {
			fmt.Printf("Agents: warning (%v)\n", err)
		}
		fmt.Printf("Agents: %d definitions in %s\n", len(defs), cfg.Agent.AgentsDir)
	} else {
		fmt.Println("Agents: no directory configured")
	}
	fmt.Printf("Tracing: enabled=%v\n", cfg.Trace.Enabled)

	return nil
}

func providerDisplay(t string) string {
	if t == "" {
		return "anthropic (default)"
	}
	return t
}

func writeIfNotExists(path, content string) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		_ = os.WriteFile(path, []byte(content), 0644)
		fmt.Printf("  Created: %s\n", path)
	}
}

const defaultCriticMD = `---
name: critic
description: Reviews drafts in the workspace and points out gaps before they ship.
tools: ls, read_file
---
You are a careful reviewer. Read the files in the workspace and reply with
specific, actionable feedback.
`
