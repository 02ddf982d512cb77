package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"

	"ptc/internal/agentmd"
	"ptc/internal/approval"
	"ptc/internal/command"
	"ptc/internal/config"
	"ptc/internal/diff"
	"ptc/internal/logging"
	"ptc/internal/mention"
	"ptc/internal/metrics"
	"ptc/internal/modelrt"
	"ptc/internal/recovery"
	"ptc/internal/render"
	"ptc/internal/sandbox"
	"ptc/internal/session"
	"ptc/internal/streaming"
	"ptc/internal/telemetry"
	"ptc/internal/tokenutil"
	"ptc/internal/toolregistry"
	"ptc/internal/tools"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	parsed, err := parseArgs(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ptc: %v\n", err)
		return 1
	}

	cfg, _, err := config.Load(parsed.opts.loaderOptions()...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ptc: loading configuration: %v\n", err)
		return 1
	}

	switch parsed.subcommand {
	case "help":
		printUsage()
		return 0
	case "list":
		return runListAgents(cfg)
	case "reset":
		return runResetAgent(cfg, parsed.subArgs)
	}

	return runInteractive(cfg, parsed.opts)
}

func runListAgents(cfg config.RuntimeConfig) int {
	agents, err := agentmd.List(cfg.ResolvedStateRoot())
	if err != nil {
		fmt.Fprintf(os.Stderr, "ptc: %v\n", err)
		return 1
	}
	if len(agents) == 0 {
		fmt.Println("No agents yet.")
		return 0
	}
	for _, a := range agents {
		marker := " "
		if a.HasMemory {
			marker = "*"
		}
		fmt.Printf("%s %s\n", marker, a.Name)
	}
	return 0
}

func runResetAgent(cfg config.RuntimeConfig, args []string) int {
	name := cfg.AgentName
	source := ""
	if len(args) > 0 {
		name = args[0]
	}
	if len(args) > 1 {
		source = args[1]
	}
	msg, err := agentmd.Reset(cfg.ResolvedStateRoot(), name, source)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ptc: %v\n", err)
		return 1
	}
	fmt.Println(msg)
	return 0
}

func runInteractive(cfg config.RuntimeConfig, opts cliOptions) int {
	stateDir := cfg.AgentStateDir()
	logger, err := logging.New(stateDir, cfg.Verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ptc: %v\n", err)
		return 1
	}
	logger.Info("starting interactive session", "agent", cfg.AgentName, "model", cfg.Model)

	lock, err := session.AcquireLock(cfg.ResolvedStateRoot(), cfg.AgentName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ptc: %v\n", err)
		return 1
	}
	defer lock.Release()

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	store := session.New(cfg.ResolvedStateRoot())
	manager := session.NewManager(store)

	sandboxID := ""
	if opts.sandboxID != nil {
		sandboxID = *opts.sandboxID
	}
	if opts.newSandbox != nil && *opts.newSandbox {
		_ = store.Delete(ctx, cfg.AgentName)
		sandboxID = ""
	}

	handle, err := manager.Acquire(ctx, cfg, sandboxID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ptc: acquiring sandbox: %v\n", err)
		return 1
	}

	metricsCollector := metrics.New(metrics.Config{Enabled: true}, prometheus.NewRegistry())
	metricsCollector.IncrementActiveSessions()

	tracerProvider := telemetry.NewTracerProvider()
	otel.SetTracerProvider(tracerProvider)

	ok := true
	defer func() {
		metricsCollector.DecrementActiveSessions()
		_ = manager.Release(ctx, handle, ok)
		_ = tracerProvider.Shutdown(ctx)
	}()

	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	differ := diff.NewGenerator(3, true)
	registry := toolregistry.New()
	tools.Register(registry, handle.Sandbox, differ)

	systemPrompt, _ := agentmd.Content(cfg.ResolvedStateRoot(), cfg.AgentName)
	client := anthropic.NewClient(option.WithAPIKey(cfg.APIKey))
	runtime := modelrt.NewAnthropicRuntime(&client, cfg.Model, systemPrompt, modelrt.ToolParamsFromDescriptors(registry.Descriptors()))

	recoverer := recovery.New(cfg, store)
	console := render.NewConsole(os.Stdout)
	menu := approval.NewMenu(os.Stdin, os.Stdout)
	completer := mention.NewCompleter(512)
	tracker := tokenutil.NewTracker()
	checkpointer := modelrt.NewCheckpointer()

	executor := streaming.NewExecutor(cfg, runtime, registry, recoverer, console, menu, completer, tracker, checkpointer)

	bgCtx, bgCancel := context.WithCancel(ctx)
	defer bgCancel()
	go executor.RefreshFileCache(bgCtx, handle, 30*time.Second)

	state := command.NewState(cfg.AutoApprove, false, cfg.PersistSession, cfg.PlanMode)
	if opts.noSplash == nil || !*opts.noSplash {
		printSplash(cfg.AgentName, cfg.Model)
	}

	router := buildRouter(cfg, handle, state, tracker, checkpointer, runtime)

	replErr := runREPL(ctx, console, router, state,
		func(bashCtx context.Context, command string) (sandbox.ExecResult, error) {
			return handle.Sandbox.ExecuteBash(bashCtx, command, bashEscapeTimeout)
		},
		func(msg string) {
			turnCtx, span := telemetry.StartTurn(ctx, state.ThreadID, cfg.AgentName)
			started := time.Now()
			result := executor.RunTurn(turnCtx, handle, state, msg)
			metricsCollector.RecordTurn(result.Kind.String(), time.Since(started))
			telemetry.End(span, result.Err)
			if result.Kind.String() == "fault" {
				ok = false
				logger.Error("turn ended in sandbox fault", "error", result.Err)
			}
		},
	)
	if replErr != nil {
		fmt.Fprintf(os.Stderr, "ptc: %v\n", replErr)
		return 1
	}
	return 0
}
