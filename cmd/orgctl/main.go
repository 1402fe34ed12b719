// Command orgctl is the organization runtime's entrypoint: it loads
// settings, runs the interactive setup wizard when no organization
// snapshot exists yet, wires the reference provider/tool/memory adapters,
// and starts or resumes an organization's agent loops until shutdown.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	oasis "github.com/orglang/orgruntime"
	"github.com/orglang/orgruntime/internal/config"
	"github.com/orglang/orgruntime/internal/repair"
	"github.com/orglang/orgruntime/observer"
	"github.com/orglang/orgruntime/provider/resolve"
	"github.com/orglang/orgruntime/store/sqlite"
	"github.com/orglang/orgruntime/tools/file"
	httptool "github.com/orglang/orgruntime/tools/http"
	"github.com/orglang/orgruntime/tools/shell"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "orgctl:", err)
		os.Exit(1)
	}
}

type cliFlags struct {
	continuous        bool
	stepLimit         int
	settingsPath      string
	speak             bool
	debug             bool
	forceSmallModel   bool
	forceLargeModel   bool
	memoryBackend     string
	browser           string
	allowDownloads    bool
	skipNews          bool
	skipReprompt      bool
	workspaceRoot     string
	installPluginDeps bool
	orgMode           bool
	orgName           string
	otel              bool
}

func parseFlags(args []string) cliFlags {
	fs := flag.NewFlagSet("orgctl", flag.ExitOnError)
	var f cliFlags
	fs.BoolVar(&f.continuous, "continuous", false, "run without prompting between loop iterations (no per-step prompt ships; loops always run unprompted)")
	fs.IntVar(&f.stepLimit, "step-limit", 0, "stop each agent after this many loop iterations (0 = unbounded)")
	fs.StringVar(&f.settingsPath, "settings", "", "path to the TOML settings file (default orgctl.toml)")
	fs.BoolVar(&f.speak, "speak", false, "narrate agent thoughts as they are logged (no-op without a speech adapter)")
	fs.BoolVar(&f.debug, "debug", false, "enable debug-level logging")
	fs.BoolVar(&f.forceSmallModel, "force-small-model", false, "force every agent loop onto the configured small model")
	fs.BoolVar(&f.forceLargeModel, "force-large-model", false, "force every agent loop onto the configured large model")
	fs.StringVar(&f.memoryBackend, "memory", "sqlite", "memory store backend name")
	fs.StringVar(&f.browser, "browser", "", "browser name for future browsing tools (unused; no browser adapter ships)")
	fs.BoolVar(&f.allowDownloads, "allow-downloads", false, "permit tools to write files fetched from the network (unused; no such tool ships)")
	fs.BoolVar(&f.skipNews, "skip-news", false, "skip the startup news/changelog check (unused; no news source ships)")
	fs.BoolVar(&f.skipReprompt, "skip-reprompt", false, "skip the interactive setup wizard and create a new organization from default values")
	fs.StringVar(&f.workspaceRoot, "workspace", "", "override the configured workspace root")
	fs.BoolVar(&f.installPluginDeps, "install-plugin-deps", false, "install third-party plugin dependencies before starting (unused; no plugin loader ships)")
	fs.BoolVar(&f.orgMode, "org-mode", true, "run as a hierarchy of agents rather than a single founder")
	fs.StringVar(&f.orgName, "org", "", "organization name (required)")
	fs.BoolVar(&f.otel, "otel", false, "export dispatcher/loop traces via OTLP/HTTP (configured through standard OTEL_EXPORTER_OTLP_* env vars)")
	fs.Parse(args)
	return f
}

func run() error {
	flags := parseFlags(os.Args[1:])

	level := slog.LevelInfo
	if flags.debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if flags.speak {
		logger.Debug("speak mode requested; no speech adapter ships, thoughts are logged only")
	}
	if flags.browser != "" || flags.allowDownloads || flags.skipNews || flags.installPluginDeps {
		logger.Debug("ignoring toggles with no corresponding adapter in this build",
			"browser", flags.browser, "allow_downloads", flags.allowDownloads,
			"skip_news", flags.skipNews, "install_plugin_deps", flags.installPluginDeps)
	}
	if !flags.orgMode {
		logger.Warn("org-mode=false requested; every agent still runs under the hierarchical runtime, a single founder is just a one-agent organization")
	}
	if !flags.continuous {
		logger.Debug("continuous mode is off; step-limit still governs termination since there is no interactive per-step prompt in this build", "step_limit", flags.stepLimit)
	}

	cfg := config.Load(flags.settingsPath)
	if flags.workspaceRoot != "" {
		cfg.Org.WorkspaceRoot = flags.workspaceRoot
	}
	if cfg.LLM.APIKey == "" {
		return errors.New("no LLM API key configured (set [llm].api_key in the settings file or ORGCTL_LLM_API_KEY)")
	}

	tier := resolve.TierDefault
	switch {
	case flags.forceSmallModel:
		tier = resolve.TierSmall
	case flags.forceLargeModel:
		tier = resolve.TierLarge
	}
	provider := resolve.Provider(resolve.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		SmallModel:  cfg.LLM.SmallModel,
		LargeModel:  cfg.LLM.LargeModel,
		Temperature: cfg.LLM.Temperature,
		TopP:        cfg.LLM.TopP,
	}, tier)

	tools := oasis.NewToolRegistry()
	tools.Add(file.New(cfg.Org.WorkspaceRoot))
	tools.Add(httptool.New())
	tools.Add(shell.New(cfg.Org.WorkspaceRoot, 30))

	orgName := strings.TrimSpace(flags.orgName)
	if orgName == "" {
		return errors.New("-org is required")
	}

	var tracer oasis.Tracer
	if flags.otel {
		shutdown, oerr := observer.Init(context.Background(), "orgctl."+orgName)
		if oerr != nil {
			return fmt.Errorf("init otel: %w", oerr)
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				logger.Warn("otel shutdown failed", "err", err)
			}
		}()
		tracer = observer.NewTracer()
	}

	ctrlCfg := oasis.ControllerConfig{
		QueueDepth:   cfg.Dispatch.QueueDepth,
		Provider:     provider,
		Repair:       repair.New(),
		Tools:        tools,
		Tracer:       tracer,
		Logger:       logger,
		SystemPrompt: defaultSystemPrompt,
		Model:        cfg.LLM.Model,
		MaxTokens:    2048,
		TickInterval: time.Second,
		MaxLoopCount: flags.stepLimit,
	}
	if cfg.Org.CostUSDPerUnit > 0 {
		ctrlCfg.CostCalculator = oasis.NewCostCalculator(modelPricing(cfg.Observer.Pricing))
		ctrlCfg.USDPerUnit = cfg.Org.CostUSDPerUnit
	}

	ctrl, founder, err := loadOrCreate(flags, cfg, orgName, ctrlCfg)
	if err != nil {
		return err
	}
	if founder {
		logger.Info("organization created", "org", orgName, "workspace", cfg.Org.WorkspaceRoot)
	} else {
		logger.Info("organization loaded", "org", orgName, "workspace", cfg.Org.WorkspaceRoot)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if flags.memoryBackend != "" && !strings.EqualFold(flags.memoryBackend, "sqlite") {
		logger.Warn("unknown memory backend requested, falling back to sqlite", "requested", flags.memoryBackend)
	}
	overrides := memoryOverrides(ctrl, cfg)
	ctrl.Start(ctx, overrides)

	<-ctx.Done()
	logger.Info("shutdown signal received, draining agent loops")

	// A second SIGINT during shutdown exits immediately rather than
	// waiting on a graceful drain that may be stuck.
	forceCtx, forceStop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer forceStop()
	done := make(chan error, 1)
	go func() { done <- ctrl.Shutdown(context.Background()) }()

	select {
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	case <-forceCtx.Done():
		logger.Warn("second interrupt received, exiting without waiting for shutdown to finish")
		os.Exit(130)
		return nil
	}
}

// loadOrCreate loads an existing organization snapshot, or — if none
// exists at the configured workspace root — runs the interactive setup
// wizard (or, with -skip-reprompt, uses flag/config defaults) and creates
// one. The returned bool is true iff a new organization was created.
//
// LoadOrganization treats a missing snapshot file as "nothing to load"
// rather than an error, so a fresh organization name round-trips through
// LoadController as a valid but agent-less organization; an agent-less
// result is exactly the "does not exist yet" signal this relies on, since
// CreateOrganization always seeds a founder before persisting.
func loadOrCreate(flags cliFlags, cfg config.Config, orgName string, ctrlCfg oasis.ControllerConfig) (*oasis.Controller, bool, error) {
	ctrl, err := oasis.LoadController(cfg.Org.WorkspaceRoot, orgName, cfg.Org.DefaultUnitCost, ctrlCfg)
	if err != nil {
		return nil, false, fmt.Errorf("load organization: %w", err)
	}
	if len(ctrl.Organization().Agents()) > 0 {
		return ctrl, false, nil
	}

	wiz, werr := runSetupWizard(flags, cfg, orgName)
	if werr != nil {
		return nil, false, werr
	}

	created, cerr := oasis.CreateOrganization(cfg.Org.WorkspaceRoot, orgName, wiz.goal, wiz.initialBudget, cfg.Org.DefaultUnitCost, wiz.founder, ctrlCfg)
	if cerr != nil {
		return nil, false, fmt.Errorf("create organization: %w", cerr)
	}
	return created, true, nil
}

type wizardResult struct {
	goal          string
	founder       *oasis.Agent
	initialBudget int64
}

// runSetupWizard solicits org goal, founder name/role/goals, and an
// optional initial budget. When -skip-reprompt is set, or stdin is not
// interactive, it falls back to minimal defaults instead of blocking.
func runSetupWizard(flags cliFlags, cfg config.Config, orgName string) (wizardResult, error) {
	if flags.skipReprompt {
		return wizardResult{
			goal:          "Grow " + orgName + " toward its founder's objectives.",
			founder:       &oasis.Agent{Name: "founder", Role: "Founder", Goals: []string{"Define the organization's first concrete objective."}, Founder: true},
			initialBudget: cfg.Org.DefaultBudget,
		}, nil
	}

	fmt.Printf("No existing organization named %q found. Let's create one.\n", orgName)
	sc := bufio.NewScanner(os.Stdin)

	prompt := func(label, def string) string {
		if def != "" {
			fmt.Printf("%s [%s]: ", label, def)
		} else {
			fmt.Printf("%s: ", label)
		}
		if !sc.Scan() {
			return def
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			return def
		}
		return line
	}

	goal := prompt("Organization goal", "Grow "+orgName+" toward its founder's objectives.")
	founderName := prompt("Founder name", "founder")
	founderRole := prompt("Founder role", "Founder")

	var goals []string
	for i := 1; i <= 5; i++ {
		g := prompt(fmt.Sprintf("Founder goal %d (blank to stop)", i), "")
		if g == "" {
			break
		}
		goals = append(goals, g)
	}
	if len(goals) == 0 {
		goals = []string{"Define the organization's first concrete objective."}
	}

	budget := cfg.Org.DefaultBudget
	if raw := prompt("Initial budget", strconv.FormatInt(cfg.Org.DefaultBudget, 10)); raw != "" {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			budget = n
		}
	}

	return wizardResult{
		goal:          goal,
		founder:       &oasis.Agent{Name: founderName, Role: founderRole, Goals: goals, Founder: true},
		initialBudget: budget,
	}, nil
}

// memoryOverrides builds a per-agent LoopOverride map giving every
// non-terminated agent its own SQLite-backed memory store rooted in that
// agent's workspace directory, matching the on-disk layout's
// agent_memory.json convention (the adapter owns the file's contents;
// here it is a SQLite database file alongside it).
func memoryOverrides(ctrl *oasis.Controller, cfg config.Config) map[int64]oasis.LoopOverride {
	overrides := make(map[int64]oasis.LoopOverride)
	org := ctrl.Organization()
	for _, a := range org.Agents() {
		if a.Terminated {
			continue
		}
		dbPath := filepath.Join(a.WorkspaceDir, "agent_memory.db")
		store := sqlite.New(dbPath, sqlite.WithLogger(slog.Default()))
		if err := store.Init(context.Background()); err != nil {
			slog.Default().Warn("memory store init failed, agent will run without memory", "agent_id", a.ID, "err", err)
			continue
		}
		overrides[a.ID] = func(lc *oasis.LoopConfig) { lc.Memory = store }
	}
	return overrides
}

// modelPricing converts the settings file's per-1K-token USD pricing
// into the per-million-token rates oasis.CostCalculator expects.
func modelPricing(cfg map[string]config.ObserverPricing) map[string]oasis.ModelPricing {
	if len(cfg) == 0 {
		return nil
	}
	out := make(map[string]oasis.ModelPricing, len(cfg))
	for model, p := range cfg {
		out[model] = oasis.ModelPricing{
			InputPerMillion:  p.Input * 1000,
			OutputPerMillion: p.Output * 1000,
		}
	}
	return out
}

const defaultSystemPrompt = `You are an autonomous agent inside a larger organization. ` +
	`You receive status updates and messages, reason about what to do next, ` +
	`and reply with a single JSON object: {"thoughts": {"text", "reasoning", "plan", "criticism", "status"}, "command": {"name", "args"}}. ` +
	`Use hire_staff, fire_staff, message_agent, respond_to_message, message_staff, message_supervisor, ` +
	`and get_conversation_history to interact with the organization, or any catalog tool to act on the world.`
