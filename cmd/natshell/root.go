package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/natshell-dev/natshell/pkg/agent"
	"github.com/natshell-dev/natshell/pkg/config"
	"github.com/natshell-dev/natshell/pkg/logging"
	"github.com/natshell-dev/natshell/pkg/mcp"
	"github.com/natshell-dev/natshell/pkg/session"
	"github.com/natshell-dev/natshell/pkg/tools"
)

var rootCmd = &cobra.Command{
	Use:           "natshell",
	Short:         "An interactive natural-language shell",
	Long:          "natshell turns natural-language requests into gated tool calls against your real shell and filesystem, backed by a local or remote inference engine.",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runRoot,
}

func init() {
	flags := rootCmd.Flags()
	flags.String("model", "", "use the given local model file")
	flags.String("remote", "", "use an OpenAI-compatible endpoint")
	flags.String("remote-model", "", "model id on that endpoint")
	flags.Bool("download", false, "fetch the default model and exit")
	flags.String("config", "", "alternate config file")
	flags.Bool("verbose", false, "debug logging")
	flags.String("headless", "", "single-shot: run one prompt and exit")
	flags.Bool("danger-fast", false, "auto-approve confirmations (headless only)")
	flags.Bool("mcp", false, "run as a JSON-RPC tool server over stdin/stdout")
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{msg: err.Error()}
	})
}

// Execute runs the natshell command, returning a *usageError for invalid
// invocations (mapped to exit code 2) and any other error for exit code 1.
func Execute() error {
	return rootCmd.Execute()
}

func runRoot(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	model, _ := flags.GetString("model")
	remoteURL, _ := flags.GetString("remote")
	remoteModel, _ := flags.GetString("remote-model")
	download, _ := flags.GetBool("download")
	configPath, _ := flags.GetString("config")
	verbose, _ := flags.GetBool("verbose")
	headlessPrompt, _ := flags.GetString("headless")
	dangerFast, _ := flags.GetBool("danger-fast")
	mcpMode, _ := flags.GetBool("mcp")

	if dangerFast && headlessPrompt == "" {
		return &usageError{msg: "--danger-fast is only valid together with --headless"}
	}

	if mcpMode {
		return mcp.UnsupportedStub{}.Serve(os.Stdin, os.Stdout)
	}

	if configPath == "" {
		configPath = config.DefaultConfigPath()
	}
	cfg, warning, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if warning != "" {
		fmt.Fprintln(os.Stderr, warning)
	}

	logger := logging.Get(logging.Options{Verbose: verbose})
	defer logger.Close()

	if download {
		return runDownload(cfg)
	}

	policy, err := config.BuildPolicy(cfg)
	if err != nil {
		return fmt.Errorf("building safety policy: %w", err)
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, _ := os.UserHomeDir()
		dataHome = filepath.Join(home, ".local", "share")
	}
	sessionsDir := filepath.Join(dataHome, "natshell", "sessions")
	backupsDir := cfg.Backup.Dir
	if backupsDir == "" {
		backupsDir = filepath.Join(dataHome, "natshell", "backups")
	}

	store, err := session.NewStore(sessionsDir)
	if err != nil {
		return fmt.Errorf("opening session store: %w", err)
	}
	backups, err := session.NewBackupStore(backupsDir, cfg.Backup.MaxPerFile)
	if err != nil {
		return fmt.Errorf("opening backup store: %w", err)
	}

	eng, err := buildEngine(cfg, model, remoteURL, remoteModel)
	if err != nil {
		return err
	}

	sudoCache := tools.NewSudoCredentialCache()
	registry, err := tools.RegisterBuiltins(tools.BuiltinDeps{
		Tracker:          tools.NewFileReadTracker(),
		Backups:          backups,
		SudoCache:        sudoCache,
		Policy:           policy,
		OutputCapForCall: func() int { return tools.OutputCapForContextWindow(eng.ContextWindow()) },
	})
	if err != nil {
		return fmt.Errorf("registering tools: %w", err)
	}

	sysInfo, err := agent.ShellSystemInfoProvider{}.Gather()
	if err != nil {
		return fmt.Errorf("gathering system info: %w", err)
	}
	systemPrompt := agent.BuildSystemPrompt(sysInfo, registry.Schemas(), "")

	loop := &agent.Loop{
		Engine:      eng,
		Executor:    tools.NewExecutor(registry),
		Registry:    registry,
		Policy:      policy,
		SudoCache:   sudoCache,
		SudoAsk:     func(ctx context.Context) (string, error) { return tools.PromptSudoPassword("sudo password: ") },
		AgentConfig: cfg.Agent,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if headlessPrompt != "" {
		return runHeadless(ctx, loop, systemPrompt, headlessPrompt, dangerFast, os.Stdout, os.Stderr)
	}

	conv := conversationWithSystemPrompt(systemPrompt)
	return runInteractive(ctx, loop, conv, store, os.Stdin, os.Stdout)
}

// runDownload fetches the default model and exits; the download
// mechanism itself is the local engine's Ollama client pulling the
// configured model name.
func runDownload(cfg *config.Config) error {
	modelName := cfg.Model.Path
	if modelName == "" || modelName == "auto" {
		modelName = "llama3:8b"
	}
	return pullModel(modelName)
}
