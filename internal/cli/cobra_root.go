package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"embedd/internal/backend"
	"embedd/internal/config"
)

// options collects the persistent flags. Only flags the user actually set
// override file and environment values.
type options struct {
	configPath    string
	dotenv        string
	addr          string
	backend       string
	modelPath     string
	device        string
	logLevel      string
	logFormat     string
	idleTimeout   int
	checkInterval int
}

// buildRootCmdWith constructs the command tree. Running the root without a
// subcommand serves HTTP.
func buildRootCmdWith(o *options) *cobra.Command {
	root := &cobra.Command{
		Use:           "embedd",
		Short:         "Text embedding server with lazy model loading and idle unload",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, o)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&o.configPath, "config", "c", "", "Path to config file (.yaml, .json or .toml)")
	pf.StringVar(&o.dotenv, "env-file", ".env", "Dotenv file read before the environment (missing is fine)")
	pf.StringVar(&o.addr, "addr", config.DefaultAddr, "HTTP listen address")
	pf.StringVar(&o.backend, "backend", config.DefaultBackend, "Model backend: llama|onnx|remote|hash")
	pf.StringVar(&o.modelPath, "model-path", "", "Path to the model weights (.gguf or .onnx)")
	pf.StringVar(&o.device, "device", config.DefaultDevice, "Device: cpu|cuda|auto")
	pf.StringVar(&o.logLevel, "log-level", config.DefaultLogLevel, "Log level: debug|info|warn|error")
	pf.StringVar(&o.logFormat, "log-format", "json", "Log format: json|console")
	pf.IntVar(&o.idleTimeout, "idle-timeout", config.DefaultIdleTimeoutSeconds, "Seconds of inactivity before the model is unloaded (0 disables)")
	pf.IntVar(&o.checkInterval, "check-interval", config.DefaultCheckIntervalSeconds, "Seconds between idle checks")

	serveCmd := &cobra.Command{
		Use:     "serve",
		Short:   "Serve the HTTP API (default)",
		Example: "  embedd serve --backend llama --model-path ~/models/nomic-embed-text-v1.5.f16.gguf",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, o)
		},
	}
	root.AddCommand(serveCmd, buildEmbedCmd(o), buildVersionCmd())
	return root
}

func buildVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and compiled backends",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "embedd %s\n", Version)
			for _, b := range config.Backends {
				state := "no"
				if backend.Compiled(b) {
					state = "yes"
				}
				fmt.Fprintf(out, "  %-7s %s\n", b+":", state)
			}
			return nil
		},
	}
}

// loadConfig resolves the effective config: file, then dotenv and
// environment, then explicitly set flags, then defaults.
func loadConfig(cmd *cobra.Command, o *options) (config.Config, error) {
	var cfg config.Config
	if o.configPath != "" {
		c, err := config.Load(o.configPath)
		if err != nil {
			return cfg, fmt.Errorf("load config: %w", err)
		}
		cfg = c
	}
	cfg, err := config.FromEnv(cfg, o.dotenv)
	if err != nil {
		return cfg, err
	}
	flags := cmd.Flags()
	if flags.Changed("addr") {
		cfg.Addr = o.addr
	}
	if flags.Changed("backend") {
		cfg.Backend = o.backend
	}
	if flags.Changed("model-path") {
		cfg.ModelPath = o.modelPath
	}
	if flags.Changed("device") {
		cfg.Device = o.device
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = o.logLevel
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = o.logFormat
	}
	if flags.Changed("idle-timeout") {
		cfg.IdleTimeoutSeconds = config.Seconds(o.idleTimeout)
	}
	if flags.Changed("check-interval") {
		cfg.CheckIntervalSeconds = o.checkInterval
	}
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
