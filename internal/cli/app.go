// Package cli provides the command-line interface of toolbelt
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/toolbelt/callbacks"
	"github.com/effective-security/toolbelt/config"
	"github.com/effective-security/toolbelt/mcp"
	"github.com/effective-security/toolbelt/mcp/httptransport"
	"github.com/effective-security/toolbelt/tools"
	"github.com/effective-security/xlog"
	"github.com/spf13/cobra"
	"github.com/tidwall/sjson"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/toolbelt", "cli")

// Version information set at build time.
var (
	Version   = "dev"
	GitCommit = "unknown"
)

// App represents the CLI application.
type App struct {
	root   *cobra.Command
	stdout io.Writer
	stderr io.Writer

	configPath string
	debug      bool
}

// New creates the CLI application.
func New() *App {
	app := &App{
		stdout: os.Stdout,
		stderr: os.Stderr,
	}

	app.root = &cobra.Command{
		Use:   "toolbelt",
		Short: "Agent tools served over MCP",
		Long: `toolbelt exposes web search, recipe scraping, ingredient extraction,
a shopping basket and mock travel booking as tools for LLM agents.

The tools are served over MCP via stdio or HTTP, or called directly.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			// stdout is reserved for MCP stdio transport and command output
			xlog.SetFormatter(xlog.NewStringFormatter(app.stderr))
			if app.debug {
				xlog.SetGlobalLogLevel(xlog.DEBUG)
			} else {
				xlog.SetGlobalLogLevel(xlog.WARNING)
			}
		},
	}
	app.root.PersistentFlags().StringVarP(&app.configPath, "config", "c", "", "Path to configuration file")
	app.root.PersistentFlags().BoolVar(&app.debug, "debug", false, "Enable debug logs")

	app.root.AddCommand(
		app.newVersionCmd(),
		app.newServeCmd(),
		app.newToolsCmd(),
		app.newCallCmd(),
	)
	return app
}

// WithOutput sets custom output writers.
func (a *App) WithOutput(stdout, stderr io.Writer) *App {
	a.stdout = stdout
	a.stderr = stderr
	a.root.SetOut(stdout)
	a.root.SetErr(stderr)
	return a
}

// Execute runs the CLI application.
func (a *App) Execute(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return a.root.ExecuteContext(ctx)
}

// ExecuteWithArgs runs the CLI with specific arguments (useful for testing).
func (a *App) ExecuteWithArgs(ctx context.Context, args []string) error {
	a.root.SetArgs(args)
	return a.Execute(ctx)
}

func (a *App) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(a.stdout, "toolbelt version %s (%s)\n", Version, GitCommit)
		},
	}
}

type serveOptions struct {
	transport string
	addr      string
}

func (a *App) newServeCmd() *cobra.Command {
	opts := &serveOptions{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the tools over MCP",
		Long: `Serve the tools over MCP.

Examples:
  # Serve over stdio for a local agent
  toolbelt serve -c toolbelt.yaml

  # Serve over HTTP on :8080/mcp
  toolbelt serve -c toolbelt.yaml --transport http --addr :8080`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.transport, "transport", "", "MCP transport: stdio|http (overrides config)")
	cmd.Flags().StringVar(&opts.addr, "addr", "", "Listen address of http transport (overrides config)")
	return cmd
}

func (a *App) serve(ctx context.Context, opts *serveOptions) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	if opts.transport != "" {
		cfg.Server.Transport = opts.transport
	}
	if opts.addr != "" {
		cfg.Server.Addr = opts.addr
	}
	if err = cfg.Validate(); err != nil {
		return err
	}

	box, closer, err := NewToolbox(ctx, cfg)
	if err != nil {
		return err
	}
	defer closer()

	info := mcp.Info{Name: cfg.Server.Name, Version: cfg.Server.Version}
	var srv *mcp.Server
	if cfg.Server.Transport == config.TransportHTTP {
		tr := httptransport.New(cfg.Server.Endpoint).WithAddr(cfg.Server.Addr)
		srv, err = mcp.NewServer(info, box, tr)
	} else {
		srv, err = mcp.NewStdioServer(info, box)
	}
	if err != nil {
		return err
	}
	return srv.Run(ctx)
}

func (a *App) newToolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List the enabled tools with their parameters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			box, closer, err := NewToolbox(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closer()

			fmt.Fprintln(a.stdout, tools.GetDefinitions(box.List()...))
			return nil
		},
	}
}

type callOptions struct {
	set   []string
	trace bool
}

func (a *App) newCallCmd() *cobra.Command {
	opts := &callOptions{}
	cmd := &cobra.Command{
		Use:   "call <tool> [json]",
		Short: "Call a tool and print the JSON result",
		Long: `Call a tool and print the JSON result.

Examples:
  toolbelt call view_basket '{"user_id":"u1"}'

  # Build the input with --set, path=string or path:=json
  toolbelt call add_to_basket --set user_id=42 \
    --set 'ingredients:=[{"quantity":"2","unit":"cups","name":"flour"}]'`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := "{}"
			if len(args) > 1 {
				input = args[1]
			}
			return a.call(cmd.Context(), args[0], input, opts)
		},
	}
	cmd.Flags().StringArrayVar(&opts.set, "set", nil, "Set input value, path=string or path:=json")
	cmd.Flags().BoolVar(&opts.trace, "trace", false, "Print the tool call events to stderr, with the output when --debug")
	return cmd
}

func (a *App) call(ctx context.Context, name, input string, opts *callOptions) error {
	input, err := SetValues(input, opts.set...)
	if err != nil {
		return err
	}

	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	box, closer, err := NewToolbox(ctx, cfg)
	if err != nil {
		return err
	}
	defer closer()

	if opts.trace {
		mode := callbacks.ModeDefault
		if a.debug {
			mode = callbacks.ModeVerbose
		}
		box.WithCallback(callbacks.NewFanout(callbacks.NewLogger(), callbacks.NewPrinter(a.stderr, mode)))
	}

	res, err := box.Call(ctx, name, input)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, res)
	return nil
}

func (a *App) loadConfig() (*config.Config, error) {
	return config.Load(a.configPath)
}

// SetValues sets the pairs in the JSON input:
// path=value sets the string, path:=json sets the raw JSON value.
func SetValues(input string, values ...string) (string, error) {
	var err error
	for _, kv := range values {
		path, value, ok := strings.Cut(kv, "=")
		raw := strings.HasSuffix(path, ":")
		path = strings.TrimSuffix(path, ":")
		if !ok || path == "" {
			return "", errors.Errorf("invalid value, expected path=value or path:=json: %s", kv)
		}
		if raw {
			if !json.Valid([]byte(value)) {
				return "", errors.Errorf("invalid JSON value of %s: %s", path, value)
			}
			input, err = sjson.SetRaw(input, path, value)
		} else {
			input, err = sjson.Set(input, path, value)
		}
		if err != nil {
			return "", errors.Wrapf(err, "failed to set %s", path)
		}
	}
	return input, nil
}
