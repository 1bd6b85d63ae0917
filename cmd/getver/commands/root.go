// Package commands implements the command line interface for getver.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/spf13/cobra"
	"go.trai.ch/getver/internal/app"
	"go.trai.ch/getver/internal/build"
	"go.trai.ch/getver/internal/core/domain"
)

// CLI represents the command line interface for getver.
type CLI struct {
	app     Application
	rootCmd *cobra.Command
}

// Application represents the application logic interface.
type Application interface {
	Run(ctx context.Context, names []string, opts app.RunOptions) error
}

// UsageError reports a malformed command line. It unwraps to a domain sentinel.
type UsageError struct {
	msg   string
	cause error
}

func (e *UsageError) Error() string { return e.msg }

func (e *UsageError) Unwrap() error { return e.cause }

func unexpectedArgument(arg string) *UsageError {
	return &UsageError{
		msg:   fmt.Sprintf("unexpected argument '%s' found", arg),
		cause: domain.ErrUnexpectedArgument,
	}
}

var (
	unknownFlagRe      = regexp.MustCompile(`^unknown flag: (\S+)`)
	unknownShorthandRe = regexp.MustCompile(`^unknown shorthand flag: '(.)'`)
)

// flagError maps pflag parse failures onto usage errors.
func flagError(_ *cobra.Command, err error) error {
	msg := err.Error()
	if m := unknownFlagRe.FindStringSubmatch(msg); m != nil {
		return unexpectedArgument(m[1])
	}
	if m := unknownShorthandRe.FindStringSubmatch(msg); m != nil {
		return unexpectedArgument("-" + m[1])
	}
	return &UsageError{msg: msg, cause: errors.Join(domain.ErrInvalidFlag, err)}
}

// rejectDashArgs refuses positional arguments that look like options.
func rejectDashArgs(_ *cobra.Command, args []string) error {
	for _, arg := range args {
		if strings.HasPrefix(arg, "-") {
			return unexpectedArgument(arg)
		}
	}
	return nil
}

// New creates a new CLI instance with the given app.
func New(a Application) *CLI {
	c := &CLI{app: a}

	rootCmd := &cobra.Command{
		Use:   "getver [options] name...",
		Short: "Print the latest published version of packages",
		Long: "getver looks up each named package in a registry (crates.io by default)\n" +
			"and prints its latest version. Lookups run concurrently.",
		Example:       "  getver serde tokio\n  getver --output json rand",
		Args:          rejectDashArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
		RunE:          c.run,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"{{.Name}} version {{.Version}} (commit: %s, date: %s)\n",
		build.Commit,
		build.Date,
	))
	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help"

	flags := rootCmd.Flags()
	flags.IntP("concurrency", "j", 0, "Maximum lookups in flight (0 = default 8, -1 = unbounded)")
	flags.DurationP("timeout", "t", domain.DefaultTimeout, "Timeout for a single lookup")
	flags.StringP("registry", "r", "", "Registry base URL (default \""+domain.DefaultRegistryURL+"\")")
	flags.String("resource", "", "Registry resource path segment (default \""+domain.DefaultResource+"\")")
	flags.StringP("output", "o", "", "Output format: text or json (default \"text\")")
	flags.StringP("config", "c", "", "Path to a config file")
	flags.String("trace", "", "Trace exporter: none, stdout, file or otlp")
	flags.Bool("verbose", false, "Enable debug logging")
	flags.Bool("log-json", false, "Write logs as JSON")

	rootCmd.SetFlagErrorFunc(flagError)

	c.rootCmd = rootCmd
	return c
}

func (c *CLI) run(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		// Display command usage help without returning an error
		_ = cmd.Help()
		return nil
	}

	flags := cmd.Flags()

	var opts app.RunOptions
	opts.ConfigPath, _ = flags.GetString("config")
	opts.Registry, _ = flags.GetString("registry")
	opts.Resource, _ = flags.GetString("resource")
	opts.Output, _ = flags.GetString("output")
	opts.Trace, _ = flags.GetString("trace")
	opts.Verbose, _ = flags.GetBool("verbose")
	opts.LogJSON, _ = flags.GetBool("log-json")

	if flags.Changed("concurrency") {
		concurrency, _ := flags.GetInt("concurrency")
		opts.Concurrency = &concurrency
	}
	if flags.Changed("timeout") {
		timeout, _ := flags.GetDuration("timeout")
		opts.Timeout = &timeout
	}

	return c.app.Run(cmd.Context(), args, opts)
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}

// UseLine returns the one-line usage summary.
func (c *CLI) UseLine() string {
	return c.rootCmd.UseLine()
}
