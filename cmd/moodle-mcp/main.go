package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/moodlemcp/callbacks"
	"github.com/effective-security/moodlemcp/config"
	"github.com/effective-security/moodlemcp/dispatch"
	"github.com/effective-security/moodlemcp/resolver"
	"github.com/effective-security/xlog"
	"github.com/spf13/cobra"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/moodlemcp", "cmd")

// Version is set by the build
var Version = "dev"

type cli struct {
	configFile string
	logLevel   string
	verbose    bool

	cfg *config.Config
}

func newRootCommand() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:           "moodle-mcp",
		Short:         "MCP server exposing Moodle courses and activities as tools",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&c.configFile, "config", "c", "", "Configuration file, YAML or JSON")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "Log level: TRACE|DEBUG|INFO|NOTICE|WARNING|ERROR|CRITICAL")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Verbose output")

	root.AddCommand(newServeCommand(c))
	root.AddCommand(newToolsCommand(c))
	root.AddCommand(newCallCommand(c))
	return root
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		os.Exit(1)
	}
}

// initialize loads the configuration and sets up logging,
// the logs go to stderr as stdout may carry the protocol.
func (c *cli) initialize(stderr io.Writer) error {
	cfg, err := config.Load(c.configFile)
	if err != nil {
		return err
	}
	if c.logLevel != "" {
		cfg.LogLevel = strings.ToUpper(c.logLevel)
	}
	if err := setLogLevel(cfg.LogLevel); err != nil {
		return err
	}
	xlog.SetFormatter(xlog.NewStringFormatter(stderr))
	c.cfg = cfg
	return nil
}

// dispatcher returns the tool dispatcher for the configured site
func (c *cli) dispatcher(cb dispatch.Callback) (*dispatch.Dispatcher, error) {
	if err := c.cfg.Validate(); err != nil {
		return nil, err
	}
	hc, err := c.cfg.HTTPClient()
	if err != nil {
		return nil, err
	}
	return dispatch.New(
		dispatch.NewClientFactory(c.cfg.MoodleURL, hc),
		dispatch.WithResolver(resolver.New(resolver.WithForumPageSize(c.cfg.ForumPageSize))),
		dispatch.WithCallback(callbacks.NewFanout(cb, callbacks.NewPackageLogger(logger))),
	)
}

func setLogLevel(level string) error {
	switch level {
	case "TRACE":
		xlog.SetGlobalLogLevel(xlog.TRACE)
	case "DEBUG":
		xlog.SetGlobalLogLevel(xlog.DEBUG)
	case "INFO":
		xlog.SetGlobalLogLevel(xlog.INFO)
	case "NOTICE":
		xlog.SetGlobalLogLevel(xlog.NOTICE)
	case "WARNING":
		xlog.SetGlobalLogLevel(xlog.WARNING)
	case "ERROR":
		xlog.SetGlobalLogLevel(xlog.ERROR)
	case "CRITICAL":
		xlog.SetGlobalLogLevel(xlog.CRITICAL)
	default:
		return errors.Errorf("invalid log level: %q", level)
	}
	return nil
}
