// Package cli implements the entryface command-line interface.
package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/golang/glog"
	"github.com/spf13/cobra"

	"github.com/englishaccelerators/language-creator/internal/config"
	"github.com/englishaccelerators/language-creator/internal/paths"
	"github.com/englishaccelerators/language-creator/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// exitError carries the exit code a failed command should produce.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

// userErr marks err as caused by bad input.
func userErr(err error) error { return &exitError{code: exitUserError, err: err} }

// sysErr marks err as an environment or storage fault.
func sysErr(err error) error { return &exitError{code: exitSysError, err: err} }

// exitCode maps err to a process exit code. Lookup errors count as user
// errors; anything unclassified is a system error.
func exitCode(err error) int {
	var ee *exitError
	switch {
	case err == nil:
		return exitSuccess
	case errors.As(err, &ee):
		return ee.code
	case errors.Is(err, types.ErrSequenceNotFound),
		errors.Is(err, types.ErrBlockNotFound),
		errors.Is(err, types.ErrRowNotFound),
		errors.Is(err, types.ErrTokenIndex):
		return exitUserError
	default:
		return exitSysError
	}
}

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	reason    string
	jsonMode  bool
}

// app is the state shared by the commands of one invocation.
type app struct {
	flags     rootFlags
	configDir string
	cfg       config.Config
	out       io.Writer
	errOut    io.Writer
}

// NewRootCmd creates the top-level "entryface" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "entryface",
		Short: "Compose dictionary entries and sync them to the text store",
		Long: "entryface composes entry rows for catalog sequences, exports them as CSV or\n" +
			"spreadsheets, and saves them to the remote text store or a local queue.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.out, a.errOut = cmd.OutOrStdout(), cmd.ErrOrStderr()
			if cmd.Name() == "version" {
				return nil
			}
			return a.loadConfig()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: per-user config dir)")
	pf.StringVar(&a.flags.dataDir, "data-dir", "", "data directory (default: .entryface-db)")
	pf.StringVar(&a.flags.reason, "reason", "default", "reason (page) slug that namespaces stored data")
	pf.BoolVar(&a.flags.jsonMode, "json", false, "output in JSON format")
	pf.AddGoFlagSet(flag.CommandLine)

	root.AddCommand(
		newVersionCmd(),
		newInitCmd(a),
		newCatalogCmd(a),
		newSeqCmd(a),
		newBlockCmd(a),
		newDecCmd(a),
		newSetCmd(a),
		newExcludeCmd(a),
		newColumnCmd(a),
		newPreviewCmd(a),
		newExportCmd(a),
		newComposeCmd(a),
		newSaveCmd(a),
		newQueueCmd(a),
		newServeCmd(a),
	)
	return root
}

// Run executes the command tree with args and returns the exit code.
func Run(args []string, stdout, stderr io.Writer) int {
	root := NewRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	err := root.Execute()
	if err != nil {
		fmt.Fprintln(stderr, "entryface:", err)
	}
	return exitCode(err)
}

// Execute runs the CLI against os.Args and exits with the resulting code.
func Execute() {
	// Log to stderr unless the operator asks for files.
	_ = flag.Set("logtostderr", "true")
	code := Run(os.Args[1:], os.Stdout, os.Stderr)
	glog.Flush()
	os.Exit(code)
}

func (a *app) loadConfig() error {
	dir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return sysErr(fmt.Errorf("resolve config dir: %w", err))
	}
	cfg, err := config.Load(dir)
	if err != nil {
		return sysErr(err)
	}
	a.configDir, a.cfg = dir, cfg
	return nil
}
