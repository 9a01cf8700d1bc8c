// Package cli provides the command-line interface for guestshell.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/javanstorm/guestshell/internal/config"
	"github.com/javanstorm/guestshell/internal/logging"
	"github.com/javanstorm/guestshell/internal/shell"
	"github.com/javanstorm/guestshell/internal/version"
	"github.com/javanstorm/guestshell/pkg/guestfs"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// listAllCommands is the --cmd-help value used when no command is named.
const listAllCommands = "*"

var (
	addImages  []string
	mountSpecs []string
	readOnly   bool
	noSync     bool
	verbosity  int
	cmdHelp    string
)

// NewRootCommand builds the guestshell command and binds its flags.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "guestshell [flags] [cmd [args] [: cmd [args] ...]]",
		Short: "guestshell - disk image shell",
		Long: `guestshell lets you examine and modify virtual machine disk images.

Commands can be given on the command line, separated by ':', read from a
script on stdin, or typed interactively when stdin is a terminal:

  guestshell -a disk.img launch : list-devices
  guestshell -a disk.img -m /dev/sda1 mounts
  guestshell < script

-h/--cmd-help lists the shell commands; --help shows this text.`,
		Version:       version.Version,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runRoot,
	}
	cmd.SetVersionTemplate(versionTemplate())

	flags := cmd.Flags()
	flags.SetInterspersed(false)
	// -h belongs to --cmd-help, so --help is declared here without a shorthand.
	flags.Bool("help", false, "help for guestshell")
	flags.StringArrayVarP(&addImages, "add", "a", nil, "add image (repeatable)")
	flags.StringArrayVarP(&mountSpecs, "mount", "m", nil, "mount dev on mnt, given as dev[:mnt] (if mnt is omitted, /)")
	flags.BoolVarP(&readOnly, "ro", "r", false, "add images read-only")
	flags.BoolVarP(&noSync, "no-sync", "n", false, "don't autosync")
	flags.CountVarP(&verbosity, "verbose", "v", "verbose messages (repeat for more)")
	flags.StringVarP(&cmdHelp, "cmd-help", "h", "", "list available commands, or display detailed help on one")
	flags.Lookup("cmd-help").NoOptDefVal = listAllCommands

	return cmd
}

// Execute runs the root command.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		return fmt.Errorf("command failed: %w", err)
	}
	return nil
}

func runRoot(cmd *cobra.Command, args []string) (err error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()

	if cmdHelp != "" {
		help := shell.New(nil, out, errOut)
		switch {
		case cmdHelp != listAllCommands:
			return help.DisplayCommand(cmdHelp)
		case len(args) > 0:
			return help.DisplayCommand(args[0])
		default:
			help.ListCommands()
			return nil
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.New(errOut, logging.Options{
		Level:   cfg.LogLevel,
		Verbose: verbosity,
		NoColor: cfg.LogNoColor,
	})

	mgr, err := guestfs.NewManager(guestfs.ManagerConfig{
		Backend:    cfg.Backend,
		MaxHandles: cfg.MaxHandles,
		WorkDir:    cfg.WorkDir,
		Logger:     &logger,
	})
	if err != nil {
		return fmt.Errorf("create handle manager: %w", err)
	}

	// Handle creation is lightweight, so do it before anything else.
	g, err := mgr.CreateContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to create handle: %w", err)
	}
	defer func() {
		if closeErr := g.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close handle: %w", closeErr))
		}
	}()

	if err := g.SetAutosync(cfg.Autosync && !noSync); err != nil {
		return err
	}
	if err := g.SetVerbose(verbosity > 0); err != nil {
		return err
	}

	for _, img := range addImages {
		if err := g.AddDrive(img, readOnly); err != nil {
			return err
		}
	}

	// If we've got mountpoints, we must launch and mount them.
	mounts, err := parseMountSpecs(mountSpecs)
	if err != nil {
		return err
	}
	if mounts.Length() > 0 {
		if err := g.Launch(ctx); err != nil {
			return err
		}
		if err := mountAll(ctx, g, mounts); err != nil {
			return err
		}
	}

	sh := shell.New(g, out, errOut)
	if len(args) == 0 {
		in := cmd.InOrStdin()
		return sh.Run(ctx, in, isTerminal(in))
	}
	return sh.RunCommandLine(ctx, args)
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
