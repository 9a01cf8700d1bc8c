package shell

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/javanstorm/guestshell/internal/image"
	"github.com/javanstorm/guestshell/internal/version"
	"github.com/javanstorm/guestshell/pkg/guestfs"
)

type command struct {
	name    string
	aliases []string
	usage   string
	summary string
	minArgs int
	maxArgs int
	run     func(ctx context.Context, s *Shell, args []string) error
}

var (
	commands []*command
	byName   = make(map[string]*command)
)

func init() {
	register(
		// Builtins
		&command{name: "help", usage: "help [cmd]", summary: "display a list of commands or help on a command", maxArgs: 1, run: cmdHelp},
		&command{name: "quit", aliases: []string{"exit", "q"}, usage: "quit", summary: "quit guestshell", run: cmdQuit},
		&command{name: "add", aliases: []string{"drive", "add-drive"}, usage: "add <image>", summary: "add a guest image to be examined or modified", minArgs: 1, maxArgs: 1, run: cmdAdd},
		&command{name: "add-ro", usage: "add-ro <image>", summary: "add a guest image read-only", minArgs: 1, maxArgs: 1, run: cmdAddRO},
		&command{name: "cdrom", usage: "cdrom <iso-file>", summary: "add a CD-ROM image to be examined", minArgs: 1, maxArgs: 1, run: cmdCDROM},
		&command{name: "launch", aliases: []string{"run"}, usage: "launch", summary: "launch the backend session", run: cmdLaunch},
		&command{name: "sparse", usage: "sparse <file> <size>", summary: "create a new sparse disk image and add it", minArgs: 2, maxArgs: 2, run: cmdSparse},

		// Handle actions
		&command{name: "list-devices", usage: "list-devices", summary: "list the block devices", run: cmdListDevices},
		&command{name: "list-drives", usage: "list-drives", summary: "list the added drive images", run: cmdListDrives},
		&command{name: "mount", usage: "mount <device> <mountpoint>", summary: "mount a guest disk at a position in the filesystem", minArgs: 2, maxArgs: 2, run: cmdMount},
		&command{name: "mounts", usage: "mounts", summary: "show mounted filesystems", run: cmdMounts},
		&command{name: "umount", aliases: []string{"unmount"}, usage: "umount <mountpoint>", summary: "unmount a filesystem", minArgs: 1, maxArgs: 1, run: cmdUmount},
		&command{name: "umount-all", aliases: []string{"unmount-all"}, usage: "umount-all", summary: "unmount all filesystems", run: cmdUmountAll},
		&command{name: "sync", usage: "sync", summary: "sync disks, writes are flushed through to the disk image", run: cmdSync},
		&command{name: "is-ready", usage: "is-ready", summary: "is ready to accept commands", run: cmdIsReady},
		&command{name: "get-state", usage: "get-state", summary: "get the handle state", run: cmdGetState},
		&command{name: "get-backend", usage: "get-backend", summary: "get the backend serving this handle", run: cmdGetBackend},
		&command{name: "version", usage: "version", summary: "print the guestshell version", run: cmdVersion},
		&command{name: "get-identifier", usage: "get-identifier", summary: "get the handle identifier", run: cmdGetIdentifier},
		&command{name: "get-verbose", usage: "get-verbose", summary: "get verbose mode", run: boolGetter(func(s *Shell) bool { return s.h.Verbose() })},
		&command{name: "set-verbose", usage: "set-verbose <true|false>", summary: "set verbose mode", minArgs: 1, maxArgs: 1, run: boolSetter(func(s *Shell, v bool) error { return s.h.SetVerbose(v) })},
		&command{name: "get-autosync", usage: "get-autosync", summary: "get autosync mode", run: boolGetter(func(s *Shell) bool { return s.h.Autosync() })},
		&command{name: "set-autosync", usage: "set-autosync <true|false>", summary: "set autosync mode", minArgs: 1, maxArgs: 1, run: boolSetter(func(s *Shell, v bool) error { return s.h.SetAutosync(v) })},
		&command{name: "get-trace", usage: "get-trace", summary: "get command trace enabled flag", run: boolGetter(func(s *Shell) bool { return s.h.Trace() })},
		&command{name: "set-trace", usage: "set-trace <true|false>", summary: "enable or disable command traces", minArgs: 1, maxArgs: 1, run: boolSetter(func(s *Shell, v bool) error { return s.h.SetTrace(v) })},
	)
}

func register(cmds ...*command) {
	for _, c := range cmds {
		commands = append(commands, c)
		byName[c.name] = c
		for _, a := range c.aliases {
			byName[a] = c
		}
	}
	sort.Slice(commands, func(i, j int) bool { return commands[i].name < commands[j].name })
}

// normalizeName makes lookups case-insensitive and treats '_' like '-'.
func normalizeName(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), "_", "-")
}

func lookup(name string) (*command, bool) {
	c, ok := byName[normalizeName(name)]
	return c, ok
}

// Commands returns the sorted list of command names.
func Commands() []string {
	names := make([]string, len(commands))
	for i, c := range commands {
		names[i] = c.name
	}
	return names
}

// ListCommands writes a one-line summary of every command.
func (s *Shell) ListCommands() {
	for _, c := range commands {
		fmt.Fprintf(s.out, "%-20s %s\n", c.name, c.summary)
	}
	fmt.Fprintln(s.out, "Use 'help <cmd>' to display detailed help on a command.")
}

// DisplayCommand writes detailed help for one command.
func (s *Shell) DisplayCommand(name string) error {
	c, ok := lookup(name)
	if !ok {
		return fmt.Errorf("%s: command not known, use 'help' to list all commands", name)
	}
	fmt.Fprintf(s.out, "%s - %s\n     %s\n", c.name, c.summary, c.usage)
	if len(c.aliases) > 0 {
		fmt.Fprintf(s.out, "     aliases: %s\n", strings.Join(c.aliases, ", "))
	}
	return nil
}

func cmdHelp(ctx context.Context, s *Shell, args []string) error {
	if len(args) == 0 {
		s.ListCommands()
		return nil
	}
	return s.DisplayCommand(args[0])
}

func cmdQuit(ctx context.Context, s *Shell, args []string) error {
	s.quit = true
	return nil
}

func cmdAdd(ctx context.Context, s *Shell, args []string) error {
	return s.h.AddDrive(args[0], false)
}

func cmdAddRO(ctx context.Context, s *Shell, args []string) error {
	return s.h.AddDrive(args[0], true)
}

func cmdCDROM(ctx context.Context, s *Shell, args []string) error {
	return s.h.AddCDROM(args[0])
}

func cmdLaunch(ctx context.Context, s *Shell, args []string) error {
	return s.h.Launch(ctx)
}

func cmdSparse(ctx context.Context, s *Shell, args []string) error {
	size, err := image.ParseSize(args[1])
	if err != nil {
		return fmt.Errorf("sparse: %w", err)
	}
	if image.Exists(args[0]) {
		return fmt.Errorf("sparse: %s already exists", args[0])
	}
	if err := image.CreateSparse(args[0], size); err != nil {
		return fmt.Errorf("sparse: %w", err)
	}
	return s.h.AddDrive(args[0], false)
}

func cmdListDevices(ctx context.Context, s *Shell, args []string) error {
	devices, err := s.h.ListDevices()
	if err != nil {
		return err
	}
	for _, d := range devices {
		fmt.Fprintln(s.out, d)
	}
	return nil
}

func cmdListDrives(ctx context.Context, s *Shell, args []string) error {
	for i, d := range s.h.Drives() {
		mode := "rw"
		if d.ReadOnly {
			mode = "ro"
		}
		fmt.Fprintf(s.out, "%d: %s (%s, %s)\n", i, d.Path, d.Kind, mode)
	}
	return nil
}

func cmdMount(ctx context.Context, s *Shell, args []string) error {
	return s.h.Mount(ctx, args[0], args[1])
}

func cmdMounts(ctx context.Context, s *Shell, args []string) error {
	mounts, err := s.h.Mounts()
	if err != nil {
		return err
	}
	for _, m := range mounts {
		fmt.Fprintf(s.out, "%s on %s", m.Device, m.Mountpoint)
		if m.ReadOnly {
			fmt.Fprint(s.out, " (ro)")
		}
		fmt.Fprintln(s.out)
	}
	return nil
}

func cmdUmount(ctx context.Context, s *Shell, args []string) error {
	return s.h.Umount(ctx, args[0])
}

func cmdUmountAll(ctx context.Context, s *Shell, args []string) error {
	return s.h.UmountAll(ctx)
}

func cmdSync(ctx context.Context, s *Shell, args []string) error {
	return s.h.Sync(ctx)
}

func cmdIsReady(ctx context.Context, s *Shell, args []string) error {
	fmt.Fprintln(s.out, s.h.State() == guestfs.StateReady)
	return nil
}

func cmdGetState(ctx context.Context, s *Shell, args []string) error {
	fmt.Fprintln(s.out, s.h.State())
	return nil
}

func cmdGetBackend(ctx context.Context, s *Shell, args []string) error {
	fmt.Fprintln(s.out, s.h.Backend())
	return nil
}

func cmdVersion(ctx context.Context, s *Shell, args []string) error {
	fmt.Fprintln(s.out, version.String())
	return nil
}

func cmdGetIdentifier(ctx context.Context, s *Shell, args []string) error {
	fmt.Fprintln(s.out, s.h.ID())
	return nil
}

func boolGetter(get func(s *Shell) bool) func(context.Context, *Shell, []string) error {
	return func(ctx context.Context, s *Shell, args []string) error {
		fmt.Fprintln(s.out, get(s))
		return nil
	}
}

func boolSetter(set func(s *Shell, v bool) error) func(context.Context, *Shell, []string) error {
	return func(ctx context.Context, s *Shell, args []string) error {
		v, err := parseBool(args[0])
		if err != nil {
			return err
		}
		return set(s, v)
	}
}

// parseBool accepts the usual spellings: true/false, yes/no, on/off, 1/0.
func parseBool(raw string) (bool, error) {
	switch strings.ToLower(raw) {
	case "yes", "y", "on":
		return true, nil
	case "no", "n", "off":
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%q: expecting a boolean (true or false)", raw)
	}
	return v, nil
}
