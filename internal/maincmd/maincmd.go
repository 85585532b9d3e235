package maincmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/mna/mainer"
)

const binName = "ncsdecomp"

var (
	shortUsage = fmt.Sprintf(`
usage: %s [<option>...] <command> [<path>...]
Run '%[1]s --help' for details.
`, binName)

	longUsage = fmt.Sprintf(`usage: %s [<option>...] <command> [<path>...] [-- <arg>...]
       %[1]s -h|--help
       %[1]s -v|--version

A decompiler for compiled NWScript (.ncs) bytecode, targeting the Aurora
and Odyssey engines (NWN, KOTOR, KOTOR2).

The <command> can be one of:
       decompile                 Run the full pipeline over one or more
                                 .ncs files and print the reconstructed
                                 NSS source for each.
       disassemble               Decode a .ncs file and print its flat
                                 instruction listing, one per line.
       dump-actions               Load an action-table source (typically
                                 extracted from nwscript.nss) and print
                                 its "<name>" <ret> <paramSize> debug form.

Valid flag options are:
       -h --help                 Show this help and exit.
       -v --version              Print version and exit.

Valid flag options for the <decompile> command are:
       --actions <path>          Action-table source used to resolve
                                 ACTION opcode indices to names (required
                                 unless --config supplies one).
       --game-profile <name>     Name of the action-table dialect in
                                 effect (e.g. nwn, kotor, kotor2); it is
                                 recorded but does not change the output
                                 or select the action table.
       --strict                  Reject a subroutine whose parameter or
                                 return type never converges away from
                                 "any", instead of emitting it widened.
       --prune-dead              Omit subroutines unreachable from the
                                 script's entry point from the output.
       --config <path>           YAML batch config with the keys actions,
                                 game_profile, strict, prune_dead and
                                 files. Its actions and game_profile
                                 replace the flags, strict/prune_dead are
                                 on if either side sets them, and its
                                 files are added after the command-line
                                 files.

More information on the NWScript engine opcode set this tool targets is
in the companion action-table sources shipped with each game's toolset.
`, binName)
)

type Cmd struct {
	BuildVersion string
	BuildDate    string

	Help    bool `flag:"h,help"`
	Version bool `flag:"v,version"`

	ActionsPath string `flag:"actions"`
	GameProfile string `flag:"game-profile"`
	Strict      bool   `flag:"strict"`
	PruneDead   bool   `flag:"prune-dead"`
	ConfigPath  string `flag:"config"`

	args  []string
	flags map[string]bool
	cmdFn func(context.Context, mainer.Stdio, []string) error
}

func (c *Cmd) SetArgs(args []string) {
	c.args = args
}

func (c *Cmd) SetFlags(flags map[string]bool) {
	c.flags = flags
}

func (c *Cmd) Validate() error {
	if c.Help || c.Version {
		return nil
	}

	if len(c.args) == 0 {
		return errors.New("no command specified")
	}

	cmdName := c.args[0]

	commands := buildCmds(c)
	c.cmdFn = commands[cmdName]
	if c.cmdFn == nil {
		return fmt.Errorf("unknown command: %s", c.args[0])
	}

	if len(c.args[1:]) == 0 {
		return fmt.Errorf("%s: at least one file must be provided", cmdName)
	}

	if cmdName == "decompile" {
		if c.ActionsPath == "" && c.ConfigPath == "" {
			return fmt.Errorf("%s: --actions or --config is required", cmdName)
		}
	}

	if c.flags["strict"] && cmdName != "decompile" {
		return fmt.Errorf("%s: invalid flag 'strict'", cmdName)
	}
	if c.flags["prune-dead"] && cmdName != "decompile" {
		return fmt.Errorf("%s: invalid flag 'prune-dead'", cmdName)
	}

	return nil
}

func printError(stdio mainer.Stdio, err error) error {
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "%s\n", err)
	}
	return err
}

func (c *Cmd) Main(args []string, stdio mainer.Stdio) mainer.ExitCode {
	p := mainer.Parser{
		EnvVars:   true,
		EnvPrefix: binName + "_",
	}
	if err := p.Parse(args, c); err != nil {
		fmt.Fprintf(stdio.Stderr, "invalid arguments: %s\n%s", err, shortUsage)
		return mainer.InvalidArgs
	}

	switch {
	case c.Help:
		fmt.Fprint(stdio.Stdout, longUsage)
		return mainer.Success

	case c.Version:
		fmt.Fprintf(stdio.Stdout, "%s %s %s\n", binName, c.BuildVersion, c.BuildDate)
		return mainer.Success
	}

	ctx := mainer.CancelOnSignal(context.Background(), os.Interrupt)
	if err := c.cmdFn(ctx, stdio, c.args[1:]); err != nil {
		// each command takes care of printing its errors, just return with an error code
		return mainer.Failure
	}
	return mainer.Success
}

// valid commands are those that take a mainer.Stdio and a slice of strings as
// input, and return an error as output.
func buildCmds(v interface{}) map[string]func(context.Context, mainer.Stdio, []string) error {
	cmds := make(map[string]func(context.Context, mainer.Stdio, []string) error)

	vv := reflect.ValueOf(v)
	vt := vv.Type()
	for i := 0; i < vt.NumMethod(); i++ {
		m := vt.Method(i)
		mt := m.Type

		// must take 4 parameters (including receiver) and return 1
		if mt.NumIn() != 4 || mt.NumOut() != 1 {
			continue
		}

		if rt := mt.Out(0); rt.Kind() != reflect.Interface || rt.Name() != "error" {
			continue
		}
		if p0 := mt.In(0); p0.Kind() != reflect.Ptr || p0.Elem().Name() != "Cmd" {
			continue
		}
		if p1 := mt.In(1); p1.Kind() != reflect.Interface || p1.Name() != "Context" {
			continue
		}
		if p2 := mt.In(2); p2.Kind() != reflect.Struct || p2.Name() != "Stdio" {
			continue
		}
		if p3 := mt.In(3); p3.Kind() != reflect.Slice || p3.Elem().Name() != "string" {
			continue
		}
		cmds[strings.ToLower(dashName(m.Name))] = vv.Method(i).Interface().(func(context.Context, mainer.Stdio, []string) error)
	}
	return cmds
}

// dashName converts a Go exported method name like "DumpActions" into its
// command-line spelling "dump-actions"; every other command name in this
// package is a single word and passes through unchanged.
func dashName(name string) string {
	if name != "DumpActions" {
		return name
	}
	return "dump-actions"
}
