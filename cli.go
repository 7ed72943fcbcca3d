package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"

	"action52/emu/log"
)

type mode byte

const (
	romInfosMode mode = iota // Show ROM infos
	mapMode                  // Power up a cartridge and show its bank layout
	checkMode                // Load a set of ROMs
	versionMode              // Show version
)

type (
	CLI struct {
		RomInfos RomInfos `cmd:"" help:"Show ROM infos." name:"rom-infos"`
		Map      Map      `cmd:"" help:"Power up a cartridge, apply CPU writes and show the mapped banks."`
		Check    Check    `cmd:"" help:"Check that ROMs load on a supported board."`
		Version  Version  `cmd:"" help:"Show version."`

		Log    logModules `help:"${log_help}" placeholder:"mod0,mod1,..."`
		Config string     `help:"${config_help}" type:"path" placeholder:"FILE"`

		mode mode
	}

	RomInfos struct {
		RomPath string `arg:"" name:"/path/to/rom" type:"existingfile"`
		JSON    bool   `name:"json" help:"${json_help}"`
	}

	Map struct {
		RomPath string     `arg:"" name:"/path/to/rom" type:"existingfile"`
		Writes  []cpuWrite `name:"write" short:"w" help:"${write_help}" placeholder:"ADDR=DATA"`
		State   string     `name:"state" help:"Restore mapper state from FILE before the writes." type:"existingfile" placeholder:"FILE"`
		Save    string     `name:"save" help:"Save mapper state to FILE after the writes." type:"path" placeholder:"FILE"`
		JSON    bool       `name:"json" help:"${json_help}"`
	}

	Check struct {
		RomPaths []string `arg:"" name:"/path/to/rom" type:"existingfile"`
		Jobs     int      `name:"jobs" short:"j" help:"Number of ROMs loaded concurrently (0 means GOMAXPROCS)." default:"0"`
	}

	Version struct{}
)

var vars = kong.Vars{
	"log_help":    "Enable logging for specified modules (replaces [log] modules from the configuration).",
	"config_help": "Configuration file (default: config.toml in the user configuration directory).",
	"json_help":   "Output JSON.",
	"write_help":  "CPU write, hex address and data (repeatable, applied in order).",
}

func newParser(cfg *CLI) (*kong.Kong, error) {
	return kong.New(cfg,
		kong.Name("action52"),
		kong.Description("Action 52 (iNES mapper 228) cartridge board tool."),
		kong.UsageOnError(),
		kong.Help(printHelp),
		vars)
}

func parseArgs(args []string) CLI {
	var cfg CLI
	parser, err := newParser(&cfg)
	if err != nil {
		panic(err)
	}

	ctx, err := parser.Parse(args)
	checkf(err, "failed to parse command line")
	checkf(ctx.Error, "failed to parse command line")

	cfg.mode = commandMode(ctx.Command())
	return cfg
}

func commandMode(cmd string) mode {
	switch strings.Fields(cmd)[0] {
	case "rom-infos":
		return romInfosMode
	case "map":
		return mapMode
	case "check":
		return checkMode
	}
	return versionMode
}

func printHelp(options kong.HelpOptions, ctx *kong.Context) error {
	if err := kong.DefaultHelpPrinter(options, ctx); err != nil {
		return err
	}
	loggingHelp := `
Log modules:
  The --log flag accepts a comma-separated list of modules.

  Valid log modules are:
%s

  As a special case, the following values are accepted:
    - no                     Disable all logging.
    - all                    Enable all logs.
`
	var strs []string
	for _, m := range log.ModuleNames() {
		strs = append(strs, "    - "+m)
	}

	fmt.Fprintf(os.Stderr, loggingHelp, strings.Join(strs, "\n"))
	return nil
}

// logModules is a list of modules to enable debug logs for.
type logModules []string

// Decode decodes a comma-separated list of module names.
//
// Implements kong.MapperValue interface.
func (lm *logModules) Decode(ctx *kong.DecodeContext) error {
	tok := ctx.Scan.Pop()
	names := strings.Split(tok.Value.(string), ",")
	if _, _, err := parseLogModules(names); err != nil {
		return err
	}
	*lm = names
	return nil
}

// parseLogModules returns the debug mask of the named modules, or nolog if
// all logging must be disabled.
func parseLogModules(names []string) (mask log.ModuleMask, nolog bool, err error) {
	allLogs := false

	for _, v := range names {
		switch v {
		case "all":
			allLogs = true
		case "no":
			nolog = true
		default:
			mod, ok := log.ModuleByName(v)
			if !ok {
				return 0, false, fmt.Errorf("unknown log module %s", v)
			}
			mask |= mod.Mask()
		}
	}

	if nolog {
		if allLogs {
			return 0, false, fmt.Errorf("cannot use 'all' and 'no' together")
		}
		if mask != 0 {
			return 0, false, fmt.Errorf("cannot combine 'no' with other log modules")
		}
		return 0, true, nil
	}

	if allLogs {
		mask = log.ModuleMaskAll
	}
	return mask, false, nil
}

// setupLogs enables logs for the modules listed in the configuration, or on
// the command line which then replaces the configuration list.
func setupLogs(cli logModules, cfg []string) error {
	names := cfg
	if len(cli) > 0 {
		names = cli
	}

	mask, nolog, err := parseLogModules(names)
	if err != nil {
		return err
	}
	if nolog {
		log.Disable()
		return nil
	}
	log.EnableDebugModules(mask)
	return nil
}

// cpuWrite is a CPU bus write given on the command line.
type cpuWrite struct {
	addr uint16
	val  uint8
}

// Decode decodes ADDR=DATA, both in hexadecimal with an optional '$' or '0x'
// prefix.
//
// Implements kong.MapperValue interface.
func (w *cpuWrite) Decode(ctx *kong.DecodeContext) error {
	tok := ctx.Scan.Pop()
	s, ok := tok.Value.(string)
	if !ok {
		return fmt.Errorf("expected ADDR=DATA but got %v", tok)
	}
	cw, err := parseWrite(s)
	if err != nil {
		return err
	}
	*w = cw
	return nil
}

func parseWrite(s string) (cpuWrite, error) {
	addr, data, ok := strings.Cut(s, "=")
	if !ok {
		return cpuWrite{}, fmt.Errorf("invalid write %q, expected ADDR=DATA", s)
	}
	a, err := parseHex(addr, 16)
	if err != nil {
		return cpuWrite{}, fmt.Errorf("invalid write address %q: %w", addr, err)
	}
	d, err := parseHex(data, 8)
	if err != nil {
		return cpuWrite{}, fmt.Errorf("invalid write data %q: %w", data, err)
	}
	return cpuWrite{addr: uint16(a), val: uint8(d)}, nil
}

func parseHex(s string, bits int) (uint64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	return strconv.ParseUint(s, 16, bits)
}

func (w cpuWrite) String() string {
	return fmt.Sprintf("$%04X=$%02X", w.addr, w.val)
}

func checkf(err error, format string, args ...any) {
	if err == nil {
		return
	}
	fatalf("%s.\n\t%s", fmt.Sprintf(format, args...), err)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "fatal error:")
	fmt.Fprintf(os.Stderr, "\n\t%s\n", fmt.Sprintf(format, args...))
	os.Exit(1)
}
