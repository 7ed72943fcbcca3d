package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"action52/emu"
)

func main() {
	cli := parseArgs(os.Args[1:])

	cfg, err := loadConfig(cli.Config)
	checkf(err, "failed to load configuration")

	checkf(setupLogs(cli.Log, cfg.Log.Modules), "invalid log modules")

	json := cfg.Output.Format == emu.FormatJSON

	switch cli.mode {
	case romInfosMode:
		checkf(romInfos(os.Stdout, cli.RomInfos, json || cli.RomInfos.JSON), "failed to show rom infos")
	case mapMode:
		checkf(mapBanks(os.Stdout, cli.Map, json || cli.Map.JSON), "map failed")
	case checkMode:
		checkf(checkRoms(os.Stdout, cli.Check), "check failed")
	case versionMode:
		printVersion()
	}
}

func loadConfig(path string) (emu.Config, error) {
	if path == "" {
		var err error
		if path, err = emu.DefaultConfigPath(); err != nil {
			return emu.Config{}, err
		}
	}
	return emu.LoadConfigOrDefault(path)
}

func printVersion() {
	version := "(devel)"
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" {
		version = bi.Main.Version
	}
	fmt.Println("action52", version)
}
