package cmd

import (
	"flag"
	"fmt"
	"os"

	"github.com/ragos-nas/webadmin/common/config"
)

// ServerConfig is the minimal runtime config passed to the server.
type ServerConfig struct {
	Port       int
	Verbose    bool
	ConfigPath string
}

// test seam (override in tests)
var runServerFunc = RunServer

// StartWebAdmin is the CLI entrypoint (called from main.go).
func StartWebAdmin() {
	if len(os.Args) < 2 {
		printGeneralUsage()
		return
	}

	switch os.Args[1] {
	case "-h", "--help", "help":
		printGeneralUsage()
		return
	case "version":
		fmt.Printf("ragos-admin %s (%s)\n", config.Version, config.CommitSHA)
		return
	case "run":
		runCmd := flag.NewFlagSet("run", flag.ExitOnError)

		var cfg ServerConfig
		runCmd.IntVar(&cfg.Port, "port", 8090, "HTTP server port (1-65535)")
		runCmd.BoolVar(&cfg.Verbose, "verbose", false, "enable verbose logging (default false)")
		runCmd.StringVar(&cfg.ConfigPath, "config", "/etc/ragos-admin/config.ini", "path to the ini config file")

		runCmd.Usage = func() {
			fmt.Fprintf(os.Stderr, "RAGOS Web Admin %s\n", config.Version)
			fmt.Fprintln(os.Stderr, "\nUsage:")
			fmt.Fprintln(os.Stderr, "  ragos-admin run [flags]")
			fmt.Fprintln(os.Stderr, "\nFlags:")
			runCmd.PrintDefaults()
		}

		if err := runCmd.Parse(os.Args[2:]); err != nil {
			// flag.ExitOnError handles most errors; ErrHelp means -h was used
			return
		}

		if cfg.Port <= 0 || cfg.Port > 65535 {
			fmt.Fprintln(os.Stderr, "invalid -port: must be between 1 and 65535")
			os.Exit(2)
		}

		runServerFunc(cfg)

	default:
		fmt.Fprintf(os.Stderr, "unknown command: %q\n\n", os.Args[1])
		printGeneralUsage()
		return
	}
}

func printGeneralUsage() {
	fmt.Fprintf(os.Stderr, `RAGOS Web Admin %s

Usage:
  ragos-admin <command> [flags]

Commands:
  run         Run the HTTP server
  version     Print the build version
  help        Show this help

Examples:
  ragos-admin run
  ragos-admin run -port 8090 -verbose -config /etc/ragos-admin/config.ini

Use "ragos-admin <command> -h" for more info about a command.
`, config.Version)
}
