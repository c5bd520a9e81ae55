package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"

	"github.com/joho/godotenv"

	"SegPull/internal/di"
	"SegPull/pkg/config"
	applogger "SegPull/pkg/logger"
)

const usage = `usage: segpull [-config path] [-env .env] <command> [flags]

commands:
  list-reports      print the report list as JSON
  get-segment       write one report's raw sections to a JSON file
  updated-reports   print reports updated within a date range
  export-segments   export normalized segment records to CSV
  serve             run the HTTP API
`

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	envPath := flag.String("env", ".env", "dotenv file loaded before reading the environment")
	flag.Usage = func() { fmt.Fprint(flag.CommandLine.Output(), usage) }
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}
	cmd, ok := commands[flag.Arg(0)]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", flag.Arg(0))
		flag.Usage()
		os.Exit(2)
	}
	// Flag errors and missing inputs exit before any connection is opened.
	run := cmd(flag.Args()[1:])

	if err := godotenv.Load(*envPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("env load failed: %v", err)
	}

	cfg, err := config.LoadWithEnv(resolveConfigPath(*configPath))
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	app, cleanup, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	runErr := run(app)
	if err := app.Close(); err != nil {
		app.Logger().Warn("close failed", applogger.Error(err))
	}
	cleanup()
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", runErr)
		os.Exit(1)
	}
}

// resolveConfigPath falls back to defaults when the default config file is
// absent. An explicit path that does not exist is still an error.
func resolveConfigPath(path string) string {
	if path != "config/config.yaml" {
		return path
	}
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}
