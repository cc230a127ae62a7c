package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/germanamz/actloop/pkg/engine"
)

// runInitCmd writes the default configuration file.
func runInitCmd(args []string, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("init", flag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.Usage = func() {
		fmt.Fprintf(stderr, "Usage: actloop init [flags]\n\nWrite the default configuration file.\n\nFlags:\n")
		flags.PrintDefaults()
	}
	path := flags.String("config", engine.DefaultConfigFile, "path of the configuration file to write")
	force := flags.Bool("force", false, "overwrite an existing file")

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitCompleted
		}
		return exitUsage
	}

	if err := writeInitConfig(*path, *force); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitUsage
	}

	fmt.Fprintf(stdout, "wrote %s\n", *path)
	return exitCompleted
}

// initConfig returns the default configuration with credentials left as
// environment references.
func initConfig() engine.Config {
	cfg := engine.DefaultConfig()
	cfg.Providers[0].APIKey = "${OPENAI_API_KEY}"
	cfg.Providers[0].BaseURL = "${OPENAI_BASE_URL}"
	return cfg
}

func writeInitConfig(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use -force to overwrite)", path)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}

	data, err := initConfig().Marshal()
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o600)
}
