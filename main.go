// ABOUTME: Entry point for the spaceconvert command line tool
// ABOUTME: Dispatches the demo, convert, play and servers subcommands
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ion-space/spaceconvert/internal/config"
	"github.com/ion-space/spaceconvert/internal/ui"
	"github.com/ion-space/spaceconvert/internal/version"
	"github.com/ion-space/spaceconvert/pkg/convert"
)

// commonFlags are accepted by every subcommand
type commonFlags struct {
	configPath string
	logFile    string
	noTUI      bool
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.configPath, "config", "", "YAML config file")
	fs.StringVar(&c.logFile, "log-file", "", "Log file path (default: none)")
	fs.BoolVar(&c.noTUI, "no-tui", false, "Disable TUI, use streaming logs instead")
}

// load reads the config and sets up logging. The returned func closes the log file.
func (c *commonFlags) load(useTUI bool) (*config.Config, func(), error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, nil, err
	}
	if c.logFile != "" {
		cfg.LogFile = c.logFile
	}

	var f *os.File
	if cfg.LogFile != "" {
		f, err = os.OpenFile(cfg.LogFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			return nil, nil, fmt.Errorf("error opening log file: %w", err)
		}
	}

	switch {
	case useTUI && f != nil:
		// TUI mode: log only to file
		log.SetOutput(f)
	case useTUI:
		log.SetOutput(io.Discard)
	case f != nil:
		log.SetOutput(io.MultiWriter(os.Stdout, f))
	default:
		log.SetOutput(os.Stdout)
	}

	closeLog := func() {
		if f != nil {
			_ = f.Close()
		}
	}
	return cfg, closeLog, nil
}

func usage() {
	fmt.Fprintf(os.Stderr, `%s %s

Usage:
  spaceconvert demo    [-title T] [-url URL] [-out DIR]     write the placeholder WAV
  spaceconvert convert -in FILE|URL [-out DIR] [-rate N]    transcode mp3/flac/wav to WAV
  spaceconvert play    [-in FILE] [-duration D]             preview audio on the speakers
  spaceconvert servers [-timeout D]                         find converter servers on the LAN
  spaceconvert version

Run "spaceconvert <command> -h" for command flags.
`, version.Product, version.Version)
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd, args := os.Args[1], os.Args[2:]

	var err error
	switch cmd {
	case "demo":
		err = runDemo(ctx, args)
	case "convert":
		err = runConvert(ctx, args)
	case "play":
		err = runPlay(ctx, args)
	case "servers":
		err = runServers(ctx, args)
	case "version":
		fmt.Println(version.String())
	case "help", "-h", "--help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", cmd)
		usage()
		os.Exit(2)
	}

	if err == nil {
		return
	}
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(2)
	}

	log.Printf("Error: %v", err)
	if ui.IsCancelled(err) {
		fmt.Fprintln(os.Stderr, convert.FallbackMessage(err))
		os.Exit(130)
	}
	fmt.Fprintf(os.Stderr, "%s\n%v\n", convert.FallbackMessage(err), err)
	os.Exit(1)
}
