package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"runtime/pprof"
	"strings"
	"syscall"

	"github.com/0x5844/physics-2d/internal/config"
	"github.com/0x5844/physics-2d/internal/log"
)

// Build information (set by build script)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

var errShowVersion = errors.New("version requested")

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "physics2d: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := parseFlags(args, os.Stderr)
	if errors.Is(err, errShowVersion) {
		fmt.Printf("Physics2D version %s\n", Version)
		fmt.Printf("Built: %s\n", BuildTime)
		fmt.Printf("Go: %s\n", GoVersion)
		return nil
	}
	if err != nil {
		return err
	}

	if cfg.Profile.CPU != "" {
		f, err := os.Create(cfg.Profile.CPU)
		if err != nil {
			return fmt.Errorf("could not create CPU profile: %w", err)
		}
		defer f.Close()

		if err := pprof.StartCPUProfile(f); err != nil {
			return fmt.Errorf("could not start CPU profile: %w", err)
		}
		defer pprof.StopCPUProfile()
	}

	app, cleanup, err := initializeApp(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app.logger.Info("starting physics2d",
		log.String("version", Version),
		log.Int("cpus", runtime.NumCPU()))

	if err := app.Run(ctx); err != nil {
		return fmt.Errorf("engine error: %w", err)
	}

	if cfg.Profile.Mem != "" {
		if err := writeHeapProfile(cfg.Profile.Mem); err != nil {
			app.logger.Warn("could not write memory profile", log.Error(err))
		}
	}

	app.Summary()
	return nil
}

// parseFlags layers defaults, the optional -config file and command line
// flags, in that order.
func parseFlags(args []string, output io.Writer) (config.Config, error) {
	cfg := config.Default()
	if path := configPath(args); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	fs := flag.NewFlagSet("physics2d", flag.ContinueOnError)
	fs.SetOutput(output)
	cfg.BindFlags(fs)

	var showVersion bool
	var configFile string
	fs.StringVar(&configFile, "config", "", "YAML configuration file")
	fs.BoolVar(&showVersion, "version", false, "show version information")

	fs.Usage = func() {
		name := fs.Name()
		fmt.Fprintf(output, "Physics2D - 2D Rigid Body Physics Engine\n\n")
		fmt.Fprintf(output, "Usage: %s [OPTIONS]\n\n", name)
		fmt.Fprintf(output, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(output, "\nExamples:\n")
		fmt.Fprintf(output, "  %s -bodies 500 -scene-type pyramid\n", name)
		fmt.Fprintf(output, "  %s -scene scene.yaml -duration 10s\n", name)
		fmt.Fprintf(output, "  %s -config physics2d.yaml -debug-addr :8080\n", name)
		fmt.Fprintf(output, "  %s -profile-cpu cpu.prof -verbose\n", name)
		fmt.Fprintf(output, "\nVersion: %s\n", Version)
	}

	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	if showVersion {
		return cfg, errShowVersion
	}
	if fs.NArg() > 0 {
		return cfg, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// configPath finds -config before the full flag set is parsed, so the file
// can supply defaults that explicit flags still override.
func configPath(args []string) string {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			break
		}
		name := strings.TrimLeft(arg, "-")
		if name == arg {
			continue
		}
		if value, ok := strings.CutPrefix(name, "config="); ok {
			return value
		}
		if name == "config" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

func writeHeapProfile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	runtime.GC()
	return pprof.WriteHeapProfile(f)
}
