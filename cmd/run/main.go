package main

import (
	"context"
	stderrors "errors"
	"flag"
	"fmt"
	"io"
	"math"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"

	"github.com/wippyai/wasm-loader/engine"
	"github.com/wippyai/wasm-loader/loader"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one invocation and returns the exit status. In strict mode a
// failed run panics out of run.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		wasmFile    = fs.String("wasm", loader.DefaultPath, "Path to module wasm file")
		configFile  = fs.String("config", "", "YAML config file (flags override it)")
		strict      = fs.Bool("strict", false, "Leave failures uncaught (non-zero exit)")
		wasi        = fs.Bool("wasi", false, "Provide wasi_snapshot_preview1 imports")
		memoryPages = fs.Uint("memory-pages", 0, "Memory limit per instance in 64KiB pages (0 = 4GiB)")
		verbose     = fs.Bool("v", false, "Debug logging to stderr")
		interactive = fs.Bool("i", false, "Interactive mode with TUI")
	)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: run [-wasm file.wasm] [-strict] [-wasi] [-memory-pages n] [-config file.yaml] [-v]")
		fmt.Fprintln(stderr, "       run [-wasm file.wasm] -i  (interactive mode)")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if stderrors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(stderr, "Error: unexpected arguments %v\n", fs.Args())
		fs.Usage()
		return 1
	}
	if *memoryPages > math.MaxUint32 {
		fmt.Fprintf(stderr, "Error: -memory-pages %d out of range\n", *memoryPages)
		return 1
	}

	cfg := loader.DefaultConfig()
	if *configFile != "" {
		var err error
		if cfg, err = loader.LoadConfig(*configFile); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "wasm":
			cfg.Path = *wasmFile
		case "strict":
			cfg.Mode = loader.ModeSafe
			if *strict {
				cfg.Mode = loader.ModeStrict
			}
		case "wasi":
			cfg.WASI = *wasi
		case "memory-pages":
			cfg.MemoryLimitPages = uint32(*memoryPages)
		}
	})

	log := newLogger(stderr, *verbose)
	defer func() { _ = log.Sync() }()
	engine.SetLogger(log)
	loader.SetLogger(log)
	log.Debug("configuration",
		zap.String("path", cfg.Path),
		zap.Stringer("mode", cfg.Mode),
		zap.Bool("wasi", cfg.WASI),
		zap.Uint32("memory_limit_pages", cfg.MemoryLimitPages))

	engCfg := cfg.EngineConfig()
	engCfg.Stdout = stdout
	engCfg.Stderr = stderr
	eng, err := engine.NewWazeroEngineWithConfig(ctx, engCfg)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer eng.Close(ctx)

	opts := append(cfg.Options(),
		loader.WithStdout(stdout),
		loader.WithStderr(stderr),
		loader.WithLogger(log))
	l := loader.New(eng, opts...)

	if *interactive {
		if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Fprintln(stderr, "Error: -i needs a terminal")
			return 1
		}
		if err := runInteractive(ctx, l); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	l.Run(ctx, cfg.Mode)
	return 0
}

// newLogger writes console-encoded logs to w: debug and up when verbose,
// warnings and up otherwise.
func newLogger(w io.Writer, verbose bool) *zap.Logger {
	level := zapcore.WarnLevel
	encCfg := zap.NewProductionEncoderConfig()
	if verbose {
		level = zapcore.DebugLevel
		encCfg = zap.NewDevelopmentEncoderConfig()
	}
	encCfg.TimeKey = ""
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(w), level)
	return zap.New(core)
}
