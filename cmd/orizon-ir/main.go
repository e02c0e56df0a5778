package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/orizon-lang/orizon-ir/internal/cli"
	"github.com/orizon-lang/orizon-ir/internal/ir"
	"github.com/orizon-lang/orizon-ir/internal/passes"
	"github.com/orizon-lang/orizon-ir/internal/persistence"
)

const toolName = "orizon-ir"

var commands = []cli.CommandInfo{
	{Name: "opt", Usage: "opt [-o out.ir] <artifact.ir>", Description: "run local optimizations on a persisted scope"},
	{Name: "dump", Usage: "dump <artifact.ir>", Description: "print the blocks of a persisted scope"},
	{Name: "path", Usage: "path [-class] <name>", Description: "print the artifact path of a source file or class"},
	{Name: "watch", Usage: "watch <source>...", Description: "drop artifacts whose sources change"},
	{Name: "version", Usage: "version [-json]", Description: "show version information"},
}

func main() {
	if len(os.Args) < 2 {
		cli.PrintUsage(os.Stderr, toolName, commands)
		os.Exit(2)
	}

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "opt":
		err = runOpt(args)
	case "dump":
		err = runDump(args)
	case "path":
		err = runPath(args)
	case "watch":
		err = runWatch(args)
	case "version":
		err = runVersion(args)
	case "help", "-h", "--help":
		cli.PrintUsage(os.Stdout, toolName, commands)
	default:
		cli.PrintUsage(os.Stderr, toolName, commands)
		cli.ExitWithError("unknown command %q", cmd)
	}
	if err != nil {
		cli.ExitWithError("%v", err)
	}
}

// commonFlags registers the flags every command shares and returns a loader
// for the resulting configuration.
func commonFlags(fs *flag.FlagSet) func() (*cli.Config, error) {
	configFile := fs.String("config", "", "configuration file path")
	verbose := fs.Bool("v", false, "verbose output")
	debug := fs.Bool("debug", false, "debug output")
	return func() (*cli.Config, error) {
		cfg, err := cli.LoadConfig(*configFile)
		if err != nil {
			return nil, err
		}
		if *verbose {
			cfg.Verbose = true
		}
		if *debug {
			cfg.Debug = true
		}
		return cfg, nil
	}
}

func runOpt(args []string) error {
	fs := flag.NewFlagSet("opt", flag.ExitOnError)
	out := fs.String("o", "", "output artifact (default: overwrite the input)")
	maxIter := fs.Int("max-iterations", 0, "iteration limit per block (0: configuration or default)")
	load := commonFlags(fs)
	fs.Parse(args)
	if err := cli.ValidateArgs(fs.Args(), 1, commands[0].Usage); err != nil {
		return err
	}
	cfg, err := load()
	if err != nil {
		return err
	}
	logger := cfg.Logger()

	in := fs.Arg(0)
	s, err := persistence.ReadArtifact(in, ir.NewManager())
	if err != nil {
		if errors.Is(err, persistence.ErrInvalidArtifact) {
			return fmt.Errorf("%s must be recompiled from source: %w", in, err)
		}
		return err
	}

	lo := passes.NewLocalOptimizationPass(logger)
	switch {
	case *maxIter > 0:
		lo.MaxIterations = *maxIter
	case cfg.MaxIterations > 0:
		lo.MaxIterations = cfg.MaxIterations
	}
	for _, st := range passes.NewPipeline(logger, lo).Run(s) {
		fmt.Println(st)
	}

	dst := *out
	if dst == "" {
		dst = in
	}
	if err := persistence.WriteArtifact(dst, s); err != nil {
		return err
	}
	logger.Info("wrote %s", dst)
	return nil
}

func runDump(args []string) error {
	fs := flag.NewFlagSet("dump", flag.ExitOnError)
	fs.Parse(args)
	if err := cli.ValidateArgs(fs.Args(), 1, commands[1].Usage); err != nil {
		return err
	}
	s, err := persistence.ReadArtifact(fs.Arg(0), ir.NewManager())
	if err != nil {
		return err
	}
	fmt.Print(s)
	return nil
}

func runPath(args []string) error {
	fs := flag.NewFlagSet("path", flag.ExitOnError)
	class := fs.Bool("class", false, "treat the name as a dotted class name")
	load := commonFlags(fs)
	fs.Parse(args)
	if err := cli.ValidateArgs(fs.Args(), 1, commands[2].Usage); err != nil {
		return err
	}
	cfg, err := load()
	if err != nil {
		return err
	}

	r := persistence.NewResolver(cfg.IRHome)
	resolve := r.PersistedFile
	if *class {
		resolve = r.ClassFile
	}
	for _, name := range fs.Args() {
		p, err := resolve(name)
		if err != nil {
			return err
		}
		fmt.Println(p)
	}
	return nil
}

func runWatch(args []string) error {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	load := commonFlags(fs)
	fs.Parse(args)
	if err := cli.ValidateArgs(fs.Args(), 1, commands[3].Usage); err != nil {
		return err
	}
	cfg, err := load()
	if err != nil {
		return err
	}
	logger := cfg.Logger()

	store, err := persistence.NewStore(cfg.IRHome, logger)
	if err != nil {
		return err
	}
	w, err := persistence.NewWatcher(store, logger)
	if err != nil {
		return err
	}
	defer w.Close()
	for _, src := range fs.Args() {
		if err := w.Add(src); err != nil {
			return fmt.Errorf("watch %s: %w", src, err)
		}
	}
	logger.Info("watching %d sources, artifacts under %s", len(fs.Args()), store.Root())

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	for {
		select {
		case src := <-w.Invalidated():
			fmt.Printf("invalidated %s\n", src)
		case err := <-w.Errors():
			logger.Warn("%v", err)
		case <-sig:
			st := store.Stats()
			logger.Info("stopping: %d artifacts invalidated", st.Invalidated)
			return nil
		}
	}
}

func runVersion(args []string) error {
	fs := flag.NewFlagSet("version", flag.ExitOnError)
	jsonOutput := fs.Bool("json", false, "output in JSON format")
	fs.Parse(args)
	cli.PrintVersion(os.Stdout, "Orizon IR Tools", *jsonOutput)
	return nil
}
