//go:build !lambda

package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"slices"
	"strings"

	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"
	"github.com/natefinch/atomic"
	flag "github.com/spf13/pflag"
)

var errUsage = errors.New("usage")

var commands = []string{"plan", "candidates", "cook", "berries"}

const usage = `Usage: poffin-planner <command> [flags]

Commands:
  plan              cook candidates, prune them and search feeding plans
  candidates        list the best cooked candidates
  cook <berry>...   cook 1 to 4 named berries
  berries           list the berry catalog

Flags:
`

// overrides records, per flag name, how to copy the parsed value onto a
// config. Only flags given on the command line are applied, so they win over
// the config file without resetting what it set.
type overrides map[string]func(dst *Config)

func (o overrides) intVar(fs *flag.FlagSet, src *Config, field func(*Config) *int, name, usage string) {
	fs.IntVar(field(src), name, *field(src), usage)
	o[name] = func(dst *Config) { *field(dst) = *field(src) }
}

func (o overrides) stringVar(fs *flag.FlagSet, src *Config, field func(*Config) *string, name, usage string) {
	fs.StringVar(field(src), name, *field(src), usage)
	o[name] = func(dst *Config) { *field(dst) = *field(src) }
}

func (o overrides) boolVar(fs *flag.FlagSet, src *Config, field func(*Config) *bool, name, usage string) {
	fs.BoolVar(field(src), name, *field(src), usage)
	o[name] = func(dst *Config) { *field(dst) = *field(src) }
}

func (o overrides) stringsVar(fs *flag.FlagSet, src *Config, field func(*Config) *[]string, name, usage string) {
	fs.StringSliceVar(field(src), name, *field(src), usage)
	o[name] = func(dst *Config) { *field(dst) = *field(src) }
}

// cliFlags are the flags shared by every command.
type cliFlags struct {
	configPath string
	jsonOut    bool
	outPath    string
	verbose    int
	parsed     Config
	set        overrides
}

func bindFlags(fs *flag.FlagSet) *cliFlags {
	f := &cliFlags{parsed: DefaultConfig(), set: overrides{}}
	c, o := &f.parsed, f.set

	fs.StringVarP(&f.configPath, "config", "c", "", "JSONC config file (default "+ConfigFileName+" when present)")
	fs.BoolVar(&f.jsonOut, "json", false, "print the report as JSON")
	fs.StringVarP(&f.outPath, "out", "o", "", "also write the JSON report to this file")
	fs.CountVarP(&f.verbose, "verbose", "v", "log progress to stderr (repeat for more detail)")

	o.stringVar(fs, c, func(c *Config) *string { return &c.Catalog }, "catalog", "berry catalog JSON file (default built-in)")
	o.stringsVar(fs, c, func(c *Config) *[]string { return &c.Include }, "include", "only use these berries")
	o.stringsVar(fs, c, func(c *Config) *[]string { return &c.Exclude }, "exclude", "never use these berries")
	o.intVar(fs, c, func(c *Config) *int { return &c.MaxRarity }, "max-rarity", "skip berries rarer than this (0 = no limit)")
	fs.IntSliceVar(&c.Sizes, "sizes", c.Sizes, "recipe sizes to cook")
	o["sizes"] = func(dst *Config) { dst.Sizes = c.Sizes }

	o.intVar(fs, c, func(c *Config) *int { return &c.Cycle }, "cycle", "cook cycle length in seconds")
	o.intVar(fs, c, func(c *Config) *int { return &c.Errors }, "errors", "spills and burns per cook")
	o.intVar(fs, c, func(c *Config) *int { return &c.Bonus }, "bonus", "smoothness bonus")
	o.intVar(fs, c, func(c *Config) *int { return &c.Candidates }, "candidates", "candidates kept after cooking")
	o.intVar(fs, c, func(c *Config) *int { return &c.MinLevel }, "min-level", "drop poffins below this level")
	o.boolVar(fs, c, func(c *Config) *bool { return &c.NoFoul }, "no-foul", "drop foul poffins")
	o.stringVar(fs, c, func(c *Config) *string { return &c.Prefer }, "prefer", "favor poffins of this flavor or condition")
	o.intVar(fs, c, func(c *Config) *int { return &c.PreferBonus }, "prefer-bonus", "score bonus for the preferred flavor")
	o.stringVar(fs, c, func(c *Config) *string { return &c.Rarity }, "rarity", "recipe rarity cost: max or sum")

	o.stringVar(fs, c, func(c *Config) *string { return (*string)(&c.Strategy) }, "strategy", "greedy, exhaustive or both")
	o.intVar(fs, c, func(c *Config) *int { return &c.SearchPool }, "search-pool", "cap on pruned candidates searched (0 = whole front)")
	o.intVar(fs, c, func(c *Config) *int { return &c.Choose }, "choose", "distinct poffins per exhaustive plan (1-4)")
	o.intVar(fs, c, func(c *Config) *int { return &c.MaxPoffins }, "max-poffins", "poffins fed per plan (0 = no cap)")
	o.intVar(fs, c, func(c *Config) *int { return &c.Top }, "top", "plans reported")
	o.boolVar(fs, c, func(c *Config) *bool { return &c.Sequential }, "sequential", "search on a single goroutine")
	o.intVar(fs, c, func(c *Config) *int { return &c.Workers }, "workers", "search workers (0 = GOMAXPROCS)")
	o.stringVar(fs, c, func(c *Config) *string { return &c.Scoring }, "scoring", "plan scoring: total or balanced")
	o.intVar(fs, c, func(c *Config) *int { return &c.Weights.Stats }, "w-stats", "plan weight per condition point")
	o.intVar(fs, c, func(c *Config) *int { return &c.Weights.MinStat }, "w-min-stat", "plan weight of the weakest condition")
	o.intVar(fs, c, func(c *Config) *int { return &c.Weights.Count }, "w-count", "plan penalty per poffin")
	o.intVar(fs, c, func(c *Config) *int { return &c.Weights.Sheen }, "w-sheen", "plan penalty per sheen point")
	o.intVar(fs, c, func(c *Config) *int { return &c.Weights.Rarity }, "w-rarity", "plan penalty per rarity point")
	return f
}

// resolve layers defaults, the config file and the flags given.
func (f *cliFlags) resolve(fs *flag.FlagSet) (Config, error) {
	path, mustExist := f.configPath, true
	if path == "" {
		path, mustExist = ConfigFileName, false
	}
	cfg, _, err := loadConfigFile(path, DefaultConfig(), mustExist)
	if err != nil {
		return Config{}, err
	}
	fs.Visit(func(fl *flag.Flag) {
		if apply, ok := f.set[fl.Name]; ok {
			apply(&cfg)
		}
	})
	return cfg, nil
}

func (f *cliFlags) logger(stderr io.Writer) logr.Logger {
	if f.verbose == 0 {
		return logr.Discard()
	}
	stdr.SetVerbosity(f.verbose - 1)
	return stdr.New(log.New(stderr, "", log.Ltime)).WithName("poffin")
}

func run(args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		fs := flag.NewFlagSet("help", flag.ContinueOnError)
		fs.SetOutput(stderr)
		bindFlags(fs)
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
		if len(args) == 0 {
			return fmt.Errorf("%w: no command given", errUsage)
		}
		return nil
	}
	cmd := args[0]
	if !slices.Contains(commands, cmd) {
		fmt.Fprint(stderr, usage)
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.SetOutput(stderr)
	f := bindFlags(fs)
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	cfg, err := f.resolve(fs)
	if err != nil {
		return err
	}
	logger := f.logger(stderr)

	switch cmd {
	case "plan":
		r, err := runPlan(cfg, logger)
		if err != nil {
			return err
		}
		return f.emit(stdout, r, FormatReport(r))
	case "candidates":
		r, err := runCandidates(cfg, logger)
		if err != nil {
			return err
		}
		return f.emit(stdout, r, FormatReport(r))
	case "cook":
		if fs.NArg() == 0 {
			return fmt.Errorf("%w: cook needs 1 to 4 berry names", errUsage)
		}
		v, err := cookNamed(cfg, fs.Args())
		if err != nil {
			return err
		}
		return f.emit(stdout, v, FormatCandidates("", []CandidateView{v}))
	case "berries":
		p, err := newPipeline(cfg, logger)
		if err != nil {
			return err
		}
		bs := p.cat.Berries()
		return f.emit(stdout, bs, FormatBerries(bs))
	}
	return nil
}

// emit prints v as JSON or as the rendered text, and saves the JSON to
// --out when set.
func (f *cliFlags) emit(stdout io.Writer, v any, rendered string) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return err
	}
	if f.outPath != "" {
		if err := atomic.WriteFile(f.outPath, bytes.NewReader(buf.Bytes())); err != nil {
			return fmt.Errorf("write %s: %w", f.outPath, err)
		}
	}
	if f.jsonOut {
		_, err := stdout.Write(buf.Bytes())
		return err
	}
	_, err := io.WriteString(stdout, strings.TrimRight(rendered, "\n")+"\n")
	return err
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
