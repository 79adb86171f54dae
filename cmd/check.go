package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/cottand/callinfer/frontend/types"
	"github.com/cottand/callinfer/internal/fixture"
	"github.com/cottand/callinfer/internal/log"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

var CheckCmd = &cobra.Command{
	Use:          "check ./folder|fixture.yaml...",
	Short:        "Check the inference strategies against annotated fixtures",
	RunE:         runCheck,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
}

var (
	checkStrategy *string
	logLevel      *int
	colorMode     *string
	watch         *bool
)

func init() {
	checkStrategy = CheckCmd.Flags().StringP("strategy", "s", "", "strategies to run: legacy, new or both (default: as the fixture says)")
	logLevel = CheckCmd.Flags().IntP("log-level", "l", int(slog.LevelError), "log level")
	colorMode = CheckCmd.Flags().String("color", "auto", "colored output: auto, always or never")
	watch = CheckCmd.Flags().BoolP("watch", "w", false, "check again whenever a fixture changes")
}

func runCheck(cmd *cobra.Command, args []string) error {
	log.SetLevel(slog.Level(*logLevel))

	strategies, err := parseStrategies(*checkStrategy)
	if err != nil {
		return err
	}
	color, err := useColor(*colorMode, os.Stdout)
	if err != nil {
		return err
	}
	p := &printer{w: cmd.OutOrStdout(), color: color}

	check := func() error {
		paths, err := fixturePaths(args)
		if err != nil {
			return err
		}
		failed := 0
		for _, path := range paths {
			if !checkOne(cmd, p, path, strategies) {
				failed++
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d fixtures failed", failed, len(paths))
		}
		return nil
	}
	if *watch {
		return watchFixtures(cmd.Context(), args, func() {
			if err := check(); err != nil {
				p.line(red, "%v", err)
			}
		})
	}
	return check()
}

// checkOne checks the fixture at path and prints the outcome
func checkOne(cmd *cobra.Command, p *printer, path string, strategies []types.Strategy) bool {
	f, err := fixture.Load(path)
	if err != nil {
		p.line(red, "FAIL %s: %v", path, err)
		return false
	}
	if strategies == nil {
		strategies = f.Strategies()
	}
	res, err := fixture.CheckWith(cmd.Context(), f, strategies)
	if err != nil {
		p.line(red, "FAIL %s: %v", f.Name, err)
		return false
	}

	names := make([]string, len(strategies))
	for i, s := range strategies {
		names[i] = s.Name
	}
	if res.OK() {
		p.line(green, "ok   %s (%s)", f.Name, strings.Join(names, ", "))
		return true
	}
	p.line(red, "FAIL %s (%s)", f.Name, strings.Join(names, ", "))
	for _, m := range res.Mismatches {
		for _, d := range m.Missing {
			p.line(plain, "    %s: missing    %s", m.Strategy, describe(f, d))
		}
		for _, d := range m.Unexpected {
			p.line(plain, "    %s: unexpected %s", m.Strategy, describe(f, d))
		}
	}
	return false
}

func describe(f *fixture.Fixture, d fixture.Diagnostic) string {
	pos := f.Position(d.Range)
	return fmt.Sprintf("%s at %d:%d %q", d.Kind, pos.Line, pos.Column, f.Snippet(d.Range))
}

// parseStrategies returns nil when the fixtures decide
func parseStrategies(flag string) ([]types.Strategy, error) {
	switch flag {
	case "":
		return nil, nil
	case "both":
		return types.Strategies(), nil
	}
	strategy, ok := types.StrategyByName(flag)
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q: expected legacy, new or both", flag)
	}
	return []types.Strategy{strategy}, nil
}

// fixturePaths expands directories to the fixtures they hold, sorted
func fixturePaths(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		stat, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("could not stat target: %w", err)
		}
		if !stat.IsDir() {
			paths = append(paths, arg)
			continue
		}
		found, err := filepath.Glob(filepath.Join(arg, "*.yaml"))
		if err != nil {
			return nil, fmt.Errorf("could not list fixtures in %s: %w", arg, err)
		}
		slices.Sort(found)
		paths = append(paths, found...)
	}
	return paths, nil
}

func useColor(mode string, out *os.File) (bool, error) {
	switch mode {
	case "always":
		return true, nil
	case "never":
		return false, nil
	case "auto":
		return isatty.IsTerminal(out.Fd()) || isatty.IsCygwinTerminal(out.Fd()), nil
	}
	return false, fmt.Errorf("unknown color mode %q: expected auto, always or never", mode)
}

type style string

const (
	plain style = ""
	red   style = "\x1b[31m"
	green style = "\x1b[32m"
	reset       = "\x1b[0m"
)

type printer struct {
	w     io.Writer
	color bool
}

func (p *printer) line(s style, format string, args ...any) {
	text := fmt.Sprintf(format, args...)
	if p.color && s != plain {
		text = string(s) + text + reset
	}
	_, _ = fmt.Fprintln(p.w, text)
}
