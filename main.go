package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/peterh/liner"

	"github.com/sergev/phy/config"
	"github.com/sergev/phy/lang"
	"github.com/sergev/phy/parser"
	"github.com/sergev/phy/runtime"
)

// logLevelVar is a flag.Value that sets a slog.LevelVar.
type logLevelVar struct {
	levelVar *slog.LevelVar
	set      bool
}

func (v *logLevelVar) String() string {
	if v.levelVar == nil {
		return ""
	}
	return v.levelVar.Level().String()
}

func (v *logLevelVar) Set(s string) error {
	level, err := config.ParseLevel(s)
	if err != nil {
		return fmt.Errorf("unknown log level: %s", s)
	}
	v.levelVar.Set(level)
	v.set = true
	return nil
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("phy", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to a YAML config file (default $"+config.EnvVar+" or ~/"+config.DefaultFile+")")
	logLevel := new(slog.LevelVar)
	levelFlag := &logLevelVar{levelVar: logLevel}
	fs.Var(levelFlag, "log-level", "set log level (debug, info, warn, error)")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: phy [flags] [script | -]\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	cfg, err := config.Load(config.Resolve(*configPath))
	if err != nil {
		fmt.Fprintf(stderr, "phy: %v\n", err)
		return 1
	}
	if !levelFlag.set {
		logLevel.Set(cfg.Level())
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: logLevel}))

	in := runtime.NewInterpreter(lang.WithStdout(stdout), lang.WithLogger(logger))

	if fs.NArg() > 0 {
		script := fs.Arg(0)
		logger.Debug("run script", slog.String("path", script))
		if script == "-" {
			_, err = runtime.EvaluateReader(in, stdin)
		} else {
			_, err = runtime.EvaluateFile(in, script)
		}
		if err != nil {
			fmt.Fprintf(stderr, "phy: %v\n", err)
			return 1
		}
		return 0
	}

	sess := &session{in: in, stdout: stdout, stderr: stderr}
	if f, ok := stdin.(*os.File); ok && isInteractive(f) {
		runInteractiveREPL(sess, cfg)
		return 0
	}
	runBufferedREPL(sess, bufio.NewReader(stdin))
	return 0
}

// session accumulates REPL input until it parses, then runs it in one
// interpreter so bindings persist across entries.
type session struct {
	in     *lang.Interpreter
	stdout io.Writer
	stderr io.Writer
	buffer strings.Builder
}

func (s *session) pending() bool {
	return s.buffer.Len() > 0
}

func (s *session) reset() {
	s.buffer.Reset()
}

// feed adds one line of input. It reports whether the entry is still
// incomplete and whether the user asked to quit. At end of input, final
// forces incomplete entries to be reported as errors.
func (s *session) feed(line string, final bool) (more, quit bool) {
	if !s.pending() {
		switch strings.TrimSpace(line) {
		case ":quit":
			return false, true
		case ":env":
			s.printEnv()
			return false, false
		}
	}
	s.buffer.WriteString(line)
	s.buffer.WriteString("\n")

	stmts, err := parser.ParseString(s.buffer.String())
	if err != nil {
		if parser.IsIncomplete(err) && !final {
			return true, false
		}
		fmt.Fprintf(s.stderr, "parse error: %v\n", err)
		s.reset()
		return false, false
	}
	s.reset()

	val, err := s.in.Interpret(stmts)
	if err != nil {
		fmt.Fprintf(s.stderr, "error: %v\n", err)
		return false, false
	}
	if !val.IsNull() {
		fmt.Fprintln(s.stdout, val.String())
	}
	return false, false
}

// printEnv lists globals first, then the builtins they do not shadow.
func (s *session) printEnv() {
	seen := make(map[string]bool)
	for env := s.in.Globals; env != nil; env = env.Parent() {
		for _, name := range env.Names() {
			if seen[name] {
				continue
			}
			seen[name] = true
			val, err := env.Get(name)
			if err != nil {
				continue
			}
			fmt.Fprintf(s.stdout, "%s = %s\n", name, val)
		}
	}
}

func runBufferedREPL(sess *session, reader *bufio.Reader) {
	for {
		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			fmt.Fprintf(sess.stderr, "read error: %v\n", err)
			return
		}
		atEOF := err != nil
		if atEOF && line == "" && !sess.pending() {
			return
		}
		_, quit := sess.feed(strings.TrimSuffix(line, "\n"), atEOF)
		if quit || atEOF {
			return
		}
	}
}

func runInteractiveREPL(sess *session, cfg config.Config) {
	state := liner.NewLiner()
	defer state.Close()
	state.SetCtrlCAborts(true)

	if cfg.HistoryFile != "" {
		if f, err := os.Open(cfg.HistoryFile); err == nil {
			state.ReadHistory(f)
			f.Close()
		}
		defer func() {
			if f, err := os.Create(cfg.HistoryFile); err == nil {
				state.WriteHistory(f)
				f.Close()
			}
		}()
	}

	for {
		prompt := cfg.Prompt
		if sess.pending() {
			prompt = cfg.ContinuationPrompt
		}
		input, err := state.Prompt(prompt)
		if err != nil {
			switch {
			case errors.Is(err, liner.ErrPromptAborted):
				fmt.Fprintln(sess.stdout)
				sess.reset()
				continue
			case errors.Is(err, io.EOF):
				fmt.Fprintln(sess.stdout)
				return
			default:
				fmt.Fprintf(sess.stderr, "read error: %v\n", err)
				return
			}
		}
		if trimmed := strings.TrimSpace(input); trimmed != "" {
			state.AppendHistory(trimmed)
		}
		if _, quit := sess.feed(input, false); quit {
			return
		}
	}
}

func isInteractive(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
