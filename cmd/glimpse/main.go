// Command glimpse uploads PDFs to the question-answering backend, asks
// questions about them and lays highlight overlays over their pages.
//
// Usage:
//
//	glimpse [-v] <command> [flags] [args]
//
// Commands:
//
//	upload      upload a PDF and print the processed document
//	ask         ask a question about an uploaded document
//	highlights  list the highlights of an uploaded document
//	map         map a rectangle between PDF and display space
//	overlay     write a page with its highlights as HTML or PNG
//	search      find text on the pages of a local PDF
//	ocr         read the text in a region of a page
//
// The backend base URL comes from -api or the GLIMPSE_API_URL environment
// variable.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/sirupsen/logrus"
)

// usages lists the commands in help order.
var usages = []struct{ name, text string }{
	{"upload", "upload [-api URL] file.pdf"},
	{"ask", "ask [-api URL] (-doc ID [-highlight ID,...] | -file file.pdf [-highlight ID]) question"},
	{"highlights", "highlights [-api URL] -doc ID [-page N]"},
	{"map", "map -page WxH -container WxH [-zoom Z] [-inverse] x y [w h]"},
	{"overlay", "overlay [-page N] [-container WxH] [-zoom Z] [-highlights file.json] [-search text] [-format html|png] [-o out] file.pdf"},
	{"search", "search [-page N] [-case] [-max N] query file.pdf"},
	{"ocr", "ocr [-page N] [-dpi D] [-lang L] -region x,y,w,h file.pdf"},
}

var commands = map[string]func(e *env, args []string) error{
	"upload":     runUpload,
	"ask":        runAsk,
	"highlights": runHighlights,
	"map":        runMap,
	"overlay":    runOverlay,
	"search":     runSearch,
	"ocr":        runOCR,
}

// env is what a command runs with.
type env struct {
	ctx    context.Context
	stdout io.Writer
	stderr io.Writer
	logger *logrus.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "glimpse: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("glimpse", flag.ContinueOnError)
	fs.SetOutput(stderr)
	verbose := fs.Bool("v", false, "log debug output")
	fs.Usage = func() { usage(stderr) }
	if err := fs.Parse(args); err != nil {
		return err
	}

	logger := logrus.New()
	logger.SetOutput(stderr)
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	logger.SetLevel(logrus.WarnLevel)
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	if fs.NArg() == 0 {
		usage(stderr)
		return errors.New("no command given")
	}

	name := fs.Arg(0)
	cmd, ok := commands[name]
	if !ok {
		usage(stderr)
		return fmt.Errorf("unknown command %q", name)
	}
	e := &env{ctx: ctx, stdout: stdout, stderr: stderr, logger: logger}
	return cmd(e, fs.Args()[1:])
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: glimpse [-v] <command> [flags] [args]")
	fmt.Fprintln(w)
	for _, u := range usages {
		fmt.Fprintln(w, "  glimpse "+u.text)
	}
}

// newFlagSet returns a flag set for a subcommand that reports errors to
// the command's stderr instead of exiting.
func (e *env) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	for _, u := range usages {
		if u.name == name {
			text := u.text
			fs.Usage = func() {
				fmt.Fprintln(e.stderr, "Usage: glimpse "+text)
				fs.PrintDefaults()
			}
		}
	}
	return fs
}

// needArgs checks the positional argument count of a subcommand.
func needArgs(fs *flag.FlagSet, n int) error {
	if fs.NArg() != n {
		fs.Usage()
		return fmt.Errorf("%s: expected %d argument(s), got %d", fs.Name(), n, fs.NArg())
	}
	return nil
}

func joinArgs(fs *flag.FlagSet) string {
	return strings.TrimSpace(strings.Join(fs.Args(), " "))
}
