package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"golang.org/x/term"

	"github.com/trezcool/studydash/core/dispatch"
	"github.com/trezcool/studydash/core/errlog"
	"github.com/trezcool/studydash/core/logstore"
)

var (
	// mockable
	isTerminalFunc = func() bool { return term.IsTerminal(int(os.Stdin.Fd())) }
	readLineFunc   = func() (string, error) { return bufio.NewReader(os.Stdin).ReadString('\n') }

	errHelp      = errors.New("help provided")
	errNotFound  = errors.New("log entry not found")
	errNoConfirm = errors.New("refusing to clear the error log without confirmation (use -yes)")
)

type commandLine struct {
	logs       *logstore.Store
	dispatcher *dispatch.Dispatcher
	out        io.Writer
}

func (cli *commandLine) printUsage() {
	_, _ = fmt.Fprintln(cli.out, "Usage:")
	_, _ = fmt.Fprintln(cli.out, "  list [-severity SEVERITY] [-unresolved] - list the error log entries")
	_, _ = fmt.Fprintln(cli.out, "  stats - print the error log statistics")
	_, _ = fmt.Fprintln(cli.out, "  export [-o FILE] - export the error log as JSON")
	_, _ = fmt.Fprintln(cli.out, "  resolve -id ID - mark an entry resolved")
	_, _ = fmt.Fprintln(cli.out, "  clear [-yes] - delete every entry")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	listCmd := flag.NewFlagSet("list", flag.ContinueOnError)
	listSeverity := listCmd.String("severity", "", "Only list the entries of this severity (low, medium, high, critical).")
	listUnresolved := listCmd.Bool("unresolved", false, "Only list the unresolved entries.")

	exportCmd := flag.NewFlagSet("export", flag.ContinueOnError)
	exportOut := exportCmd.String("o", "", "Write to this file instead of stdout.")

	resolveCmd := flag.NewFlagSet("resolve", flag.ContinueOnError)
	resolveID := resolveCmd.String("id", "", "The id of the entry to resolve.")

	clearCmd := flag.NewFlagSet("clear", flag.ContinueOnError)
	clearYes := clearCmd.Bool("yes", false, "Do not ask for confirmation.")

	for _, fs := range []*flag.FlagSet{listCmd, exportCmd, resolveCmd, clearCmd} {
		fs.SetOutput(cli.out)
	}

	switch args[1] {
	case "list":
		if err := listCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		sev := errlog.Severity(*listSeverity)
		if sev != "" && !sev.Valid() {
			listCmd.Usage()
			return errHelp
		}
		return cli.list(sev, *listUnresolved)
	case "stats":
		return cli.stats()
	case "export":
		if err := exportCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		return cli.export(*exportOut)
	case "resolve":
		if err := resolveCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *resolveID == "" {
			resolveCmd.Usage()
			return errHelp
		}
		return cli.resolve(*resolveID)
	case "clear":
		if err := clearCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		return cli.clear(*clearYes)
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) list(sev errlog.Severity, unresolved bool) error {
	w := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tTIME\tSEVERITY\tSOURCE\tMESSAGE\tRESOLVED")
	for _, e := range cli.logs.All() {
		if sev != "" && e.Severity != sev {
			continue
		}
		if unresolved && e.Resolved {
			continue
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%t\n",
			e.ID, e.Timestamp.Format("2006-01-02 15:04:05"), e.Severity, e.Source, oneLine(e.Message), e.Resolved)
	}
	return w.Flush()
}

func oneLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + "..."
	}
	return s
}

func (cli *commandLine) stats() error {
	stats := cli.dispatcher.GetStats()
	_, _ = fmt.Fprintf(cli.out, "total: %d\nunresolved: %d\n", stats.Total, stats.Unresolved)
	for _, s := range errlog.Severities {
		_, _ = fmt.Fprintf(cli.out, "%s: %d\n", s, stats.BySeverity[s])
	}
	return nil
}

func (cli *commandLine) export(path string) error {
	data, err := cli.dispatcher.ExportLogs()
	if err != nil {
		return err
	}
	if path == "" {
		_, err = fmt.Fprintln(cli.out, data)
		return err
	}
	return os.WriteFile(path, []byte(data), 0o644)
}

func (cli *commandLine) resolve(id string) error {
	if !cli.logs.Resolve(id) {
		return errNotFound
	}
	_, _ = fmt.Fprintf(cli.out, "resolved %s\n", id)
	return nil
}

func (cli *commandLine) clear(yes bool) error {
	if !yes {
		if !isTerminalFunc() {
			return errNoConfirm
		}
		_, _ = fmt.Fprintf(cli.out, "Delete %d entries? [y/N] ", len(cli.logs.All()))
		answer, err := readLineFunc()
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		if a := strings.ToLower(strings.TrimSpace(answer)); a != "y" && a != "yes" {
			return errNoConfirm
		}
	}
	cli.dispatcher.ClearLogs()
	_, _ = fmt.Fprintln(cli.out, "error log cleared")
	return nil
}
