package ui

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"golang.org/x/term"

	"pfpharvest/pkg/scraper"
)

// ASCIILogo is printed at the start of a run
const ASCIILogo = `
    ╔════════════════════════════════════════════════╗
    ║  ┏━┓┏━╸┏━┓╻ ╻┏━┓┏━┓╻ ╻┏━╸┏━┓╺┳╸                ║
    ║  ┣━┛┣╸ ┣━┛┣━┫┣━┫┣┳┛┃┏┛┣╸ ┗━┓ ┃                 ║
    ║  ╹  ╹  ╹  ╹ ╹╹ ╹╹┗╸┗┛ ┗━╸┗━┛ ╹                 ║
    ║      COLLECTION THUMBNAIL HARVESTER            ║
    ╚════════════════════════════════════════════════╝
`

// Color functions for terminal output
var (
	Cyan    = colorize("\033[36m%s\033[0m")
	Yellow  = colorize("\033[33m%s\033[0m")
	Red     = colorize("\033[31m%s\033[0m")
	Green   = colorize("\033[32m%s\033[0m")
	Magenta = colorize("\033[35m%s\033[0m")
	Dim     = colorize("\033[2m%s\033[0m")
)

// colorEnabled is false when stdout is not a terminal
var colorEnabled = term.IsTerminal(int(os.Stdout.Fd()))

// SetColor forces colored output on or off
func SetColor(enabled bool) {
	colorEnabled = enabled
}

// colorize returns a function that wraps text with ANSI color codes
func colorize(colorString string) func(string) string {
	return func(text string) string {
		if !colorEnabled {
			return text
		}
		return fmt.Sprintf(colorString, text)
	}
}

// PrintLogo prints the ASCII logo with color
func PrintLogo() {
	fmt.Print(Cyan(ASCIILogo))
}

// PrintError prints an error message in red
func PrintError(msg string, args ...interface{}) {
	if len(args) > 0 {
		fmt.Println(Red(msg + ": " + fmt.Sprintf("%v", args[0])))
	} else {
		fmt.Println(Red(msg))
	}
}

// PrintSuccess prints a success message in green
func PrintSuccess(msg string) {
	fmt.Println(Green(msg))
}

// PrintInfo prints an info message in cyan
func PrintInfo(label string, value string) {
	fmt.Printf("%s: %s\n", Cyan(label), Yellow(value))
}

// PrintWarning prints a warning message in yellow
func PrintWarning(msg string, args ...interface{}) {
	if len(args) > 0 {
		fmt.Println(Yellow(msg + ": " + fmt.Sprintf("%v", args[0])))
	} else {
		fmt.Println(Yellow(msg))
	}
}

// PrintSummary writes the end-of-run report
func PrintSummary(w io.Writer, report *scraper.Report) {
	if report == nil {
		return
	}

	line := strings.Repeat("─", 48)
	fmt.Fprintln(w, Dim(line))
	fmt.Fprintf(w, "%s %s\n", Cyan("Run:"), report.RunID)
	fmt.Fprintf(w, "%s %d\n", Cyan("Crawled:"), report.Crawled)
	fmt.Fprintf(w, "%s %d\n", Cyan("Sampled:"), report.Sampled)
	fmt.Fprintf(w, "%s %d\n", Cyan("Fetched:"), report.Fetched)

	persisted := fmt.Sprintf("%d/%d", report.Persisted, report.Sampled)
	if report.Persisted == report.Sampled {
		persisted = Green(persisted)
	} else {
		persisted = Yellow(persisted)
	}
	fmt.Fprintf(w, "%s %s\n", Cyan("Persisted:"), persisted)

	if len(report.Failures) > 0 {
		kinds := make([]string, 0, len(report.Failures))
		for kind := range report.Failures {
			kinds = append(kinds, kind)
		}
		sort.Strings(kinds)

		fmt.Fprintln(w, Magenta("Dropped:"))
		for _, kind := range kinds {
			fmt.Fprintf(w, "  %-16s %d\n", kind, report.Failures[kind])
		}
	}

	fmt.Fprintf(w, "%s %s\n", Cyan("Elapsed:"), report.Duration.Round(time.Millisecond))
	fmt.Fprintln(w, Dim(line))
}
