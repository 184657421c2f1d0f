package report

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pterm/pterm"
)

var (
	SuccessColorFG = pterm.FgLightGreen
	SuccessStyleBG = pterm.NewStyle(pterm.BgLightGreen, pterm.FgBlack)
	WarnColorFG    = pterm.FgYellow
	WarnStyleBG    = pterm.NewStyle(pterm.BgYellow, pterm.FgBlack)
	ErrorColorFG   = pterm.FgRed
	ErrorStyleBG   = pterm.NewStyle(pterm.BgRed, pterm.FgWhite)
	InfoColorFG    = pterm.FgLightBlue
	InfoStyleBG    = pterm.NewStyle(pterm.BgLightBlue, pterm.FgBlack)
)

// PrintErrorMessage prints a standard Go error to the console.
func PrintErrorMessage(tag string, err error) {
	ErrorStyleBG.Print(tag)
	ErrorColorFG.Println(" " + err.Error())
}

// PrintWarningMessage prints a warning message to the console.
func PrintWarningMessage(tag, msg string) {
	WarnStyleBG.Print(tag)
	WarnColorFG.Println(" " + msg)
}

// PrintInfoMessage prints an informational message to the console.
func PrintInfoMessage(tag, msg string) {
	InfoStyleBG.Print(tag)
	InfoColorFG.Println(" " + msg)
}

// -----------------------------------------------------------------------------

// displayCompileError displays a compile error: a banner, the message, and the
// source text the error occurs over.
func displayCompileError(displayPath string, cerr *CompileError) {
	displayBanner(cerr.Kind.String()+" Error", displayPath)
	fmt.Println(cerr.Message)

	if cerr.Span != nil && cerr.ModulePath != "" {
		displaySourceText(cerr.ModulePath, cerr.Span)
	}
}

// displayBanner displays the banner on top of all compile messages.
func displayBanner(label, displayPath string) {
	fmt.Print("\n\n-- ")
	ErrorStyleBG.Print(label)
	fmt.Print(" ")

	fileName := filepath.Base(displayPath)
	bannerLen := pterm.GetTerminalWidth() / 2
	if bannerLen > 50 {
		bannerLen = 50
	}

	dashCount := bannerLen - len(fileName) - len(label) - 1
	if dashCount < 2 {
		dashCount = 2
	}

	fmt.Print(strings.Repeat("-", dashCount) + " ")
	InfoColorFG.Println(displayPath)
}

// displaySourceText displays the lines of the source file covered by span with
// line numbers and highlights the spanned text with carets.
func displaySourceText(path string, span *TextSpan) {
	f, err := os.Open(path)
	if err != nil {
		// the message has already been displayed
		return
	}
	defer f.Close()

	lines := make([]string, span.EndLine-span.StartLine+1)
	sc := bufio.NewScanner(f)
	for lineNumber := 0; sc.Scan(); lineNumber++ {
		if lineNumber >= span.StartLine && lineNumber <= span.EndLine {
			lines[lineNumber-span.StartLine] = strings.ReplaceAll(sc.Text(), "\t", " ")
		} else if lineNumber > span.EndLine {
			break
		}
	}

	fmt.Println()

	maxLineNumberWidth := len(strconv.Itoa(span.EndLine+1)) + 1
	lineNumberFmtStr := "%-" + strconv.Itoa(maxLineNumberWidth) + "v"

	for i, line := range lines {
		InfoColorFG.Print(fmt.Sprintf(lineNumberFmtStr, i+span.StartLine+1))
		fmt.Print("|  ")
		fmt.Println(line)

		fmt.Print(strings.Repeat(" ", maxLineNumberWidth), "|  ")
		ErrorColorFG.Println(caretLine(line, i == 0, i == len(lines)-1, span))
	}

	fmt.Println()
}

// caretLine returns the caret highlighting for one line of a span.
func caretLine(line string, first, last bool, span *TextSpan) string {
	start, end := 0, len(line)
	if first {
		start = span.StartCol
	}

	if last {
		end = span.EndCol
	}

	if start > len(line) {
		start = len(line)
	}

	if end > len(line) {
		end = len(line)
	}

	if end <= start {
		end = start + 1
	}

	return strings.Repeat(" ", start) + strings.Repeat("^", end-start)
}

const fatalErrorPostlude = `
This is likely a bug in the compiler.
Please open an issue with the source that caused it.`

func displayFatalError(msg string) {
	fmt.Print("\n\n")
	ErrorStyleBG.Print("Fatal Error ")
	ErrorColorFG.Println(msg)
	InfoColorFG.Println(fatalErrorPostlude)
}

// -----------------------------------------------------------------------------

// displayCompileHeader displays the compiler information before compilation.
func displayCompileHeader(version, profile, target string) {
	fmt.Print("requite ")
	InfoColorFG.Print("v" + version)
	fmt.Print(" -- profile: ")
	InfoColorFG.Print(profile)
	fmt.Print(" -- target: ")
	InfoColorFG.Println(target)
}

// phaseSpinner stores the current phase spinner.
var phaseSpinner *pterm.SpinnerPrinter
var currentPhase string
var phaseStartTime time.Time

const maxPhaseLength = len("Generating")

// displayBeginPhase displays the beginning of a compilation phase.
func displayBeginPhase(phase string) {
	currentPhase = phase
	phaseText := phase + "..." + strings.Repeat(" ", phasePadding(phase))
	phaseSpinner = pterm.DefaultSpinner.WithStyle(pterm.NewStyle(InfoColorFG))

	phaseSpinner.SuccessPrinter = &pterm.PrefixPrinter{
		MessageStyle: pterm.NewStyle(pterm.FgDefault),
		Prefix: pterm.Prefix{
			Style: SuccessStyleBG,
			Text:  "Done",
		},
	}

	phaseSpinner.FailPrinter = &pterm.PrefixPrinter{
		MessageStyle: pterm.NewStyle(pterm.FgDefault),
		Prefix: pterm.Prefix{
			Style: ErrorStyleBG,
			Text:  "Fail",
		},
	}

	phaseSpinner.Start(phaseText)
	phaseStartTime = time.Now()
}

// displayEndPhase displays the end of a compilation phase.
func displayEndPhase(success bool) {
	if phaseSpinner == nil {
		return
	}

	if success {
		phaseSpinner.Success(
			currentPhase+strings.Repeat(" ", phasePadding(currentPhase)),
			fmt.Sprintf("(%.3fs)", time.Since(phaseStartTime).Seconds()),
		)
	} else {
		phaseSpinner.Fail(currentPhase + strings.Repeat(" ", phasePadding(currentPhase)))
	}

	phaseSpinner = nil
}

func phasePadding(phase string) int {
	if len(phase) > maxPhaseLength {
		return 2
	}

	return maxPhaseLength - len(phase) + 2
}

// displayCompilationFinished displays a compilation finished message.
func displayCompilationFinished(success bool, errorCount, warningCount int) {
	fmt.Print("\n")

	if success {
		SuccessColorFG.Print("All done! ")
	} else {
		ErrorColorFG.Print("Oh no! ")
	}

	fmt.Print("(")

	switch errorCount {
	case 0:
		SuccessColorFG.Print(0)
		fmt.Print(" errors, ")
	case 1:
		ErrorColorFG.Print(1)
		fmt.Print(" error, ")
	default:
		ErrorColorFG.Print(errorCount)
		fmt.Print(" errors, ")
	}

	switch warningCount {
	case 0:
		SuccessColorFG.Print(0)
		fmt.Println(" warnings)")
	case 1:
		WarnColorFG.Print(1)
		fmt.Println(" warning)")
	default:
		WarnColorFG.Print(warningCount)
		fmt.Println(" warnings)")
	}
}
