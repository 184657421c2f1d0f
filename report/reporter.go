package report

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/pterm/pterm"
)

// Reporter is responsible for reporting errors, warnings, and progress to the
// user.  Only one reporter exists per compilation.
type Reporter struct {
	// m is the mutex used to synchronize the printing of messages.
	m *sync.Mutex

	// The log level of the reporter.
	logLevel int

	// errorCount is the number of errors which have been reported.
	errorCount int

	// warningCount is the number of warnings which have been reported.
	warningCount int

	// buildPath is used to shorten the display paths of source files.
	buildPath string
}

// Enumeration of the different log levels.
const (
	LogLevelSilent  = iota // no output at all
	LogLevelError          // only errors and the closing message
	LogLevelWarn           // errors, warnings, and the closing message
	LogLevelVerbose        // everything including the compile header and phases (DEFAULT)
)

// rep is the global reporter.
var rep = &Reporter{m: &sync.Mutex{}, logLevel: LogLevelVerbose}

// InitReporter initializes the global reporter with the given log level name
// and build path.  Color is disabled if standard out is not a terminal.
func InitReporter(buildPath, logLevelName string) error {
	logLevel, err := LogLevelFromName(logLevelName)
	if err != nil {
		return err
	}

	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		pterm.DisableColor()
	}

	rep = &Reporter{
		m:         &sync.Mutex{},
		logLevel:  logLevel,
		buildPath: buildPath,
	}
	return nil
}

// LogLevelFromName converts a log level name into a log level.  The empty
// string selects the default log level.
func LogLevelFromName(name string) (int, error) {
	switch name {
	case "silent":
		return LogLevelSilent, nil
	case "error":
		return LogLevelError, nil
	case "warn", "warning":
		return LogLevelWarn, nil
	case "verbose", "":
		return LogLevelVerbose, nil
	}

	return 0, fmt.Errorf("invalid log level: `%s`", name)
}

// -----------------------------------------------------------------------------

// ReportCompileError reports an error produced during compilation.  Compile
// errors are displayed with the source text they occur over; all other errors
// are displayed as standard errors.
func ReportCompileError(err error) {
	var cerr *CompileError
	if !errors.As(err, &cerr) {
		ReportStdError("Compile Error", err)
		return
	}

	rep.m.Lock()
	defer rep.m.Unlock()

	rep.errorCount++
	if rep.logLevel > LogLevelSilent {
		displayEndPhase(false)
		displayCompileError(rep.displayPath(cerr.ModulePath), cerr)
	}
}

// ReportCompileWarning reports a warning about the user's program.
func ReportCompileWarning(tag, msg string, args ...interface{}) {
	rep.m.Lock()
	defer rep.m.Unlock()

	rep.warningCount++
	if rep.logLevel >= LogLevelWarn {
		PrintWarningMessage(tag, fmt.Sprintf(msg, args...))
	}
}

// ReportStdError reports a standard Go error which occurred outside of the
// user's program: eg. a file which could not be opened.
func ReportStdError(tag string, err error) {
	rep.m.Lock()
	defer rep.m.Unlock()

	rep.errorCount++
	if rep.logLevel > LogLevelSilent {
		displayEndPhase(false)
		PrintErrorMessage(tag, err)
	}
}

// ReportInfo reports an informational message.  It is only displayed at the
// verbose log level.
func ReportInfo(tag, msg string, args ...interface{}) {
	rep.m.Lock()
	defer rep.m.Unlock()

	if rep.logLevel == LogLevelVerbose {
		PrintInfoMessage(tag, fmt.Sprintf(msg, args...))
	}
}

// ReportFatal reports a fatal error and exits the program.  Fatal errors are
// failures of the compiler itself.
func ReportFatal(msg string, args ...interface{}) {
	rep.m.Lock()

	if rep.logLevel > LogLevelSilent {
		displayEndPhase(false)
		displayFatalError(fmt.Sprintf(msg, args...))
	}

	os.Exit(1)
}

// AnyErrors returns whether any errors have been reported.
func AnyErrors() bool {
	rep.m.Lock()
	defer rep.m.Unlock()

	return rep.errorCount > 0
}

// -----------------------------------------------------------------------------

// ReportCompileHeader displays the compiler version and target information.
func ReportCompileHeader(version, profile, target string) {
	if rep.logLevel == LogLevelVerbose {
		displayCompileHeader(version, profile, target)
	}
}

// ReportBeginPhase indicates the start of a compilation phase.
func ReportBeginPhase(phase string) {
	if rep.logLevel == LogLevelVerbose {
		displayBeginPhase(phase)
	}
}

// ReportEndPhase indicates that the current compilation phase has ended.
func ReportEndPhase() {
	if rep.logLevel == LogLevelVerbose {
		displayEndPhase(!AnyErrors())
	}
}

// ReportCompilationFinished displays the closing summary of compilation and
// resets the error and warning counts so the reporter can be used by another
// build.
func ReportCompilationFinished() bool {
	rep.m.Lock()
	defer rep.m.Unlock()

	success := rep.errorCount == 0
	if rep.logLevel > LogLevelSilent {
		displayCompilationFinished(success, rep.errorCount, rep.warningCount)
	}

	rep.errorCount = 0
	rep.warningCount = 0
	return success
}

// displayPath shortens an absolute path relative to the build path.
func (r *Reporter) displayPath(path string) string {
	if r.buildPath == "" || path == "" {
		return path
	}

	if rel, err := filepath.Rel(r.buildPath, path); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}

	return path
}
