package cmd

import (
	"errors"
	"os"
	"path/filepath"

	"requitec/common"
	"requitec/mods"
	"requitec/report"

	"github.com/ComedicChimera/olive"
)

// Execute runs the main `requitec` application.
func Execute() {
	// set up the argument parser and all its extended commands and arguments
	cli := olive.NewCLI("requitec", "requitec is a compiler for Requite projects", true)
	logLvlArg := cli.AddSelectorArg("loglevel", "ll", "the compiler log level", false, []string{"silent", "error", "warn", "verbose"})
	logLvlArg.SetDefaultValue("verbose")

	buildCmd := cli.AddSubcommand("build", "compile a project or a single source file to LLVM IR", true)
	buildCmd.AddPrimaryArg("project-path", "the path to the project directory or source file to build", true)
	buildCmd.AddStringArg("profile", "p", "the name of the profile to build", false)
	buildCmd.AddFlag("watch", "w", "rebuild whenever a source file or the project file changes")

	orderCmd := cli.AddSubcommand("order", "print the module order of a project", true)
	orderCmd.AddPrimaryArg("project-path", "the path to the project directory or source file", true)
	orderCmd.AddStringArg("output", "o", "the file to write the schedule manifest to", false)

	modCmd := cli.AddSubcommand("mod", "manage projects", true)
	modInitCmd := modCmd.AddSubcommand("init", "initialize a project in the working directory", true)
	modInitCmd.AddPrimaryArg("project-name", "the name of the new project", true)

	cli.AddSubcommand("version", "print the Requite version", false)

	// run the argument parser
	result, err := olive.ParseArgs(cli, os.Args)
	if err != nil {
		report.PrintErrorMessage("CLI Usage Error", err)
		os.Exit(1)
	}

	loglevel := result.Arguments["loglevel"].(string)

	// process the inputed command line
	ok := true
	subcmdName, subResult, _ := result.Subcommand()
	switch subcmdName {
	case "build":
		ok = execBuildCommand(subResult, loglevel)
	case "order":
		ok = execOrderCommand(subResult, loglevel)
	case "mod":
		ok = execModCommand(subResult)
	case "version":
		report.PrintInfoMessage("Requite Version", common.Version)
	}

	if !ok {
		os.Exit(1)
	}
}

// execBuildCommand executes the build subcommand and handles all errors.
func execBuildCommand(result *olive.ArgParseResult, loglevel string) bool {
	projectPath, _ := result.PrimaryArg()

	selectedProfile := ""
	if profArgVal, ok := result.Arguments["profile"]; ok {
		selectedProfile = profArgVal.(string)
	}

	proj, ok := loadProject(projectPath, selectedProfile, loglevel)
	if !ok {
		return false
	} else if !result.HasFlag("watch") {
		return NewCompiler(proj).Compile()
	}

	watched := append([]string{filepath.Join(proj.ProjectRoot, common.ModuleFileName)}, proj.Sources...)
	err := watch(watched, func() {
		// the project file may have changed between builds
		if proj, ok := loadProject(projectPath, selectedProfile, loglevel); ok {
			NewCompiler(proj).Compile()
		}
	})
	if err != nil {
		report.PrintErrorMessage("Watch Error", err)
		return false
	}

	return true
}

// execOrderCommand executes the order subcommand: the project is read and
// ordered and the resulting schedule is written out.
func execOrderCommand(result *olive.ArgParseResult, loglevel string) bool {
	projectPath, _ := result.PrimaryArg()

	outputPath := ""
	if outArgVal, ok := result.Arguments["output"]; ok {
		outputPath = outArgVal.(string)
	}

	// progress output would be mixed into a manifest written to standard out
	if outputPath == "" && (loglevel == "verbose" || loglevel == "warn") {
		loglevel = "error"
	}

	proj, ok := loadProject(projectPath, "", loglevel)
	if !ok {
		return false
	}

	c := NewCompiler(proj)
	if !c.Order() {
		return report.ReportCompilationFinished()
	}

	if err := NewSchedule(proj.Name, c.Binary()).WriteFile(outputPath); err != nil {
		report.ReportStdError("Output Error", err)
		return report.ReportCompilationFinished()
	} else if outputPath == "" {
		return true
	}

	return report.ReportCompilationFinished()
}

// execModCommand executes the `mod` subcommand and its subcommands.  It
// handles all errors related to this command.
func execModCommand(result *olive.ArgParseResult) bool {
	subcmdName, subResult, _ := result.Subcommand()

	workDir, err := os.Getwd()
	if err != nil {
		report.PrintErrorMessage("Path Error", err)
		return false
	}

	switch subcmdName {
	case "init":
		projectName, _ := subResult.PrimaryArg()
		if err := mods.InitModule(projectName, workDir); err != nil {
			report.PrintErrorMessage("Project Init Error", err)
			return false
		}
	}

	return true
}

// -----------------------------------------------------------------------------

// loadProject loads the project at path and initializes the reporter.  A path
// naming a source file builds that file alone for the host.
func loadProject(path, selectedProfile, loglevel string) (*mods.RequiteProject, bool) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		report.PrintErrorMessage("Path Error", err)
		return nil, false
	}

	finfo, err := os.Stat(absPath)
	if err != nil {
		report.PrintErrorMessage("Path Error", err)
		return nil, false
	}

	var proj *mods.RequiteProject
	if finfo.IsDir() {
		proj, err = mods.LoadProject(absPath, selectedProfile)
	} else if selectedProfile != "" {
		err = errors.New("profiles can only be selected when building a project")
	} else {
		proj, err = mods.NewLooseProject([]string{absPath})
	}

	if err != nil {
		report.PrintErrorMessage("Project Load Error", err)
		return nil, false
	}

	if err := report.InitReporter(proj.ProjectRoot, loglevel); err != nil {
		report.PrintErrorMessage("CLI Usage Error", err)
		return nil, false
	}

	return proj, true
}
