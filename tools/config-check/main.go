// config-check validates forwarder YAML configuration files without
// starting the daemon.
//
// Usage:
//
//	go run ./tools/config-check [-json] config.yaml [more.yaml ...]
//
// Every finding is printed with an ERROR or WARN tag; -json emits the
// structured result instead. The exit status is 1 when any file fails
// to load or has validation errors; warnings alone leave it at 0.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/logflux-io/logflux-go-sdk/config"
)

func main() {
	jsonOut := flag.Bool("json", false, "print structured JSON results")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: config-check [-json] <config.yaml> [more.yaml ...]")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	failed := false
	for _, path := range flag.Args() {
		result := config.ValidateFile(path)
		if !result.Valid {
			failed = true
		}
		if *jsonOut {
			fmt.Println(result.JSON())
			continue
		}
		for _, line := range formatResult(result) {
			fmt.Println(line)
		}
	}

	if failed {
		os.Exit(1)
	}
}

// formatResult renders one file's findings, one line per issue, with a
// closing OK line when nothing blocks startup.
func formatResult(result *config.ValidationResult) []string {
	var lines []string
	for _, issue := range result.Issues {
		tag := "WARN"
		if issue.Severity == config.SeverityError {
			tag = "ERROR"
		}
		lines = append(lines, fmt.Sprintf("%s %s: %s: %s", tag, result.File, issue.Field, issue.Message))
	}
	if result.Valid {
		lines = append(lines, "OK "+result.File)
	}
	return lines
}
