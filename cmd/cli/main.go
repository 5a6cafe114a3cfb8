package main

import (
	"fmt"
	"os"

	"github.com/crucial707/applog/cmd/cli/applications"
	"github.com/crucial707/applog/cmd/cli/auth"
	"github.com/crucial707/applog/cmd/cli/dictionaries"
	"github.com/crucial707/applog/cmd/cli/logs"
	"github.com/crucial707/applog/cmd/cli/root"
)

func main() {
	rootCmd := root.GetRoot()
	auth.InitAuth(rootCmd)
	dictionaries.InitDictionaries(rootCmd)
	applications.InitApplications(rootCmd)
	logs.InitLogs(rootCmd)

	// Execute the root Cobra command
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
