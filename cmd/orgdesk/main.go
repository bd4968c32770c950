// cmd/orgdesk/main.go
//
// This is the entry point for the orgdesk CLI.
// When you run `orgdesk` from any directory, this is what executes.
//
// Flow:
// 1. Create .orgdesk/ in the project directory and load the config
// 2. Optionally start the bundled sandbox organization service
// 3. Launch the TUI (or run a subcommand headless)

package main

func main() {
	Execute()
}
