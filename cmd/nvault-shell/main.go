/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

/*
Package main is the entry point for the NVault interactive shell (nvsh).

NVault Shell Overview:
======================

The nvault-shell (nvsh) is an interactive REPL (Read-Eval-Print Loop)
that opens a vault directly on disk. There is no server and no network:
the shell embeds the storage engine and operates on the data directory
in-process.

Architecture:
=============

The shell follows a simple synchronous loop:

 1. Read user input from stdin
 2. Parse the command and its arguments
 3. Execute it against the embedded vault through the JSON layer
 4. Display the result
 5. Repeat

Command Reference:
==================

	insert <collection> <json>                  Store a new document
	find <collection> [query-json]              Query documents
	get <id>                                    Fetch one document by id
	update <collection> <query-json> <updates>  Update matching documents
	updateid <id> <updates-json>                Update one document by id
	delete <collection> [query-json]            Soft-delete matching documents
	deleteid <id>                               Soft-delete one document by id
	count <collection>                          Count live documents
	collections                                 List collection names
	stats                                       Show database statistics
	metrics                                     Show operation counters
	help                                        Display help
	exit, quit                                  Leave the shell

Usage Examples:
===============

	Open the default data directory:
	  nvsh

	Open a specific data directory:
	  nvsh -d /var/lib/nvault

	Example session:
	  nvault> insert users {"name": "Alice", "age": 30}
	  3f1c2d4e-...
	  nvault> find users {"conditions": [{"field": "age", "operator": ">", "value": 21}]}
	  [{"id": "3f1c2d4e-...", ...}]
	  nvault> count users
	  1
*/
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/chzyer/readline"
	"golang.org/x/term"

	"nvault/internal/api"
	"nvault/internal/banner"
	"nvault/internal/config"
	"nvault/internal/logging"
	"nvault/internal/metrics"
	"nvault/internal/vault"
)

// isTerminal returns true if stdin is a terminal.
func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// shellCommands contains all completable commands for tab completion.
var shellCommands = []string{
	"insert", "find", "get", "update", "updateid",
	"delete", "deleteid", "count", "collections",
	"stats", "metrics", "help", "clear", "exit", "quit",
}

// getHistoryFilePath returns the path to the history file.
func getHistoryFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".nvault_history")
}

// createCompleter creates a readline completer for tab completion.
func createCompleter() *readline.PrefixCompleter {
	items := make([]readline.PrefixCompleterInterface, 0, len(shellCommands))
	for _, cmd := range shellCommands {
		items = append(items, readline.PcItem(cmd))
	}
	return readline.NewPrefixCompleter(items...)
}

// createReadlineInstance creates a configured readline instance.
func createReadlineInstance() (*readline.Instance, error) {
	cfg := &readline.Config{
		Prompt:          banner.AnsiCyan + "nvault" + banner.AnsiReset + banner.AnsiDim + ">" + banner.AnsiReset + " ",
		HistoryFile:     getHistoryFilePath(),
		AutoComplete:    createCompleter(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",

		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	}
	return readline.NewEx(cfg)
}

// filterInput filters input runes for readline.
func filterInput(r rune) (rune, bool) {
	switch r {
	case readline.CharCtrlZ:
		return r, false // Disable Ctrl+Z
	}
	return r, true
}

// shellFlags holds all command-line flags for the shell.
type shellFlags struct {
	DataDir    string
	ConfigFile string
	Execute    string
	Version    bool
	Help       bool
	LogLevel   string
}

func parseFlags() shellFlags {
	flags := shellFlags{}

	flag.StringVar(&flags.DataDir, "data-dir", "", "Data directory path (default: platform data dir)")
	flag.StringVar(&flags.DataDir, "d", "", "Data directory path (shorthand)")
	flag.StringVar(&flags.ConfigFile, "config", "", "Path to configuration file")
	flag.StringVar(&flags.ConfigFile, "c", "", "Path to configuration file (shorthand)")
	flag.StringVar(&flags.Execute, "execute", "", "Execute a command and exit")
	flag.StringVar(&flags.Execute, "e", "", "Execute a command and exit (shorthand)")
	flag.BoolVar(&flags.Version, "version", false, "Print version information and exit")
	flag.BoolVar(&flags.Version, "v", false, "Print version information (shorthand)")
	flag.BoolVar(&flags.Help, "help", false, "Show help information")
	flag.StringVar(&flags.LogLevel, "log-level", "", "Log level: DEBUG, INFO, WARN, ERROR")

	flag.Usage = printUsage
	flag.Parse()
	return flags
}

// printUsage prints comprehensive help information.
func printUsage() {
	banner.Print()

	fmt.Println("    nvsh [flags]")
	fmt.Println("    nvsh -e \"<command>\"")
	fmt.Println()
	fmt.Println("  Flags")
	fmt.Println()
	fmt.Println("    -d, --data-dir <path>   Data directory (default: platform data dir)")
	fmt.Println("    -c, --config <file>     Path to configuration file")
	fmt.Println("    -e, --execute <cmd>     Execute a command and exit")
	fmt.Println("    -v, --version           Print version information and exit")
	fmt.Println("        --log-level <lvl>   Log level: DEBUG, INFO, WARN, ERROR")
	fmt.Println("        --help              Show this help message")
	fmt.Println()
	fmt.Println("  Examples")
	fmt.Println()
	fmt.Println("    # Open the default data directory")
	fmt.Println("    nvsh")
	fmt.Println()
	fmt.Println("    # Open a specific data directory")
	fmt.Println("    nvsh -d /var/lib/nvault")
	fmt.Println()
	fmt.Println("    # Run a single command and exit")
	fmt.Println("    nvsh -d ./data -e \"count users\"")
	fmt.Println()
	fmt.Println("  Environment Variables")
	fmt.Println()
	fmt.Println("    NVAULT_DATA_DIR     Default data directory")
	fmt.Println("    NVAULT_LOG_LEVEL    Default log level")
	fmt.Println()
	printCommandHelp(os.Stdout)
}

func printCommandHelp(w io.Writer) {
	fmt.Fprintln(w, "  Commands")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "    insert <collection> <json>                  Store a new document")
	fmt.Fprintln(w, "    find <collection> [query-json]              Query documents")
	fmt.Fprintln(w, "    get <id>                                    Fetch one document by id")
	fmt.Fprintln(w, "    update <collection> <query-json> <updates>  Update matching documents")
	fmt.Fprintln(w, "    updateid <id> <updates-json>                Update one document by id")
	fmt.Fprintln(w, "    delete <collection> [query-json]            Soft-delete matching documents")
	fmt.Fprintln(w, "    deleteid <id>                               Soft-delete one document by id")
	fmt.Fprintln(w, "    count <collection>                          Count live documents")
	fmt.Fprintln(w, "    collections                                 List collection names")
	fmt.Fprintln(w, "    stats                                       Show database statistics")
	fmt.Fprintln(w, "    metrics                                     Show operation counters")
	fmt.Fprintln(w, "    help                                        Display this help")
	fmt.Fprintln(w, "    exit, quit                                  Leave the shell")
	fmt.Fprintln(w)
}

// main is the entry point for the nvault-shell (nvsh) application.
func main() {
	flags := parseFlags()

	if flags.Version {
		fmt.Printf("nvsh version %s\n", banner.Version)
		fmt.Printf("%s\n", banner.Copyright)
		os.Exit(0)
	}
	if flags.Help {
		printUsage()
		os.Exit(0)
	}

	if flags.ConfigFile != "" {
		os.Setenv(config.EnvConfigFile, flags.ConfigFile)
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}
	if flags.DataDir != "" {
		cfg.DataDir = flags.DataDir
	}
	if flags.LogLevel != "" {
		cfg.LogLevel = flags.LogLevel
	}
	logging.SetGlobalLevel(logging.ParseLevel(cfg.LogLevel))

	v, err := vault.Open(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open vault: %v\n", err)
		os.Exit(1)
	}
	defer v.Close()

	handle := api.NewHandle(v)

	// Single-command mode
	if flags.Execute != "" {
		output, err := execute(handle, flags.Execute)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if output != "" {
			fmt.Println(output)
		}
		os.Exit(0)
	}

	// Graceful shutdown on SIGINT/SIGTERM so the vault closes cleanly.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println()
		v.Close()
		os.Exit(0)
	}()

	// Piped input gets the plain scanner loop.
	if !isTerminal() {
		runSimpleREPL(handle)
		return
	}

	banner.PrintWithConfig(cfg)
	fmt.Printf("  Type %shelp%s for commands, %sexit%s to quit, %sTab%s for completion\n",
		banner.AnsiBold, banner.AnsiReset,
		banner.AnsiBold, banner.AnsiReset,
		banner.AnsiBold, banner.AnsiReset)
	fmt.Println()

	rl, err := createReadlineInstance()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Advanced line editing unavailable: %v\n", err)
		runSimpleREPL(handle)
		return
	}
	defer rl.Close()

	runREPL(rl, handle)
}

// runREPL is the main readline-backed loop.
func runREPL(rl *readline.Instance, handle *api.Handle) {
	for {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				fmt.Println(banner.AnsiDim + "(Use exit to quit or Ctrl+D)" + banner.AnsiReset)
				continue
			}
			if err == io.EOF {
				fmt.Println("Goodbye!")
				return
			}
			fmt.Println("Goodbye!")
			return
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}
		if isExitCommand(input) {
			fmt.Println("Goodbye!")
			return
		}
		if input == "clear" {
			fmt.Print("\033[H\033[2J")
			continue
		}

		output, err := execute(handle, input)
		if err != nil {
			fmt.Printf("%sError:%s %v\n", banner.AnsiRed, banner.AnsiReset, err)
			continue
		}
		if output != "" {
			fmt.Println(output)
		}
	}
}

// runSimpleREPL reads commands line by line without readline. Used for
// piped input and as a fallback when the terminal cannot be configured.
func runSimpleREPL(handle *api.Handle) {
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	for scanner.Scan() {
		input := strings.TrimSpace(scanner.Text())
		if input == "" || strings.HasPrefix(input, "#") {
			continue
		}
		if isExitCommand(input) {
			return
		}

		output, err := execute(handle, input)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			continue
		}
		if output != "" {
			fmt.Println(output)
		}
	}
}

func isExitCommand(input string) bool {
	switch strings.ToLower(input) {
	case "exit", "quit", "\\q":
		return true
	}
	return false
}

// execute dispatches a single shell command against the vault.
func execute(handle *api.Handle, input string) (string, error) {
	cmd, rest := splitCommand(input)

	switch strings.ToLower(cmd) {
	case "insert":
		collection, doc := splitCommand(rest)
		if collection == "" || doc == "" {
			return "", fmt.Errorf("usage: insert <collection> <json>")
		}
		return handle.CreateDocument(collection, doc)

	case "find":
		collection, queryJSON := splitCommand(rest)
		if collection == "" {
			return "", fmt.Errorf("usage: find <collection> [query-json]")
		}
		return handle.FindDocuments(collection, queryJSON)

	case "get":
		if rest == "" {
			return "", fmt.Errorf("usage: get <id>")
		}
		return handle.FindDocumentByID(rest)

	case "update":
		collection, rest := splitCommand(rest)
		queryJSON, updatesJSON, err := splitJSONPair(rest)
		if err != nil || collection == "" {
			return "", fmt.Errorf("usage: update <collection> <query-json> <updates-json>")
		}
		n, err := handle.UpdateDocuments(collection, queryJSON, updatesJSON)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%d updated", n), nil

	case "updateid":
		id, updatesJSON := splitCommand(rest)
		if id == "" || updatesJSON == "" {
			return "", fmt.Errorf("usage: updateid <id> <updates-json>")
		}
		if err := handle.UpdateDocumentByID(id, updatesJSON); err != nil {
			return "", err
		}
		return "1 updated", nil

	case "delete":
		collection, queryJSON := splitCommand(rest)
		if collection == "" {
			return "", fmt.Errorf("usage: delete <collection> [query-json]")
		}
		n, err := handle.DeleteDocuments(collection, queryJSON)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%d deleted", n), nil

	case "deleteid":
		if rest == "" {
			return "", fmt.Errorf("usage: deleteid <id>")
		}
		if err := handle.DeleteDocumentByID(rest); err != nil {
			return "", err
		}
		return "1 deleted", nil

	case "count":
		if rest == "" {
			return "", fmt.Errorf("usage: count <collection>")
		}
		n, err := handle.CountDocuments(rest)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%d", n), nil

	case "collections":
		names, err := handle.GetCollections()
		if err != nil {
			return "", err
		}
		if len(names) == 0 {
			return "(none)", nil
		}
		return strings.Join(names, "\n"), nil

	case "stats":
		return handle.GetStats()

	case "metrics":
		return formatMetrics()

	case "help", "\\h":
		var sb strings.Builder
		printCommandHelp(&sb)
		return strings.TrimRight(sb.String(), "\n"), nil

	default:
		return "", fmt.Errorf("unknown command %q (type help for commands)", cmd)
	}
}

func formatMetrics() (string, error) {
	snap := metrics.Global().Snapshot()
	out, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// splitCommand splits input into the first word and the remainder.
func splitCommand(input string) (string, string) {
	input = strings.TrimSpace(input)
	idx := strings.IndexFunc(input, func(r rune) bool { return r == ' ' || r == '\t' })
	if idx < 0 {
		return input, ""
	}
	return input[:idx], strings.TrimSpace(input[idx+1:])
}

// splitJSONPair splits a string containing two adjacent JSON objects,
// e.g. `{"a":1} {"b":2}`, by tracking brace depth outside of strings.
func splitJSONPair(input string) (string, string, error) {
	input = strings.TrimSpace(input)
	depth := 0
	inString := false
	escaped := false

	for i, r := range input {
		if escaped {
			escaped = false
			continue
		}
		switch r {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					first := input[:i+1]
					second := strings.TrimSpace(input[i+1:])
					if second == "" {
						return "", "", fmt.Errorf("expected two JSON objects")
					}
					return first, second, nil
				}
			}
		}
	}
	return "", "", fmt.Errorf("unbalanced JSON object")
}
