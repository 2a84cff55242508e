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
Package banner provides the startup banner display for NVault.

Banner Display Overview:
========================

This package handles the visual branding displayed when NVault tooling
starts. It uses Go's embed directive to include the ASCII art banner at
compile time, ensuring the banner file is always available without
external dependencies.

ANSI Color Codes:
=================

The package uses ANSI escape sequences for terminal colors. These codes
are widely supported in modern terminals (Linux, macOS, Windows 10+).

Format: \033[<code>m

Example: "\033[31mRed Text\033[0m" prints "Red Text" in red.

Usage:
======

Simply call banner.Print() at application startup:

	func main() {
	    banner.Print()
	    // ... rest of initialization
	}
*/
package banner

import (
	_ "embed" // Required for the //go:embed directive
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"nvault/internal/config"
)

// banner contains the ASCII art logo loaded from banner.txt at compile time.
//
//go:embed banner.txt
var banner string

// ANSI escape codes for terminal text formatting.
const (
	// AnsiRed sets the foreground color to red.
	// Used for the main banner logo to create visual impact.
	AnsiRed = "\033[31m"

	// AnsiGreen sets the foreground color to green.
	// Used for copyright and license information.
	AnsiGreen = "\033[32m"

	// AnsiYellow sets the foreground color to yellow.
	// Available for warning messages or highlights.
	AnsiYellow = "\033[33m"

	// AnsiCyan sets the foreground color to cyan.
	// Used for section headers and informational text.
	AnsiCyan = "\033[36m"

	// AnsiReset clears all text formatting and returns to default.
	// Always use this after colored text to prevent color bleeding.
	AnsiReset = "\033[0m"

	// AnsiBold enables bold text rendering.
	AnsiBold = "\033[1m"

	// AnsiDim enables dim/faint text rendering.
	AnsiDim = "\033[2m"
)

// Version information for the NVault application.
// These constants are used in the banner display and can be
// referenced elsewhere in the application for version reporting.
const (
	Version   = "01.26.14"
	Copyright = "(c)2026 Firefly Software Solutions Inc"
	License   = "Licensed under Apache 2.0"
)

// Print displays the startup banner with version and copyright information.
// This function should be called once at application startup to provide
// visual branding and version information to the user.
func Print() {
	fmt.Println(AnsiRed + banner + AnsiReset)
	fmt.Println(AnsiRed + AnsiBold + ":: NVault ::                    (v" + Version + ")" + AnsiReset)
	fmt.Println(AnsiGreen + AnsiBold + Copyright + AnsiReset)
	fmt.Println(AnsiGreen + AnsiBold + License + AnsiReset)
	fmt.Println()
}

// PrintLogSeparator prints a visual separator before logs start.
// This helps users distinguish between configuration display and log output.
func PrintLogSeparator() {
	printLogSeparator(os.Stdout)
}

func printLogSeparator(w io.Writer) {
	const lineWidth = 78
	arrow := "v"
	text := " LOGS START HERE "
	padding := (lineWidth - len(text) - 4) / 2 // 4 for arrows on each side
	if padding < 0 {
		padding = 0
	}
	line := strings.Repeat("-", padding)
	fmt.Fprintf(w, "  %s%s %s%s%s %s%s%s\n",
		AnsiYellow, arrow+arrow+line,
		AnsiBold, text, AnsiReset+AnsiYellow,
		line+arrow+arrow, AnsiReset, "")
	fmt.Fprintln(w)
}

// PrintWithConfig prints the banner with a compact overview of the
// effective configuration: storage location, tuning knobs and logging.
func PrintWithConfig(cfg *config.Config) {
	PrintWithConfigTo(os.Stdout, cfg)
}

// PrintWithConfigTo writes the banner with configuration to the specified writer.
func PrintWithConfigTo(w io.Writer, cfg *config.Config) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, AnsiRed+banner+AnsiReset)
	fmt.Fprintln(w, AnsiRed+AnsiBold+":: NVault ::                    (v"+Version+")"+AnsiReset)
	fmt.Fprintln(w, AnsiDim+"  Embedded Append-Only Document Store"+AnsiReset)
	fmt.Fprintln(w)

	printConfigSource(w, cfg)
	printCompactConfig(w, cfg)

	fmt.Fprintln(w, AnsiDim+"  "+Copyright+AnsiReset)
	fmt.Fprintln(w)

	printLogSeparator(w)
}

// Helper functions for configuration display

func printConfigSource(w io.Writer, cfg *config.Config) {
	fmt.Fprint(w, "  "+AnsiDim+"Config: "+AnsiReset)
	if cfg.ConfigFile != "" {
		fmt.Fprintln(w, AnsiYellow+cfg.ConfigFile+AnsiReset)
	} else {
		fmt.Fprintln(w, AnsiDim+"defaults + environment"+AnsiReset)
	}
	fmt.Fprintln(w)
}

func printCompactConfig(w io.Writer, cfg *config.Config) {
	const lineWidth = 78

	// === STORAGE ===
	printSectionHeader(w, "Storage", lineWidth)

	col1 := fmtKV("Data", AnsiGreen+cfg.DataDir+AnsiReset)
	col2 := fmtKV("Cache", fmt.Sprintf("%d MB", cfg.CacheSizeMB))
	col3 := fmtKV("Compact", fmt.Sprintf("%.0f%%", cfg.AutoCompactThreshold*100))
	printRow3(w, col1, col2, col3)

	fmt.Fprintln(w)

	// === FEATURES ===
	printSectionHeader(w, "Features", lineWidth)
	printFeaturesInfo(w, cfg)

	fmt.Fprintln(w)

	// === RUNTIME ===
	printSectionHeader(w, "Runtime", lineWidth)

	col1 = fmtKV("Log", cfg.LogLevel)
	col2 = fmtKV("CPUs", fmt.Sprintf("%d", runtime.NumCPU()))
	col3 = fmtKV("GOMAXPROCS", fmt.Sprintf("%d", runtime.GOMAXPROCS(0)))
	printRow3(w, col1, col2, col3)

	fmt.Fprintln(w)
}

func printSectionHeader(w io.Writer, title string, width int) {
	titleLen := len(title) + 4 // "[ title ]"
	leftPad := 2
	rightPad := width - leftPad - titleLen
	if rightPad < 0 {
		rightPad = 0
	}
	fmt.Fprintf(w, "  %s[ %s%s%s ]%s%s\n",
		AnsiDim+strings.Repeat("-", leftPad),
		AnsiReset+AnsiCyan+AnsiBold, title, AnsiReset+AnsiDim,
		strings.Repeat("-", rightPad),
		AnsiReset)
}

func fmtKV(key, value string) string {
	return fmt.Sprintf("%s%s:%s %s", AnsiDim, key, AnsiReset, value)
}

func printRow3(w io.Writer, col1, col2, col3 string) {
	fmt.Fprintf(w, "  %-32s %-26s %s\n", col1, col2, col3)
}

func printFeaturesInfo(w io.Writer, cfg *config.Config) {
	var enabled []string
	var disabled []string

	if cfg.CompressionEnabled {
		enabled = append(enabled, "Compression")
	} else {
		disabled = append(disabled, "Compression")
	}
	if cfg.EncryptionEnabled {
		enabled = append(enabled, "Encryption")
	} else {
		disabled = append(disabled, "Encryption")
	}

	if len(enabled) > 0 {
		fmt.Fprintf(w, "  %sEnabled:%s  %s%s%s\n", AnsiDim, AnsiReset, AnsiGreen, strings.Join(enabled, ", "), AnsiReset)
	}
	if len(disabled) > 0 {
		fmt.Fprintf(w, "  %sDisabled:%s %s\n", AnsiDim, AnsiReset, AnsiDim+strings.Join(disabled, ", ")+AnsiReset)
	}
}
