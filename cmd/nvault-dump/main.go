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
Package main is the entry point for the NVault dump utility (nvdump).

NVault Dump Utility exports a vault's data file to portable formats for
backup, migration and inspection. It walks the append-only log record
by record, so it also serves as a low-level diagnostic tool: with -v it
prints each record's physical location, checksum and tombstone flag,
including superseded versions that the live index no longer points at.

Usage:

	nvdump -d <data_dir> [options]

Options:

	-d <path>        Data directory path (required)
	-c <names>       Comma-separated list of collections to dump (default: all)
	-o <file>        Output file path (default: stdout)
	-f <format>      Output format: json, csv (default: json)
	-z               Compress output with gzip
	--deleted        Include tombstoned records
	--all-versions   Include superseded record versions, not just the latest
	-v               Verbose record detail on stderr (offset, checksum, tombstone)
	--version        Show version information
	-h               Show help

Examples:

	# Full JSON dump
	nvdump -d ./data -o backup.json

	# Export two collections as CSV
	nvdump -d ./data -c users,orders -f csv -o data.csv

	# Compressed dump
	nvdump -d ./data -z -o backup.json.gz

	# Forensic walk including tombstones and superseded versions
	nvdump -d ./data --deleted --all-versions -v
*/
package main

import (
	"compress/gzip"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"nvault/internal/document"
	"nvault/internal/storage"
)

// Version information
const (
	Version   = "1.0.0"
	BuildDate = "2026-08-30"
)

// Command-line flags
var (
	dataDir     = flag.String("d", "", "Data directory path (required)")
	collections = flag.String("c", "", "Comma-separated list of collections to dump (default: all)")
	outputFile  = flag.String("o", "", "Output file path (default: stdout)")
	format      = flag.String("f", "json", "Output format: json, csv")
	compress    = flag.Bool("z", false, "Compress output with gzip")
	withDeleted = flag.Bool("deleted", false, "Include tombstoned records")
	allVersions = flag.Bool("all-versions", false, "Include superseded record versions")
	verbose     = flag.Bool("v", false, "Verbose record detail on stderr")
	showVersion = flag.Bool("version", false, "Show version information")
	help        = flag.Bool("h", false, "Show help")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("nvault-dump version %s (built %s)\n", Version, BuildDate)
		os.Exit(0)
	}
	if *help {
		printUsage()
		os.Exit(0)
	}
	if *dataDir == "" {
		fmt.Fprintln(os.Stderr, "Error: data directory (-d) is required")
		fmt.Fprintln(os.Stderr, "Usage: nvdump -d <data_dir> [options]")
		os.Exit(1)
	}

	if err := runExport(); err != nil {
		fmt.Fprintf(os.Stderr, "Export failed: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("NVault Dump Utility - data file export and inspection tool")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  nvdump -d <data_dir> [options]")
	fmt.Println()
	fmt.Println("Options:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  nvdump -d ./data -o backup.json                # Full JSON dump")
	fmt.Println("  nvdump -d ./data -c users -f csv -o users.csv  # Export users as CSV")
	fmt.Println("  nvdump -d ./data -z -o backup.json.gz          # Compressed dump")
	fmt.Println("  nvdump -d ./data --deleted --all-versions -v   # Forensic record walk")
}

// recordDump is the JSON shape of one exported record.
type recordDump struct {
	ID         string                 `json:"id"`
	Collection string                 `json:"collection"`
	Data       map[string]interface{} `json:"data"`
	CreatedAt  time.Time              `json:"created_at"`
	UpdatedAt  time.Time              `json:"updated_at"`
	Deleted    bool                   `json:"deleted,omitempty"`

	// Physical detail, populated only with --all-versions.
	Offset     *int64  `json:"offset,omitempty"`
	Checksum   *string `json:"checksum,omitempty"`
	Superseded bool    `json:"superseded,omitempty"`
}

// runExport walks the log and writes the selected records out.
func runExport() error {
	logPath := filepath.Join(*dataDir, storage.DataFileName)
	if _, err := os.Stat(logPath); os.IsNotExist(err) {
		return fmt.Errorf("data file not found: %s", logPath)
	}

	log, err := storage.OpenLog(logPath)
	if err != nil {
		return fmt.Errorf("failed to open data file: %w", err)
	}
	defer log.Close()

	wanted := parseCollections(*collections)

	// First pass: find the latest offset for each identifier so
	// superseded versions can be told apart from current ones.
	latest := make(map[string]int64)
	err = log.Scan(func(pos storage.Position, payload []byte, tombstone byte) error {
		doc, err := document.Decode(payload)
		if err != nil {
			if *verbose {
				fmt.Fprintf(os.Stderr, "record @%d: undecodable payload: %v\n", pos.Offset, err)
			}
			return nil
		}
		latest[doc.ID] = pos.Offset
		return nil
	})
	if err != nil {
		return err
	}

	out, closeOut, err := openOutput()
	if err != nil {
		return err
	}
	defer closeOut()

	var records []recordDump
	count := 0
	skipped := 0

	err = log.Scan(func(pos storage.Position, payload []byte, tombstone byte) error {
		doc, err := document.Decode(payload)
		if err != nil {
			skipped++
			return nil
		}

		superseded := latest[doc.ID] != pos.Offset
		deleted := tombstone == storage.TombstoneDeleted || doc.Deleted

		if *verbose {
			fmt.Fprintf(os.Stderr, "record @%-10d len=%-8d checksum=%016x tombstone=%d id=%s collection=%s%s\n",
				pos.Offset, pos.Length, storage.Checksum(payload), tombstone, doc.ID, doc.Collection,
				supersededTag(superseded))
		}

		if wanted != nil && !wanted[doc.Collection] {
			return nil
		}
		if deleted && !*withDeleted {
			return nil
		}
		if superseded && !*allVersions {
			return nil
		}

		rec := recordDump{
			ID:         doc.ID,
			Collection: doc.Collection,
			Data:       dataToInterface(doc),
			CreatedAt:  doc.CreatedAt,
			UpdatedAt:  doc.UpdatedAt,
			Deleted:    deleted,
		}
		if *allVersions {
			offset := pos.Offset
			sum := fmt.Sprintf("%016x", storage.Checksum(payload))
			rec.Offset = &offset
			rec.Checksum = &sum
			rec.Superseded = superseded
		}
		records = append(records, rec)
		count++
		return nil
	})
	if err != nil {
		return err
	}

	switch strings.ToLower(*format) {
	case "json":
		err = writeJSON(out, records)
	case "csv":
		err = writeCSV(out, records)
	default:
		err = fmt.Errorf("unknown format %q (expected json or csv)", *format)
	}
	if err != nil {
		return err
	}

	if *outputFile != "" && *outputFile != "-" {
		fmt.Fprintf(os.Stderr, "Exported %d records to %s", count, *outputFile)
		if skipped > 0 {
			fmt.Fprintf(os.Stderr, " (%d undecodable records skipped)", skipped)
		}
		fmt.Fprintln(os.Stderr)
	}
	return nil
}

func supersededTag(superseded bool) string {
	if superseded {
		return " [superseded]"
	}
	return ""
}

// parseCollections parses the -c flag into a lookup set. Nil means all.
func parseCollections(s string) map[string]bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	set := make(map[string]bool)
	for _, name := range strings.Split(s, ",") {
		name = strings.TrimSpace(name)
		if name != "" {
			set[name] = true
		}
	}
	if len(set) == 0 {
		return nil
	}
	return set
}

// openOutput sets up the output writer chain (file or stdout, optional gzip).
func openOutput() (io.Writer, func(), error) {
	var base io.WriteCloser = os.Stdout
	closers := []io.Closer{}

	if *outputFile != "" && *outputFile != "-" {
		f, err := os.Create(*outputFile)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create output file: %w", err)
		}
		base = f
		closers = append(closers, f)
	}

	var w io.Writer = base
	if *compress {
		gz := gzip.NewWriter(base)
		w = gz
		// gzip must be closed before the underlying file
		closers = append([]io.Closer{gz}, closers...)
	}

	closeAll := func() {
		for _, c := range closers {
			c.Close()
		}
	}
	return w, closeAll, nil
}

func dataToInterface(doc *document.Document) map[string]interface{} {
	out := make(map[string]interface{}, len(doc.Data))
	for k, v := range doc.Data {
		out[k] = v.Interface()
	}
	return out
}

func writeJSON(w io.Writer, records []recordDump) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if records == nil {
		records = []recordDump{}
	}
	return enc.Encode(records)
}

// writeCSV writes records with fixed columns; document fields are
// carried as a JSON blob in the data column.
func writeCSV(w io.Writer, records []recordDump) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{"id", "collection", "created_at", "updated_at", "deleted", "data"}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, rec := range records {
		data, err := json.Marshal(rec.Data)
		if err != nil {
			return err
		}
		row := []string{
			rec.ID,
			rec.Collection,
			rec.CreatedAt.Format(time.RFC3339Nano),
			rec.UpdatedAt.Format(time.RFC3339Nano),
			strconv.FormatBool(rec.Deleted),
			string(data),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	return cw.Error()
}
