package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"musicdw/internal/probe"
)

// main is the entrypoint for the dataset probing CLI. It samples the first
// records of an NDJSON file, infers field names and types, and prints the
// inventory, a starting point for wiring a new dataset into a pipeline
// config.
func main() {
	var (
		flagPath = flag.String(
			"path",
			"",
			"Path or URL of the NDJSON file to sample (file://, http(s):// accepted)",
		)
		flagRecords = flag.Int(
			"records",
			1000,
			"Number of records to sample from the start of the file",
		)
		flagJSON = flag.Bool(
			"json",
			false,
			"Emit the report as JSON instead of CSV lines",
		)
		flagAllowInsecure = flag.Bool(
			"allow-insecure",
			false,
			"allow insecure certs when sampling over https",
		)
	)
	flag.Parse()

	if *flagPath == "" {
		fmt.Fprintln(os.Stderr, "missing -path")
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	rep, err := probe.Sample(ctx, probe.Options{
		Path:             *flagPath,
		MaxRecords:       *flagRecords,
		AllowInsecureTLS: *flagAllowInsecure,
	})
	if err != nil {
		log.Fatalf("probe: %v", err)
	}

	if *flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rep); err != nil {
			log.Fatalf("encode report: %v", err)
		}
		return
	}
	fmt.Print(probe.RenderCSV(rep))
}
