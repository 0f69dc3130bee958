// Command rhgforgec is a minimal demo binary: it loads a YAML-fixture
// elaborated design and a YAML ConvertOptions file, runs the ingest
// core over it, and prints a summary table of the published netlist
// and any diagnostics raised along the way.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rs/xid"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/rhgforge/diag"
	"github.com/sarchlab/rhgforge/hdlast/fixture"
	"github.com/sarchlab/rhgforge/ingest"
	"github.com/sarchlab/rhgforge/ingestconfig"
	"github.com/sarchlab/rhgforge/rhg"
	"github.com/sarchlab/rhgforge/rhglog"
)

func main() {
	designPath := flag.String("design", "", "path to a YAML fixture design (required)")
	configPath := flag.String("config", "", "path to a YAML ConvertOptions file (optional)")
	flag.Parse()

	if *designPath == "" {
		log.Fatal("rhgforgec: -design is required")
	}

	runID := xid.New().String()

	opts := ingest.NewConvertOptions()
	if *configPath != "" {
		var err error
		opts, err = ingestconfig.Load(*configPath)
		if err != nil {
			log.Fatalf("rhgforgec[%s]: %v", runID, err)
		}
	}

	data, err := os.ReadFile(*designPath)
	if err != nil {
		log.Fatalf("rhgforgec[%s]: read design: %v", runID, err)
	}
	root, err := fixture.Build(data)
	if err != nil {
		log.Fatalf("rhgforgec[%s]: build design: %v", runID, err)
	}

	d := diag.New()
	logger := rhglog.New(os.Stderr, rhglog.Info, true)
	nl, err := ingest.New(opts).Convert(root, d, logger)
	atexit.Register(func() { logger.Info("run complete", "runID", runID) })

	printSummary(runID, nl, d)

	if err != nil || d.HasError() {
		atexit.Exit(1)
	}
	atexit.Exit(0)
}

func printSummary(runID string, nl *rhg.Netlist, d *diag.Diagnostics) {
	fmt.Printf("rhgforgec run %s\n\n", runID)

	graphTable := table.NewWriter()
	graphTable.SetTitle("Top Graphs")
	graphTable.AppendHeader(table.Row{"#", "Name"})
	for i, name := range nl.TopGraphs() {
		graphTable.AppendRow(table.Row{i + 1, name})
	}
	fmt.Println(graphTable.Render())
	fmt.Println()

	msgs := d.Messages()
	diagTable := table.NewWriter()
	diagTable.SetTitle("Diagnostics")
	diagTable.AppendHeader(table.Row{"Kind", "Pass", "Message"})
	for _, m := range msgs {
		diagTable.AppendRow(table.Row{m.Kind.String(), m.PassName, m.Message})
	}
	fmt.Println(diagTable.Render())
}
