package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"ythelper/output"
)

// cmdRender turns an enriched JSON result into a standalone HTML page
// without touching the cache or the API.
func cmdRender(args []string) {
	fs := flag.NewFlagSet("render", flag.ExitOnError)
	htmlOut := fs.String("o", "", "HTML output file (default: input with .html extension)")
	title := fs.String("title", "", "Page title")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: ythelper render [flags] <enriched.json>\n\nFlags:\n")
		fs.PrintDefaults()
	}
	fs.Parse(args)

	argv := fs.Args()
	if len(argv) == 0 {
		fmt.Fprintf(os.Stderr, "Error: missing enriched.json\n")
		fs.Usage()
		os.Exit(1)
	}
	jsonPath := argv[0]

	res, sourceFile, err := output.ReadJSON(jsonPath)
	if err != nil {
		fatal("%v", err)
	}

	out := *htmlOut
	if out == "" {
		out = strings.TrimSuffix(jsonPath, ".json") + ".html"
	}
	pageTitle := *title
	if pageTitle == "" && sourceFile != "" {
		pageTitle = sourceFile
	}

	if err := output.WriteHTML(out, pageTitle, res); err != nil {
		fatal("%v", err)
	}
	fmt.Fprintf(os.Stderr, "Wrote %s\n", out)
}

// cmdCompare verifies an enriched result against the playlist CSV it was
// produced from and reports the error breakdown.
func cmdCompare(args []string) {
	fs := flag.NewFlagSet("compare", flag.ExitOnError)
	reportOut := fs.String("o", "", "Write the full JSON report to this file")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: ythelper compare [flags] <playlist.csv> <enriched.json>\n\nFlags:\n")
		fs.PrintDefaults()
	}
	fs.Parse(args)

	argv := fs.Args()
	if len(argv) < 2 {
		fmt.Fprintf(os.Stderr, "Error: missing playlist.csv and enriched.json\n")
		fs.Usage()
		os.Exit(1)
	}

	report, err := output.Compare(argv[0], argv[1])
	if err != nil {
		fatal("%v", err)
	}

	if *reportOut != "" {
		if err := report.Write(*reportOut); err != nil {
			fatal("%v", err)
		}
		fmt.Fprintf(os.Stderr, "Wrote %s\n", *reportOut)
	}
	report.WriteSummary(os.Stdout)

	if report.Summary.ErrorsTotal > 0 || report.Summary.MissingFromEnriched > 0 {
		os.Exit(1)
	}
}
