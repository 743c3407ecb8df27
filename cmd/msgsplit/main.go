package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/Artem9908/msgsplit"
	"github.com/Artem9908/msgsplit/internal/parser"
)

func main() {
	var (
		maxLen int
		format string
	)

	flag.IntVar(&maxLen, "max-len", msgsplit.DefaultMaxLen, "Maximum fragment length in characters")
	flag.StringVar(&format, "format", "text", "Output format: text or json")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [--max-len N] [--format text|json] input_file\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}
	if format != "text" && format != "json" {
		fmt.Fprintf(os.Stderr, "unknown format %q, want text or json\n", format)
		os.Exit(1)
	}

	inputPath := flag.Arg(0)
	source, err := readSource(inputPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	fragments, err := msgsplit.Split(source, maxLen)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	switch format {
	case "json":
		out := struct {
			TotalFragments int      `json:"total_fragments"`
			Fragments      []string `json:"fragments"`
		}{
			TotalFragments: len(fragments),
			Fragments:      fragments,
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	default:
		for i, frag := range fragments {
			fmt.Printf("-- fragment #%d: %d chars --\n", i+1, utf8.RuneCountInString(frag))
			fmt.Println(frag)
			fmt.Println()
		}
	}
}

// readSource reads the input file, converting non-HTML formats (markdown,
// plain text, csv, docx, pdf) to HTML first.
func readSource(path string) (string, error) {
	p, err := parser.ForFile(path, parser.DefaultOptions())
	if err != nil {
		return "", err
	}
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open input: %w", err)
	}
	defer f.Close()
	return p.Parse(f, path)
}
