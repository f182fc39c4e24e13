// Command bankcheck validates a question bank and optional game tuning file
// and prints how many questions each category holds per difficulty.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/jgirmay/privacy-tower/pkg/engine"
	"github.com/jgirmay/privacy-tower/pkg/models"
	"github.com/jgirmay/privacy-tower/pkg/questions"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("bankcheck", flag.ContinueOnError)
	fs.SetOutput(stderr)
	bankPath := fs.String("bank", "", "Question bank YAML file (default: embedded bank)")
	tuningPath := fs.String("tuning", "", "Game tuning YAML file to validate")
	asJSON := fs.Bool("json", false, "Print the summary as JSON")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	bank := questions.Default()
	if *bankPath != "" {
		loaded, err := questions.LoadFile(*bankPath)
		if err != nil {
			reportError(stderr, err)
			return 1
		}
		bank = loaded
	}

	if *tuningPath != "" {
		tuning, err := engine.LoadConfigFile(*tuningPath)
		if err != nil {
			reportError(stderr, err)
			return 1
		}
		fmt.Fprintf(stderr, "tuning ok: %d blocks over %d layers\n", tuning.Tower.TotalBlocks(), tuning.Tower.Layers)
	}

	summary := bank.Summary()
	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(map[string]interface{}{"items": bank.Len(), "categories": summary}); err != nil {
			reportError(stderr, err)
			return 1
		}
		return 0
	}

	printSummary(stdout, bank.Len(), summary)
	return 0
}

func reportError(w io.Writer, err error) {
	var invalid questions.ValidationErrors
	if errors.As(err, &invalid) {
		fmt.Fprintf(w, "question bank has %d problem(s):\n", len(invalid))
		for _, fe := range invalid {
			fmt.Fprintf(w, "  %s.%s: %s\n", fe.ItemID, fe.Field, fe.Message)
		}
		return
	}
	fmt.Fprintf(w, "Error: %v\n", err)
}

func printSummary(w io.Writer, total int, summary map[models.Category]map[models.Difficulty]int) {
	categories := make([]models.Category, 0, len(summary))
	for c := range summary {
		categories = append(categories, c)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i] < categories[j] })

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CATEGORY\tEASY\tMEDIUM\tHARD")
	for _, c := range categories {
		counts := summary[c]
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\n", c,
			counts[models.DifficultyEasy], counts[models.DifficultyMedium], counts[models.DifficultyHard])
	}
	fmt.Fprintf(tw, "TOTAL\t\t\t%d\n", total)
	tw.Flush()
}
