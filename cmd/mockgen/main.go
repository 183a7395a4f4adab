package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"talktrace/cmd/mockgen/engine"
)

func main() {
	scenario := flag.String("scenario", "mild", "Scenario to generate: mild, chaos, sparse, failing")
	users := flag.String("users", "Alice,Bob,Carol", "Comma-separated participant names")
	months := flag.Int("months", 6, "Number of months covered by the timelines")
	seed := flag.Int64("seed", 1, "Random seed")
	outDir := flag.String("out", "./.cache", "Output directory for report fixtures")
	serve := flag.String("serve", "", "Serve a stand-in analysis service on this address instead of writing files")
	delay := flag.Duration("delay", 0, "Delay applied to every served response")
	flag.Parse()

	cfg := engine.GeneratorConfig{
		Scenario: *scenario,
		Users:    strings.Split(*users, ","),
		Months:   *months,
		Seed:     *seed,
		Now:      time.Now(),
	}

	if *serve != "" {
		fmt.Printf("Serving mock analysis service (scenario '%s') on %s...\n", cfg.Scenario, *serve)
		if err := engine.NewService(cfg, *delay).Start(*serve); err != nil {
			fmt.Printf("Mock service stopped: %v\n", err)
			os.Exit(1)
		}
		return
	}

	fmt.Printf("Generating scenario '%s' (Users: %s, Months: %d) to %s...\n", cfg.Scenario, *users, cfg.Months, *outDir)

	paths, err := engine.Save(*outDir, "report", cfg)
	if err != nil {
		fmt.Printf("Failed to save mock data: %v\n", err)
		os.Exit(1)
	}
	for _, p := range paths {
		fmt.Println(p)
	}

	fmt.Println("Done.")
}
