package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/use-agent/serpscout/config"
	"github.com/use-agent/serpscout/models"
)

var fetchFlags struct {
	keywordsFile string
	out          string
	maxItems     int
	proxy        string
	headless     bool
	apiFirst     bool
	userAgent    string
}

func init() {
	f := fetchCmd.Flags()
	f.StringVar(&fetchFlags.keywordsFile, "keywords-file", "", "File with one keyword per line.")
	f.StringVarP(&fetchFlags.out, "out", "o", "", "Write records as a JSON array to this file instead of stdout.")
	f.IntVarP(&fetchFlags.maxItems, "max-items", "n", 0, "Results per keyword (default from SERPSCOUT_PER_KEYWORD).")
	f.StringVar(&fetchFlags.proxy, "proxy", "", "Proxy for the browser session.")
	f.BoolVar(&fetchFlags.headless, "headless", false, "Run the browser headless.")
	f.BoolVar(&fetchFlags.apiFirst, "api-first", false, "Try API providers before the browser.")
	f.StringVar(&fetchFlags.userAgent, "user-agent", "", "Pin the browser user-agent.")
	rootCmd.AddCommand(fetchCmd)
}

var fetchCmd = &cobra.Command{
	Use:   "fetch [keyword...] [--keywords-file <path>] [--out <records.json>]",
	Short: "Acquire results for keywords once and print them as JSON.",
	RunE: func(cmd *cobra.Command, args []string) error {
		keywords := append([]string(nil), args...)
		if fetchFlags.keywordsFile != "" {
			fromFile, err := readKeywords(fetchFlags.keywordsFile)
			if err != nil {
				return err
			}
			keywords = append(keywords, fromFile...)
		}
		if len(keywords) == 0 {
			return fmt.Errorf("no keywords: pass them as arguments or with --keywords-file")
		}

		opts := models.FetchOptions{
			Proxy:     fetchFlags.proxy,
			APIFirst:  fetchFlags.apiFirst,
			UserAgent: fetchFlags.userAgent,
		}
		if cmd.Flags().Changed("headless") {
			opts.Headless = &fetchFlags.headless
		}

		svc, store, err := buildService(config.Load())
		if err != nil {
			return err
		}
		defer store.Close()

		records, err := svc.FetchAll(cmd.Context(), keywords, fetchFlags.maxItems, opts)
		if err != nil {
			return err
		}

		meta := models.NewRunMeta(keywords, fetchFlags.maxItems, records)
		slog.Info("fetch finished", "records", len(records), "blockedKeywords", meta.BlockedKeywords, "sources", meta.Sources)

		var w io.Writer = os.Stdout
		if fetchFlags.out != "" {
			f, err := os.Create(fetchFlags.out)
			if err != nil {
				return err
			}
			defer f.Close()
			w = f
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	},
}

// readKeywords reads one keyword per line, skipping blanks and '#' comments.
func readKeywords(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open keywords file: %w", err)
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read keywords file: %w", err)
	}
	return out, nil
}
