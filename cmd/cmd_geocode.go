// Copyright 2026 The Innatives Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/innatives/geocoding-app-v2/geocode"
	"github.com/innatives/geocoding-app-v2/pipeline"
	"github.com/innatives/geocoding-app-v2/tabular"
	"github.com/innatives/geocoding-app-v2/utils/textutils"
)

type geocodeOptions struct {
	addressColumn string
	cityColumn    string
	countryColumn string
	apiKey        string
	output        string
	delay         time.Duration
	region        string
	h3Resolution  int
	maxErrors     int
	traceHTTP     bool
	traceHTTPBody bool
}

var geocodeOpts = &geocodeOptions{}

var geocodeCmd = &cobra.Command{
	Use:   "geocode <file>",
	Short: "Append coordinates to a tabular file",
	Long: `Resolves each row's location, built from the selected address, city and
country columns, through the Google Maps Geocoding API and writes the table
back with Latitude and Longitude columns appended. Rows that cannot be
resolved pass through unchanged. Interrupting the run keeps the rows
geocoded so far.`,
	Args: cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		table, err := tabular.DecodeFile(args[0])
		if err != nil {
			return err
		}

		columns := pipeline.Columns{
			Address: geocodeOpts.addressColumn,
			City:    geocodeOpts.cityColumn,
			Country: geocodeOpts.countryColumn,
		}
		if columns.Empty() {
			return pipeline.ErrNoColumns
		}

		if geocodeOpts.h3Resolution < 0 || geocodeOpts.h3Resolution > 15 {
			return fmt.Errorf("h3 resolution must be within 0..15, got %d", geocodeOpts.h3Resolution)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		credential, err := geocode.ResolveAPIKey(ctx, geocodeOpts.apiKey)
		if err != nil {
			return err
		}

		var trace io.Writer
		if geocodeOpts.traceHTTP || geocodeOpts.traceHTTPBody {
			trace = log.Writer()
		}

		client := geocode.NewClient(geocode.ClientOptions{
			Region:      geocodeOpts.region,
			UserAgent:   userAgent(),
			TraceWriter: trace,
			TraceBody:   geocodeOpts.traceHTTPBody,
		})

		var bar *progressbar.ProgressBar
		if isatty.IsTerminal(os.Stderr.Fd()) {
			bar = progressbar.NewOptions(len(table.Rows),
				progressbar.OptionSetDescription("Geocoding "+filepath.Base(args[0])),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
		}

		p := &pipeline.Processor{
			Resolver:     client,
			Delay:        geocodeOpts.delay,
			H3Resolution: geocodeOpts.h3Resolution,
			OnProgress: func(_ float64) {
				if bar != nil {
					_ = bar.Add(1)
				}
			},
		}

		result, tally, err := p.Run(ctx, table, columns, credential)
		if bar != nil {
			_ = bar.Finish()
		}

		canceled := errors.Is(err, context.Canceled)
		if err != nil && !canceled {
			return err
		}

		if err := writeTable(result, geocodeOpts.output); err != nil {
			return err
		}

		if canceled {
			log.Printf("🛑 Interrupted after %s of %s rows", textutils.FormatInt(int64(tally.Handled())), textutils.FormatInt(int64(tally.TotalRows)))
		}

		fmt.Printf("✅ Wrote %s\n", geocodeOpts.output)
		fmt.Println(tally.Summary(geocodeOpts.maxErrors))

		if canceled {
			return err
		}

		return nil
	},
}

func writeTable(table *tabular.Table, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}

	if err := table.Encode(f); err != nil {
		f.Close()

		return fmt.Errorf("writing %s: %w", path, err)
	}

	return f.Close()
}

func init() {
	rootCmd.AddCommand(geocodeCmd)
	geocodeCmd.Flags().StringVar(
		&geocodeOpts.addressColumn,
		"address-column",
		"",
		"Column holding the street address",
	)
	geocodeCmd.Flags().StringVar(
		&geocodeOpts.cityColumn,
		"city-column",
		"",
		"Column holding the city",
	)
	geocodeCmd.Flags().StringVar(
		&geocodeOpts.countryColumn,
		"country-column",
		"",
		"Column holding the country",
	)
	geocodeCmd.Flags().StringVar(
		&geocodeOpts.apiKey,
		"api-key",
		"",
		"Google Maps API key. Defaults to $GOOGLE_MAPS_API_KEY, then ADC",
	)
	geocodeCmd.Flags().StringVarP(
		&geocodeOpts.output,
		"output",
		"o",
		"geocoded_data.csv",
		"Path of the augmented CSV to write",
	)
	geocodeCmd.Flags().DurationVar(
		&geocodeOpts.delay,
		"delay",
		pipeline.DefaultDelay,
		"Pause between geocoding calls",
	)
	geocodeCmd.Flags().StringVar(
		&geocodeOpts.region,
		"region",
		"",
		"Region bias for ambiguous locations, for example \"uy\"",
	)
	geocodeCmd.Flags().IntVar(
		&geocodeOpts.h3Resolution,
		"h3-res",
		0,
		"When positive, also append the H3 cell index at this resolution (0-15)",
	)
	geocodeCmd.Flags().IntVar(
		&geocodeOpts.maxErrors,
		"max-errors",
		10,
		"Max failed rows to detail in the summary",
	)
	geocodeCmd.Flags().BoolVar(
		&geocodeOpts.traceHTTP,
		"trace-http",
		false,
		"Display HTTP requests-responses",
	)
	geocodeCmd.Flags().BoolVar(
		&geocodeOpts.traceHTTPBody,
		"trace-http-body",
		false,
		"Display HTTP requests-responses bodies",
	)
}
