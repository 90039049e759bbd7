// Copyright 2026 The Innatives Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/spf13/cobra"

	"github.com/innatives/geocoding-app-v2/geocode"
	"github.com/innatives/geocoding-app-v2/server"
)

var serveOpts struct {
	configPath string
	addr       string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the geocoding web server (local only)",
	Long: `Serves a small web UI to upload a tabular file, map its columns, follow
the geocoding progress and download the augmented CSV. Settings come from an
optional config file and GEOCSV_* environment variables.`,
	Args: cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		cfg, err := server.LoadConfig(serveOpts.configPath)
		if err != nil {
			return err
		}

		if serveOpts.addr != "" {
			cfg.Addr = serveOpts.addr
		}

		// Without a credential the server still starts; runs are rejected
		// until one is configured.
		credential, err := geocode.ResolveAPIKey(context.Background(), cfg.APIKey)
		if err != nil {
			log.Printf("⚠️  %v", err)
			log.Print("Geocoding runs will be rejected until a credential is configured.")
		}

		ids, err := server.NewStringID(cfg.IDGenerator)
		if err != nil {
			return err
		}

		var trace io.Writer
		if cfg.TraceHTTP {
			trace = log.Writer()
		}

		client := geocode.NewClient(geocode.ClientOptions{
			Region:      cfg.Region,
			UserAgent:   userAgent(),
			Timeout:     cfg.Timeout,
			TraceWriter: trace,
		})

		srv := server.NewServer(server.Options{
			Resolver:       client,
			Credential:     credential,
			IDs:            ids,
			Delay:          cfg.Delay,
			H3Resolution:   cfg.H3Resolution,
			MaxUploadBytes: cfg.MaxUploadBytes,
		})

		fmt.Println("🗺️  Geocoding server starting...")
		fmt.Printf("📍 Open http://%s in your browser\n", cfg.Addr)
		fmt.Println("🔒 Local only - not exposed to internet")

		return srv.Run(cfg.Addr, cfg.AllowedOrigins)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(
		&serveOpts.configPath,
		"config",
		"",
		"Path to a config file",
	)
	serveCmd.Flags().StringVar(
		&serveOpts.addr,
		"addr",
		"",
		"Listen address, overrides the config",
	)
}
