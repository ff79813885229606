// Package cli implements the kontent-migrate command-line interface.
package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Enngage/kontent-ai-migration-toolkit/internal/archive"
	"github.com/Enngage/kontent-ai-migration-toolkit/internal/config"
	"github.com/Enngage/kontent-ai-migration-toolkit/internal/export"
	"github.com/Enngage/kontent-ai-migration-toolkit/internal/kontent"
	"github.com/Enngage/kontent-ai-migration-toolkit/internal/progress"
)

// newExportCmd creates the export command
func newExportCmd() *cobra.Command {
	var outputFile string
	var items []string
	var itemsFile string
	var language string
	var fetchAssets bool

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export content items and assets from the source environment",
		Long: `Export content items, their language variants and referenced assets
from the source environment into a portable zip archive.

Items are selected by codename. The language may be given per item with
codename:language, or once for all items with --language:

  kontent-migrate export --item article:en --item landing_page:en
  kontent-migrate export --items-file items.txt --language default

The items file holds one codename[:language] per line; blank lines and
lines starting with # are ignored.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			if err := cfg.ValidateSource(); err != nil {
				return err
			}
			if fetchAssets {
				cfg.FetchAssetDetails = true
			}

			requests, err := collectItemRequests(items, itemsFile, language)
			if err != nil {
				return err
			}
			if len(requests) == 0 {
				return fmt.Errorf("no items selected, use --item or --items-file")
			}

			logger := newLogger()
			client, err := kontent.NewClient(kontent.ClientConfig{
				EnvironmentID: cfg.Source.EnvironmentID,
				APIKey:        cfg.Source.APIKey,
				BaseURL:       cfg.Source.BaseURL,
			}, logger)
			if err != nil {
				return err
			}

			reporter := progress.New(quiet)
			builder := export.NewBuilder(client, export.Config{
				SkipFailedItems:     cfg.SkipFailedItems,
				ReplaceInvalidLinks: cfg.ReplaceInvalidLinks,
				FetchAssetDetails:   cfg.FetchAssetDetails,
				ResolveConcurrency:  cfg.Concurrency,
				DownloadConcurrency: cfg.Concurrency,
			}, reporter, logger)

			data, err := builder.Build(cmd.Context(), requests)
			if err != nil {
				return err
			}

			if err := archive.WriteFile(outputFile, data); err != nil {
				return err
			}

			if !quiet {
				fmt.Printf("Exported %d items and %d assets to %s\n",
					len(data.Items), len(data.Assets), outputFile)
				if s := reporter.Summary(); s != "" {
					fmt.Print(s)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "content-export.zip", "output archive path")
	cmd.Flags().StringArrayVar(&items, "item", nil, "item to export as codename[:language], repeatable")
	cmd.Flags().StringVar(&itemsFile, "items-file", "", "file with one codename[:language] per line")
	cmd.Flags().StringVar(&language, "language", "", "default language for items without an explicit one")
	cmd.Flags().BoolVar(&fetchAssets, "fetch-assets", false, "download asset binaries into the archive")

	return cmd
}

// collectItemRequests merges --item flags and the items file into export
// requests, applying the default language where none is given.
func collectItemRequests(items []string, itemsFile, language string) ([]export.ItemRequest, error) {
	specs := append([]string{}, items...)

	if itemsFile != "" {
		data, err := os.ReadFile(itemsFile)
		if err != nil {
			return nil, fmt.Errorf("read items file: %w", err)
		}
		for _, line := range strings.Split(string(data), "\n") {
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			specs = append(specs, line)
		}
	}

	requests := make([]export.ItemRequest, 0, len(specs))
	for _, spec := range specs {
		codename, lang, found := strings.Cut(spec, ":")
		if !found {
			lang = language
		}
		if codename == "" || lang == "" {
			return nil, fmt.Errorf("item %q needs codename:language, or set --language", spec)
		}
		requests = append(requests, export.ItemRequest{Codename: codename, Language: lang})
	}
	return requests, nil
}
