// Package cli implements the kontent-migrate command-line interface.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Enngage/kontent-ai-migration-toolkit/internal/archive"
	"github.com/Enngage/kontent-ai-migration-toolkit/internal/config"
	"github.com/Enngage/kontent-ai-migration-toolkit/internal/importer"
	"github.com/Enngage/kontent-ai-migration-toolkit/internal/kontent"
	"github.com/Enngage/kontent-ai-migration-toolkit/internal/progress"
)

// newImportCmd creates the import command
func newImportCmd() *cobra.Command {
	var skipFailed bool

	cmd := &cobra.Command{
		Use:   "import <archive.zip>",
		Short: "Import a content archive into the target environment",
		Long: `Import the items, language variants and assets of a previously
exported archive into the target environment.

The import is idempotent: entities are matched by codename, created when
missing and updated only when their tracked fields differ. Running the
same import twice performs no writes the second time.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			if err := cfg.ValidateTarget(); err != nil {
				return err
			}
			if skipFailed {
				cfg.SkipFailedItems = true
			}

			data, err := archive.ReadFile(args[0])
			if err != nil {
				return err
			}

			logger := newLogger()
			client, err := kontent.NewClient(kontent.ClientConfig{
				EnvironmentID: cfg.Target.EnvironmentID,
				APIKey:        cfg.Target.APIKey,
				BaseURL:       cfg.Target.BaseURL,
			}, logger)
			if err != nil {
				return err
			}

			reporter := progress.New(quiet)
			imp := importer.New(client, importer.Config{
				SkipFailedItems: cfg.SkipFailedItems,
			}, reporter, logger)

			result, err := imp.Run(cmd.Context(), data)
			if err != nil {
				return err
			}

			if !quiet {
				fmt.Printf("Import finished: %d/%d/%d assets created/updated/skipped, "+
					"%d/%d/%d items created/updated/skipped, %d variants upserted\n",
					result.AssetsCreated, result.AssetsUpdated, result.AssetsSkipped,
					result.ItemsCreated, result.ItemsUpdated, result.ItemsSkipped,
					result.VariantsUpserted)
				if s := reporter.Summary(); s != "" {
					fmt.Print(s)
				}
			}
			if n := len(result.Errors); n > 0 {
				fmt.Printf("%d units were skipped due to errors:\n", n)
				for _, ue := range result.Errors {
					fmt.Printf("  %s: %v\n", ue.Codename, ue.Err)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipFailed, "skip-failed", false, "log and skip failed items instead of aborting")

	return cmd
}
