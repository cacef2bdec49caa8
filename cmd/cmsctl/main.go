// Command cmsctl inspects the widget catalog and static layouts, applies the schema and
// mints development tokens.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/matchdesk/cms/pkg/logger"
)

var (
	verbose bool
	log     = logger.Nop()
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:           "cmsctl",
	Short:         "Operate the CMS widget runtime",
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if !verbose {
			return nil
		}
		l, err := logger.New("development")
		if err != nil {
			return err
		}
		log = l
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	widgetsCmd.AddCommand(widgetsListCmd, widgetsCategoriesCmd, widgetsSchemaCmd)
	layoutsCmd.AddCommand(layoutsCheckCmd)

	rootCmd.AddCommand(widgetsCmd)
	rootCmd.AddCommand(layoutsCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(tokenCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
