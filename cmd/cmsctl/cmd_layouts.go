package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matchdesk/cms/pkg/layouts"
	"github.com/matchdesk/cms/pkg/widgets/builtin"
)

var layoutsFile string

var layoutsCmd = &cobra.Command{
	Use:   "layouts",
	Short: "Work with static layout bundles",
}

var layoutsCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate static layout bundles",
	Long: `Checks every bundle for duplicate or empty cell ids, bad geometry, cells without an
instance, bundles with no usable breakpoint and instances of unregistered widget types.
Without --file the bundles compiled into the binary are checked.`,
	Args: cobra.NoArgs,
	RunE: runLayoutsCheck,
}

func init() {
	layoutsCheckCmd.Flags().StringVarP(&layoutsFile, "file", "f", "", "YAML layouts file to check")
}

func runLayoutsCheck(cmd *cobra.Command, args []string) error {
	var src layouts.Source = layouts.EmbeddedSource{}
	if layoutsFile != "" {
		src = layouts.FileSource{Path: layoutsFile}
	}
	table, err := src.Load(cmd.Context())
	if err != nil {
		return err
	}

	problems := layouts.Check(table)
	reg := builtin.NewRegistry(log)
	for id, b := range table {
		for cell, inst := range b.Instances {
			if _, ok := reg.Get(inst.Type); !ok {
				problems = append(problems, layouts.Problem{
					Layout:  id,
					Cell:    cell,
					Message: fmt.Sprintf("unknown widget type %q", inst.Type),
				})
			}
		}
	}

	out := cmd.OutOrStdout()
	for _, p := range problems {
		fmt.Fprintln(out, p.String())
	}
	if len(problems) > 0 {
		return fmt.Errorf("%d problem(s) in %d layout(s)", len(problems), len(table))
	}
	fmt.Fprintf(out, "%d layout(s) ok\n", len(table))
	return nil
}
