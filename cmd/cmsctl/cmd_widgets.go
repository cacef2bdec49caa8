package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/matchdesk/cms/pkg/widgets/builtin"
)

var widgetCategory string

var widgetsCmd = &cobra.Command{
	Use:   "widgets",
	Short: "Inspect the widget catalog",
}

var widgetsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered widgets",
	Args:  cobra.NoArgs,
	RunE:  runWidgetsList,
}

var widgetsCategoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List widget categories",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, c := range builtin.NewRegistry(log).Categories() {
			fmt.Fprintln(cmd.OutOrStdout(), c)
		}
		return nil
	},
}

var widgetsSchemaCmd = &cobra.Command{
	Use:   "schema <widget-id>",
	Short: "Print the props schema of a widget as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runWidgetsSchema,
}

func init() {
	widgetsListCmd.Flags().StringVar(&widgetCategory, "category", "", "Only list widgets in this category")
}

func runWidgetsList(cmd *cobra.Command, args []string) error {
	reg := builtin.NewRegistry(log)
	defs := reg.All()
	if widgetCategory != "" {
		defs = reg.ByCategory(widgetCategory)
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tSIZE\tVARIANTS")
	for _, def := range defs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%dx%d\t%d\n",
			def.ID, def.Name, def.Category, def.DefaultSize.W, def.DefaultSize.H, len(def.StyleVariants))
	}
	return tw.Flush()
}

func runWidgetsSchema(cmd *cobra.Command, args []string) error {
	schema, ok := builtin.NewRegistry(log).PropSchema(args[0])
	if !ok {
		return fmt.Errorf("unknown widget %q", args[0])
	}

	names := make([]string, 0, len(schema))
	for name := range schema {
		names = append(names, name)
	}
	sort.Strings(names)

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]interface{}{"id": args[0], "props": schema, "order": names})
}
