package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/s0up4200/paperctl/filter"
)

var filtersCmd = &cobra.Command{
	Use:   "filters",
	Short: "Inspect document filter presets",
}

var filtersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the presets from the config file",
	Args:  cobra.NoArgs,
	RunE:  runFiltersList,
}

var filtersCheckCmd = &cobra.Command{
	Use:   "check <expression>",
	Short: "Check that a filter expression compiles",
	Args:  cobra.ExactArgs(1),
	RunE:  runFiltersCheck,
}

func init() {
	rootCmd.AddCommand(filtersCmd)
	filtersCmd.AddCommand(filtersListCmd, filtersCheckCmd)
}

func runFiltersList(cmd *cobra.Command, args []string) error {
	manager := filter.NewManager()

	rows := make([][]string, 0, len(cfg.Filter))
	for name, expr := range cfg.Filter {
		state := "ok"
		if err := manager.RegisterFilter(name, expr); err != nil {
			state = err.Error()
		}
		rows = append(rows, []string{name, expr, state})
	}
	sortRows(rows)

	return render(cmd, view{
		data:    cfg.Filter,
		headers: []string{"Preset", "Expression", "Status"},
		rows:    rows,
	})
}

func runFiltersCheck(cmd *cobra.Command, args []string) error {
	if _, err := filter.CompileFilter(args[0]); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "✓ Expression is valid")
	return nil
}
