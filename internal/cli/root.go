package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	flagDryRun    bool
	flagPosition  string
	flagWeek      int
	flagNext      bool
	flagWeekStart string
	flagCards     string
	flagXLSX      string

	appVersion = "dev"
	rootCmd    *cobra.Command
)

func init() {
	rootCmd = &cobra.Command{
		Use:   "weekly-board",
		Short: "Create this week's Trello list and its recurring cards",
		Long: `weekly-board creates a "Todo wNN" list on a Trello board and fills it with
the recurring cards described in a YAML catalog, each due on its weekday of
the target week.

A list that already exists is left alone, so the command is safe to schedule.`,
		Args:          cobra.NoArgs,
		RunE:          runCreate, // Default action is the weekly creation
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.Flags()
	flags.BoolVar(&flagDryRun, "dry-run", false, "Show what would be created without calling the board")
	flags.StringVar(&flagPosition, "position", "", "List position on the board: top or bottom (default LIST_POSITION or top)")
	flags.IntVar(&flagWeek, "week", 0, "Explicit week number (1-53) instead of the current week")
	flags.BoolVar(&flagNext, "next", false, "Create next week's list instead of the current one")
	flags.StringVar(&flagWeekStart, "week-start", "", "First day of the week: monday, sunday or saturday (default WEEK_START_DAY or monday)")
	flags.StringVar(&flagCards, "cards", "", "Path to the cards YAML (default CARDS_YAML_PATH or config/cards.yaml)")
	flags.StringVar(&flagXLSX, "xlsx", "", "Also write the week's plan to this spreadsheet")
}

// Execute runs the root command
func Execute(version string) error {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)

	appVersion = version
	rootCmd.Version = version
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}
