package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/diogo/weatherchat/internal/models"
)

// NewExamplesCmd lists the suggested questions, or asks one of them
func NewExamplesCmd(deps *Dependencies, flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "examples [number]",
		Short: "List the suggested questions, or ask one by number",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				for i, q := range models.SuggestedQueries {
					fmt.Fprintf(deps.Stdout, "%d. %s\n", i+1, q)
				}
				return nil
			}

			n, err := strconv.Atoi(args[0])
			if err != nil || n < 1 || n > len(models.SuggestedQueries) {
				return fmt.Errorf("example number must be between 1 and %d", len(models.SuggestedQueries))
			}
			return runQuery(cmd, deps, flags, models.SuggestedQueries[n-1], queryOptions{})
		},
	}
}
