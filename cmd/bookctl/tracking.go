package main

import (
	"fmt"

	"github.com/shinyyama/book-courier-backend/internal/tracking"
	"github.com/spf13/cobra"
)

func trackingCmd() *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "tracking",
		Short: "Print freshly generated tracking codes",
		RunE: func(cmd *cobra.Command, args []string) error {
			if count < 1 {
				return fmt.Errorf("--count must be at least 1")
			}
			gen := tracking.NewGenerator()
			for i := 0; i < count; i++ {
				fmt.Fprintln(cmd.OutOrStdout(), gen.Generate())
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 1, "number of codes")
	return cmd
}
