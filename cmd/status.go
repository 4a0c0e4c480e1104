package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "List saved builds",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("status"); err != nil {
			return err
		}

		s, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		builds, err := s.ListBuilds(ctx)
		if err != nil {
			return err
		}
		if len(builds) == 0 {
			fmt.Println("no builds saved yet")
			return nil
		}

		fmt.Printf("%-36s  %-8s  %4s  %8s  %6s  %6s  %s\n",
			"ID", "STRATEGY", "K", "MAXDIST", "MUNIS", "EDGES", "BUILT")
		for _, b := range builds {
			fmt.Printf("%-36s  %-8s  %4d  %8.1f  %6d  %6d  %s\n",
				b.ID, b.Strategy, b.MaxEdges, b.MaxDistance,
				b.Municipalities, b.Edges, b.BuiltAt.Format("2006-01-02 15:04:05"))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
