package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/climanegocios/platform/internal/admin"
	"github.com/climanegocios/platform/internal/app"
	"github.com/climanegocios/platform/internal/repository"
	"github.com/climanegocios/platform/pkg/platform/adapter/cache"
)

func newSeedCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert or refresh the reference weather stations",
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				stations    repository.StationRepository
				searchCache cache.Cache
			)
			return app.RunTool(cmd.Context(), root.envFile, func(ctx context.Context) error {
				n, err := admin.SeedStations(ctx, stations, searchCache)
				if n > 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "%d stations seeded.\n", n)
				}
				return err
			}, &stations, &searchCache)
		},
	}
}

func newStationsCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stations",
		Short: "Query weather stations",
	}

	var (
		city  string
		limit int
	)
	search := &cobra.Command{
		Use:   "search",
		Short: "Search active stations by city (fuzzy on Postgres)",
		RunE: func(cmd *cobra.Command, args []string) error {
			var stations repository.StationRepository
			return app.RunTool(cmd.Context(), root.envFile, func(ctx context.Context) error {
				found, err := stations.SearchByCity(ctx, city, limit)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "CODE\tNAME\tCITY\tSTATE\tLAT\tLON")
				for _, s := range found {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.4f\t%.4f\n", s.Code, s.Name, s.City, s.State, s.Latitude, s.Longitude)
				}
				return tw.Flush()
			}, &stations)
		},
	}
	search.Flags().StringVar(&city, "city", "", "city name or fragment")
	search.Flags().IntVar(&limit, "limit", repository.DefaultSearchLimit, "maximum number of results")

	cmd.AddCommand(search)
	return cmd
}
