package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/garagedata/vehiclefacts/internal/model"
	"github.com/garagedata/vehiclefacts/internal/report"
)

var (
	resolveYear       int
	resolveMake       string
	resolveModel      string
	resolveDrivetrain string
	resolveEngine     string
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve attributes for one vehicle",
	RunE: func(cmd *cobra.Command, args []string) error {
		if resolveYear == 0 || resolveMake == "" || resolveModel == "" {
			return eris.New("--year, --make, and --model are required")
		}

		ctx := cmd.Context()
		e, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		key := model.VehicleKey{
			Year:       resolveYear,
			Make:       resolveMake,
			Model:      resolveModel,
			Drivetrain: resolveDrivetrain,
			Engine:     resolveEngine,
		}

		rep, err := e.Resolver.Resolve(ctx, key, nil)
		if err != nil {
			return eris.Wrap(err, "resolve")
		}

		fmt.Print(report.FormatMarkdown(rep))
		return nil
	},
}

func init() {
	resolveCmd.Flags().IntVar(&resolveYear, "year", 0, "model year")
	resolveCmd.Flags().StringVar(&resolveMake, "make", "", "vehicle make (normalized)")
	resolveCmd.Flags().StringVar(&resolveModel, "model", "", "vehicle model (normalized)")
	resolveCmd.Flags().StringVar(&resolveDrivetrain, "drivetrain", "", "drivetrain, e.g. awd")
	resolveCmd.Flags().StringVar(&resolveEngine, "engine", "", "engine, e.g. 1.5t")
	rootCmd.AddCommand(resolveCmd)
}
