package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/garagedata/vehiclefacts/internal/model"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or expire evidence cache entries",
}

var (
	cacheYear       int
	cacheMake       string
	cacheModel      string
	cacheDrivetrain string
	cacheEngine     string
)

func cacheKeyFromFlags() (model.VehicleKey, error) {
	if cacheYear == 0 || cacheMake == "" || cacheModel == "" {
		return model.VehicleKey{}, eris.New("--year, --make, and --model are required")
	}
	return model.VehicleKey{
		Year:       cacheYear,
		Make:       cacheMake,
		Model:      cacheModel,
		Drivetrain: cacheDrivetrain,
		Engine:     cacheEngine,
	}, nil
}

var cacheInspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Check whether a vehicle has a fresh cached report",
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := cacheKeyFromFlags()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		c, err := openCache(ctx, cfg.Cache)
		if err != nil {
			return eris.Wrap(err, "open cache")
		}
		defer c.Close()

		rep, err := c.Get(ctx, key)
		if err != nil {
			return eris.Wrap(err, "cache get")
		}
		if rep == nil {
			fmt.Printf("%s: miss\n", key.CacheKey())
			return nil
		}
		fmt.Printf("%s: hit (outcome %s, %d field(s) resolved, cached %s)\n",
			key.CacheKey(), rep.Outcome, len(rep.FieldsResolved), rep.CreatedAt.Format("2006-01-02 15:04"))
		return nil
	},
}

var cacheExpireCmd = &cobra.Command{
	Use:   "expire",
	Short: "Drop a vehicle's cached report so the next resolution re-fetches",
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := cacheKeyFromFlags()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		c, err := openCache(ctx, cfg.Cache)
		if err != nil {
			return eris.Wrap(err, "open cache")
		}
		defer c.Close()

		rep, err := c.Get(ctx, key)
		if err != nil {
			return eris.Wrap(err, "cache get")
		}
		if err := c.Delete(ctx, key); err != nil {
			return eris.Wrap(err, "cache delete")
		}
		if rep == nil {
			fmt.Printf("%s: no fresh entry; any stale row dropped\n", key.CacheKey())
			return nil
		}
		fmt.Printf("%s: expired (was outcome %s)\n", key.CacheKey(), rep.Outcome)
		return nil
	},
}

func init() {
	cacheCmd.PersistentFlags().IntVar(&cacheYear, "year", 0, "model year")
	cacheCmd.PersistentFlags().StringVar(&cacheMake, "make", "", "vehicle make")
	cacheCmd.PersistentFlags().StringVar(&cacheModel, "model", "", "vehicle model")
	cacheCmd.PersistentFlags().StringVar(&cacheDrivetrain, "drivetrain", "", "drivetrain")
	cacheCmd.PersistentFlags().StringVar(&cacheEngine, "engine", "", "engine")
	cacheCmd.AddCommand(cacheInspectCmd)
	cacheCmd.AddCommand(cacheExpireCmd)
	rootCmd.AddCommand(cacheCmd)
}
