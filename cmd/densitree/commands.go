package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/statlas/densitree/estimate"
	"github.com/statlas/densitree/histogram"
	"github.com/statlas/densitree/log"
	"github.com/statlas/densitree/spatial"
	"github.com/statlas/densitree/storage"
	"github.com/statlas/densitree/storage/badgerstore"
)

func newBuildCommand() *cobra.Command {
	var pointsPath, name string
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Label a CSV of points into a fine histogram and persist it",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			points, err := readPoints(pointsPath)
			if err != nil {
				return err
			}
			rule, err := spatial.ParseSplitRule(cfg.Rule)
			if err != nil {
				return err
			}
			box, err := spatial.BoundingBox(points)
			if err != nil {
				return err
			}
			st, err := spatial.NewTree(box, rule)
			if err != nil {
				return err
			}
			h, err := estimate.LabelPoints(st, cfg.Depth, points)
			if err != nil {
				return err
			}
			log.Infof("built histogram: %d leaves over %d points at depth %d",
				h.Counts().Len(), h.Total(), cfg.Depth)

			return withStore(cfg, func(store *badgerstore.Store) error {
				b, err := storage.EncodeHistogram(h)
				if err != nil {
					return err
				}
				return store.Put([]byte(name), b)
			})
		},
	}
	cmd.Flags().StringVar(&pointsPath, "points", "", "CSV file of sample points")
	cmd.Flags().StringVar(&name, "name", "fine", "name to store the histogram under")
	cmd.MarkFlagRequired("points")
	return cmd
}

func newBacktrackCommand() *cobra.Command {
	var name, out, validatePath string
	cmd := &cobra.Command{
		Use:   "backtrack",
		Short: "Coarsen a stored histogram and select an estimate",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			return withStore(cfg, func(store *badgerstore.Store) error {
				b, err := store.Get([]byte(name))
				if err != nil {
					return err
				}
				h, err := storage.DecodeHistogram(b)
				if err != nil {
					return err
				}

				if len(cfg.Steps) == 0 {
					cfg.Steps = []int{1}
				}
				prio := histogram.LowDensityFirst(h.Total())
				coarse := histogram.BacktrackCheckpoints(h, prio, histogram.Float64Less, cfg.Steps)
				trajectory := make([]*histogram.DensityHistogram, len(coarse))
				for i, c := range coarse {
					trajectory[i] = c.Normalize()
				}

				best := trajectory[len(trajectory)-1]
				if validatePath != "" {
					points, err := readPoints(validatePath)
					if err != nil {
						return err
					}
					validation, err := estimate.LabelPoints(h.Tree(), cfg.Depth, points)
					if err != nil {
						return err
					}
					var idx int
					best, idx = estimate.MDE(trajectory, validation, cfg.KInMDE)
					log.Infof("mde selected checkpoint %d", idx)
				}

				enc, err := storage.EncodeDensityHistogram(best)
				if err != nil {
					return err
				}
				if err := store.Put([]byte(out), enc); err != nil {
					return err
				}
				fmt.Printf("stored %q: %d leaves\n", out, best.Map().Len())
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "fine", "stored histogram to coarsen")
	cmd.Flags().StringVar(&out, "out", "estimate", "name to store the selected estimate under")
	cmd.Flags().StringVar(&validatePath, "validate", "", "CSV of held-out points for MDE selection")
	return cmd
}

func withStore(cfg *Config, f func(*badgerstore.Store) error) error {
	store, err := badgerstore.NewStore(cfg.StorePath)
	if err != nil {
		return err
	}
	defer store.Close()
	return f(store)
}
