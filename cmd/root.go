package cmd

import (
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/lattice-kmc/lattice-kmc/kmc"
	"github.com/lattice-kmc/lattice-kmc/kmc/model"
)

var (
	// CLI flags for the sampler
	seed        int64   // Seed for all random draws (lattice, event loop, weight init)
	horizon     float64 // Total observation window T
	latticeSize int     // Number of lattice sites L
	density     float64 // Up-spin density c of the exact rate rule
	logLevel    string  // Log verbosity level

	// CLI flags for training
	epochs          int     // Number of passes over the trajectory
	learningRate    float64 // Adam step size
	batchSize       int     // Configurations per batch
	accumulate      bool    // Update every updatesPerAccum batches instead of once per epoch
	updatesPerAccum int     // Batches between updates when accumulating
	gradClip        float64 // Global gradient norm clip (0 = off)

	// CLI flags for the learned rate model
	hiddenUnits int    // Hidden layer width
	window      int    // Neighborhood radius seen by each site
	inputDim    int    // Number of site states
	preset      string // Named hyperparameter preset from hyperparams.yaml
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "lattice-kmc",
	Short: "Kinetic Monte Carlo sampler and likelihood trainer for constrained lattice dynamics",
}

// runCmd samples one trajectory of the exact dynamics and fits the learned
// rate model to it by maximum trajectory likelihood.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Sample a trajectory and train the rate model against it",
	Run: func(cmd *cobra.Command, args []string) {
		// Set up logging
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		// A named preset fills in any training flag the user did not set.
		if preset != "" {
			p, err := GetPreset(HyperparamsFilepath, preset)
			if err != nil {
				logrus.Fatalf("Could not load preset %q: %v", preset, err)
			}
			applyPreset(cmd, p)
		}

		latticeCfg := kmc.LatticeConfig{Horizon: horizon, Sites: latticeSize, Density: density}
		trainCfg := kmc.TrainConfig{
			Epochs:                 epochs,
			LearningRate:           learningRate,
			BatchSize:              batchSize,
			AccumulateBeforeUpdate: accumulate,
			UpdatesPerAccum:        updatesPerAccum,
			GradClipNorm:           gradClip,
		}

		logrus.Infof("Starting run with L=%d, c=%g, T=%g, seed=%d", latticeSize, density, horizon, seed)

		rng := kmc.NewPartitionedRNG(kmc.NewSimulationKey(seed))

		sampleStart := time.Now()
		traj, exactU, err := kmc.Sample(latticeCfg, rng)
		if err != nil {
			logrus.Fatalf("Sampling failed: %v", err)
		}
		logrus.Infof("Sampling took %v", time.Since(sampleStart))

		summary, err := kmc.Summarize(traj, horizon)
		if err != nil {
			logrus.Fatalf("Could not summarize trajectory: %v", err)
		}
		summary.Print()

		mlp, err := model.New(
			model.Config{InputDim: inputDim, Window: window, Hidden: hiddenUnits},
			rng.ForSubsystem(kmc.SubsystemModel),
		)
		if err != nil {
			logrus.Fatalf("Could not build rate model: %v", err)
		}

		opt, err := kmc.NewAdam(trainCfg.LearningRate)
		if err != nil {
			logrus.Fatalf("Could not build optimizer: %v", err)
		}

		trainer, err := kmc.NewTrainer(traj, horizon, exactU)
		if err != nil {
			logrus.Fatalf("Could not build trainer: %v", err)
		}

		trainStart := time.Now()
		losses, err := trainer.Train(mlp, trainCfg, opt)
		if err != nil {
			logrus.Fatalf("Training aborted: %v", err)
		}
		logrus.Infof("Training took %v", time.Since(trainStart))

		logrus.Infof("Final epoch NLL/T=%.6f (exact U/T=%.6f)",
			losses[len(losses)-1]/horizon, exactU/horizon)
		logrus.Info("Run complete.")
	},
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// applyPreset copies preset values into any training/model flag the user
// left at its default. Explicitly-set flags win.
func applyPreset(cmd *cobra.Command, p *Preset) {
	set := func(name string, fn func()) {
		if !cmd.Flags().Changed(name) {
			fn()
		}
	}
	set("epochs", func() { epochs = p.Epochs })
	set("learning-rate", func() { learningRate = p.LearningRate })
	set("batch-size", func() { batchSize = p.BatchSize })
	set("accumulate", func() { accumulate = p.Accumulate })
	set("updates-per-accum", func() { updatesPerAccum = p.UpdatesPerAccum })
	set("grad-clip", func() { gradClip = p.GradClip })
	set("hidden-units", func() { hiddenUnits = p.HiddenUnits })
	set("window", func() { window = p.Window })
}

// init sets up CLI flags and subcommands
func init() {
	runCmd.Flags().Int64Var(&seed, "seed", 42, "Seed for random trajectory generation and weight init")
	runCmd.Flags().Float64Var(&horizon, "horizon", 100.0, "Total observation window T")
	runCmd.Flags().IntVar(&latticeSize, "lattice-size", 16, "Number of lattice sites")
	runCmd.Flags().Float64Var(&density, "density", 0.3, "Up-spin density c in (0,1)")
	runCmd.Flags().StringVar(&logLevel, "log", "info", "Log level (trace, debug, info, warn, error, fatal, panic)")

	// Training configs
	runCmd.Flags().IntVar(&epochs, "epochs", 50, "Number of training epochs")
	runCmd.Flags().Float64Var(&learningRate, "learning-rate", 1e-3, "Adam learning rate")
	runCmd.Flags().IntVar(&batchSize, "batch-size", 64, "Configurations per training batch")
	runCmd.Flags().BoolVar(&accumulate, "accumulate", true, "Apply an update every --updates-per-accum batches instead of once per epoch")
	runCmd.Flags().IntVar(&updatesPerAccum, "updates-per-accum", 1, "Batches between parameter updates when accumulating")
	runCmd.Flags().Float64Var(&gradClip, "grad-clip", 0, "Global gradient norm clip threshold (0 disables)")

	// Rate model configs
	runCmd.Flags().IntVar(&hiddenUnits, "hidden-units", 32, "Hidden layer width of the learned rate model")
	runCmd.Flags().IntVar(&window, "window", 1, "Neighborhood radius seen by each site")
	runCmd.Flags().IntVar(&inputDim, "input-dim", 2, "Number of site states")
	runCmd.Flags().StringVar(&preset, "preset", "", "Named hyperparameter preset from hyperparams.yaml")

	// Attach `run` as a subcommand to `root`
	rootCmd.AddCommand(runCmd)
}
