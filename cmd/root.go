package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	sim "github.com/crowd-sim/crowd-sim/sim"
	"github.com/crowd-sim/crowd-sim/sim/trace"
)

var (
	// CLI flags for the scenario and run bounds
	scenarioPath  string // Path to the scenario YAML
	seed          int64  // Seed for flooding and age sampling
	maxTicks      int64  // Tick limit (0 = until empty or stalled)
	stopWhenEmpty bool   // Stop once every pedestrian arrived
	logLevel      string // Log verbosity level
	snapshotOut   string // Path of the final snapshot YAML
	traceLevel    string // Trace verbosity (none, arrivals, moves)

	// CLI flags for the movement model
	costModel         string  // Cost field model
	nonAbsorbing      bool    // Keep arrived pedestrians on their target
	repulsion         bool    // Enable pedestrian repulsion
	repulsionRadius   float64 // Repulsion cutoff in cells
	repulsionStrength float64 // Repulsion multiplier
	repulsionScale    float64 // Gaussian width in cells
	repulsionDecay    string  // Repulsion shape
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "crowd-sim",
	Short: "Cellular-automaton pedestrian simulator",
}

// setupLogging applies --log or exits.
func setupLogging() {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)
}

// loadScenario reads --scenario and resolves it with the effective seed.
// A --seed given on the command line overrides the file's seed.
func loadScenario(cmd *cobra.Command) (*BuiltScenario, int64) {
	if scenarioPath == "" {
		logrus.Fatalf("Scenario file not provided (--scenario).")
	}
	file, err := LoadScenarioFile(scenarioPath)
	if err != nil {
		logrus.Fatalf("%v", err)
	}
	runSeed := seed
	if file.Seed != nil && !cmd.Flags().Changed("seed") {
		runSeed = *file.Seed
	}
	built, err := file.Build(sim.NewPartitionedRNG(sim.NewSimulationKey(runSeed)))
	if err != nil {
		logrus.Fatalf("Invalid scenario %s: %v", scenarioPath, err)
	}
	return built, runSeed
}

// simConfigFromFlags builds the movement configuration from CLI flags.
func simConfigFromFlags(tickSeconds float64) sim.SimConfig {
	cfg := sim.DefaultSimConfig()
	cfg.CostModel = sim.CostModel(costModel)
	cfg.AbsorbingTargets = !nonAbsorbing
	cfg.TickSeconds = tickSeconds
	cfg.Trace = trace.TraceLevel(traceLevel)
	cfg.Repulsion = sim.NewRepulsionConfig(repulsion, repulsionRadius, repulsionStrength, repulsionScale, sim.RepulsionDecay(repulsionDecay))
	return cfg
}

// newSimulation builds the simulation and applies flood groups, all drawn
// from the placement RNG in declaration order.
func newSimulation(built *BuiltScenario, cfg sim.SimConfig, runSeed int64) (*sim.Simulation, error) {
	s, err := sim.NewSimulation(built.Scenario, cfg)
	if err != nil {
		return nil, err
	}
	rng := sim.NewPartitionedRNG(sim.NewSimulationKey(runSeed)).ForSubsystem(sim.SubsystemPlacement)
	for i, fl := range built.Flood {
		ids, err := s.FloodPedestrians(fl.Density, fl.Speed, rng)
		if err != nil {
			return nil, fmt.Errorf("flood[%d]: %w", i, err)
		}
		logrus.Infof("Flood %d placed %d pedestrians", i, len(ids))
	}
	return s, nil
}

// runCmd executes the simulation using the scenario file and CLI flags
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the crowd simulation",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()

		built, runSeed := loadScenario(cmd)
		s, err := newSimulation(built, simConfigFromFlags(built.TickSeconds), runSeed)
		if err != nil {
			logrus.Fatalf("Invalid scenario %s: %v", scenarioPath, err)
		}

		logrus.Infof("Starting simulation: seed=%d, max ticks=%d, stop when empty=%v, tick=%.3fs",
			runSeed, maxTicks, stopWhenEmpty, s.TickSeconds())
		startTime := time.Now()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		res, err := s.Run(ctx, sim.NewRunConfig(maxTicks, stopWhenEmpty))
		if err != nil && res.Reason != sim.StopCanceled {
			logrus.Fatalf("Run failed: %v", err)
		}

		s.Metrics.Print(len(s.Active()), s.TickSeconds())
		fmt.Printf("Stop Reason          : %s\n", res.Reason)
		fmt.Printf("Wall Time            : %s\n", time.Since(startTime).Round(time.Millisecond))

		if snapshotOut != "" {
			if err := WriteSnapshot(snapshotOut, NewSnapshotOutput(s, res, runSeed)); err != nil {
				logrus.Fatalf("%v", err)
			}
			logrus.Infof("Snapshot written to %s", snapshotOut)
		}
		logrus.Info("Simulation complete.")
	},
}

// costsCmd prints the cost field of a scenario without running it
var costsCmd = &cobra.Command{
	Use:   "costs",
	Short: "Print the cost field of a scenario",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()

		built, runSeed := loadScenario(cmd)
		s, err := newSimulation(built, simConfigFromFlags(built.TickSeconds), runSeed)
		if err != nil {
			logrus.Fatalf("Invalid scenario %s: %v", scenarioPath, err)
		}
		for _, row := range RenderGrid(s.Snapshot()) {
			fmt.Println(row)
		}
		fmt.Println()
		fmt.Print(FormatCosts(s.CostField()))
		if ids := s.Unreachable(); len(ids) > 0 {
			fmt.Printf("Unreachable pedestrians: %v\n", ids)
		}
	},
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// addModelFlags registers the flags shared by run and costs.
func addModelFlags(c *cobra.Command) {
	def := sim.DefaultRepulsionConfig()
	c.Flags().StringVar(&scenarioPath, "scenario", "", "Path to the scenario YAML file")
	c.Flags().Int64Var(&seed, "seed", 42, "Seed for flooding and age sampling (overrides the scenario seed)")
	c.Flags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
	c.Flags().StringVar(&costModel, "cost-model", string(sim.CostDijkstra), "Cost field model (dijkstra, euclidean, euclidean-no-obstacles)")
	c.Flags().BoolVar(&nonAbsorbing, "non-absorbing", false, "Keep arrived pedestrians on their target cell")
	c.Flags().BoolVar(&repulsion, "repulsion", false, "Enable repulsion between pedestrians")
	c.Flags().Float64Var(&repulsionRadius, "repulsion-radius", def.Radius, "Repulsion cutoff distance in cells")
	c.Flags().Float64Var(&repulsionStrength, "repulsion-strength", def.Strength, "Repulsion strength")
	c.Flags().Float64Var(&repulsionScale, "repulsion-scale", def.Scale, "Gaussian repulsion width in cells")
	c.Flags().StringVar(&repulsionDecay, "repulsion-decay", string(def.Decay), "Repulsion shape (gaussian, radial)")
	c.Flags().StringVar(&traceLevel, "trace", string(trace.TraceLevelNone), "Trace level (none, arrivals, moves)")
}

// init sets up CLI flags and subcommands
func init() {
	addModelFlags(runCmd)
	runCmd.Flags().Int64Var(&maxTicks, "max-ticks", 0, "Maximum number of ticks (0 = until empty or stalled)")
	runCmd.Flags().BoolVar(&stopWhenEmpty, "stop-when-empty", true, "Stop as soon as every pedestrian has arrived")
	runCmd.Flags().StringVar(&snapshotOut, "snapshot-out", "", "Write the final state as YAML to this path")

	addModelFlags(costsCmd)

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(costsCmd)
}
