// Command sdm is the engine's CLI: a cobra root command with run/list/
// show/kernels subcommands, exiting with sdmerrors.ExitCode's per-error-
// kind process exit code rather than a flat "exit 1 on any error".
package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/cloudmicro/sdm/internal/config"
	"github.com/cloudmicro/sdm/internal/driver"
	"github.com/cloudmicro/sdm/internal/observer"
	"github.com/cloudmicro/sdm/internal/registry"
	"github.com/cloudmicro/sdm/internal/scenario"
	"github.com/cloudmicro/sdm/internal/sdmerrors"
	"github.com/cloudmicro/sdm/internal/tui"
)

var (
	dataDir      string
	scenarioFile string
	configFile   string
	live         bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "sdm",
		Short: "super-droplet method cloud microphysics engine",
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".sdm", "run output directory")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a scenario to completion",
		RunE:  runScenario,
	}
	runCmd.Flags().StringVar(&scenarioFile, "scenario", "", "scenario YAML file (required)")
	runCmd.Flags().StringVar(&configFile, "config", "", "engine config YAML file (optional, overlays defaults)")
	runCmd.Flags().BoolVar(&live, "live", false, "show a live terminal monitor while the run executes")
	if err := runCmd.MarkFlagRequired("scenario"); err != nil {
		panic(err)
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "print a saved run's metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}

	kernelsCmd := &cobra.Command{
		Use:   "kernels",
		Short: "list available collision kernels and fragment laws",
		RunE:  listKernels,
	}

	rootCmd.AddCommand(runCmd, listCmd, showCmd, kernelsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(sdmerrors.ExitCode(err))
	}
}

func runScenario(cmd *cobra.Command, args []string) error {
	s, err := scenario.Load(scenarioFile)
	if err != nil {
		return err
	}

	var engineCfg *config.Config
	if configFile != "" {
		engineCfg, err = config.Load(configFile)
	} else {
		engineCfg = config.DefaultConfig()
	}
	if err != nil {
		return err
	}

	reg := registry.New()
	seed := s.Seed
	if seed == 0 {
		seed = engineCfg.Seed
	}
	rng := rand.New(rand.NewSource(seed))

	d, err := scenario.Build(s, reg, rng)
	if err != nil {
		return err
	}

	var reports chan tui.TickReport
	if live {
		reports = make(chan tui.TickReport, 8)
		d.Reports = reports
	}

	fmt.Printf("running scenario %q (%d ticks)...\n", s.Name, d.Config.EndTick+1)
	start := time.Now()

	runErrCh := make(chan error, 1)
	var result *driver.Result
	go func() {
		var runErr error
		result, runErr = d.Run(context.Background())
		runErrCh <- runErr
	}()

	if live {
		if err := tui.Run(s.Name, d.Config.EndTick+1, reports); err != nil {
			return err
		}
	}
	if runErr := <-runErrCh; runErr != nil {
		fmt.Fprintf(os.Stderr, "run ended early: %v\n", runErr)
	}

	elapsed := time.Since(start)
	fmt.Printf("completed in %v (%d ticks)\n", elapsed, result.TicksRun)
	for name, val := range result.Metrics {
		fmt.Printf("  %s: %.6g\n", name, val)
	}
	if len(result.Errors) > 0 {
		fmt.Printf("%d tolerated step errors (TolerateFailures=true)\n", len(result.Errors))
	}

	store, err := observer.New(dataDir)
	if err != nil {
		return err
	}
	rows := gridboxRows(d, result)
	runID, err := store.Save(observer.RunMetadata{
		Scenario:     s.Name,
		Timestamp:    time.Now(),
		Seed:         seed,
		Dt:           d.Config.BaseTick,
		NumTicks:     result.TicksRun,
		Kernel:       s.Steps[0].Kernel,
		FinalMetrics: result.Metrics,
	}, rows)
	if err != nil {
		return err
	}
	fmt.Printf("run id: %s\n", runID)
	return nil
}

func gridboxRows(d *driver.Driver, result *driver.Result) []observer.GridboxRow {
	rows := make([]observer.GridboxRow, 0, len(d.Domain.Gridboxes))
	for i := range d.Domain.Gridboxes {
		gbx := &d.Domain.Gridboxes[i]
		rows = append(rows, observer.GridboxRow{
			Tick:     result.TicksRun,
			GbxIndex: gbx.Index,
			NSupers:  gbx.NSupers(),
			Press:    gbx.State.Press,
			Temp:     gbx.State.Temp,
			Qvap:     gbx.State.Qvap,
			Qcond:    gbx.State.Qcond,
		})
	}
	return rows
}

func listRuns(cmd *cobra.Command, args []string) error {
	entries, err := os.ReadDir(dataDir)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Println("no runs yet")
			return nil
		}
		return err
	}
	for _, e := range entries {
		if e.IsDir() {
			fmt.Println(e.Name())
		}
	}
	return nil
}

func showRun(cmd *cobra.Command, args []string) error {
	store, err := observer.New(dataDir)
	if err != nil {
		return err
	}
	meta, rows, err := store.Load(args[0])
	if err != nil {
		return err
	}
	fmt.Printf("scenario: %s\n", meta.Scenario)
	fmt.Printf("seed: %d\n", meta.Seed)
	fmt.Printf("ticks: %d\n", meta.NumTicks)
	fmt.Printf("gridboxes: %d\n", len(rows))
	for name, val := range meta.FinalMetrics {
		fmt.Printf("  %s: %.6g\n", name, val)
	}
	return nil
}

func listKernels(cmd *cobra.Command, args []string) error {
	reg := registry.New()
	fmt.Println("collision kernels:")
	for _, k := range reg.ListKernels() {
		fmt.Printf("  %s\n", k)
	}
	fmt.Println("fragment laws:")
	for _, f := range reg.ListFragmentLaws() {
		fmt.Printf("  %s\n", f)
	}
	return nil
}
