package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/lbartron/Verlet/internal/automation"
	"github.com/lbartron/Verlet/internal/collision"
	"github.com/lbartron/Verlet/internal/config"
	"github.com/lbartron/Verlet/internal/experiment"
	"github.com/lbartron/Verlet/internal/export"
	"github.com/lbartron/Verlet/internal/sim"
	"github.com/lbartron/Verlet/internal/storage"
	"github.com/lbartron/Verlet/internal/viz"
)

var (
	dataDir string
	// config sources, later wins
	preset     string
	configFile string
	// world
	width        float64
	height       float64
	maxParticles int
	restitution  float64
	gravity      float64
	boundaryName string
	integrator   string
	damping      float64
	broadphase   string
	// timing
	dt        float64
	frameDt   float64
	substeps  int
	frames    int
	seed      int64
	spawnRate float64
	// run output
	watchEvery int
	noSave     bool
	saveConfig string
	// bench and monte carlo
	benchRuns int
	trials    int
	workers   int
	// sweep
	paramName string
	paramMin  float64
	paramMax  float64
	numSteps  int
	// snapshot
	outPath  string
	svgScale float64
)

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// main registers the commands and exits with status 1 if any of them fails.
func main() {
	rootCmd := &cobra.Command{
		Use:          "verlet",
		Short:        "2d verlet particle simulator",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLive(cmd, args)
		},
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".verlet", "data directory")
	addSimFlags(rootCmd)

	runCmd := &cobra.Command{
		Use:   "run [group]",
		Short: "run a headless simulation and store its summary",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	addSimFlags(runCmd)
	runCmd.Flags().IntVar(&watchEvery, "watch", 0, "redraw the scene every n frames (0 disables)")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")
	runCmd.Flags().StringVar(&saveConfig, "save-config", "", "write the resolved config to this yaml file")

	liveCmd := &cobra.Command{
		Use:   "live [group]",
		Short: "run the simulation in an interactive terminal view",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addSimFlags(liveCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot the per-frame series of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "print run metadata as json",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	snapshotCmd := &cobra.Command{
		Use:   "snapshot [group]",
		Short: "run a simulation and write the final scene as svg or json",
		Args:  cobra.MaximumNArgs(1),
		RunE:  snapshot,
	}
	addSimFlags(snapshotCmd)
	snapshotCmd.Flags().StringVarP(&outPath, "out", "o", "scene.svg", "output file, .svg or .json")
	snapshotCmd.Flags().Float64Var(&svgScale, "scale", 0.5, "svg pixels per world unit")

	benchCmd := &cobra.Command{
		Use:   "bench [group]",
		Short: "benchmark both broad phases over an ensemble of seeds",
		Args:  cobra.MaximumNArgs(1),
		RunE:  bench,
	}
	addSimFlags(benchCmd)
	benchCmd.Flags().IntVar(&benchRuns, "runs", 4, "ensemble size")
	benchCmd.Flags().IntVar(&workers, "workers", 0, "concurrent runs (0 means all)")

	montecarloCmd := &cobra.Command{
		Use:   "montecarlo [group]",
		Short: "check stability across many seeds",
		Args:  cobra.MaximumNArgs(1),
		RunE:  monteCarlo,
	}
	addSimFlags(montecarloCmd)
	montecarloCmd.Flags().IntVar(&trials, "trials", 16, "number of seeds")
	montecarloCmd.Flags().IntVar(&workers, "workers", 0, "concurrent runs (0 means all)")

	sweepCmd := &cobra.Command{
		Use:   "sweep [group]",
		Short: "run one simulation per value of a parameter",
		Args:  cobra.MaximumNArgs(1),
		RunE:  sweep,
	}
	addSimFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&paramName, "param", "restitution", "parameter: "+strings.Join(automation.ParamNames(), ", "))
	sweepCmd.Flags().Float64Var(&paramMin, "min", 0, "first value")
	sweepCmd.Flags().Float64Var(&paramMax, "max", 1, "last value")
	sweepCmd.Flags().IntVar(&numSteps, "steps", 5, "number of values")

	scriptCmd := &cobra.Command{
		Use:   "script [scenario.yaml]",
		Short: "run a scripted scenario",
		Args:  cobra.ExactArgs(1),
		RunE:  runScript,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [group]",
		Short: "list preset groups, or the presets of one group",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				for _, g := range config.ListGroups() {
					fmt.Printf("%s: %s\n", g, strings.Join(config.ListPresets(g), ", "))
				}
				return nil
			}
			presets := config.ListPresets(args[0])
			if len(presets) == 0 {
				fmt.Printf("no presets for group: %s\n", args[0])
				return nil
			}
			fmt.Printf("presets for %s:\n", args[0])
			for _, p := range presets {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, liveCmd, listCmd, plotCmd, exportCmd, snapshotCmd, benchCmd, montecarloCmd, sweepCmd, scriptCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addSimFlags(cmd *cobra.Command) {
	def := config.DefaultConfig()
	f := cmd.Flags()
	f.StringVar(&preset, "preset", "", "preset within the group")
	f.StringVar(&configFile, "config", "", "config file path (yaml), overrides the preset")
	f.Float64Var(&width, "width", def.Width, "world width")
	f.Float64Var(&height, "height", def.Height, "world height")
	f.IntVar(&maxParticles, "max-particles", def.MaxParticles, "particle capacity")
	f.Float64Var(&restitution, "restitution", def.Restitution, "collision restitution in [0, 1]")
	f.Float64Var(&gravity, "gravity", def.Gravity.Y, "downward acceleration")
	f.StringVar(&boundaryName, "boundary", def.Boundary, "boundary: rect or circle")
	f.StringVar(&integrator, "integrator", def.Integrator, "integrator: verlet or damped")
	f.Float64Var(&damping, "damping", def.Damping, "velocity retention per step for the damped integrator")
	f.StringVar(&broadphase, "broadphase", def.Broadphase, "broad phase: grid or naive")
	f.Float64Var(&dt, "dt", def.Dt, "fixed step")
	f.Float64Var(&frameDt, "frame-dt", def.FrameDt, "synthetic frame time")
	f.IntVar(&substeps, "substeps", def.Substeps, "max steps per frame")
	f.IntVar(&frames, "frames", def.Frames, "frames to run")
	f.Int64Var(&seed, "seed", def.Seed, "random seed")
	f.Float64Var(&spawnRate, "rate", def.Spawner.Rate, "spawn rate for rain, particles per second")
}

// resolveConfig builds the config from group preset, then config file, then
// any flag the user set explicitly.
func resolveConfig(cmd *cobra.Command, args []string) (*config.Config, string, error) {
	cfg := config.DefaultConfig()
	name := "fountain"

	if len(args) > 0 || preset != "" {
		group := "fountain"
		if len(args) > 0 {
			group = args[0]
		}
		names := config.ListPresets(group)
		if len(names) == 0 {
			return nil, "", fmt.Errorf("unknown group: %s (available: %v)", group, config.ListGroups())
		}
		p := preset
		if p == "" {
			p = names[0]
		}
		cfg = config.GetPreset(group, p)
		if cfg == nil {
			return nil, "", fmt.Errorf("unknown preset: %s (available: %v)", p, names)
		}
		name = group + "_" + p
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
		name = strings.TrimSuffix(filepath.Base(configFile), filepath.Ext(configFile))
	}

	f := cmd.Flags()
	if f.Changed("width") {
		cfg.Width = width
	}
	if f.Changed("height") {
		cfg.Height = height
	}
	if f.Changed("max-particles") {
		cfg.MaxParticles = maxParticles
	}
	if f.Changed("restitution") {
		cfg.Restitution = restitution
	}
	if f.Changed("gravity") {
		cfg.Gravity.Y = gravity
	}
	if f.Changed("boundary") {
		cfg.Boundary = boundaryName
	}
	if f.Changed("integrator") {
		cfg.Integrator = integrator
	}
	if f.Changed("damping") {
		cfg.Damping = damping
	}
	if f.Changed("broadphase") {
		cfg.Broadphase = broadphase
	}
	if f.Changed("dt") {
		cfg.Dt = dt
	}
	if f.Changed("frame-dt") {
		cfg.FrameDt = frameDt
	}
	if f.Changed("substeps") {
		cfg.Substeps = substeps
	}
	if f.Changed("frames") {
		cfg.Frames = frames
	}
	if f.Changed("seed") {
		cfg.Seed = seed
	}
	if f.Changed("rate") {
		cfg.Spawner.Rate = spawnRate
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return cfg, name, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, name, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	if saveConfig != "" {
		if err := config.Save(saveConfig, cfg); err != nil {
			return err
		}
	}

	exp := experiment.New(cfg)
	if err := exp.Setup(experiment.DefaultMetrics()); err != nil {
		return err
	}

	if watchEvery > 0 {
		w := viz.NewWatcher(os.Stdout, name, watchEvery)
		w.Start()
		defer w.Stop()
		exp.GetSimulator().AddObserver(w)
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Println(headerStyle.Render(fmt.Sprintf("running %s: %d frames, %s broad phase", name, cfg.Frames, cfg.Broadphase)))
	start := time.Now()

	result, err := exp.Run(ctx)
	if err != nil && result == nil {
		return err
	}
	if err != nil {
		fmt.Printf("interrupted after %d frames\n", result.Frames)
	}

	elapsed := time.Since(start)
	printSummary(exp.GetSimulator().Engine(), result, elapsed)

	if noSave {
		return nil
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(name, cfg, result)
	if err != nil {
		return err
	}
	fmt.Printf("run id: %s\n", runID)
	return nil
}

func printSummary(e *sim.Engine, result *sim.Result, elapsed time.Duration) {
	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("frames: %d  steps: %d  particles: %d\n", result.Frames, result.StepsTaken, e.Count())
	if result.Dropped > 0 {
		fmt.Printf("dropped time: %.4fs\n", result.Dropped)
	}
	for _, err := range result.Errors {
		fmt.Println(errorStyle.Render("error: " + err.Error()))
	}

	fmt.Println("\n" + headerStyle.Render("metrics"))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, name := range sortedKeys(result.Metrics) {
		fmt.Fprintf(w, "  %s\t%.6f\n", name, result.Metrics[name])
	}
	w.Flush()
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, name, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	factory := experiment.Factory(cfg)
	build := func() (*sim.Simulator, error) { return factory(cfg.Seed) }

	m, err := viz.NewModel(name, build, cfg.RunConfig(), nil)
	if err != nil {
		return err
	}
	return viz.Run(m)
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSPAWNER\tTIME\tFRAMES\tSTEPS\tPARTICLES\tBOUNDARY\tBROADPHASE")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%s\t%s\n",
			run.ID,
			run.Spawner,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Frames,
			run.Steps,
			run.Particles,
			run.Boundary,
			run.Broadphase,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	series, err := st.LoadSeries(runID)
	if err != nil {
		return err
	}
	if len(series.Times) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("spawner: %s  boundary: %s\n", meta.Spawner, meta.Boundary)
	fmt.Printf("frames: %d\n\n", len(series.Times))

	counts := make([]float64, len(series.Counts))
	for i, n := range series.Counts {
		counts[i] = float64(n)
	}
	plot(counts, "particles")

	for _, name := range sortedKeys(series.Values) {
		plot(series.Values[name], name)
	}
	return nil
}

func plot(data []float64, caption string) {
	if len(data) == 0 {
		return
	}
	graph := asciigraph.Plot(data,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption(caption),
	)
	fmt.Println(graph)
	fmt.Println()
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func snapshot(cmd *cobra.Command, args []string) error {
	cfg, name, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	exp := experiment.New(cfg)
	if err := exp.Setup(experiment.DefaultMetrics()); err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	result, err := exp.Run(ctx)
	if err != nil {
		return err
	}
	e := exp.GetSimulator().Engine()

	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(outPath), ".json") {
		err = export.WriteJSON(f, export.Capture(e, result.Metrics))
	} else {
		err = export.WriteSVG(f, e, svgScale)
	}
	if err != nil {
		return err
	}
	fmt.Printf("%s: wrote %d particles at t=%.2fs to %s\n", name, e.Count(), e.Time(), outPath)
	return nil
}

func bench(cmd *cobra.Command, args []string) error {
	cfg, name, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Println(headerStyle.Render(fmt.Sprintf("benchmarking %s, %d runs of %d frames", name, benchRuns, cfg.Frames)) + "\n")
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BROADPHASE\tRUNS\tSTEPS\tPARTICLES\tTIME\tSTEPS/SEC")

	for _, mode := range []collision.Mode{collision.ModeGrid, collision.ModeNaive} {
		c := cfg.Clone()
		c.Broadphase = mode.String()

		ens := sim.NewEnsemble(experiment.Factory(c), benchRuns, c.Seed)
		ens.SetLimit(workers)

		start := time.Now()
		results, err := ens.Run(ctx, c.RunConfig())
		if err != nil {
			return err
		}
		elapsed := time.Since(start)

		steps, particles := 0, 0
		for _, r := range results {
			steps += r.StepsTaken
			if n := len(r.Counts); n > 0 {
				particles += r.Counts[n-1]
			}
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%v\t%.0f\n",
			mode, len(results), steps, particles/max(len(results), 1), elapsed.Round(time.Millisecond), float64(steps)/elapsed.Seconds())
	}

	return w.Flush()
}

func monteCarlo(cmd *cobra.Command, args []string) error {
	cfg, name, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("monte carlo %s: %d seeds from %d\n\n", name, trials, cfg.Seed)
	results, err := automation.RunMonteCarlo(ctx, &automation.MonteCarloConfig{
		Base:      cfg,
		NumTrials: trials,
		Seed:      cfg.Seed,
		Workers:   workers,
	})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TRIAL\tSEED\tPARTICLES\tSTABLE")
	for _, r := range results {
		fmt.Fprintf(w, "%d\t%d\t%d\t%v\n", r.TrialID, r.Seed, r.FinalCount, r.Stable)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	stable, unstable := automation.MonteCarloStats(results)
	fmt.Printf("\nstable: %d  unstable: %d\n", stable, unstable)
	return nil
}

func sweep(cmd *cobra.Command, args []string) error {
	cfg, name, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("sweeping %s on %s\n", paramName, name)
	results, err := automation.RunSweep(ctx, &automation.ParameterSweep{
		Base:      cfg,
		ParamName: paramName,
		ParamMin:  paramMin,
		ParamMax:  paramMax,
		NumSteps:  numSteps,
	}, os.Stdout)
	if err != nil {
		return err
	}

	fmt.Println()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tPARTICLES\tSTEPS\tMAX ENERGY\tCONTACTS\tENERGY GAIN\tSTABILITY\n", strings.ToUpper(paramName))
	for _, r := range results {
		fmt.Fprintf(w, "%.4f\t%d\t%d\t%.1f\t%.1f\t%.4f\t%.3f\n",
			r.ParamValue, r.FinalCount, r.Steps, r.MaxEnergy, r.Contacts, r.EnergyGain, r.Stability)
	}
	return w.Flush()
}

func runScript(cmd *cobra.Command, args []string) error {
	scenario, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Println(headerStyle.Render("scenario: " + scenario.Name))
	if scenario.Description != "" {
		fmt.Printf("%s\n", scenario.Description)
	}

	results, err := automation.RunScenario(ctx, scenario, os.Stdout)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	for _, r := range results {
		if r.Step.SaveAs == "" {
			continue
		}
		runID, err := st.Save(r.Step.SaveAs, r.Config, r.Result)
		if err != nil {
			return err
		}
		fmt.Printf("saved %s\n", runID)
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
