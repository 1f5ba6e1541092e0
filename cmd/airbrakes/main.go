package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/apogee-sim/airbrakes/internal/analysis"
	"github.com/apogee-sim/airbrakes/internal/config"
	"github.com/apogee-sim/airbrakes/internal/control"
	"github.com/apogee-sim/airbrakes/internal/flight"
	"github.com/apogee-sim/airbrakes/internal/metrics"
	"github.com/apogee-sim/airbrakes/internal/optim"
	"github.com/apogee-sim/airbrakes/internal/sim"
	"github.com/apogee-sim/airbrakes/internal/store"
	"github.com/apogee-sim/airbrakes/internal/tui"
)

var (
	configFile string
	preset     string

	controller string
	target     float64
	rateHz     float64
	maxDeploy  float64
	rateLimit  float64
	kp         float64
	ki         float64
	kd         float64
	hysteresis float64
	lagTicks   int

	altitude float64
	velocity float64
	dt       float64
	duration float64
	seed       int64
	altNoise   float64
	velNoise   float64
	integrator string

	jsonOut string
	csvOut  string
	svgOut  string

	runs     int
	altSigma float64
	velSigma float64

	sweepSteps int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "airbrakes",
		Short: "active airbrake apogee control simulator",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "simulate a single coast flight",
		RunE:  runFlight,
	}
	addFlightFlags(runCmd)
	runCmd.Flags().StringVar(&jsonOut, "json", "", "write run data to JSON file ('-' for stdout)")
	runCmd.Flags().StringVar(&csvOut, "csv", "", "write per-step data to CSV file")
	runCmd.Flags().StringVar(&svgOut, "svg", "", "write flight profile plot to SVG file")

	ensembleCmd := &cobra.Command{
		Use:   "ensemble",
		Short: "run Monte-Carlo trials in parallel",
		RunE:  runEnsemble,
	}
	addFlightFlags(ensembleCmd)
	ensembleCmd.Flags().IntVar(&runs, "runs", 100, "number of trials")
	ensembleCmd.Flags().Float64Var(&altSigma, "alt-sigma", 15.0, "initial altitude dispersion (1-sigma, m)")
	ensembleCmd.Flags().Float64Var(&velSigma, "vel-sigma", 4.0, "initial velocity dispersion (1-sigma, m/s)")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "grid-search PID gains against apogee error",
		RunE:  runSweep,
	}
	addFlightFlags(sweepCmd)
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 5, "grid points per gain")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "watch a flight with live visualization",
		RunE:  runLive,
	}
	addFlightFlags(liveCmd)

	presetsCmd := &cobra.Command{
		Use:   "presets [class]",
		Short: "list available presets",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			names := config.ListPresets(args[0])
			if names == nil {
				return fmt.Errorf("unknown preset class: %s", args[0])
			}
			for _, p := range names {
				fmt.Printf("  %s/%s\n", args[0], p)
			}
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, ensembleCmd, sweepCmd, liveCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addFlightFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "preset as class/name, e.g. competition/pid")
	cmd.Flags().StringVar(&controller, "controller", "pid", "control law (pid|bangbang|mpc)")
	cmd.Flags().Float64Var(&target, "target", config.DefaultTargetApogee, "target apogee (m)")
	cmd.Flags().Float64Var(&rateHz, "rate", config.DefaultSamplingRate, "control loop rate (Hz)")
	cmd.Flags().Float64Var(&maxDeploy, "max-deploy", config.DefaultMaxDeployment, "max deployment fraction")
	cmd.Flags().Float64Var(&rateLimit, "rate-limit", config.DefaultRateLimit, "deployment rate limit (fraction/s)")
	cmd.Flags().Float64Var(&kp, "kp", config.DefaultKp, "pid kp")
	cmd.Flags().Float64Var(&ki, "ki", config.DefaultKi, "pid ki")
	cmd.Flags().Float64Var(&kd, "kd", config.DefaultKd, "pid kd")
	cmd.Flags().Float64Var(&hysteresis, "hysteresis", config.DefaultHysteresis, "bang-bang band (m)")
	cmd.Flags().IntVar(&lagTicks, "lag", 0, "actuator lag (control ticks)")
	cmd.Flags().Float64Var(&altitude, "altitude", 1800.0, "coast start altitude (m AGL)")
	cmd.Flags().Float64Var(&velocity, "velocity", 180.0, "coast start velocity (m/s)")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "physics timestep (s)")
	cmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "max coast duration (s)")
	cmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "sensor noise seed")
	cmd.Flags().Float64Var(&altNoise, "alt-noise", 0.0, "altitude sensor noise (1-sigma, m)")
	cmd.Flags().Float64Var(&velNoise, "vel-noise", 0.0, "velocity sensor noise (1-sigma, m/s)")
	cmd.Flags().StringVar(&integrator, "integrator", "rk4", "integrator (rk4|rk45|euler)")
}

// buildConfig resolves preset < config file < CLI flags, most specific
// wins.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		class, name, ok := strings.Cut(preset, "/")
		if !ok {
			return nil, fmt.Errorf("preset must be class/name, e.g. competition/pid")
		}
		cfg = config.GetPreset(class, name)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(class))
		}
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("controller") {
		cfg.Controller = controller
	}
	if flags.Changed("target") {
		cfg.TargetApogee = target
	}
	if flags.Changed("rate") {
		cfg.SamplingRateHz = rateHz
	}
	if flags.Changed("max-deploy") {
		cfg.MaxDeployment = maxDeploy
	}
	if flags.Changed("rate-limit") {
		cfg.RateLimit = rateLimit
	}
	if flags.Changed("kp") {
		cfg.Gains.Kp = kp
	}
	if flags.Changed("ki") {
		cfg.Gains.Ki = ki
	}
	if flags.Changed("kd") {
		cfg.Gains.Kd = kd
	}
	if flags.Changed("hysteresis") {
		cfg.Hysteresis = hysteresis
	}
	if flags.Changed("lag") {
		cfg.LagTicks = lagTicks
	}
	if flags.Changed("altitude") {
		cfg.Init.Altitude = altitude
	}
	if flags.Changed("velocity") {
		cfg.Init.Velocity = velocity
	}
	if flags.Changed("dt") {
		cfg.Sim.Dt = dt
	}
	if flags.Changed("time") {
		cfg.Sim.Duration = duration
	}
	if flags.Changed("seed") || cfg.Sim.Seed == 0 {
		cfg.Sim.Seed = seed
	}
	if flags.Changed("alt-noise") {
		cfg.Sim.AltNoise = altNoise
	}
	if flags.Changed("vel-noise") {
		cfg.Sim.VelNoise = velNoise
	}
	if flags.Changed("integrator") || cfg.Sim.Integrator == "" {
		cfg.Sim.Integrator = integrator
	}
	return cfg, nil
}

func buildIntegrator(name string) (sim.Integrator, error) {
	switch name {
	case "rk4":
		return flight.NewRK4(), nil
	case "rk45":
		return flight.NewRK45(), nil
	case "euler":
		return flight.NewEuler(), nil
	}
	return nil, fmt.Errorf("unknown integrator: %s", name)
}

func buildSimulator(cfg *config.Config) (*sim.Simulator, error) {
	loop, err := control.New(cfg.ControlConfig())
	if err != nil {
		return nil, err
	}
	coast := flight.NewCoast(cfg.Rocket.Mass, cfg.Rocket.ReferenceArea, cfg.DragTable())
	coast.GroundASL = cfg.Rocket.GroundASL

	integ, err := buildIntegrator(cfg.Sim.Integrator)
	if err != nil {
		return nil, err
	}
	s := sim.New(coast, integ, loop)
	s.AddMetric(metrics.NewApogeeError(cfg.TargetApogee))
	s.AddMetric(metrics.NewControlEffort())
	s.AddMetric(metrics.NewToggles(0.01))
	return s, nil
}

func simConfig(cfg *config.Config) sim.Config {
	return sim.Config{
		Dt:            cfg.Sim.Dt,
		Duration:      cfg.Sim.Duration,
		Seed:          cfg.Sim.Seed,
		AltNoise:      cfg.Sim.AltNoise,
		VelNoise:      cfg.Sim.VelNoise,
		ValidateState: true,
	}
}

func runFlight(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	s, err := buildSimulator(cfg)
	if err != nil {
		return err
	}

	x0 := sim.State{cfg.Init.Altitude, cfg.Init.Velocity}
	result, err := s.Run(context.Background(), x0, simConfig(cfg))
	if err != nil {
		return err
	}

	printSummary(cfg, result)
	plotResult(result)

	if jsonOut == "-" {
		if err := store.ExportJSONStdout(cfg.Controller, cfg.TargetApogee, cfg.Sim.Dt, result); err != nil {
			return err
		}
	} else if jsonOut != "" {
		if err := store.ExportJSON(jsonOut, cfg.Controller, cfg.TargetApogee, cfg.Sim.Dt, result); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", jsonOut)
	}
	if csvOut != "" {
		if err := store.ExportCSV(csvOut, result); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", csvOut)
	}
	if svgOut != "" {
		if err := store.ExportSVG(svgOut, cfg.TargetApogee, result); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", svgOut)
	}
	return nil
}

func printSummary(cfg *config.Config, result *sim.Result) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "controller\t%s\n", cfg.Controller)
	fmt.Fprintf(w, "target apogee\t%.1f m\n", cfg.TargetApogee)
	fmt.Fprintf(w, "apogee\t%.1f m (t=%.2fs)\n", result.Apogee, result.ApogeeTime)
	fmt.Fprintf(w, "miss\t%+.1f m\n", result.Apogee-cfg.TargetApogee)
	fmt.Fprintf(w, "steps\t%d\n", result.StepsTaken)
	for name, v := range result.Metrics {
		fmt.Fprintf(w, "%s\t%.4f\n", name, v)
	}
	fmt.Fprintf(w, "degraded samples\t%d\n", result.Diag.BadSamples)
	fmt.Fprintf(w, "saturation events\t%d\n", result.Diag.Saturation)
	if f := analysis.ChatterFrequency(result.Deployments, cfg.Sim.Dt); f > 0 {
		fmt.Fprintf(w, "chatter\t%.2f Hz\n", f)
	}
	w.Flush()
	fmt.Println()
}

func plotResult(result *sim.Result) {
	if len(result.States) == 0 {
		return
	}

	alts := make([]float64, len(result.States))
	for i, s := range result.States {
		alts[i] = s[0]
	}
	fmt.Println(asciigraph.Plot(alts,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption("altitude (m)"),
	))
	fmt.Println()
	fmt.Println(asciigraph.Plot(result.Deployments,
		asciigraph.Height(8),
		asciigraph.Width(80),
		asciigraph.Caption("deployment fraction"),
	))
	fmt.Println()
}

func runEnsemble(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	// Fail fast on bad controller config before spawning trials.
	if _, err := control.New(cfg.ControlConfig()); err != nil {
		return err
	}

	ens := sim.NewEnsemble(func() (*sim.Simulator, error) {
		return buildSimulator(cfg)
	}, runs, cfg.Sim.Seed)
	ens.AltSigma = altSigma
	ens.VelSigma = velSigma

	x0 := sim.State{cfg.Init.Altitude, cfg.Init.Velocity}
	results, err := ens.Run(context.Background(), x0, simConfig(cfg))
	if err != nil {
		return err
	}

	stats := sim.Summarize(results)
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "trials\t%d\n", stats.N)
	fmt.Fprintf(w, "target\t%.1f m\n", cfg.TargetApogee)
	fmt.Fprintf(w, "apogee mean\t%.1f m\n", stats.Mean)
	fmt.Fprintf(w, "apogee stddev\t%.2f m\n", stats.StdDev)
	fmt.Fprintf(w, "apogee min\t%.1f m\n", stats.Min)
	fmt.Fprintf(w, "apogee max\t%.1f m\n", stats.Max)
	w.Flush()
	return nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	cfg.Controller = "pid"

	search := optim.NewGridSearch(
		[]string{"kp", "ki", "kd"},
		[][]float64{
			optim.Span(cfg.Gains.Kp/4, cfg.Gains.Kp*4, sweepSteps),
			optim.Span(cfg.Gains.Ki/4, cfg.Gains.Ki*4, sweepSteps),
			optim.Span(cfg.Gains.Kd/4, cfg.Gains.Kd*4, sweepSteps),
		},
	)

	x0 := sim.State{cfg.Init.Altitude, cfg.Init.Velocity}
	best, cost, err := search.Search(context.Background(), func(ctx context.Context, params map[string]float64) (float64, error) {
		trial := *cfg
		trial.Gains = config.GainsConfig{Kp: params["kp"], Ki: params["ki"], Kd: params["kd"]}
		s, err := buildSimulator(&trial)
		if err != nil {
			return 0, err
		}
		result, err := s.Run(ctx, x0, simConfig(&trial))
		if err != nil {
			return 0, err
		}
		return result.Metrics["apogee_error"], nil
	})
	if err != nil {
		return err
	}
	if best == nil {
		return fmt.Errorf("no feasible gain set found")
	}

	fmt.Printf("best gains: kp=%.5f ki=%.6f kd=%.4f (apogee error %.2f m)\n",
		best["kp"], best["ki"], best["kd"], cost)
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	loop, err := control.New(cfg.ControlConfig())
	if err != nil {
		return err
	}
	coast := flight.NewCoast(cfg.Rocket.Mass, cfg.Rocket.ReferenceArea, cfg.DragTable())
	coast.GroundASL = cfg.Rocket.GroundASL

	integ, err := buildIntegrator(cfg.Sim.Integrator)
	if err != nil {
		return err
	}

	x0 := sim.State{cfg.Init.Altitude, cfg.Init.Velocity}
	model := tui.NewModel(coast, integ, loop, x0, cfg.Sim.Dt)

	p := tea.NewProgram(model)
	_, err = p.Run()
	return err
}
