// Command lagrangeda runs conditional Gaussian twin experiments for the
// two-layer flow: tracer driven (ou) and upper-layer driven (qg).
package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/zhongruiw/lagrangeda"
	"github.com/zhongruiw/lagrangeda/internal/store"
)

func main() {
	cobra.CheckErr(NewCmd().ExecuteContext(context.Background()))
}

// NewCmd returns the root command with every subcommand attached.
func NewCmd() *cobra.Command {
	cobra.EnableCommandSorting = false

	rootCmd := &cobra.Command{
		Use:           "lagrangeda [command] [flags] [args]",
		Short:         "lagrangeda recovers flow modes with conditional Gaussian filters",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Print(cmd.UsageString())
		},
	}
	rootCmd.PersistentFlags().String("log-file", "", "`<path>` of a rotated log file (default stderr)")
	rootCmd.PersistentFlags().Int("log-max-size", 10, "log file size in megabytes before rotation")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log coefficient windows and run progress")

	ouCmd := &cobra.Command{
		Use:   "ou [flags] <scenario.yaml>",
		Short: "Estimate the OU modes from synthetic tracer trajectories",
		RunE:  doOU,
	}
	ouCmd.Args = cobra.MaximumNArgs(1)

	qgCmd := &cobra.Command{
		Use:   "qg [flags] <scenario.yaml>",
		Short: "Estimate the lower-layer modes from a synthetic upper layer",
		RunE:  doQG,
	}
	qgCmd.Args = cobra.MaximumNArgs(1)

	for _, c := range []*cobra.Command{ouCmd, qgCmd} {
		c.Flags().StringP("out", "o", "", "`<dir>` overriding output.dir")
		c.Flags().String("db", "", "`<path>` of a sqlite database overriding output.db")
	}

	modesCmd := &cobra.Command{
		Use:   "modes [flags]",
		Short: "List the retained modes and triads of a truncation",
		RunE:  doModes,
	}
	modesCmd.Flags().Int("k", 8, "grid resolution K")
	modesCmd.Flags().Float64P("r-cut", "r", 2, "truncation radius")
	modesCmd.Flags().StringP("style", "s", "circle", "truncation style, circle or square")

	runsCmd := &cobra.Command{
		Use:   "runs [flags] <database>",
		Short: "List stored runs",
		RunE:  doRuns,
	}
	runsCmd.Args = cobra.ExactArgs(1)
	runsCmd.Flags().String("kind", "", "only list runs of this kind (ou, qg)")
	runsCmd.Flags().String("export", "", "`<run id>` to export as CSV into the current directory")

	rootCmd.AddCommand(
		ouCmd,
		qgCmd,
		modesCmd,
		runsCmd,
	)
	return rootCmd
}

// prepare loads the scenario named by args, applies the flag overrides and
// sets up logging.
func prepare(cmd *cobra.Command, args []string) (*Scenario, func(), error) {
	sc := DefaultScenario()
	if len(args) == 1 {
		var err error
		if sc, err = LoadScenario(args[0]); err != nil {
			return nil, nil, err
		}
	}
	if out, _ := cmd.Flags().GetString("out"); out != "" {
		sc.Output.Dir = out
	}
	if db, _ := cmd.Flags().GetString("db"); db != "" {
		sc.Output.DB = db
	}
	if err := sc.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid scenario: %w", err)
	}
	if err := os.MkdirAll(sc.Output.Dir, 0o755); err != nil {
		return nil, nil, err
	}
	logFile, _ := cmd.Flags().GetString("log-file")
	maxSize, _ := cmd.Flags().GetInt("log-max-size")
	verbose, _ := cmd.Flags().GetBool("verbose")
	logger, closer := setupLogging(LogConfig{Filename: logFile, MaxSize: maxSize, MaxBackups: 3, MaxAge: 28, Verbose: verbose})
	logger.Printf("scenario K=%d r=%g %s N=%d chunk=%d dt=%g runs=%d", sc.K, sc.RCut, sc.Style, sc.Steps, sc.Chunk, sc.Dt, sc.Runs)
	return sc, func() { closer.Close() }, nil
}

func doOU(cmd *cobra.Command, args []string) error {
	sc, done, err := prepare(cmd, args)
	if err != nil {
		return err
	}
	defer done()
	set, err := sc.SpectralSet()
	if err != nil {
		return err
	}

	twins := make([]*ouTwin, sc.Runs)
	filters := make([]*lagrangeda.Filter, sc.Runs)
	truths := make([]*lagrangeda.GroundTruth, sc.Runs)
	for r := range twins {
		if twins[r], err = newOUTwin(sc, set, r); err != nil {
			return err
		}
		filters[r], truths[r] = twins[r].filter, twins[r].truth
	}
	runs, err := lagrangeda.RunAll(cmd.Context(), filters, sc.Workers)
	if err != nil {
		return err
	}

	sk, err := truths[0].Skill(runs.Results[0])
	if err != nil {
		return err
	}
	last := sc.Steps - 1
	cmd.Printf("ou: %d modes, %d tracers, %d runs\n", set.Len(), sc.OU.Tracers, sc.Runs)
	cmd.Printf("final RMSE %.4f  correlation %.4f  NEES/mode %.3f\n", sk.RMSE[last], sk.Corr[last], sk.NEES[last])
	if sc.Steps > 1 {
		if cs, err := lagrangeda.NewChiSquare(runs, truths, 0.05); err != nil {
			cmd.Printf("χ² test skipped: %s\n", err)
		} else {
			cmd.Printf("χ² test: %.1f%% of steps within [%.2f, %.2f] (dof %d)\n", 100*cs.Inside(), cs.Lower, cs.Upper, cs.DOF)
		}
	}
	return report(cmd, sc, set, runs.Results[0], twins[0].states, "ou", []string{"psi", "tau"})
}

func doQG(cmd *cobra.Command, args []string) error {
	sc, done, err := prepare(cmd, args)
	if err != nil {
		return err
	}
	defer done()
	set, err := sc.SpectralSet()
	if err != nil {
		return err
	}

	filters := make([]*lagrangeda.Filter, sc.Runs)
	for r := range filters {
		if filters[r], err = newQGFilter(sc, set, r); err != nil {
			return err
		}
	}
	runs, err := lagrangeda.RunAll(cmd.Context(), filters, sc.Workers)
	if err != nil {
		return err
	}
	last := sc.Steps - 1
	spread, err := runs.Spread(last)
	if err != nil {
		return err
	}
	variance, err := runs.MeanVariance(last)
	if err != nil {
		return err
	}
	cmd.Printf("qg: %d modes, %d triads, %d runs\n", set.Len(), len(lagrangeda.NewTriadTable(set)), sc.Runs)
	for j, m := range set.Modes() {
		cmd.Printf("  mode (%2d,%2d)  |μ| spread %.4f  mean variance %.4g\n", m.Kx, m.Ky, spread[j], variance[j])
	}
	return report(cmd, sc, set, runs.Results[0], nil, "qg", []string{"psi2"})
}

// report writes the CSV, plots and database record of res.
func report(cmd *cobra.Command, sc *Scenario, set *lagrangeda.SpectralSet, res *lagrangeda.Result, truth [][]complex128, kind string, prefixes []string) error {
	headers := lagrangeda.ModeHeaders(set, prefixes...)
	if sc.Output.CSV {
		ce, err := lagrangeda.NewCSVExporter(headers, sc.Dt, sc.Output.Dir, kind+".csv")
		if err != nil {
			return err
		}
		if err := ce.WriteResult(res); err != nil {
			ce.Close()
			return err
		}
		if err := ce.Close(); err != nil {
			return err
		}
		cmd.Printf("wrote %s\n", ce.Name())
	}
	if sc.Output.Plot {
		n, _ := res.Dims()
		for j := 0; j < min(sc.Output.PlotModes, n); j++ {
			file, err := plotComponent(res, truth, j, headers[j], sc.Dt, sc.Output.Dir)
			if err != nil {
				return err
			}
			cmd.Printf("wrote %s\n", file)
		}
	}
	if sc.Output.DB != "" {
		db, err := store.Open(sc.Output.DB)
		if err != nil {
			return err
		}
		defer db.Close()
		notes := fmt.Sprintf("K=%d r=%g %s seed=%d", sc.K, sc.RCut, sc.Style, sc.Seed)
		run, err := db.SaveRun(cmd.Context(), kind, sc.Dt, notes, res)
		if err != nil {
			return err
		}
		cmd.Printf("stored run %s in %s\n", run.ID, sc.Output.DB)
	}
	return nil
}

func doModes(cmd *cobra.Command, args []string) error {
	K, _ := cmd.Flags().GetInt("k")
	rCut, _ := cmd.Flags().GetFloat64("r-cut")
	styleName, _ := cmd.Flags().GetString("style")
	style, err := lagrangeda.ParseStyle(styleName)
	if err != nil {
		return err
	}
	set, err := lagrangeda.NewSpectralSet(K, rCut, style)
	if err != nil {
		return err
	}
	triads := lagrangeda.NewTriadTable(set)
	cmd.Printf("K=%d r=%g %s: %d modes, %d triads\n", K, rCut, style, set.Len(), len(triads))
	for j, m := range set.Modes() {
		cmd.Printf("%4d  (%3d,%3d)  |k|=%.3f\n", j, m.Kx, m.Ky, math.Sqrt(float64(m.SqNorm())))
	}
	return nil
}

func doRuns(cmd *cobra.Command, args []string) error {
	db, err := store.Open(args[0])
	if err != nil {
		return err
	}
	defer db.Close()

	if id, _ := cmd.Flags().GetString("export"); id != "" {
		runID, err := uuid.Parse(id)
		if err != nil {
			return err
		}
		run, res, err := db.LoadRun(cmd.Context(), runID)
		if err != nil {
			return err
		}
		headers := make([]string, run.Dim)
		for j := range headers {
			headers[j] = fmt.Sprintf("c%d", j)
		}
		ce, err := lagrangeda.NewCSVExporter(headers, run.Dt, ".", run.ID.String()+".csv")
		if err != nil {
			return err
		}
		if err := ce.WriteResult(res); err != nil {
			ce.Close()
			return err
		}
		cmd.Printf("wrote %s\n", ce.Name())
		return ce.Close()
	}

	kind, _ := cmd.Flags().GetString("kind")
	runs, err := db.ListRuns(cmd.Context(), strings.ToLower(kind))
	if err != nil {
		return err
	}
	for _, r := range runs {
		cmd.Printf("%s  %-2s  N=%-6d n=%-4d dt=%-8g %s  %s\n", r.ID, r.Kind, r.Steps, r.Dim, r.Dt, r.CreatedAt.Format("2006-01-02 15:04:05"), r.Notes)
	}
	return nil
}
