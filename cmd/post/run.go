package main

import (
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/tphummel/lab_post/internal/config"
	"github.com/tphummel/lab_post/internal/post"
)

type bootFlags struct {
	serial         string
	standbyVoltage float64
	normalVoltage  float64
	json           bool
}

func (f *bootFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.serial, "serial", "", "Serial number of the computer")
	cmd.Flags().Float64Var(&f.standbyVoltage, "standby-voltage", 0, "Power supply standby output in volts")
	cmd.Flags().Float64Var(&f.normalVoltage, "voltage", 0, "Power supply normal output in volts")
	cmd.Flags().BoolVar(&f.json, "json", false, "Print the run record as JSON")
}

func newRunCmd(getenv func(string) string) *cobra.Command {
	var (
		flags      bootFlags
		configPath string
		verbose    bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Boot the computer locally and print its status messages.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(config.Resolve(configPath, getenv(config.EnvConfigPath)))
			if err != nil {
				return err
			}
			opts := cfg.BootOptions()
			if cmd.Flags().Changed("serial") {
				opts.Serial = flags.serial
			}
			if cmd.Flags().Changed("standby-voltage") {
				opts.StandbyVoltage = flags.standbyVoltage
			}
			if cmd.Flags().Changed("voltage") {
				opts.NormalVoltage = flags.normalVoltage
			}

			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			opts.Logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
			if !flags.json {
				opts.Reporter = post.WriterReporter(cmd.OutOrStdout())
			}

			run, err := post.Boot(cmd.Context(), opts)
			if err != nil && !errors.Is(err, post.ErrFatal) {
				return err
			}
			if flags.json {
				if err := printJSON(cmd.OutOrStdout(), run); err != nil {
					return err
				}
			}
			if !run.Opened() {
				return bootFailed(run)
			}
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&configPath, "config", "", "Path to a YAML config file (env "+config.EnvConfigPath+")")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log state transitions to stderr")
	return cmd
}
