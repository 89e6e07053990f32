package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/tphummel/lab_post/internal/apiclient"
	"github.com/tphummel/lab_post/internal/config"
	"github.com/tphummel/lab_post/internal/models"
)

// remoteFlags are shared by every command that talks to the server.
type remoteFlags struct {
	endpoint string
	token    string
}

func (f *remoteFlags) register(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&f.endpoint, "endpoint", "", "Server URL (env "+envEndpoint+")")
	cmd.PersistentFlags().StringVar(&f.token, "token", "", "API bearer token (env "+envToken+")")
}

func (f *remoteFlags) client(getenv func(string) string) (*apiclient.Client, error) {
	endpoint := config.Resolve(f.endpoint, getenv(envEndpoint))
	if endpoint == "" {
		return nil, fmt.Errorf("--endpoint or %s is required", envEndpoint)
	}
	return apiclient.NewClient(endpoint, config.Resolve(f.token, getenv(envToken)))
}

func newSubmitCmd(getenv func(string) string) *cobra.Command {
	var (
		remote remoteFlags
		flags  bootFlags
	)
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Ask the server to boot its computer and record the run.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := remote.client(getenv)
			if err != nil {
				return err
			}
			var req models.BootRequest
			if cmd.Flags().Changed("serial") {
				req.Serial = &flags.serial
			}
			if cmd.Flags().Changed("standby-voltage") {
				req.StandbyVoltage = &flags.standbyVoltage
			}
			if cmd.Flags().Changed("voltage") {
				req.NormalVoltage = &flags.normalVoltage
			}

			run, err := client.CreateBoot(cmd.Context(), req)
			if err != nil {
				return err
			}
			if flags.json {
				if err := printJSON(cmd.OutOrStdout(), run); err != nil {
					return err
				}
			} else {
				for _, msg := range run.Messages {
					fmt.Fprintln(cmd.OutOrStdout(), msg)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "run %s: %s\n", run.ID, run.Outcome)
			}
			if !run.Opened() {
				return bootFailed(run)
			}
			return nil
		},
	}
	remote.register(cmd)
	flags.register(cmd)
	return cmd
}

func newRunsCmd(getenv func(string) string) *cobra.Command {
	var (
		remote  remoteFlags
		outcome string
		asJSON  bool
	)
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect boot runs recorded by the server.",
	}
	remote.register(cmd)
	cmd.PersistentFlags().BoolVar(&asJSON, "json", false, "Print JSON")

	list := &cobra.Command{
		Use:   "list",
		Short: "List recorded runs, oldest first.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := remote.client(getenv)
			if err != nil {
				return err
			}
			runs, err := client.ListBoots(cmd.Context(), outcome)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), runs)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tSERIAL\tOUTCOME\tREASON\tSTARTED")
			for _, r := range runs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.ID, r.Serial, r.Outcome, r.Reason, r.StartedAt.Format(time.RFC3339))
			}
			return tw.Flush()
		},
	}
	list.Flags().StringVar(&outcome, "outcome", "", "Only runs with this outcome (opened or failed)")

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one recorded run.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := remote.client(getenv)
			if err != nil {
				return err
			}
			run, err := client.GetBoot(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), run)
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "id:       %s\n", run.ID)
			fmt.Fprintf(w, "serial:   %s\n", run.Serial)
			fmt.Fprintf(w, "voltages: %g / %g\n", run.StandbyVoltage, run.NormalVoltage)
			fmt.Fprintf(w, "outcome:  %s\n", run.Outcome)
			if run.Reason != "" {
				fmt.Fprintf(w, "reason:   %s (%s)\n", run.Reason, run.Stage)
			}
			for _, msg := range run.Messages {
				fmt.Fprintf(w, "  %s\n", msg)
			}
			return nil
		},
	}

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a recorded run.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := remote.client(getenv)
			if err != nil {
				return err
			}
			if err := client.DeleteBoot(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(list, get, del)
	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
