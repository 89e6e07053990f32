// Command post runs power-on self-tests locally or against a lab_post server.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tphummel/lab_post/internal/models"
)

// Environment variables read by the remote commands.
const (
	envEndpoint = "LAB_POST_ENDPOINT"
	envToken    = "LAB_POST_TOKEN"
)

// version is injected at build time via -ldflags.
var version = "dev"

// errBootFailed marks a boot that completed with the failed outcome.
var errBootFailed = errors.New("boot failed")

func bootFailed(run *models.BootRun) error {
	return fmt.Errorf("%w: %s: %s", errBootFailed, run.Stage, run.Reason)
}

func newRootCmd(getenv func(string) string) *cobra.Command {
	root := &cobra.Command{
		Use:           "post",
		Short:         "Power-on self-test for the lab computer model.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCmd(getenv))
	root.AddCommand(newSubmitCmd(getenv))
	root.AddCommand(newRunsCmd(getenv))
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Getenv).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
