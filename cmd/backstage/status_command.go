package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"backstage/internal/api"
	"backstage/internal/apiclient"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *apiclient.Client) error {
				status, err := client.Status(cmd.Context())
				if err != nil {
					return err
				}
				if jsonOutput || !stdoutIsTerminal() {
					return writeJSON(cmd, status)
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderStatus(status))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON output")
	return cmd
}

func renderStatus(status api.DaemonStatus) string {
	rows := [][]string{
		{"Running", strconv.FormatBool(status.Running)},
		{"PID", strconv.Itoa(status.PID)},
		{"Version", status.Version},
		{"Acts", strconv.Itoa(status.ActCount)},
		{"Last acts refresh", orDash(status.LastActsRefresh)},
		{"Last descriptions refresh", orDash(status.LastDescriptionsRefresh)},
	}
	return renderTable([]string{"Field", "Value"}, rows, nil)
}

func orDash(value string) string {
	if value == "" {
		return "-"
	}
	return value
}
