package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"backstage/internal/apiclient"
	"backstage/internal/programme"
)

func newProgrammeCommand(ctx *commandContext) *cobra.Command {
	var stage string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "programme",
		Short: "Show the festival programme",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *apiclient.Client) error {
				prog, err := client.Programme(cmd.Context(), stage)
				if err != nil {
					return err
				}
				if jsonOutput || !stdoutIsTerminal() {
					return writeJSON(cmd, prog)
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderProgramme(prog))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&stage, "stage", "", "Stage to show (use \"all\" for every stage)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON output")
	return cmd
}

func renderProgramme(prog *programme.LegacyProgramme) string {
	rows := make([][]string, 0, len(prog.Acts))
	for _, key := range prog.SortedKeys() {
		act := prog.Acts[key]
		if len(act.Shows) == 0 {
			rows = append(rows, []string{key, act.Name, "", "", "", describedMark(act)})
			continue
		}
		for _, show := range act.Shows {
			rows = append(rows, []string{
				key,
				act.Name,
				show.Day,
				show.Start + "-" + show.End,
				show.Stage,
				describedMark(act),
			})
		}
	}
	return renderTable(
		[]string{"ID", "Act", "Day", "Time", "Stage", "Description"},
		rows,
		[]columnAlignment{alignRight},
	)
}

func describedMark(act programme.LegacyAct) string {
	if act.DescriptionAvailable {
		return "yes"
	}
	return "missing"
}
