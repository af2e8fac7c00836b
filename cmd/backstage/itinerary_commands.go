package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"backstage/internal/apiclient"
	"backstage/internal/programme"
)

func newItineraryCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "itinerary [act-id]",
		Short: "Show backstage itineraries",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *apiclient.Client) error {
				if len(args) == 1 {
					entry, err := client.ItineraryFor(cmd.Context(), args[0])
					if err != nil {
						return err
					}
					if jsonOutput || !stdoutIsTerminal() {
						return writeJSON(cmd, entry)
					}
					fmt.Fprintln(cmd.OutOrStdout(), renderItineraryEntry(entry))
					return nil
				}

				itinerary, err := client.Itinerary(cmd.Context())
				if err != nil {
					return err
				}
				if jsonOutput || !stdoutIsTerminal() {
					return writeJSON(cmd, itinerary)
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderItinerary(itinerary))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON output")
	return cmd
}

func newSetDressingRoomCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "set-dressing-room <act-id> <room>",
		Short: "Assign an act's dressing room",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *apiclient.Client) error {
				if err := client.SetDressingRoom(cmd.Context(), args[0], args[1]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Dressing room for act %s set to %s\n", args[0], args[1])
				return nil
			})
		},
	}
}

func renderItinerary(itinerary programme.LegacyItinerary) string {
	keys := make([]string, 0, len(itinerary))
	for key := range itinerary {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	rows := make([][]string, 0, len(keys))
	for _, key := range keys {
		entry := itinerary[key]
		rows = append(rows, []string{
			key,
			entry["name"],
			entry["get_in"],
			entry["soundcheck"],
			entry["linecheck"],
			entry["dressing_room"],
		})
	}
	return renderTable(
		[]string{"ID", "Act", "Get in", "Soundcheck", "Linecheck", "Dressing room"},
		rows,
		[]columnAlignment{alignRight},
	)
}

func renderItineraryEntry(entry programme.LegacyItineraryAct) string {
	fields := make([]string, 0, len(entry))
	for field := range entry {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	rows := make([][]string, 0, len(fields))
	for _, field := range fields {
		rows = append(rows, []string{field, entry[field]})
	}
	return renderTable([]string{"Field", "Value"}, rows, nil)
}
