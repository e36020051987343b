package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/teemow/calbooker/internal/calcom"
)

func newEventTypesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "event-types",
		Aliases: []string{"et"},
		Short:   "Manage Cal.com event types",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the event types of the account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := newCalcomClient(appConfig, nil, appLogger)
			if err != nil {
				return err
			}
			return printResult(cmd, client.ListEventTypes(cmd.Context()))
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "get <id>",
		Short: "Show one event type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid event type id %q: %w", args[0], err)
			}
			client, err := newCalcomClient(appConfig, nil, appLogger)
			if err != nil {
				return err
			}
			return printResult(cmd, client.GetEventType(cmd.Context(), id))
		},
	})

	cmd.AddCommand(newEventTypesCreateCmd())

	return cmd
}

func newEventTypesCreateCmd() *cobra.Command {
	var params calcom.CreateEventTypeParams

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an event type",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if params.LengthInMinutes <= 0 {
				return fmt.Errorf("--length must be positive")
			}
			client, err := newCalcomClient(appConfig, nil, appLogger)
			if err != nil {
				return err
			}
			return printResult(cmd, client.CreateEventType(cmd.Context(), params))
		},
	}

	cmd.Flags().StringVar(&params.Title, "title", "", "Event type title")
	cmd.Flags().StringVar(&params.Slug, "slug", "", "URL slug")
	cmd.Flags().IntVar(&params.LengthInMinutes, "length", 30, "Duration in minutes")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("slug")

	return cmd
}

// printResult prints r and fails the command when the request failed.
func printResult(cmd *cobra.Command, r calcom.Result) error {
	if err := printJSON(cmd.OutOrStdout(), r); err != nil {
		return err
	}
	if r.Failed() || r.IsError() {
		return fmt.Errorf("cal.com request failed: %s", r.ErrorMessage())
	}
	return nil
}
