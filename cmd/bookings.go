package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/teemow/calbooker/internal/booking"
)

func newBookingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bookings",
		Short: "Create, list, and cancel bookings",
		Long: `Run the booking operations the assistant exposes as tools, directly
against Cal.com. Each command prints the outcome as JSON.`,
	}

	cmd.AddCommand(newBookingsListCmd())
	cmd.AddCommand(newBookingsCreateCmd())
	cmd.AddCommand(newBookingsCancelCmd())

	return cmd
}

func newBookingService() (*booking.Service, error) {
	client, err := newCalcomClient(appConfig, nil, appLogger)
	if err != nil {
		return nil, err
	}
	return booking.NewService(client, booking.WithLogger(appLogger)), nil
}

func newBookingsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <email>",
		Short: "List the bookings of an attendee",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newBookingService()
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), svc.List(cmd.Context(), args[0]))
		},
	}
}

func newBookingsCreateCmd() *cobra.Command {
	var req booking.CreateRequest

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Book an event type at a given start time",
		Example: `  calbooker bookings create --event "30 Min Meeting" \
    --start 2025-03-14T15:00:00 --timezone Europe/Berlin \
    --email jane@example.com --name "Jane Doe"`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := newBookingService()
			if err != nil {
				return err
			}
			o, err := svc.Create(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), o)
		},
	}

	cmd.Flags().StringVar(&req.EventName, "event", "", "Event type name (fuzzy matched)")
	cmd.Flags().StringVar(&req.DatetimeStart, "start", "", "Start time (ISO 8601)")
	cmd.Flags().StringVar(&req.Timezone, "timezone", "", "IANA time zone of --start when it has no offset")
	cmd.Flags().StringVar(&req.Reason, "reason", "", "Reason for the booking")
	cmd.Flags().StringVar(&req.UserEmail, "email", "", "Attendee email")
	cmd.Flags().StringVar(&req.UserName, "name", "", "Attendee name")
	_ = cmd.MarkFlagRequired("event")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newBookingsCancelCmd() *cobra.Command {
	var req booking.CancelRequest

	cmd := &cobra.Command{
		Use:   "cancel",
		Short: "Cancel an attendee's booking identified by name and start time",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := newBookingService()
			if err != nil {
				return err
			}
			o, err := svc.Cancel(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), o)
		},
	}

	cmd.Flags().StringVar(&req.UserEmail, "email", "", "Attendee email")
	cmd.Flags().StringVar(&req.BookingName, "booking", "", "Booking title (fuzzy matched)")
	cmd.Flags().StringVar(&req.DatetimeStart, "start", "", "Start time of the booking (ISO 8601)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("booking")
	_ = cmd.MarkFlagRequired("start")

	return cmd
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}
