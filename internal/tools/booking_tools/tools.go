package booking_tools

import (
	"context"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/calbooker/internal/booking"
	"github.com/teemow/calbooker/internal/instrumentation"
	"github.com/teemow/calbooker/internal/outcome"
	"github.com/teemow/calbooker/internal/server"
	"github.com/teemow/calbooker/internal/timeutil"
	"github.com/teemow/calbooker/internal/tools/common"
)

// Tool names.
const (
	CreateBookingTool = "create_a_cal_booking"
	ListBookingsTool  = "list_all_cal_bookings"
	CancelBookingTool = "cancel_user_booking"
)

const datetimeDescription = "The start datetime for the booking in ISO 8601 format (YYYY-MM-DDTHH:MM:SS.000-00:00)."

// Tools returns the booking tool definitions in registration order.
func Tools() []mcp.Tool {
	return []mcp.Tool{
		mcp.NewTool(CancelBookingTool,
			mcp.WithDescription("Cancel a Cal.com booking/event based on booking name and start datetime."+
				"The function will find the booking by matching the name and datetime, then cancel it."),
			mcp.WithString("user_email",
				mcp.Required(),
				mcp.Description("The email of the user who made the booking."),
			),
			mcp.WithString("booking_name",
				mcp.Required(),
				mcp.Description("The title/name of the booking/event to cancel."),
			),
			mcp.WithString("datetime_start",
				mcp.Required(),
				mcp.Description(datetimeDescription),
			),
		),
		mcp.NewTool(ListBookingsTool,
			mcp.WithDescription("List all Cal.com bookings relevant bookings based on the user's email"),
			mcp.WithString("user_email",
				mcp.Required(),
				mcp.Description("The email of the user making the booking."),
			),
		),
		mcp.NewTool(CreateBookingTool,
			mcp.WithDescription("Create a booking/event for a user for a specific event name at a given time."),
			mcp.WithString("event_name",
				mcp.Required(),
				mcp.Description("The name of the event to book."),
			),
			mcp.WithString("datetime_start",
				mcp.Required(),
				mcp.Description(datetimeDescription),
			),
			mcp.WithString("timezone",
				mcp.Required(),
				mcp.Description("The timezone for the booking, e.g., 'America/Los_Angeles'."),
			),
			mcp.WithString("reason",
				mcp.Required(),
				mcp.Description("Reasons for the booking."),
			),
			mcp.WithString("user_email",
				mcp.Required(),
				mcp.Description("The email of the user making the booking."),
			),
			mcp.WithString("user_name",
				mcp.Required(),
				mcp.Description("The name of the user making the booking."),
			),
		),
	}
}

// RegisterBookingTools registers the booking tools with the MCP server
func RegisterBookingTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	if sc.Bookings() == nil {
		return errors.New("booking tools require a booking service")
	}

	operations := map[string]struct {
		operation string
		handler   common.ToolHandler
	}{
		CreateBookingTool: {instrumentation.BookingCreate, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleCreateBooking(ctx, req, sc)
		}},
		ListBookingsTool: {instrumentation.BookingList, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListBookings(ctx, req, sc)
		}},
		CancelBookingTool: {instrumentation.BookingCancel, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleCancelBooking(ctx, req, sc)
		}},
	}

	for _, tool := range Tools() {
		op := operations[tool.Name]
		s.AddTool(tool, mcpserver.ToolHandlerFunc(common.InstrumentedToolHandler(tool.Name, op.operation, sc, op.handler)))
	}

	return nil
}

func requireStrings(args map[string]interface{}, names ...string) (map[string]string, error) {
	values := make(map[string]string, len(names))
	for _, name := range names {
		v, err := common.RequireString(args, name)
		if err != nil {
			return nil, err
		}
		values[name] = v
	}
	return values, nil
}

// outcomeResult renders an outcome, or a tool error for an unreadable datetime.
func outcomeResult(o outcome.Outcome, err error) (*mcp.CallToolResult, error) {
	if err != nil {
		var parseErr *timeutil.ParseError
		if errors.As(err, &parseErr) {
			return mcp.NewToolResultError(parseErr.Error()), nil
		}
		return nil, err
	}
	return mcp.NewToolResultJSON(o)
}

func handleCreateBooking(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args, err := requireStrings(request.GetArguments(),
		"event_name", "datetime_start", "timezone", "user_email", "user_name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	reason, err := common.RequirePresentString(request.GetArguments(), "reason")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return outcomeResult(sc.Bookings().Create(ctx, booking.CreateRequest{
		EventName:     args["event_name"],
		DatetimeStart: args["datetime_start"],
		Timezone:      args["timezone"],
		Reason:        reason,
		UserEmail:     args["user_email"],
		UserName:      args["user_name"],
	}))
}

func handleListBookings(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	email, err := common.RequireString(request.GetArguments(), "user_email")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultJSON(sc.Bookings().List(ctx, email))
}

func handleCancelBooking(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args, err := requireStrings(request.GetArguments(), "user_email", "booking_name", "datetime_start")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return outcomeResult(sc.Bookings().Cancel(ctx, booking.CancelRequest{
		UserEmail:     args["user_email"],
		BookingName:   args["booking_name"],
		DatetimeStart: args["datetime_start"],
	}))
}
