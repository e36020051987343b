package booking_tools

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/calbooker/internal/booking"
	"github.com/teemow/calbooker/internal/calcom"
	"github.com/teemow/calbooker/internal/outcome"
	"github.com/teemow/calbooker/internal/server"
)

// fakeCalcom serves canned Cal.com responses keyed by path.
func fakeCalcom(t *testing.T, responses map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := responses[r.Method+" "+r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{}`)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestServer(t *testing.T, responses map[string]string) *mcpserver.MCPServer {
	t.Helper()

	srv := fakeCalcom(t, responses)
	client, err := calcom.NewClient(calcom.Config{APIKey: "k", BaseURL: srv.URL, RequestInterval: -1})
	require.NoError(t, err)

	sc, err := server.NewServerContext(context.Background(), booking.NewService(client))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })

	s := mcpserver.NewMCPServer("test", "0.0.0", mcpserver.WithToolCapabilities(true))
	require.NoError(t, RegisterBookingTools(s, sc))
	return s
}

func callTool(t *testing.T, s *mcpserver.MCPServer, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()

	tool := s.GetTool(name)
	require.NotNil(t, tool, "tool %s not registered", name)

	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	result, err := tool.Handler(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	text, ok := mcp.AsTextContent(result.Content[0])
	require.True(t, ok)
	return text.Text
}

func TestTools_Definitions(t *testing.T) {
	tools := Tools()
	require.Len(t, tools, 3)

	required := map[string][]string{
		CancelBookingTool: {"user_email", "booking_name", "datetime_start"},
		ListBookingsTool:  {"user_email"},
		CreateBookingTool: {"event_name", "datetime_start", "timezone", "reason", "user_email", "user_name"},
	}

	for _, tool := range tools {
		want, ok := required[tool.Name]
		require.True(t, ok, "unexpected tool %s", tool.Name)
		assert.ElementsMatch(t, want, tool.InputSchema.Required)
		assert.Len(t, tool.InputSchema.Properties, len(want))
		assert.NotEmpty(t, tool.Description)
	}
}

func TestRegisterBookingTools_RequiresService(t *testing.T) {
	sc, err := server.NewServerContext(context.Background(), nil)
	require.NoError(t, err)

	s := mcpserver.NewMCPServer("test", "0.0.0")
	assert.Error(t, RegisterBookingTools(s, sc))
}

func TestCreateBookingTool(t *testing.T) {
	s := newTestServer(t, map[string]string{
		"GET /event-types": `{"status":"success","data":[{"id":7,"title":"Intro Call","slug":"intro"}]}`,
		"GET /slots":       `{"status":"success","data":{"2025-08-04":[{"start":"2025-08-04T20:00:00.000Z"}]}}`,
		"POST /bookings":   `{"status":"success","data":{"uid":"new","id":1}}`,
	})

	args := map[string]any{
		"event_name":     "intro",
		"datetime_start": "2025-08-04T13:00:00.000-07:00",
		"timezone":       "America/Los_Angeles",
		"reason":         "catch up",
		"user_email":     "jane@example.com",
		"user_name":      "Jane",
	}

	result := callTool(t, s, CreateBookingTool, args)
	assert.False(t, result.IsError)
	assert.JSONEq(t, `{
		"status":"success",
		"result":{"code":"all_matched","message":"Booking created for 'intro' at 2025-08-04T20:00:00.000Z.","data":{"uid":"new","id":1}}
	}`, resultText(t, result))

	args["datetime_start"] = "2025-08-04T20:15:00Z"
	result = callTool(t, s, CreateBookingTool, args)
	var o outcome.Outcome
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &o))
	assert.Equal(t, outcome.CodeAvailabilityNoExactMatch, o.Code)
}

func TestCreateBookingTool_Reason(t *testing.T) {
	var gotReason string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.Method + " " + r.URL.Path {
		case "GET /event-types":
			_, _ = io.WriteString(w, `{"status":"success","data":[{"id":7,"title":"Intro Call","slug":"intro"}]}`)
		case "GET /slots":
			_, _ = io.WriteString(w, `{"status":"success","data":{"2025-08-04":[{"start":"2025-08-04T20:00:00.000Z"}]}}`)
		case "POST /bookings":
			var payload struct {
				Responses map[string]string `json:"bookingFieldsResponses"`
			}
			_ = json.NewDecoder(r.Body).Decode(&payload)
			gotReason = payload.Responses["notes"]
			_, _ = io.WriteString(w, `{"status":"success","data":{"uid":"new","id":1}}`)
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{}`)
		}
	}))
	t.Cleanup(srv.Close)

	client, err := calcom.NewClient(calcom.Config{APIKey: "k", BaseURL: srv.URL, RequestInterval: -1})
	require.NoError(t, err)
	sc, err := server.NewServerContext(context.Background(), booking.NewService(client))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })
	s := mcpserver.NewMCPServer("test", "0.0.0", mcpserver.WithToolCapabilities(true))
	require.NoError(t, RegisterBookingTools(s, sc))

	base := func() map[string]any {
		return map[string]any{
			"event_name":     "intro",
			"datetime_start": "2025-08-04T20:00:00Z",
			"timezone":       "America/Los_Angeles",
			"user_email":     "jane@example.com",
			"user_name":      "Jane",
		}
	}

	tests := []struct {
		name      string
		reason    any
		omit      bool
		wantError string
	}{
		{name: "empty reason books", reason: ""},
		{name: "blank reason books", reason: "   "},
		{name: "reason is passed through", reason: "catch up"},
		{name: "missing reason", omit: true, wantError: "reason is required"},
		{name: "non-string reason", reason: 3, wantError: "reason must be a string"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotReason = "unset"
			args := base()
			if !tt.omit {
				args["reason"] = tt.reason
			}

			result := callTool(t, s, CreateBookingTool, args)
			if tt.wantError != "" {
				assert.True(t, result.IsError)
				assert.Equal(t, tt.wantError, resultText(t, result))
				return
			}

			assert.False(t, result.IsError)
			var o outcome.Outcome
			require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &o))
			assert.Equal(t, outcome.CodeAllMatched, o.Code)
			assert.Equal(t, tt.reason, gotReason)
		})
	}
}

func TestCreateBookingTool_InvalidArguments(t *testing.T) {
	s := newTestServer(t, map[string]string{
		"GET /event-types": `{"status":"success","data":[{"id":7,"title":"Intro Call","slug":"intro"}]}`,
	})

	result := callTool(t, s, CreateBookingTool, map[string]any{"event_name": "intro"})
	assert.True(t, result.IsError)
	assert.Equal(t, "datetime_start is required", resultText(t, result))

	result = callTool(t, s, CreateBookingTool, map[string]any{
		"event_name":     "intro",
		"datetime_start": "next friday",
		"timezone":       "America/Los_Angeles",
		"reason":         "r",
		"user_email":     "jane@example.com",
		"user_name":      "Jane",
	})
	assert.True(t, result.IsError)
	assert.True(t, strings.HasPrefix(resultText(t, result), "error parsing datetime string 'next friday'"))
}

func TestListBookingsTool(t *testing.T) {
	s := newTestServer(t, map[string]string{
		"GET /bookings": `{"status":"success","data":[]}`,
	})

	result := callTool(t, s, ListBookingsTool, map[string]any{"user_email": "jane@example.com"})
	assert.False(t, result.IsError)
	assert.JSONEq(t, `{
		"status":"success",
		"result":{"code":"list_all_cal_bookings_empty","message":"No bookings found for jane@example.com","data":[]}
	}`, resultText(t, result))
}

func TestCancelBookingTool(t *testing.T) {
	s := newTestServer(t, map[string]string{
		"GET /bookings":            `{"status":"success","data":[{"id":1,"uid":"u1","title":"Sync","start":"2025-08-04T20:00:00.000Z","end":"2025-08-04T20:30:00.000Z"}]}`,
		"POST /bookings/u1/cancel": `{"status":"success","data":{"uid":"u1"}}`,
	})

	result := callTool(t, s, CancelBookingTool, map[string]any{
		"user_email":     "jane@example.com",
		"booking_name":   "Sync",
		"datetime_start": "2025-08-04T20:00:00Z",
	})
	assert.False(t, result.IsError)

	var o outcome.Outcome
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &o))
	assert.Equal(t, outcome.CodeBookingFoundAndCancelled, o.Code)
	assert.Equal(t, "Booking cancelled 'Sync' at 2025-08-04T20:00:00Z", o.Message)
}
