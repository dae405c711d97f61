package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/unowned-ai/pillbox/pkg/medicines"
	"github.com/unowned-ai/pillbox/pkg/session"
	"github.com/unowned-ai/pillbox/pkg/views"
)

// RegisterPingTool registers the simple ping tool.
func RegisterPingTool(s *server.MCPServer) {
	pingTool := mcp.NewTool("ping",
		mcp.WithDescription("Responds with 'pong' to check if the Pillbox MCP server is alive."),
	)
	s.AddTool(pingTool, pingHandler)
}

func pingHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText("pong_pillbox"), nil
}

type addMedicineResult struct {
	Medicine           medicines.MedicineRecord `json:"medicine"`
	RemindersScheduled int                      `json:"reminders_scheduled"`
	RemindersFailed    int                      `json:"reminders_failed"`
	PermissionDenied   bool                     `json:"permission_denied"`
	ReminderError      string                   `json:"reminder_error,omitempty"`
}

// RegisterAddMedicineTool registers the add_medicine tool.
func RegisterAddMedicineTool(s *server.MCPServer, sess *session.Session) {
	tool := mcp.NewTool("add_medicine",
		mcp.WithDescription("Adds a medicine to the schedule and registers its reminders."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Medicine name.")),
		mcp.WithString("dosage", mcp.Required(), mcp.Description("Dosage amount; the configured unit (mg) is appended unless present.")),
		mcp.WithString("time", mcp.Required(), mcp.Description("Time of day, e.g. '14:30' or '2:30 PM'.")),
		mcp.WithString("type", mcp.Description("Tablet, Syrup, Injection or Capsule. Defaults to Tablet.")),
		mcp.WithString("frequency", mcp.Description("Once Daily, Twice Daily, Every 6 Hours or Every 8 Hours. Defaults to Once Daily.")),
		mcp.WithString("start_date", mcp.Description("Start date as YYYY-MM-DD. Defaults to today.")),
	)
	s.AddTool(tool, addMedicineHandler(sess))
}

func addMedicineHandler(sess *session.Session) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		timeArg := stringArg(request, "time")
		if timeArg == "" {
			return mcp.NewToolResultError("'time' parameter is required and must be a non-empty string."), nil
		}
		tod, err := medicines.ParseTimeOfDay(timeArg)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		startDate := stringArg(request, "start_date")
		if startDate == "" {
			startDate = medicines.DayKey(sess.Now())
		}

		draft := medicines.Draft{
			Name:      stringArg(request, "name"),
			Dosage:    stringArg(request, "dosage"),
			Type:      medicines.MedicineType(stringArg(request, "type")),
			TimeOfDay: tod,
			Frequency: medicines.Frequency(stringArg(request, "frequency")),
			StartDate: startDate,
		}

		rec, report, err := sess.Add(ctx, draft)
		if errors.Is(err, medicines.ErrInvalidDraft) {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid medicine: %v", err)), nil
		}
		if err != nil && rec.ID == "" {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to add medicine: %v", err)), nil
		}

		result := addMedicineResult{
			Medicine:           rec,
			RemindersScheduled: len(report.Handles()),
			RemindersFailed:    len(report.Failed()),
			PermissionDenied:   report.PermissionDenied,
		}
		if err != nil {
			result.ReminderError = err.Error()
		}
		return jsonResult(result)
	}
}

// RegisterListMedicinesTool registers the list_medicines tool.
func RegisterListMedicinesTool(s *server.MCPServer, sess *session.Session) {
	tool := mcp.NewTool("list_medicines",
		mcp.WithDescription("Lists every medicine record in insertion order."),
	)
	s.AddTool(tool, listMedicinesHandler(sess))
}

func listMedicinesHandler(sess *session.Session) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return jsonResult(sess.Store().Records())
	}
}

// RegisterToggleMedicineTool registers the toggle_medicine tool.
func RegisterToggleMedicineTool(s *server.MCPServer, sess *session.Session) {
	tool := mcp.NewTool("toggle_medicine",
		mcp.WithDescription("Flips the taken flag of a medicine."),
		mcp.WithString("id", mcp.Required(), mcp.Description("ID of the medicine.")),
	)
	s.AddTool(tool, toggleMedicineHandler(sess))
}

func toggleMedicineHandler(sess *session.Session) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := stringArg(request, "id")
		if id == "" {
			return mcp.NewToolResultError("'id' parameter is required and must be a non-empty string."), nil
		}
		if !sess.Toggle(id) {
			return mcp.NewToolResultError(fmt.Sprintf("Medicine with ID '%s' not found.", id)), nil
		}
		rec, _ := sess.Store().Get(id)
		return jsonResult(rec)
	}
}

// RegisterDeleteMedicineTool registers the delete_medicine tool.
func RegisterDeleteMedicineTool(s *server.MCPServer, sess *session.Session) {
	tool := mcp.NewTool("delete_medicine",
		mcp.WithDescription("Deletes a medicine record. Its pending reminders are kept."),
		mcp.WithString("id", mcp.Required(), mcp.Description("ID of the medicine.")),
	)
	s.AddTool(tool, deleteMedicineHandler(sess))
}

func deleteMedicineHandler(sess *session.Session) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := stringArg(request, "id")
		if id == "" {
			return mcp.NewToolResultError("'id' parameter is required and must be a non-empty string."), nil
		}
		if !sess.Delete(id) {
			return mcp.NewToolResultError(fmt.Sprintf("Medicine with ID '%s' not found.", id)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Medicine '%s' deleted.", id)), nil
	}
}

// RegisterTodayScheduleTool registers the today_schedule tool.
func RegisterTodayScheduleTool(s *server.MCPServer, sess *session.Session) {
	tool := mcp.NewTool("today_schedule",
		mcp.WithDescription("Returns today's medicines with the count and percentage already taken."),
	)
	s.AddTool(tool, todayScheduleHandler(sess))
}

func todayScheduleHandler(sess *session.Session) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return jsonResult(sess.Today())
	}
}

type calendarResult struct {
	Days         map[string]views.DaySummary `json:"days"`
	SelectedDate string                      `json:"selected_date"`
	Medicines    []medicines.MedicineRecord  `json:"medicines"`
}

// RegisterCalendarTool registers the calendar tool.
func RegisterCalendarTool(s *server.MCPServer, sess *session.Session) {
	tool := mcp.NewTool("calendar",
		mcp.WithDescription("Returns per-day totals and status for every day with medicines, plus the medicines of one day."),
		mcp.WithString("date", mcp.Description("Day to list as YYYY-MM-DD. Defaults to the last selected day.")),
	)
	s.AddTool(tool, calendarHandler(sess))
}

func calendarHandler(sess *session.Session) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if date := stringArg(request, "date"); date != "" {
			if err := sess.SelectDate(date); err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
		}
		return jsonResult(calendarResult{
			Days:         sess.Calendar(),
			SelectedDate: sess.SelectedDate(),
			Medicines:    sess.SelectedDay(),
		})
	}
}

// RegisterHistoryTool registers the history tool.
func RegisterHistoryTool(s *server.MCPServer, sess *session.Session) {
	tool := mcp.NewTool("history",
		mcp.WithDescription("Lists Taken, Missed or Upcoming medicines, most recent first."),
		mcp.WithString("filter", mcp.Description("Taken, Missed or Upcoming. Defaults to the last used filter.")),
		mcp.WithString("search", mcp.Description("Case-insensitive substring of the medicine name.")),
	)
	s.AddTool(tool, historyHandler(sess))
}

func historyHandler(sess *session.Session) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if raw := stringArg(request, "filter"); raw != "" {
			f, err := views.ParseFilter(raw)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			sess.SetFilter(f)
		}
		// Search is untrimmed user input; an absent argument clears it.
		search, _ := request.Params.Arguments["search"].(string)
		sess.SetSearchTerm(search)
		return jsonResult(sess.History())
	}
}

// RegisterClearHistoryTool registers the clear_history tool.
func RegisterClearHistoryTool(s *server.MCPServer, sess *session.Session) {
	tool := mcp.NewTool("clear_history",
		mcp.WithDescription("Deletes every Taken or Missed medicine. Upcoming cannot be cleared."),
		mcp.WithString("filter", mcp.Required(), mcp.Description("Taken or Missed.")),
	)
	s.AddTool(tool, clearHistoryHandler(sess))
}

func clearHistoryHandler(sess *session.Session) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		f, err := views.ParseFilter(stringArg(request, "filter"))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		n, err := sess.ClearFiltered(f)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Cleared %d %s medicine(s).", n, f)), nil
	}
}
