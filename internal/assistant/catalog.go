package assistant

import (
	"hrmserver/internal/chatgpt"
	"hrmserver/internal/leaves"
)

var GetLeaveBalanceTool = chatgpt.Tool{
	Name:        "getLeaveBalance",
	Description: "Get the remaining leave balance per leave type. Defaults to the current employee.",
	Parameters: chatgpt.ToolParameters{
		Type: "object",
		Properties: map[string]chatgpt.Property{
			"employee_id": {
				Type:        "integer",
				Description: "Another employee's ID. Only HR and admins may look up other employees.",
			},
		},
		Required: []string{},
	},
}

var ApplyLeaveTool = chatgpt.Tool{
	Name:        "applyLeave",
	Description: "Submit a leave request for the current employee. The request starts in Pending status.",
	Parameters: chatgpt.ToolParameters{
		Type: "object",
		Properties: map[string]chatgpt.Property{
			"leave_type": {
				Type:        "string",
				Description: "Type of leave to request",
				Enum:        leaves.LeaveTypes(),
			},
			"start_date": {
				Type:        "string",
				Description: "First day of leave in YYYY-MM-DD format",
			},
			"end_date": {
				Type:        "string",
				Description: "Last day of leave in YYYY-MM-DD format (inclusive)",
			},
			"reason": {
				Type:        "string",
				Description: "Short reason for the leave",
			},
		},
		Required: []string{"leave_type", "start_date", "end_date"},
	},
}

var GetLeaveHistoryTool = chatgpt.Tool{
	Name:        "getLeaveHistory",
	Description: "List the current employee's leave requests, optionally filtered by status.",
	Parameters: chatgpt.ToolParameters{
		Type: "object",
		Properties: map[string]chatgpt.Property{
			"status": {
				Type:        "string",
				Description: "Only return requests with this status",
				Enum:        leaves.Statuses(),
			},
		},
		Required: []string{},
	},
}

var GetAttendanceSummaryTool = chatgpt.Tool{
	Name:        "getAttendanceSummary",
	Description: "Get a monthly attendance summary (present/absent/late days and worked hours).",
	Parameters: chatgpt.ToolParameters{
		Type: "object",
		Properties: map[string]chatgpt.Property{
			"month": {
				Type:        "string",
				Description: "Month in YYYY-MM format, defaults to the current month",
			},
			"employee_id": {
				Type:        "integer",
				Description: "Another employee's ID. Only HR and admins may look up other employees.",
			},
		},
		Required: []string{},
	},
}

var GetPayslipTool = chatgpt.Tool{
	Name:        "getPayslip",
	Description: "Get the current employee's payslip for a month. Without a month, returns the latest one.",
	Parameters: chatgpt.ToolParameters{
		Type: "object",
		Properties: map[string]chatgpt.Property{
			"month": {
				Type:        "string",
				Description: "Month in YYYY-MM format",
			},
		},
		Required: []string{},
	},
}

var GetEmployeeProfileTool = chatgpt.Tool{
	Name:        "getEmployeeProfile",
	Description: "Get an employee profile (name, department, position). Defaults to the current employee.",
	Parameters: chatgpt.ToolParameters{
		Type: "object",
		Properties: map[string]chatgpt.Property{
			"employee_id": {
				Type:        "integer",
				Description: "Another employee's ID. Only HR and admins may look up other employees.",
			},
		},
		Required: []string{},
	},
}

var SearchEmployeesTool = chatgpt.Tool{
	Name:        "searchEmployees",
	Description: "Search the employee directory by name, department or position.",
	Parameters: chatgpt.ToolParameters{
		Type: "object",
		Properties: map[string]chatgpt.Property{
			"query": {
				Type:        "string",
				Description: "Free-text search, e.g. a name or a department",
			},
		},
		Required: []string{"query"},
	},
}

var GetHolidaysTool = chatgpt.Tool{
	Name:        "getHolidays",
	Description: "List company holidays for a year.",
	Parameters: chatgpt.ToolParameters{
		Type: "object",
		Properties: map[string]chatgpt.Property{
			"year": {
				Type:        "integer",
				Description: "Calendar year, defaults to the current year",
			},
		},
		Required: []string{},
	},
}

var GetAnnouncementsTool = chatgpt.Tool{
	Name:        "getAnnouncements",
	Description: "Get the most recent company announcements.",
	Parameters: chatgpt.ToolParameters{
		Type: "object",
		Properties: map[string]chatgpt.Property{
			"limit": {
				Type:        "integer",
				Description: "How many announcements to return (default 5)",
			},
		},
		Required: []string{},
	},
}

// Catalog is the immutable, ordered set of tools offered on every turn.
type Catalog struct {
	tools  []chatgpt.Tool
	byName map[string]chatgpt.Tool
}

func NewCatalog(tools ...chatgpt.Tool) *Catalog {
	byName := make(map[string]chatgpt.Tool, len(tools))
	for _, t := range tools {
		byName[t.Name] = t
	}
	return &Catalog{tools: tools, byName: byName}
}

// DefaultCatalog lists every HR tool in a fixed order. All authenticated
// employees see the same catalog; per-record access is enforced by handlers.
func DefaultCatalog() *Catalog {
	return NewCatalog(
		GetLeaveBalanceTool,
		ApplyLeaveTool,
		GetLeaveHistoryTool,
		GetAttendanceSummaryTool,
		GetPayslipTool,
		GetEmployeeProfileTool,
		SearchEmployeesTool,
		GetHolidaysTool,
		GetAnnouncementsTool,
	)
}

func (c *Catalog) Tools() []chatgpt.Tool {
	return c.tools
}

func (c *Catalog) Lookup(name string) (chatgpt.Tool, bool) {
	tool, ok := c.byName[name]
	return tool, ok
}
