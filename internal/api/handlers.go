package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"hrmserver/internal/announcements"
	"hrmserver/internal/assistant"
	"hrmserver/internal/attendance"
	"hrmserver/internal/auth"
	"hrmserver/internal/calendar"
	"hrmserver/internal/conversations"
	"hrmserver/internal/employees"
	"hrmserver/internal/leaves"
	"hrmserver/internal/payroll"

	"github.com/sirupsen/logrus"
)

type Handler struct {
	employeeService     *employees.Service
	conversationService *conversations.Service
	assistantService    *assistant.Service
	leaveService        *leaves.Service
	attendanceService   *attendance.Service
	payrollService      *payroll.Service
	announcementService *announcements.Service
	calendarService     *calendar.Service
	jwtSigningKey       string
}

func NewHandler(
	employeeService *employees.Service,
	conversationService *conversations.Service,
	assistantService *assistant.Service,
	leaveService *leaves.Service,
	attendanceService *attendance.Service,
	payrollService *payroll.Service,
	announcementService *announcements.Service,
	calendarService *calendar.Service,
	jwtKey string,
) *Handler {
	return &Handler{
		employeeService:     employeeService,
		conversationService: conversationService,
		assistantService:    assistantService,
		leaveService:        leaveService,
		attendanceService:   attendanceService,
		payrollService:      payrollService,
		announcementService: announcementService,
		calendarService:     calendarService,
		jwtSigningKey:       jwtKey,
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logrus.Errorf("Failed to encode response: %v", err)
	}
}

type RegisterRequest struct {
	Login      string  `json:"login"`
	Password   string  `json:"password"`
	FullName   string  `json:"full_name"`
	Department string  `json:"department"`
	Position   string  `json:"position"`
	Email      *string `json:"email,omitempty"`
	Phone      *string `json:"phone,omitempty"`
}

type LoginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token    string              `json:"token"`
	Employee *employees.Employee `json:"employee"`
}

func (h *Handler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Login == "" || req.Password == "" || req.FullName == "" {
		http.Error(w, "Login, password and full name are required", http.StatusBadRequest)
		return
	}

	employee, err := h.employeeService.Register(r.Context(), req.Login, req.Password, req.FullName, req.Department, req.Position, req.Email, req.Phone)
	if err != nil {
		if errors.Is(err, employees.ErrEmployeeAlreadyExists) {
			http.Error(w, "An employee with this login already exists", http.StatusConflict)
		} else {
			logrus.Errorf("Failed to register employee '%s': %v", req.Login, err)
			http.Error(w, "Failed to register employee", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusCreated, employee)
}

func (h *Handler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Login == "" || req.Password == "" {
		http.Error(w, "Login and password are required", http.StatusBadRequest)
		return
	}

	employee, err := h.employeeService.Authenticate(r.Context(), req.Login, req.Password)
	if err != nil {
		if errors.Is(err, employees.ErrInvalidCredentials) {
			http.Error(w, "Invalid login or password", http.StatusUnauthorized)
		} else {
			logrus.Errorf("Failed to authenticate employee '%s': %v", req.Login, err)
			http.Error(w, "Authentication failed", http.StatusInternalServerError)
		}
		return
	}

	token, err := auth.GenerateJWTToken(employee.ID, employee.Role, h.jwtSigningKey, 24*time.Hour)
	if err != nil {
		logrus.Errorf("Failed to generate JWT token: %v", err)
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{Token: token, Employee: employee})
}

func (h *Handler) ProfileHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	employeeID, ok := auth.GetEmployeeIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Authorization failed: employee id not found in token", http.StatusUnauthorized)
		return
	}

	employee, err := h.employeeService.GetProfile(r.Context(), employeeID)
	if err != nil {
		if errors.Is(err, employees.ErrEmployeeNotFound) {
			http.Error(w, "Employee not found", http.StatusNotFound)
		} else {
			logrus.Errorf("Failed to load profile for employee %d: %v", employeeID, err)
			http.Error(w, "Failed to load profile", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusOK, employee)
}

type CreateConversationRequest struct {
	Title   string `json:"title,omitempty"`
	Message string `json:"message,omitempty"`
}

type ConversationResponse struct {
	Conversation *conversations.Conversation `json:"conversation"`
	Reply        *conversations.Message      `json:"reply,omitempty"`
}

type ConversationListResponse struct {
	Conversations []conversations.Conversation `json:"conversations"`
	Total         int                          `json:"total"`
	Page          int                          `json:"page"`
	Limit         int                          `json:"limit"`
}

func (h *Handler) CreateConversationHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	employeeID, ok := auth.GetEmployeeIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Authorization failed: employee id not found in token", http.StatusUnauthorized)
		return
	}

	var req CreateConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	conversation, reply, err := h.assistantService.StartConversation(r.Context(), employeeID, req.Title, req.Message)
	if err != nil {
		if errors.Is(err, assistant.ErrAssistantUnavailable) {
			// The conversation and the user's message are already stored.
			writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
				"conversation": conversation,
				"error":        assistant.UnavailableMessage,
			})
			return
		}
		logrus.Errorf("Failed to create conversation for employee %d: %v", employeeID, err)
		http.Error(w, "Failed to create conversation", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, ConversationResponse{Conversation: conversation, Reply: reply})
}

func (h *Handler) ListConversationsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	employeeID, ok := auth.GetEmployeeIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Authorization failed: employee id not found in token", http.StatusUnauthorized)
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	list, total, err := h.conversationService.List(r.Context(), employeeID, page, limit)
	if err != nil {
		logrus.Errorf("Failed to list conversations for employee %d: %v", employeeID, err)
		http.Error(w, "Failed to list conversations", http.StatusInternalServerError)
		return
	}

	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	writeJSON(w, http.StatusOK, ConversationListResponse{
		Conversations: list,
		Total:         total,
		Page:          page,
		Limit:         limit,
	})
}

type ConversationDetailResponse struct {
	Conversation *conversations.Conversation `json:"conversation"`
	Messages     []conversations.Message     `json:"messages"`
}

func (h *Handler) GetConversationHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	employeeID, ok := auth.GetEmployeeIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Authorization failed: employee id not found in token", http.StatusUnauthorized)
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "Conversation id is required", http.StatusBadRequest)
		return
	}

	conversation, err := h.conversationService.Get(r.Context(), id, employeeID)
	if err != nil {
		if errors.Is(err, conversations.ErrConversationNotFound) {
			http.Error(w, "Conversation not found", http.StatusNotFound)
		} else {
			logrus.Errorf("Failed to load conversation %s: %v", id, err)
			http.Error(w, "Failed to load conversation", http.StatusInternalServerError)
		}
		return
	}

	messages, err := h.conversationService.Messages(r.Context(), conversation.ID)
	if err != nil {
		logrus.Errorf("Failed to load messages of conversation %s: %v", id, err)
		http.Error(w, "Failed to load conversation messages", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, ConversationDetailResponse{Conversation: conversation, Messages: messages})
}

type SendMessageRequest struct {
	ConversationID string `json:"conversation_id"`
	Message        string `json:"message"`
}

func (h *Handler) SendMessageHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	employeeID, ok := auth.GetEmployeeIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Authorization failed: employee id not found in token", http.StatusUnauthorized)
		return
	}

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.ConversationID == "" || req.Message == "" {
		http.Error(w, "Conversation id and message are required", http.StatusBadRequest)
		return
	}

	reply, err := h.assistantService.ProcessMessage(r.Context(), employeeID, req.ConversationID, req.Message)
	if err != nil {
		switch {
		case errors.Is(err, conversations.ErrConversationNotFound):
			http.Error(w, "Conversation not found", http.StatusNotFound)
		case errors.Is(err, assistant.ErrAssistantUnavailable):
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"error": assistant.UnavailableMessage,
			})
		default:
			logrus.Errorf("Failed to process message in conversation %s: %v", req.ConversationID, err)
			http.Error(w, "Failed to process message", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]*conversations.Message{"reply": reply})
}

type UpdateConversationRequest struct {
	ID     string  `json:"id"`
	Title  *string `json:"title,omitempty"`
	Pinned *bool   `json:"pinned,omitempty"`
}

func (h *Handler) UpdateConversationHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut && r.Method != http.MethodPatch {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	employeeID, ok := auth.GetEmployeeIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Authorization failed: employee id not found in token", http.StatusUnauthorized)
		return
	}

	var req UpdateConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.ID == "" {
		http.Error(w, "Conversation id is required", http.StatusBadRequest)
		return
	}
	if req.Title == nil && req.Pinned == nil {
		http.Error(w, "At least one field to update is required", http.StatusBadRequest)
		return
	}

	conversation, err := h.conversationService.Update(r.Context(), req.ID, employeeID, req.Title, req.Pinned)
	if err != nil {
		if errors.Is(err, conversations.ErrConversationNotFound) {
			http.Error(w, "Conversation not found", http.StatusNotFound)
		} else {
			logrus.Errorf("Failed to update conversation %s: %v", req.ID, err)
			http.Error(w, "Failed to update conversation", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusOK, conversation)
}

func (h *Handler) DeleteConversationHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	employeeID, ok := auth.GetEmployeeIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Authorization failed: employee id not found in token", http.StatusUnauthorized)
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "Conversation id is required", http.StatusBadRequest)
		return
	}

	if err := h.conversationService.Delete(r.Context(), id, employeeID); err != nil {
		if errors.Is(err, conversations.ErrConversationNotFound) {
			http.Error(w, "Conversation not found", http.StatusNotFound)
		} else {
			logrus.Errorf("Failed to delete conversation %s: %v", id, err)
			http.Error(w, "Failed to delete conversation", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

func (h *Handler) SearchConversationsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	employeeID, ok := auth.GetEmployeeIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Authorization failed: employee id not found in token", http.StatusUnauthorized)
		return
	}

	query := r.URL.Query().Get("query")
	if query == "" {
		http.Error(w, "Search query is required", http.StatusBadRequest)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	found, err := h.conversationService.Search(r.Context(), employeeID, query, limit)
	if err != nil {
		logrus.Errorf("Failed to search conversations for employee %d: %v", employeeID, err)
		http.Error(w, "Failed to search conversations", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string][]conversations.Conversation{"conversations": found})
}

func (h *Handler) LeaveBalancesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	employeeID, ok := auth.GetEmployeeIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Authorization failed: employee id not found in token", http.StatusUnauthorized)
		return
	}

	balances, err := h.leaveService.Balances(r.Context(), employeeID)
	if err != nil {
		logrus.Errorf("Failed to load leave balances for employee %d: %v", employeeID, err)
		http.Error(w, "Failed to load leave balances", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string][]leaves.Balance{"balances": balances})
}

func (h *Handler) LeaveHistoryHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	employeeID, ok := auth.GetEmployeeIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Authorization failed: employee id not found in token", http.StatusUnauthorized)
		return
	}

	status := r.URL.Query().Get("status")

	history, err := h.leaveService.History(r.Context(), employeeID, status)
	if err != nil {
		if errors.Is(err, leaves.ErrValidation) {
			http.Error(w, "Invalid status filter", http.StatusBadRequest)
		} else {
			logrus.Errorf("Failed to load leave history for employee %d: %v", employeeID, err)
			http.Error(w, "Failed to load leave history", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string][]leaves.LeaveRequest{"requests": history})
}

type ApplyLeaveRequest struct {
	LeaveType string `json:"leave_type"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Reason    string `json:"reason,omitempty"`
}

func (h *Handler) ApplyLeaveHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	employeeID, ok := auth.GetEmployeeIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Authorization failed: employee id not found in token", http.StatusUnauthorized)
		return
	}

	var req ApplyLeaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		http.Error(w, "Invalid start date (expected YYYY-MM-DD)", http.StatusBadRequest)
		return
	}
	endDate, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		http.Error(w, "Invalid end date (expected YYYY-MM-DD)", http.StatusBadRequest)
		return
	}

	request, err := h.leaveService.Apply(r.Context(), employeeID, req.LeaveType, startDate, endDate, req.Reason, "web")
	if err != nil {
		switch {
		case errors.Is(err, leaves.ErrValidation):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, leaves.ErrInsufficientBalance):
			http.Error(w, "Not enough leave balance for the requested period", http.StatusConflict)
		case errors.Is(err, leaves.ErrOverlappingRequest):
			http.Error(w, "An overlapping leave request already exists", http.StatusConflict)
		default:
			logrus.Errorf("Failed to apply leave for employee %d: %v", employeeID, err)
			http.Error(w, "Failed to apply for leave", http.StatusInternalServerError)
		}
		return
	}

	if eventID, syncErr := h.calendarService.SyncLeave(r.Context(), request); syncErr != nil {
		logrus.Warnf("Failed to sync leave request %s to the calendar: %v", request.ID, syncErr)
	} else if eventID != "" {
		if err := h.leaveService.SetCalendarEventID(r.Context(), request.ID, eventID); err != nil {
			logrus.Warnf("Failed to store calendar event id for leave request %s: %v", request.ID, err)
		} else {
			request.CalendarEventID = &eventID
		}
	}

	writeJSON(w, http.StatusCreated, request)
}

func (h *Handler) AttendanceSummaryHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	employeeID, ok := auth.GetEmployeeIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Authorization failed: employee id not found in token", http.StatusUnauthorized)
		return
	}

	month := r.URL.Query().Get("month")

	summary, err := h.attendanceService.MonthlySummary(r.Context(), employeeID, month)
	if err != nil {
		if errors.Is(err, attendance.ErrInvalidMonth) {
			http.Error(w, "Invalid month (expected YYYY-MM)", http.StatusBadRequest)
		} else {
			logrus.Errorf("Failed to load attendance summary for employee %d: %v", employeeID, err)
			http.Error(w, "Failed to load attendance summary", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) PayslipHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	employeeID, ok := auth.GetEmployeeIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Authorization failed: employee id not found in token", http.StatusUnauthorized)
		return
	}

	month := r.URL.Query().Get("month")

	payslip, err := h.payrollService.Payslip(r.Context(), employeeID, month)
	if err != nil {
		switch {
		case errors.Is(err, payroll.ErrPayslipNotFound):
			http.Error(w, "Payslip not found", http.StatusNotFound)
		case errors.Is(err, payroll.ErrInvalidMonth):
			http.Error(w, "Invalid month (expected YYYY-MM)", http.StatusBadRequest)
		default:
			logrus.Errorf("Failed to load payslip for employee %d: %v", employeeID, err)
			http.Error(w, "Failed to load payslip", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusOK, payslip)
}

func (h *Handler) AnnouncementsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	list, err := h.announcementService.Recent(r.Context(), limit)
	if err != nil {
		logrus.Errorf("Failed to load announcements: %v", err)
		http.Error(w, "Failed to load announcements", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string][]announcements.Announcement{"announcements": list})
}

func (h *Handler) HolidaysHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	year, _ := strconv.Atoi(r.URL.Query().Get("year"))

	holidays, err := h.calendarService.Holidays(r.Context(), year)
	if err != nil {
		logrus.Errorf("Failed to load holidays: %v", err)
		http.Error(w, "Failed to load holidays", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string][]calendar.Holiday{"holidays": holidays})
}

func (h *Handler) SearchEmployeesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if _, ok := auth.GetEmployeeIDFromContext(r.Context()); !ok {
		http.Error(w, "Authorization failed: employee id not found in token", http.StatusUnauthorized)
		return
	}

	query := r.URL.Query().Get("query")
	if query == "" {
		http.Error(w, "Search query is required", http.StatusBadRequest)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	found, err := h.employeeService.Search(r.Context(), query, limit)
	if err != nil {
		logrus.Errorf("Failed to search employees for %q: %v", query, err)
		http.Error(w, "Failed to search employees", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string][]employees.Employee{"employees": found})
}

func (h *Handler) GoogleAuthURLHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	employeeID, ok := auth.GetEmployeeIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Authorization failed: employee id not found in token", http.StatusUnauthorized)
		return
	}

	authURL, err := h.calendarService.GetAuthURL(strconv.FormatInt(employeeID, 10))
	if err != nil {
		logrus.Errorf("Failed to build Google auth URL for employee %d: %v", employeeID, err)
		http.Error(w, "Google Calendar is not configured", http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"auth_url": authURL})
}

func (h *Handler) GoogleCallbackHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		logrus.Errorf("Google OAuth error: %s", r.URL.Query().Get("error"))
		http.Error(w, "Google authorization was cancelled or failed", http.StatusBadRequest)
		return
	}

	employeeID, err := strconv.ParseInt(r.URL.Query().Get("state"), 10, 64)
	if err != nil {
		logrus.Errorf("Invalid OAuth state parameter: %v", err)
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}

	if err := h.calendarService.HandleAuthCallback(r.Context(), code, employeeID); err != nil {
		logrus.Errorf("Failed to complete Google authorization: %v", err)
		http.Error(w, "Failed to complete Google authorization", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`
		<!DOCTYPE html>
		<html>
		<head>
			<title>Google Calendar connected</title>
			<style>
				body { font-family: Arial, sans-serif; text-align: center; margin-top: 50px; }
				.success { color: green; font-size: 24px; margin-bottom: 20px; }
				.info { color: #333; margin-bottom: 20px; }
			</style>
		</head>
		<body>
			<div class="success">Google Calendar connected!</div>
			<div class="info">You can close this window and return to the application.</div>
			<script>
				setTimeout(function() {
					window.close();
				}, 5000);
			</script>
		</body>
		</html>
	`))
}
