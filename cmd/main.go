package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hrmserver/internal/announcements"
	"hrmserver/internal/api"
	"hrmserver/internal/assistant"
	"hrmserver/internal/attendance"
	"hrmserver/internal/auth"
	"hrmserver/internal/calendar"
	"hrmserver/internal/chatgpt"
	"hrmserver/internal/conversations"
	"hrmserver/internal/employees"
	"hrmserver/internal/leaves"
	"hrmserver/internal/middleware"
	"hrmserver/internal/payroll"
	"hrmserver/internal/usage"
	"hrmserver/pkg/config"
	"hrmserver/pkg/db"

	"github.com/sirupsen/logrus"
)

func main() {

	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetOutput(os.Stdout)
	logrus.SetLevel(logrus.InfoLevel)

	cfg := config.LoadConfig()

	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		logrus.Fatalf("Failed to connect to the database: %v", err)
	}
	defer database.Close()

	if err := db.RunMigrations(context.Background(), database); err != nil {
		logrus.Fatalf("Failed to run migrations: %v", err)
	}

	employeeService := employees.NewService(employees.NewRepository(database))
	leaveService := leaves.NewService(leaves.NewRepository(database))
	attendanceService := attendance.NewService(database)
	payrollService := payroll.NewService(database)
	announcementService := announcements.NewService(database)
	conversationService := conversations.NewService(conversations.NewRepository(database))
	usageService := usage.NewService(usage.NewRepository(database))

	var googleClient *calendar.GoogleCalendarClient
	if cfg.GoogleCredentials != "" {
		googleClient, err = calendar.NewGoogleCalendarClient(cfg.GoogleCredentials, database)
		if err != nil {
			logrus.Warnf("Google Calendar is disabled: %v", err)
		}
	}
	calendarService := calendar.NewService(database, googleClient)

	completionClient := chatgpt.NewService(cfg.OpenAIKey, cfg.OpenAIModel, cfg.CompletionTimeout)

	catalog := assistant.DefaultCatalog()
	handlers := assistant.BuildHandlers(assistant.Collaborators{
		Leaves:        leaveService,
		Attendance:    attendanceService,
		Payroll:       payrollService,
		Employees:     employeeService,
		Announcements: announcementService,
		Holidays:      calendarService,
		CalendarSync:  calendarService,
	})
	dispatcher := assistant.NewDispatcher(catalog, handlers, conversationService)
	assistantService := assistant.NewService(completionClient, conversationService, dispatcher, employeeService, usageService, catalog)

	apiHandler := api.NewHandler(
		employeeService,
		conversationService,
		assistantService,
		leaveService,
		attendanceService,
		payrollService,
		announcementService,
		calendarService,
		cfg.JWTSigningKey,
	)

	mux := http.NewServeMux()

	mux.Handle("/api/auth/register", middleware.CORSMiddleware(http.HandlerFunc(apiHandler.RegisterHandler)))
	mux.Handle("/api/auth/login", middleware.CORSMiddleware(http.HandlerFunc(apiHandler.LoginHandler)))

	protected := func(handler http.HandlerFunc) http.Handler {
		return middleware.CORSMiddleware(auth.JWTMiddleware(handler, cfg.JWTSigningKey))
	}

	mux.Handle("/api/employees/me", protected(apiHandler.ProfileHandler))
	mux.Handle("/api/employees/search", protected(apiHandler.SearchEmployeesHandler))

	mux.Handle("/api/conversations/create", protected(apiHandler.CreateConversationHandler))
	mux.Handle("/api/conversations/list", protected(apiHandler.ListConversationsHandler))
	mux.Handle("/api/conversations/get", protected(apiHandler.GetConversationHandler))
	mux.Handle("/api/conversations/message", protected(apiHandler.SendMessageHandler))
	mux.Handle("/api/conversations/update", protected(apiHandler.UpdateConversationHandler))
	mux.Handle("/api/conversations/delete", protected(apiHandler.DeleteConversationHandler))
	mux.Handle("/api/conversations/search", protected(apiHandler.SearchConversationsHandler))

	mux.Handle("/api/leaves/balance", protected(apiHandler.LeaveBalancesHandler))
	mux.Handle("/api/leaves/history", protected(apiHandler.LeaveHistoryHandler))
	mux.Handle("/api/leaves/apply", protected(apiHandler.ApplyLeaveHandler))

	mux.Handle("/api/attendance/summary", protected(apiHandler.AttendanceSummaryHandler))
	mux.Handle("/api/payroll/payslip", protected(apiHandler.PayslipHandler))
	mux.Handle("/api/announcements/list", protected(apiHandler.AnnouncementsHandler))
	mux.Handle("/api/holidays/list", protected(apiHandler.HolidaysHandler))

	mux.Handle("/api/calendar/google/auth-url", protected(apiHandler.GoogleAuthURLHandler))
	mux.Handle("/api/calendar/google/callback", middleware.CORSMiddleware(http.HandlerFunc(apiHandler.GoogleCallbackHandler)))

	server := &http.Server{
		Addr:    cfg.ServerHost + ":" + cfg.ServerPort,
		Handler: mux,
	}

	go func() {
		logrus.Infof("Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logrus.Fatalf("Failed to stop server: %v", err)
	}

	logrus.Info("Server stopped")
}
