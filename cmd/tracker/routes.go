package main

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	getadmin "piecetrack/http-server/admin/get"
	saveadmin "piecetrack/http-server/admin/save"
	upadmin "piecetrack/http-server/admin/update"
	getearnings "piecetrack/http-server/earnings/get"
	getemployees "piecetrack/http-server/employees/get"
	"piecetrack/http-server/employees/login"
	getoperations "piecetrack/http-server/operations/get"
	"piecetrack/http-server/report/export"
	"piecetrack/http-server/scan/reconcile"
	"piecetrack/http-server/scan/submit"
	"piecetrack/internal/config"
	"piecetrack/internal/middleware/auth"
	"piecetrack/internal/service/earnings"
	"piecetrack/internal/service/scan"
	"piecetrack/internal/storage/mysql"
	"piecetrack/internal/storage/sqlite"
)

func routes(cfg config.Config, log *slog.Logger, storage *mysql.Storage, queue *sqlite.Store,
	processor *scan.Processor, reconciler *scan.Reconciler, exporter *earnings.ExportService) *chi.Mux {
	router := chi.NewRouter()

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"http://localhost:8081", "http://localhost:5173"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	router.Use(corsHandler.Handler)

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	router.Post("/api/login", login.Login(log, storage))

	router.Post("/api/scan", submit.SubmitScan(log, processor, cfg.DeviceID))
	router.Get("/api/scan/queue", reconcile.GetPendingQueue(log, queue))
	router.Post("/api/sync", reconcile.TriggerSync(log, reconciler))

	router.Get("/api/earnings/week", getearnings.GetWeeklyEarnings(log, storage, time.Now))
	router.Get("/api/earnings/history", getearnings.GetEarningsHistory(log, storage, time.Now))

	router.Get("/api/operations", getoperations.GetOperations(log, storage))
	router.Get("/api/employees", getemployees.GetEmployees(log, storage))

	router.Get("/api/report/payroll.csv", export.PayrollCSV(log, exporter, time.Now))
	router.Get("/api/report/payroll.xlsx", export.PayrollXLSX(log, exporter, time.Now))

	adminRouter := chi.NewRouter()
	adminRouter.Use(auth.BasicAuth(cfg.AdminLogin, cfg.AdminPass))

	adminRouter.Get("/scans", getadmin.GetScanLogAdmin(log, storage))
	adminRouter.Get("/rates", getadmin.GetRatesAdmin(log, storage))
	adminRouter.Post("/rates", saveadmin.UpsertRateAdmin(log, storage, time.Now))
	adminRouter.Get("/employees", getadmin.GetAllEmployeesAdmin(log, storage))
	adminRouter.Post("/employees", saveadmin.SaveEmployeeAdmin(log, storage))
	adminRouter.Put("/employees/{employeeID}", upadmin.UpdateEmployeeAdmin(log, storage))

	router.Mount("/api/admin", adminRouter)

	return router
}
