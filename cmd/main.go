package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	createBookingHandler "github.com/formadon/TDE-SchedulingService/internal/api/handlers/create_booking"
	deleteBookingHandler "github.com/formadon/TDE-SchedulingService/internal/api/handlers/delete_booking"
	getAvailabilityHandler "github.com/formadon/TDE-SchedulingService/internal/api/handlers/get_availability"
	getBookingHandler "github.com/formadon/TDE-SchedulingService/internal/api/handlers/get_booking"
	getDealBookingsHandler "github.com/formadon/TDE-SchedulingService/internal/api/handlers/get_deal_bookings"
	getResourceLocksHandler "github.com/formadon/TDE-SchedulingService/internal/api/handlers/get_resource_locks"
	updateBookingHandler "github.com/formadon/TDE-SchedulingService/internal/api/handlers/update_booking"
	updateBookingStatusHandler "github.com/formadon/TDE-SchedulingService/internal/api/handlers/update_booking_status"
	"github.com/formadon/TDE-SchedulingService/internal/api/middleware"
	"github.com/formadon/TDE-SchedulingService/internal/config"
	"github.com/formadon/TDE-SchedulingService/internal/infra/storage/capability"
	resourceRepo "github.com/formadon/TDE-SchedulingService/internal/infra/storage/resource"
	sessionRepo "github.com/formadon/TDE-SchedulingService/internal/infra/storage/session"
	variantRepo "github.com/formadon/TDE-SchedulingService/internal/infra/storage/variant"
	crmServiceClient "github.com/formadon/TDE-SchedulingService/internal/integrations/crmservice"
	bookingsService "github.com/formadon/TDE-SchedulingService/internal/service/bookings"
	conflictsService "github.com/formadon/TDE-SchedulingService/internal/service/conflicts"
	createBookingUC "github.com/formadon/TDE-SchedulingService/internal/usecase/create_booking"
	getAvailabilityUC "github.com/formadon/TDE-SchedulingService/internal/usecase/get_availability"
	getResourceLocksUC "github.com/formadon/TDE-SchedulingService/internal/usecase/get_resource_locks"
	updateBookingUC "github.com/formadon/TDE-SchedulingService/internal/usecase/update_booking"
	"github.com/formadon/TDE-SchedulingService/pkg/dbmetrics"
	"github.com/formadon/TDE-SchedulingService/pkg/logger"
	"github.com/formadon/TDE-SchedulingService/pkg/metrics"
	"github.com/formadon/TDE-SchedulingService/pkg/simpletxmanager"
	"github.com/formadon/TDE-SchedulingService/pkg/txmanager"
)

func main() {
	// Загружаем конфигурацию
	cfg, err := config.Load("config.toml")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализируем логгер
	log, err := logger.New(cfg.Logs.File, cfg.Logs.Level)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("Starting TDE-SchedulingService...")
	log.Info("Configuration loaded from config.toml")

	// Таймзона отображения, в которой резолвятся даты и времена занятий
	loc, err := time.LoadLocation(cfg.Scheduling.DisplayTimezone)
	if err != nil {
		log.Fatal("Failed to load display timezone %q: %v", cfg.Scheduling.DisplayTimezone, err)
	}
	log.Info("Display timezone: %s", cfg.Scheduling.DisplayTimezone)

	// Инициализируем метрики (если включены)
	var metricsCollector *metrics.Metrics
	var wrappedDB *dbmetrics.DB
	stopMetricsCh := make(chan struct{})

	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName)
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

	// Подключаемся к базе данных
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Настраиваем connection pool
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	// Проверяем соединение
	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database: %v", err)
	}
	log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

	// Определяем возможности схемы (наличие M2M таблиц привязок)
	caps := capability.Detect(context.Background(), db, log)
	log.Info("Schema capabilities: resource_links=%t", caps.ResourceLinks)

	// Инициализируем интеграционного клиента CRM
	crmClient := crmServiceClient.NewClient(
		cfg.CRMService.URL,
		time.Duration(cfg.CRMService.Timeout)*time.Second,
		log,
	)
	log.Info("Integration client initialized (CRMService=%s timeout=%ds)",
		cfg.CRMService.URL, cfg.CRMService.Timeout)

	// Инициализируем репозитории (с метриками или без)
	var (
		sessionRepository  *sessionRepo.Repository
		variantRepository  *variantRepo.Repository
		resourceRepository *resourceRepo.Repository
	)

	// Интерфейс для transaction manager (используется в usecases)
	type TxManager interface {
		DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
	}
	var txMgr TxManager

	if cfg.Metrics.Enabled {
		wrappedDB = dbmetrics.WrapWithDefault(db, metricsCollector, cfg.Metrics.ServiceName, stopMetricsCh)
		log.Info("Database metrics collection started")

		sessionRepository = sessionRepo.NewRepository(wrappedDB, caps)
		variantRepository = variantRepo.NewRepository(wrappedDB, caps)
		resourceRepository = resourceRepo.NewRepository(wrappedDB)
		txMgr = txmanager.NewTransactionManager(wrappedDB)
	} else {
		sessionRepository = sessionRepo.NewRepository(db, caps)
		variantRepository = variantRepo.NewRepository(db, caps)
		resourceRepository = resourceRepo.NewRepository(db)
		txMgr = simpletxmanager.NewTransactionManager(db)
	}

	// Инициализируем сервисы
	conflictsSvc := conflictsService.NewService(
		sessionRepository,
		variantRepository,
		resourceRepository,
		crmClient,
		loc,
		cfg.Scheduling.AlwaysAvailableUnitIDs,
		log,
	)
	bookingSvc := bookingsService.NewService(
		sessionRepository,
		resourceRepository,
		crmClient,
		txMgr,
		cfg.Scheduling.RoomExemptSites,
		cfg.Scheduling.UndatedPipelines,
		log,
	)

	// Инициализируем use cases
	createBookingUseCase := createBookingUC.NewUseCase(
		sessionRepository,
		resourceRepository,
		crmClient,
		conflictsSvc,
		txMgr,
		loc,
		cfg.Scheduling.RoomExemptSites,
		cfg.Scheduling.UndatedPipelines,
		log,
	)
	updateBookingUseCase := updateBookingUC.NewUseCase(
		sessionRepository,
		resourceRepository,
		crmClient,
		conflictsSvc,
		txMgr,
		loc,
		cfg.Scheduling.RoomExemptSites,
		cfg.Scheduling.UndatedPipelines,
		log,
	)
	getAvailabilityUseCase := getAvailabilityUC.NewUseCase(
		sessionRepository,
		variantRepository,
		resourceRepository,
		crmClient,
		loc,
		cfg.Scheduling.MaxAvailabilityRangeDays,
		cfg.Scheduling.AlwaysAvailableUnitIDs,
		log,
	)
	getResourceLocksUseCase := getResourceLocksUC.NewUseCase(
		conflictsSvc,
		loc,
		log,
	)

	// Инициализируем handlers
	createBooking := createBookingHandler.NewHandler(createBookingUseCase, log)
	updateBooking := updateBookingHandler.NewHandler(updateBookingUseCase, log)
	getBooking := getBookingHandler.NewHandler(bookingSvc, log)
	deleteBooking := deleteBookingHandler.NewHandler(bookingSvc, log)
	updateBookingStatus := updateBookingStatusHandler.NewHandler(bookingSvc, log)
	getDealBookings := getDealBookingsHandler.NewHandler(bookingSvc, log)
	getAvailability := getAvailabilityHandler.NewHandler(getAvailabilityUseCase, log)
	getResourceLocks := getResourceLocksHandler.NewHandler(getResourceLocksUseCase, log)

	// Настраиваем роутер
	r := mux.NewRouter()

	// Каждому запросу присваивается идентификатор для трассировки
	r.Use(middleware.RequestID)

	// Добавляем metrics middleware (если метрики включены)
	if cfg.Metrics.Enabled {
		r.Use(middleware.MetricsMiddleware(metricsCollector, cfg.Metrics.ServiceName))
		log.Info("HTTP metrics middleware enabled")
	}

	// Metrics endpoint (публичный, без аутентификации)
	if cfg.Metrics.Enabled {
		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	// API prefix
	api := r.PathPrefix("/api/v1").Subrouter()

	// ============================================================
	// PUBLIC ROUTES (без аутентификации)
	// ============================================================

	// Агрегированная доступность ресурсов по дням и площадкам
	api.HandleFunc("/availability", getAvailability.Handle).Methods(http.MethodGet)

	// Занятые ресурсы одного временного окна (подсветка формы)
	api.HandleFunc("/resource-locks", getResourceLocks.Handle).Methods(http.MethodGet)

	// ============================================================
	// PROTECTED ROUTES (требуют X-User-ID header)
	// ============================================================

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.Auth)

	// --- Занятия ---
	// Создание занятия
	protected.HandleFunc("/bookings", createBooking.Handle).Methods(http.MethodPost)

	// Получение занятия по ID
	protected.HandleFunc("/bookings/{bookingId}", getBooking.Handle).Methods(http.MethodGet)

	// Частичное обновление занятия
	protected.HandleFunc("/bookings/{bookingId}", updateBooking.Handle).Methods(http.MethodPatch)

	// Удаление занятия
	protected.HandleFunc("/bookings/{bookingId}", deleteBooking.Handle).Methods(http.MethodDelete)

	// Ручной перевод статуса занятия
	protected.HandleFunc("/bookings/{bookingId}/status", updateBookingStatus.Handle).Methods(http.MethodPatch)

	// Занятия одной сделки
	protected.HandleFunc("/deals/{dealId}/bookings", getDealBookings.Handle).Methods(http.MethodGet)

	// Создаем HTTP сервер
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start: %v", err)
		}
	}()

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Останавливаем сбор метрик connection pool
	if cfg.Metrics.Enabled {
		close(stopMetricsCh)
		log.Info("Metrics collection stopped")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	log.Info("Server stopped gracefully")
}
