package internal

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"time"

	"campus-reserve-api/internal/auth"
	"campus-reserve-api/internal/booking"
	"campus-reserve-api/internal/bus"
	"campus-reserve-api/internal/config"
	"campus-reserve-api/internal/handlers"
	"campus-reserve-api/internal/notify"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
)

type Server struct {
	DB         *sql.DB
	Pool       *pgxpool.Pool
	Router     *chi.Mux
	JWTManager *auth.JWTManager
	Metrics    *Metrics
	Engine     *booking.Engine
	Bus        *bus.Bus
}

func NewServer(dsn string, cfg *config.Config) *Server {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		log.Fatal("Failed to open database connection:", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		log.Fatal("Database ping failed:", err)
	}

	// Separate pgxpool for the reservation engine and the importer
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		log.Fatal("Failed to create pgxpool:", err)
	}

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTExpiry)
	if err := jwtManager.ValidateConfig(); err != nil {
		log.Fatal("JWT configuration validation failed:", err)
	}

	eventBus := bus.New()

	s := &Server{
		DB:         db,
		Pool:       pool,
		Router:     chi.NewRouter(),
		JWTManager: jwtManager,
		Engine:     booking.NewEngine(pool),
		Bus:        eventBus,
	}

	// The in-app notification dispatcher always runs; the mailer only
	// when SMTP is configured.
	dispatcher := notify.NewDispatcher(db)
	eventBus.Subscribe(bus.ReservationCreated, dispatcher.HandleEvent)
	eventBus.Subscribe(bus.ReservationApproved, dispatcher.HandleEvent)
	eventBus.Subscribe(bus.ReservationRejected, dispatcher.HandleEvent)

	if cfg.SMTPHost != "" {
		mailer, err := notify.NewMailer(db, cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom)
		if err != nil {
			log.Fatal("Failed to create SMTP mailer:", err)
		}
		eventBus.Subscribe(bus.ReservationCreated, mailer.HandleEvent)
		eventBus.Subscribe(bus.ReservationApproved, mailer.HandleEvent)
		eventBus.Subscribe(bus.ReservationRejected, mailer.HandleEvent)
	}

	// Mount public routes FIRST (no middleware)
	s.Router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		if _, err := w.Write([]byte("ok")); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
	s.Router.Get("/dbping", func(w http.ResponseWriter, r *http.Request) {
		if err := s.DB.PingContext(r.Context()); err != nil {
			http.Error(w, "db: "+err.Error(), http.StatusServiceUnavailable)
			return
		}
		if _, err := w.Write([]byte("db: ok")); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})

	// Public auth routes (no JWT required)
	s.Router.Post("/auth/login", s.loginUser)

	// Mount metrics if enabled
	if os.Getenv("ENABLE_METRICS") == "true" {
		s.Metrics = NewMetrics()
		s.Router.Use(s.Metrics.Middleware())
		s.Router.Get("/metrics", s.Metrics.Handler().ServeHTTP)
	}

	// Protected route group
	s.Router.Group(func(r chi.Router) {
		r.Use(auth.AuthMiddleware(s.JWTManager))
		s.mountProtectedRoutes(r)
	})

	return s
}

// Close shuts down the server, waiting briefly for in-flight event
// handlers to drain.
func (s *Server) Close(ctx context.Context) error {
	if s.Bus != nil {
		if err := s.Bus.Wait(ctx); err != nil {
			log.Printf("event bus drain: %v", err)
		}
	}
	if s.Pool != nil {
		s.Pool.Close()
	}
	if s.DB != nil {
		return s.DB.Close()
	}
	return nil
}

// mountProtectedRoutes mounts all routes that require authentication
func (s *Server) mountProtectedRoutes(r chi.Router) {
	// Equipment catalog - write operations restricted to technicians
	r.Get("/api/equipment", s.listEquipment)
	r.Get("/api/equipment/{id}", s.getEquipment)
	r.Post("/api/equipment", auth.MustRole("technician")(http.HandlerFunc(s.createEquipment)).(http.HandlerFunc))
	r.Put("/api/equipment/{id}", auth.MustRole("technician")(http.HandlerFunc(s.updateEquipment)).(http.HandlerFunc))
	r.Delete("/api/equipment/{id}", auth.MustRole("technician")(http.HandlerFunc(s.deleteEquipment)).(http.HandlerFunc))

	// Reservations - students create, managers decide, owners or staff delete
	r.Get("/api/reservations", s.listReservations)
	r.Get("/api/reservations/pending", auth.MustRole("manager")(http.HandlerFunc(s.listPendingReservations)).(http.HandlerFunc))
	r.Get("/api/reservations/{id}", s.getReservation)
	r.Post("/api/reservations", auth.MustRole("student")(http.HandlerFunc(s.createReservation)).(http.HandlerFunc))
	r.Post("/api/reservations/batch", auth.MustRole("student")(http.HandlerFunc(s.createBatchReservation)).(http.HandlerFunc))
	r.Patch("/api/reservations/{id}", auth.MustRole("manager")(http.HandlerFunc(s.updateReservationStatus)).(http.HandlerFunc))
	r.Delete("/api/reservations/{id}", s.deleteReservation)

	// Grouped representation
	r.Get("/api/v2/reservations", s.listGroupedReservations)
	r.Get("/api/v2/reservations/{id}", s.getGroupedReservation)

	// Notifications
	r.Get("/api/notifications", s.listNotifications)
	r.Patch("/api/notifications/{id}/read", s.markNotificationRead)

	// Excel import - technicians only
	importsHandler := handlers.NewImportsHandler(s.Pool)
	r.Post("/api/imports/excel", auth.MustRole("technician")(http.HandlerFunc(importsHandler.UploadExcel)).(http.HandlerFunc))

	// User management - manager only
	r.Post("/api/users", auth.MustRole("manager")(http.HandlerFunc(s.createUser)).(http.HandlerFunc))
	r.Get("/api/users", auth.MustRole("manager")(http.HandlerFunc(s.listUsers)).(http.HandlerFunc))
	r.Get("/api/users/{id}", auth.MustRole("manager")(http.HandlerFunc(s.getUser)).(http.HandlerFunc))
	r.Put("/api/users/{id}", auth.MustRole("manager")(http.HandlerFunc(s.updateUser)).(http.HandlerFunc))
	r.Delete("/api/users/{id}", auth.MustRole("manager")(http.HandlerFunc(s.deleteUser)).(http.HandlerFunc))

	// Self-service routes
	r.Get("/auth/profile", s.getUserProfile)
	r.Put("/auth/profile", s.updateUserProfile)
	r.Put("/auth/change-password", s.changePassword)
}
