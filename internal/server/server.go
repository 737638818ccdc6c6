package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"taskcalendar/internal/auth"
	"taskcalendar/internal/calendar"
	"taskcalendar/internal/config"
	"taskcalendar/internal/handler"
	"taskcalendar/internal/middleware"
	"taskcalendar/internal/optimistic"
	"taskcalendar/internal/realtime"
	"taskcalendar/internal/repository"
)

type Server struct {
	Engine *gin.Engine
	DB     *gorm.DB
	Hub    *realtime.Hub
	Config *config.Config
	log    *logrus.Entry
}

// Handlers groups every HTTP handler the router mounts.
type Handlers struct {
	Users    *handler.UserHandler
	Tasks    *handler.TaskHandler
	Calendar *handler.CalendarHandler
	Contacts *handler.ContactHandler
	Lessons  *handler.LessonHandler
	Goals    *handler.GoalHandler
	Invites  *handler.InviteHandler
	Export   *handler.ExportHandler
	Realtime *handler.RealtimeHandler
}

func Init(cfg *config.Config, log *logrus.Entry) (*Server, error) {
	const op = "server.Init"
	log = log.WithField("operation", op)

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to DB: %w", err)
	}
	log.Info("connected to database")

	hub := realtime.NewHub(log)

	userRepo := repository.NewUserRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	contactRepo := repository.NewContactRepository(db)
	lessonRepo := repository.NewLessonRepository(db)
	noteRepo := repository.NewNoteRepository(db)
	goalRepo := repository.NewGoalRepository(db)
	inviteRepo := repository.NewInviteRepository(db)

	engine := optimistic.NewEngine(taskRepo, auth.ContextSession{}, log, optimistic.WithPublisher(hub))
	planner := calendar.NewPlanner(engine)
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTExpiry)

	handlers := Handlers{
		Users:    handler.NewUserHandler(userRepo, tokens, log),
		Tasks:    handler.NewTaskHandler(engine, taskRepo, log),
		Calendar: handler.NewCalendarHandler(planner, log),
		Contacts: handler.NewContactHandler(contactRepo, hub, log),
		Lessons:  handler.NewLessonHandler(lessonRepo, noteRepo, hub, log),
		Goals:    handler.NewGoalHandler(goalRepo, hub, log),
		Invites:  handler.NewInviteHandler(inviteRepo, userRepo, hub, log),
		Export:   handler.NewExportHandler(engine, contactRepo, lessonRepo, noteRepo, goalRepo, log),
		Realtime: handler.NewRealtimeHandler(hub),
	}

	if cfg.AppEnv != "local" {
		gin.SetMode(gin.ReleaseMode)
	}

	return &Server{
		Engine: NewRouter(handlers, cfg.JWTSecret, log),
		DB:     db,
		Hub:    hub,
		Config: cfg,
		log:    log,
	}, nil
}

// NewRouter mounts the public and the authorized routes.
func NewRouter(h Handlers, jwtSecret string, log *logrus.Entry) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log))

	// Public routes
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.POST("/register", h.Users.Register)
	r.POST("/login", h.Users.Login)

	// Protected routes - require authentication
	authorized := r.Group("/")
	authorized.Use(middleware.JWTAuthMiddleware(jwtSecret))
	{
		authorized.GET("/profile", h.Users.Profile)
		authorized.GET("/ws", h.Realtime.Feed)

		// Task routes
		authorized.GET("/tasks", h.Tasks.List)
		authorized.GET("/tasks/shared", h.Tasks.Shared)
		authorized.POST("/tasks", h.Tasks.Create)
		authorized.GET("/tasks/:id", h.Tasks.GetByID)
		authorized.PATCH("/tasks/:id", h.Tasks.Update)
		authorized.DELETE("/tasks/:id", h.Tasks.Delete)

		// Calendar routes
		authorized.GET("/calendar/events", h.Calendar.Events)
		authorized.GET("/calendar/colors", h.Calendar.Colors)
		authorized.POST("/calendar/slots", h.Calendar.CreateInSlot)
		authorized.POST("/calendar/events/:id/move", h.Calendar.Move)
		authorized.POST("/calendar/events/:id/cycle", h.Calendar.Cycle)
		authorized.POST("/calendar/events/:id/all-day", h.Calendar.AllDay)
		authorized.POST("/calendar/events/:id/schedule-now", h.Calendar.ScheduleNow)
		authorized.POST("/calendar/events/:id/color", h.Calendar.SetColor)
		authorized.POST("/calendar/events/:id/backup", h.Calendar.ToggleBackup)

		// Contact routes
		authorized.GET("/contacts", h.Contacts.List)
		authorized.GET("/contacts/map", h.Contacts.Map)
		authorized.GET("/contacts/shared", h.Contacts.Shared)
		authorized.POST("/contacts", h.Contacts.Create)
		authorized.GET("/contacts/:id", h.Contacts.GetByID)
		authorized.PATCH("/contacts/:id", h.Contacts.Update)
		authorized.DELETE("/contacts/:id", h.Contacts.Delete)

		// Lesson and note routes
		authorized.GET("/lessons", h.Lessons.ListLessons)
		authorized.POST("/lessons", h.Lessons.CreateLesson)
		authorized.PATCH("/lessons/:id", h.Lessons.UpdateLesson)
		authorized.DELETE("/lessons/:id", h.Lessons.DeleteLesson)
		authorized.GET("/notes", h.Lessons.ListNotes)
		authorized.POST("/notes", h.Lessons.CreateNote)
		authorized.PATCH("/notes/:id", h.Lessons.UpdateNote)
		authorized.DELETE("/notes/:id", h.Lessons.DeleteNote)

		// Goal routes
		authorized.GET("/goals", h.Goals.List)
		authorized.POST("/goals", h.Goals.Create)
		authorized.PATCH("/goals/:id", h.Goals.Update)
		authorized.DELETE("/goals/:id", h.Goals.Delete)

		// Sharing routes
		authorized.GET("/invites", h.Invites.List)
		authorized.POST("/invites", h.Invites.Create)
		authorized.GET("/invites/incoming", h.Invites.Incoming)
		authorized.DELETE("/invites/:id", h.Invites.Revoke)
		authorized.GET("/invites/:owner/:id", h.Invites.Details)
		authorized.POST("/invites/:owner/:id/accept", h.Invites.Accept)
		authorized.POST("/invites/:owner/:id/decline", h.Invites.Decline)

		// Export routes
		authorized.GET("/export", h.Export.JSON)
		authorized.GET("/export/tasks.csv", h.Export.TasksCSV)
	}
	return r
}

// Run serves until SIGINT or SIGTERM, then drains connections.
func (s *Server) Run() error {
	srv := &http.Server{
		Addr:              ":" + s.Config.ServerPort,
		Handler:           s.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.Hub.Start()
	defer s.Hub.Stop()

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("port", s.Config.ServerPort).Info("server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("failed to listen: %w", err)
	case <-quit:
	}
	s.log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	if sqlDB, err := s.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
	s.log.Info("server exited properly")
	return nil
}
