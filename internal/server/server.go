package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/ShameelMohamed/FASHN8/config"
	"github.com/ShameelMohamed/FASHN8/internal/db"
	"github.com/ShameelMohamed/FASHN8/internal/gradio"
	"github.com/ShameelMohamed/FASHN8/internal/handlers"
	"github.com/ShameelMohamed/FASHN8/internal/llm"
	"github.com/ShameelMohamed/FASHN8/internal/logging"
	"github.com/ShameelMohamed/FASHN8/internal/mq"
	"github.com/ShameelMohamed/FASHN8/internal/services"
	"github.com/ShameelMohamed/FASHN8/internal/storage"
	"github.com/ShameelMohamed/FASHN8/internal/store"
	"github.com/ShameelMohamed/FASHN8/internal/tryon"
	"github.com/ShameelMohamed/FASHN8/internal/vision"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	log        logging.Logger
	closers    []func() error
}

// Deps are the collaborators the routes are built on.
type Deps struct {
	Users      services.UserRepository
	Media      services.MediaStore
	Events     services.EventPublisher
	Detector   vision.Detector
	Remover    vision.BackgroundRemover
	Captioner  vision.Captioner
	Generator  llm.Generator
	Compositor tryon.Compositor
}

// New connects every configured backend and constructs a Server.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	log := logging.New(cfg.Log, os.Stdout)

	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	s := &Server{log: log}
	deps, err := s.connect(ctx, cfg)
	if err != nil {
		_ = s.Shutdown()
		return nil, err
	}

	s.router = NewRouter(cfg, deps, log)

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

func (s *Server) connect(ctx context.Context, cfg config.Config) (Deps, error) {
	var deps Deps

	switch cfg.DBDriver {
	case config.DBDriverPostgres:
		conn, err := db.Open(ctx, cfg)
		if err != nil {
			return deps, fmt.Errorf("open postgres: %w", err)
		}
		s.closers = append(s.closers, conn.Close)
		deps.Users = store.NewUserRepository(conn)
	case config.DBDriverMongo:
		client, database, err := db.OpenMongo(ctx, cfg.Mongo)
		if err != nil {
			return deps, err
		}
		s.closers = append(s.closers, func() error { return client.Disconnect(context.Background()) })
		users, err := store.NewMongoUserRepository(ctx, database)
		if err != nil {
			return deps, err
		}
		deps.Users = users
	default:
		return deps, fmt.Errorf("unknown db driver %q", cfg.DBDriver)
	}

	media, err := storage.Open(ctx, cfg)
	if err != nil {
		return deps, err
	}
	deps.Media = media

	queue, err := mq.Open(ctx, cfg)
	if err != nil {
		return deps, err
	}
	if queue != nil {
		s.closers = append(s.closers, queue.Close)
		deps.Events = queue
	}

	detector, err := vision.NewClarifaiClient(cfg.Vision)
	if err != nil {
		return deps, err
	}
	remover, err := vision.NewRembgClient(cfg.Vision)
	if err != nil {
		return deps, err
	}
	generator, err := llm.NewGeminiClient(cfg.Gemini)
	if err != nil {
		return deps, err
	}

	deps.Detector = detector
	deps.Remover = remover
	deps.Generator = generator
	deps.Captioner = vision.NewGradioCaptioner(gradio.New(cfg.Gradio.CaptionSpaceURL, cfg.Gradio.Token, cfg.Gradio.Timeout))
	deps.Compositor = tryon.NewGradioCompositor(gradio.New(cfg.Gradio.TryOnSpaceURL, cfg.Gradio.Token, cfg.Gradio.Timeout))

	s.log.Info(ctx, "backends connected",
		"db", cfg.DBDriver,
		"storage", cfg.Media.Backend,
		"mq", cfg.MQBackend,
	)
	return deps, nil
}

// NewRouter builds the services over deps and registers every route.
func NewRouter(cfg config.Config, deps Deps, log logging.Logger) *chi.Mux {
	userService := services.NewUserService(deps.Users)
	wardrobeService := services.NewWardrobeService(
		deps.Users, deps.Detector, deps.Remover, deps.Media, deps.Events, cfg.Media.Folder, log,
	)
	matchService := services.NewMatchService(deps.Users, deps.Generator, cfg.Match.SessionTTL, log)
	shopService := services.NewShopService(deps.Detector, deps.Remover, deps.Captioner, deps.Generator, log)
	tryOnService := services.NewTryOnService(deps.Compositor, log)

	authMiddleware := handlers.RequireAuth(cfg.JWTSecret)
	limiter := handlers.NewRateLimiter(cfg.RateLimit)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(3*time.Minute),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Route("/auth", func(r chi.Router) {
		handlers.AuthRouter(r, userService, cfg.JWTSecret, log)
	})
	router.Route("/wardrobe", func(r chi.Router) {
		handlers.WardrobeRouter(r, wardrobeService, log, authMiddleware, limiter)
	})
	router.Route("/match/sessions", func(r chi.Router) {
		handlers.MatchRouter(r, matchService, log, authMiddleware, limiter)
	})
	router.Route("/tryon", func(r chi.Router) {
		handlers.TryOnRouter(r, tryOnService, log, authMiddleware, limiter)
	})
	router.Route("/shop", func(r chi.Router) {
		handlers.ShopRouter(r, shopService, log, authMiddleware, limiter)
	})
	return router
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	s.log.Info(context.Background(), "listening", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown stops accepting requests and closes every backend.
func (s *Server) Shutdown() error {
	var errs []error
	if s.httpServer != nil {
		errs = append(errs, s.httpServer.Close())
	}
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i]())
	}
	return errors.Join(errs...)
}
