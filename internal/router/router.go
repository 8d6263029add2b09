package router

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/hiimjupter/ris-api/internal/config"
	"github.com/hiimjupter/ris-api/internal/database"
	"github.com/hiimjupter/ris-api/internal/events"
	"github.com/hiimjupter/ris-api/internal/handler"
	"github.com/hiimjupter/ris-api/internal/metrics"
	mw "github.com/hiimjupter/ris-api/internal/middleware"
	"github.com/hiimjupter/ris-api/internal/service"
	"github.com/hiimjupter/ris-api/internal/ws"
	"github.com/jackc/pgx/v5/pgxpool"
)

// New creates a Chi router with all application routes wired up.
// Every route except health, metrics, login, refresh and the websocket runs
// behind token authentication and principal loading; role checks happen in
// the services.
func New(cfg *config.Config, pool *pgxpool.Pool, hub *ws.Hub, collector *metrics.Collector, publisher events.Publisher) chi.Router {
	queries := database.New(pool)
	opts := service.Options{
		QueryTimeout:    cfg.QueryTimeout,
		Events:          publisher,
		ServeForceReady: cfg.ServeForceReady,
		WalkInSeating:   cfg.WalkInSeating,
	}

	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(collector.Middleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Retry-After"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", collector.Handler())

	authHandler := handler.NewAuthHandler(queries, cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	authHandler.RegisterRoutes(r)

	// WebSocket route (handles auth internally via query param)
	r.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, cfg.JWTSecret, w, r)
	})

	tableService := service.NewTableService(pool, func(db database.DBTX) service.TableStore {
		return database.New(db)
	}, opts)
	orderService := service.NewOrderService(pool, func(db database.DBTX) service.OrderStore {
		return database.New(db)
	}, opts)
	dishService := service.NewDishService(pool, func(db database.DBTX) service.DishStore {
		return database.New(db)
	}, opts)
	menuService := service.NewMenuService(pool, func(db database.DBTX) service.MenuStore {
		return database.New(db)
	}, opts)

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))
		r.Use(mw.LoadPrincipal(queries))

		r.Get("/me", authHandler.Me)

		tableHandler := handler.NewTableHandler(tableService, orderService)
		r.Route("/tables", tableHandler.RegisterRoutes)

		orderHandler := handler.NewOrderHandler(orderService)
		r.Route("/orders", orderHandler.RegisterRoutes)

		kitchenHandler := handler.NewKitchenHandler(dishService)
		kitchenHandler.RegisterRoutes(r)

		menuHandler := handler.NewMenuHandler(menuService)
		r.Route("/menu", menuHandler.RegisterRoutes)
	})

	log.Println("Router initialized with all handlers")
	return r
}
