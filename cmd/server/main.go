package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/AnshRaj112/gather-web/internal/backend"
	"github.com/AnshRaj112/gather-web/internal/config"
	"github.com/AnshRaj112/gather-web/internal/database"
	"github.com/AnshRaj112/gather-web/internal/handlers"
	"github.com/AnshRaj112/gather-web/internal/identity"
	"github.com/AnshRaj112/gather-web/internal/middleware"
	"github.com/AnshRaj112/gather-web/internal/routes"
	"github.com/AnshRaj112/gather-web/internal/services"
	"github.com/AnshRaj112/gather-web/internal/session"
	"github.com/AnshRaj112/gather-web/internal/telemetry"
	"github.com/AnshRaj112/gather-web/internal/views"
	"github.com/AnshRaj112/gather-web/pkg/utils"
)

func main() {
	// Load env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Invalid configuration: ", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, "gather-web", cfg.OTelEndpoint)
	if err != nil {
		log.Printf("⚠️  WARNING: tracing disabled: %v", err)
	} else if cfg.OTelEndpoint != "" {
		log.Println("✅ Tracing enabled")
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(flushCtx)
	}()

	// Identity tokens are sealed at rest; without a key they survive only this process.
	var sealer *utils.Sealer
	if cfg.EncryptionKey == "" {
		log.Println("⚠️  WARNING: ENCRYPTION_KEY not set. Sessions will not survive a restart.")
		log.Println("   To generate a key, run: openssl rand -base64 32")
		sealer, err = utils.NewEphemeralSealer()
	} else {
		sealer, err = utils.NewSealer(cfg.EncryptionKey)
		if err == nil {
			log.Println("✅ Encryption key configured")
		}
	}
	if err != nil {
		log.Fatal("ENCRYPTION_KEY is invalid (must be base64-encoded 32 bytes): ", err)
	}

	// Connect to Redis
	log.Printf("Connecting to Redis...")
	rdb, err := database.ConnectRedis(cfg.RedisURI)
	if err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer database.DisconnectRedis(rdb)

	provider, err := identity.NewProvider(identity.Config{
		AuthURL:      cfg.IdentityProviderAuthURL(),
		TokenURL:     cfg.IdentityProviderTokenURL(),
		LogoutURL:    cfg.IDPLogoutURL,
		RedirectURL:  cfg.CallbackURL(),
		ClientID:     cfg.IDPClientID,
		ClientSecret: cfg.IDPClientSecret,
		Scopes:       cfg.IDPScopes,
		TokenSecret:  cfg.IDPTokenSecret,
	})
	if err != nil {
		log.Fatal("Failed to configure identity provider: ", err)
	}
	log.Printf("✅ Identity provider: %s", cfg.IdentityProviderAuthURL())

	factory := backend.NewFactory(cfg.BackendURL, cfg.BackendTimeout)
	store := session.NewStore(rdb, sealer)
	boot := session.NewBootstrapper(provider, factory)
	boot.HomeURL = cfg.Host

	hub := services.NewEventHub(rdb)
	hub.Start(ctx)

	resolver := session.NewResolver(store, boot, hub, cfg.BackendTimeout)
	gatherings := services.NewGatheringService(services.NewCacheService(rdb, cfg.GatheringCacheTTL))

	// Initialize Cloudinary service
	var pictures services.PictureUploader
	if cfg.CloudinaryEnabled() {
		cld, err := services.NewCloudinaryService(cfg.CloudinaryName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
		if err != nil {
			log.Printf("Warning: Failed to initialize Cloudinary: %v", err)
			log.Println("Picture uploads will not be available")
		} else {
			pictures = cld
			log.Println("✅ Cloudinary service initialized")
		}
	} else {
		log.Println("Warning: Cloudinary credentials not found. Picture uploads will not be available")
	}

	renderer, err := views.New()
	if err != nil {
		log.Fatal("Failed to parse templates: ", err)
	}

	h := handlers.New(handlers.Deps{
		Config:     cfg,
		Store:      store,
		Boot:       boot,
		Resolver:   resolver,
		Hub:        hub,
		Gatherings: gatherings,
		Rsvps:      services.NewRsvpService(boot, gatherings),
		Profiles:   services.NewProfileService(),
		Pictures:   pictures,
		Views:      renderer,
	})

	// Setup router
	r := chi.NewRouter()
	r.Use(telemetry.Middleware)
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	// Production: SecurityHeaders → HostCheck → GlobalRateLimit → LoginRateLimit
	// Non-production: Redis-based rate limit only
	if cfg.IsProduction() {
		for _, mw := range middleware.ProductionSecurity(cfg.AllowedHost) {
			r.Use(mw)
		}
		log.Println("✅ Production security enabled (security headers, host check, per-IP + login rate limiting)")
	} else {
		r.Use(middleware.NewRedisRateLimit(rdb).Middleware)
	}

	routes.SetupRoutes(r, h)

	log.Println("📋 Registered routes:")
	for _, route := range routes.Routes {
		log.Println("  " + route)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("🚀 Gather web running on :%s", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("Failed to start server:", err)
	}
}
