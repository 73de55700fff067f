package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/jessevdk/go-flags"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/cors"

	"nrgbot/clients"
	discordclient "nrgbot/clients/discord"
	slackclient "nrgbot/clients/slack"
	"nrgbot/config"
	"nrgbot/db"
	"nrgbot/handlers"
	"nrgbot/metrics"
	"nrgbot/middleware"
	"nrgbot/models"
	"nrgbot/services/commands"
	"nrgbot/services/rolesync"
	"nrgbot/services/tagsync"
	"nrgbot/services/txmanager"
	"nrgbot/usecases/bot"
)

type Options struct {
	SyncOnce   bool   `long:"sync-once" description:"Run one role sync and one tag sync pass, then exit"`
	DeployOnly bool   `long:"deploy-only" description:"Deploy slash commands to every enabled platform, then exit"`
	Port       string `long:"port" description:"HTTP port for health, stats and metrics (overrides PORT)"`
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := run(opts); err != nil {
		log.Printf("❌ Fatal error: %v", err)
		os.Exit(1)
	}
}

func run(opts Options) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	if opts.Port != "" {
		cfg.Port = opts.Port
	}

	// Initialize error alert middleware
	alertMiddleware := middleware.NewErrorAlertMiddleware(middleware.SlackAlertConfig{
		WebhookURL:  cfg.SlackConfig.AlertWebhookURL,
		Environment: cfg.Environment,
		AppName:     "nrgbot",
	})
	defer alertMiddleware.Wait()

	// Initialize database connection
	dbConn, err := db.NewConnection(context.Background(), db.ConnectionConfig{
		URL:          cfg.DatabaseURL,
		Schema:       cfg.DatabaseSchema,
		MaxOpenConns: cfg.RoleSyncConcurrency + 4,
	})
	if err != nil {
		return err
	}
	defer dbConn.Close()

	// Initialize repositories with shared connection
	profilesRepo := db.NewPostgresProfilesRepository(dbConn, cfg.DatabaseSchema)
	tagsRepo := db.NewPostgresTagsRepository(dbConn, cfg.DatabaseSchema)
	userTagsRepo := db.NewPostgresUserTagsRepository(dbConn, cfg.DatabaseSchema)
	hacksRepo := db.NewPostgresHacksRepository(dbConn, cfg.DatabaseSchema)

	txManager := txmanager.NewTransactionManager(dbConn)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	appMetrics := metrics.NewMetrics(registry)

	platforms, discordClient, err := buildPlatforms(cfg)
	if err != nil {
		return err
	}
	if len(platforms) == 0 {
		log.Printf("⚠️ No chat platform is enabled and configured - only the HTTP surface will run")
	}

	var roleSyncService *rolesync.RoleSyncService
	var tagSyncService *tagsync.TagSyncService
	if discordClient != nil {
		roleSyncService = rolesync.NewRoleSyncService(
			discordClient,
			profilesRepo,
			appMetrics,
			cfg.RoleSyncConcurrency,
			alertMiddleware.WrapBackgroundTask,
		)
		tagSyncService = tagsync.NewTagSyncService(
			discordClient,
			discordClient,
			profilesRepo,
			tagsRepo,
			userTagsRepo,
			txManager,
			appMetrics,
			alertMiddleware.WrapBackgroundTask,
		)
	}

	botCommands := []commands.Command{
		bot.NewHacksCommand(hacksRepo, cfg.WebAppURL),
		bot.NewCategoriesCommand(hacksRepo, cfg.WebAppURL),
	}
	if roleSyncService != nil {
		botCommands = append(botCommands, bot.NewRolesCommand(profilesRepo, roleSyncService, tagSyncService, cfg.WebAppURL))
	}

	commandManager := commands.NewCommandManager(appMetrics, botCommands...)
	for _, platform := range platforms {
		commandManager.AddPlatform(platform)
	}

	ctx := context.Background()
	if err := commandManager.DeployCommands(ctx); err != nil {
		return err
	}
	if opts.DeployOnly {
		log.Printf("✅ Commands deployed, exiting (--deploy-only)")
		return nil
	}

	startedPlatforms := startPlatforms(ctx, cfg, platforms)
	if startedPlatforms == nil {
		return errors.New("failed to start an enabled platform (USE_STRICT_CONFIG=true)")
	}
	defer stopPlatforms(startedPlatforms)

	if opts.SyncOnce {
		return runSyncOnce(ctx, roleSyncService, tagSyncService)
	}

	syncInterval := time.Duration(cfg.SyncIntervalMinutes) * time.Minute
	if roleSyncService != nil {
		roleSyncService.AttachEventSource(discordClient)
		roleSyncService.OnRolesChanged(middleware.WrapEventHandler(alertMiddleware, "role change",
			func(_ context.Context, event models.RoleChangeEvent) {
				log.Printf("📋 Roles of %s changed from %v to %v", event.DiscordID, event.OldRoles, event.NewRoles)
			}))
		roleSyncService.EnsureManagedRolesInAllGuilds(ctx)
		roleSyncService.StartPeriodicSync(syncInterval)
		defer roleSyncService.StopPeriodicSync()

		if err := tagSyncService.Initialize(ctx, syncInterval); err != nil {
			alertMiddleware.AlertOnError(err, "tag sync initialization")
			log.Printf("❌ %v", err)
		}
		defer tagSyncService.Stop()
	}

	// Create a new router
	router := mux.NewRouter()

	var statsProvider handlers.SyncStatsProvider
	if tagSyncService != nil {
		statsProvider = tagSyncService
	}
	readiness := make([]handlers.ReadinessReporter, 0, len(startedPlatforms))
	for _, platform := range startedPlatforms {
		readiness = append(readiness, platform)
	}
	statusHandler := handlers.NewStatusHTTPHandler(statsProvider, tagsRepo, readiness, appMetrics.Handler())
	statusHandler.SetupEndpoints(router)

	// Setup CORS middleware
	allowedOrigins := strings.Split(cfg.CORSAllowedOrigins, ",")
	for i, origin := range allowedOrigins {
		allowedOrigins[i] = strings.TrimSpace(origin)
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	// Setup and handle graceful shutdown
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           alertMiddleware.HTTPMiddleware(c.Handler(router)),
		ReadHeaderTimeout: 30 * time.Second,
	}

	return handleGracefulShutdown(server)
}

// buildPlatforms constructs the adapters of every enabled and configured
// platform. The Discord client is also returned for role and tag sync.
func buildPlatforms(cfg *config.AppConfig) ([]clients.PlatformClient, *discordclient.DiscordClient, error) {
	var platforms []clients.PlatformClient
	var discordClient *discordclient.DiscordClient

	if cfg.IsPlatformEnabled(models.PlatformDiscord) {
		if missing := cfg.DiscordConfig.MissingKeys(); len(missing) > 0 {
			log.Printf("⚠️ Discord is enabled but not configured (missing %s) - skipping", strings.Join(missing, ", "))
		} else {
			client, err := discordclient.NewDiscordClient(cfg.DiscordConfig)
			if err != nil {
				return nil, nil, err
			}
			discordClient = client
			platforms = append(platforms, client)
		}
	}

	if cfg.IsPlatformEnabled(models.PlatformSlack) {
		if missing := cfg.SlackConfig.MissingKeys(); len(missing) > 0 {
			log.Printf("⚠️ Slack is enabled but not configured (missing %s) - skipping", strings.Join(missing, ", "))
		} else {
			platforms = append(platforms, slackclient.NewSlackClient(cfg.SlackConfig))
		}
	}

	return platforms, discordClient, nil
}

// startPlatforms starts every adapter and returns the ones that came up.
// With strict config a single failure stops the others and returns nil.
func startPlatforms(ctx context.Context, cfg *config.AppConfig, platforms []clients.PlatformClient) []clients.PlatformClient {
	started := make([]clients.PlatformClient, 0, len(platforms))
	for _, platform := range platforms {
		if err := platform.Start(ctx); err != nil {
			log.Printf("❌ Failed to start %s: %v", platform.Platform(), err)
			if cfg.UseStrictConfig {
				stopPlatforms(started)
				return nil
			}
			continue
		}
		log.Printf("✅ %s started", platform.Platform())
		started = append(started, platform)
	}
	return started
}

func stopPlatforms(platforms []clients.PlatformClient) {
	for _, platform := range platforms {
		if err := platform.Stop(); err != nil {
			log.Printf("❌ Failed to stop %s: %v", platform.Platform(), err)
		}
	}
}

func runSyncOnce(ctx context.Context, roleSync *rolesync.RoleSyncService, tagSync *tagsync.TagSyncService) error {
	if roleSync == nil {
		return errors.New("--sync-once needs the discord platform to be enabled and configured")
	}

	result, err := roleSync.SyncAllRoles(ctx)
	if err != nil {
		return fmt.Errorf("role sync failed: %w", err)
	}
	log.Printf("✅ Role sync finished: %d profiles, %d failed", result.Profiles, result.Failed)

	if err := tagSync.SyncAllGuilds(ctx); err != nil {
		return fmt.Errorf("tag sync failed: %w", err)
	}
	log.Printf("✅ Tag sync finished")
	return nil
}

func handleGracefulShutdown(server *http.Server) error {
	// Channel to listen for interrupt signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	// Start server in a goroutine
	go func() {
		log.Printf("✅ Listening on http://localhost%s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("❌ Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	<-stop
	log.Printf("🛑 Shutdown signal received, cleaning up...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("❌ Server shutdown error: %v", err)
		return err
	}

	log.Printf("✅ Server stopped gracefully")
	return nil
}
