package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"mutual-giveaway-backend/internal/bot"
	"mutual-giveaway-backend/internal/common/config"
	"mutual-giveaway-backend/internal/common/logger"
	"mutual-giveaway-backend/internal/common/middleware"
	giveawayhttp "mutual-giveaway-backend/internal/features/giveaway/delivery/http"
	giveawayredis "mutual-giveaway-backend/internal/features/giveaway/repository/redis"
	giveawayservice "mutual-giveaway-backend/internal/features/giveaway/service"
	invitehttp "mutual-giveaway-backend/internal/features/invite/delivery/http"
	inviteredis "mutual-giveaway-backend/internal/features/invite/repository/redis"
	inviteservice "mutual-giveaway-backend/internal/features/invite/service"
	"mutual-giveaway-backend/internal/features/report"
	"mutual-giveaway-backend/internal/platform/discord"
	"mutual-giveaway-backend/internal/platform/redis"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init("mutual-giveaway-backend", cfg.Debug)
	logger.Info().Bool("debug", cfg.Debug).Msg("Starting mutual giveaway backend")

	ctx := context.Background()

	redisClient, err := redis.Open(ctx, cfg.RedisAddr(), cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisClient.Close()
	logger.Info().Str("addr", cfg.RedisAddr()).Msg("Redis connection established")

	giveawayRepository := giveawayredis.NewGiveawayRepository(redisClient)
	ledgerRepository := giveawayredis.NewPingLedgerRepository(redisClient)
	inviteRepository := inviteredis.NewInviteRepository(redisClient)

	discordClient, err := discord.New(cfg.Discord.Token, cfg.Discord.GuildID, cfg.Discord.StaffRoleIDs)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create Discord client")
	}

	poster := giveawayservice.NewPoster(
		giveawayRepository,
		ledgerRepository,
		discordClient,
		discordClient,
		cfg.Discord.GiveawayChannelID,
		cfg.Discord.MutualRoleID,
	)
	scheduler := giveawayservice.NewScheduler(
		giveawayRepository,
		ledgerRepository,
		poster,
		discordClient,
		cfg.MinLead(),
		cfg.SweepInterval(),
	)
	giveawaySvc := giveawayservice.NewGiveawayService(
		giveawayRepository,
		ledgerRepository,
		scheduler,
		discordClient,
		discordClient,
		cfg.Discord.ManagementChannelID,
	)
	inviteSvc := inviteservice.NewInviteService(inviteRepository)

	reportWorker := report.NewWorker(
		inviteSvc,
		giveawayRepository,
		discordClient,
		discordClient,
		cfg.Discord.StaffReportChannelID,
		cfg.Quota.WeeklyMinimum,
		cfg.Quota.InvitePayRate,
	)

	discordBot := bot.New(discordClient, giveawaySvc, inviteSvc, reportWorker, cfg.Discord.GuildID)
	discordBot.Setup()

	if err := discordClient.Open(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to open Discord session")
	}
	defer discordClient.Close()

	if err := discordBot.RegisterCommands(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to register slash commands")
	}

	scheduler.Start()
	defer scheduler.Stop()
	reportWorker.Start()
	defer reportWorker.Stop()

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Server.Origin}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Authorization", "Accept"}
	router.Use(cors.New(corsConfig))

	v1 := router.Group("/api/v1")
	giveawayhttp.NewHandler(giveawaySvc).RegisterRoutes(v1)
	invitehttp.NewHandler(inviteSvc).RegisterRoutes(v1)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited")
}
