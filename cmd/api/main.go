package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/damilareakin/artmarket-backend/api/controllers"
	"github.com/damilareakin/artmarket-backend/api/routes"
	"github.com/damilareakin/artmarket-backend/internal/adverts"
	"github.com/damilareakin/artmarket-backend/internal/albums"
	"github.com/damilareakin/artmarket-backend/internal/artworks"
	"github.com/damilareakin/artmarket-backend/internal/auth"
	"github.com/damilareakin/artmarket-backend/internal/likes"
	"github.com/damilareakin/artmarket-backend/internal/media"
	"github.com/damilareakin/artmarket-backend/internal/notifications"
	"github.com/damilareakin/artmarket-backend/internal/orders"
	"github.com/damilareakin/artmarket-backend/internal/payments"
	"github.com/damilareakin/artmarket-backend/internal/podcasts"
	"github.com/damilareakin/artmarket-backend/internal/profiles"
	"github.com/damilareakin/artmarket-backend/internal/referrals"
	"github.com/damilareakin/artmarket-backend/internal/reviews"
	"github.com/damilareakin/artmarket-backend/internal/shipments"
	"github.com/damilareakin/artmarket-backend/internal/stories"
	"github.com/damilareakin/artmarket-backend/internal/users"
	"github.com/damilareakin/artmarket-backend/pkg/auth/session"
	"github.com/damilareakin/artmarket-backend/pkg/config"
	"github.com/damilareakin/artmarket-backend/pkg/db"
	"github.com/damilareakin/artmarket-backend/pkg/logger"
	"github.com/damilareakin/artmarket-backend/pkg/mailer"
	"github.com/damilareakin/artmarket-backend/pkg/migrate"
	"github.com/damilareakin/artmarket-backend/pkg/outbox"
	"github.com/damilareakin/artmarket-backend/pkg/paystack"
	"github.com/damilareakin/artmarket-backend/pkg/redis"
	"github.com/damilareakin/artmarket-backend/pkg/shipping"
	"github.com/damilareakin/artmarket-backend/pkg/storage/gcs"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessions, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	gcsClient, err := gcs.NewClient(context.Background(), cfg.GCS, cfg.GCP, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap cloud storage", err)
		os.Exit(1)
	}

	emailClient, err := mailer.NewEmailClient(
		cfg.Sendgrid.APIKey,
		cfg.Sendgrid.DefaultFrom,
		mailer.WithEmailBaseURL(cfg.Sendgrid.BaseURL),
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create email client", err)
		os.Exit(1)
	}
	smsClient, err := mailer.NewSMSClient(cfg.SMS.APIKey, cfg.SMS.BaseURL, cfg.SMS.Sender)
	if err != nil {
		logg.Error(context.Background(), "failed to create sms client", err)
		os.Exit(1)
	}

	paystackClient, err := paystack.NewClient(cfg.Paystack.SecretKey, paystack.WithBaseURL(cfg.Paystack.BaseURL))
	if err != nil {
		logg.Error(context.Background(), "failed to create paystack client", err)
		os.Exit(1)
	}
	shippingClient, err := shipping.NewClient(
		cfg.Shipping.APIKey,
		cfg.Shipping.BaseURL,
		shipping.WithOrigin(shipping.Origin{
			City:    cfg.Shipping.OriginCity,
			Country: cfg.Shipping.OriginCountry,
			Zip:     cfg.Shipping.OriginZip,
		}),
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create shipping client", err)
		os.Exit(1)
	}

	gdb := dbClient.DB()
	outboxSvc := outbox.NewService(outbox.NewRepository(gdb), logg)

	authService, err := auth.NewService(
		auth.NewRepository(gdb), dbClient, sessions,
		emailClient, smsClient, cfg.JWT, cfg.Password, logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}
	usersService, err := users.NewService(users.NewRepository(gdb))
	if err != nil {
		logg.Error(context.Background(), "failed to create users service", err)
		os.Exit(1)
	}
	profilesService, err := profiles.NewService(profiles.NewRepository(gdb))
	if err != nil {
		logg.Error(context.Background(), "failed to create profiles service", err)
		os.Exit(1)
	}
	artworksService, err := artworks.NewService(artworks.NewRepository(gdb), dbClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create artworks service", err)
		os.Exit(1)
	}
	albumsService, err := albums.NewService(albums.NewRepository(gdb), dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create albums service", err)
		os.Exit(1)
	}
	storiesService, err := stories.NewService(stories.NewRepository(gdb))
	if err != nil {
		logg.Error(context.Background(), "failed to create stories service", err)
		os.Exit(1)
	}
	podcastsService, err := podcasts.NewService(podcasts.NewRepository(gdb))
	if err != nil {
		logg.Error(context.Background(), "failed to create podcasts service", err)
		os.Exit(1)
	}
	reviewsService, err := reviews.NewService(reviews.NewRepository(gdb), dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create reviews service", err)
		os.Exit(1)
	}
	likesService, err := likes.NewService(likes.NewRepository(gdb), dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create likes service", err)
		os.Exit(1)
	}
	advertsService, err := adverts.NewService(adverts.NewRepository(gdb))
	if err != nil {
		logg.Error(context.Background(), "failed to create adverts service", err)
		os.Exit(1)
	}
	referralsService, err := referrals.NewService(referrals.NewRepository(gdb), outboxSvc, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create referrals service", err)
		os.Exit(1)
	}
	mediaService, err := media.NewService(gcsClient, media.Options{
		Bucket:        cfg.GCS.BucketName,
		MaxUploadMB:   cfg.Media.MaxUploadMB,
		UploadTTL:     cfg.GCS.UploadURLExpiry,
		DownloadTTL:   cfg.GCS.DownloadURLExpiry,
		GCSAccessMode: cfg.FeatureFlags.GCSAccessMode,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create media service", err)
		os.Exit(1)
	}
	notificationsService, err := notifications.NewService(notifications.NewRepository(gdb))
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}
	ordersService, err := orders.NewService(
		orders.NewRepository(gdb), dbClient, outboxSvc,
		shippingClient, referralsService,
		orders.NewInventoryReserver(), orders.NewInventoryReleaser(), logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}
	paymentsService, err := payments.NewService(
		payments.NewRepository(gdb), dbClient, outboxSvc,
		paystackClient, cfg.Paystack.CallbackURL, logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create payments service", err)
		os.Exit(1)
	}
	shipmentsService, err := shipments.NewService(
		shipments.NewRepository(gdb), dbClient, outboxSvc,
		shippingClient, shipments.NewInventoryConsumer(), logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create shipments service", err)
		os.Exit(1)
	}

	router := routes.NewRouter(
		cfg, logg, redisClient, sessions,
		map[string]controllers.Pinger{
			"postgres": dbClient,
			"redis":    redisClient,
			"gcs":      gcsClient,
		},
		routes.Services{
			Auth:          authService,
			Users:         usersService,
			Profiles:      profilesService,
			Artworks:      artworksService,
			Albums:        albumsService,
			Stories:       storiesService,
			Podcasts:      podcastsService,
			Reviews:       reviewsService,
			Likes:         likesService,
			Adverts:       advertsService,
			Referrals:     referralsService,
			Media:         mediaService,
			Notifications: notificationsService,
			Orders:        ordersService,
			Payments:      paymentsService,
			Shipments:     shipmentsService,
		},
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case sig := <-stop:
		logg.Info(logg.WithField(ctx, "signal", sig.String()), "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
			os.Exit(1)
		}
	}
}
