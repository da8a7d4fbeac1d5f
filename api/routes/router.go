package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/damilareakin/artmarket-backend/api/controllers"
	"github.com/damilareakin/artmarket-backend/api/middleware"
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
	"github.com/damilareakin/artmarket-backend/pkg/logger"
	"github.com/damilareakin/artmarket-backend/pkg/redis"
)

// Services bundles everything the router mounts.
type Services struct {
	Auth          auth.Service
	Users         users.Service
	Profiles      profiles.Service
	Artworks      artworks.Service
	Albums        albums.Service
	Stories       stories.Service
	Podcasts      podcasts.Service
	Reviews       reviews.Service
	Likes         likes.Service
	Adverts       adverts.Service
	Referrals     referrals.Service
	Media         media.Service
	Notifications notifications.Service
	Orders        orders.Service
	Payments      payments.Service
	Shipments     shipments.Service
}

// NewRouter wires every endpoint behind the shared middleware chain.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	redisClient *redis.Client,
	sessions session.AccessSessionChecker,
	pingers map[string]controllers.Pinger,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, pingers))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(registerPolicy, redisClient, logg)).Post("/register", controllers.Register(svcs.Auth, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/verify-otp", controllers.VerifyOTP(svcs.Auth, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, redisClient, logg)).Post("/resend-otp", controllers.ResendOTP(svcs.Auth, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.Login(svcs.Auth, logg))
		r.Post("/refresh", controllers.Refresh(svcs.Auth, logg))
		r.Post("/logout", controllers.Logout(svcs.Auth, cfg.JWT, logg))
	})

	// Public catalog reads.
	r.Route("/api/v1/public", func(r chi.Router) {
		r.Get("/artworks", controllers.SearchArtworks(svcs.Artworks, logg))
		r.Get("/artworks/{artworkId}", controllers.GetArtwork(svcs.Artworks, logg))
		r.Get("/artworks/{artworkId}/reviews", controllers.ListArtworkReviews(svcs.Reviews, logg))
		r.Get("/artists", controllers.ListArtists(svcs.Profiles, logg))
		r.Get("/profiles/{profileId}", controllers.GetProfile(svcs.Profiles, logg))
		r.Get("/profiles/{profileId}/albums", controllers.ListProfileAlbums(svcs.Albums, logg))
		r.Get("/albums/{albumId}", controllers.GetAlbum(svcs.Albums, logg))
		r.Get("/stories", controllers.ListPublishedStories(svcs.Stories, logg))
		r.Get("/stories/{storyId}", controllers.GetStory(svcs.Stories, logg))
		r.Get("/podcasts", controllers.ListPodcasts(svcs.Podcasts, logg))
		r.Get("/podcasts/{podcastId}", controllers.GetPodcast(svcs.Podcasts, logg))
		r.Get("/adverts", controllers.ListActiveAdverts(svcs.Adverts, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessions, logg))

		r.Route("/users", func(r chi.Router) {
			r.Get("/{userId}", controllers.GetUser(svcs.Users, logg))
			r.Patch("/{userId}", controllers.UpdateUser(svcs.Users, logg))
			r.Delete("/{userId}", controllers.DeactivateUser(svcs.Users, logg))
		})

		r.Route("/profiles", func(r chi.Router) {
			r.Patch("/me", controllers.UpdateMyProfile(svcs.Profiles, logg))
			r.Post("/me/become-artist", controllers.BecomeArtist(svcs.Profiles, logg))
		})

		r.Route("/artworks", func(r chi.Router) {
			r.Post("/", controllers.CreateArtwork(svcs.Artworks, logg))
			r.Patch("/{artworkId}", controllers.UpdateArtwork(svcs.Artworks, logg))
			r.Patch("/{artworkId}/stock", controllers.AdjustArtworkStock(svcs.Artworks, logg))
			r.Delete("/{artworkId}", controllers.DeactivateArtwork(svcs.Artworks, logg))
			r.Post("/{artworkId}/like", controllers.LikeArtwork(svcs.Likes, logg))
			r.Delete("/{artworkId}/like", controllers.UnlikeArtwork(svcs.Likes, logg))
		})
		r.Get("/likes", controllers.ListMyLikes(svcs.Likes, logg))

		r.Route("/albums", func(r chi.Router) {
			r.Post("/", controllers.CreateAlbum(svcs.Albums, logg))
			r.Patch("/{albumId}", controllers.UpdateAlbum(svcs.Albums, logg))
			r.Delete("/{albumId}", controllers.DeleteAlbum(svcs.Albums, logg))
			r.Post("/{albumId}/children", controllers.AddAlbumChild(svcs.Albums, logg))
			r.Delete("/children/{childId}", controllers.RemoveAlbumChild(svcs.Albums, logg))
			r.Patch("/children/{childId}/position", controllers.ReorderAlbumChild(svcs.Albums, logg))
		})

		r.Route("/stories", func(r chi.Router) {
			r.Post("/", controllers.CreateStory(svcs.Stories, logg))
			r.Get("/mine", controllers.ListMyStories(svcs.Stories, logg))
			r.Patch("/{storyId}", controllers.UpdateStory(svcs.Stories, logg))
			r.Post("/{storyId}/publish", controllers.PublishStory(svcs.Stories, logg))
			r.Delete("/{storyId}", controllers.DeleteStory(svcs.Stories, logg))
		})

		r.Route("/podcasts", func(r chi.Router) {
			r.Post("/", controllers.CreatePodcast(svcs.Podcasts, logg))
			r.Patch("/{podcastId}", controllers.UpdatePodcast(svcs.Podcasts, logg))
			r.Delete("/{podcastId}", controllers.DeletePodcast(svcs.Podcasts, logg))
		})

		r.Route("/reviews", func(r chi.Router) {
			r.Post("/", controllers.CreateReview(svcs.Reviews, logg))
			r.Patch("/{reviewId}", controllers.UpdateReview(svcs.Reviews, logg))
			r.Delete("/{reviewId}", controllers.DeleteReview(svcs.Reviews, logg))
		})

		r.Route("/referrals", func(r chi.Router) {
			r.Get("/me", controllers.MyReferralCode(svcs.Referrals, logg))
			r.Get("/lookup", controllers.LookupReferral(svcs.Referrals, logg))
		})

		r.Route("/media", func(r chi.Router) {
			r.Post("/presign", controllers.PresignMediaUpload(svcs.Media, logg))
			r.Get("/download", controllers.PresignMediaDownload(svcs.Media, logg))
			r.Delete("/", controllers.DeleteMedia(svcs.Media, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(svcs.Notifications, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(svcs.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(svcs.Notifications, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.CreateOrder(svcs.Orders, logg))
			r.Get("/", controllers.ListOrders(svcs.Orders, logg))
			r.Get("/{orderId}", controllers.OrderDetail(svcs.Orders, logg))
			r.Patch("/remove-order-item/{orderItemId}", controllers.RemoveOrderItem(svcs.Orders, logg))
			r.Patch("/checkout/{orderId}", controllers.CheckoutOrder(svcs.Orders, logg))
			r.Patch("/cancel/{orderId}", controllers.CancelOrder(svcs.Orders, logg))
			r.Delete("/{orderId}", controllers.DeleteOrder(svcs.Orders, logg))
			r.Get("/{orderId}/payments", controllers.ListOrderPayments(svcs.Payments, logg))
			r.Get("/{orderId}/shipment", controllers.ShipmentDetails(svcs.Shipments, logg))
		})

		r.Route("/payments", func(r chi.Router) {
			r.Post("/", controllers.InitPayment(svcs.Payments, logg))
			r.Get("/verify", controllers.VerifyPayment(svcs.Payments, logg))
		})

		r.Get("/shipments/track", controllers.TrackShipment(svcs.Shipments, logg))

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, "admin"))
			r.Get("/orders", controllers.AdminListOrders(svcs.Orders, logg))
			r.Patch("/orders/{orderId}/status", controllers.AdminChangeOrderStatus(svcs.Orders, logg))
			r.Post("/orders/{orderId}/ship", controllers.ShipOrder(svcs.Shipments, logg))
			r.Route("/adverts", func(r chi.Router) {
				r.Get("/", controllers.ListAllAdverts(svcs.Adverts, logg))
				r.Post("/", controllers.CreateAdvert(svcs.Adverts, logg))
				r.Patch("/{advertId}/deactivate", controllers.DeactivateAdvert(svcs.Adverts, logg))
				r.Delete("/{advertId}", controllers.DeleteAdvert(svcs.Adverts, logg))
			})
		})
	})

	return r
}
