package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ecomjrm/ecomjrm-backend/api/controllers"
	"github.com/ecomjrm/ecomjrm-backend/api/middleware"
	"github.com/ecomjrm/ecomjrm-backend/internal/audit"
	"github.com/ecomjrm/ecomjrm-backend/internal/auth"
	"github.com/ecomjrm/ecomjrm-backend/internal/chatarchive"
	"github.com/ecomjrm/ecomjrm-backend/internal/customers"
	"github.com/ecomjrm/ecomjrm-backend/internal/dashboard"
	"github.com/ecomjrm/ecomjrm-backend/internal/discounts"
	"github.com/ecomjrm/ecomjrm-backend/internal/media"
	"github.com/ecomjrm/ecomjrm-backend/internal/orders"
	"github.com/ecomjrm/ecomjrm-backend/internal/products"
	"github.com/ecomjrm/ecomjrm-backend/internal/retention"
	"github.com/ecomjrm/ecomjrm-backend/internal/shipping"
	"github.com/ecomjrm/ecomjrm-backend/internal/telegram"
	"github.com/ecomjrm/ecomjrm-backend/pkg/auth/session"
	"github.com/ecomjrm/ecomjrm-backend/pkg/config"
	"github.com/ecomjrm/ecomjrm-backend/pkg/db"
	"github.com/ecomjrm/ecomjrm-backend/pkg/logger"
	"github.com/ecomjrm/ecomjrm-backend/pkg/redis"
	"github.com/ecomjrm/ecomjrm-backend/pkg/storage/gcs"
)

// RouterParams collects everything the HTTP surface needs. Optional
// dependencies (gcs, media) may be nil; their routes then answer 500.
type RouterParams struct {
	Config         *config.Config
	Logger         *logger.Logger
	DB             db.Pinger
	Redis          *redis.Client
	GCS            gcs.Pinger
	SessionChecker session.AccessSessionChecker

	Auth      auth.Service
	Orders    orders.Service
	Chats     chatarchive.Service
	Retention retention.Service
	Discounts discounts.Service
	Products  products.Service
	Telegram  telegram.Service
	Media     media.Service
	Dashboard dashboard.Service
	Audit     audit.Service
	Shipping  shipping.Service
	Customers customers.Service
}

func NewRouter(p RouterParams) http.Handler {
	cfg := p.Config
	logg := p.Logger

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

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.DB, p.Redis, p.GCS))
	})

	r.Route("/api/admin/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, p.Redis, logg)).Post("/login", controllers.AuthLogin(p.Auth, logg))
		r.Post("/refresh", controllers.AuthRefresh(p.Auth, logg))
		r.With(middleware.Auth(cfg.JWT, p.SessionChecker, logg)).Post("/logout", controllers.AuthLogout(p.Auth, logg))
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, p.SessionChecker, logg))
		r.Use(middleware.RequireAdmin(logg))
		r.Use(middleware.Idempotency(p.Redis, logg))

		r.Get("/dashboard/stats", controllers.AdminDashboardOverview(p.Dashboard, logg))
		r.Get("/audit-logs", controllers.AdminAuditLogList(p.Audit, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.AdminOrdersList(p.Orders, logg))
			r.Get("/stats", controllers.AdminOrderStats(p.Orders, logg))
			r.Get("/{orderId}", controllers.AdminOrderDetail(p.Orders, logg))
			r.Patch("/{orderId}", controllers.AdminOrderUpdate(p.Orders, logg))
			r.Delete("/{orderId}", controllers.AdminOrderDelete(p.Orders, logg))
			r.Post("/{orderId}/fulfill", controllers.AdminOrderFulfill(p.Orders, logg))
		})

		r.Route("/chats", func(r chi.Router) {
			r.Get("/", controllers.AdminChatsList(p.Chats, logg))
			r.Get("/stats", controllers.AdminChatsStats(p.Chats, logg))
			r.Post("/archive", controllers.AdminChatsArchive(p.Chats, logg))
			r.Post("/restore", controllers.AdminChatsRestore(p.Chats, logg))
			r.Post("/purge", controllers.AdminChatsPurge(p.Chats, logg))
		})

		r.Route("/retention", func(r chi.Router) {
			r.Get("/policies", controllers.AdminRetentionPolicies(p.Retention, logg))
			r.Post("/execute", controllers.AdminRetentionExecute(p.Retention, logg))
			r.Get("/compliance", controllers.AdminRetentionCompliance(p.Retention, logg))
			r.Get("/report", controllers.AdminRetentionReport(p.Retention, logg))
		})

		r.Route("/discount-codes", func(r chi.Router) {
			r.Get("/", controllers.AdminDiscountList(p.Discounts, logg))
			r.Post("/", controllers.AdminDiscountCreate(p.Discounts, logg))
			r.Post("/validate", controllers.AdminDiscountValidate(p.Discounts, logg))
			r.Get("/{discountId}", controllers.AdminDiscountDetail(p.Discounts, logg))
			r.Patch("/{discountId}", controllers.AdminDiscountUpdate(p.Discounts, logg))
			r.Delete("/{discountId}", controllers.AdminDiscountDelete(p.Discounts, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.AdminProductList(p.Products, logg))
			r.Post("/", controllers.AdminProductCreate(p.Products, logg))
			r.Get("/{productId}", controllers.AdminProductDetail(p.Products, logg))
			r.Patch("/{productId}", controllers.AdminProductUpdate(p.Products, logg))
			r.Delete("/{productId}", controllers.AdminProductDelete(p.Products, logg))
		})

		r.Route("/shipping", func(r chi.Router) {
			r.Get("/config", controllers.AdminShippingConfig(p.Shipping, logg))
			r.Put("/config", controllers.AdminShippingConfigUpdate(p.Shipping, logg))
		})

		r.Route("/customers", func(r chi.Router) {
			r.Get("/", controllers.AdminCustomersList(p.Customers, logg))
			r.Get("/{customerId}", controllers.AdminCustomerDetail(p.Customers, logg))
			r.Patch("/{customerId}", controllers.AdminCustomerUpdate(p.Customers, logg))
		})

		r.Route("/telegram/channels", func(r chi.Router) {
			r.Get("/", controllers.AdminTelegramChannelList(p.Telegram, logg))
			r.Post("/", controllers.AdminTelegramChannelCreate(p.Telegram, logg))
			r.Patch("/{channelId}", controllers.AdminTelegramChannelUpdate(p.Telegram, logg))
			r.Delete("/{channelId}", controllers.AdminTelegramChannelDelete(p.Telegram, logg))
			r.Post("/{channelId}/test", controllers.AdminTelegramChannelTest(p.Telegram, logg))
		})

		r.Post("/media/presign", controllers.AdminMediaPresign(p.Media, logg))
	})

	return r
}
