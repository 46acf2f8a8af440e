package container

import (
	"context"
	"fmt"
	"log"
	"time"

	"beautybook-backend/internal/config"
	infracache "beautybook-backend/internal/infrastructure/cache"
	"beautybook-backend/internal/infrastructure/database"
	"beautybook-backend/pkg/cache"
	"beautybook-backend/pkg/clock"
	"beautybook-backend/pkg/jwt"

	bookinghandler "beautybook-backend/internal/domains/booking/handler"
	bookingrepo "beautybook-backend/internal/domains/booking/repository"
	bookingservice "beautybook-backend/internal/domains/booking/service"
	notifhandler "beautybook-backend/internal/domains/notification/handler"
	notifrepo "beautybook-backend/internal/domains/notification/repository"
	notifservice "beautybook-backend/internal/domains/notification/service"
	"beautybook-backend/internal/domains/payment/gateway/beautypay"
	paymenthandler "beautybook-backend/internal/domains/payment/handler"
	paymentrepo "beautybook-backend/internal/domains/payment/repository"
	paymentservice "beautybook-backend/internal/domains/payment/service"
	promohandler "beautybook-backend/internal/domains/promotion/handler"
	promorepo "beautybook-backend/internal/domains/promotion/repository"
	promoservice "beautybook-backend/internal/domains/promotion/service"
	providerrepo "beautybook-backend/internal/domains/provider/repository"
	wallethandler "beautybook-backend/internal/domains/wallet/handler"
	walletrepo "beautybook-backend/internal/domains/wallet/repository"
	walletservice "beautybook-backend/internal/domains/wallet/service"
)

// Container wires the whole dependency graph: config, infrastructure,
// repositories, services, handlers. Everything is a singleton built once
// at startup; initialization order matters and a failure aborts boot.
type Container struct {
	Config     *config.Config
	DB         *database.PostgresDB
	Redis      *infracache.RedisClient
	Cache      cache.Cache
	JWTManager *jwt.Manager
	Clock      clock.Clock

	BookingRepo    bookingrepo.BookingRepository
	ProviderRepo   providerrepo.ProviderRepository
	PromotionRepo  promorepo.PromotionRepository
	WalletRepo     walletrepo.WalletRepository
	PaymentRepo    paymentrepo.PaymentRepository
	WebhookLogRepo paymentrepo.WebhookLogRepository
	NotifRepo      notifrepo.NotificationRepository

	BookingService   bookingservice.BookingService
	PromotionService promoservice.PromotionService
	WalletService    walletservice.WalletService
	PaymentService   paymentservice.PaymentService
	NotifService     notifservice.NotificationService

	BookingHandler   *bookinghandler.BookingHandler
	PromotionHandler *promohandler.PromotionHandler
	WalletHandler    *wallethandler.WalletHandler
	PaymentHandler   *paymenthandler.PaymentHandler
	NotifHandler     *notifhandler.NotificationHandler
}

func NewContainer() (*Container, error) {
	log.Println("[CONTAINER] Initializing...")

	c := &Container{}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	c.Config = cfg
	log.Printf("[CONTAINER] Config loaded (environment: %s)", cfg.App.Environment)

	if cfg.Gateway.SkipSignatureCheck {
		log.Println("[CONTAINER] WARNING: webhook signature verification is DISABLED")
	}

	if err := c.initDatabase(); err != nil {
		return nil, err
	}
	c.initRedis()
	c.initShared()
	c.initRepositories()
	c.initServices()
	c.initHandlers()

	log.Println("[CONTAINER] Initialized successfully")
	return c, nil
}

func (c *Container) initDatabase() error {
	dbConfig, err := config.LoadDatabaseConfig()
	if err != nil {
		return fmt.Errorf("failed to load database config: %w", err)
	}

	db := database.NewPostgresDB(dbConfig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.HealthCheck(context.Background()); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}

	c.DB = db
	return nil
}

// initRedis connects the shared redis client. A redis outage degrades the
// promo cache to pass-through but must not block boot.
func (c *Container) initRedis() {
	redisClient := infracache.NewRedisClient(
		c.Config.Redis.Host,
		c.Config.Redis.Password,
		c.Config.Redis.DB,
	)
	c.Redis = redisClient

	if err := redisClient.Connect(context.Background()); err != nil {
		log.Printf("[CONTAINER] Redis unavailable, promo cache disabled: %v", err)
		c.Cache = cache.Nop()
		return
	}
	c.Cache = infracache.NewRedisCache(redisClient)
}

func (c *Container) initShared() {
	c.JWTManager = jwt.NewManager(
		c.Config.JWT.Secret,
		time.Duration(c.Config.JWT.AccessTokenExpiry)*time.Minute,
	)
	c.Clock = clock.New()
}

func (c *Container) initRepositories() {
	pool := c.DB.Pool

	c.BookingRepo = bookingrepo.NewPostgresRepository(pool)
	c.ProviderRepo = providerrepo.NewPostgresRepository(pool)
	c.PromotionRepo = promorepo.NewPostgresRepository(pool)
	c.WalletRepo = walletrepo.NewPostgresRepository(pool)
	c.PaymentRepo = paymentrepo.NewPostgresPaymentRepository(pool)
	c.WebhookLogRepo = paymentrepo.NewPostgresWebhookLogRepository(pool)
	c.NotifRepo = notifrepo.NewPostgresRepository(pool)
}

func (c *Container) initServices() {
	c.NotifService = notifservice.NewNotificationService(c.NotifRepo)
	c.PromotionService = promoservice.NewPromotionService(c.PromotionRepo, c.Cache, c.Clock)
	c.WalletService = walletservice.NewWalletService(c.WalletRepo)

	c.BookingService = bookingservice.NewBookingService(
		c.BookingRepo,
		c.ProviderRepo,
		c.PromotionService,
		c.WalletService,
		c.NotifService,
		c.Clock,
		c.Config.Booking,
	)

	c.PaymentService = paymentservice.NewPaymentService(
		c.PaymentRepo,
		c.WebhookLogRepo,
		c.BookingService,
		c.WalletService,
		c.NotifService,
		beautypay.NewClient(c.Config.Gateway),
		c.Clock,
		c.Config.Gateway,
	)
}

func (c *Container) initHandlers() {
	c.BookingHandler = bookinghandler.NewBookingHandler(c.BookingService)
	c.PromotionHandler = promohandler.NewPromotionHandler(c.PromotionService)
	c.WalletHandler = wallethandler.NewWalletHandler(c.WalletService)
	c.PaymentHandler = paymenthandler.NewPaymentHandler(c.PaymentService)
	c.NotifHandler = notifhandler.NewNotificationHandler(c.NotifService)
}

// Cleanup releases infrastructure resources on shutdown, in reverse
// initialization order.
func (c *Container) Cleanup() {
	log.Println("[CONTAINER] Cleaning up...")

	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			log.Printf("[CONTAINER] Redis close failed: %v", err)
		}
	}
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			log.Printf("[CONTAINER] Database close failed: %v", err)
		}
	}

	log.Println("[CONTAINER] Cleanup complete")
}
