// Package app собирает граф зависимостей сервиса
package app

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" //для goose миграций
	"github.com/pressly/goose/v3"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	mongooptions "go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	httpapi "github.com/f-lab-edu/commerce-core/internal/api/http"
	paymentclient "github.com/f-lab-edu/commerce-core/internal/client/payment"
	"github.com/f-lab-edu/commerce-core/internal/config"
	"github.com/f-lab-edu/commerce-core/internal/event"
	eventkafka "github.com/f-lab-edu/commerce-core/internal/event/kafka"
	"github.com/f-lab-edu/commerce-core/internal/logging"
	"github.com/f-lab-edu/commerce-core/internal/repository"
	"github.com/f-lab-edu/commerce-core/internal/repository/memory"
	"github.com/f-lab-edu/commerce-core/internal/repository/mongo"
	"github.com/f-lab-edu/commerce-core/internal/repository/postgres"
	"github.com/f-lab-edu/commerce-core/internal/service"
	"github.com/f-lab-edu/commerce-core/internal/shutdown"
	"github.com/f-lab-edu/commerce-core/migrations"
)

// App содержит все зависимости для запуска и корректного shutdown сервиса
type App struct {
	logger      *zap.Logger
	httpServer  *http.Server
	shutdownMgr *shutdown.Manager
	wg          sync.WaitGroup
}

// repositories объединяет все хранилища и менеджер транзакций
type repositories struct {
	users     repository.UserRepository
	products  repository.ProductRepository
	inventory repository.InventoryRepository
	orders    repository.OrderRepository
	payments  repository.PaymentRepository
	tx        repository.TxManager
}

// Build создаёт и настраивает все зависимости сервиса
func Build(cfg config.Config) (*App, error) {
	logger, err := logging.New(logging.Config{
		ServiceName: "commerce-core",
		Env:         string(cfg.AppEnv),
		Level:       cfg.LogLevel,
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Building service", zap.Any("config", cfg.Fields()))

	shutdownMgr := shutdown.New(cfg.ShutdownTimeout, logger)

	repos, readiness, err := buildStorage(cfg, logger, shutdownMgr)
	if err != nil {
		return nil, err
	}

	// Платёжный шлюз
	var authorizer service.PaymentAuthorizer
	if cfg.PaymentMode == config.PaymentHTTP {
		logger.Info("Using HTTP payment gateway", zap.String("url", cfg.PaymentURL))
		authorizer = paymentclient.NewGatewayClient(cfg.PaymentURL, cfg.PaymentTimeout, logger)
	} else {
		logger.Info("Using static payment authorizer")
		authorizer = paymentclient.NewStaticAuthorizer()
	}

	// События заказов
	var publisher service.OrderEventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		logger.Info("Publishing order events to Kafka",
			zap.Strings("brokers", cfg.KafkaBrokers),
			zap.String("topic", cfg.KafkaTopic))
		kafkaPublisher := eventkafka.NewOrderEventPublisher(logger, cfg.KafkaBrokers, cfg.KafkaTopic)
		shutdownMgr.Add("kafka_publisher", func(ctx context.Context) error {
			return kafkaPublisher.Close()
		})
		publisher = kafkaPublisher
	} else {
		publisher = event.NewNoopPublisher()
	}

	// Service слой
	userService := service.NewUserService(repos.users, logger)
	productService := service.NewProductService(repos.products, repos.inventory, repos.tx, logger)
	inventoryService := service.NewInventoryService(repos.inventory, logger)
	paymentService := service.NewPaymentService(repos.payments, authorizer, repos.tx, logger)
	orderService := service.NewOrderService(
		repos.users, repos.products, repos.inventory, repos.orders,
		paymentService, repos.tx, publisher, cfg.RestockOnCancel, logger)

	// HTTP
	handler := httpapi.NewHandler(userService, productService, inventoryService, orderService, paymentService, logger)
	router := httpapi.NewRouter(handler, readiness)

	httpServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	shutdownMgr.Add("http_server", shutdown.ShutdownHTTPServer(httpServer))

	return &App{
		logger:      logger,
		httpServer:  httpServer,
		shutdownMgr: shutdownMgr,
	}, nil
}

// buildStorage выбирает бэкенд хранения по конфигурации
func buildStorage(cfg config.Config, logger *zap.Logger, shutdownMgr *shutdown.Manager) (repositories, func() bool, error) {
	if cfg.StorageBackend == config.StorageMemory {
		logger.Info("Using in-memory storage")
		store := memory.NewStore()
		return repositories{
			users:     store.Users(),
			products:  store.Products(),
			inventory: store.Inventories(),
			orders:    store.Orders(),
			payments:  store.Payments(),
			tx:        store,
		}, func() bool { return true }, nil
	}

	// PostgreSQL нужен обоим остальным бэкендам
	logger.Info("Connecting to PostgreSQL")
	pool, err := pgxpool.New(context.Background(), cfg.PostgresDSN)
	if err != nil {
		return repositories{}, nil, err
	}
	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return repositories{}, nil, err
	}
	logger.Info("PostgreSQL connection established")
	shutdownMgr.Add("postgres_pool", shutdown.ClosePool(pool))

	if err := applyMigrations(cfg, logger); err != nil {
		return repositories{}, nil, err
	}

	repos := repositories{
		users:    postgres.NewUsers(pool, logger),
		products: postgres.NewProducts(pool, logger),
		orders:   postgres.NewOrders(pool, logger),
		payments: postgres.NewPayments(pool, logger),
		tx:       postgres.NewTxManager(pool, logger),
	}

	readiness := func() bool {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return pool.Ping(ctx) == nil
	}

	if cfg.StorageBackend == config.StoragePostgres {
		repos.inventory = postgres.NewInventories(pool, logger)
		return repos, readiness, nil
	}

	// mongo-inventory: остатки живут в MongoDB, всё остальное в PostgreSQL
	logger.Info("Connecting to MongoDB", zap.String("database", cfg.MongoDatabase))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	client, err := mongodriver.Connect(ctx, mongooptions.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return repositories{}, nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return repositories{}, nil, err
	}
	logger.Info("MongoDB connection established")
	shutdownMgr.Add("mongo_client", shutdown.DisconnectMongo(client))

	repos.inventory = mongo.NewInventories(client, cfg.MongoDatabase, logger)
	return repos, readiness, nil
}

// applyMigrations накатывает goose миграции из встроенной FS
func applyMigrations(cfg config.Config, logger *zap.Logger) error {
	logger.Info("Applying database migrations")

	db, err := goose.OpenDBWithDriver("pgx", cfg.PostgresDSN)
	if err != nil {
		return err
	}
	defer db.Close()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	if err := goose.Up(db, "."); err != nil {
		return err
	}

	logger.Info("Database migrations applied successfully")
	return nil
}

// Run запускает сервис и блокируется до получения сигнала shutdown
func (a *App) Run() error {
	defer logging.Sync(a.logger)

	a.logger.Info("Starting service", zap.String("addr", a.httpServer.Addr))
	a.logger.Info("Health check available", zap.String("url", "http://"+a.httpServer.Addr+"/health"))

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	a.shutdownMgr.Wait()

	a.wg.Wait()
	a.logger.Info("Service stopped")
	return nil
}
