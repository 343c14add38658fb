package di

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"freshreceipt_backend/internal/app/router"
	"freshreceipt_backend/internal/config"
	authadapters "freshreceipt_backend/internal/feature/auth/adapters"
	authhandler "freshreceipt_backend/internal/feature/auth/transport/handler"
	authusecase "freshreceipt_backend/internal/feature/auth/usecase"
	foodadapters "freshreceipt_backend/internal/feature/fooditem/adapters"
	foodhandler "freshreceipt_backend/internal/feature/fooditem/transport/handler"
	foodusecase "freshreceipt_backend/internal/feature/fooditem/usecase"
	householdadapters "freshreceipt_backend/internal/feature/household/adapters"
	householdhandler "freshreceipt_backend/internal/feature/household/transport/handler"
	householdusecase "freshreceipt_backend/internal/feature/household/usecase"
	receiptadapters "freshreceipt_backend/internal/feature/receipt/adapters"
	"freshreceipt_backend/internal/feature/receipt/adapters/scanner"
	receipthandler "freshreceipt_backend/internal/feature/receipt/transport/handler"
	receiptusecase "freshreceipt_backend/internal/feature/receipt/usecase"
	"freshreceipt_backend/internal/platform/cache"
	"freshreceipt_backend/internal/platform/db"
	platformhandler "freshreceipt_backend/internal/platform/http/handler"
	jwtmw "freshreceipt_backend/internal/platform/jwt"
	"freshreceipt_backend/internal/platform/storage"
	"freshreceipt_backend/internal/shared/ratelimiter"
)

const (
	membershipCacheTTL   = time.Minute
	receiptLimitWindow   = 24 * time.Hour
	receiptLimitKeySpace = "ratelimit:receipts"
)

// App is the assembled HTTP application.
type App struct {
	Router   *gin.Engine
	Sessions authusecase.SessionRepository
}

// NewApp wires repositories, usecases and handlers. rdb may be nil, in which
// case sessions live in Postgres and caches and limits are process-local.
func NewApp(ctx context.Context, cfg *config.Config, gdb *gorm.DB, rdb *redis.Client) (*App, error) {
	if cfg.Auth.JWTSecret == "" {
		return nil, errors.New("auth.jwt_secret is required")
	}

	exec := db.NewRLSExecutor(gdb, cfg.Database.RequestRole)
	images, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("receipt storage: %w", err)
	}

	// Auth
	sessions := NewSessionRepository(rdb, gdb)
	generator := jwtmw.NewGenerator(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.AccessTokenTTL)
	verifier := jwtmw.NewVerifier(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer)
	authUC := authusecase.NewAuthUsecase(authadapters.NewUserGorm(gdb), sessions, generator, authusecase.Options{
		RefreshTTL:  cfg.Auth.RefreshTokenTTL,
		MaxSessions: cfg.Auth.MaxSessionsPerUser,
	})

	// Households: membership lookups are cached in Redis when available.
	households := cache.NewCachingHouseholdRepository(rdb, membershipCacheTTL, householdadapters.NewHouseholdGorm(exec), "membership")
	householdUC := householdusecase.NewHouseholdUsecase(households)

	foodUC := foodusecase.NewFoodItemUsecase(foodadapters.NewFoodItemGorm(exec))

	var limiter ratelimiter.Limiter
	if rdb != nil {
		limiter = ratelimiter.NewRedisLimiter(rdb, receiptLimitKeySpace, cfg.Receipts.PerDayLimit, receiptLimitWindow)
	} else {
		limiter = ratelimiter.NewMemoryLimiter(cfg.Receipts.PerDayLimit, receiptLimitWindow)
	}
	receiptUC := receiptusecase.NewReceiptUsecase(
		receiptadapters.NewReceiptGorm(exec),
		images,
		scanner.NewMockScanner(),
		limiter,
		cfg.Receipts.MaxUploadBytes,
	)

	checks := []platformhandler.Check{{Name: "database", Probe: func(ctx context.Context) error {
		sqlDB, err := gdb.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}}}
	if rdb != nil {
		checks = append(checks, platformhandler.Check{Name: "redis", Probe: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}})
	}

	r := router.NewRouter(router.Handlers{
		Auth:      authhandler.NewAuthHandler(authUC),
		Household: householdhandler.NewHouseholdHandler(householdUC),
		FoodItem:  foodhandler.NewFoodItemHandler(foodUC),
		Receipt:   receipthandler.NewReceiptHandler(receiptUC),
	}, router.Options{
		Verifier:       verifier,
		Membership:     householdUC,
		AllowedOrigins: cfg.CORS.Origins(),
		HealthChecks:   checks,
	})

	slog.Info("application wired",
		"redis", rdb != nil,
		"storage", cfg.Storage.Backend,
		"request_role", cfg.Database.RequestRole,
	)
	return &App{Router: r, Sessions: sessions}, nil
}
