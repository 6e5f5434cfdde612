package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/centa/return-tracker/internal/config"
	"github.com/centa/return-tracker/internal/database"
	"github.com/centa/return-tracker/internal/handler"
	"github.com/centa/return-tracker/internal/notifier"
	"github.com/centa/return-tracker/internal/rbac"
	"github.com/centa/return-tracker/internal/repository"
	"github.com/centa/return-tracker/internal/router"
	"github.com/centa/return-tracker/internal/workflow"
)

func main() {
	// .env is optional; real deployments set env vars directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.Migrate(ctx, db); err != nil {
		cancel()
		log.Fatalf("migrations failed: %v", err)
	}
	if err := database.Seed(ctx, db, cfg.AdminEmail, cfg.AdminPassword, cfg.BcryptCost); err != nil {
		cancel()
		log.Fatalf("seeding failed: %v", err)
	}
	cancel()

	// Repositories.
	caseRepo := repository.NewCaseRepo(db)
	customerRepo := repository.NewCustomerRepo(db)
	productRepo := repository.NewProductRepo(db)
	userRepo := repository.NewUserRepo(db)
	tokenRepo := repository.NewTokenRepo(db)
	grantRepo := repository.NewGrantRepo(db)
	logRepo := repository.NewLogRepo(db)

	// The grant table is loaded from MySQL once at startup; admin changes
	// mutate both the row set and this live table, so a restart never loses
	// a grant and a running server never serves a stale one.
	table := rbac.NewTable()
	loadCtx, loadCancel := context.WithTimeout(context.Background(), 10*time.Second)
	grants, err := grantRepo.Load(loadCtx)
	loadCancel()
	if err != nil {
		log.Fatalf("loading grants failed: %v", err)
	}
	if len(grants) == 0 {
		table = rbac.Defaults()
	} else {
		table.Replace(grants)
	}

	publisher := notifier.NewPublisher()
	engine := workflow.New(caseRepo, table, publisher)

	// Redis is optional: when it is unreachable the cache and rate limit
	// middleware pass requests straight through.
	rdb := config.NewRedisClient()

	e := echo.New()
	e.HideBanner = true

	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, userRepo, tokenRepo), cfg.JWTSecret, rdb)
	router.RegisterCases(e, handler.NewCaseHandler(engine, caseRepo, logRepo), table, cfg.JWTSecret, rdb)
	router.RegisterCatalogs(e, handler.NewCustomerHandler(customerRepo, logRepo), handler.NewProductHandler(productRepo, logRepo),
		table, cfg.JWTSecret, rdb)
	router.RegisterLogs(e, handler.NewLogHandler(logRepo), table, cfg.JWTSecret)
	router.RegisterAdmin(e, handler.NewAdminHandler(cfg, userRepo, tokenRepo, grantRepo, table, publisher),
		table, cfg.JWTSecret)

	// The notification consumer delivers queued workflow events; it keeps
	// reconnecting on broker failures and never takes the server down.
	go func() {
		if err := notifier.StartConsumer(userRepo); err != nil {
			log.Printf("notification consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
