// Command registry runs the service directory: login, service listing,
// registration and deregistration, plus the background health monitor that
// evicts dead entries.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"gorm.io/driver/sqlite"

	"github.com/skillsenselab/registry/auth"
	"github.com/skillsenselab/registry/config"
	"github.com/skillsenselab/registry/database"
	"github.com/skillsenselab/registry/logger"
	"github.com/skillsenselab/registry/registry"
	"github.com/skillsenselab/registry/server"
)

const serviceName = "registry"

type appConfig struct {
	Logger   logger.Config          `yaml:"logger" mapstructure:"logger"`
	Server   server.Config          `yaml:"server" mapstructure:"server"`
	Database database.Config        `yaml:"database" mapstructure:"database"`
	Auth     authConfig             `yaml:"auth" mapstructure:"auth"`
	Monitor  registry.MonitorConfig `yaml:"monitor" mapstructure:"monitor"`
}

type authConfig struct {
	Token auth.TokenConfig `yaml:"token" mapstructure:"token"`

	// AdminUsername/AdminPassword seed the administrator credential on
	// startup so a fresh database is usable immediately.
	AdminUsername string `yaml:"admin_username" mapstructure:"admin_username"`
	AdminPassword string `yaml:"admin_password" mapstructure:"admin_password"`
}

func main() {
	var cfg appConfig
	if err := config.Load(serviceName, &cfg); err != nil {
		logger.NewDefault(serviceName).Fatal("failed to load configuration", map[string]interface{}{
			"error": err.Error(),
		})
	}

	log := logger.New(&cfg.Logger, serviceName)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, sqlite.Open(cfg.Database.DSN), cfg.Database, log)
	if err != nil {
		log.Fatal("failed to open database", map[string]interface{}{"error": err.Error()})
	}
	defer db.Close()

	store, err := registry.NewStore(db)
	if err != nil {
		log.Fatal("failed to initialize store", map[string]interface{}{"error": err.Error()})
	}

	tokens, err := auth.NewTokenService(cfg.Auth.Token)
	if err != nil {
		log.Fatal("invalid token configuration", map[string]interface{}{"error": err.Error()})
	}

	hasher := auth.NewBcryptHasher()
	authn := auth.NewService(store, tokens, hasher, log)
	directory := registry.NewDirectory(store, hasher, log)

	if cfg.Auth.AdminUsername != "" && cfg.Auth.AdminPassword != "" {
		hash, err := hasher.Hash(cfg.Auth.AdminPassword)
		if err != nil {
			log.Fatal("failed to hash admin password", map[string]interface{}{"error": err.Error()})
		}
		if err := directory.EnsureAdmin(ctx, cfg.Auth.AdminUsername, hash); err != nil {
			log.Fatal("failed to seed admin credential", map[string]interface{}{"error": err.Error()})
		}
	}

	monitor := registry.NewMonitor(cfg.Monitor, directory, log)
	go monitor.Run(ctx)

	srv := server.New(cfg.Server, log)
	srv.ApplyMiddleware()

	handler := registry.NewHandler(authn, directory, serviceName, log)
	handler.RegisterRoutes(srv.Engine())

	if err := srv.Start(ctx); err != nil {
		log.Fatal("failed to start server", map[string]interface{}{"error": err.Error()})
	}

	<-ctx.Done()
	log.Info("shutdown signal received")
	if err := srv.Stop(context.Background()); err != nil {
		log.Error("shutdown error", map[string]interface{}{"error": err.Error()})
	}
}
