// Command balancer runs the front-door load balancer: it discovers running
// directory replicas and proxies every inbound request to the healthiest
// front of the list, failing over on errors.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/skillsenselab/registry/balancer"
	"github.com/skillsenselab/registry/config"
	"github.com/skillsenselab/registry/discovery"
	"github.com/skillsenselab/registry/logger"
	"github.com/skillsenselab/registry/server"

	// Discovery providers register themselves on import.
	_ "github.com/skillsenselab/registry/discovery/consul"
	_ "github.com/skillsenselab/registry/discovery/docker"
	_ "github.com/skillsenselab/registry/discovery/static"
)

const serviceName = "balancer"

type appConfig struct {
	Logger    logger.Config    `yaml:"logger" mapstructure:"logger"`
	Server    server.Config    `yaml:"server" mapstructure:"server"`
	Discovery discovery.Config `yaml:"discovery" mapstructure:"discovery"`
	Balancer  balancer.Config  `yaml:"balancer" mapstructure:"balancer"`
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

	disc, err := discovery.New(cfg.Discovery, log)
	if err != nil {
		log.Fatal("failed to initialize discovery", map[string]interface{}{"error": err.Error()})
	}
	defer disc.Close()

	proxy, err := balancer.NewProxy(disc, cfg.Balancer, log)
	if err != nil {
		log.Fatal("failed to initialize proxy", map[string]interface{}{"error": err.Error()})
	}

	srv := server.New(cfg.Server, log)
	srv.ApplyMiddleware()

	handler := balancer.NewHandler(proxy, log)
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
