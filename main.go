package main

import (
	"os"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/yeremiapane/restaurant-ops/cache"
	"github.com/yeremiapane/restaurant-ops/config"
	"github.com/yeremiapane/restaurant-ops/database"
	"github.com/yeremiapane/restaurant-ops/events"
	"github.com/yeremiapane/restaurant-ops/kds"
	"github.com/yeremiapane/restaurant-ops/router"
	"github.com/yeremiapane/restaurant-ops/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		utils.NewLogger("info", "text").Fatalf("Failed to load config: %v", err)
	}
	log := utils.NewLogger(cfg.Log.Level, cfg.Log.Format)

	if cfg.Server.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	utils.UseJSONFieldNames()

	db, err := database.Open(cfg.Database, log)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(db, log); err != nil {
		log.Fatal(err)
	}
	if cfg.Database.Seed {
		if err := database.Seed(db, cfg.Database, log); err != nil {
			log.Fatalf("Failed to seed database: %v", err)
		}
	}

	hub := kds.NewHub(log)
	publishers := events.Multi{events.NewNotificationStore(db), hub}
	if cfg.AMQP.URL != "" {
		broker, err := events.NewAMQPPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange, log)
		if err != nil {
			log.Fatalf("Failed to connect to broker: %v", err)
		}
		defer broker.Close()
		publishers = append(publishers, broker)
	}

	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb, err = cache.ConnectRedis(cfg.Redis)
		if err != nil {
			// the menu still works from the database
			log.WithError(err).Warn("Redis unavailable, menu cache disabled")
		} else {
			defer rdb.Close()
		}
	}

	r := router.SetupRouter(router.Deps{
		Config:    cfg,
		DB:        db,
		Log:       log,
		Clock:     utils.NewClock(cfg.Billing.Location),
		Publisher: publishers,
		Hub:       hub,
		Redis:     rdb,
	})
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		log.Fatal(err)
	}

	log.WithFields(logrus.Fields{
		"port":     cfg.Server.Port,
		"timezone": cfg.Billing.Timezone,
		"tax_rate": cfg.Billing.TaxRate.String(),
	}).Info("Listening")
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}
