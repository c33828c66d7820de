package main

import (
	"context"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/marinedge/vfd-sentinel/internal/anomaly"
	"github.com/marinedge/vfd-sentinel/internal/config"
	"github.com/marinedge/vfd-sentinel/internal/database"
	httpHandlers "github.com/marinedge/vfd-sentinel/internal/http"
	"github.com/marinedge/vfd-sentinel/internal/repository"
	"github.com/marinedge/vfd-sentinel/internal/service"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	if err := config.Load(); err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	if err := config.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	db, err := database.Connect()
	if err != nil {
		log.Fatal().Err(err).Msg("db connect failed")
	}
	defer db.Close()

	ledger := repository.New(db)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := ledger.EnsureSchema(ctx); err != nil {
		cancel()
		log.Fatal().Err(err).Msg("ledger schema failed")
	}
	cancel()

	bridge := anomaly.NewBridge(ledger, anomaly.BridgeOptions{
		QueueSize:    config.LedgerQueueSize(),
		Retries:      config.LedgerRetries(),
		RetryBackoff: config.LedgerRetryBackoff(),
		WriteTimeout: config.LedgerWriteTimeout(),
	}, log.Logger)
	defer bridge.Close()

	thresholds, err := config.Thresholds()
	if err != nil {
		log.Fatal().Err(err).Msg("threshold config failed")
	}
	eng, err := service.NewEngine(config.Units(), thresholds, bridge, service.Options{
		AutoClearDelay:   config.AutoClearDelay(),
		TrendWindow:      config.TrendWindow(),
		HistoryRetention: config.HistoryRetention(),
		Logger:           log.Logger,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("engine init failed")
	}

	opts := mqtt.NewClientOptions().AddBroker(config.MQTTBroker()).SetClientID("vfd-monitord")
	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.Fatal().Err(token.Error()).Msg("mqtt connect")
	}
	defer client.Disconnect(250)

	handler := func(_ mqtt.Client, msg mqtt.Message) {
		if err := eng.FromMQTT(msg.Topic(), msg.Payload()); err != nil {
			log.Error().Err(err).Msg("cycle failed")
		}
	}
	if token := client.Subscribe(config.MQTTTopic(), 0, handler); token.Wait() && token.Error() != nil {
		log.Fatal().Err(token.Error()).Msg("subscribe failed")
	}
	log.Info().Str("topic", config.MQTTTopic()).Msg("telemetry subscription active")

	app := fiber.New()
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.SendString("ok") })
	httpHandlers.Register(app, eng, ledger)

	addr := config.APIAddr()
	log.Info().Str("addr", addr).Msg("api listening")
	log.Fatal().Err(app.Listen(addr)).Msg("server exit")
}
