package main

import (
	"math/rand"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/roylee0704/gron"
	"github.com/roylee0704/gron/xtime"

	"github.com/wheel-empire/fortune-bot/cfg"
	"github.com/wheel-empire/fortune-bot/internal/api"
	"github.com/wheel-empire/fortune-bot/internal/ledger"
	log2 "github.com/wheel-empire/fortune-bot/internal/log"
	"github.com/wheel-empire/fortune-bot/internal/model"
	"github.com/wheel-empire/fortune-bot/internal/services"
	"github.com/wheel-empire/fortune-bot/internal/services/auth"
	"github.com/wheel-empire/fortune-bot/internal/store"
	"github.com/wheel-empire/fortune-bot/internal/tokens"
)

func main() {
	rand.Seed(time.Now().UnixNano())

	logger := log2.NewDefaultLogger().Prefix("Fortune Bot")
	log2.PrintLogo("Fortune Bot", []string{"FFD23C"})

	config, err := cfg.Load()
	if err != nil {
		logger.Fatal("error load config: %s", err.Error())
	}

	dataBase, err := model.UploadDataBase(config.DatabaseDSN)
	if err != nil {
		logger.Fatal("error upload database: %s", err.Error())
	}

	recordStore := store.NewStore(dataBase)

	registry := tokens.NewRegistry(newTokenStore(config, logger), config.TokenTTL, config.TokenGrace)

	bot := startBot(config, logger)
	msgs := services.NewMsgs(bot, config.DevChatID, logger)
	oracle := services.NewTgMembership(bot, msgs, logger)

	ldgr := ledger.NewLedger(recordStore, recordStore, config.CommissionBP, logger)
	ldgr.Run()
	defer ldgr.Stop()

	authSrv := auth.NewAuthService(recordStore, config.BotToken, logger)
	userSrv := services.NewUsersService(recordStore, registry, ldgr, oracle, msgs, config, logger)

	go startPrometheusHandler(config.MetricsPort, logger)

	startCron(userSrv, registry, logger)

	msgs.SendNotificationToDeveloper("Bot is restarted", false)

	server := api.NewServer(userSrv, authSrv, logger)
	logger.Ok("API is running on port %s", config.APIPort)
	if err := http.ListenAndServe(":"+config.APIPort, server.Router()); err != nil {
		logger.Fatal("api stopped: %s", err.Error())
	}
}

func newTokenStore(config *cfg.Config, logger log2.Logger) tokens.Store {
	if config.TokenStore == "redis" {
		logger.Ok("Token store backed by redis at %s", config.RedisAddr)
		return tokens.NewRedisStore(model.StartRedis(config.RedisAddr), config.TokenTTL, config.TokenGrace)
	}

	return tokens.NewMemoryStore()
}

func startBot(config *cfg.Config, logger log2.Logger) *tgbotapi.BotAPI {
	if config.BotToken == "" {
		logger.Warn("no bot token: membership checks fail closed, notifications go to the log")
		return nil
	}

	bot, err := tgbotapi.NewBotAPI(config.BotToken)
	if err != nil {
		logger.Fatal("error start bot: %s", err.Error())
	}

	return bot
}

func startPrometheusHandler(port string, logger log2.Logger) {
	http.Handle("/metrics", promhttp.Handler())
	logger.Ok("Metrics can be read from %s port", port)
	metricErr := http.ListenAndServe(":"+port, nil)
	if metricErr != nil {
		logger.Fatal("metrics stoped by metricErr: %s\n", metricErr.Error())
	}
}

func startCron(userSrv *services.Users, registry *tokens.Registry, logger log2.Logger) {
	cron := gron.New()

	cron.AddFunc(gron.Every(1*time.Minute), func() {
		purged, err := registry.PurgeExpired()
		if err != nil {
			logger.Warn("token purge failed: %s", err.Error())
			return
		}
		if purged > 0 {
			logger.Info("purged %d abandoned tokens", purged)
		}
	})

	cron.AddFunc(gron.Every(1*xtime.Day).At("20:59"), userSrv.SendTodayUpdateMsg)

	go func() {
		time.Sleep(5 * time.Second)

		cron.Start()
	}()

	logger.Ok("All handlers are running")
}
