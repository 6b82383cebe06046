package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordle/apps/bot-engine/internal/config"
	"github.com/robalobadob/wordle/apps/bot-engine/internal/game"
	"github.com/robalobadob/wordle/apps/bot-engine/internal/history"
	"github.com/robalobadob/wordle/apps/bot-engine/internal/httpserver"
	"github.com/robalobadob/wordle/apps/bot-engine/internal/stats"
	"github.com/robalobadob/wordle/apps/bot-engine/internal/words"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	// `bot-engine token <player>` prints a token for a chat gateway or curl.
	if len(os.Args) == 3 && os.Args[1] == "token" {
		tok, exp, err := httpserver.SignToken(cfg.Auth.JWTSecret, os.Args[2], 14*24*time.Hour)
		if err != nil {
			log.Fatal().Err(err).Msg("sign token")
		}
		fmt.Println(tok)
		log.Info().Str("player", os.Args[2]).Time("expires", exp).Msg("token issued")
		return
	}

	ws, err := words.Load(words.Sources{AnswersFile: cfg.Words.AnswersFile, AllowedFile: cfg.Words.AllowedFile})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load word lists")
	}
	answers, allowed := ws.Counts()
	log.Info().Int("answers", answers).Int("allowed", allowed).Msg("word lists loaded")

	repo, closeStore, err := openStore(cfg.Store)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Store.Driver).Msg("failed to open store")
	}
	defer closeStore()

	locks, closeLocks, err := openLocker(cfg.Redis, cfg.Engine.LockTTL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer closeLocks()

	policy := game.ResumeActive
	if cfg.Engine.StartPolicy == config.PolicyReject {
		policy = game.RejectActive
	}
	engine := game.NewEngine(repo, ws, locks, game.Options{Policy: policy, LockWait: cfg.Engine.LockWait})

	srv := httpserver.New(httpserver.Deps{
		Engine:  engine,
		Stats:   stats.NewAggregator(repo),
		History: history.NewBrowser(repo),
		Words:   ws,
	}, httpserver.Options{
		JWTSecret:    cfg.Auth.JWTSecret,
		CookieName:   cfg.Auth.CookieName,
		ClientOrigin: cfg.Auth.ClientOrigin,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown")
		}
	}()

	log.Info().Str("port", cfg.Port).Str("store", cfg.Store.Driver).Msg("starting bot-engine")
	if err := srv.Start(":" + cfg.Port); err != nil {
		log.Error().Err(err).Msg("server exited")
	}
}
