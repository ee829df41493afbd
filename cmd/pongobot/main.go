// Command pongobot connects one or more headless players to a match.
//
//	pongobot -match <id> -users alice,bob -secret dev-secret
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/lguibr/pongarena/auth"
	"github.com/lguibr/pongarena/bot"
	"github.com/lguibr/pongarena/utils"
)

func main() {
	settings := utils.LoadSettings()

	addr := flag.String("addr", "ws://localhost"+settings.WSAddr, "websocket base address")
	matchID := flag.String("match", "", "match id to join")
	users := flag.String("users", "", "comma separated user ids, one bot each")
	secret := flag.String("secret", settings.JWTSecret, "HS256 secret used to mint dev tokens")
	mode := flag.String("mode", string(bot.ModeTrack), "track, idle or quit")
	timeout := flag.Duration("timeout", 10*time.Minute, "give up after this long")
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).With().Timestamp().Logger()

	if *matchID == "" || *users == "" {
		fmt.Fprintln(os.Stderr, "usage: pongobot -match <id> -users a,b")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := utils.DefaultConfig()
	g, ctx := errgroup.WithContext(ctx)
	for _, user := range strings.Split(*users, ",") {
		user := strings.TrimSpace(user)
		if user == "" {
			continue
		}
		token, err := auth.Issue(*secret, user, time.Hour)
		if err != nil {
			logger.Fatal().Err(err).Str("user_id", user).Msg("minting token failed")
		}
		g.Go(func() error {
			res, err := bot.Play(ctx, bot.Config{
				URL:          fmt.Sprintf("%s/ws/match/%s", strings.TrimRight(*addr, "/"), *matchID),
				Token:        token,
				UserID:       user,
				Mode:         bot.Mode(*mode),
				PaddleHeight: cfg.PaddleHeight,
			}, logger, *timeout)
			if err != nil {
				return fmt.Errorf("%s: %w", user, err)
			}
			switch {
			case res.End != nil:
				logger.Info().Str("user_id", user).Str("winner", res.End.Winner).
					Int("player1", res.End.Player1Score).Int("player2", res.End.Player2Score).Msg("finished")
			case res.Error != nil:
				logger.Warn().Str("user_id", user).Str("code", res.Error.Code).Msg(res.Error.Message)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("bot failed")
		os.Exit(1)
	}
}
