package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Chat/internal/adapters/rest"
	"github.com/dkeye/Chat/internal/adapters/ws"
	"github.com/dkeye/Chat/internal/config"
	"github.com/dkeye/Chat/internal/domain"
	"github.com/dkeye/Chat/internal/events"
	"github.com/dkeye/Chat/internal/rtc"
	"github.com/dkeye/Chat/internal/session"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	api := rest.NewClient(cfg.APIBaseURL, cfg.APIKey, domain.UserID(cfg.UserID))

	handler := events.NewHandler(nil)
	signalClient, err := ws.Dial(ctx, ws.Config{
		URL:        cfg.SignalURL,
		APIKey:     cfg.APIKey,
		ReadLimit:  cfg.ReadLimit,
		PingPeriod: cfg.PingPeriod,
	}, handler)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to reach signaling")
	}

	sess := session.New(api, signalClient, handler, webrtcConfig(cfg.ICEServers), rtc.Config{
		RenegotiationDelay:   cfg.RenegotiationDelay,
		DisableRenegotiation: cfg.DisableRenegotiation,
	})
	defer sess.Close()

	sess.OnError(func(e events.Error) {
		log.Warn().Str("reason", e.Reason).Msg("session error event")
	})

	if rooms, err := api.FetchRooms(ctx); err != nil {
		log.Warn().Err(err).Msg("could not fetch rooms")
	} else {
		for _, room := range rooms {
			model := sess.Room(room)
			model.OnMessage(func(msg events.RoomMessage) {
				log.Info().Str("room", string(msg.RoomID)).Str("author", string(msg.AuthorID)).Msg(msg.Body)
			})
		}
	}

	if calls, err := api.FetchActiveCalls(ctx); err != nil {
		log.Warn().Err(err).Msg("could not fetch active calls")
	} else {
		for _, call := range calls {
			sess.Call(call)
		}
	}

	go func() {
		if err := signalClient.Run(ctx); err != nil {
			log.Error().Err(err).Msg("signaling stopped")
		}
		cancel()
	}()

	srv := statusServer(cfg, sess)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Chat client started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("status server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Status server forced to shutdown")
	}
	signalClient.Close()
	log.Info().Msg("Client exited gracefully")
}

func statusServer(cfg *config.Config, sess *session.Session) *http.Server {
	gin.SetMode(cfg.Mode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/state", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"rooms": sess.RoomCount(),
			"calls": sess.CallCount(),
		})
	})

	return &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.StatusPort),
		Handler: r,
	}
}

func webrtcConfig(servers []string) webrtc.Configuration {
	if len(servers) == 0 {
		return rtc.DefaultWebRTCConfig()
	}
	return webrtc.Configuration{
		ICEServers: []webrtc.ICEServer{{URLs: servers}},
	}
}
