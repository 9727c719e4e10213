package main

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	cli "github.com/spf13/pflag"

	"voxhr/internal/assistant"
	"voxhr/internal/config"
	"voxhr/internal/event"
	"voxhr/internal/listener"
	"voxhr/internal/proxy"
	"voxhr/internal/relay"
	"voxhr/internal/voice"
)

func main() {
	var (
		common config.Common
		vcfg   config.Voice
		acfg   config.Assistant
	)
	common.Bind(cli.CommandLine)
	vcfg.Bind(cli.CommandLine)
	acfg.Bind(cli.CommandLine)
	addr := cli.StringP("addr", "a", "localhost:8765", "Listen address")
	cli.Parse()

	if err := common.Setup(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := vcfg.ApplyEnv(cli.CommandLine); err != nil {
		log.Error("Bad voice config", "err", err)
		os.Exit(1)
	}
	if err := acfg.ApplyEnv(cli.CommandLine); err != nil {
		log.Error("Bad assistant config", "err", err)
		os.Exit(1)
	}

	log.Info("Booting up")

	httpClient, err := proxy.NewSocksClient(acfg.Proxy, acfg.Timeout)
	if err != nil {
		log.Error("Failed to dial socks proxy", "proxy", acfg.Proxy, "err", err)
		os.Exit(1)
	}

	client := openai.NewClient(
		option.WithAPIKey(acfg.APIKey),
		option.WithHTTPClient(httpClient),
	)
	conv := relay.NewConversation(assistant.NewOpenAI(client, acfg.Model), relay.Greeting)

	src, closeVoice, err := voice.Open(vcfg, "")
	if err != nil {
		log.Error("Failed to init voice", "err", err)
		os.Exit(1)
	}
	defer closeVoice()

	queue := event.NewQueue()
	ctl := listener.New(vcfg.Listener(), src, conv, queue)
	ctl.OnReply(voice.Speaker(vcfg))

	hub := relay.NewHub(conv, ctl, relay.DefaultOptions())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if src != nil {
		go ctl.Run(ctx)
	}
	go hub.Pump(ctx, queue)

	mux := http.NewServeMux()
	mux.Handle("/", hub)
	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdown)
	}()

	log.Info("Relay started", "url", "ws://"+*addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("Failed relay server", "err", err)
		os.Exit(1)
	}
	log.Info("Shutting down", "undelivered", queue.Len())
}
