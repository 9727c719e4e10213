package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	log "log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	cli "github.com/spf13/pflag"

	"voxhr/internal/config"
	"voxhr/internal/event"
	"voxhr/internal/ipc"
	"voxhr/internal/ledger"
	"voxhr/internal/listener"
	"voxhr/internal/mcp"
	"voxhr/internal/voice"
)

const whisperPrompt = "leave balance, leave history, apply leave, E001, E002, 2025-04-17"

// app owns every piece of daemon state.
type app struct {
	book   *ledger.Ledger
	reg    *mcp.Registry
	router *mcp.Router
	queue  *event.Queue
	ctl    *listener.Controller
	src    listener.Source
}

// replayer is a capture source backed by a finite list of audio files.
type replayer interface {
	Remaining() int
}

func main() {
	var (
		common config.Common
		vcfg   config.Voice
	)
	common.Bind(cli.CommandLine)
	vcfg.Bind(cli.CommandLine)
	socket := cli.StringP("socket", "s", ipc.DefaultSocketPath, "Control socket path")
	poll := cli.Duration("poll", 100*time.Millisecond, "Event display interval")
	cli.Parse()

	if err := common.Setup(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := vcfg.ApplyEnv(cli.CommandLine); err != nil {
		log.Error("Bad voice config", "err", err)
		os.Exit(1)
	}

	log.Info("Booting up")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	src, closeVoice, err := voice.Open(vcfg, whisperPrompt)
	if err != nil {
		log.Error("Failed to init voice", "err", err)
		os.Exit(1)
	}
	defer closeVoice()

	a := newApp(vcfg.Listener(), src)
	a.ctl.OnReply(voice.Speaker(vcfg))

	srv, err := ipc.Listen(*socket, a.control)
	if err != nil {
		log.Error("Failed ipc server", "err", err)
		os.Exit(1)
	}
	defer srv.Close()

	if src != nil {
		go a.ctl.Run(ctx)
	}
	go a.readInput(ctx, os.Stdin, stop)

	log.Info("Boot up - successful", "socket", *socket, "employees", a.book.IDs())
	fmt.Println("Type a request, /toggle to switch voice, /quit to exit.")

	a.present(ctx, *poll)
	log.Info("Shutting down", "undisplayed", a.queue.Len())
}

func newApp(lc listener.Config, src listener.Source) *app {
	book := ledger.New(ledger.Seed())
	reg := mcp.NewHRRegistry(book)
	router := mcp.NewRouter(reg, book.IDs())
	queue := event.NewQueue()

	return &app{
		book:   book,
		reg:    reg,
		router: router,
		queue:  queue,
		ctl:    listener.New(lc, src, router, queue),
		src:    src,
	}
}

// ask handles typed text the same way as a recognized utterance.
func (a *app) ask(ctx context.Context, text string) string {
	a.queue.Publish(event.NewUser(text))

	reply, err := a.router.Route(ctx, text)
	if err != nil {
		log.Error("Failed to route", "text", text, "err", err)
		a.queue.Publish(event.NewSystem(fmt.Sprintf("Error: %v", err)))
		return ""
	}

	a.queue.Publish(event.NewAssistant(reply))
	return reply
}

func (a *app) control(ctx context.Context, req ipc.Request) ipc.Response {
	switch req.Cmd {
	case ipc.CmdToggle:
		if !a.ctl.CanCapture() {
			return ipc.Response{Error: "voice capture disabled"}
		}
		a.ctl.Toggle()
	case ipc.CmdAsk:
		if strings.TrimSpace(req.Text) == "" {
			return ipc.Response{Error: "empty request", Listening: a.ctl.Listening()}
		}
		return ipc.Response{OK: true, Reply: a.ask(ctx, req.Text), Listening: a.ctl.Listening()}
	case ipc.CmdStatus:
		if r, ok := a.src.(replayer); ok {
			return ipc.Response{OK: true, Reply: fmt.Sprintf("%d replay file(s) left", r.Remaining()), Listening: a.ctl.Listening()}
		}
	case ipc.CmdList:
		return ipc.Response{OK: true, Reply: a.catalog(), Listening: a.ctl.Listening()}
	default:
		log.Warn("Unknown command", "cmd", req.Cmd)
		return ipc.Response{Error: fmt.Sprintf("unknown command %q", req.Cmd)}
	}
	return ipc.Response{OK: true, Listening: a.ctl.Listening()}
}

func (a *app) catalog() string {
	var b strings.Builder
	for _, t := range a.reg.Tools() {
		fmt.Fprintf(&b, "tool     %s(%s)\n", t.Name, strings.Join(t.Params, ", "))
	}
	for _, r := range a.reg.Resources() {
		fmt.Fprintf(&b, "resource %s\n", r.Template)
	}
	return strings.TrimRight(b.String(), "\n")
}

// readInput calls quit on /quit. End of input leaves the daemon running.
func (a *app) readInput(ctx context.Context, in io.Reader, quit func()) {
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch line {
		case "":
			continue
		case "/toggle":
			a.ctl.Toggle()
		case "/quit":
			quit()
			return
		default:
			a.ask(ctx, line)
		}
	}
}

// present is the display side of the event queue.
func (a *app) present(ctx context.Context, every time.Duration) {
	tick := time.NewTicker(every)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
		}

		for _, e := range a.queue.Drain() {
			ts := e.Time.Format(time.TimeOnly)
			switch e.Kind {
			case event.Status:
				state := "OFF"
				if e.Listening {
					state = "ON"
				}
				fmt.Printf("Voice Recognition: %s\n", state)
			default:
				fmt.Printf("%s [%s]:\n%s\n\n", strings.ToUpper(e.Source()), ts, e.Text)
			}
		}
	}
}
