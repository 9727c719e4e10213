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
	"voxhr/pkg/protocol"
)

func main() {
	var common config.Common
	common.Bind(cli.CommandLine)
	url := cli.StringP("url", "u", "", "Relay url (env BUS_URL)")
	reconn := cli.DurationP("reconnect", "r", 5*time.Second, "Delay between reconnect attempts")
	cli.Parse()

	if err := common.Setup(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if *url == "" {
		*url = os.Getenv("BUS_URL")
	}
	if *url == "" {
		*url = "ws://localhost:8765"
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := protocol.NewClient(*url, *reconn)
	c.OnState = func(connected bool, err error) {
		if connected {
			fmt.Println("-- Connected")
			return
		}
		fmt.Printf("-- Disconnected: %v\n", err)
	}

	go func() {
		chat(ctx, c, os.Stdin, os.Stdout)
		stop()
	}()

	log.Info("Starting Vox client", "url", *url)
	c.Run(ctx, func(m *protocol.Message) { display(os.Stdout, m) })
}

type sender interface {
	Send(protocol.Message) error
	Connected() bool
}

// chat sends each input line; /toggle switches the server's voice loop.
func chat(ctx context.Context, c sender, in io.Reader, out io.Writer) {
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		if ctx.Err() != nil {
			return
		}

		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if line == "/quit" {
			return
		}
		if !c.Connected() {
			fmt.Fprintln(out, "-- Not connected, message dropped")
			continue
		}

		msg := protocol.Message{
			Type:      protocol.TypeMessage,
			Content:   line,
			Timestamp: protocol.Timestamp(time.Now()),
		}
		if line == "/toggle" {
			msg = protocol.Command(protocol.CommandToggle)
		} else {
			display(out, &protocol.Message{Type: protocol.TypeMessage, Role: protocol.RoleUser, Content: line, Timestamp: msg.Timestamp})
		}

		if err := c.Send(msg); err != nil {
			log.Error("Error sending message", "err", err)
		}
	}
}

func display(out io.Writer, m *protocol.Message) {
	switch m.Type {
	case protocol.TypeMessage:
		role := m.Role
		if role == "" {
			role = protocol.RoleUser
		}
		fmt.Fprintf(out, "%s%s [%s]:\n%s\n\n",
			strings.ToUpper(role[:1]), role[1:], m.Time().Format(time.TimeOnly), m.Content)
	case protocol.TypeStatus:
		state := "OFF"
		if m.IsListening() {
			state = "ON"
		}
		fmt.Fprintf(out, "-- Voice Recognition: %s\n", state)
	}
}
