package main

import (
	"fmt"
	"os"
	"strings"

	cli "github.com/spf13/pflag"

	"voxhr/internal/ipc"
)

func main() {
	socket := cli.StringP("socket", "s", ipc.DefaultSocketPath, "Control socket path")
	cli.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: vox-ctl [--socket path] toggle|status|list|ask <text>")
		cli.PrintDefaults()
	}
	cli.Parse()

	args := cli.Args()
	if len(args) == 0 {
		args = []string{ipc.CmdToggle}
	}

	req := ipc.Request{Cmd: args[0], Text: strings.Join(args[1:], " ")}
	resp, err := ipc.Send(*socket, req)
	if err != nil {
		fmt.Println("vox-daemon not running:", err)
		os.Exit(1)
	}

	if resp.Reply != "" {
		fmt.Println(resp.Reply)
	}
	if req.Cmd == ipc.CmdToggle || req.Cmd == ipc.CmdStatus {
		state := "OFF"
		if resp.Listening {
			state = "ON"
		}
		fmt.Println("Voice Recognition:", state)
	}
}
