// cmd/uartctl/main.go

// uartctl is a small interactive console for a running uartd: lines typed at
// the prompt turn into send/recv requests against the uart_tx/uart_rx
// endpoints.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/shlex"
	"github.com/mattn/go-tty"

	"github.com/SupriyaMishraWork/rpi-os-driver/services/serial"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("uartctl: ")

	dir := flag.String("dir", "/run", "directory holding the uart endpoints")
	flag.Parse()

	txPath := filepath.Join(*dir, serial.TxName)
	rxPath := filepath.Join(*dir, serial.RxName)

	t, err := tty.Open()
	if err != nil {
		log.Fatalf("open tty: %v", err)
	}
	defer t.Close()
	out := t.Output()

	fmt.Fprintln(out, "commands: send <text>, recv, quit")
	for {
		fmt.Fprint(out, "> ")
		line, err := t.ReadString()
		if err != nil {
			return
		}
		args, err := shlex.Split(line)
		if err != nil {
			fmt.Fprintf(out, "parse error: %v\n", err)
			continue
		}
		if len(args) == 0 {
			continue
		}
		switch args[0] {
		case "send":
			if len(args) < 2 {
				fmt.Fprintln(out, "usage: send <text>")
				continue
			}
			msg := strings.Join(args[1:], " ") + "\n"
			if err := sendTo(txPath, msg); err != nil {
				fmt.Fprintf(out, "send: %v\n", err)
				continue
			}
			fmt.Fprintf(out, "sent %d bytes\n", len(msg))
		case "recv":
			data, err := recvFrom(rxPath)
			if err != nil {
				fmt.Fprintf(out, "recv: %v\n", err)
				continue
			}
			if len(data) == 0 {
				fmt.Fprintln(out, "(no data)")
				continue
			}
			fmt.Fprintf(out, "%q\n", data)
		case "quit", "exit":
			return
		default:
			fmt.Fprintf(out, "unknown command %q\n", args[0])
		}
	}
}

func sendTo(path, msg string) error {
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.Write([]byte(msg))
	return err
}

func recvFrom(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
