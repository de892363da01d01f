// cmd/uartd/main.go

// uartd owns the Mini UART for the life of the process: it maps the two
// register windows, routes the pins, brings the peripheral up at 9600 8N1,
// and serves the uart_tx/uart_rx endpoints until it is told to stop.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SupriyaMishraWork/rpi-os-driver/bus"
	"github.com/SupriyaMishraWork/rpi-os-driver/drivers/miniuart"
	"github.com/SupriyaMishraWork/rpi-os-driver/internal/mmio"
	"github.com/SupriyaMishraWork/rpi-os-driver/services/config"
	"github.com/SupriyaMishraWork/rpi-os-driver/services/heartbeat"
	"github.com/SupriyaMishraWork/rpi-os-driver/services/serial"
	"github.com/SupriyaMishraWork/rpi-os-driver/types"
)

const (
	loadBanner   = "Mini UART driver loaded successfully!\n"
	unloadBanner = "Mini UART driver unloading...\n"
)

func main() {
	log.SetFlags(log.LstdFlags)
	log.SetPrefix("uartd: ")

	var (
		board   = flag.String("board", "bcm2711", "board whose embedded config to use")
		cfgPath = flag.String("config", "", "JSON config overlay (optional)")
		memPath = flag.String("mem", "/dev/mem", "physical memory device")
		dir     = flag.String("dir", "", "endpoint directory (overrides config)")
	)
	flag.Parse()

	cfg, err := config.Load(*board, *cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if *dir != "" {
		cfg.Port.EndpointDir = *dir
	}

	// Map GPIO first, then the AUX block; release GPIO if AUX fails so a
	// half-initialized driver never runs.
	gpio, err := mmio.Map(*memPath, cfg.Port.GPIOBase, miniuart.GPIOWindow)
	if err != nil {
		log.Fatalf("map GPIO registers: %v", err)
	}
	aux, err := mmio.Map(*memPath, cfg.Port.AUXBase, miniuart.AUXWindow)
	if err != nil {
		gpio.Close()
		log.Fatalf("map UART registers: %v", err)
	}
	defer gpio.Close()
	defer aux.Close()

	port := miniuart.New(gpio, aux, miniuart.Config{
		ClockHz:  cfg.Port.CoreClockHz,
		Baud:     cfg.Port.Baud,
		TxBudget: time.Duration(cfg.Port.TxBudgetMS) * time.Millisecond,
	})
	if err := port.Configure(); err != nil {
		log.Fatalf("init Mini UART: %v", err)
	}
	log.Printf("Mini UART initialized at %d baud", port.Baud())

	ctrl := serial.NewController(port, serial.FramerFromCfg(cfg.Framer).ForBaud(port.Baud()))

	eps := serial.NewEndpoints(cfg.Port.EndpointDir, ctrl)
	if err := eps.Create(); err != nil {
		log.Fatalf("create endpoints: %v", err)
	}
	defer eps.Remove()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b := bus.NewBus(32)
	info := types.PortInfo{Port: cfg.Port.ID, Baud: port.Baud(), Format: types.Format8N1}
	go serial.Run(ctx, b.NewConnection("serial"), ctrl, info)
	if err := (&heartbeat.Service{}).Start(ctx, b.NewConnection("heartbeat")); err != nil {
		log.Fatalf("start heartbeat: %v", err)
	}
	config.PublishSections(b.NewConnection("config"), cfg)
	eps.Run(ctx)

	if _, err := ctrl.Send([]byte(loadBanner)); err != nil {
		log.Printf("banner send: %v", err)
	}
	log.Printf("write to %s to send data", eps.TxPath())
	log.Printf("read from %s to receive data", eps.RxPath())

	<-ctx.Done()

	if _, err := ctrl.Send([]byte(unloadBanner)); err != nil {
		log.Printf("banner send: %v", err)
	}
	log.Print("driver unloaded")
}
