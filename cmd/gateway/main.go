// Command gateway runs the tree-root supervisor role: it owns the duty
// cycle shaper, the child/pending-join/pending-query tables, and the
// periodic query/eviction loop (spec §4.2).
package main

import (
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/AbdullahAlmanei/LoRa-QTree/internal/clock"
	"github.com/AbdullahAlmanei/LoRa-QTree/internal/config"
	"github.com/AbdullahAlmanei/LoRa-QTree/internal/duty"
	"github.com/AbdullahAlmanei/LoRa-QTree/internal/frame"
	"github.com/AbdullahAlmanei/LoRa-QTree/internal/gateway"
	"github.com/AbdullahAlmanei/LoRa-QTree/internal/radio"
)

func main() {
	configPath := flag.String("config", "gateway.yaml", "path to the YAML deployment config")
	tickMs := flag.Duration("tick", 100*time.Millisecond, "cooperative loop poll interval")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil)).With("role", "gateway")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Warn("config load failed, using defaults", "err", err, "path", *configPath)
		cfg = config.Default()
	}

	// The board-specific SPI/SX12xx driver is out of scope (spec §1);
	// a real deployment supplies its own radio.Driver implementation
	// here. The mock stands in so this binary links and runs.
	clk := clock.NewReal()
	var driver radio.Driver = radio.NewMock(nil)
	breaker := radio.NewBreakerTransmitter(driver, 30*time.Second)
	shaper := duty.New(clk, breaker)

	sup := gateway.NewSupervisor(clk, shaper, cfg.Timing, os.Stdout, logger)

	logger.Info("gateway starting", "tick", tickMs.String())
	ticker := time.NewTicker(*tickMs)
	defer ticker.Stop()

	for range ticker.C {
		for {
			data, ok := driver.ReadPacket()
			if !ok {
				break
			}
			f, err := frame.Decode(data)
			if err != nil {
				logger.Warn("drop malformed frame", "err", err)
				continue
			}
			sup.HandleFrame(f, driver.RSSI())
		}
		sup.Tick(clk.NowMs())
	}
}
