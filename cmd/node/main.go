// Command node runs an ordinary mesh participant: parent discovery,
// selective relaying, and the deferred-TX retry queue (spec §4.3–§4.5).
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
	"github.com/AbdullahAlmanei/LoRa-QTree/internal/node"
	"github.com/AbdullahAlmanei/LoRa-QTree/internal/radio"
	"github.com/AbdullahAlmanei/LoRa-QTree/internal/store"
)

func main() {
	configPath := flag.String("config", "node.yaml", "path to the YAML deployment config")
	tickMs := flag.Duration("tick", 100*time.Millisecond, "cooperative loop poll interval")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil)).With("role", "node")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Warn("config load failed, using defaults", "err", err, "path", *configPath)
		cfg = config.Default()
	}

	ids := store.IDStore{Path: cfg.IDPath}
	id, err := ids.Load()
	if err != nil {
		logger.Error("failed to load persistent id", "err", err)
		os.Exit(1)
	}

	clk := clock.NewReal()
	var driver radio.Driver = radio.NewMock(nil)
	breaker := radio.NewBreakerTransmitter(driver, 30*time.Second)
	shaper := duty.New(clk, breaker)

	n := node.New(id, clk, shaper, cfg.Timing, os.Stdout, logger, nil)

	logger.Info("node starting", "id", id, "tick", tickMs.String())
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
			n.HandleFrame(f, driver.RSSI())
		}
		n.Tick(clk.NowMs())
	}
}
