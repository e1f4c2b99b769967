// Command tokenline runs a JSON field extraction cycle over a simulated
// serial transport: the configured payload is tokenized, its registered
// fields are formatted into report lines, and the lines are shifted out
// byte by byte through the interrupt-driven driver. The transmitted stream
// is echoed to stdout and optionally recorded to a compressed capture file.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/tokenline/tokenline/capture"
	"github.com/tokenline/tokenline/pipeline"
	"github.com/tokenline/tokenline/uart"
)

func initLogger(level string) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}
	logger := zerolog.New(output).With().Timestamp().Str("app", "tokenline").Logger()

	if lvl, err := zerolog.ParseLevel(level); err == nil && lvl != zerolog.NoLevel {
		logger = logger.Level(lvl)
	}

	return logger
}

func main() {
	cfgPath := flag.String("config", "", "path to TOML config file")
	flag.Parse()

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tokenline: %v\n", err)
		os.Exit(1)
	}

	log := initLogger(cfg.LogLevel)
	if err := run(cfg, log); err != nil {
		log.Error().Err(err).Msg("extraction cycle failed")
		os.Exit(1)
	}
}

func run(cfg config, log zerolog.Logger) error {
	port := uart.NewSimPort()

	drv, err := uart.NewDriver(port, uart.WithRxBufferSize(cfg.RxBufferSize))
	if err != nil {
		return err
	}
	if err := drv.Init(); err != nil {
		return err
	}

	opts := []pipeline.Option{
		pipeline.WithSendGap(cfg.SendGapMS),
		pipeline.WithTokenCapacity(cfg.TokenCapacity),
		pipeline.WithLogger(log),
	}

	var sink *capture.Sink
	if cfg.Capture.Enabled {
		sink = capture.NewSink()
		opts = append(opts, pipeline.WithCapture(sink))
	}

	pl, err := pipeline.New(drv, opts...)
	if err != nil {
		return err
	}
	for _, f := range cfg.Fields {
		pl.RegisterField(f.Key, f.Label)
	}

	pl.SetSource([]byte(cfg.Payload))
	log.Info().Int("payload_bytes", len(cfg.Payload)).Msg("starting extraction cycle")

	// Main loop: step the pipeline, dispatch interrupts when the port has
	// pending events, and yield briefly while pacing between lines.
	cycleErr := pl.Run(func() {
		if port.Pending() {
			drv.ServiceInterrupt()
			return
		}
		time.Sleep(time.Millisecond)
	})

	// Drain the last line off the wire before reporting.
	for drv.TxState() != uart.StateIdle {
		drv.ServiceInterrupt()
	}

	os.Stdout.Write(port.Sent())

	if sink != nil && cfg.Capture.Path != "" {
		codec, err := capture.ParseCodecType(cfg.Capture.Codec)
		if err != nil {
			return err
		}

		stream, err := sink.Encode(codec)
		if err != nil {
			return err
		}
		if err := os.WriteFile(cfg.Capture.Path, stream, 0o644); err != nil {
			return fmt.Errorf("write capture: %w", err)
		}

		log.Info().
			Str("path", cfg.Capture.Path).
			Str("codec", codec.String()).
			Int("records", sink.Len()).
			Int("bytes", len(stream)).
			Msg("capture written")
	}

	return cycleErr
}
