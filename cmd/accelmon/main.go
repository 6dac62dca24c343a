package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"accelwake/internal/accel"
	"accelwake/internal/config"
	"accelwake/internal/gpio"
	"accelwake/internal/i2c"
	"accelwake/internal/publish"
	"accelwake/internal/sensors/lis2dw12"
	"accelwake/internal/timer"
)

func main() {
	var configPath string
	var dump bool
	flag.StringVar(&configPath, "config", "./accelmon.yaml", "Path to YAML config")
	flag.BoolVar(&dump, "dump", false, "Print the register map after opening and exit")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	err = run(ctx, cfg, logger, dump)
	cancel()
	if err != nil {
		logger.Error("accelmon stopped", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger, dump bool) error {
	sink, err := newSink(cfg.Publish)
	if err != nil {
		return err
	}
	queue := publish.NewQueue(sink, logger.Named("publish"))
	defer func() {
		if err := queue.Close(); err != nil {
			logger.Warn("publish close failed", zap.Error(err))
		}
	}()

	info, closeLines, err := openLines(cfg.Sensor)
	if err != nil {
		return err
	}
	defer closeLines()

	drv := lis2dw12.New(lis2dw12.Options{
		Bus:    busOpener(cfg.Sensor),
		Timers: timer.New(nil),
		Logger: logger,
	})
	if err := drv.Init(info); err != nil {
		return fmt.Errorf("sensor init: %w", err)
	}

	dc, err := cfg.Accel.Driver(func(n accel.Notification) {
		logger.Info("accel event",
			zap.Stringer("type", n.Type),
			zap.Uint32("severity", n.Severity),
		)
		queue.Enqueue(publish.FromNotification(n, time.Now()))
	})
	if err != nil {
		return err
	}
	if err := drv.Open(dc); err != nil {
		return fmt.Errorf("sensor open: %w", err)
	}
	defer func() {
		if err := drv.Close(); err != nil {
			logger.Warn("sensor close failed", zap.Error(err))
		}
	}()

	di, err := drv.Info()
	if err != nil {
		return err
	}
	logger.Info("accelmon started",
		zap.String("addr", fmt.Sprintf("0x%02X", di.Address)),
		zap.Stringer("fs", di.FS),
		zap.Stringer("odr", di.ODR),
		zap.Duration("wake_time", di.WakeTime),
		zap.Duration("poll_timeout", di.PollTimeout),
		zap.Bool("shock", di.ShockEnabled),
	)

	if dump {
		return dumpRegisters(os.Stdout, drv)
	}

	<-ctx.Done()
	logger.Info("accelmon stopping")
	return nil
}

func newLogger(c config.LogConfig) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(c.Level)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	if c.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = level
	return zc.Build()
}

func busOpener(s config.SensorConfig) accel.BusOpener {
	if s.Backend == config.BackendPeriph {
		return i2c.PeriphOpener(s.Bus)
	}
	return i2c.Opener(s.Bus)
}

func newSink(p config.PublishConfig) (publish.Sink, error) {
	var sinks publish.Multi
	if p.UDP.Enable {
		s, err := publish.NewUDP(p.UDP.Dest)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, s)
	}
	if p.MQTT.Enable {
		s, err := publish.NewMQTT(publish.MQTTOptions{
			Broker:   p.MQTT.Broker,
			ClientID: p.MQTT.ClientID,
			Topic:    p.MQTT.Topic,
			QoS:      byte(p.MQTT.QoS),
		})
		if err != nil {
			return nil, multierr.Append(err, sinks.Close())
		}
		sinks = append(sinks, s)
	}
	return sinks, nil
}

// openLines builds the driver's line bindings. The returned func releases
// the power line, if one was opened.
func openLines(s config.SensorConfig) (accel.InitInfo, func(), error) {
	info := accel.InitInfo{
		Interrupt: gpio.NewInterrupt(lineSpec(s.Interrupt)),
	}
	if s.Power.Line == "" {
		return info, func() {}, nil
	}
	p, err := gpio.OpenPower(lineSpec(s.Power))
	if err != nil {
		return accel.InitInfo{}, nil, fmt.Errorf("power line: %w", err)
	}
	info.Power = p
	return info, func() { _ = p.Close() }, nil
}
