package config

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"accelwake/internal/accel"
)

const (
	BackendI2CDev = "i2cdev"
	BackendPeriph = "periph"
)

type Config struct {
	Sensor  SensorConfig  `yaml:"sensor"`
	Accel   AccelConfig   `yaml:"accel"`
	Publish PublishConfig `yaml:"publish"`
	Log     LogConfig     `yaml:"log"`
}

type SensorConfig struct {
	// Backend is "i2cdev" (raw /dev/i2c-N) or "periph".
	Backend   string     `yaml:"backend"`
	Bus       string     `yaml:"bus"`
	Interrupt LineConfig `yaml:"interrupt"`
	// Power is optional; leave line empty when the rail is not switchable.
	Power LineConfig `yaml:"power"`
}

type LineConfig struct {
	Chip string `yaml:"chip"`
	// Line is a line name (e.g. GPIO17) or a numeric offset.
	Line string `yaml:"line"`
}

type AccelConfig struct {
	ODRHz             float64       `yaml:"odr_hz"`
	FullScaleG        int           `yaml:"full_scale_g"`
	MotionSensitivity int           `yaml:"motion_sensitivity"`
	MotionDebounce    int           `yaml:"motion_debounce"`
	ShockThreshold    int           `yaml:"shock_threshold"`
	WakeDuration      time.Duration `yaml:"wake_duration"`
}

type PublishConfig struct {
	UDP  UDPConfig  `yaml:"udp"`
	MQTT MQTTConfig `yaml:"mqtt"`
}

type UDPConfig struct {
	Enable bool   `yaml:"enable"`
	Dest   string `yaml:"dest"`
}

type MQTTConfig struct {
	Enable   bool   `yaml:"enable"`
	Broker   string `yaml:"broker"`
	ClientID string `yaml:"client_id"`
	Topic    string `yaml:"topic"`
	QoS      int    `yaml:"qos"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}

	if cfg.Sensor.Backend == "" {
		cfg.Sensor.Backend = BackendI2CDev
	}
	switch cfg.Sensor.Backend {
	case BackendI2CDev:
		if cfg.Sensor.Bus == "" {
			cfg.Sensor.Bus = "/dev/i2c-1"
		}
	case BackendPeriph:
		// periph picks the first registered bus for "".
	default:
		return Config{}, fmt.Errorf("sensor.backend must be %q or %q", BackendI2CDev, BackendPeriph)
	}
	if cfg.Sensor.Interrupt.Line == "" {
		return Config{}, fmt.Errorf("sensor.interrupt.line is required")
	}

	// Accelerometer defaults.
	if cfg.Accel.ODRHz == 0 {
		cfg.Accel.ODRHz = 25
	}
	if cfg.Accel.FullScaleG == 0 {
		cfg.Accel.FullScaleG = 4
	}
	if _, err := accel.ODRFromHz(cfg.Accel.ODRHz); err != nil {
		return Config{}, fmt.Errorf("accel.odr_hz must be one of 12.5, 25, 50, 100, 200")
	}
	if _, err := accel.FullScaleFromG(cfg.Accel.FullScaleG); err != nil {
		return Config{}, fmt.Errorf("accel.full_scale_g must be one of 2, 4, 8, 16")
	}
	if cfg.Accel.MotionSensitivity < 0 || cfg.Accel.MotionSensitivity > 255 {
		return Config{}, fmt.Errorf("accel.motion_sensitivity must be in 0..255")
	}
	if cfg.Accel.MotionDebounce < 0 || cfg.Accel.MotionDebounce > 3 {
		return Config{}, fmt.Errorf("accel.motion_debounce must be in 0..3")
	}
	if cfg.Accel.ShockThreshold < 0 || cfg.Accel.ShockThreshold > 255 {
		return Config{}, fmt.Errorf("accel.shock_threshold must be in 0..255")
	}
	if cfg.Accel.WakeDuration < 0 {
		return Config{}, fmt.Errorf("accel.wake_duration must be >= 0")
	}

	if cfg.Publish.UDP.Enable && cfg.Publish.UDP.Dest == "" {
		return Config{}, fmt.Errorf("publish.udp.dest is required when publish.udp.enable is true")
	}
	if cfg.Publish.MQTT.Enable {
		if cfg.Publish.MQTT.Broker == "" {
			return Config{}, fmt.Errorf("publish.mqtt.broker is required when publish.mqtt.enable is true")
		}
		if cfg.Publish.MQTT.QoS < 0 || cfg.Publish.MQTT.QoS > 2 {
			return Config{}, fmt.Errorf("publish.mqtt.qos must be 0, 1 or 2")
		}
	}
	if cfg.Publish.MQTT.ClientID == "" {
		cfg.Publish.MQTT.ClientID = "accelmon"
	}
	if cfg.Publish.MQTT.Topic == "" {
		cfg.Publish.MQTT.Topic = "accelwake/events"
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if _, err := zapcore.ParseLevel(cfg.Log.Level); err != nil {
		return Config{}, fmt.Errorf("log.level %q is not a valid level", cfg.Log.Level)
	}

	return cfg, nil
}

// Driver converts the validated accelerometer section to a driver
// configuration delivering to cb.
func (a AccelConfig) Driver(cb accel.Callback) (accel.Config, error) {
	odr, err := accel.ODRFromHz(a.ODRHz)
	if err != nil {
		return accel.Config{}, err
	}
	fs, err := accel.FullScaleFromG(a.FullScaleG)
	if err != nil {
		return accel.Config{}, err
	}
	return accel.Config{
		MotionSensitivity: uint8(a.MotionSensitivity),
		MotionDebounce:    uint8(a.MotionDebounce),
		ShockThreshold:    uint8(a.ShockThreshold),
		WakeDuration:      a.WakeDuration,
		ODR:               odr,
		FS:                fs,
		Callback:          cb,
	}, nil
}
