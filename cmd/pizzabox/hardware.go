package main

import (
	"fmt"
	"log/slog"

	"pizzabox/internal/config"
	"pizzabox/internal/gpio"
	"pizzabox/internal/hal"
	"pizzabox/internal/link"
	"pizzabox/internal/media"
	"pizzabox/internal/session"
)

// openBox opens the UART and GPIO lines and composes the hardware facade.
// The caller owns the returned box and must Close it.
func openBox(cfg *config.Config, logger *slog.Logger) (*hal.Box, error) {
	pins, err := gpio.OpenPins(gpio.PinConfig{
		Root:         cfg.GPIO.SysfsRoot,
		LidPin:       cfg.GPIO.LidPin,
		LidActiveLow: cfg.GPIO.LidActiveLow,
		HeloOutPin:   cfg.GPIO.HeloOutPin,
		HeloInPin:    cfg.GPIO.HeloInPin,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("open gpio: %w", err)
	}
	port, err := link.OpenSerial(link.SerialOptions{
		Device:      cfg.Serial.Device,
		BaudRate:    cfg.Serial.BaudRate,
		ReadTimeout: cfg.ReadTimeout(),
	})
	if err != nil {
		_ = pins.Close()
		return nil, err
	}
	l := link.New(port, pins, link.Options{
		HelloTimeout: cfg.HelloTimeout(),
		DrainLimit:   cfg.Serial.DrainLimit,
		Logger:       logger,
	})
	return hal.New(hal.Components{
		Link:     l,
		Lines:    pins,
		Player:   media.NewPlayer(cfg.Media.Player, logger),
		Recorder: media.NewRecorder(cfg.Media.Recorder, cfg.Media.SampleRate, logger),
		Camera: media.NewCamera(media.CameraOptions{
			VideoBinary: cfg.Media.Video,
			StillBinary: cfg.Media.Still,
			VideoWidth:  cfg.Media.VideoWidth,
			VideoHeight: cfg.Media.VideoHeight,
			PhotoWidth:  cfg.Media.PhotoWidth,
			PhotoHeight: cfg.Media.PhotoHeight,
		}, logger),
		HelloTimeout: cfg.HelloTimeout(),
		Logger:       logger,
	}), nil
}

func newCorrector(cfg *config.Config, logger *slog.Logger) *media.Corrector {
	return media.NewCorrector(media.CorrectorOptions{
		FFmpeg:       cfg.Media.FFmpeg,
		FFprobe:      cfg.Media.FFprobe,
		Keystone:     cfg.Media.Keystone,
		Rotation:     cfg.Media.Rotation,
		DeleteSource: cfg.Media.DeleteSource,
	}, logger)
}

func libraryFor(cfg *config.Config) session.Library {
	return session.Library{
		StoryDir:      cfg.Paths.StoryDir,
		SFXDir:        cfg.Paths.SFXDir,
		RecordingsDir: cfg.Paths.RecordingsDir,
	}
}
