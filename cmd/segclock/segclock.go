// SPDX-FileCopyrightText: 2024 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux

// A clock displayed on a multiplexed four digit seven segment display.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	prefixed "github.com/BertoldVdb/logrus-prefixed-formatter"
	"github.com/sirupsen/logrus"
	"github.com/warthog618/config"
	"github.com/warthog618/config/blob"
	"github.com/warthog618/config/blob/decoder/json"
	"github.com/warthog618/config/dict"
	"github.com/warthog618/config/env"
	"github.com/warthog618/config/pflag"
	"github.com/warthog618/go-sevenseg"
	"github.com/warthog618/go-sevenseg/backend/cdev"
	"github.com/warthog618/go-sevenseg/backend/handle"
	"github.com/warthog618/go-sevenseg/backend/sysfs"
	"github.com/warthog618/go-sevenseg/clock"
	"github.com/warthog618/go-sevenseg/device/beaglebone"
	"github.com/warthog618/go-sevenseg/display"
	"github.com/warthog618/go-sevenseg/segment"
)

var version = "undefined"

// The pin assignments default to the BeagleBone display board, but can be
// altered via configuration (env, flag or config file).
func main() {
	cfg := loadConfig()
	log := newLogger(cfg.MustGet("log.level").String())
	f, err := clock.ParseFormat(cfg.MustGet("format").String())
	if err != nil {
		die(err.Error())
	}
	b, err := newBackend(cfg.MustGet("backend").String(), log)
	if err != nil {
		die(err.Error())
	}
	r := sevenseg.NewRegistry(b,
		sevenseg.WithBase(cfg.MustGet("base").Int()),
		sevenseg.WithLogger(log))
	defer r.Close()
	m, err := display.NewMultiplexed(r,
		loadPins(cfg),
		display.WithDigitPolarity(digitPolarity(cfg)),
		display.WithDwell(cfg.MustGet("dwell").Duration()),
		display.WithConsumer("segclock"))
	if err != nil {
		r.Close()
		die(err.Error())
	}
	defer m.Close()
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	log.WithFields(logrus.Fields{
		"format":  f,
		"backend": cfg.MustGet("backend").String(),
		"dwell":   cfg.MustGet("dwell").Duration(),
	}).Info("started")
	if err := clock.New(m, f).Run(ctx); err != nil {
		log.WithError(err).Error("display failed")
		m.Close()
		r.Close()
		os.Exit(1)
	}
	log.Info("stopped")
}

func loadPins(cfg *config.Config) display.Pins {
	var pins display.Pins
	for i, s := range segment.Segments {
		pins.Segments[i] = cfg.MustGet("segment."+strings.ToLower(s.String())).Int()
	}
	n := cfg.MustGet("digits").Int()
	for i := 0; i < n; i++ {
		pins.Digits = append(pins.Digits, cfg.MustGet(fmt.Sprintf("digit.%d", i)).Int())
	}
	return pins
}

func digitPolarity(cfg *config.Config) sevenseg.Polarity {
	if cfg.MustGet("digit.active-low").Bool() {
		return sevenseg.ActiveLow
	}
	return sevenseg.ActiveHigh
}

func newBackend(name string, log *logrus.Entry) (sevenseg.Backend, error) {
	switch name {
	case "cdev":
		return cdev.New(cdev.WithLogger(log)), nil
	case "handle":
		return handle.New(), nil
	case "sysfs":
		return sysfs.New(sysfs.WithLogger(log)), nil
	}
	return nil, fmt.Errorf("invalid backend: %s", name)
}

func newLogger(level string) *logrus.Entry {
	logger := logrus.New()
	l, err := logrus.ParseLevel(level)
	if err != nil {
		die(fmt.Sprintf("invalid log level: %s", level))
	}
	logger.SetLevel(l)
	f := new(prefixed.TextFormatter)
	f.TimestampFormat = "2006-01-02 15:04:05"
	f.FullTimestamp = true
	logger.SetFormatter(f)
	return logrus.NewEntry(logger).WithField("prefix", "segclock")
}

func loadConfig() *config.Config {
	defaultConfig := map[string]interface{}{
		"help":    false,
		"version": false,
		"format":  "24h",
		"backend": "cdev",
		"base":    beaglebone.Bands.Base,
		"dwell":   display.DefaultDwell.String(),
		"log": map[string]interface{}{
			"level": "info",
		},
		"digits": len(beaglebone.Digits),
		"digit": map[string]interface{}{
			"0":          beaglebone.Digits[0],
			"1":          beaglebone.Digits[1],
			"2":          beaglebone.Digits[2],
			"3":          beaglebone.Digits[3],
			"active-low": true,
		},
		"segment": map[string]interface{}{
			"a":  beaglebone.Segments[segment.A],
			"b":  beaglebone.Segments[segment.B],
			"c":  beaglebone.Segments[segment.C],
			"d":  beaglebone.Segments[segment.D],
			"e":  beaglebone.Segments[segment.E],
			"f":  beaglebone.Segments[segment.F],
			"g":  beaglebone.Segments[segment.G],
			"dp": beaglebone.Segments[segment.DP],
		},
	}
	def := dict.New(dict.WithMap(defaultConfig))
	flags := []pflag.Flag{
		{Short: 'h', Name: "help", Options: pflag.IsBool},
		{Short: 'v', Name: "version", Options: pflag.IsBool},
		{Short: 'f', Name: "format"},
		{Short: 'b', Name: "backend"},
		{Short: 'c', Name: "config-file"},
		{Name: "dwell"},
		{Name: "log-level"},
	}
	cfg := config.New(
		pflag.New(pflag.WithFlags(flags)),
		env.New(env.WithEnvPrefix("SEGCLOCK_")),
		config.WithDefault(def))
	cfg.Append(
		blob.NewConfigFile(cfg, "config.file", "segclock.json", json.NewDecoder()))
	cfg = cfg.GetConfig("", config.WithMust())
	if cfg.MustGet("help").Bool() {
		printHelp()
		os.Exit(0)
	}
	if cfg.MustGet("version").Bool() {
		printVersion()
		os.Exit(0)
	}
	if n := cfg.MustGet("digits").Int(); n < 1 || n > len(beaglebone.Digits) {
		die(fmt.Sprintf("invalid number of digits: %d", n))
	}
	return cfg
}

func die(reason string) {
	fmt.Fprintln(os.Stderr, "segclock: "+reason)
	os.Exit(1)
}

func printHelp() {
	fmt.Printf("Usage: %s [OPTIONS]\n", os.Args[0])
	fmt.Println("Display the local time on a multiplexed seven segment display until the process exits.")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -h, --help:\t\tdisplay this message and exit")
	fmt.Println("  -v, --version:\tdisplay the version and exit")
	fmt.Println("  -f, --format=[12h|24h] (defaults to '24h'):")
	fmt.Println("		\tthe hour format")
	fmt.Println("  -b, --backend=[cdev|handle|sysfs] (defaults to 'cdev'):")
	fmt.Println("		\tthe GPIO interface used to access the lines")
	fmt.Println("  -c, --config-file=FILE:\tread configuration from the JSON file (defaults to 'segclock.json')")
	fmt.Println("  --dwell=DURATION:\tthe period each digit is displayed per sweep (defaults to '3ms')")
	fmt.Println("  --log-level=LEVEL:\tthe minimum level of log messages (defaults to 'info')")
	fmt.Println("")
	fmt.Println("Configuration:")
	fmt.Println("  Settings may also be provided by environment variables prefixed SEGCLOCK_,")
	fmt.Println("  e.g. SEGCLOCK_FORMAT=12h, or by the config file. The config file may also")
	fmt.Println("  remap the pins, e.g. {\"segment\": {\"a\": 546}, \"digit\": {\"0\": 540}}.")
}

func printVersion() {
	fmt.Printf("%s (sevenseg) %s\n", os.Args[0], version)
}
