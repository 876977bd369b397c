// SPDX-FileCopyrightText: 2024 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux

// A utility to drive the seven segment display boards and user LEDs of a
// BeagleBone Black.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	prefixed "github.com/BertoldVdb/logrus-prefixed-formatter"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/warthog618/go-sevenseg"
	"github.com/warthog618/go-sevenseg/backend/cdev"
	"github.com/warthog618/go-sevenseg/backend/handle"
	"github.com/warthog618/go-sevenseg/backend/sysfs"
	"github.com/warthog618/go-sevenseg/device/beaglebone"
)

var rootOpts = struct {
	Backend  string
	LogLevel string
	Static   bool
}{}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootOpts.Backend, "backend", "cdev", "the GPIO interface used to access lines: cdev, handle or sysfs")
	rootCmd.PersistentFlags().StringVar(&rootOpts.LogLevel, "log-level", "info", "the minimum level of log messages")
	rootCmd.PersistentFlags().BoolVar(&rootOpts.Static, "static", false, "map pins to chips using the fixed BeagleBone banks rather than discovery")
}

var rootCmd = &cobra.Command{
	Use:   "segctl",
	Short: "segctl drives seven segment displays and LEDs",
	Long:  "segctl drives seven segment displays via GPIO lines, and the user LEDs via the LED class, on a BeagleBone Black",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func logErr(cmd *cobra.Command, err error) {
	newLogger().WithField("prefix", cmd.Name()).Error(err)
}

func newLogger() *logrus.Entry {
	logger := logrus.New()
	level, err := logrus.ParseLevel(rootOpts.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	f := new(prefixed.TextFormatter)
	f.TimestampFormat = "2006-01-02 15:04:05"
	f.FullTimestamp = true
	logger.SetFormatter(f)
	return logrus.NewEntry(logger)
}

func newBackend(log *logrus.Entry) (sevenseg.Backend, error) {
	switch rootOpts.Backend {
	case "cdev":
		return cdev.New(cdev.WithLogger(log)), nil
	case "handle":
		return handle.New(), nil
	case "sysfs":
		return sysfs.New(sysfs.WithLogger(log)), nil
	}
	return nil, errors.Errorf("unknown backend: %s", rootOpts.Backend)
}

// newLeaser returns the leaser for the BeagleBone pins, and a function to
// release it.
func newLeaser(log *logrus.Entry) (sevenseg.Leaser, func(), error) {
	b, err := newBackend(log)
	if err != nil {
		return nil, nil, err
	}
	if rootOpts.Static {
		return sevenseg.Pinout{Resolver: beaglebone.Bands, Backend: b}, func() {}, nil
	}
	r := sevenseg.NewRegistry(b,
		sevenseg.WithBase(beaglebone.Bands.Base),
		sevenseg.WithLogger(log))
	if err := r.Discover(); err != nil {
		r.Close()
		return nil, nil, err
	}
	return r, func() { r.Close() }, nil
}

// signalContext returns a context cancelled by SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
