// SPDX-FileCopyrightText: 2024 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux

package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/warthog618/go-sevenseg"
	"github.com/warthog618/go-sevenseg/clock"
	"github.com/warthog618/go-sevenseg/device/beaglebone"
	"github.com/warthog618/go-sevenseg/display"
)

func init() {
	clockCmd.Flags().StringVarP(&clockOpts.Format, "format", "f", "24h", "the hour format: 12h or 24h")
	clockCmd.Flags().DurationVarP(&clockOpts.Dwell, "dwell", "d", display.DefaultDwell, "the period each digit is displayed per sweep")
	rootCmd.AddCommand(clockCmd)
}

var (
	clockCmd = &cobra.Command{
		Use:   "clock [flags]",
		Short: "Display the time on the four digit display",
		Long:  `Display the current local time on the multiplexed four digit display until interrupted.`,
		Args:  cobra.NoArgs,
		Run:   runClock,
	}
	clockOpts = struct {
		Format string
		Dwell  time.Duration
	}{}
)

func runClock(cmd *cobra.Command, args []string) {
	f, err := clock.ParseFormat(clockOpts.Format)
	if err != nil {
		logErr(cmd, err)
		os.Exit(1)
	}
	log := newLogger().WithField("prefix", "clock")
	l, release, err := newLeaser(log)
	if err != nil {
		logErr(cmd, err)
		os.Exit(1)
	}
	defer release()
	m, err := display.NewMultiplexed(l,
		display.Pins{Segments: beaglebone.Segments, Digits: beaglebone.Digits},
		display.WithDigitPolarity(sevenseg.ActiveLow),
		display.WithDwell(clockOpts.Dwell),
		display.WithConsumer("segctl-clock"))
	if err != nil {
		logErr(cmd, err)
		os.Exit(1)
	}
	defer m.Close()
	ctx, cancel := signalContext()
	defer cancel()
	log.WithField("format", f).Info("displaying time")
	if err := clock.New(m, f).Run(ctx); err != nil {
		logErr(cmd, err)
		m.Close()
		release()
		os.Exit(1)
	}
}
