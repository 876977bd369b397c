// SPDX-FileCopyrightText: 2024 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux

package main

import (
	"os"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/warthog618/go-sevenseg/counter"
	"github.com/warthog618/go-sevenseg/device/beaglebone"
	"github.com/warthog618/go-sevenseg/display"
)

func init() {
	countCmd.SetHelpTemplate(countCmd.HelpTemplate() + extendedCountHelp)
	rootCmd.AddCommand(countCmd)
}

var extendedCountHelp = `
Modes:
  up:      count from 0 to 10 then repeat
  down:    count from 10 to 0 then repeat
  updown:  count from 0 to 10 and back
  random:  display random digits

Delays:
  The delay is in milliseconds, up to 9999.  Longer delays revert to the
  default of 1000.
`

var countCmd = &cobra.Command{
	Use:   "count <mode> <delay-ms>",
	Short: "Count on the single digit display",
	Long:  `Display a sequence of digits on the single digit display until interrupted.`,
	Args:  cobra.ExactArgs(2),
	Run:   count,
}

func count(cmd *cobra.Command, args []string) {
	mode, err := counter.ParseMode(args[0])
	if err != nil {
		logErr(cmd, err)
		os.Exit(1)
	}
	ms, err := strconv.ParseUint(args[1], 10, 32)
	if err != nil {
		logErr(cmd, err)
		os.Exit(1)
	}
	log := newLogger().WithField("prefix", "count")
	delay, clamped := counter.ClampDelay(time.Duration(ms) * time.Millisecond)
	if clamped {
		log.WithFields(logrus.Fields{
			"requested": args[1] + "ms",
			"delay":     delay,
		}).Warn("delay out of range, using default")
	}
	l, release, err := newLeaser(log)
	if err != nil {
		logErr(cmd, err)
		os.Exit(1)
	}
	defer release()
	d, err := display.New(l, beaglebone.Segments, display.WithConsumer("segctl-count"))
	if err != nil {
		logErr(cmd, err)
		os.Exit(1)
	}
	defer d.Close()
	ctx, cancel := signalContext()
	defer cancel()
	log.WithFields(logrus.Fields{
		"mode":  mode,
		"delay": delay,
	}).Info("counting")
	c := counter.New(d, mode, counter.WithDelay(delay))
	if err := c.Run(ctx); err != nil {
		logErr(cmd, err)
		d.Close()
		release()
		os.Exit(1)
	}
}
