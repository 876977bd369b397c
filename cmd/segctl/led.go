// SPDX-FileCopyrightText: 2024 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/warthog618/go-sevenseg/device/beaglebone"
	"github.com/warthog618/go-sevenseg/led"
)

func init() {
	ledCmd.Flags().IntVarP(&ledOpts.LED, "led", "n", beaglebone.DefaultUserLED, "the user LED to control, 0-3")
	ledCmd.SetHelpTemplate(ledCmd.HelpTemplate() + extendedLEDHelp)
	rootCmd.AddCommand(ledCmd)
}

var extendedLEDHelp = `
Attributes:
  brightness:  0 (off) or 1 (on)
  trigger:     ` + strings.Join(led.Triggers, ", ") + `

With no value the current setting is reported.
`

var (
	ledCmd = &cobra.Command{
		Use:   "led [flags] <brightness|trigger> [value]",
		Short: "Control a user LED",
		Long:  `Set or report the brightness or trigger of a BeagleBone user LED.`,
		Args:  cobra.RangeArgs(1, 2),
		Run:   runLED,
	}
	ledOpts = struct {
		LED int
	}{}
)

func runLED(cmd *cobra.Command, args []string) {
	if ledOpts.LED < 0 || ledOpts.LED > 3 {
		logErr(cmd, errors.Errorf("invalid user LED: %d", ledOpts.LED))
		os.Exit(1)
	}
	l := led.New(beaglebone.UserLED(ledOpts.LED))
	var err error
	switch args[0] {
	case "brightness":
		err = brightness(l, args[1:])
	case "trigger":
		err = trigger(l, args[1:])
	default:
		err = errors.Errorf("unknown attribute: %s", args[0])
	}
	if err != nil {
		logErr(cmd, err)
		os.Exit(1)
	}
}

func brightness(l *led.LED, args []string) error {
	if len(args) == 0 {
		v, err := l.Brightness()
		if err != nil {
			return err
		}
		fmt.Printf("%s brightness=%d\n", l.Name(), v)
		return nil
	}
	v, err := led.ParseBrightness(args[0])
	if err != nil {
		return err
	}
	return l.SetBrightness(v)
}

func trigger(l *led.LED, args []string) error {
	if len(args) == 0 {
		t, err := l.Trigger()
		if err != nil {
			return err
		}
		fmt.Printf("%s trigger=%s\n", l.Name(), t)
		return nil
	}
	return l.SetTrigger(args[0])
}
