// SPDX-FileCopyrightText: 2024 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/warthog618/go-sevenseg"
	"github.com/warthog618/go-sevenseg/backend/handle"
	"github.com/warthog618/go-sevenseg/device/beaglebone"
)

func init() {
	infoCmd.Flags().IntVarP(&infoOpts.Base, "base", "b", beaglebone.Bands.Base, "the pin number assigned to the first line")
	rootCmd.AddCommand(infoCmd)
}

var (
	infoCmd = &cobra.Command{
		Use:   "info [flags] [line-name]...",
		Short: "Info about GPIO pins",
		Long:  `List the pins discovered on all chips, or the pins of the named lines.`,
		Run:   info,
	}
	infoOpts = struct {
		Base int
	}{}
)

func info(cmd *cobra.Command, args []string) {
	log := newLogger()
	b, err := newBackend(log)
	if err != nil {
		logErr(cmd, err)
		os.Exit(1)
	}
	r := sevenseg.NewRegistry(b,
		sevenseg.WithBase(infoOpts.Base),
		sevenseg.WithLogger(log))
	defer r.Close()
	pp := []int(nil)
	if len(args) == 0 {
		pp, err = r.Pins()
		if err != nil {
			logErr(cmd, err)
			r.Close()
			os.Exit(1)
		}
	}
	rc := 0
	for _, name := range args {
		p, err := r.FindLine(name)
		if err != nil {
			logErr(cmd, err)
			rc = 1
			continue
		}
		pp = append(pp, p)
	}
	for _, p := range pp {
		loc, err := r.Lookup(p)
		if err != nil {
			logErr(cmd, err)
			rc = 1
			continue
		}
		printPin(p, loc.Chip, loc.ChipLabel, loc.Offset, loc.LineName)
		if c, err := r.ControllerFor(p); err == nil {
			if hc, ok := c.(*handle.Chip); ok {
				printState(hc, loc.Offset)
			}
		}
		fmt.Println()
	}
	r.Close()
	os.Exit(rc)
}

func printPin(p int, chip, label string, offset int, name string) {
	if name == "" {
		name = "unnamed"
	} else {
		name = fmt.Sprintf("%q", name)
	}
	fmt.Printf("\tpin %4d: %s [%s] line %3d: %s", p, chip, label, offset, name)
}

// printState completes the pin line with the state reported by the kernel.
func printState(c *handle.Chip, offset int) {
	li, err := c.LineInfo(offset)
	if err != nil {
		return
	}
	consumer := "unused"
	if li.Requested {
		consumer = fmt.Sprintf("%q", li.Consumer)
	}
	direction := "input"
	if li.Output {
		direction = "output"
	}
	fmt.Printf(" %s %s", consumer, direction)
	if li.ActiveLow {
		fmt.Print(" active-low")
	}
}
