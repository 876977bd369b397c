// SPDX-FileCopyrightText: 2024 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(detectCmd)
}

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Detect available GPIO chips",
	Long:  `List all GPIO chips, print their labels and number of GPIO lines.`,
	Args:  cobra.NoArgs,
	Run:   detect,
}

func detect(cmd *cobra.Command, args []string) {
	b, err := newBackend(newLogger())
	if err != nil {
		logErr(cmd, err)
		os.Exit(1)
	}
	cc, err := b.Chips()
	if err != nil {
		logErr(cmd, err)
		os.Exit(1)
	}
	rc := 0
	for _, name := range cc {
		c, err := b.OpenChip(name)
		if err != nil {
			logErr(cmd, err)
			rc = 1
			continue
		}
		fmt.Printf("%s [%s] (%d lines)\n", c.Name(), c.Label(), c.Lines())
		c.Close()
	}
	os.Exit(rc)
}
