// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

package sysfs

import (
	"fmt"
	"regexp"

	"github.com/pilebones/go-udev/netlink"
)

// Watcher provides notification that an exported line is available.
type Watcher interface {
	// Watch starts watching for the named line, e.g. gpio42.
	//
	// The returned channel is closed when the line becomes available, and
	// the returned function stops the watch.
	Watch(name string) (<-chan struct{}, func(), error)
}

// UdevWatcher watches for the udev events generated when a line is exported.
//
// The event indicates udev has applied its rules to the line, such as
// setting the permissions of its attributes.
type UdevWatcher struct{}

// Watch starts watching udev for the arrival of the named line.
func (UdevWatcher) Watch(name string) (<-chan struct{}, func(), error) {
	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		return nil, nil, fmt.Errorf("unable to connect to Netlink Kobject UEvent socket: %w", err)
	}
	action := "add"
	matcher := &netlink.RuleDefinition{Action: &action,
		Env: map[string]string{
			"SUBSYSTEM": "gpio",
			"DEVPATH":   "/" + regexp.QuoteMeta(name) + "$",
		}}
	queue := make(chan netlink.UEvent, 1)
	errs := make(chan error, 1)
	quit := conn.Monitor(queue, errs, matcher)
	arrived := make(chan struct{})
	done := make(chan struct{})
	go func() {
		notify := arrived
		for {
			select {
			case <-queue:
				if notify != nil {
					close(notify)
					notify = nil
				}
			case <-errs:
			case <-done:
				drain(queue, errs)
				return
			}
		}
	}()
	stop := func() {
		// quit is buffered, and is checked by the monitor after each send,
		// so once drained the monitor makes at most one more send.
		select {
		case quit <- struct{}{}:
		default:
		}
		conn.Close()
		close(done)
	}
	return arrived, stop, nil
}

// drain empties the monitor channels without blocking.
func drain(queue <-chan netlink.UEvent, errs <-chan error) {
	for {
		select {
		case <-queue:
		case <-errs:
		default:
			return
		}
	}
}
