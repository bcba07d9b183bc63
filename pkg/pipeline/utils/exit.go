/*
 * Copyright (C) 2022 IBM, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 *
 */

package utils

import (
	"context"
	"os/signal"
	"sync"
	"syscall"

	"github.com/sirupsen/logrus"
)

var elog = logrus.WithField("component", "utils.Exit")

// exitState fans a single exit signal out to every goroutine that asked for it.
type exitState struct {
	sync.Mutex
	waiters []chan struct{}
	fired   bool
}

var exit = &exitState{}

func (e *exitState) add(ch chan struct{}) {
	e.Lock()
	defer e.Unlock()
	if e.fired {
		close(ch)
		return
	}
	e.waiters = append(e.waiters, ch)
}

func (e *exitState) fire() {
	e.Lock()
	defer e.Unlock()
	if e.fired {
		return
	}
	e.fired = true
	for _, ch := range e.waiters {
		close(ch)
	}
	e.waiters = nil
}

func (e *exitState) reset() {
	e.Lock()
	defer e.Unlock()
	e.waiters = nil
	e.fired = false
}

// RegisterExitChannel arranges for ch to be closed on exit. It is closed right away when
// the exit already happened.
func RegisterExitChannel(ch chan struct{}) {
	exit.add(ch)
}

// ExitChannel returns a new channel that is closed on exit.
func ExitChannel() <-chan struct{} {
	ch := make(chan struct{})
	exit.add(ch)
	return ch
}

// CloseExitChannels triggers the exit without a signal.
func CloseExitChannels() {
	exit.fire()
}

// SetupElegantExit clears previous registrations and triggers the exit on SIGINT or
// SIGTERM.
func SetupElegantExit() {
	exit.reset()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ctx.Done()
		stop()
		elog.Info("exit signal received, stopping")
		exit.fire()
	}()
	elog.Debugf("waiting for SIGINT or SIGTERM")
}
