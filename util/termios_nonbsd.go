// Copyright 2022~2024 wangqi. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build !darwin && !freebsd && !netbsd && !openbsd && !windows

package util

import "golang.org/x/sys/unix"

// Linux spells the termios get/set ioctls TCGETS and TCSETS; the BSDs
// use TIOCGETA and TIOCSETA.
const (
	GetTermios = unix.TCGETS
	SetTermios = unix.TCSETS
)
