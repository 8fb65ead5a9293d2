// Copyright 2022~2024 wangqi. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package util

import (
	"github.com/creack/pty"
	"golang.org/x/sys/unix"
)

// CheckIUTF8 reports whether the terminal on fd runs with UTF-8 input
// handling.
func CheckIUTF8(fd int) (bool, error) {
	termios, err := unix.IoctlGetTermios(fd, GetTermios)
	if err != nil {
		return false, err
	}
	return termios.Iflag&unix.IUTF8 != 0, nil
}

// SetIUTF8 enables UTF-8 input handling, so kernel line editing erases
// whole multibyte characters instead of single bytes.
func SetIUTF8(fd int) error {
	termios, err := unix.IoctlGetTermios(fd, GetTermios)
	if err != nil {
		return err
	}
	termios.Iflag |= unix.IUTF8
	return unix.IoctlSetTermios(fd, SetTermios, termios)
}

// ConvertWinsize translates an ioctl winsize into the shape creack/pty
// wants, pixel dimensions included.
func ConvertWinsize(ws *unix.Winsize) *pty.Winsize {
	return &pty.Winsize{
		Rows: ws.Row,
		Cols: ws.Col,
		X:    ws.Xpixel,
		Y:    ws.Ypixel,
	}
}
