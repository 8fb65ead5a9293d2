// Copyright 2022~2024 wangqi. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// termemu runs a shell on a pty and mirrors its output through the
// emulator core, passing the bytes through to the real terminal. It is
// a harness for exercising the decoder and the grid against live
// applications.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"sync"

	"github.com/creack/pty"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"
	"golang.org/x/term"

	"github.com/ericwq/termemu/terminal"
	"github.com/ericwq/termemu/util"
)

var usage = `Usage:
  termemu [--scrollback N] [--verbose] [command ...]

Options:
  --scrollback N   lines of scrollback to keep (default 5000)
  --verbose        log unhandled sequences to stderr
  command          program to run, default $SHELL
`

func main() {
	var (
		scrollback int
		verbose    bool
	)
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.IntVar(&scrollback, "scrollback", 5000, "lines of scrollback")
	flag.BoolVar(&verbose, "verbose", false, "log unhandled sequences")
	flag.Parse()

	if verbose {
		util.Logger.CreateLogger(os.Stderr, false, util.LevelTrace)
	}

	if err := run(flag.Args(), scrollback); err != nil {
		fmt.Fprintf(os.Stderr, "termemu: %s\n", err)
		os.Exit(1)
	}
}

func run(args []string, scrollback int) error {
	shell := os.Getenv("SHELL")
	if shell == "" {
		shell = "/bin/sh"
	}
	var cmd *exec.Cmd
	if len(args) > 0 {
		cmd = exec.Command(args[0], args[1:]...)
	} else {
		cmd = exec.Command(shell)
	}

	winSize, err := unix.IoctlGetWinsize(int(os.Stdin.Fd()), unix.TIOCGWINSZ)
	if err != nil {
		return fmt.Errorf("get window size: %w", err)
	}

	ptmx, err := pty.StartWithSize(cmd, util.ConvertWinsize(winSize))
	if err != nil {
		return fmt.Errorf("start %s: %w", cmd.Path, err)
	}
	defer ptmx.Close()

	if ok, _ := util.CheckIUTF8(int(ptmx.Fd())); !ok {
		util.SetIUTF8(int(ptmx.Fd()))
	}

	oldState, err := term.MakeRaw(int(os.Stdin.Fd()))
	if err != nil {
		return fmt.Errorf("raw mode: %w", err)
	}
	defer term.Restore(int(os.Stdin.Fd()), oldState)

	emu := terminal.NewTerminal(
		int(winSize.Row), int(winSize.Col),
		int(winSize.Xpixel), int(winSize.Ypixel),
		scrollback, nil)
	host := &terminal.WriterHost{
		W:  terminal.NewLockedWriter(ptmx),
		CB: &terminal.MemoryClipboard{},
	}
	var emuMutex sync.Mutex

	winch := make(chan os.Signal, 1)
	signal.Notify(winch, unix.SIGWINCH)
	defer signal.Stop(winch)

	var g errgroup.Group

	g.Go(func() error {
		for range winch {
			ws, err := unix.IoctlGetWinsize(int(os.Stdin.Fd()), unix.TIOCGWINSZ)
			if err != nil {
				continue
			}
			pty.Setsize(ptmx, util.ConvertWinsize(ws))
			emuMutex.Lock()
			emu.Resize(int(ws.Row), int(ws.Col), int(ws.Xpixel), int(ws.Ypixel))
			emuMutex.Unlock()
		}
		return nil
	})

	// keystrokes go straight to the pty; the application echoes back
	g.Go(func() error {
		io.Copy(ptmx, os.Stdin)
		return nil
	})

	// application output runs through the emulator and on to the screen
	g.Go(func() error {
		defer func() {
			signal.Stop(winch)
			close(winch)
		}()
		buf := make([]byte, 16384)
		for {
			n, err := ptmx.Read(buf)
			if n > 0 {
				emuMutex.Lock()
				if aerr := emu.Advance(buf[:n], host); aerr != nil {
					util.Logger.Warn("advance", "error", aerr)
				}
				emuMutex.Unlock()
				if _, werr := os.Stdout.Write(buf[:n]); werr != nil {
					return werr
				}
			}
			if err != nil {
				// the pty read fails when the child exits
				return nil
			}
		}
	})

	err = g.Wait()
	cmd.Wait()
	return err
}
