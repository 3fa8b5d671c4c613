package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"go-sustain/config"
	"go-sustain/debug"
	"go-sustain/midi"
	"go-sustain/plugin"
	"go-sustain/theme"
	"go-sustain/tui"
)

func main() {
	if err := run(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "config file (default ~/.config/go-sustain/config.json)")
	inName := flag.String("in", "", "input port name or substring")
	outName := flag.String("out", "", "output port name or substring")
	palettePath := flag.String("palette", "", "GIMP palette file for the UI")
	headless := flag.Bool("headless", false, "run without the UI until interrupted")
	verbose := flag.Bool("debug", false, "log at debug level")
	flag.Parse()

	// Load config
	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.LoadFile(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}
	if *inName != "" {
		cfg.Input = *inName
	}
	if *outName != "" {
		cfg.Output = *outName
	}

	lvl := cfg.LogLevel
	if *verbose {
		lvl = "debug"
	}
	if err := debug.Enable(cfg.LogFile, lvl); err != nil {
		return err
	}
	defer debug.Disable()

	// Load theme
	var palette *theme.Palette
	if *palettePath != "" {
		if palette, err = theme.LoadGPL(*palettePath); err != nil {
			return err
		}
	}
	th := theme.New(palette)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Open ports
	defer midi.CloseDriver()
	ports, err := midi.ListPorts(ctx)
	if err != nil {
		return err
	}
	in, err := ports.FindIn(cfg.Input)
	if err != nil {
		return err
	}
	out, err := ports.FindOut(cfg.Output)
	if err != nil {
		return err
	}
	send, err := midi.OpenSender(out)
	if err != nil {
		return err
	}
	proc := plugin.NewProcessor(
		plugin.WithMode(cfg.ProcessorMode()),
		plugin.WithReleaseVelocity(cfg.ReleaseVelocity),
	)
	debug.Info("main", "%s params=%v, routing %s -> %s", proc.Info, proc.Info.Params, in.String(), out.String())
	rcfg := midi.DefaultRouterConfig()
	rcfg.BlockPeriod = time.Duration(cfg.BlockMillis) * time.Millisecond
	rcfg.FollowPedal = cfg.FollowPedal
	router := midi.NewRouter(proc, midi.ListenPort(in), send, rcfg)

	routerCtx, stopRouter := context.WithCancel(ctx)
	defer stopRouter()
	done := make(chan error, 1)
	go func() { done <- router.Run(routerCtx) }()

	if *headless {
		fmt.Printf("go-sustain: %s -> %s (%s), ctrl+c to stop\n", in.String(), out.String(), proc.Mode())
		select {
		case <-ctx.Done():
		case err := <-done:
			return err
		}
	} else {
		m := tui.NewModel(proc, cfg, th, router.Activity())
		m.InName, m.OutName = in.String(), out.String()
		p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
		if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			stopRouter()
			<-done
			return err
		}
	}

	// Router releases every sustained note before it returns
	stopRouter()
	return <-done
}
