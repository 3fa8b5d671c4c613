package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"

	"go-sustain/midi"
	"go-sustain/render"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}
	if err := run(os.Args[1], os.Args[2:]); err != nil {
		fmt.Printf("Error: %v\n", err)
		if errors.Is(err, midi.ErrPortTimeout) {
			fmt.Println("CoreMIDI is hung. Fix: sudo killall coreaudiod midiserver")
		}
		os.Exit(1)
	}
}

func run(cmd string, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	defer midi.CloseDriver()

	switch cmd {
	case "list":
		return listPorts(ctx)
	case "monitor":
		return monitor(ctx, args)
	case "poll":
		return pollPorts(ctx)
	case "panic":
		return allNotesOff(ctx, args)
	case "render":
		return renderFile(args)
	}
	usage()
	return nil
}

func usage() {
	fmt.Println("MIDI Test Scripts")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  list                 - List all MIDI ports")
	fmt.Println("  monitor [port]       - Print decoded events from an input")
	fmt.Println("  poll                 - Poll for port changes")
	fmt.Println("  panic [port]         - Send all-notes-off on every channel")
	fmt.Println("  render [flags] in out - Apply the sustain pedal to a MIDI file")
}

func listPorts(ctx context.Context) error {
	fmt.Println("(waiting up to 3 seconds...)")
	ports, err := midi.ListPorts(ctx)
	if err != nil {
		return err
	}
	fmt.Println("=== MIDI Input Ports ===")
	for i, name := range ports.InNames() {
		fmt.Printf("  %d: %s\n", i, name)
	}
	fmt.Println("\n=== MIDI Output Ports ===")
	for i, name := range ports.OutNames() {
		fmt.Printf("  %d: %s\n", i, name)
	}
	return nil
}

func portArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return ""
}

func monitor(ctx context.Context, args []string) error {
	ports, err := midi.ListPorts(ctx)
	if err != nil {
		return err
	}
	in, err := ports.FindIn(portArg(args))
	if err != nil {
		return err
	}

	fmt.Printf("Monitoring %s. Ctrl+C to exit.\n", in.String())
	stop, err := midi.ListenPort(in)(func(msg gomidi.Message, ms int32) {
		line := midi.Describe(midi.Decode(msg, 0))
		if down, ok := midi.IsSustainPedal(msg); ok {
			line += fmt.Sprintf("  (pedal %v)", map[bool]string{true: "down", false: "up"}[down])
		}
		fmt.Printf("%8dms  %s\n", ms, line)
	})
	if err != nil {
		return err
	}
	defer stop()

	<-ctx.Done()
	return nil
}

func pollPorts(ctx context.Context) error {
	fmt.Println("Polling for port changes every 2 seconds... Ctrl+C to exit.")

	lastIn, lastOut := "", ""
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		ports, err := midi.ListPorts(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		currentIn := strings.Join(ports.InNames(), ",")
		currentOut := strings.Join(ports.OutNames(), ",")
		if currentIn != lastIn || currentOut != lastOut {
			fmt.Printf("\n[%s] Port change detected!\n", time.Now().Format("15:04:05"))
			fmt.Printf("  Inputs: %v\n", ports.InNames())
			fmt.Printf("  Outputs: %v\n", ports.OutNames())
			lastIn, lastOut = currentIn, currentOut
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func allNotesOff(ctx context.Context, args []string) error {
	ports, err := midi.ListPorts(ctx)
	if err != nil {
		return err
	}
	out, err := ports.FindOut(portArg(args))
	if err != nil {
		return err
	}
	send, err := midi.OpenSender(out)
	if err != nil {
		return err
	}

	fmt.Printf("Sending all-notes-off to %s\n", out.String())
	for ch := uint8(0); ch < 16; ch++ {
		// sustain up first so the synth does not hold the notes itself
		if err := send(gomidi.ControlChange(ch, midi.CCSustain, 0)); err != nil {
			return err
		}
		if err := send(gomidi.ControlChange(ch, 123, 0)); err != nil {
			return err
		}
	}
	return nil
}

func renderFile(args []string) error {
	fs := flag.NewFlagSet("render", flag.ExitOnError)
	keepPedal := fs.Bool("keep-pedal", false, "keep CC64 events in the output")
	velocity := fs.Uint("release-velocity", 0, "velocity of the deferred note-offs (0-127)")
	fs.Parse(args)

	if fs.NArg() != 2 {
		return fmt.Errorf("render needs an input and an output file")
	}
	if *velocity > 127 {
		return fmt.Errorf("release velocity %d out of range 0-127", *velocity)
	}

	st, err := render.Path(fs.Arg(0), fs.Arg(1), render.Options{
		StripPedal:      !*keepPedal,
		ReleaseVelocity: uint8(*velocity),
	})
	if err != nil {
		return err
	}
	fmt.Printf("%d tracks, %d events, %d pedal events, %d note-offs deferred, %d released\n",
		st.Tracks, st.Events, st.Pedals, st.Suppressed, st.Synthesized)
	return nil
}
