// Command audiodemo opens the default playback device, attaches a
// synthetic sine player and a polyphonic synth to the master mixer, plays
// a short note, and exits. Grounded on
// _examples/shaban-macaudio/examples/engine_demo/main.go's
// create-engine/create-channel/start/stop shape.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/shaban/audioengine/enginex"
	"github.com/shaban/audioengine/format"
	"github.com/shaban/audioengine/midi"
	"github.com/shaban/audioengine/provider"
)

func main() {
	fmt.Println("audioengine demo")
	fmt.Println("=================")

	eng, err := enginex.New(slog.Default())
	if err != nil {
		fmt.Fprintf(os.Stderr, "create engine: %v\n", err)
		os.Exit(1)
	}
	defer eng.Dispose()

	outFormat := format.AudioFormat{SampleRate: 48000, Channels: 2, Encoding: format.EncodingF32}

	devices, err := eng.ListPlaybackDevices()
	if err != nil {
		fmt.Fprintf(os.Stderr, "list playback devices: %v\n", err)
		os.Exit(1)
	}
	deviceID := ""
	if len(devices) > 0 {
		deviceID = devices[0].ID
		fmt.Printf("using playback device: %s\n", devices[0].Name)
	} else {
		fmt.Println("no playback devices found; using backend default")
	}

	dev, err := eng.OpenPlayback(deviceID, outFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open playback: %v\n", err)
		os.Exit(1)
	}

	toneFormat := format.AudioFormat{SampleRate: 48000, Channels: 1, Encoding: format.EncodingF32}
	tone := provider.NewSynthetic(toneFormat, provider.WaveformSine, 440, 0.3, 0)
	sinePlayer := enginex.NewSoundPlayer("demo-tone", tone)
	sinePlayer.SetVolume(0.8)
	sinePlayer.SetPan(0.5)
	dev.Master().AddComponent(sinePlayer)

	synthNode := enginex.NewSynth("demo-synth", float64(outFormat.SampleRate))
	dev.Master().AddComponent(synthNode)

	if err := dev.Start(5 * time.Second); err != nil {
		fmt.Fprintf(os.Stderr, "start device: %v\n", err)
		os.Exit(1)
	}

	sinePlayer.Play()
	fmt.Println("playing a 440Hz tone for 1s...")
	time.Sleep(1 * time.Second)
	sinePlayer.Stop()

	fmt.Println("playing a synth note for 1s...")
	synthNode.Synth().ProcessMessage(midi.NoteOn(0, 69, 100))
	time.Sleep(500 * time.Millisecond)
	synthNode.Synth().ProcessMessage(midi.NoteOff(0, 69))
	time.Sleep(500 * time.Millisecond)

	if err := dev.Stop(5 * time.Second); err != nil {
		fmt.Fprintf(os.Stderr, "stop device: %v\n", err)
	}
	fmt.Println("done")
}
