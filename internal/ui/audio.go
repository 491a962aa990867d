package ui

import (
	"fmt"
	"unsafe"

	"github.com/veandco/go-sdl2/sdl"
)

// hostSampleRate must match internal/apu's resampler output rate so
// samples reach the device without further conversion.
const hostSampleRate = 48000

// maxQueuedFrames caps how far the audio queue is allowed to grow
// before a frame's samples are dropped, so a slow host never lets
// sound drift seconds behind video.
const maxQueuedFrames = 4

func openAudio() (sdl.AudioDeviceID, error) {
	spec := sdl.AudioSpec{
		Freq:     hostSampleRate,
		Format:   sdl.AUDIO_S16SYS,
		Channels: 2,
		Samples:  1024,
	}
	dev, err := sdl.OpenAudioDevice("", false, &spec, nil, 0)
	if err != nil {
		return 0, fmt.Errorf("open audio device: %w", err)
	}
	sdl.PauseAudioDevice(dev, false)
	return dev, nil
}

// queueAudio drains the emulator's accumulated samples and queues them
// on the device, dropping a frame's worth of audio rather than letting
// the queue grow unbounded when the host falls behind.
func (u *UI) queueAudio() {
	if u.audioDev == 0 {
		return
	}
	samples := u.emu.DrainAudio()
	if len(samples) == 0 {
		return
	}

	frameBytes := uint32(len(samples) * 2) // int16 = 2 bytes
	maxQueuedBytes := frameBytes * maxQueuedFrames
	if sdl.GetQueuedAudioSize(u.audioDev) > maxQueuedBytes {
		return
	}

	bytes := unsafe.Slice((*byte)(unsafe.Pointer(&samples[0])), len(samples)*2)
	if err := sdl.QueueAudio(u.audioDev, bytes); err != nil {
		fmt.Printf("ui: queue audio: %v\n", err)
	}
}
