package audio

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gordonklaus/portaudio"

	"github.com/yok-tottii/EmpathyMirror/internal/capture"
)

// PortAudioDevice opens the microphone through PortAudio.
// The camera track is gated on the OS permission only; frames are never read.
type PortAudioDevice struct {
	config Config
	auth   Authorizer
	mu     sync.Mutex
	open   int
}

// NewPortAudioDevice initializes PortAudio and returns a capture device
func NewPortAudioDevice(config Config, auth Authorizer) (*PortAudioDevice, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize PortAudio: %w", err)
	}
	if auth == nil {
		auth = AllowAll{}
	}

	return &PortAudioDevice{
		config: config,
		auth:   auth,
	}, nil
}

// ListDevices returns a list of available audio input devices
func (d *PortAudioDevice) ListDevices() ([]InputDevice, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}

	defaultInput, err := portaudio.DefaultInputDevice()
	if err != nil {
		// デフォルトが取れなくても一覧は返す
		defaultInput = nil
	}

	var result []InputDevice
	for i, dev := range devices {
		if dev.MaxInputChannels <= 0 {
			continue
		}
		result = append(result, InputDevice{
			ID:        i,
			Name:      dev.Name,
			IsDefault: defaultInput != nil && dev.Name == defaultInput.Name,
		})
	}

	return result, nil
}

// Open implements capture.Device
func (d *PortAudioDevice) Open(ctx context.Context, wantVideo bool) (capture.Stream, error) {
	if !d.auth.IsMicrophoneAuthorized() {
		return nil, &capture.Error{Kind: capture.KindPermissionDenied, Video: wantVideo,
			Err: fmt.Errorf("microphone not authorized")}
	}
	if wantVideo && !d.auth.IsCameraAuthorized() {
		return nil, &capture.Error{Kind: capture.KindPermissionDenied, Video: true,
			Err: fmt.Errorf("camera not authorized")}
	}
	if err := ctx.Err(); err != nil {
		return nil, &capture.Error{Kind: capture.KindDeviceUnavailable, Video: wantVideo, Err: err}
	}

	params, err := d.streamParameters()
	if err != nil {
		return nil, &capture.Error{Kind: capture.KindDeviceUnavailable, Video: wantVideo, Err: err}
	}

	s := &micStream{video: wantVideo, owner: d}
	stream, err := portaudio.OpenStream(params, s.callback)
	if err != nil {
		return nil, &capture.Error{Kind: capture.KindDeviceUnavailable, Video: wantVideo,
			Err: fmt.Errorf("failed to open stream: %w", err)}
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return nil, &capture.Error{Kind: capture.KindDeviceUnavailable, Video: wantVideo,
			Err: fmt.Errorf("failed to start stream: %w", err)}
	}
	s.stream = stream

	d.mu.Lock()
	d.open++
	d.mu.Unlock()

	return s, nil
}

// SetDeviceID selects the input device used by the next Open. -1 means the system default.
func (d *PortAudioDevice) SetDeviceID(id int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.config.DeviceID = id
}

// DeviceID returns the selected input device
func (d *PortAudioDevice) DeviceID() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.config.DeviceID
}

func (d *PortAudioDevice) streamParameters() (portaudio.StreamParameters, error) {
	d.mu.Lock()
	config := d.config
	d.mu.Unlock()

	var device *portaudio.DeviceInfo
	var err error

	if config.DeviceID == -1 {
		device, err = portaudio.DefaultInputDevice()
		if err != nil {
			return portaudio.StreamParameters{}, fmt.Errorf("failed to get default input device: %w", err)
		}
	} else {
		devices, err := portaudio.Devices()
		if err != nil {
			return portaudio.StreamParameters{}, fmt.Errorf("failed to list devices: %w", err)
		}
		if config.DeviceID < 0 || config.DeviceID >= len(devices) {
			return portaudio.StreamParameters{}, fmt.Errorf("invalid device ID: %d", config.DeviceID)
		}
		device = devices[config.DeviceID]
	}

	if device.MaxInputChannels <= 0 {
		return portaudio.StreamParameters{}, fmt.Errorf("selected device '%s' (ID: %d) has no input channels (output-only device)",
			device.Name, config.DeviceID)
	}

	var latency time.Duration
	switch config.Latency {
	case HighStability:
		latency = device.DefaultHighInputLatency
	default:
		latency = device.DefaultLowInputLatency
	}

	return portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   device,
			Channels: config.Channels,
			Latency:  latency,
		},
		SampleRate:      float64(config.SampleRate),
		FramesPerBuffer: 1024,
	}, nil
}

// OpenStreams returns how many streams are currently open
func (d *PortAudioDevice) OpenStreams() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.open
}

// Close terminates PortAudio
func (d *PortAudioDevice) Close() error {
	if err := portaudio.Terminate(); err != nil {
		return fmt.Errorf("failed to terminate PortAudio: %w", err)
	}
	return nil
}

// micStream is an open PortAudio input stream
type micStream struct {
	stream *portaudio.Stream
	video  bool
	owner  *PortAudioDevice
	frames atomic.Uint64
	once   sync.Once
}

// callback drops the samples; only the frame count is kept
func (s *micStream) callback(in []int16) {
	s.frames.Add(uint64(len(in)))
}

// Video reports whether the camera track was granted
func (s *micStream) Video() bool {
	return s.video
}

// Frames returns the number of samples delivered so far
func (s *micStream) Frames() uint64 {
	return s.frames.Load()
}

// Close stops and closes the stream. Later calls return nil.
func (s *micStream) Close() error {
	var err error
	s.once.Do(func() {
		s.owner.mu.Lock()
		s.owner.open--
		s.owner.mu.Unlock()

		if stopErr := s.stream.Stop(); stopErr != nil {
			err = fmt.Errorf("failed to stop stream: %w", stopErr)
		}
		if closeErr := s.stream.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close stream: %w", closeErr)
		}
	})
	return err
}
