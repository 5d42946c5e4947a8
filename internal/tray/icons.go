package tray

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"

	"github.com/yok-tottii/EmpathyMirror/internal/session"
)

// Icon files looked up under <executable dir>/assets/icon/
var iconFiles = map[session.Phase]string{
	session.PhaseIdle:      "mirror_idle.png",
	session.PhaseRecording: "mirror_recording.png",
	session.PhasePaused:    "mirror_paused.png",
	session.PhaseStopped:   "mirror_idle.png",
}

// Fallback dot colors per phase
var iconColors = map[session.Phase]color.NRGBA{
	session.PhaseIdle:      {0xE3, 0xE3, 0xE3, 0xFF},
	session.PhaseRecording: {0xF1, 0x9E, 0x39, 0xFF},
	session.PhasePaused:    {0x75, 0xFB, 0x4C, 0xFF},
	session.PhaseStopped:   {0xE3, 0xE3, 0xE3, 0xFF},
}

// loadIcons loads one icon per phase, falling back to a generated dot
func loadIcons(log Logger) map[session.Phase][]byte {
	icons := make(map[session.Phase][]byte, len(iconFiles))
	for phase, name := range iconFiles {
		data, err := loadIconData(name)
		if err != nil {
			log.Debug("icon %s not loaded, using fallback: %v", name, err)
			data = dotIcon(iconColors[phase])
		}
		icons[phase] = data
	}
	return icons
}

// loadIconData reads an icon from the assets directory next to the executable
func loadIconData(filename string) ([]byte, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, err
	}
	return os.ReadFile(filepath.Join(filepath.Dir(exe), "assets", "icon", filename))
}

// dotIcon renders a 16x16 PNG filled circle
func dotIcon(c color.NRGBA) []byte {
	const size = 16
	img := image.NewNRGBA(image.Rect(0, 0, size, size))

	center := float64(size-1) / 2
	radius := float64(size)/2 - 1
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dx, dy := float64(x)-center, float64(y)-center
			if dx*dx+dy*dy <= radius*radius {
				img.SetNRGBA(x, y, c)
			}
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil
	}
	return buf.Bytes()
}
