package permissions

/*
#cgo CFLAGS: -x objective-c -fmodules
#cgo LDFLAGS: -framework AVFoundation -framework ApplicationServices

#import <AVFoundation/AVFoundation.h>
#import <ApplicationServices/ApplicationServices.h>

int check_microphone_permission() {
    AVAuthorizationStatus status = [AVCaptureDevice authorizationStatusForMediaType:AVMediaTypeAudio];
    return (int)status;
}

int check_camera_permission() {
    AVAuthorizationStatus status = [AVCaptureDevice authorizationStatusForMediaType:AVMediaTypeVideo];
    return (int)status;
}

int check_accessibility_permission() {
    Boolean isAccessibilityEnabled = AXIsProcessTrusted();
    return isAccessibilityEnabled ? 1 : 0;
}
*/
import "C"

import (
	"fmt"
	"os/exec"
)

// PermissionStatus mirrors AVAuthorizationStatus
type PermissionStatus int

const (
	PermissionNotDetermined PermissionStatus = 0
	PermissionRestricted    PermissionStatus = 1 // parental controls or MDM
	PermissionDenied        PermissionStatus = 2
	PermissionAuthorized    PermissionStatus = 3
)

func (ps PermissionStatus) String() string {
	switch ps {
	case PermissionNotDetermined:
		return "NotDetermined"
	case PermissionRestricted:
		return "Restricted"
	case PermissionDenied:
		return "Denied"
	case PermissionAuthorized:
		return "Authorized"
	default:
		return "Unknown"
	}
}

// Kind is a privacy permission the coach depends on
type Kind int

const (
	Microphone Kind = iota
	Camera          // optional, the session falls back to audio only
	Accessibility   // global hotkey
)

// Kinds lists every permission in display order
var Kinds = []Kind{Microphone, Camera, Accessibility}

func (k Kind) String() string {
	switch k {
	case Microphone:
		return "microphone"
	case Camera:
		return "camera"
	case Accessibility:
		return "accessibility"
	default:
		return "unknown"
	}
}

// SettingsURL is the System Settings pane for k
func (k Kind) SettingsURL() string {
	switch k {
	case Microphone:
		return "x-apple.systempreferences:com.apple.preference.security?Privacy_Microphone"
	case Camera:
		return "x-apple.systempreferences:com.apple.preference.security?Privacy_Camera"
	case Accessibility:
		return "x-apple.systempreferences:com.apple.preference.security?Privacy_Accessibility"
	default:
		return ""
	}
}

// Opener opens a URL with the system handler
type Opener func(url string) error

func openURL(url string) error {
	return exec.Command("open", url).Run()
}

// PermissionChecker reports macOS privacy permissions
type PermissionChecker struct {
	query func(Kind) PermissionStatus
	open  Opener
}

// NewPermissionChecker creates a checker backed by AVFoundation and the accessibility API
func NewPermissionChecker() *PermissionChecker {
	return NewPermissionCheckerWith(systemStatus, openURL)
}

// NewPermissionCheckerWith creates a checker with custom status and open functions
func NewPermissionCheckerWith(query func(Kind) PermissionStatus, open Opener) *PermissionChecker {
	return &PermissionChecker{query: query, open: open}
}

func systemStatus(k Kind) PermissionStatus {
	switch k {
	case Microphone:
		return PermissionStatus(C.check_microphone_permission())
	case Camera:
		return PermissionStatus(C.check_camera_permission())
	case Accessibility:
		if C.check_accessibility_permission() == 1 {
			return PermissionAuthorized
		}
		return PermissionDenied
	default:
		return PermissionNotDetermined
	}
}

// Status returns the current status of k
func (pc *PermissionChecker) Status(k Kind) PermissionStatus {
	return pc.query(k)
}

// IsMicrophoneAuthorized returns whether microphone permission is granted
func (pc *PermissionChecker) IsMicrophoneAuthorized() bool {
	return pc.Status(Microphone) == PermissionAuthorized
}

// IsCameraAuthorized returns whether camera permission is granted
func (pc *PermissionChecker) IsCameraAuthorized() bool {
	return pc.Status(Camera) == PermissionAuthorized
}

// IsAccessibilityAuthorized returns whether accessibility permission is granted
func (pc *PermissionChecker) IsAccessibilityAuthorized() bool {
	return pc.Status(Accessibility) == PermissionAuthorized
}

// CheckAllPermissions returns the grant state keyed by Kind.String()
func (pc *PermissionChecker) CheckAllPermissions() map[string]bool {
	result := make(map[string]bool, len(Kinds))
	for _, k := range Kinds {
		result[k.String()] = pc.Status(k) == PermissionAuthorized
	}
	return result
}

// Missing returns the permissions not granted, in display order
func (pc *PermissionChecker) Missing() []Kind {
	var missing []Kind
	for _, k := range Kinds {
		if pc.Status(k) != PermissionAuthorized {
			missing = append(missing, k)
		}
	}
	return missing
}

// OpenSettings opens the System Settings pane where k is granted
func (pc *PermissionChecker) OpenSettings(k Kind) error {
	url := k.SettingsURL()
	if url == "" {
		return fmt.Errorf("no settings pane for permission %v", k)
	}
	if err := pc.open(url); err != nil {
		return fmt.Errorf("failed to open settings for %v: %w", k, err)
	}
	return nil
}
