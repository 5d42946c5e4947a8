package capture

import "context"

// Unavailable is a device that never opens
type Unavailable struct{}

// Open always fails with ErrDeviceUnavailable
func (Unavailable) Open(_ context.Context, wantVideo bool) (Stream, error) {
	return nil, &Error{Kind: KindDeviceUnavailable, Video: wantVideo}
}

// Denied is a device whose access is always refused
type Denied struct{}

// Open always fails with ErrPermissionDenied
func (Denied) Open(_ context.Context, wantVideo bool) (Stream, error) {
	return nil, &Error{Kind: KindPermissionDenied, Video: wantVideo}
}
