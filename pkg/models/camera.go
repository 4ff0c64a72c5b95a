package models

// DeviceInfo mirrors the ONVIF GetDeviceInformation response.
type DeviceInfo struct {
	Manufacturer    string `json:"manufacturer"`
	Model           string `json:"model"`
	FirmwareVersion string `json:"firmware_version"`
	SerialNumber    string `json:"serial_number"`
	HardwareID      string `json:"hardware_id"`
}

// Profile is a device-advertised media profile, identified by an opaque token.
type Profile struct {
	Token string `json:"token"`
	Name  string `json:"name"`
}

// Preset is a device-stored PTZ position. The token is camera-assigned (or
// caller-assigned on save); the display name may be empty.
type Preset struct {
	Token string `json:"token"`
	Name  string `json:"name"`
}

// PTZVector is either an absolute target position or a continuous-move
// velocity, depending on the operation it is passed to. Pan and tilt are
// normalized to [-1, 1], zoom to [0, 1] for positions.
type PTZVector struct {
	Pan  float64 `json:"pan"`
	Tilt float64 `json:"tilt"`
	Zoom float64 `json:"zoom"`
}
