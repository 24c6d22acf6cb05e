package domain

// Platform constants
const (
	PlatformWhatsApp = "whatsapp"
	PlatformTelegram = "telegram"
	PlatformMatrix   = "matrix"
)

// KnownPlatforms lists every platform the aggregator can link
var KnownPlatforms = []string{
	PlatformWhatsApp,
	PlatformTelegram,
	PlatformMatrix,
}

// IsKnownPlatform reports whether the platform identifier is recognized
func IsKnownPlatform(platform string) bool {
	for _, p := range KnownPlatforms {
		if p == platform {
			return true
		}
	}
	return false
}

// Login types accepted by the link handshake backend
const (
	LoginTypeQR    = "qr"
	LoginTypePhone = "phone"
)

// App state keys persisted across restarts
const (
	StateKeyLastActivePlatform = "last_active_platform"
)
