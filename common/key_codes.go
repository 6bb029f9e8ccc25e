package common

// Virtual key codes for viewer input handling.
// These values match GLFW key codes which use ASCII values for printable keys.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Key
const (
	KeyW     = 87  // W key (ASCII), dolly in
	KeyA     = 65  // A key (ASCII), orbit left
	KeyS     = 83  // S key (ASCII), dolly out
	KeyD     = 68  // D key (ASCII), orbit right
	KeyQ     = 81  // Q key (ASCII), orbit down
	KeyE     = 69  // E key (ASCII), orbit up
	KeyR     = 82  // R key (ASCII), reload source
	KeySpace = 32  // Spacebar (ASCII), toggle depth write
	KeyEsc   = 256 // Escape key (GLFW)

	Key0 = 48 // 0 key (ASCII), no color effect
	Key1 = 49 // 1 key (ASCII), grayscale
	Key2 = 50 // 2 key (ASCII), tint
)

// Mouse buttons reported by the window's mouse callbacks.
const (
	MouseButtonLeft   = 0
	MouseButtonRight  = 1
	MouseButtonMiddle = 2
)
