package wallet

import (
	"fmt"
	"strings"
)

// Platform is the handset platform whose wallet capabilities are emulated.
type Platform string

const (
	PlatformIOS     Platform = "ios"
	PlatformAndroid Platform = "android"
)

// ParsePlatform accepts "ios" or "android" in any case.
func ParsePlatform(s string) (Platform, error) {
	switch p := Platform(strings.ToLower(strings.TrimSpace(s))); p {
	case PlatformIOS, PlatformAndroid:
		return p, nil
	default:
		return "", fmt.Errorf("unknown platform %q (want ios or android)", s)
	}
}

// Supports reports whether the platform offers a. Checking, removing and
// viewing individual passes exist only on iOS.
func (p Platform) Supports(a Action) bool {
	switch a {
	case ActionCanAddPasses, ActionAddPass:
		return p == PlatformIOS || p == PlatformAndroid
	case ActionHasPass, ActionRemovePass, ActionViewPass:
		return p == PlatformIOS
	default:
		return false
	}
}

// Actions returns the actions the platform supports in display order.
func (p Platform) Actions() []Action {
	var out []Action
	for _, a := range AllActions {
		if p.Supports(a) {
			out = append(out, a)
		}
	}
	return out
}
