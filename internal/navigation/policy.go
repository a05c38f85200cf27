package navigation

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownPolicy is returned by ParsePolicy for an unrecognised name.
var ErrUnknownPolicy = errors.New("navigation: unknown policy")

// Policy selects which edges a search follows and which adjacency view
// Route replays.
type Policy int

const (
	// None is the policy of a traveler without a usable drive, or without a ship.
	None Policy = iota
	// Unrestricted follows every hyperspace link.
	Unrestricted
	// Hyperdrive follows hyperspace links the traveler knows about.
	Hyperdrive
	// JumpDrive follows the jump-range neighbor relation to seen systems.
	JumpDrive
)

var policyNames = map[Policy]string{
	None:         "none",
	Unrestricted: "unrestricted",
	Hyperdrive:   "hyperdrive",
	JumpDrive:    "jump-drive",
}

func (p Policy) String() string {
	if name, ok := policyNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Policy(%d)", int(p))
}

// ParsePolicy converts a policy name back to a Policy.
// "jump", "jumpdrive" and "jump drive" are accepted for JumpDrive.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none":
		return None, nil
	case "unrestricted", "all":
		return Unrestricted, nil
	case "hyperdrive", "hyper":
		return Hyperdrive, nil
	case "jump-drive", "jumpdrive", "jump drive", "jump":
		return JumpDrive, nil
	}
	return None, fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
}
