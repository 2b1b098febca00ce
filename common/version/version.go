package version

import (
	"github.com/blang/semver"
)

var CURRENT_VERSION = semver.MustParse("0.1.0")

// Wire protocol version carried in every message header. Only version
// 0 of the qi protocol exists.
const PROTOCOL_VERSION uint16 = 0
