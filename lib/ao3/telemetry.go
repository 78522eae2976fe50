package ao3

import (
	"ao3kit/lib/telemetry"
)

var tracer = telemetry.Tracer("ao3kit.lib.ao3")
