package main

import (
	"ao3kit/cmd/ao3/commands"
	"ao3kit/lib/serviceutil"
	"ao3kit/lib/telemetry"
)

func main() {
	ctx := serviceutil.SignalContext()
	telemetry.SetupFromEnv(ctx, "ao3")
	telemetry.InitSlog(false)
	telemetry.InstrumentPerfStats(ctx)
	commands.ExecuteContext(ctx)
}
