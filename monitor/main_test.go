package monitor

import (
	"os"
	"testing"

	"github.com/onnwee/livechat-bot/telemetry"
)

func TestMain(m *testing.M) {
	telemetry.Init()
	os.Exit(m.Run())
}
