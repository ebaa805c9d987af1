package log

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestSetOutput_ComponentField(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf, "info")
	defer SetOutput(&bytes.Buffer{}, "info")

	Staking.Info().Str("op", "stake").Msg("hello")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("unmarshal log line %q: %v", buf.String(), err)
	}
	if entry["component"] != "staking" {
		t.Errorf("component = %v, want staking", entry["component"])
	}
	if entry["op"] != "stake" {
		t.Errorf("op = %v, want stake", entry["op"])
	}
}

func TestSetOutput_Level(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf, "warn")
	defer SetOutput(&bytes.Buffer{}, "info")

	Chain.Info().Msg("dropped")
	if buf.Len() != 0 {
		t.Errorf("info message written at warn level: %s", buf.String())
	}
	Chain.Warn().Msg("kept")
	if buf.Len() == 0 {
		t.Error("warn message not written at warn level")
	}
}

func TestValidLevel(t *testing.T) {
	for _, lvl := range []string{"trace", "debug", "info", "warn", "error", "INFO"} {
		if !ValidLevel(lvl) {
			t.Errorf("ValidLevel(%q) = false", lvl)
		}
	}
	if ValidLevel("verbose") {
		t.Error("ValidLevel(verbose) = true")
	}
}
