package logger

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestInit_JSONWithService(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	var buf bytes.Buffer
	log := Init(Options{Level: "debug", Output: &buf, Service: "launchpad-auth"})
	log.Debug().Str("user_id", "u1").Msg("user registered")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected a JSON line, got %q: %v", buf.String(), err)
	}
	if line["service"] != "launchpad-auth" || line["message"] != "user registered" || line["level"] != "debug" {
		t.Fatalf("unexpected line: %+v", line)
	}
	if _, ok := line["time"]; !ok {
		t.Fatalf("timestamp missing: %+v", line)
	}
}

func TestInit_OnlyFirstCallApplies(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	var first, second bytes.Buffer
	Init(Options{Level: "warn", Output: &first})
	Init(Options{Level: "debug", Output: &second})

	root := Get()
	root.Info().Msg("dropped")
	policyLog := Named("policy")
	policyLog.Warn().Msg("kept")

	if second.Len() != 0 {
		t.Fatalf("second Init must be ignored")
	}
	var line map[string]any
	if err := json.Unmarshal(first.Bytes(), &line); err != nil {
		t.Fatalf("expected exactly one JSON line, got %q: %v", first.String(), err)
	}
	if line["component"] != "policy" || line["message"] != "kept" {
		t.Fatalf("unexpected line: %+v", line)
	}
}

func TestGet_PanicsBeforeInit(t *testing.T) {
	Reset()
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	Get()
}

func TestParseLevel(t *testing.T) {
	cases := map[string]string{"trace": "trace", "DEBUG": "debug", "warning": "warn", "error": "error", "": "info", "loud": "info"}
	for in, want := range cases {
		if got := parseLevel(in).String(); got != want {
			t.Fatalf("parseLevel(%q) = %s, want %s", in, got, want)
		}
	}
}
