package config

import (
	"os"
	"path/filepath"
	"testing"

	"eventcore/libs/testsupport"
)

func writeDescriptor(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestLoadDescriptors_LoadsJSON(t *testing.T) {
	dir := t.TempDir()
	writeDescriptor(t, dir, "oor.json", `{
  "id": "ai-1-oor",
  "algorithm": "out-of-range",
  "monitoredObject": "analog-input-1",
  "parameters": {
    "pMonitoredValue": {"ref": {"object": "analog-input-1", "property": "present-value"}},
    "pHighLimit": {"literal": {"kind": "real", "value": 100}},
    "pLowLimit": {"literal": {"kind": "real", "value": 0}},
    "pDeadband": {"literal": {"kind": "real", "value": 5}}
  },
  "messageTemplates": ["{eventState} above {pHighLimit}", "", ""]
}`)

	got, err := LoadDescriptors(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1, got %d", len(got))
	}
	d := got["ai-1-oor"]
	if d.Algorithm != "out-of-range" {
		t.Fatalf("unexpected: %#v", d)
	}

	high, ok, err := d.Param("pHighLimit")
	if err != nil || !ok {
		t.Fatalf("pHighLimit: ok=%v err=%v", ok, err)
	}
	if high.Literal == nil {
		t.Fatalf("expected literal binding, got %#v", high)
	}
	v, err := high.Literal.Real()
	if err != nil || v != 100 {
		t.Fatalf("pHighLimit value = %v, %v", v, err)
	}

	mv, ok, err := d.Param("pMonitoredValue")
	if err != nil || !ok {
		t.Fatalf("pMonitoredValue: ok=%v err=%v", ok, err)
	}
	if mv.Ref == nil || mv.Ref.Object != "analog-input-1" {
		t.Fatalf("expected ref binding, got %#v", mv)
	}

	if tmpl := d.Templates(); tmpl[0] != "{eventState} above {pHighLimit}" {
		t.Fatalf("templates = %#v", tmpl)
	}
}

func TestLoadDescriptors_AlgorithmicEnrollmentFixture(t *testing.T) {
	dir := t.TempDir()
	raw := testsupport.LoadFixture(t, "enrollment.json")
	if err := os.WriteFile(filepath.Join(dir, "enrollment.json"), raw, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := LoadDescriptors(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	d, ok := got["zone-temp-floating-limit"]
	if !ok {
		t.Fatalf("descriptor missing: %#v", got)
	}
	if d.MonitoringObject != "event-enrollment-7" {
		t.Fatalf("monitoringObject = %q", d.MonitoringObject)
	}
	sp, ok, err := d.Param("pSetpoint")
	if err != nil || !ok {
		t.Fatalf("pSetpoint: ok=%v err=%v", ok, err)
	}
	if sp.Ref == nil || sp.Ref.Object != "analog-value-7" {
		t.Fatalf("pSetpoint = %#v, want a live reference", sp)
	}
}

func TestLoadDescriptors_RejectsUnknownFields(t *testing.T) {
	dir := t.TempDir()
	writeDescriptor(t, dir, "bad.json", `{
  "id": "x",
  "algorithm": "none",
  "monitoredObject": "ai-1",
  "surprise": true
}`)

	if _, err := LoadDescriptors(dir); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestLoadDescriptors_RejectsUnknownAlgorithm(t *testing.T) {
	dir := t.TempDir()
	writeDescriptor(t, dir, "bad.json", `{
  "id": "x",
  "algorithm": "change-of-timer",
  "monitoredObject": "ai-1"
}`)

	if _, err := LoadDescriptors(dir); err == nil {
		t.Fatal("expected error for unsupported algorithm")
	}
}

func TestLoadDescriptors_RejectsDuplicateIDs(t *testing.T) {
	dir := t.TempDir()
	body := `{"id": "dup", "algorithm": "none", "monitoredObject": "ai-1"}`
	writeDescriptor(t, dir, "a.json", body)
	writeDescriptor(t, dir, "b.json", body)

	if _, err := LoadDescriptors(dir); err == nil {
		t.Fatal("expected error for duplicate id")
	}
}

func TestLoadDescriptors_RejectsAmbiguousParamSource(t *testing.T) {
	dir := t.TempDir()
	writeDescriptor(t, dir, "bad.json", `{
  "id": "x",
  "algorithm": "out-of-range",
  "monitoredObject": "ai-1",
  "parameters": {
    "pHighLimit": {
      "literal": {"kind": "real", "value": 1},
      "ref": {"object": "ai-1", "property": "high-limit"}
    }
  }
}`)

	if _, err := LoadDescriptors(dir); err == nil {
		t.Fatal("expected error for literal+ref parameter")
	}
}

func TestLoadDescriptors_RejectsLiteralKindMismatch(t *testing.T) {
	dir := t.TempDir()
	writeDescriptor(t, dir, "bad.json", `{
  "id": "x",
  "algorithm": "out-of-range",
  "monitoredObject": "ai-1",
  "parameters": {
    "pHighLimit": {"literal": {"kind": "real", "value": "not-a-number"}}
  }
}`)

	if _, err := LoadDescriptors(dir); err == nil {
		t.Fatal("expected error for kind/value mismatch")
	}
}

func TestLoadDescriptors_SkipsNonJSON(t *testing.T) {
	dir := t.TempDir()
	writeDescriptor(t, dir, "readme.txt", "not a descriptor")
	writeDescriptor(t, dir, "ok.json", `{"id": "x", "algorithm": "none", "monitoredObject": "ai-1"}`)

	got, err := LoadDescriptors(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1, got %d", len(got))
	}
}
