package confparser

import "testing"

func TestScanBasics(t *testing.T) {
	data := []byte("# comment\n\ntitle  Arch Linux\r\nversion\t5.4\n  options a=b  \n")
	kvs := Scan(data)
	want := []KV{
		{Key: "title", Value: "Arch Linux"},
		{Key: "version", Value: "5.4"},
		{Key: "options", Value: "a=b"},
	}
	if len(kvs) != len(want) {
		t.Fatalf("got %d kvs, want %d: %+v", len(kvs), len(want), kvs)
	}
	for i := range want {
		if kvs[i] != want[i] {
			t.Errorf("kv %d: got %+v want %+v", i, kvs[i], want[i])
		}
	}
}

func TestParseLoaderConf(t *testing.T) {
	kvs := Scan([]byte("timeout 5\ndefault Arch-*\nunknown-key ignored\n"))
	lc := ParseLoaderConf(kvs)
	if !lc.TimeoutSet || lc.TimeoutSec != 5 {
		t.Errorf("timeout not parsed: %+v", lc)
	}
	if lc.DefaultPattern != "arch-*" {
		t.Errorf("default not lowercased: %q", lc.DefaultPattern)
	}
}

func TestParseEntryConfAccumulation(t *testing.T) {
	kvs := Scan([]byte(
		"title Linux\n" +
			"title Linux Again\n" + // at-most-once: second is ignored
			"initrd /A\n" +
			"initrd /B\n" +
			"options console=ttyS0\n" +
			"options quiet\n"))
	ec := ParseEntryConf(kvs)
	if ec.Title != "Linux" {
		t.Errorf("title should keep first value, got %q", ec.Title)
	}
	if ec.Initrd != "initrd=/A initrd=/B" {
		t.Errorf("initrd accumulation wrong: %q", ec.Initrd)
	}
	if ec.Options != "console=ttyS0 quiet" {
		t.Errorf("options accumulation wrong: %q", ec.Options)
	}
}
