package codec

import "testing"

func TestRoundTripBMP(t *testing.T) {
	cases := []string{
		"",
		"a",
		"Arch Linux",
		"loader.conf",
		"éèê", // latin-1 supplement
		"中文",       // CJK
	}
	for _, s := range cases {
		enc := UTF8ToUTF16LE(s)
		dec := UTF16LEToUTF8(enc)
		if dec != s {
			t.Errorf("round trip failed for %q: got %q", s, dec)
		}
	}
}

func TestUTF16LEToUTF8StopsAtNUL(t *testing.T) {
	in := []byte{'a', 0, 0, 0, 'b', 0}
	if got := UTF16LEToUTF8(in); got != "a" {
		t.Errorf("expected decoding to stop at NUL, got %q", got)
	}
}

func TestUTF8ToUTF16LENulTerminated(t *testing.T) {
	enc := UTF8ToUTF16LE("ab")
	want := []byte{'a', 0, 'b', 0, 0, 0}
	if len(enc) != len(want) {
		t.Fatalf("length mismatch: got %d want %d", len(enc), len(want))
	}
	for i := range want {
		if enc[i] != want[i] {
			t.Fatalf("byte %d: got %d want %d", i, enc[i], want[i])
		}
	}
}

func TestCanonicalizeBackslashPath(t *testing.T) {
	cases := map[string]string{
		`\EFI\\BOOT\x.efi`:   `\EFI\BOOT\x.efi`,
		`\\\\a\\b`:           `\a\b`,
		`a`:                  `a`,
		`\a\\\\\\b`:          `\a\b`,
	}
	for in, want := range cases {
		if got := CanonicalizeBackslashPath(in); got != want {
			t.Errorf("CanonicalizeBackslashPath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestBackslashSlashRoundTrip(t *testing.T) {
	p := `\EFI\BOOT\BOOTX64.EFI`
	if got := SlashToBackslash(BackslashToSlash(p)); got != p {
		t.Errorf("round trip failed: got %q want %q", got, p)
	}
}
