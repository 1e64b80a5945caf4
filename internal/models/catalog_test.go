package models

import (
	"strings"
	"testing"
)

func TestCatalogEntriesWellFormed(t *testing.T) {
	seen := make(map[string]bool)
	for _, m := range Catalog {
		if seen[m.Name] {
			t.Errorf("duplicate catalog name %q", m.Name)
		}
		seen[m.Name] = true

		if !strings.HasPrefix(m.Filename, "ggml-") || !strings.HasSuffix(m.Filename, ".bin") {
			t.Errorf("%s: filename %q not of the form ggml-*.bin", m.Name, m.Filename)
		}
		if len(m.SHA1) != 40 {
			t.Errorf("%s: sha1 %q is not 40 hex chars", m.Name, m.SHA1)
		}
		if m.SizeMiB == 0 {
			t.Errorf("%s: zero size", m.Name)
		}
	}
}

func TestFromName(t *testing.T) {
	m, ok := FromName("base.en")
	if !ok {
		t.Fatal("base.en not found")
	}
	if m.Filename != "ggml-base.en.bin" {
		t.Errorf("filename = %q, want ggml-base.en.bin", m.Filename)
	}

	// Matching is case-insensitive.
	if _, ok := FromName("BASE.EN"); !ok {
		t.Error("uppercase lookup failed")
	}

	// But never fuzzy.
	if _, ok := FromName("base.e"); ok {
		t.Error("partial name should not resolve")
	}
	if _, ok := FromName("nonexistent"); ok {
		t.Error("unknown name should not resolve")
	}
}

func TestEveryCatalogNameResolves(t *testing.T) {
	for _, want := range Catalog {
		got, ok := FromName(want.Name)
		if !ok {
			t.Errorf("%s: unreachable by name", want.Name)
			continue
		}
		if got != want {
			t.Errorf("FromName(%s) = %+v, want %+v", want.Name, got, want)
		}
	}
}

func TestDefaultIsInCatalog(t *testing.T) {
	d := Default()
	if d.Name == "" {
		t.Fatal("default model missing from catalog")
	}
	if _, ok := FromName(d.Name); !ok {
		t.Errorf("default %q does not resolve", d.Name)
	}
}

func TestAllNamesMatchesCatalog(t *testing.T) {
	names := AllNames()
	if len(names) != len(Catalog) {
		t.Fatalf("got %d names, want %d", len(names), len(Catalog))
	}
	for i, m := range Catalog {
		if names[i] != m.Name {
			t.Errorf("names[%d] = %q, want %q", i, names[i], m.Name)
		}
	}
}

func TestURL(t *testing.T) {
	m, _ := FromName("tiny")
	want := BaseURL + "/ggml-tiny.bin"
	if got := m.URL(); got != want {
		t.Errorf("URL() = %q, want %q", got, want)
	}
}

func TestSizeHuman(t *testing.T) {
	small := Model{SizeMiB: 75}
	if got := small.SizeHuman(); got != "75 MiB" {
		t.Errorf("SizeHuman() = %q, want 75 MiB", got)
	}
	large := Model{SizeMiB: 2969}
	if got := large.SizeHuman(); got != "2.9 GiB" {
		t.Errorf("SizeHuman() = %q, want 2.9 GiB", got)
	}
}

func TestEncoderNamesStripQuantization(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"base.en-q8_0", "ggml-base.en-encoder.mlmodelc"},
		{"large-v3-turbo-q5_0", "ggml-large-v3-turbo-encoder.mlmodelc"},
		{"tiny", "ggml-tiny-encoder.mlmodelc"},
		{"small.en-tdrz", "ggml-small.en-encoder.mlmodelc"},
	}

	for _, tc := range cases {
		m, ok := FromName(tc.name)
		if !ok {
			t.Fatalf("%s not found", tc.name)
		}
		if got := m.EncoderDirname(); got != tc.want {
			t.Errorf("%s: EncoderDirname() = %q, want %q", tc.name, got, tc.want)
		}
		if got := m.EncoderZipName(); got != tc.want+".zip" {
			t.Errorf("%s: EncoderZipName() = %q, want %q", tc.name, got, tc.want+".zip")
		}
	}
}
