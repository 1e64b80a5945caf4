// Package models manages whisper model artifacts: a fixed catalog of the
// available ggml variants plus download, verification, and caching of the
// files under a local models directory.
package models

import (
	"fmt"
	"strings"
)

// BaseURL is where model artifacts are fetched from.
const BaseURL = "https://huggingface.co/ggerganov/whisper.cpp/resolve/main"

// Model is one catalog entry: a specific size/quantization of the speech
// model. The set of variants is fixed at build time.
type Model struct {
	// Name is the canonical config name, e.g. "base.en-q8_0".
	Name string
	// Filename is the artifact name under the models directory.
	Filename string
	// SizeMiB is the approximate artifact size.
	SizeMiB uint32
	// SHA1 is the expected hex digest of the artifact.
	SHA1 string
}

// Catalog lists every available model variant.
// For the upstream list, see https://huggingface.co/ggerganov/whisper.cpp
var Catalog = []Model{
	{Name: "tiny", Filename: "ggml-tiny.bin", SizeMiB: 75, SHA1: "bd577a113a864445d4c299885e0cb97d4ba92b5f"},
	{Name: "tiny-q5_1", Filename: "ggml-tiny-q5_1.bin", SizeMiB: 31, SHA1: "2827a03e495b1ed3048ef28a6a4620537db4ee51"},
	{Name: "tiny-q8_0", Filename: "ggml-tiny-q8_0.bin", SizeMiB: 42, SHA1: "19e8118f6652a650569f5a949d962154e01571d9"},
	{Name: "tiny.en", Filename: "ggml-tiny.en.bin", SizeMiB: 75, SHA1: "c78c86eb1a8faa21b369bcd33207cc90d64ae9df"},
	{Name: "tiny.en-q5_1", Filename: "ggml-tiny.en-q5_1.bin", SizeMiB: 31, SHA1: "3fb92ec865cbbc769f08137f22470d6b66e071b6"},
	{Name: "tiny.en-q8_0", Filename: "ggml-tiny.en-q8_0.bin", SizeMiB: 42, SHA1: "802d6668e7d411123e672abe4cb6c18f12306abb"},
	{Name: "base", Filename: "ggml-base.bin", SizeMiB: 142, SHA1: "465707469ff3a37a2b9b8d8f89f2f99de7299dac"},
	{Name: "base-q5_1", Filename: "ggml-base-q5_1.bin", SizeMiB: 57, SHA1: "a3733eda680ef76256db5fc5dd9de8629e62c5e7"},
	{Name: "base-q8_0", Filename: "ggml-base-q8_0.bin", SizeMiB: 78, SHA1: "7bb89bb49ed6955013b166f1b6a6c04584a20fbe"},
	{Name: "base.en", Filename: "ggml-base.en.bin", SizeMiB: 142, SHA1: "137c40403d78fd54d454da0f9bd998f78703390c"},
	{Name: "base.en-q5_1", Filename: "ggml-base.en-q5_1.bin", SizeMiB: 57, SHA1: "d26d7ce5a1b6e57bea5d0431b9c20ae49423c94a"},
	{Name: "base.en-q8_0", Filename: "ggml-base.en-q8_0.bin", SizeMiB: 78, SHA1: "bb1574182e9b924452bf0cd1510ac034d323e948"},
	{Name: "small", Filename: "ggml-small.bin", SizeMiB: 466, SHA1: "55356645c2b361a969dfd0ef2c5a50d530afd8d5"},
	{Name: "small-q5_1", Filename: "ggml-small-q5_1.bin", SizeMiB: 181, SHA1: "6fe57ddcfdd1c6b07cdcc73aaf620810ce5fc771"},
	{Name: "small-q8_0", Filename: "ggml-small-q8_0.bin", SizeMiB: 252, SHA1: "bcad8a2083f4e53d648d586b7dbc0cd673d8afad"},
	{Name: "small.en", Filename: "ggml-small.en.bin", SizeMiB: 466, SHA1: "db8a495a91d927739e50b3fc1cc4c6b8f6c2d022"},
	{Name: "small.en-q5_1", Filename: "ggml-small.en-q5_1.bin", SizeMiB: 181, SHA1: "20f54878d608f94e4a8ee3ae56016571d47cba34"},
	{Name: "small.en-q8_0", Filename: "ggml-small.en-q8_0.bin", SizeMiB: 252, SHA1: "9d75ff4ccfa0a8217870d7405cf8cef0a5579852"},
	{Name: "small.en-tdrz", Filename: "ggml-small.en-tdrz.bin", SizeMiB: 465, SHA1: "b6c6e7e89af1a35c08e6de56b66ca6a02a2fdfa1"},
	{Name: "medium", Filename: "ggml-medium.bin", SizeMiB: 1536, SHA1: "fd9727b6e1217c2f614f9b698455c4ffd82463b4"},
	{Name: "medium-q5_0", Filename: "ggml-medium-q5_0.bin", SizeMiB: 514, SHA1: "7718d4c1ec62ca96998f058114db98236937490e"},
	{Name: "medium-q8_0", Filename: "ggml-medium-q8_0.bin", SizeMiB: 785, SHA1: "e66645948aff4bebbec71b3485c576f3d63af5d6"},
	{Name: "medium.en", Filename: "ggml-medium.en.bin", SizeMiB: 1536, SHA1: "8c30f0e44ce9560643ebd10bbe50cd20eafd3723"},
	{Name: "medium.en-q5_0", Filename: "ggml-medium.en-q5_0.bin", SizeMiB: 514, SHA1: "bb3b5281bddd61605d6fc76bc5b92d8f20284c3b"},
	{Name: "medium.en-q8_0", Filename: "ggml-medium.en-q8_0.bin", SizeMiB: 785, SHA1: "b1cf48c12c807e14881f634fb7b6c6ca867f6b38"},
	{Name: "large-v1", Filename: "ggml-large-v1.bin", SizeMiB: 2969, SHA1: "b1caaf735c4cc1429223d5a74f0f4d0b9b59a299"},
	{Name: "large-v2", Filename: "ggml-large-v2.bin", SizeMiB: 2969, SHA1: "0f4c8e34f21cf1a914c59d8b3ce882345ad349d6"},
	{Name: "large-v2-q5_0", Filename: "ggml-large-v2-q5_0.bin", SizeMiB: 1126, SHA1: "00e39f2196344e901b3a2bd5814807a769bd1630"},
	{Name: "large-v2-q8_0", Filename: "ggml-large-v2-q8_0.bin", SizeMiB: 1536, SHA1: "da97d6ca8f8ffbeeb5fd147f79010eeea194ba38"},
	{Name: "large-v3", Filename: "ggml-large-v3.bin", SizeMiB: 2969, SHA1: "ad82bf6a9043ceed055076d0fd39f5f186ff8062"},
	{Name: "large-v3-q5_0", Filename: "ggml-large-v3-q5_0.bin", SizeMiB: 1126, SHA1: "e6e2ed78495d403bef4b7cff42ef4aaadcfea8de"},
	{Name: "large-v3-turbo", Filename: "ggml-large-v3-turbo.bin", SizeMiB: 1536, SHA1: "4af2b29d7ec73d781377bfd1758ca957a807e941"},
	{Name: "large-v3-turbo-q5_0", Filename: "ggml-large-v3-turbo-q5_0.bin", SizeMiB: 547, SHA1: "e050f7970618a659205450ad97eb95a18d69c9ee"},
	{Name: "large-v3-turbo-q8_0", Filename: "ggml-large-v3-turbo-q8_0.bin", SizeMiB: 834, SHA1: "01bf15bedffe9f39d65c1b6ff9b687ea91f59e0e"},
}

// Default returns the model variant used when none is configured.
func Default() Model {
	m, _ := FromName("large-v3-turbo-q8_0")
	return m
}

// FromName resolves a user-supplied name to a catalog entry. Matching is
// case-insensitive and exact, never fuzzy.
func FromName(name string) (Model, bool) {
	name = strings.ToLower(name)
	for _, m := range Catalog {
		if m.Name == name {
			return m, true
		}
	}
	return Model{}, false
}

// AllNames returns the canonical name of every catalog entry.
func AllNames() []string {
	names := make([]string, len(Catalog))
	for i, m := range Catalog {
		names[i] = m.Name
	}
	return names
}

// URL returns the download URL for the model artifact.
func (m Model) URL() string {
	return BaseURL + "/" + m.Filename
}

// SizeBytes returns the approximate artifact size in bytes.
func (m Model) SizeBytes() int64 {
	return int64(m.SizeMiB) * 1024 * 1024
}

// SizeHuman returns a human-readable size string.
func (m Model) SizeHuman() string {
	if m.SizeMiB >= 1024 {
		return fmt.Sprintf("%.1f GiB", float64(m.SizeMiB)/1024)
	}
	return fmt.Sprintf("%d MiB", m.SizeMiB)
}

// encoderBaseName strips the quantization suffix from the variant name.
// CoreML encoders are full-precision and shared across the quantized
// variants of the same base model.
func (m Model) encoderBaseName() string {
	name := m.Name
	for _, suffix := range []string{"-q5_0", "-q5_1", "-q8_0", "-tdrz"} {
		name = strings.TrimSuffix(name, suffix)
	}
	return name
}

// EncoderDirname is the extracted encoder bundle directory name the
// inference engine looks for next to the model file.
func (m Model) EncoderDirname() string {
	return fmt.Sprintf("ggml-%s-encoder.mlmodelc", m.encoderBaseName())
}

// EncoderZipName is the downloadable archive name for the encoder bundle.
func (m Model) EncoderZipName() string {
	return m.EncoderDirname() + ".zip"
}

// EncoderURL returns the download URL for the encoder bundle archive.
func (m Model) EncoderURL() string {
	return BaseURL + "/" + m.EncoderZipName()
}
