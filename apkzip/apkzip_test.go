// Copyright (C) 2017 Google Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package apkzip

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/CrackerCat/android-introspection/internal/assert"
)

func buildZip(t *testing.T, entries map[string]string) []byte {
	t.Helper()
	buf := &bytes.Buffer{}
	w := zip.NewWriter(buf)
	// Fixed order so Names() is predictable.
	for _, name := range []string{"AndroidManifest.xml", "classes.dex", "res/layout/main.xml"} {
		content, ok := entries[name]
		if !ok {
			continue
		}
		fw, err := w.Create(name)
		assert.To(t).For("create %s", name).ThatError(err).Succeeded()
		_, err = fw.Write([]byte(content))
		assert.To(t).For("write %s", name).ThatError(err).Succeeded()
	}
	assert.To(t).For("close zip").ThatError(w.Close()).Succeeded()
	return buf.Bytes()
}

func testEntries() map[string]string {
	return map[string]string{
		"AndroidManifest.xml": "binary xml bytes",
		"classes.dex":         "dex bytes",
		"res/layout/main.xml": "layout bytes",
	}
}

func TestOpenBytes(t *testing.T) {
	archive, err := OpenBytes(buildZip(t, testEntries()))
	assert.To(t).For("OpenBytes").ThatError(err).Succeeded()
	defer archive.Close()

	assert.To(t).For("names").ThatSlice(archive.Names()).
		DeepEquals([]string{"AndroidManifest.xml", "classes.dex", "res/layout/main.xml"})
	assert.To(t).For("has manifest").ThatBoolean(archive.Has("AndroidManifest.xml")).IsTrue()
	assert.To(t).For("has absent").ThatBoolean(archive.Has("lib/arm64/libfoo.so")).IsFalse()

	data, err := archive.ReadFile("classes.dex")
	assert.To(t).For("read entry").ThatError(err).Succeeded()
	assert.To(t).For("entry contents").ThatString(data).Equals("dex bytes")
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.apk")
	err := os.WriteFile(path, buildZip(t, testEntries()), 0666)
	assert.To(t).For("write apk").ThatError(err).Succeeded()

	archive, err := Open(path)
	assert.To(t).For("Open").ThatError(err).Succeeded()
	defer archive.Close()

	data, err := archive.ReadFile("AndroidManifest.xml")
	assert.To(t).For("read manifest").ThatError(err).Succeeded()
	assert.To(t).For("manifest contents").ThatString(data).Equals("binary xml bytes")
	assert.To(t).For("close").ThatError(archive.Close()).Succeeded()
}

func TestReadFileNotFound(t *testing.T) {
	archive, err := OpenBytes(buildZip(t, testEntries()))
	assert.To(t).For("OpenBytes").ThatError(err).Succeeded()
	defer archive.Close()

	_, err = archive.ReadFile("missing.txt")
	assert.To(t).For("missing entry").ThatError(err).HasCause(ErrEntryNotFound)
}

func TestOpenBytesRejectsGarbage(t *testing.T) {
	_, err := OpenBytes([]byte("this is not a zip archive"))
	assert.To(t).For("garbage input").ThatError(err).Failed()
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "absent.apk"))
	assert.To(t).For("missing file").ThatError(err).Failed()
}
