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

// Package apkzip opens APK archives (which are ZIP files) and hands out the
// raw bytes of their entries. It is the only part of this module that knows
// the container format; everything above it deals in byte slices.
package apkzip

import (
	"archive/zip"
	"bytes"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/CrackerCat/android-introspection/fault"
)

// ErrEntryNotFound is returned by ReadFile when the archive has no entry
// with the requested name.
const ErrEntryNotFound fault.Const = "apkzip: entry not found"

// Archive is an open APK. It may be backed by an open file (Open) or by an
// in-memory buffer (OpenBytes); Close releases the file in the former case
// and is a no-op in the latter.
type Archive struct {
	r      *zip.Reader
	closer io.Closer
}

// Open opens the APK at path.
func Open(path string) (*Archive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening apk %s", path)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "stating apk %s", path)
	}
	r, err := zip.NewReader(f, fi.Size())
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "reading apk %s", path)
	}
	return &Archive{r: r, closer: f}, nil
}

// OpenBytes opens an APK already loaded into memory.
func OpenBytes(data []byte) (*Archive, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, errors.Wrap(err, "reading apk bytes")
	}
	return &Archive{r: r}, nil
}

// Names returns every entry name in the archive, in ZIP directory order.
func (a *Archive) Names() []string {
	names := make([]string, len(a.r.File))
	for i, f := range a.r.File {
		names[i] = f.Name
	}
	return names
}

// Has reports whether the archive contains an entry named name.
func (a *Archive) Has(name string) bool {
	return a.find(name) != nil
}

// ReadFile decompresses and returns the contents of the entry named name.
func (a *Archive) ReadFile(name string) ([]byte, error) {
	f := a.find(name)
	if f == nil {
		return nil, errors.Wrap(ErrEntryNotFound, name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, errors.Wrapf(err, "opening entry %s", name)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, errors.Wrapf(err, "reading entry %s", name)
	}
	return data, nil
}

// Entries returns the archive's raw zip entries, for callers that need to
// copy them (compression method included) into a new archive.
func (a *Archive) Entries() []*zip.File {
	return a.r.File
}

// Close releases the underlying file, if any.
func (a *Archive) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}

func (a *Archive) find(name string) *zip.File {
	for _, f := range a.r.File {
		if f.Name == name {
			return f
		}
	}
	return nil
}
