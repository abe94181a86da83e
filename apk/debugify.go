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

package apk

import (
	"archive/zip"
	"io"
	"os"
	"regexp"

	"github.com/pkg/errors"
)

// jarSignatureFilePattern matches the JAR signature entries that stop
// validating once the manifest bytes change.
var jarSignatureFilePattern = regexp.MustCompile(`META-INF/([^/]*(DSA|RSA|SF)|MANIFEST\.MF)`)

// Debugify writes a copy of the APK to dst with the manifest's debuggable
// flag set to true and the now-stale JAR signature files removed. The flag
// is set by MakeDebuggable; where that leaves the manifest unchanged, the
// copy carries the manifest as it was. The copy is not re-signed or
// zipaligned; installing it requires a re-sign step outside this module.
func (a *Apk) Debugify(dst string) error {
	if err := a.MakeDebuggable(); err != nil {
		return err
	}
	manifest, err := a.manifestBytes()
	if err != nil {
		return err
	}

	out, err := os.Create(dst)
	if err != nil {
		return errors.Wrapf(err, "creating %s", dst)
	}
	defer out.Close()

	w := zip.NewWriter(out)
	for _, zf := range a.archive.Entries() {
		if jarSignatureFilePattern.MatchString(zf.Name) {
			a.sink.Infof("apk: dropping signature file %s", zf.Name)
			continue
		}

		fw, err := w.CreateHeader(&zip.FileHeader{
			Name:     zf.Name,
			Method:   zf.Method,
			Modified: zf.Modified,
		})
		if err != nil {
			return errors.Wrapf(err, "creating entry %s", zf.Name)
		}

		if zf.Name == androidManifest {
			if _, err := fw.Write(manifest); err != nil {
				return errors.Wrap(err, "writing mutated manifest")
			}
			continue
		}

		fr, err := zf.Open()
		if err != nil {
			return errors.Wrapf(err, "opening entry %s", zf.Name)
		}
		_, err = io.Copy(fw, fr)
		fr.Close()
		if err != nil {
			return errors.Wrapf(err, "copying entry %s", zf.Name)
		}
	}

	if err := w.Close(); err != nil {
		return errors.Wrapf(err, "finishing %s", dst)
	}
	return nil
}
