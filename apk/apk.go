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

// Package apk answers high-level questions about an APK (is it valid, is
// it debuggable, what package and version does it declare) by combining
// the apkzip container reader with the binaryxml manifest parser. It also
// rewrites the manifest's debuggable flag and writes the result back out as
// a new archive.
package apk

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/CrackerCat/android-introspection/apkzip"
	"github.com/CrackerCat/android-introspection/binaryxml"
	"github.com/CrackerCat/android-introspection/fault"
	"github.com/CrackerCat/android-introspection/logsink"
)

const (
	androidManifest = "AndroidManifest.xml"

	manifestTagManifest    = "manifest"
	manifestTagApplication = "application"

	manifestAttrDebuggable  = "debuggable"
	manifestAttrPackage     = "package"
	manifestAttrVersionName = "versionName"
	manifestAttrVersionCode = "versionCode"
)

// ErrMissingManifest is returned when the archive has no AndroidManifest.xml
// entry, or the entry is empty.
const ErrMissingManifest fault.Const = "apk: missing AndroidManifest.xml"

// ErrMissingApplicationElement is returned by MakeDebuggable when the
// manifest carries no application element to mark debuggable.
const ErrMissingApplicationElement fault.Const = "apk: missing application element in manifest"

var applicationPath = []string{manifestTagManifest, manifestTagApplication}

// Apk is an open APK archive plus its decoded manifest. The manifest bytes
// are loaded once and shared by every query; MakeDebuggable mutates them in
// place, so queries observe the mutation immediately.
type Apk struct {
	archive  *apkzip.Archive
	sink     logsink.Sink
	manifest []byte
}

// New opens the APK at path.
func New(path string) (*Apk, error) {
	archive, err := apkzip.Open(path)
	if err != nil {
		return nil, err
	}
	return &Apk{archive: archive, sink: logsink.Nop}, nil
}

// NewFromBytes opens an APK already loaded into memory.
func NewFromBytes(data []byte) (*Apk, error) {
	archive, err := apkzip.OpenBytes(data)
	if err != nil {
		return nil, err
	}
	return &Apk{archive: archive, sink: logsink.Nop}, nil
}

// SetSink routes this Apk's log output to s. The default is logsink.Nop.
func (a *Apk) SetSink(s logsink.Sink) {
	a.sink = logsink.Or(s)
}

// Close releases the underlying archive.
func (a *Apk) Close() error {
	return a.archive.Close()
}

// manifestBytes returns the raw binary-XML manifest, loading it from the
// archive on first use.
func (a *Apk) manifestBytes() ([]byte, error) {
	if a.manifest != nil {
		return a.manifest, nil
	}
	data, err := a.archive.ReadFile(androidManifest)
	if err != nil {
		if errors.Cause(err) == apkzip.ErrEntryNotFound {
			return nil, errors.WithStack(ErrMissingManifest)
		}
		return nil, err
	}
	if len(data) == 0 {
		return nil, errors.WithStack(ErrMissingManifest)
	}
	a.manifest = data
	return a.manifest, nil
}

func (a *Apk) parser() (*binaryxml.Parser, error) {
	data, err := a.manifestBytes()
	if err != nil {
		return nil, err
	}
	return binaryxml.NewWithSink(data, a.sink)
}

// IsValid reports whether the APK carries a parseable manifest with an
// application element.
func (a *Apk) IsValid() bool {
	p, err := a.parser()
	if err != nil {
		a.sink.Warnf("apk: not valid: %v", err)
		return false
	}
	return p.HasElement(manifestTagApplication)
}

// IsDebuggable reports whether the manifest's application element carries
// debuggable="true". A missing manifest, application element or attribute
// all read as false.
func (a *Apk) IsDebuggable() bool {
	p, err := a.parser()
	if err != nil {
		a.sink.Warnf("apk: cannot read manifest: %v", err)
		return false
	}
	return p.ElementAttributes(applicationPath)[manifestAttrDebuggable] == "true"
}

// PackageName returns the manifest element's package attribute, or "" if
// absent.
func (a *Apk) PackageName() string {
	return a.manifestAttribute(manifestAttrPackage)
}

// VersionName returns the manifest element's versionName attribute, or ""
// if absent.
func (a *Apk) VersionName() string {
	return a.manifestAttribute(manifestAttrVersionName)
}

// VersionCode returns the manifest element's versionCode attribute in its
// decoded string form, or "" if absent.
func (a *Apk) VersionCode() string {
	return a.manifestAttribute(manifestAttrVersionCode)
}

func (a *Apk) manifestAttribute(name string) string {
	p, err := a.parser()
	if err != nil {
		a.sink.Warnf("apk: cannot read manifest: %v", err)
		return ""
	}
	return p.ElementAttributes([]string{manifestTagManifest})[name]
}

// AndroidManifest renders the manifest as human-readable text XML.
func (a *Apk) AndroidManifest() (string, error) {
	p, err := a.parser()
	if err != nil {
		return "", err
	}
	return p.ToTextXML(), nil
}

// Files returns the names of every entry in the archive.
func (a *Apk) Files() ([]string, error) {
	return a.archive.Names(), nil
}

// FileContents returns the decompressed contents of one archive entry.
func (a *Apk) FileContents(path string) ([]byte, error) {
	return a.archive.ReadFile(path)
}

// Properties returns the APK's metadata as a flat string map: always
// "valid", and when valid also "debuggable", "manifest", "packageName",
// "versionCode" and "versionName".
func (a *Apk) Properties() (map[string]string, error) {
	valid := a.IsValid()
	properties := map[string]string{
		"valid": boolString(valid),
	}
	if !valid {
		return properties, nil
	}

	manifest, err := a.AndroidManifest()
	if err != nil {
		return nil, err
	}
	properties["debuggable"] = boolString(a.IsDebuggable())
	properties["manifest"] = manifest
	properties["packageName"] = a.PackageName()
	properties["versionCode"] = a.VersionCode()
	properties["versionName"] = a.VersionName()
	return properties, nil
}

// MakeDebuggable rewrites the manifest's application element in place so
// that debuggable="true". Only an existing debuggable attribute backed by a
// pool string is rewritten: a string whose encoding is not as long as
// "true" fails with binaryxml.ErrUnsupportedMutation, and an attribute that
// already reads "true" is a no-op success. An application element without
// a debuggable attribute, or whose attribute has no pool string, is left
// unchanged and the call returns nil.
func (a *Apk) MakeDebuggable() error {
	p, err := a.parser()
	if err != nil {
		return err
	}
	if !p.HasElement(manifestTagApplication) {
		return errors.WithStack(ErrMissingApplicationElement)
	}
	return p.SetElementAttribute(applicationPath, manifestAttrDebuggable, "true")
}

// Dump writes the manifest's text XML rendering to dir/AndroidManifest.xml.
func (a *Apk) Dump(dir string) error {
	text, err := a.AndroidManifest()
	if err != nil {
		return err
	}
	out := filepath.Join(dir, androidManifest)
	if err := os.WriteFile(out, []byte(text), 0666); err != nil {
		return errors.Wrapf(err, "writing %s", out)
	}
	return nil
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
