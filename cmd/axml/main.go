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

// axml inspects and rewrites the binary AndroidManifest.xml inside an APK.
//
//	axml app.apk                                 print the APK's properties
//	axml -manifest-only app.apk                  print the manifest as text XML
//	axml -set-debuggable -out debug.apk app.apk  write a debuggable copy
package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/CrackerCat/android-introspection/apk"
	"github.com/CrackerCat/android-introspection/fault"
	"github.com/CrackerCat/android-introspection/logsink"
)

const (
	ErrMissingApk    = fault.Const("missing apk path")
	ErrMissingOutput = fault.Const("-set-debuggable requires -out")
)

var (
	manifestOnly  = flag.Bool("manifest-only", false, "Print only the manifest as text XML")
	setDebuggable = flag.Bool("set-debuggable", false, "Write a copy of the APK with debuggable=\"true\"")
	output        = flag.String("out", "", "The output APK path for -set-debuggable")
	verbose       = flag.Bool("v", false, "Log progress to stderr")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: axml [flags] <apk>\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "axml: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	path := flag.Arg(0)
	if path == "" {
		flag.Usage()
		return ErrMissingApk
	}

	a, err := apk.New(path)
	if err != nil {
		return err
	}
	defer a.Close()

	if *verbose {
		a.SetSink(logsink.Std{W: os.Stderr})
	}

	switch {
	case *setDebuggable:
		if *output == "" {
			return ErrMissingOutput
		}
		return a.Debugify(*output)

	case *manifestOnly:
		text, err := a.AndroidManifest()
		if err != nil {
			return err
		}
		fmt.Print(text)
		return nil

	default:
		props, err := a.Properties()
		if err != nil {
			return err
		}
		keys := make([]string, 0, len(props))
		for k := range props {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Printf("%s: %s\n", k, props[k])
		}
		return nil
	}
}
