// Copyright 2024 Google Inc. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"

	"github.com/ellabellla/servefs/cmd"
)

func main() {
	defer reportCrash()
	cmd.Execute()
}

// reportCrash appends a stack trace to the user's cache directory if main
// panics, so a crashed mount or serve process leaves a trace behind even
// though it is normally running detached or as a daemon.
func reportCrash() {
	r := recover()
	if r == nil {
		return
	}

	if cacheDir, err := os.UserCacheDir(); err == nil {
		crashLog := filepath.Join(cacheDir, "servefs", "crash.log")
		if err := os.MkdirAll(filepath.Dir(crashLog), 0755); err == nil {
			w := cmd.NewCrashWriter(crashLog)
			fmt.Fprintf(w, "servefs panic: %v\n%s\n", r, debug.Stack())
		}
	}

	panic(r)
}
