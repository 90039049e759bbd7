// Copyright 2026 The Innatives Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/innatives/geocoding-app-v2/cmd"
)

var Version = "development"

func main() {
	cmd.Execute(Version)
}
