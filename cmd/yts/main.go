// Package main is the entry point for the yts application.
package main

import (
	"os"

	"github.com/w7-mgfcode/youtube-transcription-service-v1/cmd/yts/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
