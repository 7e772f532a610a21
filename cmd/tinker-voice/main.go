// Package main is the entry point for tinker-voice.
package main

import "github.com/bledden/tinker-voice/cmd/tinker-voice/cmd"

func main() {
	cmd.Execute()
}
