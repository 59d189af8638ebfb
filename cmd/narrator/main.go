// Command narrator runs the narration assistant.
package main

import "github.com/teslashibe/go-narrator/internal/cmd"

func main() {
	cmd.Execute()
}
