// Command heartbeat runs the heartbeat frame loop and manages its
// preferences and encrypted data from the command line.
package main

import "github.com/sarchlab/heartbeat/cmd/heartbeat/cmd"

func main() {
	cmd.Execute()
}
