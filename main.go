package main

import "tapocam-cli/cmd"

func main() {
	cmd.Execute()
}
