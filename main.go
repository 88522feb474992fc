package main

import "mspro-labs/plage-watch/cmd"

func main() {
	cmd.Execute()
}
