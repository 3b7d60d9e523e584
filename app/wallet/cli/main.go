// This program manages reward keys and the text encoding used to display
// hashes in the simulation.
package main

import "github.com/ardanlabs/blocksim/app/wallet/cli/cmd"

func main() {
	cmd.Execute()
}
