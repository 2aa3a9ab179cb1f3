package main

import "github.com/notargets/xtalmesh/cmd"

func main() {
	cmd.Execute()
}
