package main

import "github.com/philipparndt/arview/cmd"

func main() {
	cmd.Execute()
}
