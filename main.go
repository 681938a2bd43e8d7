package main

import "github.com/tanq16/pahedl/cmd"

func main() {
	cmd.Execute()
}
