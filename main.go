package main

import "github.com/spryctl/spryctl/cmd"

func main() {
	cmd.Execute()
}
