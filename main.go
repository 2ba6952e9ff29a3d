package main

import "github.com/que-labs/quecore/cmd"

func main() {
	cmd.Execute()
}
