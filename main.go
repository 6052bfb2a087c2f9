package main

import "github.com/mabhi256/bpmx/cmd"

func main() {
	cmd.Execute()
}
