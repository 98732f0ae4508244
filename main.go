package main

import "github.com/datamind-studio/datamind/cmd"

func main() {
	cmd.Execute()
}
