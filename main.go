package main

import "github.com/structur-io/structur/cmd"

func main() {
	cmd.Execute()
}
