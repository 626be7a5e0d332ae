package main

import "github.com/fakeyudi/lapse/cmd"

func main() {
	cmd.Execute()
}
