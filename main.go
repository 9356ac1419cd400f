package main

import "github.com/Bitlatte/devblog/cmd"

func main() {
	cmd.Execute()
}
