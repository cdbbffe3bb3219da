package main

import "github.com/Chetan6969/Testing-r/cmd"

func main() {
	cmd.Run()
}
