package main

import "github.com/racingminer/trackblocks/cmd"

func main() {
	cmd.Execute()
}
