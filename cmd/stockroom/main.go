package main

import "stockroom/cmd/stockroom/cmd"

func main() {
	cmd.Execute()
}
