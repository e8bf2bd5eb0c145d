package main

import "go-warehouse-ws/cmd/whctl/commands"

func main() {
	commands.Execute()
}
