package main

import "github.com/sadopc/tasktimer/internal/commands"

func main() {
	commands.Execute()
}
