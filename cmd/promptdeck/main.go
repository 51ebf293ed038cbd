package main

import "github.com/gnemet/PromptDeck/cmd/promptdeck/commands"

func main() {
	commands.Execute()
}
