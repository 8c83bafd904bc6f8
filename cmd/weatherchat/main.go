// Command weatherchat is a terminal chat client for a weather backend.
package main

import "github.com/diogo/weatherchat/internal/commands"

func main() {
	commands.Execute()
}
