package main

import "notesync/cmd/server/cmd"

func main() {
	cmd.Execute()
}
