package main

import "campus-vibe-backend/cmd"

func main() {
	cmd.Execute()
}
