package main

import "slaintel/internal/app"

func main() {
	app.Main()
}
