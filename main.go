package main

import "github.com/kamusis/steamlaunch/cmd"

func main() {
	cmd.Execute()
}
