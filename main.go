// The main package for the mivascraper executable.
package main

import "github.com/Trust914/MivaFocus-Extension/cmd"

func main() {
	cmd.Execute()
}
