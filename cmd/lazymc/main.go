// Command lazymc is a transparent Minecraft Java Edition proxy that
// suspends an idle backend server and wakes it on the next connection
// attempt.
package main

import "os"

func main() {
	os.Exit(run(os.Args[1:]))
}
