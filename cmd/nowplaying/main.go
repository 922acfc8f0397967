// Command nowplaying tracks the desktop's MPRIS media players and serves
// the now-playing state over HTTP.
// Run "nowplaying serve --mock" to use simulated players (no session bus required).
package main

func main() {
	Execute()
}
