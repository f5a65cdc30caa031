// Command autorecord opens Google Calendar and Meet in a Playwright-driven
// Chromium and configures meeting recording settings and starts recordings
// on the user's behalf.
package main

func main() {
	Execute()
}
