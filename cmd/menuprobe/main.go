// Command menuprobe serves a static menu site, drives a browser through fixed
// probe scenarios and saves what it saw.
package main

func main() {
	Execute()
}
