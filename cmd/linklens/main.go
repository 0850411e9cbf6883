// Package main provides the entry point for the LinkLens CLI.
//
// LinkLens finds internal backlinks to chosen target URLs across
// WordPress sites by walking their sitemaps and inspecting the content
// region of every listed page.
//
// Usage:
//
//	linklens scan <target-url>...
//	linklens suggest --keyword <keyword> <target-url>
//
// See --help for all available options.
package main

// main is the entry point for LinkLens.
func main() {
	Execute()
}
