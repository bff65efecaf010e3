// Package cli implements the command-line interface for bonetider.
//
// The cli package provides the Cobra-based commands: today prints the prayer
// times for a date (text, JSON, YAML or iCalendar), serve runs the HTTP service,
// inspect reports on a fetched timetable document, and history lists or prunes
// stored records. Configuration is loaded once per invocation through viper.
package cli
