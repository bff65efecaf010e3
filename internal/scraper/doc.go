// Package scraper fetches the monthly Bonetider timetable from the
// islamiskaforbundet.se widget endpoint.
//
// The widget answers a form POST carrying the city and month with an HTML
// fragment. The scraper sets the browser-like headers the endpoint expects,
// decodes the body to UTF-8 whatever charset the server declares, and retries
// transient failures with exponential backoff. Parsing is left to the extract
// package.
package scraper
