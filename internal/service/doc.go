// Package service turns upstream timetable documents into the prayer times record
// served to clients.
//
// Service.Lookup fetches the month's timetable, runs the extraction engine and
// remembers good records in memory and on disk. Service.Resolve never fails: when
// live extraction is impossible it serves the last stored record for the date,
// then the configured static times, flagging either case in the response.
package service
