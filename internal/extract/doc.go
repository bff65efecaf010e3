// Package extract pulls today's row of prayer times out of the Bonetider
// timetable markup.
//
// The upstream page is not under our control and its markup is frequently
// malformed: rows lack closing tags, header and spacer rows are mixed in, and
// the "today" highlight is not always present. The extractor therefore works on
// text fragments instead of a DOM:
//
//   - IsolateTable cuts out the content of the container element (the tbody with
//     id "ifis_bonetider").
//   - SplitRows splits that content on every row-start marker without requiring
//     a matching row end.
//   - ExtractCells returns the trimmed text of every cell in a row.
//   - A Ladder of strategies (marker, day, shape) picks the row, first match wins.
//   - ToTimeRecord validates the six times and builds a prayer.Record.
//
// The Engine performs no I/O and reads no clock. The same document and target
// always produce the same record.
package extract
