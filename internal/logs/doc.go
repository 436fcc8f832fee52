// Package logs reads the hlspack log file for the logs command: the last N
// lines, lines appended since an offset, and a polling follow mode.
//
// A Filter narrows output to one job. Console records span a header line and
// indented field lines, so filters are stateful and must see lines in order.
package logs
