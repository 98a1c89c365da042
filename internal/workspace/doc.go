// Package workspace manages scratch directories for external converters.
//
// Every Create call returns a fresh, uniquely named directory so concurrent
// font builds never share files. The manager's KeepPolicy can leave a
// converter's input and output behind for inspection.
package workspace
