// File: logging/doc.go
// Package logging
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package logging provides api.Logger implementations: StdLogger over the
// standard log package, and FileSink, an asynchronous daily-rotated file
// sink whose lines can also be observed by subscribers such as the console
// dashboard.
package logging
