// Package backend reads and writes the raw bytes behind sample URLs.
package backend
