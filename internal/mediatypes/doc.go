// Package mediatypes classifies filesystem entries by extension and detects
// multi-part media file naming (cd1/part2/disc3 suffixes).
package mediatypes
