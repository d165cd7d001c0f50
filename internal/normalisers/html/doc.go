// Package html extracts SRD text from HTML uploads. It walks the parsed
// document tree, drops non-content elements (scripts, styles, navigation
// chrome) and keeps block structure as line breaks so the chunker can prefer
// paragraph boundaries.
package html
