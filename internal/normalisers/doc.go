// Package normalisers turns uploaded SRD files into text. Each subpackage
// handles one family of formats; Registry picks the best one for an upload
// by MIME type, falling back to the file extension.
package normalisers
