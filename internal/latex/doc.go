// Package latex holds the line-oriented text transforms applied to LaTeX
// documents: a readable preview, section body replacement and a unified diff
// of the result. None of it parses LaTeX; headings are found by matching
// literal command names.
package latex
