// Package printing renders order reports and invoices. Documents are built
// from embedded html/template files and printed by headless Chrome through
// the DevTools protocol: status reports to PDF, invoices to PNG.
package printing
