// Package conn provides the bus transports the panel links are driven over.
package conn
