// Package ports holds the storage contracts the page services are written against. The
// MySQL repository implements them in production and in-memory fakes implement them in
// service tests.
package ports
